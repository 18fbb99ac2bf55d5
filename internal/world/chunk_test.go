package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/voxel"
)

func TestChunkCreateAndGetVoxel(t *testing.T) {
	chunk := NewChunk(ChunkPos{X: 5, Y: -1, Z: 10})

	assert.Equal(t, ChunkPos{X: 5, Y: -1, Z: 10}, chunk.Pos())
	assert.False(t, chunk.IsDense(), "Новый чанк должен быть разреженным")
	assert.Equal(t, StateUnloaded, chunk.State())

	pos := vec.Vec3{X: 3, Y: 4, Z: 5}
	assert.Equal(t, voxel.Air, chunk.Voxel(pos))

	stone := voxel.New(voxel.MaterialStone, 255)
	require.True(t, chunk.SetVoxel(pos, stone))
	assert.Equal(t, stone, chunk.Voxel(pos))
	assert.True(t, chunk.HasVoxel(pos))
	assert.Equal(t, 1, chunk.VoxelCount())
}

func TestChunkOutOfRangeIsSilent(t *testing.T) {
	chunk := NewChunk(ChunkPos{})
	stone := voxel.New(voxel.MaterialStone, 255)

	outside := []vec.Vec3{
		{X: -1, Y: 0, Z: 0},
		{X: 0, Y: ChunkSize, Z: 0},
		{X: 0, Y: 0, Z: 1000},
	}
	for _, p := range outside {
		assert.False(t, chunk.SetVoxel(p, stone), "Запись вне чанка должна игнорироваться: %v", p)
		assert.Equal(t, voxel.Air, chunk.Voxel(p))
	}

	assert.Equal(t, 0, chunk.VoxelCount(), "Состояние чанка не должно измениться")
	assert.False(t, chunk.HasVoxel(vec.Vec3{X: 63, Y: 0, Z: 0}))
	assert.False(t, chunk.HasVoxel(vec.Vec3{X: 0, Y: 0, Z: 0}))
}

func TestChunkAirWritesAreNotStored(t *testing.T) {
	chunk := NewChunk(ChunkPos{})
	pos := vec.Vec3{X: 1, Y: 1, Z: 1}

	chunk.SetVoxel(pos, voxel.New(voxel.MaterialDirt, 10))
	chunk.SetVoxel(pos, voxel.Voxel{Material: voxel.MaterialAir, Health: 99})

	assert.Equal(t, voxel.Air, chunk.Voxel(pos), "Воздух должен нормализоваться")
	assert.Equal(t, 0, chunk.VoxelCount())
}

func TestChunkCompressDecompressIdempotent(t *testing.T) {
	chunk := NewChunk(ChunkPos{})

	written := map[vec.Vec3]voxel.Voxel{}
	for i := int32(0); i < 200; i++ {
		p := vec.Vec3{X: (i * 7) % ChunkSize, Y: (i * 13) % ChunkSize, Z: (i * 29) % ChunkSize}
		v := voxel.Voxel{Material: uint8(1 + i%12), Health: uint8(i), Flags: voxel.Flags(i % 8), StructuralSupport: uint8(255 - i)}
		chunk.SetVoxel(p, v)
		written[p] = v
	}

	snapshot := func() []voxel.Voxel {
		out := make([]voxel.Voxel, 0, ChunkVolume)
		for i := 0; i < ChunkVolume; i++ {
			out = append(out, chunk.Voxel(positionOf(i)))
		}
		return out
	}
	before := snapshot()

	chunk.Decompress()
	assert.True(t, chunk.IsDense())
	chunk.Decompress()
	assert.Equal(t, before, snapshot(), "Повторная распаковка не должна ничего менять")

	chunk.Compress()
	assert.False(t, chunk.IsDense())
	chunk.Compress()
	chunk.Decompress()
	assert.Equal(t, before, snapshot())
	assert.Equal(t, len(written), chunk.VoxelCount())
}

func TestChunkMemoryUsage(t *testing.T) {
	chunk := NewChunk(ChunkPos{})
	sparse := chunk.MemoryUsage()

	chunk.SetVoxel(vec.Vec3{}, voxel.New(voxel.MaterialStone, 255))
	assert.Greater(t, chunk.MemoryUsage(), sparse)

	chunk.Decompress()
	assert.Greater(t, chunk.MemoryUsage(), int64(ChunkVolume*voxelBytes-1))
}

func TestChunkFillDensifies(t *testing.T) {
	chunk := NewChunk(ChunkPos{})
	stone := voxel.New(voxel.MaterialStone, 255)

	// Ровно DenseThreshold ячеек - ещё разреженный режим
	chunk.FillRegion(vec.Vec3{X: 0, Y: 0, Z: 0}, 32, stone)
	require.Equal(t, DenseThreshold, chunk.VoxelCount())
	assert.False(t, chunk.IsDense(), "На пороге чанк остаётся разреженным")
	assert.Equal(t, stone, chunk.Voxel(vec.Vec3{X: 31, Y: 31, Z: 31}))
	assert.Equal(t, voxel.Air, chunk.Voxel(vec.Vec3{X: 32, Y: 0, Z: 0}))

	// Одна ячейка сверх порога переводит заливку в плотный режим
	chunk.FillRegion(vec.Vec3{X: 40, Y: 40, Z: 40}, 1, stone)
	assert.True(t, chunk.IsDense(), "Заливка сверх порога должна переводить чанк в плотный режим")
	assert.Equal(t, DenseThreshold+1, chunk.VoxelCount())

	large := NewChunk(ChunkPos{X: 1})
	large.FillRegion(vec.Vec3{X: 0, Y: 0, Z: 0}, 33, stone)
	assert.True(t, large.IsDense())
	assert.Equal(t, 33*33*33, large.VoxelCount())

	chunk.Fill(voxel.Air)
	assert.Equal(t, 0, chunk.VoxelCount())

	// Область, выходящая за край, обрезается
	chunk.FillRegion(vec.Vec3{X: 62, Y: 62, Z: 62}, 8, stone)
	assert.Equal(t, 8, chunk.VoxelCount())
}

func TestChunkDirtyTransitions(t *testing.T) {
	chunk := NewChunk(ChunkPos{})
	pos := vec.Vec3{X: 2, Y: 2, Z: 2}

	// Запись в загружаемый чанк не делает его грязным
	chunk.SetState(StateLoading)
	chunk.SetVoxel(pos, voxel.New(voxel.MaterialSand, 100))
	assert.Equal(t, StateLoading, chunk.State())

	chunk.SetState(StateActive)
	assert.False(t, chunk.IsDirty())

	chunk.SetVoxel(pos, voxel.New(voxel.MaterialSand, 50))
	assert.Equal(t, StateDirtyMesh, chunk.State())
	assert.True(t, chunk.NeedsMeshUpdate())
	assert.False(t, chunk.NeedsPhysicsUpdate())

	chunk.MarkDirty(StateDirtyStructure)
	assert.True(t, chunk.NeedsMeshUpdate())
	assert.True(t, chunk.NeedsPhysicsUpdate())
	assert.True(t, chunk.NeedsStructuralAnalysis())

	// MarkDirty не понижает уровень
	chunk.MarkDirty(StateDirtyMesh)
	assert.Equal(t, StateDirtyStructure, chunk.State())

	// Запись не понижает более высокий уровень
	chunk.SetVoxel(pos, voxel.New(voxel.MaterialSand, 10))
	assert.Equal(t, StateDirtyStructure, chunk.State())

	chunk.ClearDirty()
	assert.Equal(t, StateActive, chunk.State())
	assert.False(t, chunk.IsDirty())
}

func TestChunkForEachVoxel(t *testing.T) {
	chunk := NewChunk(ChunkPos{})
	chunk.SetVoxel(vec.Vec3{X: 1}, voxel.New(voxel.MaterialWood, 1))
	chunk.SetVoxel(vec.Vec3{Y: 1}, voxel.New(voxel.MaterialMetal, 2))

	for _, dense := range []bool{false, true} {
		if dense {
			chunk.Decompress()
		}
		seen := map[vec.Vec3]voxel.Voxel{}
		chunk.ForEachVoxel(func(local vec.Vec3, v voxel.Voxel) {
			seen[local] = v
		})
		assert.Len(t, seen, 2)
		assert.Equal(t, voxel.MaterialMetal, seen[vec.Vec3{Y: 1}].Material)
	}
}

func TestNeighborPositions(t *testing.T) {
	p := vec.Vec3{X: 0, Y: 0, Z: 0}
	faces := NeighborPositions(p)

	assert.Equal(t, vec.Vec3{X: 1}, faces[0])
	assert.Equal(t, vec.Vec3{X: -1}, faces[1], "Соседи не ограничиваются границами чанка")
	assert.Equal(t, vec.Vec3{Z: -1}, faces[5])

	all := ExtendedNeighborPositions(vec.Vec3{X: 10, Y: 10, Z: 10})
	unique := map[vec.Vec3]struct{}{}
	for _, n := range all {
		assert.NotEqual(t, vec.Vec3{X: 10, Y: 10, Z: 10}, n)
		unique[n] = struct{}{}
	}
	assert.Len(t, unique, 26)
	assert.Equal(t, vec.Vec3{X: 9, Y: 9, Z: 9}, all[0])
}

func TestChunkPosInverse(t *testing.T) {
	for _, c := range []ChunkPos{{0, 0, 0}, {1, -1, 7}, {-100, 3, -5}} {
		assert.Equal(t, c, ChunkPosOf(c.ToVoxelPos(ChunkSize), ChunkSize))
	}

	assert.Equal(t, ChunkPos{X: -1, Y: 0, Z: 0}, ChunkPosOf(vec.Vec3{X: -1, Y: 5, Z: 63}, ChunkSize))
	assert.Equal(t, vec.Vec3{X: 63, Y: 5, Z: 63}, LocalPos(vec.Vec3{X: -1, Y: 5, Z: 63}))
}
