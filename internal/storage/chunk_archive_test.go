package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/voxel"
	"github.com/annel0/voxelworld/internal/world"
)

func setupTestArchive(t *testing.T) *ChunkArchive {
	t.Helper()

	archive, err := NewChunkArchive(t.TempDir())
	require.NoError(t, err, "Не удалось создать архив")
	t.Cleanup(func() { archive.Close() })
	return archive
}

func TestArchiveSaveAndLoadChunk(t *testing.T) {
	archive := setupTestArchive(t)

	pos := world.ChunkPos{X: -3, Y: 0, Z: 12}
	chunk := world.NewChunk(pos)
	damaged := voxel.Voxel{Material: voxel.MaterialWood, Health: 20, Flags: voxel.FlagOnFire, StructuralSupport: 3}
	chunk.SetVoxel(vec.Vec3{X: 5, Y: 5, Z: 5}, voxel.New(voxel.MaterialStone, 255))
	chunk.SetVoxel(vec.Vec3{X: 63, Y: 0, Z: 63}, damaged)

	require.NoError(t, archive.SaveChunk(chunk))

	loaded := world.NewChunk(pos)
	found, err := archive.LoadChunk(loaded)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, voxel.New(voxel.MaterialStone, 255), loaded.Voxel(vec.Vec3{X: 5, Y: 5, Z: 5}))
	assert.Equal(t, damaged, loaded.Voxel(vec.Vec3{X: 63, Y: 0, Z: 63}))
	assert.Equal(t, 2, loaded.VoxelCount())

	count, err := archive.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestArchiveMissingChunk(t *testing.T) {
	archive := setupTestArchive(t)

	chunk := world.NewChunk(world.ChunkPos{X: 1})
	found, err := archive.LoadChunk(chunk)
	require.NoError(t, err)
	assert.False(t, found, "Отсутствующий чанк не является ошибкой")
	assert.Equal(t, 0, chunk.VoxelCount())
}

func TestArchiveDenseChunkAndEmptySave(t *testing.T) {
	archive := setupTestArchive(t)

	pos := world.ChunkPos{Y: -1}
	chunk := world.NewChunk(pos)
	chunk.Fill(voxel.New(voxel.MaterialStone, 255))
	require.NoError(t, archive.SaveChunk(chunk))

	loaded := world.NewChunk(pos)
	found, err := archive.LoadChunk(loaded)
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, loaded.IsDense(), "Заполненный чанк должен загружаться в плотном режиме")
	assert.Equal(t, world.ChunkVolume, loaded.VoxelCount())

	// Сохранение пустого чанка удаляет запись
	require.NoError(t, archive.SaveChunk(world.NewChunk(pos)))
	found, err = archive.LoadChunk(world.NewChunk(pos))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestArchiveClosed(t *testing.T) {
	archive, err := NewChunkArchive(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, archive.Close())
	require.NoError(t, archive.Close(), "Повторное закрытие безопасно")

	err = archive.SaveChunk(world.NewChunk(world.ChunkPos{}))
	assert.ErrorIs(t, err, voxel.ErrIOFailure)
}
