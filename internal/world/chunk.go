package world

import (
	"sync"

	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/voxel"
)

// DenseThreshold - число непустых ячеек, после которого плотный массив
// выгоднее разреженной карты
const DenseThreshold = ChunkVolume / 8

const (
	voxelBytes       = 4
	sparseEntryBytes = 12 + voxelBytes + 16 // ключ + значение + накладные расходы карты
	chunkHeaderBytes = 96
)

// Chunk представляет куб мира 64x64x64 с гибридным хранением:
// плотный массив (по ячейке на позицию) или разреженная карта непустых вокселей.
type Chunk struct {
	pos    ChunkPos
	dense  []voxel.Voxel             // nil в разреженном режиме
	sparse map[vec.Vec3]voxel.Voxel // только не-воздух
	count  int                       // Количество непустых ячеек
	state  State
	mu     sync.RWMutex
}

// NewChunk создаёт пустой чанк в разреженном режиме
func NewChunk(pos ChunkPos) *Chunk {
	return &Chunk{
		pos:    pos,
		sparse: make(map[vec.Vec3]voxel.Voxel),
		state:  StateUnloaded,
	}
}

// Pos возвращает координаты чанка
func (c *Chunk) Pos() ChunkPos {
	return c.pos
}

// Origin возвращает мировую позицию угла чанка
func (c *Chunk) Origin() vec.Vec3 {
	return c.pos.ToVoxelPos(ChunkSize)
}

// InChunk проверяет, что локальная позиция лежит в [0, ChunkSize)³
func InChunk(local vec.Vec3) bool {
	return local.X >= 0 && local.X < ChunkSize &&
		local.Y >= 0 && local.Y < ChunkSize &&
		local.Z >= 0 && local.Z < ChunkSize
}

func index(local vec.Vec3) int {
	return int(local.X) + int(local.Y)*ChunkSize + int(local.Z)*ChunkSize*ChunkSize
}

func positionOf(i int) vec.Vec3 {
	return vec.Vec3{
		X: int32(i % ChunkSize),
		Y: int32((i / ChunkSize) % ChunkSize),
		Z: int32(i / (ChunkSize * ChunkSize)),
	}
}

// Voxel возвращает воксель по локальной позиции.
// Для позиций вне чанка и пустых ячеек возвращается voxel.Air.
func (c *Chunk) Voxel(local vec.Vec3) voxel.Voxel {
	if !InChunk(local) {
		return voxel.Air
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.getLocked(local)
}

// SetVoxel записывает воксель по локальной позиции. Позиции вне чанка
// игнорируются (возвращается false). Запись в активный чанк поднимает
// состояние как минимум до StateDirtyMesh.
func (c *Chunk) SetVoxel(local vec.Vec3, v voxel.Voxel) bool {
	if !InChunk(local) {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.setLocked(local, v.Normalize())
	c.touchLocked()
	return true
}

// HasVoxel возвращает true, если в ячейке лежит не-воздух
func (c *Chunk) HasVoxel(local vec.Vec3) bool {
	return !c.Voxel(local).IsAir()
}

func (c *Chunk) getLocked(local vec.Vec3) voxel.Voxel {
	if c.dense != nil {
		return c.dense[index(local)]
	}
	if v, ok := c.sparse[local]; ok {
		return v
	}
	return voxel.Air
}

// setLocked ожидает нормализованный воксель
func (c *Chunk) setLocked(local vec.Vec3, v voxel.Voxel) {
	if c.dense != nil {
		i := index(local)
		was := !c.dense[i].IsAir()
		c.dense[i] = v
		c.adjustCount(was, !v.IsAir())
		return
	}

	_, was := c.sparse[local]
	if v.IsAir() {
		delete(c.sparse, local)
	} else {
		c.sparse[local] = v
	}
	c.adjustCount(was, !v.IsAir())
}

func (c *Chunk) adjustCount(was, now bool) {
	switch {
	case was && !now:
		c.count--
	case !was && now:
		c.count++
	}
}

// touchLocked поднимает состояние активного чанка до StateDirtyMesh
func (c *Chunk) touchLocked() {
	if c.state >= StateActive && c.state < StateDirtyMesh {
		c.state = StateDirtyMesh
	}
}

// Fill заполняет весь чанк одним вокселем
func (c *Chunk) Fill(v voxel.Voxel) {
	c.FillRegion(vec.Vec3{}, ChunkSize, v)
}

// FillRegion заполняет кубическую область с углом origin и ребром size.
// Часть области за пределами чанка отбрасывается.
func (c *Chunk) FillRegion(origin vec.Vec3, size int32, v voxel.Voxel) {
	v = v.Normalize()
	lo := vec.Vec3{X: max(origin.X, 0), Y: max(origin.Y, 0), Z: max(origin.Z, 0)}
	hi := vec.Vec3{
		X: min(origin.X+size, ChunkSize),
		Y: min(origin.Y+size, ChunkSize),
		Z: min(origin.Z+size, ChunkSize),
	}
	if lo.X >= hi.X || lo.Y >= hi.Y || lo.Z >= hi.Z {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	volume := int(hi.X-lo.X) * int(hi.Y-lo.Y) * int(hi.Z-lo.Z)
	if !v.IsAir() && c.dense == nil && c.count+volume > DenseThreshold {
		c.decompressLocked()
	}

	for z := lo.Z; z < hi.Z; z++ {
		for y := lo.Y; y < hi.Y; y++ {
			for x := lo.X; x < hi.X; x++ {
				c.setLocked(vec.Vec3{X: x, Y: y, Z: z}, v)
			}
		}
	}
	c.touchLocked()
}

// ForEachVoxel вызывает fn для каждой непустой ячейки.
// fn выполняется под блокировкой чтения и не должна обращаться к чанку.
func (c *Chunk) ForEachVoxel(fn func(local vec.Vec3, v voxel.Voxel)) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.dense != nil {
		for i, v := range c.dense {
			if !v.IsAir() {
				fn(positionOf(i), v)
			}
		}
		return
	}

	for p, v := range c.sparse {
		fn(p, v)
	}
}

// Compress переводит чанк в разреженный режим, отбрасывая воздух
func (c *Chunk) Compress() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dense == nil {
		return
	}

	sparse := make(map[vec.Vec3]voxel.Voxel, c.count)
	for i, v := range c.dense {
		if !v.IsAir() {
			sparse[positionOf(i)] = v
		}
	}
	c.sparse = sparse
	c.dense = nil
}

// Decompress переводит чанк в плотный режим: все ячейки инициализируются
// воздухом, затем переносятся разреженные записи
func (c *Chunk) Decompress() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.decompressLocked()
}

func (c *Chunk) decompressLocked() {
	if c.dense != nil {
		return
	}

	dense := make([]voxel.Voxel, ChunkVolume)
	for i := range dense {
		dense[i] = voxel.Air
	}
	for p, v := range c.sparse {
		dense[index(p)] = v
	}
	c.dense = dense
	c.sparse = nil
}

// IsDense возвращает true в плотном режиме
func (c *Chunk) IsDense() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.dense != nil
}

// VoxelCount возвращает количество непустых ячеек
func (c *Chunk) VoxelCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.count
}

// MemoryUsage возвращает оценку занимаемой памяти в байтах
func (c *Chunk) MemoryUsage() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.dense != nil {
		return chunkHeaderBytes + ChunkVolume*voxelBytes
	}
	return chunkHeaderBytes + int64(len(c.sparse))*sparseEntryBytes
}

// State возвращает текущее состояние чанка
func (c *Chunk) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.state
}

// SetState принудительно устанавливает состояние (используется загрузчиком)
func (c *Chunk) SetState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// MarkDirty поднимает состояние до level; понизить его нельзя
func (c *Chunk) MarkDirty(level State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if level > c.state {
		c.state = level
	}
}

// ClearDirty возвращает грязный чанк в StateActive
func (c *Chunk) ClearDirty() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.IsDirty() {
		c.state = StateActive
	}
}

// IsDirty возвращает true, если чанк изменён с последней обработки
func (c *Chunk) IsDirty() bool {
	return c.State().IsDirty()
}

// NeedsMeshUpdate возвращает true начиная с StateDirtyMesh
func (c *Chunk) NeedsMeshUpdate() bool {
	return c.State() >= StateDirtyMesh
}

// NeedsPhysicsUpdate возвращает true начиная с StateDirtyPhysics
func (c *Chunk) NeedsPhysicsUpdate() bool {
	return c.State() >= StateDirtyPhysics
}

// NeedsStructuralAnalysis возвращает true для StateDirtyStructure
func (c *Chunk) NeedsStructuralAnalysis() bool {
	return c.State() >= StateDirtyStructure
}

// NeighborPositions возвращает 6 соседей по граням в порядке +x, -x, +y, -y, +z, -z.
// Границы чанка не проверяются.
func NeighborPositions(p vec.Vec3) [6]vec.Vec3 {
	return [6]vec.Vec3{
		{X: p.X + 1, Y: p.Y, Z: p.Z},
		{X: p.X - 1, Y: p.Y, Z: p.Z},
		{X: p.X, Y: p.Y + 1, Z: p.Z},
		{X: p.X, Y: p.Y - 1, Z: p.Z},
		{X: p.X, Y: p.Y, Z: p.Z + 1},
		{X: p.X, Y: p.Y, Z: p.Z - 1},
	}
}

// ExtendedNeighborPositions возвращает 26 соседей (окрестность Мура).
// Границы чанка не проверяются.
func ExtendedNeighborPositions(p vec.Vec3) [26]vec.Vec3 {
	var out [26]vec.Vec3
	n := 0
	for dx := int32(-1); dx <= 1; dx++ {
		for dy := int32(-1); dy <= 1; dy++ {
			for dz := int32(-1); dz <= 1; dz++ {
				if dx == 0 && dy == 0 && dz == 0 {
					continue
				}
				out[n] = vec.Vec3{X: p.X + dx, Y: p.Y + dy, Z: p.Z + dz}
				n++
			}
		}
	}
	return out
}
