package world

import (
	"fmt"

	"github.com/annel0/voxelworld/internal/vec"
)

const (
	// ChunkSize - длина ребра чанка в вокселях
	ChunkSize = 64
	// ChunkVolume - количество ячеек в чанке
	ChunkVolume = ChunkSize * ChunkSize * ChunkSize
)

// ChunkPos - координаты чанка в сетке чанков
type ChunkPos struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
	Z int32 `json:"z"`
}

// ChunkPosOf возвращает чанк, содержащий мировую позицию (деление с округлением вниз)
func ChunkPosOf(pos vec.Vec3, size int32) ChunkPos {
	p := pos.FloorDiv(size)
	return ChunkPos{X: p.X, Y: p.Y, Z: p.Z}
}

// ToVoxelPos возвращает мировую позицию угла чанка с минимальными координатами
func (c ChunkPos) ToVoxelPos(size int32) vec.Vec3 {
	return vec.Vec3{X: c.X * size, Y: c.Y * size, Z: c.Z * size}
}

// Center возвращает мировую позицию центра чанка
func (c ChunkPos) Center() vec.Vec3Float {
	const half = float64(ChunkSize) / 2
	o := c.ToVoxelPos(ChunkSize)
	return vec.Vec3Float{X: float64(o.X) + half, Y: float64(o.Y) + half, Z: float64(o.Z) + half}
}

// String реализует fmt.Stringer
func (c ChunkPos) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c.X, c.Y, c.Z)
}

// LocalPos переводит мировую позицию в локальную позицию внутри чанка
func LocalPos(pos vec.Vec3) vec.Vec3 {
	return pos.FloorMod(ChunkSize)
}

// Less задаёт детерминированный порядок для сортировки списков чанков
func (c ChunkPos) Less(other ChunkPos) bool {
	if c.X != other.X {
		return c.X < other.X
	}
	if c.Y != other.Y {
		return c.Y < other.Y
	}
	return c.Z < other.Z
}
