package svo

import (
	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/voxel"
)

const chunkEdge = 1 << ChunkLevel

// ChunkGrid - локальная сетка 64³, которую октодерево умеет заполнять и читать
type ChunkGrid interface {
	// ForEachVoxel перечисляет непустые ячейки в локальных координатах
	ForEachVoxel(fn func(local vec.Vec3, v voxel.Voxel))
	// SetVoxel записывает одну ячейку
	SetVoxel(local vec.Vec3, v voxel.Voxel) bool
	// FillRegion заполняет куб с углом origin и ребром size
	FillRegion(origin vec.Vec3, size int32, v voxel.Voxel)
}

type builtKind uint8

const (
	builtAbsent builtKind = iota
	builtUniform
	builtInternal
)

// built - результат сборки поддерева: воздух, однородная область или готовый узел
type built struct {
	kind  builtKind
	value voxel.Voxel
	index uint32
}

// chunkAligned проверяет, что origin выровнен по чанку и чанк лежит в кубе
func (o *Octree) chunkAligned(origin vec.Vec3) bool {
	if origin.X%chunkEdge != 0 || origin.Y%chunkEdge != 0 || origin.Z%chunkEdge != 0 {
		return false
	}
	return o.maxDepth >= ChunkLevel && o.inBounds(origin)
}

// StoreChunkData заменяет поддерево уровня ChunkLevel с углом origin
// содержимым grid. Поддерево строится снизу вверх, однородные октанты
// сливаются сразу. Возвращает false, если чанк не помещается в куб.
func (o *Octree) StoreChunkData(origin vec.Vec3, grid ChunkGrid) bool {
	buf := make([]voxel.Voxel, chunkEdge*chunkEdge*chunkEdge)
	for i := range buf {
		buf[i] = voxel.Air
	}
	grid.ForEachVoxel(func(local vec.Vec3, v voxel.Voxel) {
		buf[gridIndex(local.X, local.Y, local.Z)] = v.Normalize()
	})

	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.chunkAligned(origin) {
		return false
	}

	b := o.build(buf, ChunkLevel, 0, 0, 0)

	if o.maxDepth == ChunkLevel {
		o.releaseChildren(rootIndex)
		o.nodes[rootIndex] = o.materialize(b, ChunkLevel)
		if b.kind == builtInternal {
			o.nodes[b.index] = node{}
			o.freeNodes = append(o.freeNodes, b.index)
		}
		return true
	}

	n := rootIndex
	for o.nodes[n].level > ChunkLevel+1 {
		n = o.descend(n, origin)
	}
	o.ensureInternal(n)

	ci := childIndex(origin, o.nodes[n].level)
	o.detachChild(n, ci)

	switch b.kind {
	case builtUniform:
		o.attachChild(n, ci, o.allocNode(o.materialize(b, ChunkLevel)))
	case builtInternal:
		o.attachChild(n, ci, b.index)
	}
	return true
}

func (o *Octree) materialize(b built, level uint8) node {
	switch b.kind {
	case builtUniform:
		return node{level: level, leaf: true, uniform: true, value: b.value}
	case builtInternal:
		return o.nodes[b.index]
	default:
		return airLeaf(level)
	}
}

func gridIndex(x, y, z int32) int {
	return int(x) + int(y)*chunkEdge + int(z)*chunkEdge*chunkEdge
}

// build собирает поддерево уровня level над локальным кубом с углом (x, y, z)
func (o *Octree) build(buf []voxel.Voxel, level uint8, x, y, z int32) built {
	if level == 0 {
		v := buf[gridIndex(x, y, z)]
		if v.IsAir() {
			return built{kind: builtAbsent}
		}
		return built{kind: builtUniform, value: v}
	}

	half := int32(1) << (level - 1)
	var kids [8]built
	absent, uniform := 0, 0
	for ci := 0; ci < 8; ci++ {
		cx := x + int32(ci&1)*half
		cy := y + int32((ci>>1)&1)*half
		cz := z + int32((ci>>2)&1)*half
		kids[ci] = o.build(buf, level-1, cx, cy, cz)
		switch kids[ci].kind {
		case builtAbsent:
			absent++
		case builtUniform:
			if kids[ci].value == kids[0].value {
				uniform++
			}
		}
	}

	if absent == 8 {
		return built{kind: builtAbsent}
	}
	if uniform == 8 {
		return built{kind: builtUniform, value: kids[0].value}
	}

	n := o.allocNode(node{level: level})
	for ci, k := range kids {
		switch k.kind {
		case builtUniform:
			o.attachChild(n, ci, o.allocNode(node{level: level - 1, leaf: true, uniform: true, value: k.value}))
		case builtInternal:
			o.attachChild(n, ci, k.index)
		}
	}
	return built{kind: builtInternal, index: n}
}

// LoadChunkData заполняет пустую сетку содержимым поддерева с углом origin.
// Однородные области переносятся одной заливкой.
func (o *Octree) LoadChunkData(origin vec.Vec3, grid ChunkGrid) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if !o.chunkAligned(origin) {
		return false
	}

	n := rootIndex
	for {
		nd := o.nodes[n]
		if nd.leaf {
			if nd.uniform && !nd.value.IsAir() {
				grid.FillRegion(vec.Vec3{}, chunkEdge, nd.value)
			}
			return true
		}
		if nd.level == ChunkLevel {
			break
		}
		ci := childIndex(origin, nd.level)
		if nd.mask&(1<<ci) == 0 {
			return true
		}
		n = o.blocks[nd.children][ci]
	}

	type frame struct {
		index uint32
		at    vec.Vec3
	}
	stack := []frame{{index: n}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		nd := o.nodes[f.index]
		if nd.leaf {
			switch {
			case !nd.uniform || nd.value.IsAir():
			case nd.level == 0:
				grid.SetVoxel(f.at, nd.value)
			default:
				grid.FillRegion(f.at, int32(1)<<nd.level, nd.value)
			}
			continue
		}

		half := int32(1) << (nd.level - 1)
		for ci := 7; ci >= 0; ci-- {
			if nd.mask&(1<<ci) == 0 {
				continue
			}
			stack = append(stack, frame{
				index: o.blocks[nd.children][ci],
				at: vec.Vec3{
					X: f.at.X + int32(ci&1)*half,
					Y: f.at.Y + int32((ci>>1)&1)*half,
					Z: f.at.Z + int32((ci>>2)&1)*half,
				},
			})
		}
	}
	return true
}
