// Package svo реализует разреженное воксельное октодерево - холодный
// уровень хранения всей планеты. Узлы лежат в плоской арене и адресуются
// индексами; однородные области любого размера занимают один узел.
package svo

import (
	"fmt"
	"sync"

	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/voxel"
)

const (
	// DefaultMaxDepth - глубина по умолчанию (2^20 вокселей по каждой оси)
	DefaultMaxDepth = 20
	// MaxSupportedDepth - предельная глубина, при которой размер мира помещается в int32
	MaxSupportedDepth = 30
	// ChunkLevel - уровень узла, покрывающего ровно один чанк 64³
	ChunkLevel = 6

	rootIndex  uint32 = 0
	noChildren uint32 = 0 // блок 0 зарезервирован и никогда не выдаётся

	nodeBytes  = 16
	blockBytes = 8 * 4
)

// node - слот арены. Лист всегда однороден: payload описывает
// каждый воксель его кубической области.
type node struct {
	children uint32 // индекс блока дочерних слотов, noChildren если блока нет
	mask     uint8  // биты присутствующих детей
	level    uint8  // узел покрывает куб с ребром 1<<level
	leaf     bool
	uniform  bool
	value    voxel.Voxel
}

// Octree - разреженное октодерево над кубом [0, WorldSize)³.
// Все операции потокобезопасны: арену защищает один RWMutex.
type Octree struct {
	mu        sync.RWMutex
	maxDepth  int
	worldSize int32

	nodes      []node
	blocks     [][8]uint32
	freeNodes  []uint32
	freeBlocks []uint32
}

// New создаёт пустое октодерево заданной глубины
func New(maxDepth int) (*Octree, error) {
	if maxDepth < 1 || maxDepth > MaxSupportedDepth {
		return nil, fmt.Errorf("глубина октодерева %d вне диапазона 1..%d: %w",
			maxDepth, MaxSupportedDepth, voxel.ErrOutOfRange)
	}

	o := &Octree{}
	o.reset(maxDepth)
	return o, nil
}

func (o *Octree) reset(maxDepth int) {
	o.maxDepth = maxDepth
	o.worldSize = int32(1) << maxDepth
	o.nodes = []node{airLeaf(uint8(maxDepth))}
	o.blocks = make([][8]uint32, 1)
	o.freeNodes = nil
	o.freeBlocks = nil
}

func airLeaf(level uint8) node {
	return node{level: level, leaf: true, uniform: true, value: voxel.Air}
}

// MaxDepth возвращает глубину дерева
func (o *Octree) MaxDepth() int {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return o.maxDepth
}

// WorldSize возвращает длину ребра адресуемого куба в вокселях
func (o *Octree) WorldSize() int32 {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return o.worldSize
}

// InBounds проверяет, что позиция лежит в [0, WorldSize)³
func (o *Octree) InBounds(pos vec.Vec3) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return o.inBounds(pos)
}

func (o *Octree) inBounds(pos vec.Vec3) bool {
	s := o.worldSize
	return pos.X >= 0 && pos.X < s && pos.Y >= 0 && pos.Y < s && pos.Z >= 0 && pos.Z < s
}

// childIndex выбирает октант: бит 1 - x, бит 2 - y, бит 4 - z
func childIndex(pos vec.Vec3, level uint8) int {
	shift := level - 1
	return int((pos.X>>shift)&1) | int((pos.Y>>shift)&1)<<1 | int((pos.Z>>shift)&1)<<2
}

// Voxel возвращает воксель по мировой позиции. Отсутствующие узлы и
// позиции за пределами куба читаются как воздух.
func (o *Octree) Voxel(pos vec.Vec3) voxel.Voxel {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if !o.inBounds(pos) {
		return voxel.Air
	}

	n := rootIndex
	for {
		nd := &o.nodes[n]
		if nd.leaf {
			if nd.uniform {
				return nd.value
			}
			return voxel.Air
		}
		ci := childIndex(pos, nd.level)
		if nd.mask&(1<<ci) == 0 {
			return voxel.Air
		}
		n = o.blocks[nd.children][ci]
	}
}

// HasVoxel возвращает true, если по позиции лежит не-воздух
func (o *Octree) HasVoxel(pos vec.Vec3) bool {
	return !o.Voxel(pos).IsAir()
}

// SetVoxel записывает воксель, создавая путь до листа нулевого уровня.
// Запись за пределами куба отбрасывается (возвращается false).
func (o *Octree) SetVoxel(pos vec.Vec3, v voxel.Voxel) bool {
	v = v.Normalize()

	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.inBounds(pos) {
		return false
	}

	n := rootIndex
	for o.nodes[n].level > 0 {
		nd := o.nodes[n]
		if nd.leaf && nd.uniform && nd.value == v {
			return true
		}
		n = o.descend(n, pos)
	}

	o.nodes[n] = node{level: 0, leaf: true, uniform: true, value: v}
	return true
}

// descend возвращает ребёнка узла n на пути к pos, при необходимости
// разбивая лист и создавая недостающий узел
func (o *Octree) descend(n uint32, pos vec.Vec3) uint32 {
	o.ensureInternal(n)

	nd := o.nodes[n]
	ci := childIndex(pos, nd.level)
	if nd.mask&(1<<ci) != 0 {
		return o.blocks[nd.children][ci]
	}

	child := o.allocNode(airLeaf(nd.level - 1))
	o.attachChild(n, ci, child)
	return child
}

// ensureInternal превращает лист n во внутренний узел. Дети наследуют
// значение листа, поэтому разбиение не теряет данных. Воздух не
// материализуется: отсутствующий ребёнок и так читается как воздух.
func (o *Octree) ensureInternal(n uint32) {
	nd := o.nodes[n]
	if !nd.leaf {
		return
	}

	inherited := nd.uniform && !nd.value.IsAir()
	o.nodes[n] = node{level: nd.level}
	if !inherited {
		return
	}

	for ci := 0; ci < 8; ci++ {
		child := o.allocNode(node{level: nd.level - 1, leaf: true, uniform: true, value: nd.value})
		o.attachChild(n, ci, child)
	}
}

func (o *Octree) attachChild(parent uint32, ci int, child uint32) {
	if o.nodes[parent].children == noChildren {
		b := o.allocBlock()
		o.nodes[parent].children = b
	}
	o.blocks[o.nodes[parent].children][ci] = child
	o.nodes[parent].mask |= 1 << ci
}

func (o *Octree) detachChild(parent uint32, ci int) {
	nd := &o.nodes[parent]
	if nd.mask&(1<<ci) == 0 {
		return
	}
	child := o.blocks[nd.children][ci]
	o.blocks[nd.children][ci] = 0
	nd.mask &^= 1 << ci
	o.freeSubtree(child)
}

func (o *Octree) allocNode(nd node) uint32 {
	if k := len(o.freeNodes); k > 0 {
		idx := o.freeNodes[k-1]
		o.freeNodes = o.freeNodes[:k-1]
		o.nodes[idx] = nd
		return idx
	}
	o.nodes = append(o.nodes, nd)
	return uint32(len(o.nodes) - 1)
}

func (o *Octree) allocBlock() uint32 {
	if k := len(o.freeBlocks); k > 0 {
		idx := o.freeBlocks[k-1]
		o.freeBlocks = o.freeBlocks[:k-1]
		o.blocks[idx] = [8]uint32{}
		return idx
	}
	o.blocks = append(o.blocks, [8]uint32{})
	return uint32(len(o.blocks) - 1)
}

// releaseChildren освобождает всех потомков n, оставляя сам узел
func (o *Octree) releaseChildren(n uint32) {
	nd := o.nodes[n]
	if nd.children == noChildren {
		return
	}
	for ci := 0; ci < 8; ci++ {
		if nd.mask&(1<<ci) != 0 {
			o.freeSubtree(o.blocks[nd.children][ci])
		}
	}
	o.blocks[nd.children] = [8]uint32{}
	o.freeBlocks = append(o.freeBlocks, nd.children)
	o.nodes[n].children = noChildren
	o.nodes[n].mask = 0
}

func (o *Octree) freeSubtree(n uint32) {
	stack := []uint32{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		nd := o.nodes[cur]
		if nd.children != noChildren {
			for ci := 0; ci < 8; ci++ {
				if nd.mask&(1<<ci) != 0 {
					stack = append(stack, o.blocks[nd.children][ci])
				}
			}
			o.blocks[nd.children] = [8]uint32{}
			o.freeBlocks = append(o.freeBlocks, nd.children)
		}
		o.nodes[cur] = node{}
		o.freeNodes = append(o.freeNodes, cur)
	}
}

// Compress выполняет проход mergeUniformChildren: внутренний узел, все 8
// детей которого - однородные листья с одинаковым значением, становится листом.
func (o *Octree) Compress() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.mergeUniformChildren(rootIndex)
}

// Optimize сливает однородные поддеревья и удаляет пустые (воздушные) узлы
func (o *Octree) Optimize() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.mergeUniformChildren(rootIndex)
	o.removeEmptyNodes(rootIndex)
}

func (o *Octree) mergeUniformChildren(n uint32) {
	nd := o.nodes[n]
	if nd.leaf || nd.children == noChildren {
		return
	}

	for ci := 0; ci < 8; ci++ {
		if nd.mask&(1<<ci) != 0 {
			o.mergeUniformChildren(o.blocks[nd.children][ci])
		}
	}

	if nd.mask != 0xFF {
		return
	}

	block := o.blocks[nd.children]
	first := o.nodes[block[0]]
	if !first.leaf || !first.uniform {
		return
	}
	for ci := 1; ci < 8; ci++ {
		c := o.nodes[block[ci]]
		if !c.leaf || !c.uniform || c.value != first.value {
			return
		}
	}

	o.releaseChildren(n)
	o.nodes[n] = node{level: nd.level, leaf: true, uniform: true, value: first.value}
}

// removeEmptyNodes удаляет воздушные листья; внутренний узел без детей
// становится воздушным листом и удаляется уровнем выше
func (o *Octree) removeEmptyNodes(n uint32) {
	nd := o.nodes[n]
	if nd.leaf {
		return
	}

	if nd.children != noChildren {
		for ci := 0; ci < 8; ci++ {
			if nd.mask&(1<<ci) == 0 {
				continue
			}
			child := o.blocks[nd.children][ci]
			o.removeEmptyNodes(child)
			c := o.nodes[child]
			if c.leaf && (!c.uniform || c.value.IsAir()) {
				o.detachChild(n, ci)
			}
		}
	}

	if o.nodes[n].mask == 0 {
		o.releaseChildren(n)
		o.nodes[n] = airLeaf(nd.level)
	}
}

// NodeCount возвращает количество живых узлов арены
func (o *Octree) NodeCount() int {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return len(o.nodes) - len(o.freeNodes)
}

// MemoryUsage возвращает оценку памяти живых узлов и блоков детей в байтах
func (o *Octree) MemoryUsage() int64 {
	o.mu.RLock()
	defer o.mu.RUnlock()

	liveNodes := len(o.nodes) - len(o.freeNodes)
	liveBlocks := len(o.blocks) - 1 - len(o.freeBlocks)
	return int64(liveNodes)*nodeBytes + int64(liveBlocks)*blockBytes
}
