package svo

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/annel0/voxelworld/internal/voxel"
)

// Теги узлов в файле мира
const (
	tagMaterialLeaf byte = 0x01 // лист: material, воксель New(material, 255) или воздух
	tagVoxelLeaf    byte = 0x02 // лист: material, health, flags, support
	tagInternal     byte = 0x03 // внутренний узел: маска детей, далее дети по порядку
)

// Save записывает заголовок {int32 maxDepth, int32 worldSize} (little endian)
// и узлы в порядке обхода в глубину
func (o *Octree) Save(w io.Writer) error {
	o.mu.RLock()
	defer o.mu.RUnlock()

	bw := bufio.NewWriter(w)
	if err := o.encode(bw); err != nil {
		return fmt.Errorf("запись октодерева: %v: %w", err, voxel.ErrIOFailure)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("запись октодерева: %v: %w", err, voxel.ErrIOFailure)
	}
	return nil
}

func (o *Octree) encode(w *bufio.Writer) error {
	header := [2]int32{int32(o.maxDepth), o.worldSize}
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return err
	}

	stack := []uint32{rootIndex}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		nd := o.nodes[n]
		if nd.leaf {
			v := nd.value
			if !nd.uniform {
				v = voxel.Air
			}
			if err := writeLeaf(w, v); err != nil {
				return err
			}
			continue
		}

		if _, err := w.Write([]byte{tagInternal, nd.mask}); err != nil {
			return err
		}
		for ci := 7; ci >= 0; ci-- {
			if nd.mask&(1<<ci) != 0 {
				stack = append(stack, o.blocks[nd.children][ci])
			}
		}
	}
	return nil
}

func writeLeaf(w *bufio.Writer, v voxel.Voxel) error {
	if v == voxel.Air || v == voxel.New(v.Material, voxel.HealthIndestructible) {
		_, err := w.Write([]byte{tagMaterialLeaf, v.Material})
		return err
	}
	_, err := w.Write([]byte{tagVoxelLeaf, v.Material, v.Health, byte(v.Flags), v.StructuralSupport})
	return err
}

// Load заменяет содержимое дерева данными из r. При ошибке дерево не меняется.
func (o *Octree) Load(r io.Reader) error {
	fresh, err := Read(r)
	if err != nil {
		return err
	}
	o.Replace(fresh)
	return nil
}

// Read декодирует новое дерево из r
func Read(r io.Reader) (*Octree, error) {
	fresh, err := decode(bufio.NewReader(r))
	if err != nil {
		return nil, fmt.Errorf("чтение октодерева: %v: %w", err, voxel.ErrIOFailure)
	}
	return fresh, nil
}

// Replace переносит содержимое other в o. other после вызова не используется.
func (o *Octree) Replace(other *Octree) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.maxDepth = other.maxDepth
	o.worldSize = other.worldSize
	o.nodes = other.nodes
	o.blocks = other.blocks
	o.freeNodes = other.freeNodes
	o.freeBlocks = other.freeBlocks
}

// SaveToFile записывает дерево в файл
func (o *Octree) SaveToFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("не удалось создать файл мира %s: %v: %w", path, err, voxel.ErrIOFailure)
	}

	if err := o.Save(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("не удалось закрыть файл мира %s: %v: %w", path, err, voxel.ErrIOFailure)
	}
	return nil
}

// LoadFromFile заменяет содержимое дерева данными из файла
func (o *Octree) LoadFromFile(path string) error {
	fresh, err := ReadFile(path)
	if err != nil {
		return err
	}
	o.Replace(fresh)
	return nil
}

// ReadFile декодирует новое дерево из файла, не трогая существующие
func ReadFile(path string) (*Octree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть файл мира %s: %v: %w", path, err, voxel.ErrIOFailure)
	}
	defer f.Close()

	return Read(f)
}

// pending - ещё не прочитанный ребёнок внутреннего узла
type pending struct {
	parent uint32
	slot   int
	level  uint8
}

func decode(r *bufio.Reader) (*Octree, error) {
	var header [2]int32
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("заголовок: %w", err)
	}

	maxDepth, worldSize := int(header[0]), header[1]
	if maxDepth < 1 || maxDepth > MaxSupportedDepth {
		return nil, fmt.Errorf("недопустимая глубина %d", maxDepth)
	}
	if worldSize != int32(1)<<maxDepth {
		return nil, fmt.Errorf("размер мира %d не соответствует глубине %d", worldSize, maxDepth)
	}

	o := &Octree{}
	o.reset(maxDepth)

	root, mask, err := readNode(r, uint8(maxDepth))
	if err != nil {
		return nil, err
	}
	o.nodes[rootIndex] = root

	var stack []pending
	stack = pushChildren(stack, rootIndex, mask, uint8(maxDepth))

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		nd, childMask, err := readNode(r, p.level)
		if err != nil {
			return nil, err
		}
		idx := o.allocNode(nd)
		o.attachChild(p.parent, p.slot, idx)
		stack = pushChildren(stack, idx, childMask, p.level)
	}

	if _, err := r.ReadByte(); !errors.Is(err, io.EOF) {
		return nil, errors.New("лишние данные после дерева")
	}
	return o, nil
}

func pushChildren(stack []pending, parent uint32, mask uint8, level uint8) []pending {
	for ci := 7; ci >= 0; ci-- {
		if mask&(1<<ci) != 0 {
			stack = append(stack, pending{parent: parent, slot: ci, level: level - 1})
		}
	}
	return stack
}

// readNode читает один узел уровня level; для внутреннего узла возвращает маску детей
func readNode(r *bufio.Reader, level uint8) (node, uint8, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return node{}, 0, fmt.Errorf("тег узла: %w", unexpected(err))
	}

	switch tag {
	case tagMaterialLeaf:
		m, err := r.ReadByte()
		if err != nil {
			return node{}, 0, fmt.Errorf("материал листа: %w", unexpected(err))
		}
		v := voxel.New(m, voxel.HealthIndestructible).Normalize()
		return node{level: level, leaf: true, uniform: true, value: v}, 0, nil

	case tagVoxelLeaf:
		var b [4]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return node{}, 0, fmt.Errorf("воксель листа: %w", unexpected(err))
		}
		v := voxel.Voxel{Material: b[0], Health: b[1], Flags: voxel.Flags(b[2]), StructuralSupport: b[3]}
		return node{level: level, leaf: true, uniform: true, value: v.Normalize()}, 0, nil

	case tagInternal:
		if level == 0 {
			return node{}, 0, errors.New("внутренний узел на нулевом уровне")
		}
		mask, err := r.ReadByte()
		if err != nil {
			return node{}, 0, fmt.Errorf("маска узла: %w", unexpected(err))
		}
		return node{level: level}, mask, nil

	default:
		return node{}, 0, fmt.Errorf("неизвестный тег узла 0x%02x", tag)
	}
}

func unexpected(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
