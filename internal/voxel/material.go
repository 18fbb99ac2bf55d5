package voxel

import (
	"fmt"
	"sync"
)

// Идентификаторы стандартных материалов
const (
	MaterialAir   uint8 = iota // 0
	MaterialStone              // 1
	MaterialDirt               // 2
	MaterialGrass              // 3
	MaterialSand               // 4
	MaterialWater              // 5
	MaterialWood               // 6
	MaterialMetal              // 7
	MaterialLava               // 8
	MaterialIce                // 9
	MaterialSnow               // 10
	MaterialCoal               // 11
	MaterialOil                // 12

	// Пользовательские материалы начинаются с 32, слоты 13..31 зарезервированы
	CustomStart uint8 = 32
)

// MaxMaterials - предельный размер палитры (id 0 зарезервирован за воздухом)
const MaxMaterials = 255

// Color задаёт базовый цвет материала (компоненты 0..1)
type Color struct {
	R, G, B float32
}

// Material описывает физические и визуальные свойства материала
type Material struct {
	Name      string
	Color     Color
	Roughness float32 // Шероховатость поверхности (0..1)
	Metallic  float32 // Металличность (0..1)
	Emissive  float32 // Сила свечения

	Density             float32 // кг/м³
	Hardness            float32 // Сопротивление повреждению (0..1)
	CompressionStrength float32 // Несущая способность
	TensileStrength     float32 // Сопротивление растяжению
	Conductivity        float32 // Тепло/электропроводность
	FlashPoint          float32 // Температура воспламенения
	MeltingPoint        float32 // Температура плавления

	Flammable   bool
	Liquid      bool
	Gas         bool
	Transparent bool
	Conductive  bool
}

// NewMaterial создаёт материал с базовыми значениями, производными от твёрдости
func NewMaterial(name string, color Color, hardness float32) Material {
	return Material{
		Name:                name,
		Color:               color,
		Roughness:           0.5,
		Density:             1000,
		Hardness:            hardness,
		CompressionStrength: hardness,
		TensileStrength:     hardness * 0.5,
		Conductivity:        0.1,
		FlashPoint:          500,
		MeltingPoint:        1000,
	}
}

// MaterialPalette - ограниченная таблица материалов, индексируемая id.
// Материалы только добавляются, удаление не поддерживается.
type MaterialPalette struct {
	mu        sync.RWMutex
	materials []Material
}

// NewMaterialPalette создаёт палитру со стандартными материалами
func NewMaterialPalette() *MaterialPalette {
	p := &MaterialPalette{
		materials: make([]Material, 0, MaxMaterials),
	}
	p.initializeStandardMaterials()
	return p
}

// AddMaterial добавляет материал и возвращает его id
func (p *MaterialPalette) AddMaterial(m Material) (uint8, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.materials) >= MaxMaterials {
		return 0, fmt.Errorf("палитра заполнена (%d материалов), %q не добавлен: %w",
			MaxMaterials, m.Name, ErrResourceExhausted)
	}

	p.materials = append(p.materials, m)
	return uint8(len(p.materials) - 1), nil
}

// Material возвращает копию материала по id
func (p *MaterialPalette) Material(id uint8) (Material, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if int(id) >= len(p.materials) {
		return Material{}, fmt.Errorf("материал %d (всего %d): %w", id, len(p.materials), ErrOutOfRange)
	}
	return p.materials[id], nil
}

// Lookup ищет материал по имени
func (p *MaterialPalette) Lookup(name string) (uint8, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for id, m := range p.materials {
		if m.Name == name {
			return uint8(id), true
		}
	}
	return 0, false
}

// Count возвращает количество заполненных слотов, включая зарезервированные
func (p *MaterialPalette) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return len(p.materials)
}

// initializeStandardMaterials заполняет стандартные материалы и резерв до CustomStart
func (p *MaterialPalette) initializeStandardMaterials() {
	air := NewMaterial("Air", Color{0, 0, 0}, 0)
	air.Density = 1.225 // кг/м³ на уровне моря
	air.Gas = true
	air.Transparent = true

	stone := NewMaterial("Stone", Color{0.5, 0.5, 0.5}, 0.8)
	stone.Density = 2700
	stone.CompressionStrength = 0.8
	stone.TensileStrength = 0.4

	dirt := NewMaterial("Dirt", Color{0.4, 0.3, 0.2}, 0.3)
	dirt.Density = 1500
	dirt.CompressionStrength = 0.3
	dirt.TensileStrength = 0.1

	grass := NewMaterial("Grass", Color{0.2, 0.7, 0.2}, 0.2)
	grass.Density = 800
	grass.Flammable = true
	grass.FlashPoint = 250

	sand := NewMaterial("Sand", Color{0.8, 0.7, 0.5}, 0.4)
	sand.Density = 1600
	sand.CompressionStrength = 0.2
	sand.TensileStrength = 0.05

	water := NewMaterial("Water", Color{0.2, 0.4, 0.8}, 0)
	water.Density = 1000
	water.Liquid = true
	water.Transparent = true
	water.Conductivity = 0.6

	wood := NewMaterial("Wood", Color{0.6, 0.4, 0.2}, 0.5)
	wood.Density = 600
	wood.Flammable = true
	wood.FlashPoint = 300
	wood.CompressionStrength = 0.5
	wood.TensileStrength = 0.3

	metal := NewMaterial("Metal", Color{0.7, 0.7, 0.7}, 0.9)
	metal.Density = 7850
	metal.Metallic = 1
	metal.Conductive = true
	metal.Conductivity = 80
	metal.CompressionStrength = 0.9
	metal.TensileStrength = 0.8
	metal.MeltingPoint = 1538

	lava := NewMaterial("Lava", Color{1, 0.3, 0}, 0.7)
	lava.Density = 2800
	lava.Emissive = 1
	lava.Liquid = true
	lava.FlashPoint = 0 // Всегда достаточно горячая для воспламенения

	ice := NewMaterial("Ice", Color{0.8, 0.9, 1}, 0.6)
	ice.Density = 917
	ice.Transparent = true
	ice.MeltingPoint = 0
	ice.CompressionStrength = 0.4
	ice.TensileStrength = 0.2

	snow := NewMaterial("Snow", Color{0.95, 0.95, 0.95}, 0.1)
	snow.Density = 300
	snow.MeltingPoint = 0
	snow.CompressionStrength = 0.1
	snow.TensileStrength = 0.05

	coal := NewMaterial("Coal", Color{0.1, 0.1, 0.1}, 0.7)
	coal.Density = 1300
	coal.Flammable = true
	coal.FlashPoint = 200
	coal.CompressionStrength = 0.6

	oil := NewMaterial("Oil", Color{0.2, 0.2, 0.1}, 0.3)
	oil.Density = 850
	oil.Liquid = true
	oil.Flammable = true
	oil.FlashPoint = 150

	p.materials = append(p.materials,
		air, stone, dirt, grass, sand, water, wood, metal, lava, ice, snow, coal, oil)

	for id := len(p.materials); id < int(CustomStart); id++ {
		p.materials = append(p.materials, NewMaterial(fmt.Sprintf("Reserved%d", id), Color{}, 0))
	}
}
