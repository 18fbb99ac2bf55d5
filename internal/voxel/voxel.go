package voxel

// Flags - битовая маска состояния вокселя
type Flags uint8

const (
	FlagOnFire Flags = 1 << iota
	FlagWet
	FlagStressed
	FlagUnstable
	FlagConductive
	FlagFlammable
	FlagFluid
	FlagGrounded
)

const (
	// HealthDestroyed - воксель разрушен
	HealthDestroyed uint8 = 0
	// HealthIndestructible - воксель неразрушим
	HealthIndestructible uint8 = 255
	// FullSupport - значение структурной опоры по умолчанию
	FullSupport uint8 = 255
)

// Voxel представляет атомарную ячейку мира (4 байта)
type Voxel struct {
	Material          uint8 // Индекс в палитре материалов (0 - воздух)
	Health            uint8 // 0 - разрушен, 255 - неразрушим
	Flags             Flags // Состояние (горит, мокрый, нагружен...)
	StructuralSupport uint8 // Кэшированное значение структурной опоры
}

// Air - фиксированное значение пустой ячейки. Возвращается по значению.
var Air = Voxel{Material: MaterialAir, Health: HealthDestroyed, StructuralSupport: FullSupport}

// New создаёт воксель материала с указанным здоровьем
func New(material, health uint8) Voxel {
	return Voxel{
		Material:          material,
		Health:            health,
		StructuralSupport: FullSupport,
	}
}

// IsAir возвращает true для логически отсутствующего вокселя
func (v Voxel) IsAir() bool {
	return v.Material == MaterialAir
}

// IsDestroyed возвращает true, если здоровье исчерпано
func (v Voxel) IsDestroyed() bool {
	return v.Health == HealthDestroyed
}

// HasFlag проверяет наличие флага
func (v Voxel) HasFlag(flag Flags) bool {
	return v.Flags&flag != 0
}

// SetFlag возвращает копию вокселя с установленным флагом
func (v Voxel) SetFlag(flag Flags) Voxel {
	v.Flags |= flag
	return v
}

// ClearFlag возвращает копию вокселя со сброшенным флагом
func (v Voxel) ClearFlag(flag Flags) Voxel {
	v.Flags &^= flag
	return v
}

// Normalize приводит любой воксель воздуха к сентинелу Air
func (v Voxel) Normalize() Voxel {
	if v.IsAir() {
		return Air
	}
	return v
}

// Pack упаковывает воксель в uint32 (material | health<<8 | flags<<16 | support<<24)
func (v Voxel) Pack() uint32 {
	return uint32(v.Material) | uint32(v.Health)<<8 | uint32(v.Flags)<<16 | uint32(v.StructuralSupport)<<24
}

// Unpack восстанавливает воксель из упакованного представления
func Unpack(p uint32) Voxel {
	return Voxel{
		Material:          uint8(p),
		Health:            uint8(p >> 8),
		Flags:             Flags(p >> 16),
		StructuralSupport: uint8(p >> 24),
	}
}
