package vec

import "math"

// Vec3 представляет трехмерный вектор с целочисленными координатами (единицы - воксели)
type Vec3 struct {
	X int32
	Y int32
	Z int32
}

// Vec3Float представляет трехмерный вектор с плавающими координатами
type Vec3Float struct {
	X float64
	Y float64
	Z float64
}

// DistanceTo возвращает евклидово расстояние до другого вектора
func (v Vec3) DistanceTo(other Vec3) float64 {
	dx := float64(v.X - other.X)
	dy := float64(v.Y - other.Y)
	dz := float64(v.Z - other.Z)
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Equals проверяет равенство векторов
func (v Vec3) Equals(other Vec3) bool {
	return v.X == other.X && v.Y == other.Y && v.Z == other.Z
}

// Add складывает два вектора
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{
		X: v.X + other.X,
		Y: v.Y + other.Y,
		Z: v.Z + other.Z,
	}
}

// Sub вычитает вектор
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{
		X: v.X - other.X,
		Y: v.Y - other.Y,
		Z: v.Z - other.Z,
	}
}

// FloorDiv делит каждую компоненту на size с округлением вниз
func (v Vec3) FloorDiv(size int32) Vec3 {
	return Vec3{
		X: FloorDiv(v.X, size),
		Y: FloorDiv(v.Y, size),
		Z: FloorDiv(v.Z, size),
	}
}

// FloorMod возвращает неотрицательный остаток каждой компоненты по модулю size
func (v Vec3) FloorMod(size int32) Vec3 {
	return Vec3{
		X: FloorMod(v.X, size),
		Y: FloorMod(v.Y, size),
		Z: FloorMod(v.Z, size),
	}
}

// ToFloat преобразует вектор в Vec3Float
func (v Vec3) ToFloat() Vec3Float {
	return Vec3Float{X: float64(v.X), Y: float64(v.Y), Z: float64(v.Z)}
}

// DistanceTo возвращает евклидово расстояние до другого вектора
func (v Vec3Float) DistanceTo(other Vec3Float) float64 {
	dx := v.X - other.X
	dy := v.Y - other.Y
	dz := v.Z - other.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Length возвращает длину вектора
func (v Vec3Float) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Floor округляет координаты вниз до целых
func (v Vec3Float) Floor() Vec3 {
	return Vec3{
		X: int32(math.Floor(v.X)),
		Y: int32(math.Floor(v.Y)),
		Z: int32(math.Floor(v.Z)),
	}
}

// FloorDiv - целочисленное деление с округлением к минус бесконечности
func FloorDiv(a, b int32) int32 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// FloorMod - остаток, согласованный с FloorDiv (всегда в [0, b) для b > 0)
func FloorMod(a, b int32) int32 {
	m := a % b
	if m != 0 && ((m < 0) != (b < 0)) {
		m += b
	}
	return m
}
