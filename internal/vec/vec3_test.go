package vec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFloorDivAndMod(t *testing.T) {
	cases := []struct {
		a, b, div, mod int32
	}{
		{0, 64, 0, 0},
		{63, 64, 0, 63},
		{64, 64, 1, 0},
		{-1, 64, -1, 63},
		{-64, 64, -1, 0},
		{-65, 64, -2, 63},
	}

	for _, c := range cases {
		assert.Equal(t, c.div, FloorDiv(c.a, c.b), "FloorDiv(%d, %d)", c.a, c.b)
		assert.Equal(t, c.mod, FloorMod(c.a, c.b), "FloorMod(%d, %d)", c.a, c.b)
		// Деление и остаток должны восстанавливать исходное значение
		assert.Equal(t, c.a, FloorDiv(c.a, c.b)*c.b+FloorMod(c.a, c.b))
	}
}

func TestVec3Arithmetic(t *testing.T) {
	a := Vec3{X: 1, Y: 2, Z: 3}
	b := Vec3{X: -4, Y: 5, Z: 0}

	assert.Equal(t, Vec3{X: -3, Y: 7, Z: 3}, a.Add(b))
	assert.Equal(t, Vec3{X: 5, Y: -3, Z: 3}, a.Sub(b))
	assert.True(t, a.Equals(Vec3{X: 1, Y: 2, Z: 3}))
	assert.InDelta(t, 5.0, Vec3{}.DistanceTo(Vec3{X: 3, Y: 4}), 1e-9)
	assert.Equal(t, Vec3{X: -1, Y: 0, Z: 2}, Vec3{X: -1, Y: 10, Z: 130}.FloorDiv(64))
	assert.Equal(t, Vec3{X: 63, Y: 10, Z: 2}, Vec3{X: -1, Y: 10, Z: 130}.FloorMod(64))
}

func TestVec3FloatFloor(t *testing.T) {
	v := Vec3Float{X: -0.5, Y: 1.9, Z: 64}
	assert.Equal(t, Vec3{X: -1, Y: 1, Z: 64}, v.Floor())
	assert.InDelta(t, 5.0, Vec3Float{X: 3, Y: 4}.Length(), 1e-9)
}
