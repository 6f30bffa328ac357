package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNumberSelectsInt32(t *testing.T) {
	v := Number(42)
	assert.Equal(t, KindInt32, v.Kind())
	assert.Equal(t, int32(42), v.AsInt32())
}

func TestNumberSelectsInt64ForLargeIntegral(t *testing.T) {
	v := Number(1 << 40)
	assert.Equal(t, KindInt64, v.Kind())
	assert.EqualValues(t, 1<<40, v.AsInt64())
}

func TestNumberSelectsFloat32WithinTolerance(t *testing.T) {
	v := Number(3.5)
	assert.Equal(t, KindFloat32, v.Kind())
	assert.InDelta(t, 3.5, v.AsFloat64(), 1e-6)
}

func TestNumberFallsBackToFloat64OutsideMagnitudeBounds(t *testing.T) {
	v := Number(1.23456789012345e-10)
	assert.Equal(t, KindFloat64, v.Kind())
}

func TestStringEquivalenceIgnoresSmallStringWireForm(t *testing.T) {
	a := String("hello")
	b := String("hello")
	assert.True(t, StringEquivalent(a, b))
	assert.True(t, a.Equal(b))
}

func TestValueEqualArraysAndObjects(t *testing.T) {
	a := Array([]Value{Int32(1), String("x")})
	b := Array([]Value{Int32(1), String("x")})
	assert.True(t, a.Equal(b))

	oa := Object(map[string]Value{"k": Int32(1)})
	ob := Object(map[string]Value{"k": Int32(1)})
	assert.True(t, oa.Equal(ob))
}

func TestIsSmallStringBoundary(t *testing.T) {
	assert.True(t, isSmallString("0123456789012345"[:15]))
	assert.False(t, isSmallString("0123456789012345"[:16]))
}
