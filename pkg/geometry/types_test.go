package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRectIntValid(t *testing.T) {
	assert.True(t, NewRectInt(0, 0, 1, 1).Valid())
	assert.False(t, SentinelRect.Valid())
	assert.False(t, NewRectInt(10, 10, 0, 5).Valid())
	assert.False(t, NewRectInt(-2, 0, 5, 5).Valid())
}

func TestRectIntArea(t *testing.T) {
	assert.Equal(t, 50, NewRectInt(3, 4, 10, 5).Area())
	assert.Equal(t, 0, SentinelRect.Area())
}

func TestRectIntContains(t *testing.T) {
	r := NewRectInt(10, 20, 30, 40)
	assert.True(t, r.Contains(PointInt{X: 10, Y: 20}))
	assert.True(t, r.Contains(PointInt{X: 39, Y: 59}))
	assert.False(t, r.Contains(PointInt{X: 40, Y: 30}))
	assert.False(t, r.Contains(PointInt{X: 9, Y: 30}))
}

func TestRectIntCenter(t *testing.T) {
	assert.Equal(t, PointInt{X: 25, Y: 40}, NewRectInt(10, 20, 30, 40).Center())
}

func TestRectIntIntersects(t *testing.T) {
	r := NewRectInt(0, 0, 10, 10)
	assert.True(t, r.Intersects(NewRectInt(5, 5, 10, 10)))
	assert.False(t, r.Intersects(NewRectInt(10, 0, 5, 5)))
	assert.False(t, r.Intersects(NewRectInt(20, 20, 5, 5)))
}

func TestRectIntUnion(t *testing.T) {
	a := NewRectInt(0, 0, 10, 10)
	b := NewRectInt(20, 5, 10, 10)
	assert.Equal(t, NewRectInt(0, 0, 30, 15), a.Union(b))
	assert.Equal(t, a, a.Union(SentinelRect))
	assert.Equal(t, b, SentinelRect.Union(b))
}

func TestRectIntInset(t *testing.T) {
	assert.Equal(t, NewRectInt(12, 22, 26, 36), NewRectInt(10, 20, 30, 40).Inset(2))
	assert.Equal(t, SentinelRect, NewRectInt(0, 0, 4, 4).Inset(2))
}
