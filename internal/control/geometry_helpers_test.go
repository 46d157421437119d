package control

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cxd309/pathfollow-core/internal/geometry"
)

func TestPerpendicularFootOnHorizontalSegment(t *testing.T) {
	foot := perpendicularFoot(geometry.Vector2D{X: 5, Y: 3}, geometry.Vector2D{X: 0, Y: 0}, geometry.Vector2D{X: 10, Y: 0})
	assert.InDelta(t, 5, foot.X, 1e-9)
	assert.InDelta(t, 0, foot.Y, 1e-9)
}

func TestPerpendicularFootOnVerticalSegment(t *testing.T) {
	foot := perpendicularFoot(geometry.Vector2D{X: 3, Y: 7}, geometry.Vector2D{X: 0, Y: 0}, geometry.Vector2D{X: 0, Y: 10})
	assert.InDelta(t, 0, foot.X, 1e-9)
	assert.InDelta(t, 7, foot.Y, 1e-9)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 1.0, clamp(5, -1, 1))
	assert.Equal(t, -1.0, clamp(-5, -1, 1))
	assert.Equal(t, 0.5, clamp(0.5, -1, 1))
}

func TestQuantizeMilliTruncatesTowardZero(t *testing.T) {
	assert.InDelta(t, 1.234, quantizeMilli(1.2349), 1e-9)
	assert.InDelta(t, -1.234, quantizeMilli(-1.2349), 1e-9)
}
