package localize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cxd309/pathfollow-core/internal/geometry"
)

func straightRaw(n int) []geometry.State2D {
	out := make([]geometry.State2D, n)
	for i := range out {
		out[i] = geometry.State2D{Pose2D: geometry.Pose2D{Position: geometry.Vector2D{X: float64(i) * 5, Y: 0}}}
	}
	return out
}

func TestLocalizeBracketsAPointBetweenWaypoints(t *testing.T) {
	raw := straightRaw(6)
	s := geometry.State2D{Pose2D: geometry.Pose2D{Position: geometry.Vector2D{X: 11, Y: 0}}}

	prev, next := Localize(raw, s, 2, 3, 0)

	assert.LessOrEqual(t, raw[prev].Position.X, s.Position.X)
	assert.GreaterOrEqual(t, raw[next].Position.X, s.Position.X)
	assert.Equal(t, next, prev+1)
}

func TestLocalizeAtPathStartDoesNotUnderflow(t *testing.T) {
	raw := straightRaw(6)
	s := raw[0]

	prev, next := Localize(raw, s, 0, 1, 0)
	assert.GreaterOrEqual(t, prev, 0)
	assert.Greater(t, next, prev)
}

func TestLocalizeAtPathEndDoesNotOverflow(t *testing.T) {
	raw := straightRaw(6)
	s := raw[len(raw)-1]

	prev, next := Localize(raw, s, 4, 5, 0)
	assert.Less(t, next, len(raw))
	assert.Greater(t, next, prev)
}

func TestLocalizeStopsSearchAtComingToStopBoundary(t *testing.T) {
	raw := straightRaw(8)
	raw[3].ComingToStop = true

	// A car positioned well past index 4 but still inside the search window
	// should not have its search bleed across the stop boundary at index 3.
	s := geometry.State2D{Pose2D: geometry.Pose2D{Position: geometry.Vector2D{X: 24, Y: 0}}}
	prev, next := Localize(raw, s, 4, 5, 0)

	assert.GreaterOrEqual(t, prev, 3)
	assert.Greater(t, next, prev)
}

func TestLocalizeDoesNotSkipPastAnUnreachedStop(t *testing.T) {
	raw := straightRaw(8)
	raw[3].ComingToStop = true

	// The controller's cursor is still behind the stop at index 3, and the
	// car has drifted ahead of it; the search must still bracket on the stop
	// rather than resolve to a bracket beyond it.
	s := geometry.State2D{Pose2D: geometry.Pose2D{Position: geometry.Vector2D{X: 21, Y: 0}}}
	prev, next := Localize(raw, s, 2, 3, 0)

	assert.Equal(t, 3, prev)
	assert.Equal(t, 4, next)
}

func TestLocalizeBoundaryBackoffAfterFreshCusp(t *testing.T) {
	raw := straightRaw(8)
	raw[3].ComingToStop = true

	// The waypoint cursor (prevWaypoint) disagrees with the bracket the
	// window search would otherwise resolve to, which sits immediately past
	// the stop at index 3; the boundary correction must pull it back.
	s := geometry.State2D{Pose2D: geometry.Pose2D{Position: geometry.Vector2D{X: 21, Y: 0}}}
	prev, next := Localize(raw, s, 5, 6, 0)

	assert.Equal(t, 3, prev)
	assert.Equal(t, 4, next)
}
