package vehicle

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cxd309/pathfollow-core/internal/geometry"
)

func testParams() Params {
	return Params{
		Wheelbase:              2.5,
		MaxWheelDeflection:     0.6,
		MaxPhiVelocity:         1.0,
		MaxForwardSpeed:        10,
		MaxBackwardSpeed:       4,
		ForwardAcceleration:    2,
		ForwardDeceleration:    3,
		BackwardAcceleration:   1,
		BackwardDeceleration:   1.5,
		MaxLateralAcceleration: 3,
	}
}

func TestFrontAxleAndFakeFrontAxleAreOpposite(t *testing.T) {
	m := NewKinematicModel(testParams())
	s := geometry.State2D{Pose2D: geometry.Pose2D{Position: geometry.Vector2D{X: 1, Y: 1}, Orientation: 0}}

	front := m.FrontAxle(s)
	fake := m.FakeFrontAxle(s)

	assert.InDelta(t, 1+testParams().Wheelbase, front.Position.X, 1e-9)
	assert.InDelta(t, 1-testParams().Wheelbase, fake.Position.X, 1e-9)
	assert.InDelta(t, 1, front.Position.Y, 1e-9)
}

func TestCircumradiusCollinearIsInfinite(t *testing.T) {
	a := geometry.Vector2D{X: 0, Y: 0}
	b := geometry.Vector2D{X: 1, Y: 0}
	c := geometry.Vector2D{X: 2, Y: 0}
	r := circumradius(a, b, c)
	assert.True(t, math.IsInf(r, 1))
}

func TestCircumradiusRightTriangle(t *testing.T) {
	a := geometry.Vector2D{X: 0, Y: 0}
	b := geometry.Vector2D{X: 2, Y: 0}
	c := geometry.Vector2D{X: 0, Y: 2}
	// hypotenuse of a right isoceles triangle is the diameter of the circumcircle
	r := circumradius(a, b, c)
	assert.InDelta(t, math.Sqrt(2), r, 1e-9)
}

func TestCurvatureSpeedClampsOnTightTurn(t *testing.T) {
	m := NewKinematicModel(testParams())
	prev := geometry.State2D{Pose2D: geometry.Pose2D{Position: geometry.Vector2D{X: -1, Y: 0}}}
	cur := geometry.State2D{Pose2D: geometry.Pose2D{Position: geometry.Vector2D{X: 0, Y: 0}}, V: 100}
	next := geometry.State2D{Pose2D: geometry.Pose2D{Position: geometry.Vector2D{X: 0, Y: 1}}}

	got := m.ForwardSpeed(prev, cur, next)
	assert.Less(t, got, 100.0)
	assert.LessOrEqual(t, got, testParams().MaxForwardSpeed)
}

func TestAccelerationAndDecelerationConstraintFormula(t *testing.T) {
	m := NewKinematicModel(testParams())

	got := m.AccelerationConstraint(2, 3, geometry.Forward)
	want := math.Sqrt(2*2 + 2*testParams().ForwardAcceleration*3)
	assert.InDelta(t, want, got, 1e-9)

	got = m.DecelerationConstraint(5, 0, geometry.Backward)
	assert.InDelta(t, 5, got, 1e-9)
}

func TestDecelerationConstraintIsNonNegative(t *testing.T) {
	m := NewKinematicModel(testParams())
	p := testParams()
	p.ForwardDeceleration = 10
	m = NewKinematicModel(p)

	got := m.DecelerationConstraint(0, 100, geometry.Forward)
	require.GreaterOrEqual(t, got, 0.0)
}

func TestNextStateForwardIntegratesPosition(t *testing.T) {
	m := NewKinematicModel(testParams())
	s := geometry.State2D{
		Pose2D: geometry.Pose2D{Position: geometry.Vector2D{X: 0, Y: 0}, Orientation: 0},
		V:      2,
		Phi:    0,
		Gear:   geometry.Forward,
		T:      1,
	}
	out := m.NextState(s)
	assert.InDelta(t, 2, out.Position.X, 1e-9)
	assert.InDelta(t, 0, out.Position.Y, 1e-9)
	assert.InDelta(t, 0, out.Orientation, 1e-9)
}

func TestNextStateBackwardMovesOppositeHeading(t *testing.T) {
	m := NewKinematicModel(testParams())
	s := geometry.State2D{
		Pose2D: geometry.Pose2D{Position: geometry.Vector2D{X: 5, Y: 5}, Orientation: 0},
		V:      2,
		Gear:   geometry.Backward,
		T:      1,
	}
	out := m.NextState(s)
	assert.InDelta(t, 3, out.Position.X, 1e-9)
}
