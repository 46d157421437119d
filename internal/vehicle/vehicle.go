// Package vehicle defines the Model contract every kinematics implementation
// the controller core drives against must satisfy: axle projections,
// per-segment orientation and speed estimators, acceleration/deceleration
// reachability, and a one-tick Ackermann integrator. Adding a new physics
// model requires only implementing Model — the consolidator, localizer, and
// controller packages never need to change.
package vehicle

import (
	"math"

	"github.com/cxd309/pathfollow-core/internal/geometry"
)

// Model is the physics contract the path consolidator and controller
// consume. All distances are in metres, velocities in m/s, angles in
// radians, and time in seconds.
type Model interface {
	// FrontAxle translates a rear-axle state one wheelbase forward along its
	// heading — the Stanley reference point for forward driving.
	FrontAxle(s geometry.State2D) geometry.State2D

	// FakeFrontAxle translates a rear-axle state one wheelbase backward along
	// its heading — the Stanley reference point for reverse driving.
	FakeFrontAxle(s geometry.State2D) geometry.State2D

	// ForwardOrientation estimates the heading at cur from the local triplet,
	// for a state reached under Forward gear.
	ForwardOrientation(prev, cur, next geometry.State2D) float64

	// BackwardOrientation estimates the heading at cur from the local
	// triplet, for a state reached under Backward gear.
	BackwardOrientation(prev, cur, next geometry.State2D) float64

	// ForwardSpeed returns the geometry-limited nominal speed at cur for a
	// state reached under Forward gear (curvature constraint).
	ForwardSpeed(prev, cur, next geometry.State2D) float64

	// BackwardSpeed returns the geometry-limited nominal speed at cur for a
	// state reached under Backward gear.
	BackwardSpeed(prev, cur, next geometry.State2D) float64

	// AccelerationConstraint returns the maximum speed reachable moving
	// forward from a state at vRef over distance metres, under gear g.
	AccelerationConstraint(vRef, distance float64, g geometry.Gear) float64

	// DecelerationConstraint returns the maximum speed from which braking
	// over distance metres reaches vRef, under gear g.
	DecelerationConstraint(vRef, distance float64, g geometry.Gear) float64

	// NextState advances s by one Ackermann integration step, using s.T as
	// the step duration.
	NextState(s geometry.State2D) geometry.State2D

	// PhiMax returns the maximum wheel deflection, radians.
	PhiMax() float64

	// PhiVelocityMax returns the maximum steering command rate, rad/s.
	PhiVelocityMax() float64
}

// Params holds the static geometry and motion limits of a vehicle: separate
// forward and backward acceleration/deceleration rates rather than a single
// fixed magnitude, plus the steering-actuator limits a steered axle needs
// beyond a plain speed model.
type Params struct {
	Wheelbase float64 `json:"wheelbase"` // metres, rear to front axle

	MaxWheelDeflection float64 `json:"max_wheel_deflection"` // radians, phi_max
	MaxPhiVelocity     float64 `json:"max_phi_velocity"`     // rad/s

	MaxForwardSpeed  float64 `json:"max_forward_speed"`  // m/s
	MaxBackwardSpeed float64 `json:"max_backward_speed"` // m/s

	ForwardAcceleration  float64 `json:"forward_acceleration"`  // m/s^2
	ForwardDeceleration  float64 `json:"forward_deceleration"`  // m/s^2, positive
	BackwardAcceleration float64 `json:"backward_acceleration"` // m/s^2
	BackwardDeceleration float64 `json:"backward_deceleration"` // m/s^2, positive

	MaxLateralAcceleration float64 `json:"max_lateral_acceleration"` // m/s^2, curvature speed limit
}

// KinematicModel is the default Model implementation: fixed per-gear
// acceleration/deceleration rates paired with a bicycle-model steering
// geometry, generalizing a single fixed-rate acceleration model into
// asymmetric forward/backward rates over a steered axle.
type KinematicModel struct {
	P Params
}

// NewKinematicModel constructs a KinematicModel from p.
func NewKinematicModel(p Params) KinematicModel {
	return KinematicModel{P: p}
}

func (m KinematicModel) PhiMax() float64         { return m.P.MaxWheelDeflection }
func (m KinematicModel) PhiVelocityMax() float64 { return m.P.MaxPhiVelocity }

func (m KinematicModel) FrontAxle(s geometry.State2D) geometry.State2D {
	out := s
	out.Position = s.Position.Add(geometry.Vector2D{
		X: m.P.Wheelbase * math.Cos(s.Orientation),
		Y: m.P.Wheelbase * math.Sin(s.Orientation),
	})
	return out
}

func (m KinematicModel) FakeFrontAxle(s geometry.State2D) geometry.State2D {
	out := s
	out.Position = s.Position.Sub(geometry.Vector2D{
		X: m.P.Wheelbase * math.Cos(s.Orientation),
		Y: m.P.Wheelbase * math.Sin(s.Orientation),
	})
	return out
}

// centralHeading returns the heading of the chord from prev to next, the
// central-difference estimate used by both orientation estimators.
func centralHeading(prev, next geometry.State2D) float64 {
	d := next.Position.Sub(prev.Position)
	return math.Atan2(d.Y, d.X)
}

func (m KinematicModel) ForwardOrientation(prev, _, next geometry.State2D) float64 {
	return centralHeading(prev, next)
}

func (m KinematicModel) BackwardOrientation(prev, _, next geometry.State2D) float64 {
	return geometry.WrapToPi(centralHeading(prev, next) + math.Pi)
}

// circumradius estimates the radius of the circle through three points,
// returning +Inf when the points are (nearly) collinear.
func circumradius(a, b, c geometry.Vector2D) float64 {
	ab := a.Distance(b)
	bc := b.Distance(c)
	ca := c.Distance(a)
	// twice the signed triangle area
	area2 := math.Abs((b.X-a.X)*(c.Y-a.Y) - (c.X-a.X)*(b.Y-a.Y))
	if area2 < 1e-9 {
		return math.Inf(1)
	}
	return (ab * bc * ca) / (2 * area2)
}

// curvatureSpeed limits nominal to the lateral-acceleration-bound speed
// implied by the local triplet's curvature, and to maxSpeed.
func (m KinematicModel) curvatureSpeed(prev, cur, next geometry.State2D, maxSpeed float64) float64 {
	r := circumradius(prev.Position, cur.Position, next.Position)
	limit := maxSpeed
	if !math.IsInf(r, 1) && m.P.MaxLateralAcceleration > 0 {
		curveLimit := math.Sqrt(m.P.MaxLateralAcceleration * r)
		if curveLimit < limit {
			limit = curveLimit
		}
	}
	if cur.V < limit {
		return cur.V
	}
	return limit
}

func (m KinematicModel) ForwardSpeed(prev, cur, next geometry.State2D) float64 {
	return m.curvatureSpeed(prev, cur, next, m.P.MaxForwardSpeed)
}

func (m KinematicModel) BackwardSpeed(prev, cur, next geometry.State2D) float64 {
	return m.curvatureSpeed(prev, cur, next, m.P.MaxBackwardSpeed)
}

func (m KinematicModel) rate(g geometry.Gear, forward, backward float64) float64 {
	if g == geometry.Backward {
		return backward
	}
	return forward
}

func (m KinematicModel) AccelerationConstraint(vRef, distance float64, g geometry.Gear) float64 {
	a := m.rate(g, m.P.ForwardAcceleration, m.P.BackwardAcceleration)
	return math.Sqrt(math.Max(0, vRef*vRef+2*a*distance))
}

func (m KinematicModel) DecelerationConstraint(vRef, distance float64, g geometry.Gear) float64 {
	a := m.rate(g, m.P.ForwardDeceleration, m.P.BackwardDeceleration)
	return math.Sqrt(math.Max(0, vRef*vRef+2*a*distance))
}

// NextState integrates s by one bicycle-model step of duration s.T. Gear
// selects the sign of travel along the current heading so a single formula
// serves both forward and reverse driving.
func (m KinematicModel) NextState(s geometry.State2D) geometry.State2D {
	dt := s.T
	sign := 1.0
	if s.Gear == geometry.Backward {
		sign = -1.0
	}

	out := s
	out.Position = s.Position.Add(geometry.Vector2D{
		X: sign * s.V * math.Cos(s.Orientation) * dt,
		Y: sign * s.V * math.Sin(s.Orientation) * dt,
	})
	if m.P.Wheelbase != 0 {
		out.Orientation = geometry.WrapToPi(s.Orientation + sign*s.V/m.P.Wheelbase*math.Tan(s.Phi)*dt)
	}
	return out
}
