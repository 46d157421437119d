package control

import (
	"math"

	"github.com/cxd309/pathfollow-core/internal/geometry"
	"github.com/cxd309/pathfollow-core/internal/vehicle"
)

// Stanley and actuator gains. These are fixed constants of the control law,
// not configuration: they describe the shape of the law itself, the way
// the original source hard-codes them.
const (
	stanleyGain       = 1.5
	stanleyHighSpeedV = 4.5 // m/s; above this, the cross-track term is speed-normalized
	wheelPGain        = 2.0
	wheelDGain        = 0.1
	actuatorSubstep   = 0.025 // seconds, the actuator inner-loop rate
)

// LateralSolver implements the Stanley cross-track + heading-error law with
// reverse-driving mirroring and near-stop saturation.
type LateralSolver struct {
	Model vehicle.Model
}

// LateralInput carries everything the solver needs for one tick, gathered
// by the caller from the localized bracket and the active (forward or
// reverse) projected path.
type LateralInput struct {
	Car          geometry.State2D
	ReverseMode  bool
	Prev, Next   geometry.State2D // path[prevIndex], path[nextIndex] on the active projected path
	BaseHeading  geometry.Vector2D // path[prevIndex-1].Position, or Prev.Position at the path start
	Lookahead    geometry.Vector2D // path[nextIndex+1].Position; unused when ComingToStopPoint
	ComingToStopPoint    bool // next is itself a required stop (v == 0)
	PrevWheelAngleError  float64
}

// LateralOutput is the solver's per-tick result.
type LateralOutput struct {
	Steer               float64
	HowFar              float64
	Dist                float64
	PrevWheelAngleError float64
}

// Solve computes one tick of the Stanley law.
func (l LateralSolver) Solve(in LateralInput) LateralOutput {
	car := in.Car
	reverseMode := in.ReverseMode

	var front geometry.State2D
	if reverseMode {
		front = l.Model.FakeFrontAxle(car)
	} else {
		front = l.Model.FrontAxle(car)
	}

	closest := perpendicularFoot(front.Position, in.Prev.Position, in.Next.Position)

	seg := in.Next.Position.Sub(in.Prev.Position)
	segLen2 := seg.Dot(seg)
	howFar := 0.0
	if segLen2 > 0 {
		howFar = front.Position.Sub(in.Prev.Position).Dot(seg) / segLen2
	}
	howFar = clamp(howFar, 0, 1)

	desired := math.Atan2(in.Next.Position.Y-in.BaseHeading.Y, in.Next.Position.X-in.BaseHeading.X)

	var nextHeading float64
	if in.ComingToStopPoint {
		nextHeading = in.Next.Orientation
		if reverseMode {
			nextHeading += math.Pi
		}
	} else {
		nextHeading = math.Atan2(in.Lookahead.Y-in.Prev.Position.Y, in.Lookahead.X-in.Prev.Position.X)
	}
	desired += geometry.WrapToPi(nextHeading-desired) * howFar

	// Rotated-swap normal: (dy, dx), not (dx, dy). This mirrors the source's
	// geometry exactly; direction's sign must stay consistent with it.
	norm := geometry.Vector2D{X: in.Next.Position.Y - in.Prev.Position.Y, Y: in.Next.Position.X - in.Prev.Position.X}.Normalized()
	left := norm.RotateZ(math.Pi / 2).Scale(2).Add(closest)
	right := norm.RotateZ(-math.Pi / 2).Scale(2).Add(closest)

	direction := 1.0
	if left.Distance2(front.Position) < right.Distance2(front.Position) {
		direction = -1
	}

	reverseOffset := 0.0
	if reverseMode {
		reverseOffset = math.Pi
	}
	dTheta := geometry.WrapToPi(car.Orientation - desired + reverseOffset)
	if reverseMode {
		dTheta = -dTheta
		direction = -direction
	}

	invV := 1.0
	if car.V > stanleyHighSpeedV {
		invV = 1 / car.V
	}

	dist := front.Position.Distance(closest)

	var phiTarget float64
	if in.Next.ComingToStop {
		phiTarget = math.Atan(4 * stanleyGain * dist * direction * invV)
	} else {
		phiTarget = geometry.WrapToPi(-dTheta + math.Atan(stanleyGain*dist*direction*invV))
	}

	e := phiTarget - car.Phi
	de := (e - in.PrevWheelAngleError) / actuatorSubstep
	u := clamp(wheelPGain*e+wheelDGain*de, -1, 1)

	return LateralOutput{
		Steer:               actuatorStep(l.Model, car, u),
		HowFar:              howFar,
		Dist:                dist,
		PrevWheelAngleError: e,
	}
}

// actuatorStep advances the wheel-angle actuator toward a commanded rate u
// in [-1, 1], clamping to the vehicle's mechanical deflection limit and
// quantizing to the milliradian command resolution.
func actuatorStep(model vehicle.Model, s geometry.State2D, u float64) float64 {
	phiMax := model.PhiMax()
	steer := s.Phi + actuatorSubstep*(u*model.PhiVelocityMax()-s.Phi*s.V*0.01/phiMax)
	steer = clamp(steer, -phiMax, phiMax)
	return quantizeMilli(steer)
}
