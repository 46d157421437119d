package control

import "github.com/cxd309/pathfollow-core/internal/geometry"

// PI gains for the longitudinal tracker, and its inner update rate.
const (
	longitudinalKp   = 0.5
	longitudinalKi   = 0.00005
	longitudinalStep = 0.025 // seconds, matches the actuator inner-loop rate
)

// LongitudinalSolver is a PI tracker on the reference speed interpolated
// along the bracketed segment.
type LongitudinalSolver struct{}

// LongitudinalInput carries the tick's speed-tracking context.
type LongitudinalInput struct {
	Car         geometry.State2D
	Prev, Next  geometry.State2D
	HowFar      float64
	ReverseMode bool
	VPastError  float64
}

// LongitudinalOutput is the solver's per-tick result.
type LongitudinalOutput struct {
	DV         float64
	VPastError float64
}

// Solve computes one tick of the PI longitudinal law.
func (LongitudinalSolver) Solve(in LongitudinalInput) LongitudinalOutput {
	vRef := (1-in.HowFar)*in.Prev.V + in.HowFar*in.Next.V
	verror := in.Car.V - vRef

	vPastError := in.VPastError + verror*longitudinalStep

	dv := -(longitudinalKp*verror + longitudinalKi*vPastError)
	if in.ReverseMode {
		dv = -dv
	}
	dv = quantizeMilli(dv)

	return LongitudinalOutput{DV: dv, VPastError: vPastError}
}
