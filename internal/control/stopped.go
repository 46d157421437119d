package control

import (
	"math"

	"github.com/cxd309/pathfollow-core/internal/geometry"
	"github.com/cxd309/pathfollow-core/internal/pathplan"
)

// stopHoldPGain and its derivative gain stopHoldDGain drive steering reposition while
// the vehicle is held stationary at a stop.
const (
	stopHoldPGain = 8.0
	stopHoldDGain = 0.1

	// releasePhiErrorTolerance and releaseSaturationTolerance are the two
	// independent conditions that release the Stopped state.
	releasePhiErrorTolerance   = 0.002
	releaseSaturationTolerance = 0.1
)

// stoppedTick runs one Stopped tick: hold the vehicle stationary while
// prepositioning the steering for the segment about to be entered, then
// release into the appropriate drive state once the steering settles or
// saturates. At the terminal stop, it transitions directly to Complete.
func (c *Controller) stoppedTick(s geometry.State2D) geometry.State2D {
	cp := c.path
	lastIdx := cp.LastIndex()

	if c.prevWaypoint == lastIdx && c.nextWaypoint == lastIdx {
		c.state = pathplan.Complete
		cmd := s
		cmd.V = 0
		cmd.T = c.Dt
		return cmd
	}

	reverseMode := cp.Raw[c.prevWaypoint].Gear == geometry.Backward
	activePath := cp.Forward
	if reverseMode {
		activePath = cp.Reverse
	}

	prev := activePath[c.prevWaypoint]
	next := activePath[c.nextWaypoint]

	desiredHeading := math.Atan2(next.Position.Y-prev.Position.Y, next.Position.X-prev.Position.X)

	// d_phi_error has no history across Stopped ticks in this design; the
	// source referenced it uninitialized, this makes the zero explicit.
	const dPhiError = 0.0

	phiError := -geometry.WrapToPi(s.Orientation-desiredHeading) - s.Phi
	phiTarget := clamp(stopHoldPGain*phiError+stopHoldDGain*dPhiError, -1, 1)

	steer := actuatorStep(c.Model, s, phiTarget)

	phiMax := c.Model.PhiMax()
	saturated := math.Abs(geometry.WrapToPi(math.Abs(s.Phi)-phiMax)) < releaseSaturationTolerance

	if math.Abs(phiError) < releasePhiErrorTolerance || saturated {
		nextState := pathplan.ForwardDrive
		if reverseMode {
			nextState = pathplan.ReverseDrive
		}
		c.state = nextState

		// Re-prime the longitudinal reference for the new segment. This is
		// the one sanctioned piecewise mutation of the consolidated path:
		// everything else about ConsolidatedPath is replaced wholesale.
		if reverseMode {
			cp.Reverse[c.prevWaypoint].V = next.V
		} else {
			cp.Forward[c.prevWaypoint].V = next.V
		}

		c.prevWheelAngleError = 0

		log.WithField("run_id", c.runID).WithField("state", nextState).Debug("released from Stopped")
	}

	cmd := s
	cmd.V = 0
	cmd.Phi = steer
	cmd.T = c.Dt
	return cmd
}
