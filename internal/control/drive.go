package control

import (
	"github.com/sirupsen/logrus"

	"github.com/cxd309/pathfollow-core/internal/geometry"
	"github.com/cxd309/pathfollow-core/internal/localize"
	"github.com/cxd309/pathfollow-core/internal/pathplan"
)

// stopReleaseFraction is the how-far threshold past which a segment ending
// at a required stop is considered arrived, releasing the FSM into Stopped.
const stopReleaseFraction = 0.95

// driveTick runs one ForwardDrive/ReverseDrive tick: localize, solve
// lateral and (unless the tick ends the segment at a stop) longitudinal,
// advance the waypoint cursor, and possibly transition to Stopped.
// ReverseDrive is operationally identical to ForwardDrive; the mirroring
// inside LateralSolver and LongitudinalSolver is what makes a single path
// correct in both directions.
func (c *Controller) driveTick(s geometry.State2D) geometry.State2D {
	cp := c.path

	prevIdx, nextIdx := localize.Localize(cp.Raw, s, c.prevWaypoint, c.nextWaypoint, c.lastCusp)
	c.prevWaypoint, c.nextWaypoint = prevIdx, nextIdx

	reverseMode := cp.Raw[prevIdx].Gear == geometry.Backward
	activePath := cp.Forward
	if reverseMode {
		activePath = cp.Reverse
	}

	prev := activePath[prevIdx]
	next := activePath[nextIdx]
	comingToStopPoint := next.V == 0

	baseHeading := prev.Position
	if prevIdx > 0 {
		baseHeading = activePath[prevIdx-1].Position
	}
	var lookahead geometry.Vector2D
	if !comingToStopPoint {
		// A terminal state whose speed is not zero has no state beyond it;
		// look ahead along the final segment instead.
		lookahead = next.Position
		if nextIdx+1 < len(activePath) {
			lookahead = activePath[nextIdx+1].Position
		}
	}

	lateral := LateralSolver{Model: c.Model}.Solve(LateralInput{
		Car:                 s,
		ReverseMode:         reverseMode,
		Prev:                prev,
		Next:                next,
		BaseHeading:         baseHeading,
		Lookahead:           lookahead,
		ComingToStopPoint:   comingToStopPoint,
		PrevWheelAngleError: c.prevWheelAngleError,
	})
	c.prevWheelAngleError = lateral.PrevWheelAngleError

	cmd := s
	cmd.Phi = lateral.Steer
	cmd.T = c.Dt

	if comingToStopPoint && lateral.HowFar >= stopReleaseFraction {
		c.lastCusp = nextIdx
		if nextIdx < cp.LastIndex() {
			c.nextWaypoint++
			c.prevWaypoint++
		} else {
			c.nextWaypoint = cp.LastIndex()
			c.prevWaypoint = cp.LastIndex()
		}
		c.state = pathplan.Stopped

		log.WithFields(logrus.Fields{
			"run_id": c.runID,
			"cusp":   c.lastCusp,
		}).Debug("arrived at stop, releasing to Stopped")

		cmd.V = 0
		return cmd
	}

	longitudinal := LongitudinalSolver{}.Solve(LongitudinalInput{
		Car:         s,
		Prev:        prev,
		Next:        next,
		HowFar:      lateral.HowFar,
		ReverseMode: reverseMode,
		VPastError:  c.vPastError,
	})
	c.vPastError = longitudinal.VPastError

	cmd.V = s.V + longitudinal.DV
	return cmd
}
