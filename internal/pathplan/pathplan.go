// Package pathplan consolidates a raw reference path into the three
// index-aligned annotated sequences (rear axle, front axle, fake front
// axle) the controller tracks, injecting stopping indices and propagating
// reachable speed envelopes around cusps and the terminal goal.
//
// Consolidation happens once per path; the result is owned wholesale by the
// controller. At runtime the only piecewise change is the Stopped handler
// re-priming the speed of the waypoint a new segment starts from.
package pathplan

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/cxd309/pathfollow-core/internal/geometry"
	"github.com/cxd309/pathfollow-core/internal/vehicle"
)

var log = logrus.WithField("module", "pathplan")

// ControllerState is the discrete drive state of the controller FSM.
// It is defined here, rather than in the control package, because
// consolidation itself determines a raw path's initial state (step 2 of the
// consolidation algorithm) and the control package builds on pathplan, not
// the other way around.
type ControllerState int

const (
	Standby ControllerState = iota
	Stopped
	ForwardDrive
	ReverseDrive
	Complete
)

func (c ControllerState) String() string {
	switch c {
	case Standby:
		return "standby"
	case Stopped:
		return "stopped"
	case ForwardDrive:
		return "forward_drive"
	case ReverseDrive:
		return "reverse_drive"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// lowSpeedFloor is the clamp applied to the immediate neighbor of any stop
// index before the deceleration/acceleration envelope walk continues.
const lowSpeedFloor = 0.2

// ConsolidatedPath is the output of Consolidate: three equal-length,
// index-aligned sequences over [0, N), the sorted stopping indices, and the
// initial controller state implied by the first state's speed and gear.
type ConsolidatedPath struct {
	Raw     []geometry.State2D
	Forward []geometry.State2D
	Reverse []geometry.State2D

	Stopping []int

	InitialState ControllerState
}

// Len returns the number of states in the consolidated path.
func (c *ConsolidatedPath) Len() int { return len(c.Raw) }

// LastIndex returns the terminal index N-1.
func (c *ConsolidatedPath) LastIndex() int { return len(c.Raw) - 1 }

// Consolidate builds a ConsolidatedPath from an ordered raw reference path.
// input must contain at least two states with finite position, orientation,
// and speed; consolidation fails otherwise and the caller must not invoke
// drive operations against the zero-value result.
func Consolidate(model vehicle.Model, input []geometry.State2D) (*ConsolidatedPath, error) {
	if len(input) < 2 {
		return nil, fmt.Errorf("pathplan: consolidate requires at least 2 states, got %d", len(input))
	}
	if err := validateFinite(input); err != nil {
		return nil, err
	}

	n := len(input)
	cp := &ConsolidatedPath{
		Raw:     make([]geometry.State2D, 0, n),
		Forward: make([]geometry.State2D, 0, n),
		Reverse: make([]geometry.State2D, 0, n),
	}

	push := func(s geometry.State2D) {
		cp.Raw = append(cp.Raw, s)
		cp.Forward = append(cp.Forward, model.FrontAxle(s))
		cp.Reverse = append(cp.Reverse, model.FakeFrontAxle(s))
	}

	first := input[0]
	push(first)
	if first.V == 0 {
		cp.Stopping = append(cp.Stopping, 0)
		cp.InitialState = Stopped
	} else if first.Gear == geometry.Forward {
		cp.InitialState = ForwardDrive
	} else {
		cp.InitialState = ReverseDrive
	}

	for i := 1; i < n-1; i++ {
		prev, cur, next := input[i-1], input[i], input[i+1]

		if cur.Gear == prev.Gear {
			if cur.Gear == geometry.Forward {
				cur.Orientation = model.ForwardOrientation(prev, cur, next)
				cur.V = model.ForwardSpeed(prev, cur, next)
			} else {
				cur.Orientation = model.BackwardOrientation(prev, cur, next)
				cur.V = model.BackwardSpeed(prev, cur, next)
			}
		} else {
			// cusp: gear reversal, the vehicle must come to rest here.
			cur.V = 0
			cp.Stopping = append(cp.Stopping, i)
		}

		push(cur)
	}

	push(input[n-1])
	cp.Stopping = append(cp.Stopping, n-1)

	updateLowSpeedRegions(model, cp)

	log.WithFields(logrus.Fields{
		"states":   n,
		"stopping": cp.Stopping,
		"initial":  cp.InitialState,
	}).Debug("path consolidated")

	return cp, nil
}

func validateFinite(input []geometry.State2D) error {
	for i, s := range input {
		if !isFinite(s.Position.X) || !isFinite(s.Position.Y) || !isFinite(s.Orientation) || !isFinite(s.V) {
			return fmt.Errorf("pathplan: state %d has non-finite value", i)
		}
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// setSpeed writes v/comingToStop into all three parallel paths at index i,
// keeping raw, forward, and reverse in lock-step.
func setSpeed(cp *ConsolidatedPath, i int, v float64, comingToStop bool) {
	cp.Raw[i].V = v
	cp.Forward[i].V = v
	cp.Reverse[i].V = v
	if comingToStop {
		cp.Raw[i].ComingToStop = true
		cp.Forward[i].ComingToStop = true
		cp.Reverse[i].ComingToStop = true
	}
}

// updateLowSpeedRegions propagates the reachable-speed envelope outward from
// every stopping index: leftward under the deceleration constraint,
// rightward under the acceleration constraint, each starting from a clamped
// low-speed first neighbor.
func updateLowSpeedRegions(model vehicle.Model, cp *ConsolidatedPath) {
	n := cp.Len()

	for _, stop := range cp.Stopping {
		// Leftward walk.
		if prev := stop - 1; prev >= 0 {
			setSpeed(cp, prev, lowSpeedFloor, true)

			next := prev
			prev--
			for prev >= 0 {
				nextState := cp.Raw[next]
				prevState := cp.Raw[prev]
				constraint := model.DecelerationConstraint(nextState.V, prevState.Position.Distance(nextState.Position), prevState.Gear)
				if constraint < prevState.V {
					setSpeed(cp, prev, constraint, false)
				} else {
					break
				}
				next = prev
				prev--
			}
		}

		// Rightward walk.
		if next := stop + 1; next < n {
			setSpeed(cp, next, lowSpeedFloor, false)

			prev := next
			next++
			for next < n {
				prevState := cp.Raw[prev]
				nextState := cp.Raw[next]
				constraint := model.AccelerationConstraint(prevState.V, prevState.Position.Distance(nextState.Position), prevState.Gear)
				if constraint < nextState.V {
					setSpeed(cp, next, constraint, false)
				} else {
					break
				}
				prev = next
				next++
			}
		}
	}
}
