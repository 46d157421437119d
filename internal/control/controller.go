// Package control implements the Stanley lateral law, PI longitudinal law,
// and the top-level control-state machine that drives a nonholonomic
// vehicle along a consolidated path: Standby -> Stopped -> ForwardDrive /
// ReverseDrive -> Complete.
package control

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/cxd309/pathfollow-core/internal/geometry"
	"github.com/cxd309/pathfollow-core/internal/pathplan"
	"github.com/cxd309/pathfollow-core/internal/vehicle"
)

var log = logrus.WithField("module", "control")

// maxTicks bounds Follow's simulation loop so a pathological input (or a
// vehicle model that never converges) fails loudly instead of hanging the
// caller forever; it is not part of the control law itself.
const maxTicks = 1_000_000

// Controller is a single re-entrant instance of the path-following core.
// It owns its ConsolidatedPath, waypoint cursor, FSM state, and PID memory
// exclusively; nothing about it is safe to share across goroutines.
type Controller struct {
	Model vehicle.Model
	Dt    float64

	path  *pathplan.ConsolidatedPath
	state pathplan.ControllerState

	prevWaypoint, nextWaypoint, lastCusp int
	prevWheelAngleError                  float64
	vPastError                           float64

	car geometry.State2D

	runID string
}

// New constructs a Controller for the given vehicle model and tick period.
// It holds no path until Consolidate succeeds.
func New(model vehicle.Model, dt float64) *Controller {
	return &Controller{Model: model, Dt: dt, state: pathplan.Standby}
}

// State returns the controller's current FSM state.
func (c *Controller) State() pathplan.ControllerState { return c.state }

// RunID returns the correlation ID assigned by the most recent successful
// Consolidate, for tagging logs and output alongside a run's commands.
func (c *Controller) RunID() string { return c.runID }

// Consolidate installs a new ConsolidatedPath built from raw, replacing any
// path previously installed and resetting the waypoint cursor and PID
// memory. The caller must not invoke Follow/Step until this succeeds.
func (c *Controller) Consolidate(raw []geometry.State2D) error {
	cp, err := pathplan.Consolidate(c.Model, raw)
	if err != nil {
		log.WithError(err).Warn("consolidation failed")
		return err
	}

	c.path = cp
	c.state = cp.InitialState
	c.prevWaypoint = 0
	c.nextWaypoint = 1
	c.lastCusp = 0
	c.prevWheelAngleError = 0
	c.vPastError = 0
	c.runID = uuid.NewString()

	log.WithFields(logrus.Fields{
		"run_id":  c.runID,
		"states":  cp.Len(),
		"initial": cp.InitialState,
	}).Info("path consolidated")

	return nil
}

// BuildAndFollow consolidates raw and then batch-simulates from its first
// state, returning the full command list.
func (c *Controller) BuildAndFollow(raw []geometry.State2D) ([]geometry.State2D, error) {
	if err := c.Consolidate(raw); err != nil {
		return nil, err
	}
	return c.Follow(raw[0])
}

// RebuildAndStep consolidates raw and then emits a single command starting
// from start.
func (c *Controller) RebuildAndStep(start geometry.State2D, raw []geometry.State2D) ([]geometry.State2D, error) {
	if err := c.Consolidate(raw); err != nil {
		return nil, err
	}
	return c.Step(start)
}

// Follow batch-drives from start using the currently installed
// ConsolidatedPath until the FSM reaches Complete, returning every emitted
// command in order.
func (c *Controller) Follow(start geometry.State2D) ([]geometry.State2D, error) {
	if c.path == nil {
		return nil, fmt.Errorf("control: follow called before a successful consolidate")
	}

	c.car = start
	var commands []geometry.State2D

	for tick := 0; c.state != pathplan.Complete; tick++ {
		if tick >= maxTicks {
			return commands, fmt.Errorf("control: exceeded %d ticks without reaching Complete", maxTicks)
		}
		cmd, err := c.tick()
		if err != nil {
			return commands, err
		}
		if cmd != nil {
			commands = append(commands, *cmd)
		}
	}

	return commands, nil
}

// Step emits at most one command starting from start, for external
// closed-loop operation. In the terminal Complete state it is a no-op and
// returns an empty list.
func (c *Controller) Step(start geometry.State2D) ([]geometry.State2D, error) {
	if c.path == nil {
		return nil, fmt.Errorf("control: step called before a successful consolidate")
	}
	if c.state == pathplan.Complete {
		return nil, nil
	}

	c.car = start
	cmd, err := c.tick()
	if err != nil {
		return nil, err
	}
	if cmd == nil {
		return nil, nil
	}
	return []geometry.State2D{*cmd}, nil
}

// tick runs the handler for the current FSM state to produce a command,
// then advances car by feeding that command through the vehicle model's
// one-step Ackermann integrator.
func (c *Controller) tick() (*geometry.State2D, error) {
	switch c.state {
	case pathplan.Standby:
		// Unconditional first-tick transition; unreachable in practice since
		// Consolidate resolves the initial state directly, kept for FSM
		// completeness.
		c.state = pathplan.Stopped
		c.car = c.Model.NextState(c.car)
		return nil, nil

	case pathplan.ForwardDrive, pathplan.ReverseDrive:
		cmd := c.driveTick(c.car)
		c.car = c.Model.NextState(cmd)
		return &cmd, nil

	case pathplan.Stopped:
		cmd := c.stoppedTick(c.car)
		c.car = c.Model.NextState(cmd)
		return &cmd, nil

	case pathplan.Complete:
		return nil, nil

	default:
		return nil, fmt.Errorf("control: unknown controller state %v", c.state)
	}
}
