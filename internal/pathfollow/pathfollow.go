// Package pathfollow is the JSON interchange boundary shared by the CLI and
// WASM entry points: decode a run request, drive the controller to
// completion, encode the resulting command log.
package pathfollow

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/cxd309/pathfollow-core/internal/control"
	"github.com/cxd309/pathfollow-core/internal/geometry"
	"github.com/cxd309/pathfollow-core/internal/vehicle"
)

// RunMeta holds the identity and timing parameters for a run.
type RunMeta struct {
	RunID    string  `json:"run_id,omitempty"`
	TimeStep float64 `json:"time_step"` // seconds
}

// StateJSON is the wire representation of geometry.State2D.
type StateJSON struct {
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Orientation  float64 `json:"orientation"`
	Phi          float64 `json:"phi"`
	V            float64 `json:"v"`
	Reverse      bool    `json:"reverse"`
	T            float64 `json:"t,omitempty"`
	ComingToStop bool    `json:"coming_to_stop,omitempty"`
}

func (s StateJSON) toState() geometry.State2D {
	gear := geometry.Forward
	if s.Reverse {
		gear = geometry.Backward
	}
	return geometry.State2D{
		Pose2D: geometry.Pose2D{
			Position:    geometry.Vector2D{X: s.X, Y: s.Y},
			Orientation: s.Orientation,
		},
		Phi:          s.Phi,
		V:            s.V,
		Gear:         gear,
		T:            s.T,
		ComingToStop: s.ComingToStop,
	}
}

func fromState(s geometry.State2D) StateJSON {
	return StateJSON{
		X:            s.Position.X,
		Y:            s.Position.Y,
		Orientation:  s.Orientation,
		Phi:          s.Phi,
		V:            s.V,
		Reverse:      s.Gear == geometry.Backward,
		T:            s.T,
		ComingToStop: s.ComingToStop,
	}
}

// RunInput is the JSON-serialisable input to a full build-and-follow run.
// The vehicle starts from Path[0]; BuildAndFollow drives from there.
type RunInput struct {
	Meta   RunMeta        `json:"run_meta"`
	Params vehicle.Params `json:"vehicle_params"`
	Path   []StateJSON    `json:"path"`
}

// CommandLog is the complete output of a run: the meta echoed back with its
// resolved run ID, and every command the controller emitted in order.
type CommandLog struct {
	Meta     RunMeta     `json:"run_meta"`
	Commands []StateJSON `json:"commands"`
}

// RunJSON is the entry point shared by the CLI and WASM builds. It accepts a
// JSON-encoded RunInput, drives the controller to completion, and returns a
// JSON-encoded CommandLog.
func RunJSON(jsonInput string) (string, error) {
	var input RunInput
	if err := json.Unmarshal([]byte(jsonInput), &input); err != nil {
		return "", fmt.Errorf("invalid input JSON: %w", err)
	}

	if len(input.Path) < 2 {
		return "", fmt.Errorf("path must contain at least 2 states, got %d", len(input.Path))
	}

	raw := make([]geometry.State2D, len(input.Path))
	for i, s := range input.Path {
		raw[i] = s.toState()
	}

	dt := input.Meta.TimeStep
	if dt <= 0 {
		dt = 0.025
	}

	model := vehicle.NewKinematicModel(input.Params)
	c := control.New(model, dt)

	commands, err := c.BuildAndFollow(raw)
	if err != nil {
		return "", err
	}

	out := CommandLog{Meta: input.Meta}
	out.Meta.RunID = c.RunID()
	out.Commands = make([]StateJSON, len(commands))
	for i, s := range commands {
		out.Commands[i] = fromState(s)
	}

	encoded, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("marshaling output: %w", err)
	}
	return string(encoded), nil
}

// OverrideTimeStep rewrites just the run_meta.time_step field of a
// RunInput document to dt, leaving the rest of the document untouched.
// Both entry points use this to let their host environment (a CLI flag, a
// JS caller's options object) force a tick period without requiring the
// caller to round-trip the whole document through RunInput itself.
func OverrideTimeStep(jsonInput []byte, dt float64) ([]byte, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(jsonInput, &doc); err != nil {
		return nil, fmt.Errorf("invalid input JSON: %w", err)
	}

	var meta map[string]json.RawMessage
	if raw, ok := doc["run_meta"]; ok {
		if err := json.Unmarshal(raw, &meta); err != nil {
			return nil, fmt.Errorf("invalid run_meta: %w", err)
		}
	} else {
		meta = map[string]json.RawMessage{}
	}

	encodedDt, err := json.Marshal(dt)
	if err != nil {
		return nil, err
	}
	meta["time_step"] = encodedDt

	encodedMeta, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}
	doc["run_meta"] = encodedMeta

	return json.Marshal(doc)
}

// SetLogLevel parses level (trace, debug, info, warn, error, fatal, panic)
// and applies it as the package-wide logrus level, for the CLI and WASM
// entry points to expose as an operator-facing verbosity control.
func SetLogLevel(level string) error {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logrus.SetLevel(parsed)
	return nil
}
