//go:build js && wasm

// Command pathfollow-wasm exposes the path-following controller to the
// browser via WebAssembly. After loading, it registers a global JavaScript
// function:
//
//	runPathFollow(jsonString, options?) -> jsonString
//
// jsonString is a JSON-encoded RunInput; the return value is a JSON-encoded
// CommandLog. The optional options object mirrors the CLI's flags:
//
//	{ "dt": 0.02, "logLevel": "debug" }
package main

import (
	"syscall/js"

	"github.com/cxd309/pathfollow-core/internal/pathfollow"
)

func main() {
	js.Global().Set("runPathFollow", js.FuncOf(runPathFollow))
	select {} // keep the WASM module alive until the page is closed
}

func runPathFollow(_ js.Value, args []js.Value) any {
	if len(args) < 1 {
		return map[string]any{"error": "no input provided"}
	}

	data := []byte(args[0].String())

	if len(args) > 1 && args[1].Type() == js.TypeObject {
		opts := args[1]

		if level := opts.Get("logLevel"); level.Type() == js.TypeString {
			if err := pathfollow.SetLogLevel(level.String()); err != nil {
				return map[string]any{"error": err.Error()}
			}
		}

		if dt := opts.Get("dt"); dt.Type() == js.TypeNumber {
			overridden, err := pathfollow.OverrideTimeStep(data, dt.Float())
			if err != nil {
				return map[string]any{"error": err.Error()}
			}
			data = overridden
		}
	}

	result, err := pathfollow.RunJSON(string(data))
	if err != nil {
		return map[string]any{"error": err.Error()}
	}
	return result
}
