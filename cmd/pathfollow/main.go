// Command pathfollow reads a RunInput JSON from a file argument (or stdin),
// drives the path-following controller to completion, and writes the
// resulting CommandLog JSON to stdout.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/cxd309/pathfollow-core/internal/pathfollow"
)

func main() {
	dt := flag.Float64("dt", 0, "override the run's time_step (seconds); 0 keeps the input's own value")
	logLevel := flag.String("log-level", "info", "structured log verbosity: trace, debug, info, warn, error")
	flag.Parse()

	if err := pathfollow.SetLogLevel(*logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	var (
		data []byte
		err  error
	)
	if flag.NArg() > 0 {
		data, err = os.ReadFile(flag.Arg(0))
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading input: %v\n", err)
		os.Exit(1)
	}

	if *dt > 0 {
		data, err = pathfollow.OverrideTimeStep(data, *dt)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error applying -dt override: %v\n", err)
			os.Exit(1)
		}
	}

	result, err := pathfollow.RunJSON(string(data))
	if err != nil {
		fmt.Fprintf(os.Stderr, "path follow error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(result)
}
