// Command taskgridd is the reference composition root for a taskgrid
// Application: it loads configuration via viper, wires the HTTP, pub/sub,
// and queue transports against a shared Redis broker, optionally loads a
// static manager-registration manifest, and runs until interrupted,
// mirroring the teacher's cmd/cobra_cli.go root-command shape and
// internal/di.Container's Start/Shutdown lifecycle split.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "taskgridd: %v\n", err)
		os.Exit(1)
	}
}
