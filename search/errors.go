package search

import (
	"fmt"
	"strings"
)

// ConfigurationError is returned when a configuration cannot be applied to the simulator.
// The grid point is skipped.
type ConfigurationError struct {
	Configuration Configuration
	Err           error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("cannot apply configuration (%s): %s", e.Configuration, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// ExecutionError is returned when a trial could not produce analyzable results: the
// simulator failed, hung, wrote no output, or its output did not pass analysis.
type ExecutionError struct {
	// Stage is the step that failed (build, run, analyze)
	Stage string
	// ExitCode of the process, -1 when it did not exit by itself
	ExitCode int
	// Hung is set when the process was killed after exceeding its timeout
	Hung bool
	// Output is the tail of the captured process output, for diagnostics
	Output string
	Err    error
}

func (e *ExecutionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s failed", e.Stage)
	switch {
	case e.Hung:
		b.WriteString(" (timed out)")
	case e.ExitCode > 0:
		fmt.Fprintf(&b, " (exit code %d)", e.ExitCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %s", e.Err)
	}
	return b.String()
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
