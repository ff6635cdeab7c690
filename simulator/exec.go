package simulator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/alessio/shellescape"
	"github.com/gammadia/schedeval/search"
)

// outputTailLines is how much of the captured output is kept in an ExecutionError.
const outputTailLines = 20

// waitDelay bounds the wait for the output pipes after a process was killed.
const waitDelay = 5 * time.Second

// command runs args in the simulator directory with a bounded wait. Stdout and stderr are
// captured together and appended to the session's diagnostics.
func (s *session) command(ctx context.Context, stage string, args []string, env []string) error {
	log := s.log.With("stage", stage)
	log.Debug("Running command", "command", shellescape.QuoteCommand(args))

	runCtx, cancel := context.WithTimeout(ctx, s.simulator.config.Timeout)
	defer cancel()

	var output bytes.Buffer
	cmd := exec.CommandContext(runCtx, args[0], args[1:]...)
	cmd.Dir = s.simulator.config.Dir
	cmd.Env = append(os.Environ(), env...)
	cmd.Stdout = &output
	cmd.Stderr = &output
	cmd.WaitDelay = waitDelay

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	s.diagnostics.record(stage, args, output.Bytes(), err)

	if err == nil {
		log.Debug("Command succeeded", "duration", duration)
		return nil
	}

	execErr := &search.ExecutionError{
		Stage:    stage,
		ExitCode: -1,
		Output:   tail(output.String(), outputTailLines),
	}

	var exitErr *exec.ExitError
	switch {
	case ctx.Err() != nil:
		execErr.Err = ctx.Err()
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		execErr.Hung = true
		execErr.Err = fmt.Errorf("no exit after %s", s.simulator.config.Timeout)
	case errors.As(err, &exitErr):
		execErr.ExitCode = exitErr.ExitCode()
		if execErr.ExitCode < 0 {
			// Killed by a signal
			execErr.Err = err
		}
	default:
		execErr.Err = err
	}

	log.Debug("Command failed", "duration", duration, "exitCode", execErr.ExitCode, "hung", execErr.Hung)
	return execErr
}

// tail returns the last n lines of s.
func tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
