package simulator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/gammadia/schedeval/search"
	"github.com/gammadia/schedeval/simulator/internal"
	"go.uber.org/multierr"
)

// session is a configuration applied to the simulator. Close reverts it.
type session struct {
	simulator  *Simulator
	trial      search.Trial
	invocation Invocation
	restores   []Restore
	closed     bool

	diagnostics diagnostics
	log         *slog.Logger
}

// Execute builds and runs the simulator, and checks that both record sets were written.
func (s *session) Execute(ctx context.Context) (search.Output, error) {
	config := s.simulator.config
	output := search.Output{Candidate: config.CandidateOutput, Baseline: config.BaselineOutput}

	defer s.writeDiagnostics()

	for _, file := range []string{output.Candidate, output.Baseline} {
		if err := os.Remove(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return output, &search.ExecutionError{Stage: "prepare", Err: fmt.Errorf("failed to remove stale output: %w", err)}
		}
	}

	if len(config.BuildCommand) > 0 {
		if err := internal.Retry(ctx, config.BuildAttempts, func(attempt int) error {
			if attempt > 0 {
				s.log.Warn("Retrying build", "attempt", attempt+1, "of", config.BuildAttempts)
			}
			return s.command(ctx, "build", config.BuildCommand, s.invocation.Env)
		}); err != nil {
			return output, err
		}
	}

	if err := s.command(ctx, "run", s.invocation.Args, s.invocation.Env); err != nil {
		return output, err
	}

	for _, file := range []string{output.Candidate, output.Baseline} {
		if _, err := os.Stat(file); err != nil {
			return output, &search.ExecutionError{Stage: "run", Err: fmt.Errorf("output was not written: %w", err)}
		}
	}

	return output, nil
}

// Close reverts the configuration. It is safe to call more than once.
func (s *session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.restore()
}

// restore runs the restore functions in reverse order, all of them even if some fail.
func (s *session) restore() (err error) {
	for i := len(s.restores) - 1; i >= 0; i-- {
		err = multierr.Append(err, s.restores[i]())
	}
	s.restores = nil
	return
}

func (s *session) writeDiagnostics() {
	dir := s.simulator.config.DiagnosticsDir
	if dir == "" || s.diagnostics.buf.Len() == 0 {
		return
	}

	file, err := s.diagnostics.write(dir, s.trial.ID.String())
	if err != nil {
		s.log.Warn("Failed to write diagnostics", "error", err)
		return
	}
	s.log.Debug("Diagnostics written", "file", file)
}
