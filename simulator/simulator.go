package simulator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gammadia/schedeval/search"
	"github.com/samber/lo"
	"go.uber.org/multierr"
)

type Config struct {
	// Dir is the directory the simulator runs in. Relative paths are resolved against it.
	Dir string
	// BuildCommand is run before every trial, if set
	BuildCommand []string
	// BuildAttempts is how many times a failing build is tried
	BuildAttempts int
	// RunCommand runs the simulator. Its arguments may be templates (see ArgsConfigurator).
	RunCommand []string
	// CandidateOutput and BaselineOutput are the record sets written by the run command
	CandidateOutput string
	BaselineOutput  string
	// ParametersFile receives the configuration of each trial, if set (see FileConfigurator)
	ParametersFile   string
	ParametersFormat string
	// Timeout bounds each command; a command still running after it is considered hung
	Timeout time.Duration
	// DiagnosticsDir receives the compressed output of each trial, if set
	DiagnosticsDir string
	// Configurators are applied after the parameters file and argument templates
	Configurators []Configurator

	Logger *slog.Logger
}

func (c Config) Validate() error {
	if len(c.RunCommand) < 1 {
		return errors.New("run command is required")
	}
	if c.CandidateOutput == "" || c.BaselineOutput == "" {
		return errors.New("candidate and baseline outputs are required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.BuildAttempts < 1 {
		return fmt.Errorf("build attempts must be greater than 0, got %d", c.BuildAttempts)
	}
	if c.ParametersFile == "" && len(c.Configurators) < 1 && !lo.SomeBy(c.RunCommand, isTemplate) {
		return errors.New("no way to pass the configuration to the simulator: set a parameters file or use templates in the run command")
	}
	return nil
}

// Simulator drives an external scheduling simulator, one trial at a time.
type Simulator struct {
	config        Config
	configurators []Configurator
	log           *slog.Logger
}

var _ search.Simulator = (*Simulator)(nil)

func New(config Config) (*Simulator, error) {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.BuildAttempts == 0 {
		config.BuildAttempts = 1
	}
	if config.Dir == "" {
		config.Dir = "."
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	dir, err := filepath.Abs(config.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve simulator directory: %w", err)
	}
	if info, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("simulator directory: %w", err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("simulator directory '%s' is not a directory", dir)
	}
	config.Dir = dir

	config.CandidateOutput = config.resolve(config.CandidateOutput)
	config.BaselineOutput = config.resolve(config.BaselineOutput)

	var configurators []Configurator
	if config.ParametersFile != "" {
		config.ParametersFile = config.resolve(config.ParametersFile)
		configurators = append(configurators, FileConfigurator{Path: config.ParametersFile, Format: config.ParametersFormat})
	}
	configurators = append(configurators, ArgsConfigurator{})
	configurators = append(configurators, config.Configurators...)

	return &Simulator{
		config:        config,
		configurators: configurators,
		log:           config.Logger.With("component", "simulator"),
	}, nil
}

func (c Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir, p)
}

// Configure applies the trial's configuration and returns the session guarding it. If a
// configurator fails, the ones already applied are reverted.
func (s *Simulator) Configure(ctx context.Context, trial search.Trial) (search.Session, error) {
	invocation := &Invocation{
		Trial: trial,
		Args:  append([]string(nil), s.config.RunCommand...),
		Env:   []string{"SCHEDEVAL_TRIAL=" + trial.ID.String()},
	}

	session := &session{
		simulator: s,
		trial:     trial,
		log:       s.log.With("trial", trial.ID),
	}

	for _, configurator := range s.configurators {
		restore, err := configurator.Apply(invocation)
		if err != nil {
			return nil, multierr.Append(err, session.restore())
		}
		if restore != nil {
			session.restores = append(session.restores, restore)
		}
	}

	session.invocation = *invocation
	s.log.Debug("Configuration applied", "trial", trial.ID, "configuration", trial.Configuration.String())
	return session, nil
}
