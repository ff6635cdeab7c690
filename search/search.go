package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/gammadia/schedeval/metrics"
	"github.com/gammadia/schedeval/namegen"
	"github.com/gammadia/schedeval/records"
	"go.uber.org/multierr"
)

// WorstScore is the score of a trial that was skipped or failed.
var WorstScore = math.Inf(-1)

// Output locates the record sets written by one simulator run.
type Output struct {
	Candidate string
	Baseline  string
}

// Session is a configuration applied to the simulator. Close undoes whatever Configure
// changed and must be called exactly once, whatever happened in between.
type Session interface {
	Execute(ctx context.Context) (Output, error)
	Close() error
}

type Simulator interface {
	// Configure applies the trial's configuration to the simulator inputs.
	Configure(ctx context.Context, trial Trial) (Session, error)
}

// Analyzer turns the output of a simulator run into a comparison.
type Analyzer func(Output) (metrics.Comparison, error)

// NewAnalyzer loads both record sets of an output and compares them.
func NewAnalyzer(opts metrics.Options) Analyzer {
	return func(output Output) (metrics.Comparison, error) {
		pair, err := records.LoadPair(output.Candidate, output.Baseline)
		if err != nil {
			return metrics.Comparison{}, err
		}
		return metrics.Analyze(pair, opts), nil
	}
}

type Trial struct {
	ID            namegen.ID
	Index         int
	Configuration Configuration
}

type Result struct {
	Trial Trial
	// State is the last state the trial reached
	State State
	// Comparison is nil unless the trial was analyzed
	Comparison *metrics.Comparison
	Score      float64
	Err        error
	Duration   time.Duration
}

func (r Result) Outcome() string {
	var configErr *ConfigurationError
	switch {
	case errors.As(r.Err, &configErr):
		return OutcomeSkipped
	case r.Err != nil:
		return OutcomeFailed
	default:
		return OutcomeScored
	}
}

// Score is the starvation reduction plus the SLA compliance delta. An unbounded starvation
// reduction (the baseline starved no task) scores +Inf, above any finite score.
func Score(c metrics.Comparison) float64 {
	starvation := c.StarvationReduction.Ordinal()
	if math.IsNaN(starvation) || math.IsNaN(c.SLADelta) {
		return WorstScore
	}
	return starvation + c.SLADelta
}

// Best is the best-so-far accumulator of a search. It starts at a score of zero, so only a
// trial improving on the baseline can become the best.
type Best struct {
	Result *Result
	Score  float64
}

func NewBest() Best {
	return Best{Score: 0}
}

// Observe returns the accumulator updated with r. A trial replaces the current best only if
// its score is strictly greater, so the earliest of equal scores is kept.
func (b Best) Observe(r Result) Best {
	if r.Err == nil && r.Score > b.Score {
		return Best{Result: &r, Score: r.Score}
	}
	return b
}

func (b Best) Found() bool {
	return b.Result != nil
}

type Summary struct {
	Trials []Result
	Best   Best
	// Err is set when the search was interrupted before the grid was exhausted
	Err error
}

func (s Summary) Count(outcome string) (n int) {
	for _, r := range s.Trials {
		if r.Outcome() == outcome {
			n++
		}
	}
	return
}

type Config struct {
	Logger *slog.Logger
	// Analyzer defaults to NewAnalyzer with default options
	Analyzer Analyzer
	// Metrics is optional
	Metrics *Metrics
	// OnEvent is called synchronously for every event, if set
	OnEvent func(Event)
}

// Search runs trials over a grid, one at a time.
type Search struct {
	simulator Simulator
	config    Config
	log       *slog.Logger

	state State
}

func New(simulator Simulator, config Config) *Search {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Analyzer == nil {
		config.Analyzer = NewAnalyzer(metrics.Options{})
	}

	return &Search{
		simulator: simulator,
		config:    config,
		log:       config.Logger.With("component", "search"),
		state:     StateIdle,
	}
}

func (s *Search) State() State {
	return s.state
}

// Run tries every configuration in order and returns the best one. A failing trial never
// stops the search; only the cancellation of ctx does.
func (s *Search) Run(ctx context.Context, configurations []Configuration) Summary {
	s.state = StateIdle
	best := NewBest()
	summary := Summary{}

	s.log.Info("Starting parameter search", "trials", len(configurations))

	for i, configuration := range configurations {
		if err := ctx.Err(); err != nil {
			s.log.Warn("Parameter search interrupted", "completed", i, "trials", len(configurations))
			summary.Err = err
			break
		}

		trial := Trial{ID: namegen.Trial(i), Index: i, Configuration: configuration}
		s.emit(EventTrialStarted{Trial: trial, Of: len(configurations)})

		result := s.runTrial(ctx, trial)
		summary.Trials = append(summary.Trials, result)
		s.config.Metrics.observe(result)

		if next := best.Observe(result); next.Result != best.Result {
			best = next
			s.log.Info("New best configuration", "trial", trial.ID, "configuration", configuration.String(), "score", best.Score)
			s.config.Metrics.setBest(best.Score)
			s.emit(EventBestImproved{Trial: trial, Score: best.Score})
		}

		if i < len(configurations)-1 && s.state == StateScoring {
			s.transition(trial, StateIdle)
		}
	}

	// An interruption during the last trial leaves nothing for the loop to check
	if summary.Err == nil && ctx.Err() != nil && len(summary.Trials) > 0 {
		if last := summary.Trials[len(summary.Trials)-1]; errors.Is(last.Err, ctx.Err()) {
			s.log.Warn("Parameter search interrupted", "completed", len(summary.Trials)-1, "trials", len(configurations))
			summary.Err = ctx.Err()
		}
	}

	s.transition(Trial{}, StateDone)
	summary.Best = best

	if best.Found() {
		s.log.Info("Parameter search done", "best", best.Result.Trial.Configuration.String(), "score", best.Score)
	} else {
		s.log.Info("Parameter search done, no improving configuration found")
	}
	s.emit(EventSearchDone{Best: best})

	return summary
}

// runTrial leaves the loop in StateScoring after a scored trial, StateIdle otherwise.
func (s *Search) runTrial(ctx context.Context, trial Trial) (result Result) {
	log := s.log.With("trial", trial.ID, "configuration", trial.Configuration.String())
	start := time.Now()

	result = Result{Trial: trial, Score: WorstScore}
	defer func() {
		result.Duration = time.Since(start)
	}()

	fail := func(err error) Result {
		result.Err = err

		var configErr *ConfigurationError
		if errors.As(err, &configErr) {
			log.Warn("Skipping configuration", "error", err)
			s.emit(EventTrialSkipped{Trial: trial, Err: err})
		} else {
			log.Error("Trial failed", "state", result.State, "error", err)
			s.emit(EventTrialFailed{Trial: trial, Err: err})
		}

		s.transition(trial, StateIdle)
		return result
	}

	// Configuring
	s.transition(trial, StateConfiguring)
	result.State = StateConfiguring
	session, err := s.configure(ctx, trial)
	if err != nil {
		return fail(err)
	}

	// Executing
	s.transition(trial, StateExecuting)
	result.State = StateExecuting
	output, err := execute(ctx, session)
	if err != nil {
		return fail(err)
	}

	// Analyzing
	s.transition(trial, StateAnalyzing)
	result.State = StateAnalyzing
	comparison, err := s.config.Analyzer(output)
	if err != nil {
		return fail(&ExecutionError{Stage: "analyze", Err: err})
	}
	result.Comparison = &comparison

	// Scoring
	s.transition(trial, StateScoring)
	result.State = StateScoring
	if result.Score = Score(comparison); math.IsInf(result.Score, -1) {
		return fail(&ExecutionError{Stage: "score", Err: errors.New("starvation reduction is undefined")})
	}

	log.Info("Trial scored",
		"score", result.Score,
		"starvation-reduction", comparison.StarvationReduction.String(),
		"sla-delta", comparison.SLADelta,
	)
	s.emit(EventTrialScored{Trial: trial, Score: result.Score})
	return result
}

func (s *Search) configure(ctx context.Context, trial Trial) (Session, error) {
	if err := trial.Configuration.Validate(); err != nil {
		return nil, &ConfigurationError{Configuration: trial.Configuration, Err: err}
	}

	session, err := s.simulator.Configure(ctx, trial)
	if err != nil {
		var configErr *ConfigurationError
		if !errors.As(err, &configErr) {
			err = &ConfigurationError{Configuration: trial.Configuration, Err: err}
		}
		return nil, err
	}
	return session, nil
}

// execute runs the session and closes it, whatever the outcome.
func execute(ctx context.Context, session Session) (output Output, err error) {
	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			err = multierr.Append(err, &ExecutionError{Stage: "restore", Err: closeErr})
		}
	}()

	if output, err = session.Execute(ctx); err != nil {
		var execErr *ExecutionError
		if !errors.As(err, &execErr) {
			err = &ExecutionError{Stage: "execute", Err: err}
		}
	}
	return
}

func (s *Search) transition(trial Trial, to State) {
	if !s.state.CanTransition(to) {
		panic(fmt.Sprintf("search: invalid transition from %s to %s", s.state, to))
	}

	s.log.Debug("State changed", "trial", trial.ID, "from", s.state, "to", to)
	s.state = to
	s.emit(EventStateChanged{Trial: trial, State: to})
}

func (s *Search) emit(event Event) {
	if s.config.OnEvent != nil {
		s.config.OnEvent(event)
	}
}
