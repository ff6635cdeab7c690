package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gammadia/schedeval/cli/ui"
	"github.com/gammadia/schedeval/flags"
	"github.com/gammadia/schedeval/log"
	"github.com/gammadia/schedeval/report"
	"github.com/gammadia/schedeval/search"
	"github.com/gammadia/schedeval/simulator"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var tuneCmd = &cobra.Command{
	Use:   "tune",
	Short: "Search the simulator's parameters for the configuration improving the candidate most",
	Args:  cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		grid, err := loadGrid()
		if err != nil {
			return err
		}
		if viper.GetBool(flags.DryRun) {
			printGrid(cmd, grid)
			return nil
		}

		opts, err := metricsOptions()
		if err != nil {
			return err
		}

		logger := log.With("command", "tune")
		sim, err := simulator.New(simulator.Config{
			Dir:              viper.GetString(flags.SimulatorDir),
			BuildCommand:     stringArray(cmd, flags.BuildCommand),
			BuildAttempts:    viper.GetInt(flags.BuildAttempts),
			RunCommand:       stringArray(cmd, flags.RunCommand),
			CandidateOutput:  viper.GetString(flags.CandidateOutput),
			BaselineOutput:   viper.GetString(flags.BaselineOutput),
			ParametersFile:   viper.GetString(flags.ParametersFile),
			ParametersFormat: viper.GetString(flags.ParametersFormat),
			Timeout:          viper.GetDuration(flags.Timeout),
			DiagnosticsDir:   viper.GetString(flags.DiagnosticsDir),
			Logger:           logger,
		})
		if err != nil {
			return fmt.Errorf("invalid simulator configuration: %w", err)
		}

		configurations := grid.Configurations()
		metrics := search.NewMetrics()
		config := search.Config{
			Logger:   logger,
			Analyzer: search.NewAnalyzer(opts),
			Metrics:  metrics,
		}

		var summary search.Summary
		if viper.GetBool(flags.Top) {
			// Logs would tear the dashboard
			level := log.Level()
			log.SetLevel(slog.LevelError + 1)

			model := newTopModel(len(configurations))
			config.OnEvent = model.onEvent
			s := search.New(sim, config)
			summary, err = newDashboard(model).run(cmd.Context(), func(ctx context.Context) search.Summary {
				return s.Run(ctx, configurations)
			})
			log.SetLevel(level)
			if err != nil {
				return fmt.Errorf("dashboard failed: %w", err)
			}
		} else {
			// The spinner replaces informational logs on a terminal
			if ui.Interactive() && log.Level() == slog.LevelInfo {
				log.SetLevel(slog.LevelWarn)
				defer log.SetLevel(slog.LevelInfo)
			}

			config.OnEvent = (&progress{}).onEvent
			summary = search.New(sim, config).Run(cmd.Context(), configurations)
		}

		if file := viper.GetString(flags.MetricsFile); file != "" {
			if err := metrics.WriteTextfile(file); err != nil {
				logger.Error("Failed to write metrics", "file", file, "error", err)
			}
		}

		if err := report.Search(cmd.OutOrStdout(), summary); err != nil {
			return err
		}
		if summary.Err != nil {
			return fmt.Errorf("search interrupted after %d trials: %w", len(summary.Trials), summary.Err)
		}
		return nil
	},
}

func init() {
	flags.Analysis(tuneCmd.Flags())
	flags.Simulator(tuneCmd.Flags())
}

// stringArray returns a repeatable flag. Values of the environment and config file are
// comma separated.
func stringArray(cmd *cobra.Command, name string) []string {
	if cmd.Flags().Changed(name) {
		return lo.Must(cmd.Flags().GetStringArray(name))
	}
	return viper.GetStringSlice(name)
}

// progress shows one spinner per trial.
type progress struct {
	spinner *ui.Spinner
	message string
}

func (p *progress) onEvent(event search.Event) {
	switch e := event.(type) {
	case search.EventTrialStarted:
		p.message = fmt.Sprintf("Trial %d/%d %s", e.Trial.Index+1, e.Of, e.Trial.Configuration)
		p.spinner = ui.NewSpinner(p.message)
	case search.EventStateChanged:
		if e.State != search.StateDone {
			p.spinner.UpdateMessage(fmt.Sprintf("%s (%s)", p.message, e.State))
		}
	case search.EventTrialScored:
		p.spinner.Success(fmt.Sprintf("%s: score %s", p.message, report.FormatScore(e.Score)))
	case search.EventTrialSkipped:
		p.spinner.Warn(fmt.Sprintf("%s: skipped", p.message))
	case search.EventTrialFailed:
		p.spinner.Fail(fmt.Sprintf("%s: %s", p.message, e.Err))
	}
}
