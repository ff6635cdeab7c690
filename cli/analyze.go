package main

import (
	"fmt"

	"github.com/gammadia/schedeval/flags"
	"github.com/gammadia/schedeval/log"
	"github.com/gammadia/schedeval/metrics"
	"github.com/gammadia/schedeval/records"
	"github.com/gammadia/schedeval/report"
	"github.com/gammadia/schedeval/visual"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze CANDIDATE BASELINE",
	Short: "Compare the record sets of two scheduler variants",
	Args:  cobra.ExactArgs(2),

	RunE: func(cmd *cobra.Command, args []string) error {
		format := viper.GetString(flags.Output)
		if format != "text" && format != "yaml" {
			return fmt.Errorf("unknown output format '%s'", format)
		}
		opts, err := metricsOptions()
		if err != nil {
			return err
		}

		pair, err := records.LoadPair(args[0], args[1])
		if err != nil {
			return err
		}
		log.Debug("Record sets loaded", "candidate", pair.Candidate.Len(), "baseline", pair.Baseline.Len())

		analysis := report.Analysis{
			CandidateName: viper.GetString(flags.CandidateName),
			BaselineName:  viper.GetString(flags.BaselineName),
			Comparison:    metrics.Analyze(pair, opts),
		}

		if file := viper.GetString(flags.Charts); file != "" {
			charts := visual.NewCharts(
				visual.Names{Candidate: analysis.CandidateName, Baseline: analysis.BaselineName},
				pair,
				analysis.Comparison,
				viper.GetInt(flags.ChartBins),
			)
			if err := charts.WriteFile(file); err != nil {
				return fmt.Errorf("failed to write charts to '%s': %w", file, err)
			}
			log.Info("Chart data written", "file", file)
		}

		if format == "yaml" {
			return report.YAML(cmd.OutOrStdout(), analysis)
		}
		return report.Text(cmd.OutOrStdout(), analysis)
	},
}

func init() {
	flags.Analysis(analyzeCmd.Flags())
	flags.Report(analyzeCmd.Flags())
}

func metricsOptions() (metrics.Options, error) {
	factor := viper.GetFloat64(flags.StarvationFactor)
	if factor <= 0 {
		return metrics.Options{}, fmt.Errorf("starvation factor must be positive, got %g", factor)
	}
	return metrics.Options{StarvationFactor: factor}, nil
}
