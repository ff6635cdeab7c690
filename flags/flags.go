package flags

import (
	"fmt"
	"strings"
	"time"

	"github.com/gammadia/schedeval/metrics"
	"github.com/gammadia/schedeval/report"
	"github.com/gammadia/schedeval/visual"
	"github.com/samber/lo"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Every flag can also be set with a SCHEDEVAL_ prefixed environment variable (e.g.
// SCHEDEVAL_LOG_LEVEL) or a key of the --config file.
const (
	Config    = "config"
	LogFormat = "log-format"
	LogLevel  = "log-level"
	LogSource = "log-source"

	// Analysis
	CandidateName    = "candidate-name"
	BaselineName     = "baseline-name"
	StarvationFactor = "starvation-factor"
	Output           = "output"
	Charts           = "charts"
	ChartBins        = "chart-bins"

	// Search
	Grid             = "grid"
	DryRun           = "dry-run"
	Top              = "top"
	MetricsFile      = "metrics-file"
	SimulatorDir     = "simulator-dir"
	BuildCommand     = "build-command"
	BuildAttempts    = "build-attempts"
	RunCommand       = "run-command"
	CandidateOutput  = "candidate-output"
	BaselineOutput   = "baseline-output"
	ParametersFile   = "parameters-file"
	ParametersFormat = "parameters-format"
	Timeout          = "timeout"
	DiagnosticsDir   = "diagnostics-dir"
)

const envPrefix = "schedeval"

// Global registers the flags shared by every command.
func Global(flags *flag.FlagSet) {
	flags.String(Config, "", "YAML file providing default values for flags")
	flags.String(LogFormat, "text", "log format (json, text)")
	flags.String(LogLevel, "INFO", "minimum log level")
	flags.Bool(LogSource, false, "add source code location to logs")
}

// Analysis registers the flags of commands comparing two record sets.
func Analysis(flags *flag.FlagSet) {
	flags.String(CandidateName, report.DefaultCandidateName, "display name of the candidate scheduler")
	flags.String(BaselineName, report.DefaultBaselineName, "display name of the baseline scheduler")
	flags.Float64(StarvationFactor, metrics.StarvationFactor, "a task starved when it waited more than this multiple of its required CPU time")
}

// Report registers the flags of the analyze command output.
func Report(flags *flag.FlagSet) {
	flags.StringP(Output, "o", "text", "report format (text, yaml)")
	flags.String(Charts, "", "write chart data to this YAML file")
	flags.Int(ChartBins, visual.DefaultBins, "number of bins of the wait time distribution")
}

// Simulator registers the flags of commands driving the simulator.
func Simulator(flags *flag.FlagSet) {
	flags.String(Grid, "", "YAML grid file (default grid if empty)")
	flags.Bool(DryRun, false, "print the configurations of the grid without running them")
	flags.Bool(Top, false, "show a live dashboard of the search (press q to interrupt)")
	flags.String(MetricsFile, "", "write search metrics to this file in the Prometheus text format")
	flags.String(SimulatorDir, ".", "directory the simulator runs in")
	flags.StringArray(BuildCommand, nil, "command building the simulator before each trial, one argument per flag")
	flags.Int(BuildAttempts, 3, "how many times a failing build is tried")
	flags.StringArray(RunCommand, nil, "command running the simulator, one argument per flag; arguments may be templates, e.g. {{ .BoostInterval }}")
	flags.String(CandidateOutput, "data/mlfq_results.csv", "candidate record set written by the simulator")
	flags.String(BaselineOutput, "data/rr_results.csv", "baseline record set written by the simulator")
	flags.String(ParametersFile, "", "file receiving the configuration of each trial")
	flags.String(ParametersFormat, "", "format of the parameters file (yaml, json; from extension if empty)")
	flags.Duration(Timeout, 10*time.Minute, "maximum duration of each simulator command")
	flags.String(DiagnosticsDir, "", "directory receiving the compressed output of each trial")
}

// Bind makes the flags available through viper, with environment variables and the config
// file as fallbacks.
func Bind(flags *flag.FlagSet) error {
	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	lo.Must0(viper.BindPFlags(flags))

	if file := viper.GetString(Config); file != "" {
		viper.SetConfigFile(file)
		viper.SetConfigType("yaml")
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file '%s': %w", file, err)
		}
	}
	return nil
}
