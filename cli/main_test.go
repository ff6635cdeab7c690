package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/gammadia/schedeval/records"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "TaskID,ArrivalTime,StartTime,CompletionTime,Deadline,CPURequired,WaitTime,Status\n"

// fakeSimulator starves no task of the candidate when run with a boost interval of 50.
const fakeSimulator = `#!/bin/sh
header='TaskID,ArrivalTime,StartTime,CompletionTime,Deadline,CPURequired,WaitTime,Status'
wait=5
if [ "$1" = "50" ]; then wait=0; fi
printf '%s\n1,0,0,10,20,1,%s,COMPLETED\n2,0,10,40,50,1,%s,COMPLETED\n' "$header" "$wait" "$wait" > out/mlfq.csv
printf '%s\n1,0,0,10,20,1,5,COMPLETED\n2,0,10,40,50,1,10,COMPLETED\n' "$header" > out/rr.csv
`

func init() {
	color.NoColor = true
}

func resetFlags(flags *flag.FlagSet) {
	flags.VisitAll(func(f *flag.Flag) {
		if v, ok := f.Value.(flag.SliceValue); ok {
			lo.Must0(v.Replace(nil))
		} else {
			lo.Must0(f.Value.Set(f.DefValue))
		}
		f.Changed = false
	})
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Cleanup(viper.Reset)

	resetFlags(schedevalCmd.PersistentFlags())
	lo.ForEach(schedevalCmd.Commands(), func(c *cobra.Command, _ int) {
		resetFlags(c.Flags())
	})

	var out bytes.Buffer
	schedevalCmd.SetOut(&out)
	schedevalCmd.SetErr(io.Discard)
	schedevalCmd.SetArgs(append(args, "--log-level", "ERROR"))
	err := schedevalCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	file := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(file, []byte(content), 0755))
	return file
}

func TestAnalyze(t *testing.T) {
	dir := t.TempDir()
	candidate := writeFile(t, dir, "mlfq.csv", header+"1,0,0,10,20,1,0,COMPLETED\n2,0,10,40,30,1,10,MISSED_DEADLINE\n")
	baseline := writeFile(t, dir, "rr.csv", header+"1,0,0,10,20,1,5,COMPLETED\n2,0,10,60,30,1,50,MISSED_DEADLINE\n")
	charts := filepath.Join(dir, "charts.yaml")

	out, err := execute(t, "analyze", candidate, baseline, "--charts", charts, "--candidate-name", "CFS")
	require.NoError(t, err)

	assert.Contains(t, out, "CFS Scheduler Results:")
	assert.Contains(t, out, "Round Robin Scheduler Results:")
	assert.Regexp(t, `(?m)^Starvation reduction:\s+50\.00%$`, out)
	assert.FileExists(t, charts)
}

func TestAnalyzeYAML(t *testing.T) {
	dir := t.TempDir()
	candidate := writeFile(t, dir, "mlfq.csv", header+"1,0,0,10,20,1,0,COMPLETED\n")
	baseline := writeFile(t, dir, "rr.csv", header+"1,0,0,10,20,1,0,COMPLETED\n")

	out, err := execute(t, "analyze", candidate, baseline, "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "starvation-reduction: unbounded\n")
}

func TestAnalyzeSchemaError(t *testing.T) {
	dir := t.TempDir()
	candidate := writeFile(t, dir, "mlfq.csv", "TaskID,Status\n1,COMPLETED\n")
	baseline := writeFile(t, dir, "rr.csv", header+"1,0,0,10,20,1,0,COMPLETED\n")

	out, err := execute(t, "analyze", candidate, baseline)

	var schemaErr *records.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Contains(t, schemaErr.Missing, records.ColumnWaitTime)
	assert.ErrorContains(t, err, "candidate: ")
	assert.Empty(t, out)
}

func TestAnalyzeInvalidFlags(t *testing.T) {
	_, err := execute(t, "analyze", "a.csv", "b.csv", "-o", "html")
	assert.EqualError(t, err, "unknown output format 'html'")

	_, err = execute(t, "analyze", "a.csv", "b.csv", "--starvation-factor", "0")
	assert.EqualError(t, err, "starvation factor must be positive, got 0")
}

func TestGrid(t *testing.T) {
	out, err := execute(t, "grid")
	require.NoError(t, err)
	assert.Contains(t, out, "  1  boost=30 quantums=[5 10 20]\n")
	assert.Contains(t, out, "36 configurations\n")

	grid := writeFile(t, t.TempDir(), "grid.yaml", "boost-intervals: [0, 10]\nquantum-levels: [[5]]\n")
	out, err = execute(t, "grid", "--grid", grid)
	require.NoError(t, err)
	assert.Contains(t, out, "  1  boost=0 quantums=[5]  (skipped: boost interval must be greater than 0, got 0)\n")
	assert.Contains(t, out, "  2  boost=10 quantums=[5]\n")
}

func TestTune(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sim.sh", fakeSimulator)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "out"), 0755))
	grid := writeFile(t, dir, "grid.yaml", "boost-intervals: [30, 50, 70]\nquantum-levels: [[5]]\n")
	metrics := filepath.Join(dir, "metrics.prom")

	out, err := execute(t, "tune",
		"--grid", grid,
		"--simulator-dir", dir,
		"--run-command", "/bin/sh",
		"--run-command", "sim.sh",
		"--run-command", "{{ .BoostInterval }}",
		"--candidate-output", "out/mlfq.csv",
		"--baseline-output", "out/rr.csv",
		"--metrics-file", metrics,
	)
	require.NoError(t, err)

	assert.Contains(t, out, "Trials: 3 scored, 0 skipped, 0 failed\n")
	assert.Contains(t, out, "Best configuration: boost=50 quantums=[5]\n")

	buf, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(buf), `schedeval_search_trials_total{outcome="scored"} 3`)
	assert.Contains(t, string(buf), "schedeval_search_best_score 100")
}

func TestTuneNoImprovement(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "out"), 0755))
	grid := writeFile(t, dir, "grid.yaml", "boost-intervals: [30]\nquantum-levels: [[5]]\n")

	out, err := execute(t, "tune",
		"--grid", grid,
		"--simulator-dir", dir,
		"--run-command", "/bin/sh",
		"--run-command", "-c",
		"--run-command", "exit 2",
		"--run-command", "{{ .BoostInterval }}",
		"--candidate-output", "out/mlfq.csv",
		"--baseline-output", "out/rr.csv",
	)
	require.NoError(t, err)

	assert.Contains(t, out, "Trials: 0 scored, 0 skipped, 1 failed\n")
	assert.Contains(t, out, "no improving configuration found\n")
}

func TestTuneDryRun(t *testing.T) {
	out, err := execute(t, "tune", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "36 configurations\n")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "schedeval version dev (n/a)\n", out)
}
