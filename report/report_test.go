package report

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/gammadia/schedeval/metrics"
	"github.com/gammadia/schedeval/namegen"
	"github.com/gammadia/schedeval/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func init() {
	color.NoColor = true
}

func analysis() Analysis {
	return Analysis{
		CandidateName: DefaultCandidateName,
		BaselineName:  DefaultBaselineName,
		Comparison: metrics.Comparison{
			Candidate: metrics.DerivedMetrics{
				Total: 4, Completed: 3, Missed: 1, Starved: 1,
				SLACompliance: 75, AvgWait: 7.5, AvgTurnaround: metrics.Finite(32.0 / 3),
			},
			Baseline: metrics.DerivedMetrics{
				Total: 4, Completed: 2, Missed: 2, Starved: 0,
				SLACompliance: 50, AvgWait: 10, AvgTurnaround: metrics.Finite(16),
			},
			StarvationReduction:   metrics.Unbounded(),
			SLADelta:              25,
			WaitImprovement:       metrics.Finite(25),
			TurnaroundImprovement: metrics.Finite(33.333333),
		},
	}
}

func TestText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Text(&buf, analysis()))
	out := buf.String()

	assert.Contains(t, out, "MLFQ Scheduler Results:")
	assert.Contains(t, out, "Round Robin Scheduler Results:")
	assert.Contains(t, out, "Performance Comparison (MLFQ vs Round Robin)")
	assert.Regexp(t, `(?m)^  Total tasks processed:\s+4$`, out)
	assert.Regexp(t, `(?m)^  SLA compliance:\s+75\.00%$`, out)
	assert.Regexp(t, `(?m)^  Average turnaround time:\s+10\.67$`, out)
	assert.Regexp(t, `(?m)^Starvation reduction:\s+unbounded \(baseline had none\)$`, out)
	assert.Regexp(t, `(?m)^SLA compliance improvement:\s+25\.00% points$`, out)
	assert.Regexp(t, `(?m)^Turnaround time improvement:\s+33\.33%$`, out)

	// Values of a block are aligned
	lines := strings.Split(out, "\n")
	assert.Equal(t, strings.Index(lines[3], "4"), strings.Index(lines[9], "10.67"))
}

func TestTextSentinels(t *testing.T) {
	a := analysis()
	a.Comparison.Candidate.AvgTurnaround = metrics.Undefined()
	a.Comparison.TurnaroundImprovement = metrics.Undefined()
	a.Comparison.WaitImprovement = metrics.Unbounded()

	var buf bytes.Buffer
	require.NoError(t, Text(&buf, a))
	out := buf.String()

	assert.Regexp(t, `(?m)^  Average turnaround time:\s+undefined \(no completed tasks\)$`, out)
	assert.Regexp(t, `(?m)^Turnaround time improvement:\s+undefined \(no completed tasks\)$`, out)
	assert.Regexp(t, `(?m)^Wait time improvement:\s+unbounded \(baseline had none\)$`, out)
	for _, bare := range []string{"Inf", "inf", "NaN", "nan"} {
		assert.NotContains(t, out, bare)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestTextWriteError(t *testing.T) {
	assert.EqualError(t, Text(failingWriter{}, analysis()), "disk full")
}

func TestYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, YAML(&buf, analysis()))

	assert.Contains(t, buf.String(), "starvation-reduction: unbounded\n")
	assert.Contains(t, buf.String(), "candidate-name: MLFQ\n")

	var decoded Analysis
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, metrics.KindUnbounded, decoded.Comparison.StarvationReduction.Kind())
	assert.Equal(t, 25.0, decoded.Comparison.SLADelta)
	assert.Equal(t, 3, decoded.Comparison.Candidate.Completed)
	assert.Equal(t, "16.00", decoded.Comparison.Baseline.AvgTurnaround.String())
}

func trial(index int, boost int) search.Trial {
	return search.Trial{
		ID:            namegen.ID(fmt.Sprintf("%03d-trial", index+1)),
		Index:         index,
		Configuration: search.Configuration{BoostInterval: boost, Quantums: []int{10, 20, 40}},
	}
}

func TestSearchNoImprovement(t *testing.T) {
	summary := search.Summary{
		Trials: []search.Result{
			{Trial: trial(0, 30), State: search.StateExecuting, Score: math.Inf(-1), Err: &search.ExecutionError{Stage: "run", ExitCode: 1}},
		},
		Best: search.NewBest(),
	}

	var buf bytes.Buffer
	require.NoError(t, Search(&buf, summary))
	out := buf.String()

	assert.Contains(t, out, "Trials: 0 scored, 0 skipped, 1 failed\n")
	assert.True(t, strings.HasSuffix(out, NoImprovementText+"\n"))
	assert.Regexp(t, `(?m)^001-trial\s+boost=30 quantums=\[10 20 40\]\s+failed\s+-$`, out)
}

func TestSearchBest(t *testing.T) {
	comparison := metrics.Comparison{StarvationReduction: metrics.Finite(40), SLADelta: 15}
	scored := search.Result{Trial: trial(1, 50), State: search.StateScoring, Comparison: &comparison, Score: 55}

	summary := search.Summary{
		Trials: []search.Result{
			{Trial: trial(0, 30), State: search.StateConfiguring, Score: math.Inf(-1), Err: &search.ConfigurationError{}},
			scored,
			{Trial: trial(2, 70), State: search.StateScoring, Score: math.Inf(1)},
		},
		Best: search.NewBest().Observe(scored),
	}

	var buf bytes.Buffer
	require.NoError(t, Search(&buf, summary))
	out := buf.String()

	lines := strings.Split(out, "\n")
	assert.Regexp(t, `^TRIAL\s+CONFIGURATION\s+OUTCOME\s+SCORE$`, lines[0])
	assert.Equal(t, strings.Index(lines[0], "OUTCOME"), strings.Index(lines[1], "skipped"))
	assert.Equal(t, strings.Index(lines[0], "SCORE"), strings.Index(lines[2], "55.00"))
	assert.Regexp(t, `unbounded$`, lines[3])

	assert.Contains(t, out, "Trials: 2 scored, 1 skipped, 0 failed\n")
	assert.Contains(t, out, "Best configuration: boost=50 quantums=[10 20 40]\n")
	assert.Regexp(t, `(?m)^  Trial:\s+002-trial$`, out)
	assert.Regexp(t, `(?m)^  Score:\s+55\.00$`, out)
	assert.Contains(t, out, "  Starvation reduction: 40.00%\n")
	assert.Contains(t, out, "  SLA compliance delta: 15.00% points\n")
	assert.NotContains(t, out, NoImprovementText)
}

func TestSearchColoredAlignment(t *testing.T) {
	color.NoColor = false
	t.Cleanup(func() { color.NoColor = true })

	summary := search.Summary{
		Trials: []search.Result{
			{Trial: trial(0, 0), State: search.StateConfiguring, Score: math.Inf(-1), Err: &search.ConfigurationError{}},
			{Trial: trial(1, 50), State: search.StateScoring, Score: 12},
		},
		Best: search.NewBest(),
	}

	var buf bytes.Buffer
	require.NoError(t, Search(&buf, summary))
	out := buf.String()

	assert.Contains(t, out, color.HiYellowString("skipped")+"  -\n")
	assert.Contains(t, out, "scored   12.00\n")
}

func TestSearchInterrupted(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Search(&buf, search.Summary{Best: search.NewBest(), Err: errors.New("context canceled")}))
	assert.Contains(t, buf.String(), "Search interrupted: context canceled\n")
}
