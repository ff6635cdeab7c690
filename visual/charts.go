package visual

import (
	"fmt"
	"os"

	"github.com/gammadia/schedeval/metrics"
	"github.com/gammadia/schedeval/records"
	"gopkg.in/yaml.v3"
)

// Headline metric names
const (
	MetricSLACompliance = "SLA Compliance"
	MetricStarvedTasks  = "Starved Tasks"
	MetricAverageWait   = "Average Wait Time"
)

// MetricGroup is one group of a grouped bar chart: the same metric for both variants.
type MetricGroup struct {
	Metric    string  `yaml:"metric"`
	Candidate float64 `yaml:"candidate"`
	Baseline  float64 `yaml:"baseline"`
}

// Headline returns the three metrics shown side by side for both variants.
func Headline(candidate, baseline metrics.DerivedMetrics) []MetricGroup {
	return []MetricGroup{
		{Metric: MetricSLACompliance, Candidate: candidate.SLACompliance, Baseline: baseline.SLACompliance},
		{Metric: MetricStarvedTasks, Candidate: float64(candidate.Starved), Baseline: float64(baseline.Starved)},
		{Metric: MetricAverageWait, Candidate: candidate.AvgWait, Baseline: baseline.AvgWait},
	}
}

type Variant struct {
	Name     string        `yaml:"name"`
	Timeline []TimelineBar `yaml:"timeline"`
}

// Charts is the data of every chart of an analysis.
type Charts struct {
	Candidate        Variant       `yaml:"candidate"`
	Baseline         Variant       `yaml:"baseline"`
	Headline         []MetricGroup `yaml:"headline"`
	WaitDistribution Histogram     `yaml:"wait-distribution"`
}

type Names struct {
	Candidate string
	Baseline  string
}

func NewCharts(names Names, pair records.Pair, comparison metrics.Comparison, bins int) Charts {
	return Charts{
		Candidate:        Variant{Name: names.Candidate, Timeline: Timeline(pair.Candidate)},
		Baseline:         Variant{Name: names.Baseline, Timeline: Timeline(pair.Baseline)},
		Headline:         Headline(comparison.Candidate, comparison.Baseline),
		WaitDistribution: WaitDistribution(pair.Candidate, pair.Baseline, bins),
	}
}

func (c Charts) WriteFile(file string) error {
	buf, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.WriteFile(file, buf, 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}
