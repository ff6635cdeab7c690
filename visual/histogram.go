package visual

import (
	"math"
	"slices"

	"github.com/gammadia/schedeval/records"
	"github.com/samber/lo"
)

// DefaultBins is the number of bins of a wait time distribution.
const DefaultBins = 50

// ClipPercentile is the percentile of the baseline wait times used as the upper bound of the
// distribution, so that a few extreme waits do not flatten the chart.
const ClipPercentile = 95

type Bin struct {
	Low       float64 `yaml:"low"`
	High      float64 `yaml:"high"`
	Candidate int     `yaml:"candidate"`
	Baseline  int     `yaml:"baseline"`
}

// Histogram is the wait time distribution of both variants over shared bins.
type Histogram struct {
	Bins []Bin `yaml:"bins"`
	// Number of tasks above the last bin, per variant
	ClippedCandidate int `yaml:"clipped-candidate"`
	ClippedBaseline  int `yaml:"clipped-baseline"`
}

// WaitDistribution bins the wait times of both record sets between zero and the baseline's
// 95th percentile. A non-positive bins uses DefaultBins.
func WaitDistribution(candidate, baseline records.RecordSet, bins int) Histogram {
	if bins <= 0 {
		bins = DefaultBins
	}

	candidateWaits := waits(candidate)
	baselineWaits := waits(baseline)

	high := Percentile(baselineWaits, ClipPercentile)
	if math.IsNaN(high) || high <= 0 {
		high = lo.Max(append(candidateWaits, baselineWaits...))
	}
	if high <= 0 {
		high = 1
	}

	width := high / float64(bins)
	h := Histogram{
		Bins: lo.Times(bins, func(i int) Bin {
			return Bin{Low: float64(i) * width, High: float64(i+1) * width}
		}),
	}
	h.Bins[bins-1].High = high

	for _, wait := range candidateWaits {
		if i, ok := binOf(wait, high, bins); ok {
			h.Bins[i].Candidate++
		} else {
			h.ClippedCandidate++
		}
	}
	for _, wait := range baselineWaits {
		if i, ok := binOf(wait, high, bins); ok {
			h.Bins[i].Baseline++
		} else {
			h.ClippedBaseline++
		}
	}

	return h
}

// binOf returns the bin of a value in [0, high]. The last bin is closed.
func binOf(value, high float64, bins int) (int, bool) {
	if value > high {
		return 0, false
	}
	return min(int(value/high*float64(bins)), bins-1), true
}

func waits(set records.RecordSet) []float64 {
	return lo.Map(set.Records, func(r records.TaskRecord, _ int) float64 {
		return r.WaitTime
	})
}

// Percentile returns the p-th percentile of values, interpolating linearly between the two
// closest ranks like the pandas and numpy default. It is NaN for no values.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	rank := p / 100 * float64(len(sorted)-1)
	low := int(math.Floor(rank))
	high := int(math.Ceil(rank))
	return sorted[low] + (sorted[high]-sorted[low])*(rank-float64(low))
}
