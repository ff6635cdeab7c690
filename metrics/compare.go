package metrics

import "github.com/gammadia/schedeval/records"

// Comparison holds the relative improvement of a candidate scheduler over a baseline.
// Positive figures mean the candidate is better.
type Comparison struct {
	Candidate DerivedMetrics `yaml:"candidate"`
	Baseline  DerivedMetrics `yaml:"baseline"`

	StarvationReduction Value `yaml:"starvation-reduction"`
	// Absolute difference of SLA compliance, in percentage points
	SLADelta              float64 `yaml:"sla-compliance-delta"`
	WaitImprovement       Value   `yaml:"wait-time-improvement"`
	TurnaroundImprovement Value   `yaml:"turnaround-time-improvement"`
}

func Compare(candidate, baseline DerivedMetrics) Comparison {
	return Comparison{
		Candidate: candidate,
		Baseline:  baseline,

		StarvationReduction:   improvement(Finite(float64(candidate.Starved)), Finite(float64(baseline.Starved))),
		SLADelta:              candidate.SLACompliance - baseline.SLACompliance,
		WaitImprovement:       improvement(Finite(candidate.AvgWait), Finite(baseline.AvgWait)),
		TurnaroundImprovement: improvement(candidate.AvgTurnaround, baseline.AvgTurnaround),
	}
}

// improvement is (1 - candidate/baseline) * 100, Unbounded when the baseline is zero.
func improvement(candidate, baseline Value) Value {
	c, cok := candidate.Float()
	b, bok := baseline.Float()
	if !cok || !bok {
		return Undefined()
	}
	if b == 0 {
		return Unbounded()
	}
	return Finite((1 - c/b) * 100)
}

// Analyze derives the metrics of both record sets of a run and compares them.
func Analyze(pair records.Pair, opts Options) Comparison {
	return Compare(Derive(pair.Candidate, opts), Derive(pair.Baseline, opts))
}
