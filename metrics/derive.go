package metrics

import (
	"github.com/gammadia/schedeval/records"
	"github.com/samber/lo"
)

// StarvationFactor is the policy threshold: a task starved when it waited more than
// StarvationFactor times its required CPU time.
const StarvationFactor = 3

type Options struct {
	// Multiple of the required CPU time above which a task is starved (StarvationFactor if zero)
	StarvationFactor float64
}

type TaskTurnaround struct {
	TaskID     string
	Status     records.Status
	Turnaround float64
}

// DerivedMetrics are the statistics of one record set. Values are computed once by Derive.
type DerivedMetrics struct {
	Source string `yaml:"source"`

	Total     int `yaml:"total"`
	Completed int `yaml:"completed"`
	Missed    int `yaml:"missed-deadlines"`
	Starved   int `yaml:"starved"`

	// Percentage of COMPLETED tasks, in [0, 100]
	SLACompliance float64 `yaml:"sla-compliance"`
	AvgWait       float64 `yaml:"average-wait"`
	// Undefined when no task completed
	AvgTurnaround Value `yaml:"average-turnaround"`

	StarvationFactor float64 `yaml:"starvation-factor"`

	turnarounds []TaskTurnaround
}

// Turnarounds returns the turnaround of every task with a completion time, whatever its status.
func (m DerivedMetrics) Turnarounds() []TaskTurnaround {
	return append([]TaskTurnaround(nil), m.turnarounds...)
}

// Derive computes the metrics of a validated, non-empty record set.
func Derive(set records.RecordSet, opts Options) DerivedMetrics {
	if set.Len() == 0 {
		panic("metrics: cannot derive metrics from an empty record set")
	}

	factor := lo.Ternary(opts.StarvationFactor > 0, opts.StarvationFactor, StarvationFactor)

	m := DerivedMetrics{
		Source:           set.Source,
		Total:            set.Len(),
		StarvationFactor: factor,
	}

	m.Completed = lo.CountBy(set.Records, func(r records.TaskRecord) bool {
		return r.Status == records.StatusCompleted
	})
	m.Missed = lo.CountBy(set.Records, func(r records.TaskRecord) bool {
		return r.Status == records.StatusMissedDeadline
	})
	m.Starved = lo.CountBy(set.Records, func(r records.TaskRecord) bool {
		return r.WaitTime > r.CPURequired*factor
	})

	m.SLACompliance = float64(m.Completed) / float64(m.Total) * 100
	m.AvgWait = lo.SumBy(set.Records, func(r records.TaskRecord) float64 {
		return r.WaitTime
	}) / float64(m.Total)

	m.turnarounds = lo.FilterMap(set.Records, func(r records.TaskRecord, _ int) (TaskTurnaround, bool) {
		turnaround, ok := r.Turnaround()
		return TaskTurnaround{TaskID: r.TaskID, Status: r.Status, Turnaround: turnaround}, ok
	})

	completed := lo.Filter(m.turnarounds, func(t TaskTurnaround, _ int) bool {
		return t.Status == records.StatusCompleted
	})
	if len(completed) == 0 {
		m.AvgTurnaround = Undefined()
	} else {
		m.AvgTurnaround = Finite(lo.SumBy(completed, func(t TaskTurnaround) float64 {
			return t.Turnaround
		}) / float64(len(completed)))
	}

	return m
}
