package visual

import (
	"cmp"
	"slices"

	"github.com/gammadia/schedeval/records"
	"github.com/samber/lo"
)

// TimelineBar is one task of a Gantt chart, from its start to its completion.
type TimelineBar struct {
	TaskID   string  `yaml:"task"`
	Start    float64 `yaml:"start"`
	End      float64 `yaml:"end"`
	// Deadline is the marker position, nil when the task has no deadline
	Deadline *float64 `yaml:"deadline,omitempty"`
}

func (b TimelineBar) Duration() float64 {
	return b.End - b.Start
}

// Late reports whether the task completed after its deadline. A task without deadline is
// never late.
func (b TimelineBar) Late() bool {
	return b.Deadline != nil && b.End > *b.Deadline
}

// Timeline returns the completed tasks of a record set sorted by start time. Tasks starting
// at the same time keep their file order.
func Timeline(set records.RecordSet) []TimelineBar {
	bars := lo.FilterMap(set.Records, func(r records.TaskRecord, _ int) (TimelineBar, bool) {
		if !r.Completed() || r.StartTime == nil || r.CompletionTime == nil {
			return TimelineBar{}, false
		}
		return TimelineBar{
			TaskID:   r.TaskID,
			Start:    *r.StartTime,
			End:      *r.CompletionTime,
			Deadline: r.Deadline,
		}, true
	})

	slices.SortStableFunc(bars, func(a, b TimelineBar) int {
		return cmp.Compare(a.Start, b.Start)
	})
	return bars
}
