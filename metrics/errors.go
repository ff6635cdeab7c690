package metrics

import "fmt"

// UndefinedMetricError is returned when a derived metric is requested as a number while its
// preconditions are unmet, such as the average turnaround of a run without completed tasks.
type UndefinedMetricError struct {
	Metric string
	Kind   Kind
}

func (e *UndefinedMetricError) Error() string {
	return fmt.Sprintf("metric '%s' is %s", e.Metric, e.Kind)
}
