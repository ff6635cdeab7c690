package records

// Status is the terminal (or last observed) state of a task as reported by the simulator.
// Labels other than the two known ones are kept verbatim.
type Status string

const (
	StatusCompleted      Status = "COMPLETED"
	StatusMissedDeadline Status = "MISSED_DEADLINE"
)

// Column names of the record files written by the simulator.
const (
	ColumnTaskID         = "TaskID"
	ColumnArrivalTime    = "ArrivalTime"
	ColumnStartTime      = "StartTime"
	ColumnCompletionTime = "CompletionTime"
	ColumnDeadline       = "Deadline"
	ColumnCPURequired    = "CPURequired"
	ColumnWaitTime       = "WaitTime"
	ColumnStatus         = "Status"
)

// RequiredColumns must all be present for a record set to be analyzable.
var RequiredColumns = []string{
	ColumnStatus,
	ColumnWaitTime,
	ColumnCPURequired,
	ColumnCompletionTime,
	ColumnArrivalTime,
}

type TaskRecord struct {
	TaskID      string
	ArrivalTime float64
	// StartTime and CompletionTime are nil when the task never ran.
	StartTime      *float64
	CompletionTime *float64
	// Deadline is nil when the simulator wrote none
	Deadline    *float64
	CPURequired float64
	WaitTime    float64
	Status      Status
}

// Completed reports whether the task reached the COMPLETED status.
func (r TaskRecord) Completed() bool {
	return r.Status == StatusCompleted
}

// Turnaround returns completion minus arrival, and false when the task has no completion.
func (r TaskRecord) Turnaround() (float64, bool) {
	if r.CompletionTime == nil {
		return 0, false
	}
	return *r.CompletionTime - r.ArrivalTime, true
}

// RecordSet holds the records of one scheduler variant for one run, in file order.
type RecordSet struct {
	Source  string
	Records []TaskRecord
}

func (s RecordSet) Len() int {
	return len(s.Records)
}

// Pair is the two record sets produced by a single simulator run.
type Pair struct {
	Candidate RecordSet
	Baseline  RecordSet
}
