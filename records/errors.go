package records

import (
	"fmt"
	"strings"
)

// SourceUnavailableError is returned when a record set cannot be located or parsed at all.
type SourceUnavailableError struct {
	Source string
	Err    error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("record set '%s' is unavailable: %s", e.Source, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error {
	return e.Err
}

// SchemaError is returned when required columns are missing, or when a row breaks
// one of the record invariants.
type SchemaError struct {
	Source string
	// Missing lists the absent required columns, by name
	Missing []string
	// Row is the 1-based data row of a row-level violation
	Row    int
	Reason string
}

func (e *SchemaError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("record set '%s' is missing required columns: %s", e.Source, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("record set '%s' row %d: %s", e.Source, e.Row, e.Reason)
}

// EmptyResultError is returned when a record set has a header but no rows.
type EmptyResultError struct {
	Source string
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("record set '%s' contains no tasks (the simulator produced no results, it probably stalled or crashed)", e.Source)
}
