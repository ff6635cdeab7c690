package records

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Load reads and validates the record set stored in the CSV file at path.
func Load(path string) (RecordSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return RecordSet{}, &SourceUnavailableError{Source: path, Err: err}
	}
	defer f.Close()

	return Read(path, f)
}

// LoadPair loads the candidate then the baseline record set. The first failure is returned.
func LoadPair(candidate, baseline string) (Pair, error) {
	var pair Pair
	var err error

	if pair.Candidate, err = Load(candidate); err != nil {
		return Pair{}, fmt.Errorf("candidate: %w", err)
	}
	if pair.Baseline, err = Load(baseline); err != nil {
		return Pair{}, fmt.Errorf("baseline: %w", err)
	}
	return pair, nil
}

// Read parses a header-driven CSV record set from r. Columns are located by name, so
// their order does not matter and unknown columns are ignored.
func Read(source string, r io.Reader) (RecordSet, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return RecordSet{}, &EmptyResultError{Source: source}
	} else if err != nil {
		return RecordSet{}, &SourceUnavailableError{Source: source, Err: fmt.Errorf("read header: %w", err)}
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		columns[strings.TrimSpace(name)] = i
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return RecordSet{}, &SourceUnavailableError{Source: source, Err: fmt.Errorf("read record: %w", err)}
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return RecordSet{}, &EmptyResultError{Source: source}
	}

	if missing := lo.Filter(RequiredColumns, func(name string, _ int) bool {
		_, ok := columns[name]
		return !ok
	}); len(missing) > 0 {
		return RecordSet{}, &SchemaError{Source: source, Missing: missing}
	}

	p := rowParser{source: source, columns: columns}
	set := RecordSet{Source: source, Records: make([]TaskRecord, 0, len(rows))}
	seen := make(map[string]int, len(rows))

	for i, row := range rows {
		record, err := p.parse(i+1, row)
		if err != nil {
			return RecordSet{}, err
		}

		if first, ok := seen[record.TaskID]; ok {
			return RecordSet{}, &SchemaError{Source: source, Row: i + 1, Reason: fmt.Sprintf("duplicate task id '%s' (first seen on row %d)", record.TaskID, first)}
		}
		seen[record.TaskID] = i + 1

		set.Records = append(set.Records, record)
	}

	return set, nil
}

type rowParser struct {
	source  string
	columns map[string]int
}

func (p rowParser) cell(row []string, column string) (string, bool) {
	i, ok := p.columns[column]
	if !ok || i >= len(row) {
		return "", false
	}
	value := strings.TrimSpace(row[i])
	return value, value != ""
}

func (p rowParser) number(n int, row []string, column string) (*float64, error) {
	value, ok := p.cell(row, column)
	if !ok {
		return nil, nil
	}

	f, err := strconv.ParseFloat(value, 64)
	if err == nil && (math.IsNaN(f) || math.IsInf(f, 0)) {
		err = fmt.Errorf("not a finite number")
	}
	if err != nil {
		return nil, &SourceUnavailableError{Source: p.source, Err: fmt.Errorf("row %d column %s: invalid value '%s': %w", n, column, value, err)}
	}
	return &f, nil
}

func (p rowParser) required(n int, row []string, column string) (float64, error) {
	f, err := p.number(n, row, column)
	if err != nil {
		return 0, err
	}
	if f == nil {
		return 0, &SchemaError{Source: p.source, Row: n, Reason: fmt.Sprintf("required field %s is empty", column)}
	}
	return *f, nil
}

func (p rowParser) parse(n int, row []string) (record TaskRecord, err error) {
	record.TaskID, _ = p.cell(row, ColumnTaskID)
	if record.TaskID == "" {
		record.TaskID = strconv.Itoa(n)
	}

	status, ok := p.cell(row, ColumnStatus)
	if !ok {
		return record, &SchemaError{Source: p.source, Row: n, Reason: fmt.Sprintf("required field %s is empty", ColumnStatus)}
	}
	record.Status = Status(status)

	if record.ArrivalTime, err = p.required(n, row, ColumnArrivalTime); err != nil {
		return
	}
	if record.CPURequired, err = p.required(n, row, ColumnCPURequired); err != nil {
		return
	}
	if record.WaitTime, err = p.required(n, row, ColumnWaitTime); err != nil {
		return
	}
	if record.StartTime, err = p.number(n, row, ColumnStartTime); err != nil {
		return
	}
	if record.CompletionTime, err = p.number(n, row, ColumnCompletionTime); err != nil {
		return
	}

	if record.Deadline, err = p.number(n, row, ColumnDeadline); err != nil {
		return
	}

	if record.WaitTime < 0 {
		return record, &SchemaError{Source: p.source, Row: n, Reason: fmt.Sprintf("task '%s' has a negative wait time", record.TaskID)}
	}
	if record.CompletionTime != nil && *record.CompletionTime < record.ArrivalTime {
		return record, &SchemaError{Source: p.source, Row: n, Reason: fmt.Sprintf("task '%s' completes before it arrives", record.TaskID)}
	}

	return record, nil
}
