// Package csvio reads and writes the program catalog and writes the analytics
// event log as CSV, one column per field with a header row.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/techrealm/programdex/internal/domain/analytics"
	"github.com/techrealm/programdex/internal/domain/program"
)

// EventColumns is the header of an analytics export.
var EventColumns = []string{"event_id", "project_id", "event_type", "user_id", "timestamp"}

// ErrNoHeader is returned when the input has no header row.
var ErrNoHeader = errors.New("csv: missing header row")

// ReadPrograms parses programs from r. Columns are matched by header name,
// case-insensitively; unknown columns are ignored and missing ones stay empty.
// Blank lines are skipped.
func ReadPrograms(r io.Reader) ([]program.Program, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make([]string, len(header))
	known := 0
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF")))
		if program.IsColumn(name) {
			cols[i] = name
			known++
		}
	}
	if known == 0 {
		return nil, ErrNoHeader
	}

	var out []program.Program
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		fields := make(map[string]string, len(rec))
		for i, v := range rec {
			if i < len(cols) && cols[i] != "" {
				fields[cols[i]] = strings.TrimSpace(v)
			}
		}
		out = append(out, program.FromFields(fields))
	}
	return out, nil
}

// WritePrograms writes a header row followed by one row per program.
func WritePrograms(w io.Writer, programs []program.Program) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(program.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := make([]string, len(program.Columns))
	for i := range programs {
		for j, col := range program.Columns {
			row[j], _ = programs[i].Field(col)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

// WriteEvents writes analytics events with RFC 3339 UTC timestamps.
func WriteEvents(w io.Writer, events []analytics.Event) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(EventColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, e := range events {
		row := []string{e.ID, e.ProjectID, e.EventType, e.UserID, e.Timestamp.UTC().Format(time.RFC3339)}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}
