// Package events owns the durable CSV event log and publishes authorization
// alerts.
package events

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kozaktomas/facegate/internal/constants"
)

// Header is the first row of every event log.
var Header = []string{"ts", "event_type", "details"}

// Record is one row of the event log. Records are never modified once
// appended.
type Record struct {
	Timestamp string
	EventType string
	Details   string
}

// Timestamp formats t as ISO-8601 with seconds precision in local time.
func Timestamp(t time.Time) string {
	return t.Local().Format(constants.TimestampLayout)
}

// Log is the append-only event log. It is the only writer of its file.
type Log struct {
	path string
	mu   sync.Mutex
}

// OpenLog prepares the log at path, writing the header if the file does not
// exist yet.
func OpenLog(path string) (*Log, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating log dir: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644) //nolint:gosec // path is from config
	switch {
	case errors.Is(err, os.ErrExist):
		return &Log{path: path}, nil
	case err != nil:
		return nil, fmt.Errorf("creating event log: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		return nil, fmt.Errorf("writing log header: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("writing log header: %w", err)
	}
	return &Log{path: path}, nil
}

// Path returns the log file path.
func (l *Log) Path() string {
	return l.path
}

// Append writes r as a single CSV row. Concurrent calls are serialized.
func (l *Log) Append(r Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644) //nolint:gosec // path is from config
	if err != nil {
		return fmt.Errorf("opening event log: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write([]string{r.Timestamp, r.EventType, r.Details}); err != nil {
		f.Close()
		return fmt.Errorf("writing record: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("writing record: %w", err)
	}
	return f.Close()
}

// ReadAll reads every record (without the header) from a log file in the
// event log format.
func ReadAll(path string) ([]Record, error) {
	f, err := os.Open(path) //nolint:gosec // path is from config
	if err != nil {
		return nil, fmt.Errorf("opening event log: %w", err)
	}
	defer f.Close()
	return ReadRecords(f)
}

// ReadRecords parses CSV rows from r, skipping the header row.
func ReadRecords(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var records []Record
	first := true
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing event log: %w", err)
		}
		if first {
			first = false
			if len(row) > 0 && row[0] == Header[0] {
				continue
			}
		}
		rec := Record{}
		if len(row) > 0 {
			rec.Timestamp = row[0]
		}
		if len(row) > 1 {
			rec.EventType = row[1]
		}
		if len(row) > 2 {
			rec.Details = row[2]
		}
		records = append(records, rec)
	}
	return records, nil
}
