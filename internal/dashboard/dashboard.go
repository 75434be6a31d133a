// Package dashboard reads the mirrored event log for display.
package dashboard

import (
	"errors"
	"fmt"
	"os"

	"github.com/kozaktomas/facegate/internal/constants"
	"github.com/kozaktomas/facegate/internal/events"
)

// Row is one log record renamed for display. Name holds the JSON-decoded
// details when they are JSON, otherwise the raw string.
type Row struct {
	Timestamp string `json:"Timestamp"`
	Label     string `json:"Label"`
	Name      any    `json:"Name"`
}

// Reader tails the mirror file. It never writes.
type Reader struct {
	path string
}

// NewReader creates a reader for the mirror at path.
func NewReader(path string) *Reader {
	return &Reader{path: path}
}

// Path returns the mirror path.
func (r *Reader) Path() string {
	return r.path
}

// Tail returns the last n rows. A missing mirror yields no rows.
func (r *Reader) Tail(n int) ([]Row, error) {
	records, err := events.ReadAll(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return []Row{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading mirror: %w", err)
	}

	if n > 0 && len(records) > n {
		records = records[len(records)-n:]
	}

	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		rows = append(rows, Row{
			Timestamp: rec.Timestamp,
			Label:     rec.EventType,
			Name:      events.DecodeDetails(rec.Details),
		})
	}
	return rows, nil
}

// Stats summarizes a set of rows.
type Stats struct {
	Authorized   int  `json:"authorized"`
	Unauthorized int  `json:"unauthorized"`
	NoFace       int  `json:"no_face"`
	Panic        int  `json:"panic"`
	Total        int  `json:"total"`
	Last         *Row `json:"last,omitempty"`
}

// Summarize counts rows by alert state and panic events.
func Summarize(rows []Row) Stats {
	s := Stats{Total: len(rows)}
	for _, row := range rows {
		if row.Label == constants.EventTypePanic {
			s.Panic++
			continue
		}
		details, ok := row.Name.(map[string]any)
		if !ok {
			continue
		}
		switch details["state"] {
		case "authorized":
			s.Authorized++
		case "unauthorized":
			s.Unauthorized++
		case "no_face":
			s.NoFace++
		}
	}
	if len(rows) > 0 {
		last := rows[len(rows)-1]
		s.Last = &last
	}
	return s
}
