package handlers

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/kozaktomas/facegate/internal/constants"
	"github.com/kozaktomas/facegate/internal/dashboard"
)

// rowsCache keeps the parsed tail for a short time so polling clients do not
// re-read the mirror on every request.
type rowsCache struct {
	mu        sync.RWMutex
	rows      []dashboard.Row
	expiresAt time.Time
}

func (c *rowsCache) get() ([]dashboard.Row, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.rows == nil || time.Now().After(c.expiresAt) {
		return nil, false
	}
	return c.rows, true
}

func (c *rowsCache) set(rows []dashboard.Row, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows = rows
	c.expiresAt = time.Now().Add(ttl)
}

// DashboardHandler serves the event log tail
type DashboardHandler struct {
	reader *dashboard.Reader
	cache  rowsCache
	ttl    time.Duration
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(reader *dashboard.Reader) *DashboardHandler {
	return &DashboardHandler{
		reader: reader,
		ttl:    constants.DashboardCacheTTL,
	}
}

func (h *DashboardHandler) rows() []dashboard.Row {
	if rows, ok := h.cache.get(); ok {
		return rows
	}

	rows, err := h.reader.Tail(constants.DashboardTailSize)
	if err != nil {
		// a half-copied or locked mirror shows as empty until the next poll
		log.Printf("dashboard: could not read log %s: %s", sanitizeForLog(h.reader.Path()), sanitizeForLog(err.Error()))
		return []dashboard.Row{}
	}
	if h.ttl > 0 {
		h.cache.set(rows, h.ttl)
	}
	return rows
}

// Data returns the last rows of the event log
func (h *DashboardHandler) Data(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.rows())
}

// Stats returns event counts over the same rows as Data
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, dashboard.Summarize(h.rows()))
}
