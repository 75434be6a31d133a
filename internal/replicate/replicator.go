// Package replicate mirrors the durable event log to a path read by the
// dashboard. The mirror is always replaced atomically, so readers never see a
// partially written file.
package replicate

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio"

	"github.com/kozaktomas/facegate/internal/constants"
	"github.com/kozaktomas/facegate/internal/metrics"
)

// Replicator periodically copies src to dst. It only reads src and never
// coordinates with the log writer beyond the atomic rename of dst.
type Replicator struct {
	src      string
	dst      string
	interval time.Duration
	metrics  *metrics.Metrics

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a replicator but does not start it. m may be nil.
func New(src, dst string, interval time.Duration, m *metrics.Metrics) *Replicator {
	if interval <= 0 {
		interval = constants.ReplicateInterval
	}
	return &Replicator{
		src:      src,
		dst:      dst,
		interval: interval,
		metrics:  m,
	}
}

// Sync copies the current log into the mirror through a temporary file in
// the mirror's directory followed by a rename.
func (r *Replicator) Sync() (err error) {
	defer func() { r.metrics.Replicated(err) }()

	in, err := os.Open(r.src)
	if err != nil {
		return fmt.Errorf("opening log: %w", err)
	}
	defer in.Close()

	dir := filepath.Dir(r.dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating mirror dir: %w", err)
	}

	t, err := renameio.TempFile(dir, r.dst)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer t.Cleanup()

	if _, err := io.Copy(t, in); err != nil {
		return fmt.Errorf("copying log: %w", err)
	}
	if err := t.Chmod(0o644); err != nil {
		return fmt.Errorf("setting mirror mode: %w", err)
	}
	if err := t.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replacing mirror: %w", err)
	}
	return nil
}

// Start runs Sync on every interval until ctx is cancelled or Stop is
// called. Failures are logged and retried on the next tick.
func (r *Replicator) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})

	go r.loop(ctx)

	slog.Info("replicate: started", "src", r.src, "dst", r.dst, "interval", r.interval)
}

// Stop ends the loop, waits for it and performs one final Sync. A failed
// final pass is only logged.
func (r *Replicator) Stop() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}

	if err := r.Sync(); err != nil {
		slog.Warn("replicate: final copy failed", "error", err)
		return
	}
	slog.Info("replicate: final copy done", "dst", r.dst)
}

func (r *Replicator) loop(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Sync(); err != nil {
				slog.Debug("replicate: copy failed, retrying next interval", "error", err)
			}
		}
	}
}
