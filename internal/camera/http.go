package camera

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/kozaktomas/facegate/internal/constants"
)

// HTTPSource polls a snapshot URL in the background and keeps the latest
// decoded frame in a Slot.
type HTTPSource struct {
	url     string
	maxSize int
	client  *http.Client
	slot    *Slot
	backoff time.Duration

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// StartHTTP starts polling url until ctx is cancelled or Close is called.
func StartHTTP(ctx context.Context, url string, maxSize int) *HTTPSource {
	ctx, cancel := context.WithCancel(ctx)
	s := &HTTPSource{
		url:     url,
		maxSize: maxSize,
		client:  &http.Client{Timeout: constants.FetchTimeout},
		slot:    NewSlot(),
		backoff: constants.FetchBackoff,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	slog.Info("camera: polling snapshot endpoint", "url", url)
	go s.run(ctx)
	return s
}

func (s *HTTPSource) run(ctx context.Context) {
	defer close(s.done)

	for ctx.Err() == nil {
		data, err := s.fetch(ctx)
		if err != nil {
			slog.Debug("camera: fetch failed", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.backoff):
			}
			continue
		}
		s.slot.Offer(Frame{Data: data, CapturedAt: time.Now()})
	}
}

func (s *HTTPSource) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return Downscale(body, s.maxSize)
}

// Next returns the freshest polled frame, waiting at most FrameWaitTimeout.
func (s *HTTPSource) Next(ctx context.Context) (Frame, error) {
	return s.slot.Take(ctx, constants.FrameWaitTimeout)
}

// Close stops the poller and waits for it to exit.
func (s *HTTPSource) Close() error {
	s.once.Do(func() {
		s.cancel()
		<-s.done
	})
	return nil
}
