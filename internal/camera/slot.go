package camera

import (
	"context"
	"time"
)

// Slot is a capacity-1 frame buffer. A new frame replaces an unconsumed one
// instead of blocking the producer.
type Slot struct {
	ch chan Frame
}

// NewSlot creates an empty slot.
func NewSlot() *Slot {
	return &Slot{ch: make(chan Frame, 1)}
}

// Offer stores f, evicting any frame that has not been taken yet.
func (s *Slot) Offer(f Frame) {
	for {
		select {
		case s.ch <- f:
			return
		default:
		}
		// full: drop the stale frame and retry
		select {
		case <-s.ch:
		default:
		}
	}
}

// Take waits up to timeout for a frame.
func (s *Slot) Take(ctx context.Context, timeout time.Duration) (Frame, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case f := <-s.ch:
		return f, nil
	case <-timer.C:
		return Frame{}, ErrNoFrame
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	}
}

// Len reports whether a frame is waiting (0 or 1).
func (s *Slot) Len() int {
	return len(s.ch)
}
