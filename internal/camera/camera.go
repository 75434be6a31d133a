// Package camera supplies frames from a local V4L2 device or a polled HTTP
// snapshot endpoint through a single-slot buffer that always holds the
// freshest frame.
package camera

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kozaktomas/facegate/internal/config"
)

// ErrNoFrame is returned when no frame arrived within the wait timeout.
var ErrNoFrame = errors.New("no frame available")

// Frame is an encoded (JPEG) image taken from the camera.
type Frame struct {
	Data       []byte
	CapturedAt time.Time
}

// Source provides frames to the monitor loop.
type Source interface {
	// Next waits a bounded time for the next frame. ErrNoFrame means the
	// caller should simply try again.
	Next(ctx context.Context) (Frame, error)
	Close() error
}

// Open starts the frame source described by cfg. A numeric source is a
// /dev/video index, anything else is treated as a snapshot URL.
func Open(ctx context.Context, cfg config.CameraConfig) (Source, error) {
	if idx, ok := cfg.DeviceIndex(); ok {
		src, err := OpenDevice(ctx, fmt.Sprintf("/dev/video%d", idx), cfg)
		if err != nil {
			return nil, err
		}
		return src, nil
	}
	return StartHTTP(ctx, cfg.Source, cfg.MaxSize), nil
}
