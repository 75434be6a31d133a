package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/blackjack/webcam"

	"github.com/kozaktomas/facegate/internal/config"
	"github.com/kozaktomas/facegate/internal/constants"
)

// V4L2 fourcc codes.
const (
	pixFmtMJPEG webcam.PixelFormat = 0x47504A4D // MJPG
	pixFmtYUYV  webcam.PixelFormat = 0x56595559 // YUYV
)

// DeviceSource reads frames from a V4L2 device. A reader goroutine keeps the
// freshest frame in a Slot so slow recognition never queues stale frames.
type DeviceSource struct {
	cam     *webcam.Webcam
	format  webcam.PixelFormat
	width   int
	height  int
	maxSize int
	slot    *Slot

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// OpenDevice opens the device, negotiates MJPEG (or YUYV as fallback) and
// starts streaming.
func OpenDevice(ctx context.Context, device string, cfg config.CameraConfig) (*DeviceSource, error) {
	cam, err := webcam.Open(device)
	if err != nil {
		return nil, fmt.Errorf("can not open device %s: %w", device, err)
	}

	format, err := pickFormat(cam.GetSupportedFormats())
	if err != nil {
		cam.Close()
		return nil, fmt.Errorf("device %s: %w", device, err)
	}

	format, w, h, err := cam.SetImageFormat(format, uint32(cfg.Width), uint32(cfg.Height)) //nolint:gosec // validated positive by config
	if err != nil {
		cam.Close()
		return nil, fmt.Errorf("can not set image format: %w", err)
	}

	if err := cam.StartStreaming(); err != nil {
		cam.Close()
		return nil, fmt.Errorf("can not start streaming: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &DeviceSource{
		cam:     cam,
		format:  format,
		width:   int(w),
		height:  int(h),
		maxSize: cfg.MaxSize,
		slot:    NewSlot(),
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	slog.Info("camera: device streaming", "device", device, "width", w, "height", h, "format", formatName(format))
	go s.run(ctx)
	return s, nil
}

func pickFormat(supported map[webcam.PixelFormat]string) (webcam.PixelFormat, error) {
	for _, f := range []webcam.PixelFormat{pixFmtMJPEG, pixFmtYUYV} {
		if _, ok := supported[f]; ok {
			return f, nil
		}
	}
	return 0, errors.New("neither MJPEG nor YUYV is supported")
}

func formatName(f webcam.PixelFormat) string {
	switch f {
	case pixFmtMJPEG:
		return "MJPEG"
	case pixFmtYUYV:
		return "YUYV"
	default:
		return fmt.Sprintf("0x%08x", uint32(f))
	}
}

func (s *DeviceSource) run(ctx context.Context) {
	defer close(s.done)

	for ctx.Err() == nil {
		err := s.cam.WaitForFrame(constants.DeviceWaitTimeout)
		var timeout *webcam.Timeout
		switch {
		case err == nil:
		case errors.As(err, &timeout):
			continue
		default:
			slog.Warn("camera: frame wait failed", "error", err)
			s.sleep(ctx)
			continue
		}

		raw, err := s.cam.ReadFrame()
		if err != nil {
			slog.Warn("camera: read frame failed", "error", err)
			s.sleep(ctx)
			continue
		}
		if len(raw) == 0 {
			continue
		}

		data, err := s.encode(raw)
		if err != nil {
			slog.Debug("camera: dropping undecodable frame", "error", err)
			continue
		}
		s.slot.Offer(Frame{Data: data, CapturedAt: time.Now()})
	}
}

func (s *DeviceSource) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(constants.FetchBackoff):
	}
}

// encode turns a raw device buffer into a JPEG. ReadFrame reuses its buffer,
// so the result never aliases raw.
func (s *DeviceSource) encode(raw []byte) ([]byte, error) {
	if s.format == pixFmtMJPEG {
		return Downscale(raw, s.maxSize)
	}
	img, err := yuyvToImage(raw, s.width, s.height)
	if err != nil {
		return nil, err
	}
	return encodeScaled(img, s.maxSize)
}

// yuyvToImage converts a packed YUYV 4:2:2 buffer into an image.
func yuyvToImage(frame []byte, width, height int) (*image.YCbCr, error) {
	if width <= 0 || height <= 0 || width%2 != 0 {
		return nil, fmt.Errorf("invalid YUYV geometry %dx%d", width, height)
	}
	if len(frame) < width*height*2 {
		return nil, fmt.Errorf("short YUYV frame: %d bytes for %dx%d", len(frame), width, height)
	}

	img := image.NewYCbCr(image.Rect(0, 0, width, height), image.YCbCrSubsampleRatio422)
	for y := 0; y < height; y++ {
		row := frame[y*width*2 : (y+1)*width*2]
		for x := 0; x < width; x += 2 {
			i := x * 2
			img.Y[y*img.YStride+x] = row[i]
			img.Y[y*img.YStride+x+1] = row[i+2]
			c := y*img.CStride + x/2
			img.Cb[c] = row[i+1]
			img.Cr[c] = row[i+3]
		}
	}
	return img, nil
}

// Next returns the freshest device frame, waiting at most FrameWaitTimeout.
func (s *DeviceSource) Next(ctx context.Context) (Frame, error) {
	return s.slot.Take(ctx, constants.FrameWaitTimeout)
}

// Close stops the reader and releases the device.
func (s *DeviceSource) Close() error {
	var err error
	s.once.Do(func() {
		s.cancel()
		<-s.done
		if stopErr := s.cam.StopStreaming(); stopErr != nil {
			slog.Warn("camera: stop streaming failed", "error", stopErr)
		}
		err = s.cam.Close()
	})
	return err
}
