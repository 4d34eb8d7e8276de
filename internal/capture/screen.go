package capture

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/ops-agent/cli/internal/imaging"
)

// DefaultFrameDelay is the fixed stabilization wait before the first frame
// is taken. The capture surface gives no signal that a frame is ready, so a
// frame taken too early may be blank or partial; that is accepted, not an
// error.
const DefaultFrameDelay = 500 * time.Millisecond

// FrameStream is one live screen-capture session. Close must be called on
// every path, success or failure, so the platform's broadcast indicator is
// never left dangling.
type FrameStream interface {
	Frame(ctx context.Context) (image.Image, error)
	Close() error
}

// StreamOpener starts a capture session, typically behind the platform's
// interactive permission prompt.
type StreamOpener func(ctx context.Context) (FrameStream, error)

// ScreenSource acquires a single frame from an interactive screen capture.
type ScreenSource struct {
	open  StreamOpener
	delay time.Duration
}

// NewScreenSource creates a screen source. A nil opener uses the desktop
// portal; a zero delay uses DefaultFrameDelay.
func NewScreenSource(open StreamOpener, delay time.Duration) *ScreenSource {
	if open == nil {
		open = OpenPortalStream
	}
	if delay <= 0 {
		delay = DefaultFrameDelay
	}
	return &ScreenSource{open: open, delay: delay}
}

// Acquire opens the capture stream, waits the stabilization delay, takes
// one frame, and tears the stream down.
func (s *ScreenSource) Acquire(ctx context.Context) (imaging.EncodedImage, error) {
	stream, err := s.open(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to start screen capture: %w", err)
	}
	defer stream.Close()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(s.delay):
	}

	frame, err := stream.Frame(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to capture frame: %w", err)
	}

	return imaging.EncodePNG(frame)
}
