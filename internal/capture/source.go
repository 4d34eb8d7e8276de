// Package capture acquires still images from local files, the system
// clipboard, and interactive screen capture. Every path funnels into the
// same imaging.EncodedImage type so downstream crop and submission logic is
// agnostic to where an image came from. On any acquisition failure no
// partial image is ever retained.
package capture

import (
	"context"
	"errors"

	"github.com/ops-agent/cli/internal/imaging"
)

// Source is a single way an image can enter the system.
type Source interface {
	Acquire(ctx context.Context) (imaging.EncodedImage, error)
}

var (
	// ErrNotImage means the acquired payload is not a decodable image.
	ErrNotImage = errors.New("payload is not an image")
	// ErrNoImage means the clipboard holds no image-typed entry.
	ErrNoImage = errors.New("clipboard has no image entry")
)
