package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"net/http"
	"os"
	"strings"

	"github.com/ops-agent/cli/internal/imaging"
)

// FileSource acquires an image from a file the user picked. The original
// bytes are encoded as is, with the sniffed MIME type; nothing is
// recompressed.
type FileSource struct {
	Path string
}

// Acquire reads and validates the file.
func (f FileSource) Acquire(ctx context.Context) (imaging.EncodedImage, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := os.ReadFile(f.Path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", f.Path, err)
	}

	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return "", fmt.Errorf("%s: %w", f.Path, ErrNotImage)
	}

	// Reject corrupt files up front rather than at crop time.
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("%s: %w: %v", f.Path, ErrNotImage, err)
	}

	return imaging.EncodeBytes(data, mimeType), nil
}
