package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"strings"

	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
)

// EncodedImage is a self-describing still-image payload in data URI form
// (e.g. "data:image/png;base64,...."). It is immutable once produced and is
// the single currency all capture sources and the crop pipeline trade in.
type EncodedImage string

// EncodePNG encodes an in-memory image as a PNG data URI.
func EncodePNG(img image.Image) (EncodedImage, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode png: %w", err)
	}
	return EncodeBytes(buf.Bytes(), "image/png"), nil
}

// EncodeBytes wraps already-encoded image bytes in a data URI without
// recompressing them. The MIME type is sniffed when empty.
func EncodeBytes(data []byte, mimeType string) EncodedImage {
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return EncodedImage(fmt.Sprintf("data:%s;base64,%s",
		mimeType, base64.StdEncoding.EncodeToString(data)))
}

// IsDataURI reports whether s looks like an image data URI.
func IsDataURI(s string) bool {
	return strings.HasPrefix(s, "data:image/")
}

// MIMEType returns the declared media type, or "" if the payload is malformed.
func (e EncodedImage) MIMEType() string {
	s := string(e)
	if !strings.HasPrefix(s, "data:") {
		return ""
	}
	rest := s[len("data:"):]
	if i := strings.IndexByte(rest, ';'); i >= 0 {
		return rest[:i]
	}
	return ""
}

// Bytes returns the decoded binary payload.
func (e EncodedImage) Bytes() ([]byte, error) {
	s := string(e)
	i := strings.Index(s, ";base64,")
	if !strings.HasPrefix(s, "data:") || i < 0 {
		return nil, fmt.Errorf("not a base64 data URI")
	}
	data, err := base64.StdEncoding.DecodeString(s[i+len(";base64,"):])
	if err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}
	return data, nil
}

// Decode decodes the payload into an in-memory image.
func (e EncodedImage) Decode() (image.Image, error) {
	data, err := e.Bytes()
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// Size returns the pixel dimensions without decoding the full image.
func (e EncodedImage) Size() (width, height int, err error) {
	data, err := e.Bytes()
	if err != nil {
		return 0, 0, err
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read image header: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}
