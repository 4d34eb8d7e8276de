package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/ops-agent/cli/internal/imaging"
)

// PasteItem is one typed entry carried by a paste event.
type PasteItem struct {
	MediaType string
	Data      []byte
}

// ImageFromPaste scans paste items in order and decodes the first
// image-typed entry. ok is false when no image entry exists, in which case
// the paste is not handled here and normal text insertion proceeds.
func ImageFromPaste(items []PasteItem) (img imaging.EncodedImage, ok bool, err error) {
	for _, item := range items {
		if !strings.HasPrefix(item.MediaType, "image") {
			continue
		}
		if _, _, derr := image.DecodeConfig(bytes.NewReader(item.Data)); derr != nil {
			return "", false, fmt.Errorf("%w: %v", ErrNotImage, derr)
		}
		return imaging.EncodeBytes(item.Data, item.MediaType), true, nil
	}
	return "", false, nil
}

// ReadSystemClipboard adapts the text-transport system clipboard into paste
// items.
func ReadSystemClipboard() ([]PasteItem, error) {
	text, err := clipboard.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read clipboard: %w", err)
	}
	return classifyPaste(text)
}

// classifyPaste turns clipboard text into paste items: a data URI payload
// becomes an image entry, anything else a plain text entry.
func classifyPaste(text string) ([]PasteItem, error) {
	trimmed := strings.TrimSpace(text)
	if imaging.IsDataURI(trimmed) {
		enc := imaging.EncodedImage(trimmed)
		data, err := enc.Bytes()
		if err != nil {
			return nil, fmt.Errorf("malformed clipboard image: %w", err)
		}
		return []PasteItem{{MediaType: enc.MIMEType(), Data: data}}, nil
	}
	return []PasteItem{{MediaType: "text/plain", Data: []byte(text)}}, nil
}

// ClipboardSource acquires an image from a paste. Read defaults to the
// system clipboard adapter and is injectable for tests.
type ClipboardSource struct {
	Read func() ([]PasteItem, error)
}

// Acquire returns the first pasted image, or ErrNoImage when the paste has
// none.
func (c ClipboardSource) Acquire(ctx context.Context) (imaging.EncodedImage, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	read := c.Read
	if read == nil {
		read = ReadSystemClipboard
	}
	items, err := read()
	if err != nil {
		return "", err
	}

	img, ok, err := ImageFromPaste(items)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNoImage
	}
	return img, nil
}
