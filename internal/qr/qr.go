// Package qr renders QR codes for form links.
package qr

import (
	"errors"
	"fmt"
	"os"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// ErrEmptyText is returned when there is nothing to encode
var ErrEmptyText = errors.New("qr: text is required")

// DefaultSize is the default image edge length in pixels
const DefaultSize = 256

// Encode renders text as a PNG QR code of size x size pixels
func Encode(text string, size int) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	if size <= 0 {
		size = DefaultSize
	}

	png, err := qrcode.Encode(text, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("qr: failed to encode: %w", err)
	}
	return png, nil
}

// WriteFile renders text and writes the PNG to path
func WriteFile(text, path string, size int) error {
	png, err := Encode(text, size)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, png, 0644); err != nil {
		return fmt.Errorf("qr: failed to write %s: %w", path, err)
	}
	return nil
}
