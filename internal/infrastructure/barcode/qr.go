// Package barcode renders QR images for sealed packing bundles.
package barcode

import (
	"fmt"

	"github.com/erp/production/internal/domain/document"
	"github.com/skip2/go-qrcode"
)

const (
	// DefaultSize is the edge length in pixels of generated images
	DefaultSize = 256
	// MinSize is the smallest image a handheld scanner reads reliably
	MinSize = 64
)

// Ensure QREncoder implements document.BarcodeEncoder
var _ document.BarcodeEncoder = (*QREncoder)(nil)

// QREncoder produces PNG QR codes
type QREncoder struct {
	size     int
	recovery qrcode.RecoveryLevel
}

// Option configures a QREncoder
type Option func(*QREncoder)

// WithRecoveryLevel sets the error correction level
func WithRecoveryLevel(level qrcode.RecoveryLevel) Option {
	return func(e *QREncoder) {
		e.recovery = level
	}
}

// NewQREncoder creates an encoder producing size x size images.
// Sizes below MinSize fall back to DefaultSize.
func NewQREncoder(size int, opts ...Option) *QREncoder {
	if size < MinSize {
		size = DefaultSize
	}
	e := &QREncoder{size: size, recovery: qrcode.Medium}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Encode renders text as a PNG image
func (e *QREncoder) Encode(text string) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("qr content is required")
	}
	png, err := qrcode.Encode(text, e.recovery, e.size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}
	return png, nil
}

// ContentType returns the MIME type of encoded images
func (e *QREncoder) ContentType() string {
	return "image/png"
}

// Size returns the configured image edge length
func (e *QREncoder) Size() int {
	return e.size
}
