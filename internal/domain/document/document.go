// Package document defines how pipeline records refer to stored files and
// the ports used to persist them.
package document

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/erp/production/internal/domain/shared"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Features used as the first segment of a storage key
const (
	FeatureIWO      = "iwo"
	FeaturePacking  = "packing"
	FeatureDispatch = "dispatch"
	FeatureQRCode   = "qrcode"
)

// Ref points at a document held by the document store
type Ref struct {
	Locator     string `json:"locator"`
	FileName    string `json:"file_name,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

// Upload is a file supplied with a request that has not been stored yet
type Upload struct {
	FileName    string
	ContentType string
	Content     []byte
}

// Validate checks that the upload carries content and a name
func (u Upload) Validate() error {
	if len(u.Content) == 0 {
		return shared.NewValidationError(shared.ValidationError{Field: "content", Message: "is required"})
	}
	if strings.TrimSpace(u.FileName) == "" {
		return shared.NewValidationError(shared.ValidationError{Field: "file_name", Message: "is required"})
	}
	return nil
}

// Store persists bytes and hands back a retrievable locator
type Store interface {
	// Store saves data under a key derived from keyHint and returns its locator (URL)
	Store(ctx context.Context, data []byte, contentType, keyHint string) (string, error)
	// Remove deletes the document addressed by locator
	Remove(ctx context.Context, locator string) error
}

// BarcodeEncoder renders text as a 2D barcode image
type BarcodeEncoder interface {
	// Encode returns the encoded image bytes
	Encode(text string) ([]byte, error)
	// ContentType returns the MIME type of images produced by Encode
	ContentType() string
}

var stripMarks = runes.Remove(runes.In(unicode.Mn))

// SanitizeFileName reduces a user supplied file name to a safe key segment.
// Diacritics are folded away and anything outside [A-Za-z0-9._-] becomes '-'.
func SanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "." || name == "/" {
		name = ""
	}
	t := transform.Chain(norm.NFD, stripMarks, norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	lastDash := false
	for _, r := range folded {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '_'):
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteRune('-')
			lastDash = true
		}
	}
	out := strings.Trim(b.String(), "-.")
	if out == "" {
		return "file"
	}
	return out
}

// KeyHint builds the storage key "<feature>/<timestamp>-<sanitized name>"
func KeyHint(feature string, at time.Time, originalName string) string {
	return fmt.Sprintf("%s/%d-%s", feature, at.UnixMilli(), SanitizeFileName(originalName))
}

// UploadSession stores a request's files and remembers their locators so
// they can be removed again when the write they belong to fails.
type UploadSession struct {
	store    Store
	feature  string
	now      func() time.Time
	uploaded []string
}

// NewUploadSession creates an upload session for one request
func NewUploadSession(store Store, feature string) *UploadSession {
	return &UploadSession{
		store:   store,
		feature: feature,
		now:     time.Now,
	}
}

// Upload stores u and returns a reference to it
func (s *UploadSession) Upload(ctx context.Context, u Upload) (*Ref, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	contentType := u.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	locator, err := s.store.Store(ctx, u.Content, contentType, KeyHint(s.feature, s.now(), u.FileName))
	if err != nil {
		return nil, shared.NewStorageError("upload", err)
	}
	s.uploaded = append(s.uploaded, locator)
	return &Ref{Locator: locator, FileName: u.FileName, ContentType: contentType}, nil
}

// Uploaded returns the locators stored so far
func (s *UploadSession) Uploaded() []string {
	return append([]string(nil), s.uploaded...)
}

// Rollback removes every document stored through this session.
// All removals are attempted; the combined error is returned.
func (s *UploadSession) Rollback(ctx context.Context) error {
	err := RemoveAll(ctx, s.store, s.uploaded)
	s.uploaded = nil
	return err
}

// RemoveAll removes every locator, skipping empty ones, and joins failures
func RemoveAll(ctx context.Context, store Store, locators []string) error {
	var errs []error
	for _, loc := range locators {
		if loc == "" {
			continue
		}
		if err := store.Remove(ctx, loc); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", loc, err))
		}
	}
	return errors.Join(errs...)
}
