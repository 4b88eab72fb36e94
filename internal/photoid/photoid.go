// Package photoid inspects the face and ID photos learners upload for an
// identity verification attempt. Photos are validated and fingerprinted; the
// pixels are never stored.
package photoid

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"mime"
	"net/http"
	"strings"

	_ "golang.org/x/image/webp" // Register WebP decoder

	"learnhub/internal/models"
)

const (
	DefaultMaxUploadSizeMB = 10
	// MinDimension is the smallest width or height a reviewer can work with.
	MinDimension = 64
)

// Kind names which of the two verification photos an upload is.
type Kind string

const (
	KindFace Kind = "face"
	KindID   Kind = "id"
)

// Photo is the metadata kept for an uploaded photo.
type Photo struct {
	Kind     Kind
	Format   string
	MimeType string
	Width    int
	Height   int
	Hash     string
}

// Inspector validates uploads against a size limit.
type Inspector struct {
	maxUploadSizeBytes int64
}

// NewInspector returns an Inspector. A non-positive limit falls back to
// DefaultMaxUploadSizeMB.
func NewInspector(maxUploadSizeBytes int64) *Inspector {
	if maxUploadSizeBytes <= 0 {
		maxUploadSizeBytes = DefaultMaxUploadSizeMB * 1024 * 1024
	}
	return &Inspector{maxUploadSizeBytes: maxUploadSizeBytes}
}

// Inspect checks that content is a supported image of usable size and returns
// its fingerprint. contentType is the client-declared type and may be empty.
func (i *Inspector) Inspect(userID uint, kind Kind, contentType string, content []byte) (*Photo, error) {
	label := string(kind) + " photo"
	if len(content) == 0 {
		return nil, models.NewValidationError("Missing " + label)
	}
	if int64(len(content)) > i.maxUploadSizeBytes {
		return nil, models.NewValidationError(fmt.Sprintf("%s too large (max %dMB)", label, i.maxUploadSizeBytes/(1024*1024)))
	}

	if !isAllowedImageMIME(http.DetectContentType(content)) {
		return nil, models.NewValidationError("Invalid image type for " + label)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file for " + label)
	}
	sourceMime := decodedFormatToMime(format)
	if sourceMime == "" {
		return nil, models.NewValidationError("Unsupported image format for " + label)
	}
	if provided := normalizeContentType(contentType); strings.HasPrefix(provided, "image/") && !isMatchingContentType(provided, sourceMime) {
		return nil, models.NewValidationError("Image content type mismatch for " + label)
	}
	if cfg.Width < MinDimension || cfg.Height < MinDimension {
		return nil, models.NewValidationError(fmt.Sprintf("%s must be at least %dx%d pixels", label, MinDimension, MinDimension))
	}

	return &Photo{
		Kind:     kind,
		Format:   format,
		MimeType: sourceMime,
		Width:    cfg.Width,
		Height:   cfg.Height,
		Hash:     Fingerprint(userID, content),
	}, nil
}

// Fingerprint is a per-user content hash, so identical uploads by different
// learners do not collide.
func Fingerprint(userID uint, content []byte) string {
	h := sha256.New()
	_, _ = fmt.Fprintf(h, "%d:", userID)
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func isMatchingContentType(provided, detected string) bool {
	p := normalizeContentType(provided)
	d := normalizeContentType(detected)
	if p == d {
		return true
	}
	return (p == "image/jpg" && d == "image/jpeg") || (p == "image/jpeg" && d == "image/jpg")
}

func decodedFormatToMime(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return ""
	}
}
