// Package validate provides functions to validate claim submissions and uploads.
package validate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/insureco/claims-backend/internal/models"
)

// Upload limits (mirrors the portal's WAF/bucket rules).
const (
	MaxDocumentBytes = 10 * 1024 * 1024
	MaxDocuments     = 5
)

var allowedMimeTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"application/pdf": true,
}

// ClaimType checks that t is one of the supported claim types.
func ClaimType(t models.ClaimType) error {
	if t != models.ClaimTypeHealth && t != models.ClaimTypeVehicle {
		return fmt.Errorf("unsupported claim type %q", t)
	}
	return nil
}

// ClaimAmount checks that the amount is a non-negative currency value.
func ClaimAmount(amount float64) error {
	if amount < 0 {
		return errors.New("claim amount must be non-negative")
	}
	return nil
}

// Description checks that the free-text description is present.
func Description(d string) error {
	if strings.TrimSpace(d) == "" {
		return errors.New("description required")
	}
	return nil
}

// MimeType checks that ct is an allowed document content type.
func MimeType(ct string) error {
	if !allowedMimeTypes[strings.TrimSpace(strings.ToLower(ct))] {
		return errors.New("invalid file type; only JPEG, PNG, WebP and PDF are allowed")
	}
	return nil
}

// Filename checks that the filename is non-empty and of sane length.
func Filename(fn string) error {
	if strings.TrimSpace(fn) == "" {
		return errors.New("filename required")
	}
	if len(fn) > 255 {
		return errors.New("filename too long")
	}
	return nil
}

// DocumentCount checks the number of documents attached to one claim.
func DocumentCount(n int) error {
	if n > MaxDocuments {
		return fmt.Errorf("too many documents; maximum is %d", MaxDocuments)
	}
	return nil
}

// DocumentSize checks a single document's byte size.
func DocumentSize(n int64) error {
	if n > MaxDocumentBytes {
		return errors.New("file too large; maximum size is 10MB")
	}
	return nil
}
