package validate

import (
	"strings"
	"testing"

	"github.com/insureco/claims-backend/internal/models"
)

func TestClaimType(t *testing.T) {
	t.Parallel()

	if err := ClaimType(models.ClaimTypeHealth); err != nil {
		t.Errorf("health should be valid: %v", err)
	}
	if err := ClaimType(models.ClaimTypeVehicle); err != nil {
		t.Errorf("vehicle should be valid: %v", err)
	}
	if err := ClaimType(models.ClaimType("life")); err == nil {
		t.Error("expected error for unsupported claim type")
	}
	if err := ClaimType(""); err == nil {
		t.Error("expected error for empty claim type")
	}
}

func TestClaimAmount(t *testing.T) {
	t.Parallel()

	if err := ClaimAmount(0); err != nil {
		t.Errorf("zero amount should be allowed: %v", err)
	}
	if err := ClaimAmount(125000.50); err != nil {
		t.Errorf("positive amount should be allowed: %v", err)
	}
	if err := ClaimAmount(-1); err == nil {
		t.Error("expected error for negative amount")
	}
}

func TestMimeType(t *testing.T) {
	t.Parallel()

	allowed := []string{"image/jpeg", "image/png", "image/webp", "application/pdf"}
	for _, ct := range allowed {
		if err := MimeType(ct); err != nil {
			t.Errorf("%s should be allowed: %v", ct, err)
		}
	}
	for _, ct := range []string{"text/html", "application/zip", ""} {
		if err := MimeType(ct); err == nil {
			t.Errorf("%s should be rejected", ct)
		}
	}
}

func TestFilename(t *testing.T) {
	t.Parallel()

	if err := Filename("hospital_bill.pdf"); err != nil {
		t.Errorf("plain filename should be allowed: %v", err)
	}
	if err := Filename(""); err == nil {
		t.Error("expected error for empty filename")
	}
	if err := Filename(strings.Repeat("a", 300) + ".pdf"); err == nil {
		t.Error("expected error for oversized filename")
	}
}

func TestDocumentCount(t *testing.T) {
	t.Parallel()

	if err := DocumentCount(1); err != nil {
		t.Errorf("one document should be allowed: %v", err)
	}
	if err := DocumentCount(MaxDocuments); err != nil {
		t.Errorf("max documents should be allowed: %v", err)
	}
	if err := DocumentCount(MaxDocuments + 1); err == nil {
		t.Error("expected error above the document cap")
	}
	// Zero documents is allowed; verification reports them as missing instead.
	if err := DocumentCount(0); err != nil {
		t.Errorf("zero documents should be allowed: %v", err)
	}
}

func TestDocumentSize(t *testing.T) {
	t.Parallel()

	if err := DocumentSize(MaxDocumentBytes); err != nil {
		t.Errorf("exactly the cap should be allowed: %v", err)
	}
	if err := DocumentSize(MaxDocumentBytes + 1); err == nil {
		t.Error("expected error above the size cap")
	}
}
