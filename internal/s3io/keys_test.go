package s3io

import "testing"

func TestBuildKey(t *testing.T) {
	t.Parallel()

	got := BuildKey("u1", "c1", "d1", ".pdf")
	want := "user/u1/c1/d1.pdf"
	if got != want {
		t.Errorf("BuildKey = %q, want %q", got, want)
	}

	// Extensions without a leading dot are normalized.
	if got := BuildKey("u1", "c1", "d1", "png"); got != "user/u1/c1/d1.png" {
		t.Errorf("BuildKey = %q, want user/u1/c1/d1.png", got)
	}
	if got := BuildKey("u1", "c1", "d1", ""); got != "user/u1/c1/d1" {
		t.Errorf("BuildKey = %q, want user/u1/c1/d1", got)
	}
}

func TestParseKeyRoundTrip(t *testing.T) {
	t.Parallel()

	key := BuildKey("u1", "c1", "d1", ".pdf")
	userID, claimID, docID, ok := ParseKey(key)
	if !ok {
		t.Fatalf("ParseKey(%q) failed", key)
	}
	if userID != "u1" || claimID != "c1" || docID != "d1" {
		t.Errorf("ParseKey = %q/%q/%q", userID, claimID, docID)
	}
}

func TestParseKeyRejectsBadShapes(t *testing.T) {
	t.Parallel()

	bad := []string{
		"",
		"user/u1/c1",
		"user/u1/c1/d1/extra.pdf",
		"other/u1/c1/d1.pdf",
		"user//c1/d1.pdf",
		"user/u1/c1/.pdf",
	}
	for _, key := range bad {
		if _, _, _, ok := ParseKey(key); ok {
			t.Errorf("ParseKey(%q) unexpectedly succeeded", key)
		}
	}
}

func TestUploadHeaders(t *testing.T) {
	t.Parallel()

	h := UploadHeaders("u1", "c1", "d1", "application/pdf")
	if h["Content-Type"] != "application/pdf" {
		t.Errorf("unexpected content type: %q", h["Content-Type"])
	}
	if h["x-amz-meta-claim_id"] != "c1" || h["x-amz-meta-user_id"] != "u1" || h["x-amz-meta-document_id"] != "d1" {
		t.Errorf("unexpected metadata headers: %v", h)
	}
	if h["x-amz-server-side-encryption"] != "aws:kms" {
		t.Errorf("expected KMS encryption header, got %v", h)
	}
}
