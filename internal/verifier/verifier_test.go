package verifier

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/insureco/claims-backend/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubFetcher struct {
	data []byte
	err  error
}

func (f stubFetcher) Fetch(_ context.Context, _ string) ([]byte, error) {
	return f.data, f.err
}

type stubAnalyzer struct {
	analysis Analysis
	err      error
}

func (a stubAnalyzer) AnalyzeDocument(_ context.Context, _ []byte, _ string, _ models.ClaimType) (Analysis, error) {
	return a.analysis, a.err
}

func doc(id, name string) models.Document {
	return models.Document{ID: id, OriginalName: name, MimeType: "application/pdf", S3Key: "user/u1/c1/" + id + ".pdf"}
}

func TestVerifyUnknownClaimType(t *testing.T) {
	t.Parallel()

	v := New(nil, nil, testLogger())
	_, err := v.Verify(context.Background(), models.ClaimType("travel"), nil)
	if !errors.Is(err, ErrUnknownClaimType) {
		t.Fatalf("expected ErrUnknownClaimType, got %v", err)
	}
}

func TestVerifyNoDocuments(t *testing.T) {
	t.Parallel()

	v := New(nil, nil, testLogger())
	result, err := v.Verify(context.Background(), models.ClaimTypeHealth, nil)
	if err != nil {
		t.Fatalf("verify error: %v", err)
	}

	if result.IsValid {
		t.Error("expected invalid result with no documents")
	}
	if result.Confidence != 0 {
		t.Errorf("expected confidence 0, got %d", result.Confidence)
	}
	if len(result.MissingDocuments) != 3 {
		t.Fatalf("expected 3 missing documents, got %d", len(result.MissingDocuments))
	}
	if result.MissingDocuments[0].Name != "Hospital Bill" {
		t.Errorf("expected display name 'Hospital Bill', got %q", result.MissingDocuments[0].Name)
	}
	if len(result.Issues) != 1 || result.Issues[0] != "No documents uploaded" {
		t.Errorf("unexpected issues: %v", result.Issues)
	}
}

func TestVerifyFilenameFallbackAllPresent(t *testing.T) {
	t.Parallel()

	// No analyzer and no fetcher: classification is filename-only.
	v := New(nil, nil, testLogger())
	docs := []models.Document{
		doc("d1", "hospital_bill.pdf"),
		doc("d2", "discharge_summary.pdf"),
		doc("d3", "prescription.pdf"),
	}

	result, err := v.Verify(context.Background(), models.ClaimTypeHealth, docs)
	if err != nil {
		t.Fatalf("verify error: %v", err)
	}

	if !result.IsValid {
		t.Errorf("expected valid result, issues=%v missing=%v", result.Issues, result.MissingDocuments)
	}
	if result.Confidence != 100 {
		t.Errorf("expected confidence 100, got %d", result.Confidence)
	}
	if len(result.IdentifiedTypes) != 3 {
		t.Errorf("expected 3 identified types, got %v", result.IdentifiedTypes)
	}
	if len(result.Recommendations) != 1 || !strings.Contains(result.Recommendations[0], "ready for processing") {
		t.Errorf("unexpected recommendations: %v", result.Recommendations)
	}
}

func TestVerifyPartialDocuments(t *testing.T) {
	t.Parallel()

	v := New(nil, nil, testLogger())
	docs := []models.Document{doc("d1", "hospital_bill.pdf")}

	result, err := v.Verify(context.Background(), models.ClaimTypeHealth, docs)
	if err != nil {
		t.Fatalf("verify error: %v", err)
	}

	if result.IsValid {
		t.Error("expected invalid result with missing documents")
	}
	// One valid document out of one, halved because required types are missing.
	if result.Confidence != 50 {
		t.Errorf("expected confidence 50, got %d", result.Confidence)
	}
	if len(result.MissingDocuments) != 2 {
		t.Errorf("expected 2 missing documents, got %v", result.MissingDocuments)
	}
	if len(result.Recommendations) == 0 || !strings.Contains(result.Recommendations[0], "Discharge Summary") {
		t.Errorf("expected upload recommendation naming missing docs, got %v", result.Recommendations)
	}
}

func TestVerifyContentAnalysisWins(t *testing.T) {
	t.Parallel()

	analyzer := stubAnalyzer{analysis: Analysis{
		IsValid:      true,
		Confidence:   95,
		DetectedType: "fir_copy",
	}}
	v := New(analyzer, stubFetcher{data: []byte("bytes")}, testLogger())

	// Filename carries no keywords, so the analyzer's detected type is used.
	result, err := v.Verify(context.Background(), models.ClaimTypeVehicle, []models.Document{doc("d1", "scan001.pdf")})
	if err != nil {
		t.Fatalf("verify error: %v", err)
	}

	if len(result.IdentifiedTypes) != 1 || result.IdentifiedTypes[0] != "fir_copy" {
		t.Errorf("expected fir_copy identified, got %v", result.IdentifiedTypes)
	}
	if len(result.Checks) != 1 || result.Checks[0].DetectedType != "fir_copy" {
		t.Errorf("unexpected checks: %+v", result.Checks)
	}
}

func TestVerifyReportsOffChecklistTypes(t *testing.T) {
	t.Parallel()

	// The analyzer may label a document with a type outside the checklist;
	// it is still reported, and the required types stay missing.
	analyzer := stubAnalyzer{analysis: Analysis{
		IsValid:      true,
		Confidence:   90,
		DetectedType: "pharmacy_receipt",
	}}
	v := New(analyzer, stubFetcher{data: []byte("bytes")}, testLogger())

	result, err := v.Verify(context.Background(), models.ClaimTypeHealth, []models.Document{doc("d1", "scan001.pdf")})
	if err != nil {
		t.Fatalf("verify error: %v", err)
	}

	if len(result.IdentifiedTypes) != 1 || result.IdentifiedTypes[0] != "pharmacy_receipt" {
		t.Errorf("expected pharmacy_receipt identified, got %v", result.IdentifiedTypes)
	}
	if len(result.MissingDocuments) != 3 {
		t.Errorf("expected all required types still missing, got %v", result.MissingDocuments)
	}
	if result.IsValid {
		t.Error("expected invalid result while required documents are missing")
	}
}

func TestVerifyUnavailableAnalyzerFallsBack(t *testing.T) {
	t.Parallel()

	analyzer := stubAnalyzer{err: ErrAnalysisUnavailable}
	v := New(analyzer, stubFetcher{data: []byte("bytes")}, testLogger())

	result, err := v.Verify(context.Background(), models.ClaimTypeHealth, []models.Document{doc("d1", "hospital_bill.pdf")})
	if err != nil {
		t.Fatalf("verify error: %v", err)
	}
	if len(result.IdentifiedTypes) != 1 || result.IdentifiedTypes[0] != "hospital_bill" {
		t.Errorf("expected filename fallback to identify hospital_bill, got %v", result.IdentifiedTypes)
	}
	if !result.Checks[0].IsValid {
		t.Error("expected fallback analysis to accept the document")
	}
}

func TestVerifyAnalyzerFailureDegradesDocument(t *testing.T) {
	t.Parallel()

	analyzer := stubAnalyzer{err: errors.New("malformed content")}
	v := New(analyzer, stubFetcher{data: []byte("bytes")}, testLogger())

	result, err := v.Verify(context.Background(), models.ClaimTypeHealth, []models.Document{doc("d1", "hospital_bill.pdf")})
	if err != nil {
		t.Fatalf("verify error: %v", err)
	}

	if result.IsValid {
		t.Error("expected invalid result when a document cannot be analyzed")
	}
	if len(result.Checks) != 1 || result.Checks[0].Error == "" {
		t.Errorf("expected check with error recorded, got %+v", result.Checks)
	}
	found := false
	for _, issue := range result.Issues {
		if strings.Contains(issue, "Could not analyze") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected 'Could not analyze' issue, got %v", result.Issues)
	}
}

func TestVerifyFetchFailureFallsBackToFilename(t *testing.T) {
	t.Parallel()

	v := New(stubAnalyzer{}, stubFetcher{err: errors.New("no such key")}, testLogger())

	result, err := v.Verify(context.Background(), models.ClaimTypeVehicle, []models.Document{doc("d1", "repair_estimate.pdf")})
	if err != nil {
		t.Fatalf("verify error: %v", err)
	}
	if len(result.IdentifiedTypes) != 1 || result.IdentifiedTypes[0] != "repair_estimate" {
		t.Errorf("expected filename classification, got %v", result.IdentifiedTypes)
	}
}

func TestFormatDocTypeName(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"hospital_bill": "Hospital Bill",
		"fir_copy":      "Fir Copy",
		"damage_photos": "Damage Photos",
		"single":        "Single",
	}
	for in, want := range cases {
		if got := formatDocTypeName(in); got != want {
			t.Errorf("formatDocTypeName(%q) = %q, want %q", in, got, want)
		}
	}
}
