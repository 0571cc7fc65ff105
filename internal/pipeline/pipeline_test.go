package pipeline

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/insureco/claims-backend/internal/models"
	"github.com/insureco/claims-backend/internal/risk"
	"github.com/insureco/claims-backend/internal/verifier"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newPipeline() *Pipeline {
	// No analyzer, fetcher or scorer: verification runs on filenames,
	// risk on rules only.
	v := verifier.New(nil, nil, testLogger())
	d := risk.New(nil, testLogger())
	return New(v, d, testLogger())
}

func TestRunCompleteClaim(t *testing.T) {
	t.Parallel()

	p := newPipeline()
	state := p.Run(context.Background(), State{
		Claim: models.Claim{ClaimID: "C1", Type: models.ClaimTypeHealth, ClaimAmount: 5000},
		Documents: []models.Document{
			{ID: "d1", OriginalName: "hospital_bill.pdf"},
			{ID: "d2", OriginalName: "discharge_summary.pdf"},
			{ID: "d3", OriginalName: "prescription.pdf"},
		},
	})

	if len(state.Errors) != 0 {
		t.Fatalf("expected no step errors, got %v", state.Errors)
	}
	if state.Verification == nil || !state.Verification.IsValid {
		t.Errorf("expected valid verification, got %+v", state.Verification)
	}
	if state.RiskAssessment == nil || state.RiskAssessment.RiskScore < 1 || state.RiskAssessment.RiskScore > 10 {
		t.Errorf("expected risk score in range, got %+v", state.RiskAssessment)
	}
	if state.RecommendedStatus != models.StatusUnderReview {
		t.Errorf("expected under_review recommendation, got %s", state.RecommendedStatus)
	}
}

func TestRunDegradesOnVerificationFailure(t *testing.T) {
	t.Parallel()

	p := newPipeline()
	state := p.Run(context.Background(), State{
		Claim: models.Claim{ClaimID: "C1", Type: models.ClaimType("travel")},
	})

	if len(state.Errors) != 1 || state.Errors[0].Step != "documentVerification" {
		t.Fatalf("expected one documentVerification error, got %v", state.Errors)
	}
	if state.Verification == nil {
		t.Fatal("expected degraded verification result")
	}
	if state.Verification.IsValid || state.Verification.Confidence != 0 || state.Verification.Error == "" {
		t.Errorf("unexpected degraded verification: %+v", state.Verification)
	}

	// Later steps still run.
	if state.RiskAssessment == nil {
		t.Fatal("expected risk assessment despite verification failure")
	}
	if state.RecommendedStatus != models.StatusUnderReview {
		t.Errorf("expected under_review, got %s", state.RecommendedStatus)
	}
}

func TestDecideNeverApproves(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		v    *models.VerificationResult
		r    *models.RiskAssessment
	}{
		{"valid low risk", &models.VerificationResult{IsValid: true}, &models.RiskAssessment{RiskLevel: models.RiskLow}},
		{"invalid documents", &models.VerificationResult{IsValid: false}, &models.RiskAssessment{RiskLevel: models.RiskLow}},
		{"high risk", &models.VerificationResult{IsValid: true}, &models.RiskAssessment{RiskLevel: models.RiskHigh}},
		{"nil results", nil, nil},
	}
	for _, c := range cases {
		if got := Decide(c.v, c.r); got != models.StatusUnderReview {
			t.Errorf("%s: Decide = %s, want under_review", c.name, got)
		}
	}
}
