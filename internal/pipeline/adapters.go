package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/insureco/claims-backend/internal/gemini"
	"github.com/insureco/claims-backend/internal/models"
	"github.com/insureco/claims-backend/internal/risk"
	"github.com/insureco/claims-backend/internal/verifier"
)

// GeminiAnalyzer adapts the LLM gateway to the verifier's analyzer contract.
type GeminiAnalyzer struct {
	Client *gemini.Client
}

// AnalyzeDocument delegates to the gateway, translating unavailability into
// the verifier's fallback signal.
func (a GeminiAnalyzer) AnalyzeDocument(ctx context.Context, data []byte, mimeType string, claimType models.ClaimType) (verifier.Analysis, error) {
	analysis, err := a.Client.AnalyzeDocument(ctx, data, mimeType, claimType)
	if err != nil {
		if errors.Is(err, gemini.ErrUnavailable) {
			return verifier.Analysis{}, fmt.Errorf("%w: %v", verifier.ErrAnalysisUnavailable, err)
		}
		return verifier.Analysis{}, err
	}
	return verifier.Analysis{
		IsValid:      analysis.IsValid,
		Confidence:   analysis.Confidence,
		DetectedType: analysis.DetectedType,
		Issues:       analysis.Issues,
	}, nil
}

// GeminiScorer adapts the LLM gateway to the risk detector's scorer contract.
type GeminiScorer struct {
	Client *gemini.Client
}

// AssessRisk delegates to the gateway, translating unavailability into the
// detector's degrade signal.
func (s GeminiScorer) AssessRisk(ctx context.Context, claim models.Claim, policy models.Policy, history []models.Claim) (risk.Opinion, error) {
	opinion, err := s.Client.AssessRisk(ctx, claim, policy, history)
	if err != nil {
		if errors.Is(err, gemini.ErrUnavailable) {
			return risk.Opinion{}, fmt.Errorf("%w: %v", risk.ErrScoringUnavailable, err)
		}
		return risk.Opinion{}, err
	}
	return risk.Opinion{
		Score:         opinion.RiskScore,
		Level:         opinion.RiskLevel,
		Reasoning:     opinion.Reasoning,
		FlaggedIssues: opinion.FlaggedIssues,
	}, nil
}
