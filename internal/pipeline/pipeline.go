// Package pipeline runs a submitted claim through document verification, risk
// assessment and the status decision, in that fixed order. Steps are plain
// functions threading a shared state record; each one catches its own failure
// and substitutes a safe default, so a pipeline run always completes.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/insureco/claims-backend/internal/models"
	"github.com/insureco/claims-backend/internal/risk"
	"github.com/insureco/claims-backend/internal/verifier"
)

// StepError records one step's failure without halting the run.
type StepError struct {
	Step  string `json:"step"`
	Error string `json:"error"`
}

// State is the accumulator threaded through the steps.
type State struct {
	Claim     models.Claim
	Documents []models.Document
	Policy    models.Policy
	History   []models.Claim

	Verification      *models.VerificationResult
	RiskAssessment    *models.RiskAssessment
	RecommendedStatus models.ClaimStatus
	Errors            []StepError
}

type step struct {
	name string
	run  func(ctx context.Context, s *State) error
	// degrade substitutes the step's safe default after a failure.
	degrade func(s *State, err error)
}

// Pipeline executes the claim-processing steps.
type Pipeline struct {
	steps  []step
	logger *slog.Logger
}

// New assembles the verification, risk and decision steps.
func New(v *verifier.Verifier, d *risk.Detector, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{logger: logger}
	p.steps = []step{
		{
			name: "documentVerification",
			run: func(ctx context.Context, s *State) error {
				result, err := v.Verify(ctx, s.Claim.Type, s.Documents)
				if err != nil {
					return err
				}
				s.Verification = &result
				return nil
			},
			degrade: func(s *State, err error) {
				s.Verification = &models.VerificationResult{
					IsValid:    false,
					Confidence: 0,
					Error:      err.Error(),
				}
			},
		},
		{
			name: "riskAssessment",
			run: func(ctx context.Context, s *State) error {
				result := d.Assess(ctx, s.Claim, s.Policy, s.History)
				s.RiskAssessment = &result
				return nil
			},
			degrade: func(s *State, err error) {
				s.RiskAssessment = &models.RiskAssessment{
					RiskScore:      5,
					RiskLevel:      models.RiskMedium,
					Recommendation: models.RecommendReview,
					Error:          err.Error(),
				}
			},
		},
		{
			name: "decision",
			run: func(ctx context.Context, s *State) error {
				s.RecommendedStatus = Decide(s.Verification, s.RiskAssessment)
				return nil
			},
			degrade: func(s *State, err error) {
				s.RecommendedStatus = models.StatusUnderReview
			},
		},
	}
	return p
}

// Run executes the steps in order. A step failure is recorded and replaced by
// that step's degraded default; the run itself never fails.
func (p *Pipeline) Run(ctx context.Context, s State) State {
	p.logger.Info("starting claim processing",
		"claim", s.Claim.ClaimID, "type", s.Claim.Type, "documents", len(s.Documents))

	for _, st := range p.steps {
		if err := st.run(ctx, &s); err != nil {
			p.logger.Error("pipeline step failed", "step", st.name, "claim", s.Claim.ClaimID, "error", err)
			s.Errors = append(s.Errors, StepError{Step: st.name, Error: err.Error()})
			st.degrade(&s, err)
		}
	}

	p.logger.Info("claim processing complete",
		"claim", s.Claim.ClaimID,
		"valid", s.Verification != nil && s.Verification.IsValid,
		"risk_level", riskLevelOf(s.RiskAssessment),
		"recommendation", s.RecommendedStatus)
	return s
}

// Decide maps the two agent results to a recommended claim status. Every path
// lands on manual review: the pipeline never approves or rejects on its own.
func Decide(v *models.VerificationResult, r *models.RiskAssessment) models.ClaimStatus {
	switch {
	case v != nil && !v.IsValid:
		return models.StatusUnderReview
	case r != nil && r.RiskLevel == models.RiskHigh:
		return models.StatusUnderReview
	default:
		return models.StatusUnderReview
	}
}

func riskLevelOf(r *models.RiskAssessment) models.RiskLevel {
	if r == nil {
		return ""
	}
	return r.RiskLevel
}
