// Package risk computes a claim's risk assessment from deterministic rules,
// optionally blended with an external model's score.
package risk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/insureco/claims-backend/internal/models"
)

// ErrScoringUnavailable marks external scorer failures; the detector then
// reports the rule-based result unchanged.
var ErrScoringUnavailable = errors.New("external risk scoring unavailable")

// Opinion is an external scorer's view of a claim.
type Opinion struct {
	Score         int // 1-10
	Level         models.RiskLevel
	Reasoning     string
	FlaggedIssues []string
}

// Scorer supplies an independent risk score for a claim.
type Scorer interface {
	AssessRisk(ctx context.Context, claim models.Claim, policy models.Policy, history []models.Claim) (Opinion, error)
}

// thresholds splits a factor's observed value into low/medium/high bands.
type thresholds struct {
	low, medium, high float64
}

// Factor weights and banding. The weighted sum is renormalized over the
// factors actually computable for a claim, so skipped factors do not drag the
// score toward zero.
var (
	frequencyWeight = 0.25
	frequencyBands  = thresholds{low: 1, medium: 3, high: 5} // claims per trailing year

	amountWeight = 0.30
	amountBands  = thresholds{low: 0.3, medium: 0.6, high: 0.9} // fraction of coverage

	recencyWeight = 0.15
	recencyBands  = thresholds{low: 180, medium: 90, high: 30} // days since last claim

	policyAgeWeight = 0.10
	policyAgeBands  = thresholds{low: 365, medium: 180, high: 30} // days since policy start
)

// Sub-scores assigned to each band.
const (
	bandGood = 0.2
	bandMid  = 0.5
	bandBad  = 0.9
)

// Blend weights when an external score is available.
const (
	ruleWeight     = 0.4
	externalWeight = 0.6
)

// Detector assesses claims. The external scorer may be nil or unreachable;
// assessment then degrades to rule-based output.
type Detector struct {
	scorer Scorer
	logger *slog.Logger
	now    func() time.Time
}

// New builds a detector around an optional external scorer.
func New(scorer Scorer, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{scorer: scorer, logger: logger, now: time.Now}
}

// Assess produces the claim's risk assessment. It never fails: external
// scoring errors are logged and the rule-based result stands alone.
func (d *Detector) Assess(ctx context.Context, claim models.Claim, policy models.Policy, history []models.Claim) models.RiskAssessment {
	rule := d.ruleBased(claim, policy, history)

	var opinion *Opinion
	if d.scorer != nil {
		o, err := d.scorer.AssessRisk(ctx, claim, policy, history)
		if err != nil {
			d.logger.Warn("external risk scoring failed, using rule-based only", "claim", claim.ClaimID, "error", err)
		} else {
			opinion = &o
		}
	}

	return combine(rule, opinion)
}

// ruleResult is the rule-based portion before blending.
type ruleResult struct {
	score          int
	level          models.RiskLevel
	recommendation models.Recommendation
	factors        []models.RiskFactor
	flaggedIssues  []string
	reasoning      string
}

func (d *Detector) ruleBased(claim models.Claim, policy models.Policy, history []models.Claim) ruleResult {
	now := d.now()
	var (
		factors     []models.RiskFactor
		flagged     []string
		totalScore  float64
		totalWeight float64
	)

	// 1. Claim frequency over the trailing year.
	oneYearAgo := now.AddDate(-1, 0, 0)
	claimsThisYear := 0
	for _, c := range history {
		if c.CreatedAtTime().After(oneYearAgo) {
			claimsThisYear++
		}
	}
	score, impact := factorRisk(float64(claimsThisYear), frequencyBands, true)
	factors = append(factors, models.RiskFactor{
		Factor: "Claim Frequency",
		Value:  fmt.Sprintf("%d claims in past year", claimsThisYear),
		Impact: impact,
		Score:  score,
	})
	totalScore += score * frequencyWeight
	totalWeight += frequencyWeight
	if float64(claimsThisYear) >= frequencyBands.high {
		flagged = append(flagged, "High claim frequency detected")
	}

	// 2. Claim amount vs coverage, when the ceiling is known.
	if policy.CoverageAmount > 0 && claim.ClaimAmount > 0 {
		ratio := claim.ClaimAmount / policy.CoverageAmount
		score, impact := factorRisk(ratio, amountBands, true)
		factors = append(factors, models.RiskFactor{
			Factor: "Claim Amount",
			Value:  fmt.Sprintf("%.1f%% of coverage", ratio*100),
			Impact: impact,
			Score:  score,
		})
		totalScore += score * amountWeight
		totalWeight += amountWeight
		if claim.ClaimAmount > policy.CoverageAmount {
			flagged = append(flagged, "Claim amount exceeds coverage limit")
		}
	}

	// 3. Time since the last non-rejected claim.
	if last, ok := lastNonRejected(history); ok {
		days := int(now.Sub(last.CreatedAtTime()).Hours() / 24)
		score, impact := factorRisk(float64(days), recencyBands, false)
		factors = append(factors, models.RiskFactor{
			Factor: "Time Since Last Claim",
			Value:  fmt.Sprintf("%d days", days),
			Impact: impact,
			Score:  score,
		})
		totalScore += score * recencyWeight
		totalWeight += recencyWeight
		if float64(days) < recencyBands.high {
			flagged = append(flagged, "Recent claim filed within 30 days")
		}
	} else {
		factors = append(factors, models.RiskFactor{
			Factor: "Time Since Last Claim",
			Value:  "First claim",
			Impact: models.ImpactPositive,
			Score:  bandGood,
		})
		totalScore += bandGood * recencyWeight
		totalWeight += recencyWeight
	}

	// 4. Policy age; newer policies are riskier.
	if start := policy.StartDateTime(); !start.IsZero() {
		days := int(now.Sub(start).Hours() / 24)
		score, impact := factorRisk(float64(days), policyAgeBands, false)
		factors = append(factors, models.RiskFactor{
			Factor: "Policy Age",
			Value:  fmt.Sprintf("%d days", days),
			Impact: impact,
			Score:  score,
		})
		totalScore += score * policyAgeWeight
		totalWeight += policyAgeWeight
		if float64(days) < policyAgeBands.high {
			flagged = append(flagged, "Claim filed on very new policy")
		}
	}

	normalized := 0.5
	if totalWeight > 0 {
		normalized = totalScore / totalWeight
	}
	final := int(math.Round(normalized*9)) + 1 // 1-10 scale

	level := levelFor(final)
	return ruleResult{
		score:          final,
		level:          level,
		recommendation: recommendationFor(level),
		factors:        factors,
		flaggedIssues:  flagged,
		reasoning:      reasoning(factors, flagged, level),
	}
}

// factorRisk bands one observed value. When higherIsWorse is false, larger
// values are safer (days elapsed).
func factorRisk(value float64, bands thresholds, higherIsWorse bool) (float64, models.Impact) {
	if higherIsWorse {
		switch {
		case value <= bands.low:
			return bandGood, models.ImpactPositive
		case value <= bands.medium:
			return bandMid, models.ImpactNeutral
		default:
			return bandBad, models.ImpactNegative
		}
	}
	switch {
	case value >= bands.low:
		return bandGood, models.ImpactPositive
	case value >= bands.medium:
		return bandMid, models.ImpactNeutral
	default:
		return bandBad, models.ImpactNegative
	}
}

// lastNonRejected finds the most recent prior claim whose status is not rejected.
func lastNonRejected(history []models.Claim) (models.Claim, bool) {
	eligible := make([]models.Claim, 0, len(history))
	for _, c := range history {
		if c.Status != models.StatusRejected {
			eligible = append(eligible, c)
		}
	}
	if len(eligible) == 0 {
		return models.Claim{}, false
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].CreatedAtTime().After(eligible[j].CreatedAtTime())
	})
	return eligible[0], true
}

func levelFor(score int) models.RiskLevel {
	switch {
	case score <= 3:
		return models.RiskLow
	case score <= 6:
		return models.RiskMedium
	default:
		return models.RiskHigh
	}
}

func recommendationFor(level models.RiskLevel) models.Recommendation {
	switch level {
	case models.RiskLow:
		return models.RecommendApprove
	case models.RiskHigh:
		return models.RecommendFlag
	default:
		return models.RecommendReview
	}
}

// combine blends the rule-based score with the external opinion when present.
func combine(rule ruleResult, opinion *Opinion) models.RiskAssessment {
	assessment := models.RiskAssessment{
		RiskScore:      rule.score,
		RiskLevel:      rule.level,
		Factors:        rule.factors,
		Recommendation: rule.recommendation,
		Reasoning:      rule.reasoning,
		FlaggedIssues:  rule.flaggedIssues,
	}
	if opinion == nil {
		return assessment
	}

	blended := int(math.Round(float64(rule.score)*ruleWeight + float64(opinion.Score)*externalWeight))
	level := levelFor(blended)

	assessment.RiskScore = blended
	assessment.RiskLevel = level
	assessment.Recommendation = recommendationFor(level)
	if opinion.Reasoning != "" {
		assessment.Reasoning = rule.reasoning + " AI assessment: " + opinion.Reasoning
	}
	assessment.FlaggedIssues = append(assessment.FlaggedIssues, opinion.FlaggedIssues...)
	assessment.AIAnalysis = &models.AIRiskAnalysis{
		Score:     opinion.Score,
		Level:     opinion.Level,
		Reasoning: opinion.Reasoning,
	}
	return assessment
}

// reasoning renders a short narrative listing factor names by impact.
func reasoning(factors []models.RiskFactor, flagged []string, level models.RiskLevel) string {
	var positives, negatives []string
	for _, f := range factors {
		switch f.Impact {
		case models.ImpactPositive:
			positives = append(positives, f.Factor)
		case models.ImpactNegative:
			negatives = append(negatives, f.Factor)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Risk assessment: %s.", strings.ToUpper(string(level)))
	if len(positives) > 0 {
		fmt.Fprintf(&b, " Positive factors: %s.", strings.Join(positives, ", "))
	}
	if len(negatives) > 0 {
		fmt.Fprintf(&b, " Concerns: %s.", strings.Join(negatives, ", "))
	}
	if len(flagged) > 0 {
		fmt.Fprintf(&b, " Flagged issues: %s.", strings.Join(flagged, "; "))
	}
	return b.String()
}
