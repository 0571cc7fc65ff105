package gemini

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/insureco/claims-backend/internal/models"
)

// RiskOpinion is the model's independent risk view of a claim.
type RiskOpinion struct {
	RiskScore     int              `json:"riskScore"` // 1-10
	RiskLevel     models.RiskLevel `json:"riskLevel"`
	Reasoning     string           `json:"reasoning"`
	FlaggedIssues []string         `json:"flaggedIssues"`
}

const riskPromptFmt = `Analyze this insurance claim for risk assessment.

CLAIM DATA:
%s

POLICY DATA:
%s

CLAIM HISTORY:
%s

Evaluate:
1. Claim amount vs policy coverage limits
2. Frequency of claims in history
3. Time since last claim
4. Consistency of claim details
5. Any red flags or anomalies

Return a JSON object:
{
  "riskScore": number (1-10, where 10 is highest risk),
  "riskLevel": "low" | "medium" | "high",
  "reasoning": "detailed explanation",
  "flaggedIssues": ["list of concerns if any"]
}`

// AssessRisk asks the model for its own risk score of the claim. Failures
// surface as ErrUnavailable; the risk detector then reports rule-based output
// unmodified.
func (c *Client) AssessRisk(ctx context.Context, claim models.Claim, policy models.Policy, history []models.Claim) (RiskOpinion, error) {
	claimJSON, _ := json.MarshalIndent(claim, "", "  ")
	policyJSON, _ := json.MarshalIndent(policy, "", "  ")
	historyJSON, _ := json.MarshalIndent(history, "", "  ")

	prompt := fmt.Sprintf(riskPromptFmt, claimJSON, policyJSON, historyJSON)
	text, err := c.generate(ctx, "", []part{{Text: prompt}})
	if err != nil {
		return RiskOpinion{}, err
	}

	raw, ok := extractJSON(text)
	if !ok {
		return RiskOpinion{}, fmt.Errorf("no JSON in risk reply: %w", ErrUnavailable)
	}
	var opinion RiskOpinion
	if err := json.Unmarshal(raw, &opinion); err != nil {
		return RiskOpinion{}, fmt.Errorf("parse risk reply: %w", ErrUnavailable)
	}
	if opinion.RiskScore < 1 || opinion.RiskScore > 10 {
		return RiskOpinion{}, fmt.Errorf("risk score %d out of range: %w", opinion.RiskScore, ErrUnavailable)
	}
	return opinion, nil
}
