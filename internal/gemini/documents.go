package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/insureco/claims-backend/internal/models"
)

// DocumentAnalysis is the model's judgment of one uploaded claim document.
type DocumentAnalysis struct {
	IsValid         bool     `json:"isValid"`
	Confidence      int      `json:"confidence"` // 0-100
	DetectedType    string   `json:"detectedType"`
	Issues          []string `json:"issues"`
	MissingFields   []string `json:"missingFields"`
	Recommendations []string `json:"recommendations"`
}

const analyzePromptFmt = `Analyze this %s document for an insurance claim.

Check for:
1. Document authenticity indicators
2. All required fields are present and readable
3. Dates are valid and not expired
4. Any signs of tampering or inconsistencies
5. Document quality assessment

Return a JSON object with:
{
  "isValid": boolean,
  "confidence": number (0-100),
  "detectedType": "document type label",
  "issues": ["list of any issues found"],
  "missingFields": ["list of missing required fields"],
  "recommendations": ["suggestions for the user"]
}`

// AnalyzeDocument asks the model to judge one document's content against the
// claim type. Failures surface as ErrUnavailable so the verifier can fall back
// to filename matching.
func (c *Client) AnalyzeDocument(ctx context.Context, data []byte, mimeType string, claimType models.ClaimType) (DocumentAnalysis, error) {
	prompt := fmt.Sprintf(analyzePromptFmt, claimType)
	text, err := c.generate(ctx, "", []part{
		{Text: prompt},
		{InlineData: &inlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(data)}},
	})
	if err != nil {
		return DocumentAnalysis{}, err
	}

	raw, ok := extractJSON(text)
	if !ok {
		return DocumentAnalysis{}, fmt.Errorf("no JSON in analysis reply: %w", ErrUnavailable)
	}
	var analysis DocumentAnalysis
	if err := json.Unmarshal(raw, &analysis); err != nil {
		return DocumentAnalysis{}, fmt.Errorf("parse analysis reply: %w", ErrUnavailable)
	}
	return analysis, nil
}

// PolicyExtract holds the flat policy fields OCR'd out of an uploaded document.
type PolicyExtract struct {
	PolicyNumber   string  `json:"policyNumber,omitempty"`
	HolderName     string  `json:"holderName,omitempty"`
	Type           string  `json:"type,omitempty"`
	CoverageAmount float64 `json:"coverageAmount,omitempty"`
	StartDate      string  `json:"startDate,omitempty"`
	EndDate        string  `json:"endDate,omitempty"`
	PremiumAmount  float64 `json:"premiumAmount,omitempty"`
	ClaimAmount    float64 `json:"claimAmount,omitempty"`
	RawText        string  `json:"rawText,omitempty"` // fallback when no JSON could be parsed
}

const extractPrompt = `Extract all text from this insurance document.

IMPORTANT: Return ONLY a flat JSON object (no nested objects) with these exact field names:
{
  "policyNumber": "the policy number",
  "holderName": "policy holder's full name",
  "type": "health or vehicle",
  "coverageAmount": coverage amount as number,
  "startDate": "start date in YYYY-MM-DD format",
  "endDate": "end date in YYYY-MM-DD format",
  "premiumAmount": premium amount as number,
  "claimAmount": total claim amount if mentioned, as number
}

Only include fields that you can extract from the document. Use null for missing values.
Do NOT create nested objects or complex structures.`

// ExtractPolicy performs OCR on a policy document and returns the recognized fields.
func (c *Client) ExtractPolicy(ctx context.Context, data []byte, mimeType string) (PolicyExtract, error) {
	text, err := c.generate(ctx, "", []part{
		{Text: extractPrompt},
		{InlineData: &inlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(data)}},
	})
	if err != nil {
		return PolicyExtract{}, err
	}

	raw, ok := extractJSON(text)
	if !ok {
		return PolicyExtract{RawText: text}, nil
	}
	var extract PolicyExtract
	if err := json.Unmarshal(raw, &extract); err != nil {
		return PolicyExtract{RawText: text}, nil
	}
	return extract, nil
}
