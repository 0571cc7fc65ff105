// Package models defines the data models used in the application.
package models

import "time"

// ClaimType represents the category of an insurance claim.
type ClaimType string

// Supported claim types.
const (
	ClaimTypeHealth  ClaimType = "health"
	ClaimTypeVehicle ClaimType = "vehicle"
)

// ClaimStatus represents the lifecycle status of an insurance claim.
type ClaimStatus string

// Possible values for ClaimStatus.
const (
	StatusSubmitted   ClaimStatus = "submitted"
	StatusProcessing  ClaimStatus = "processing"
	StatusUnderReview ClaimStatus = "under_review"
	StatusApproved    ClaimStatus = "approved"
	StatusRejected    ClaimStatus = "rejected"
)

// IsTerminal reports whether s is a final status that no transition may leave.
func (s ClaimStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// CanTransition reports whether a claim may move from one status to another.
// Reviewer decisions (approved/rejected) are reachable from processing and
// under_review only; terminal states are never left.
func CanTransition(from, to ClaimStatus) bool {
	if from.IsTerminal() {
		return false
	}
	switch to {
	case StatusUnderReview:
		return from == StatusProcessing || from == StatusSubmitted
	case StatusApproved, StatusRejected:
		return from == StatusProcessing || from == StatusUnderReview
	default:
		return false
	}
}

// RiskLevel is the coarse low/medium/high classification of claim riskiness.
type RiskLevel string

// Possible values for RiskLevel.
const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Impact classifies how a risk factor contributes to the overall score.
type Impact string

// Possible values for Impact.
const (
	ImpactPositive Impact = "positive"
	ImpactNegative Impact = "negative"
	ImpactNeutral  Impact = "neutral"
)

// Recommendation is the suggested handling for an assessed claim.
type Recommendation string

// Possible values for Recommendation.
const (
	RecommendApprove Recommendation = "approve"
	RecommendReview  Recommendation = "review"
	RecommendFlag    Recommendation = "flag"
)

// StatusHistoryEntry records one append-only status transition on a claim.
type StatusHistoryEntry struct {
	Status    ClaimStatus `dynamodbav:"status" json:"status"`
	Timestamp string      `dynamodbav:"timestamp" json:"timestamp"` // ISO8601
	Note      string      `dynamodbav:"note" json:"note"`
	By        string      `dynamodbav:"by,omitempty" json:"by,omitempty"`
}

// Document represents a file attached to a claim. Immutable once attached.
type Document struct {
	ID           string `dynamodbav:"id" json:"id"`
	OriginalName string `dynamodbav:"original_name" json:"originalName"`
	MimeType     string `dynamodbav:"mime_type" json:"mimeType"`
	SizeBytes    int64  `dynamodbav:"size_bytes" json:"sizeBytes"`
	S3Key        string `dynamodbav:"s3_key" json:"s3Key"`
	ETag         string `dynamodbav:"etag,omitempty" json:"etag,omitempty"`
	UploadedAt   string `dynamodbav:"uploaded_at,omitempty" json:"uploadedAt,omitempty"` // set on finalize
}

// MissingDocument names a required document type absent from a claim.
type MissingDocument struct {
	Type string `dynamodbav:"type" json:"type"`
	Name string `dynamodbav:"name" json:"name"`
}

// DocumentCheck is the per-document outcome of verification.
type DocumentCheck struct {
	DocumentID   string `dynamodbav:"document_id" json:"documentId"`
	Filename     string `dynamodbav:"filename" json:"filename"`
	DetectedType string `dynamodbav:"detected_type,omitempty" json:"detectedType,omitempty"`
	IsValid      bool   `dynamodbav:"is_valid" json:"isValid"`
	Note         string `dynamodbav:"note,omitempty" json:"note,omitempty"`
	Error        string `dynamodbav:"error,omitempty" json:"error,omitempty"`
}

// VerificationResult is produced once per claim by the document verifier.
type VerificationResult struct {
	IsValid           bool              `dynamodbav:"is_valid" json:"isValid"`
	Confidence        int               `dynamodbav:"confidence" json:"confidence"` // 0-100
	DocumentsAnalyzed int               `dynamodbav:"documents_analyzed" json:"documentsAnalyzed"`
	Checks            []DocumentCheck   `dynamodbav:"checks,omitempty" json:"results,omitempty"`
	IdentifiedTypes   []string          `dynamodbav:"identified_types,omitempty" json:"identifiedTypes,omitempty"`
	MissingDocuments  []MissingDocument `dynamodbav:"missing_documents,omitempty" json:"missingDocuments,omitempty"`
	Issues            []string          `dynamodbav:"issues,omitempty" json:"issues,omitempty"`
	Recommendations   []string          `dynamodbav:"recommendations,omitempty" json:"recommendations,omitempty"`
	Error             string            `dynamodbav:"error,omitempty" json:"error,omitempty"`
}

// RiskFactor is one contributing input to a rule-based risk score.
type RiskFactor struct {
	Factor string  `dynamodbav:"factor" json:"factor"`
	Value  string  `dynamodbav:"value" json:"value"`
	Impact Impact  `dynamodbav:"impact" json:"impact"`
	Score  float64 `dynamodbav:"score" json:"score"`
}

// AIRiskAnalysis echoes the external model's view when it was reachable.
type AIRiskAnalysis struct {
	Score     int       `dynamodbav:"score" json:"score"`
	Level     RiskLevel `dynamodbav:"level" json:"level"`
	Reasoning string    `dynamodbav:"reasoning" json:"reasoning"`
}

// RiskAssessment is produced once per claim by the risk detector.
type RiskAssessment struct {
	RiskScore      int             `dynamodbav:"risk_score" json:"riskScore"` // 1-10
	RiskLevel      RiskLevel       `dynamodbav:"risk_level" json:"riskLevel"`
	Factors        []RiskFactor    `dynamodbav:"factors,omitempty" json:"factors,omitempty"`
	Recommendation Recommendation  `dynamodbav:"recommendation" json:"recommendation"`
	Reasoning      string          `dynamodbav:"reasoning,omitempty" json:"reasoning,omitempty"`
	FlaggedIssues  []string        `dynamodbav:"flagged_issues,omitempty" json:"flaggedIssues,omitempty"`
	AIAnalysis     *AIRiskAnalysis `dynamodbav:"ai_analysis,omitempty" json:"aiAnalysis,omitempty"`
	Error          string          `dynamodbav:"error,omitempty" json:"error,omitempty"`
}

// Claim represents an insurance claim filed by a user.
type Claim struct {
	// DynamoDB keys
	PK string `dynamodbav:"PK" json:"-"` // USER#<sub>
	SK string `dynamodbav:"SK" json:"-"` // CLAIM#<claimID> (ULID)

	ClaimID        string               `dynamodbav:"claim_id" json:"id"`
	UserID         string               `dynamodbav:"user_id" json:"userId"`
	PolicyID       string               `dynamodbav:"policy_id,omitempty" json:"policyId,omitempty"`
	Type           ClaimType            `dynamodbav:"claim_type" json:"type"`
	Description    string               `dynamodbav:"description" json:"description"`
	ClaimAmount    float64              `dynamodbav:"claim_amount" json:"claimAmount"`
	Documents      []Document           `dynamodbav:"documents,omitempty" json:"documents,omitempty"`
	Status         ClaimStatus          `dynamodbav:"status" json:"status"`
	StatusHistory  []StatusHistoryEntry `dynamodbav:"status_history" json:"statusHistory"`
	Verification   *VerificationResult  `dynamodbav:"verification,omitempty" json:"verification,omitempty"`
	RiskAssessment *RiskAssessment      `dynamodbav:"risk_assessment,omitempty" json:"riskAssessment,omitempty"`
	ReviewedBy     string               `dynamodbav:"reviewed_by,omitempty" json:"reviewedBy,omitempty"`
	CreatedAt      string               `dynamodbav:"created_at" json:"createdAt"` // ISO8601
	UpdatedAt      string               `dynamodbav:"updated_at" json:"updatedAt"`
}

// CreatedAtTime parses the claim's creation timestamp; the zero time means unknown.
func (c Claim) CreatedAtTime() time.Time {
	t, err := time.Parse(time.RFC3339, c.CreatedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Policy is an insurance contract. Read-only to this service.
type Policy struct {
	PK string `dynamodbav:"PK" json:"-"` // POLICY#<policyID>
	SK string `dynamodbav:"SK" json:"-"` // META

	PolicyID       string    `dynamodbav:"policy_id" json:"id"`
	PolicyNumber   string    `dynamodbav:"policy_number" json:"policyNumber"`
	UserID         string    `dynamodbav:"user_id" json:"userId"`
	HolderName     string    `dynamodbav:"holder_name" json:"holderName"`
	Type           ClaimType `dynamodbav:"policy_type" json:"type"`
	Provider       string    `dynamodbav:"provider,omitempty" json:"provider,omitempty"`
	CoverageAmount float64   `dynamodbav:"coverage_amount" json:"coverageAmount"`
	Deductible     float64   `dynamodbav:"deductible,omitempty" json:"deductible,omitempty"`
	Premium        float64   `dynamodbav:"premium,omitempty" json:"premium,omitempty"`
	StartDate      string    `dynamodbav:"start_date" json:"startDate"` // YYYY-MM-DD
	EndDate        string    `dynamodbav:"end_date" json:"endDate"`
	Status         string    `dynamodbav:"policy_status" json:"status"`
}

// StartDateTime parses the policy's start date; the zero time means unknown.
func (p Policy) StartDateTime() time.Time {
	if p.StartDate == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", p.StartDate)
	if err != nil {
		return time.Time{}
	}
	return t
}

// UserClaims represents the JWT claims extracted from the user's authentication token.
type UserClaims struct {
	Sub   string
	Email string
	Role  string
}
