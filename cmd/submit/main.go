// Package main handles claim submission: it validates the request, runs the
// processing pipeline and returns presigned upload URLs for the documents.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/insureco/claims-backend/internal/authz"
	"github.com/insureco/claims-backend/internal/awsutil"
	"github.com/insureco/claims-backend/internal/config"
	"github.com/insureco/claims-backend/internal/ddb"
	"github.com/insureco/claims-backend/internal/gemini"
	"github.com/insureco/claims-backend/internal/httpx"
	"github.com/insureco/claims-backend/internal/logging"
	"github.com/insureco/claims-backend/internal/models"
	"github.com/insureco/claims-backend/internal/pipeline"
	"github.com/insureco/claims-backend/internal/risk"
	"github.com/insureco/claims-backend/internal/s3io"
	"github.com/insureco/claims-backend/internal/validate"
	"github.com/insureco/claims-backend/internal/verifier"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/oklog/ulid/v2"
)

// documentInput describes one file the client intends to upload.
type documentInput struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// submitRequest is the expected JSON body for a claim submission.
type submitRequest struct {
	PolicyID    string           `json:"policyId"`
	Type        models.ClaimType `json:"type"`
	Description string           `json:"description"`
	ClaimAmount float64          `json:"claimAmount"`
	Documents   []documentInput  `json:"documents"`
}

// uploadTarget tells the client where and how to PUT one document.
type uploadTarget struct {
	DocumentID string            `json:"documentId"`
	S3Key      string            `json:"s3Key"`
	UploadURL  string            `json:"uploadUrl"`
	Headers    map[string]string `json:"headers"`
	ExpiresIn  int               `json:"expiresIn"`
}

// submitResponse carries the processed claim plus its upload targets.
type submitResponse struct {
	Claim   models.Claim   `json:"claim"`
	Uploads []uploadTarget `json:"uploads,omitempty"`
}

// App holds the application state, including configuration and AWS clients.
type App struct {
	env      config.Env
	logger   *slog.Logger
	s3p      *s3.PresignClient
	claims   *ddb.ClaimRepo
	policies *ddb.PolicyRepo
	pipe     *pipeline.Pipeline
}

func main() {
	env := config.MustLoad()
	logger := logging.New(env.LogLevel)

	clients, err := awsutil.NewClients(context.Background(), env.Region)
	if err != nil {
		log.Fatal(err)
	}

	llm := gemini.NewClient(gemini.Config{
		Endpoint: env.GeminiEndpoint,
		APIKey:   env.GeminiAPIKey,
		Model:    env.GeminiModel,
		Timeout:  env.GeminiTimeout,
	}, logger)

	docs := &s3io.Store{Client: clients.S3, Bucket: env.Bucket, MaxBytes: validate.MaxDocumentBytes}
	ver := verifier.New(pipeline.GeminiAnalyzer{Client: llm}, docs, logger)
	det := risk.New(pipeline.GeminiScorer{Client: llm}, logger)

	app := &App{
		env:      env,
		logger:   logger,
		s3p:      s3.NewPresignClient(clients.S3),
		claims:   &ddb.ClaimRepo{DB: clients.DDB, Table: env.ClaimsTable},
		policies: &ddb.PolicyRepo{DB: clients.DDB, Table: env.PoliciesTable},
		pipe:     pipeline.New(ver, det, logger),
	}
	lambda.Start(app.handler)
}

// handler processes a claim submission end to end.
func (a *App) handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	user, err := authz.FromAPIGWv2(req, a.env.DevBypassAuth)
	if err != nil {
		return httpx.Error(http.StatusUnauthorized, "unauthorized", "missing or invalid credentials")
	}

	body, err := a.parseAndValidate(req.Body)
	if err != nil {
		return httpx.Error(http.StatusBadRequest, "invalid_request", err.Error())
	}

	claimID := ulid.Make().String()
	claim, documents := a.buildClaim(claimID, user.Sub, body)

	policy := a.loadPolicy(ctx, body.PolicyID, user.Sub)
	history, err := a.claims.HistoryForUser(ctx, user.Sub, claimID)
	if err != nil {
		a.logger.Warn("history load failed, scoring without it", "user", user.Sub, "error", err)
	}

	state := a.pipe.Run(ctx, pipeline.State{
		Claim:     claim,
		Documents: documents,
		Policy:    policy,
		History:   history,
	})

	claim = finishClaim(claim, state)
	if err := a.claims.Put(ctx, claim); err != nil {
		a.logger.Error("claim put failed", "claim", claimID, "error", err)
		return httpx.Error(http.StatusInternalServerError, "db_error", "could not store claim")
	}

	uploads, err := a.presignUploads(ctx, user.Sub, claim)
	if err != nil {
		a.logger.Error("presign failed", "claim", claimID, "error", err)
		return httpx.Error(http.StatusInternalServerError, "presign_error", "could not presign uploads")
	}

	return httpx.OK(http.StatusCreated, submitResponse{Claim: claim, Uploads: uploads})
}

// parseAndValidate parses the JSON body and validates all input fields.
func (a *App) parseAndValidate(body string) (submitRequest, error) {
	var req submitRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		return req, errors.New("invalid json")
	}

	if err := validate.ClaimType(req.Type); err != nil {
		return req, err
	}
	if err := validate.ClaimAmount(req.ClaimAmount); err != nil {
		return req, err
	}
	if err := validate.Description(req.Description); err != nil {
		return req, err
	}
	if err := validate.DocumentCount(len(req.Documents)); err != nil {
		return req, err
	}
	for _, d := range req.Documents {
		if err := validate.Filename(d.Filename); err != nil {
			return req, err
		}
		if err := validate.MimeType(d.ContentType); err != nil {
			return req, err
		}
		if err := validate.DocumentSize(d.Size); err != nil {
			return req, err
		}
	}
	return req, nil
}

// buildClaim assembles the claim record and its document entries.
func (a *App) buildClaim(claimID, userID string, req submitRequest) (models.Claim, []models.Document) {
	now := ddb.NowISO()
	pk, sk := ddb.MakeClaimKeys(userID, claimID)

	documents := make([]models.Document, 0, len(req.Documents))
	for _, d := range req.Documents {
		docID := ulid.Make().String()
		documents = append(documents, models.Document{
			ID:           docID,
			OriginalName: d.Filename,
			MimeType:     d.ContentType,
			SizeBytes:    d.Size,
			S3Key:        s3io.BuildKey(userID, claimID, docID, filepath.Ext(d.Filename)),
		})
	}

	claim := models.Claim{
		PK: pk, SK: sk,
		ClaimID:     claimID,
		UserID:      userID,
		PolicyID:    req.PolicyID,
		Type:        req.Type,
		Description: req.Description,
		ClaimAmount: req.ClaimAmount,
		Documents:   documents,
		Status:      models.StatusProcessing,
		StatusHistory: []models.StatusHistoryEntry{
			{Status: models.StatusProcessing, Timestamp: now, Note: "Claim submitted for processing"},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	return claim, documents
}

// loadPolicy fetches the referenced policy. Lookup failures degrade to an
// empty policy so processing still completes.
func (a *App) loadPolicy(ctx context.Context, policyID, userID string) models.Policy {
	if policyID == "" {
		return models.Policy{}
	}
	policy, err := a.policies.Get(ctx, policyID)
	if err != nil {
		a.logger.Warn("policy lookup failed, scoring without it", "policy", policyID, "error", err)
		return models.Policy{}
	}
	if policy.UserID != "" && policy.UserID != userID {
		a.logger.Warn("policy belongs to another user", "policy", policyID, "user", userID)
		return models.Policy{}
	}
	return policy
}

// finishClaim folds the pipeline outcome into the stored claim record.
func finishClaim(claim models.Claim, state pipeline.State) models.Claim {
	claim.Verification = state.Verification
	claim.RiskAssessment = state.RiskAssessment
	claim.Status = state.RecommendedStatus
	claim.StatusHistory = append(claim.StatusHistory, models.StatusHistoryEntry{
		Status:    state.RecommendedStatus,
		Timestamp: ddb.NowISO(),
		Note:      "Automated processing complete",
	})
	claim.UpdatedAt = ddb.NowISO()
	return claim
}

// presignUploads generates one presigned PUT per attached document.
func (a *App) presignUploads(ctx context.Context, userID string, claim models.Claim) ([]uploadTarget, error) {
	uploads := make([]uploadTarget, 0, len(claim.Documents))
	for _, doc := range claim.Documents {
		meta := map[string]string{
			"claim_id":    claim.ClaimID,
			"user_id":     userID,
			"document_id": doc.ID,
		}
		url, ttl, err := s3io.PresignPut(ctx, a.s3p, a.env.Bucket, doc.S3Key, doc.MimeType, meta, a.env.PresignTTL)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, uploadTarget{
			DocumentID: doc.ID,
			S3Key:      doc.S3Key,
			UploadURL:  url,
			Headers:    s3io.UploadHeaders(userID, claim.ClaimID, doc.ID, doc.MimeType),
			ExpiresIn:  int(ttl.Seconds()),
		})
	}
	return uploads, nil
}
