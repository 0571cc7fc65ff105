// Package main attaches an additional document to an existing claim and
// returns a presigned S3 upload URL for it.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/insureco/claims-backend/internal/authz"
	"github.com/insureco/claims-backend/internal/awsutil"
	"github.com/insureco/claims-backend/internal/config"
	"github.com/insureco/claims-backend/internal/ddb"
	"github.com/insureco/claims-backend/internal/httpx"
	"github.com/insureco/claims-backend/internal/logging"
	"github.com/insureco/claims-backend/internal/models"
	"github.com/insureco/claims-backend/internal/s3io"
	"github.com/insureco/claims-backend/internal/validate"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/oklog/ulid/v2"
)

// presignRequest is the expected JSON body: one document to attach.
type presignRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
}

// presignResponse carries the presigned URL and the new document's identity.
type presignResponse struct {
	ClaimID    string            `json:"claimId"`
	DocumentID string            `json:"documentId"`
	S3Key      string            `json:"s3Key"`
	UploadURL  string            `json:"uploadUrl"`
	Headers    map[string]string `json:"headers"`
	ExpiresIn  int               `json:"expiresIn"`
}

// App holds the application state, including configuration and AWS clients.
type App struct {
	env    config.Env
	logger *slog.Logger
	s3p    *s3.PresignClient
	claims *ddb.ClaimRepo
}

func main() {
	env := config.MustLoad()
	logger := logging.New(env.LogLevel)

	clients, err := awsutil.NewClients(context.Background(), env.Region)
	if err != nil {
		log.Fatal(err)
	}

	app := &App{
		env:    env,
		logger: logger,
		s3p:    s3.NewPresignClient(clients.S3),
		claims: &ddb.ClaimRepo{DB: clients.DDB, Table: env.ClaimsTable},
	}
	lambda.Start(app.handler)
}

// handler attaches one document to the claim in the path and presigns its upload.
func (a *App) handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	user, err := authz.FromAPIGWv2(req, a.env.DevBypassAuth)
	if err != nil {
		return httpx.Error(http.StatusUnauthorized, "unauthorized", "missing or invalid credentials")
	}

	claimID := strings.TrimSpace(req.PathParameters["id"])
	if claimID == "" {
		return httpx.Error(http.StatusBadRequest, "invalid_request", "missing claim id")
	}

	body, err := parseRequest(req.Body)
	if err != nil {
		return httpx.Error(http.StatusBadRequest, "invalid_request", err.Error())
	}

	claim, err := a.claims.Get(ctx, user.Sub, claimID)
	if err != nil {
		if errors.Is(err, ddb.ErrNotFound) {
			return httpx.Error(http.StatusNotFound, "not_found", "claim not found")
		}
		a.logger.Error("claim lookup failed", "claim", claimID, "error", err)
		return httpx.Error(http.StatusInternalServerError, "db_error", "could not load claim")
	}
	if err := validate.DocumentCount(len(claim.Documents) + 1); err != nil {
		return httpx.Error(http.StatusBadRequest, "invalid_request", err.Error())
	}

	docID := ulid.Make().String()
	doc := models.Document{
		ID:           docID,
		OriginalName: body.Filename,
		MimeType:     body.ContentType,
		S3Key:        s3io.BuildKey(user.Sub, claimID, docID, filepath.Ext(body.Filename)),
	}

	if err := a.claims.AttachDocument(ctx, user.Sub, claimID, doc); err != nil {
		if errors.Is(err, ddb.ErrTerminalStatus) {
			return httpx.Error(http.StatusConflict, "claim_closed", "claim is already decided")
		}
		a.logger.Error("attach document failed", "claim", claimID, "error", err)
		return httpx.Error(http.StatusInternalServerError, "db_error", "could not attach document")
	}

	meta := map[string]string{
		"claim_id":    claimID,
		"user_id":     user.Sub,
		"document_id": docID,
	}
	url, ttl, err := s3io.PresignPut(ctx, a.s3p, a.env.Bucket, doc.S3Key, doc.MimeType, meta, a.env.PresignTTL)
	if err != nil {
		a.logger.Error("presign failed", "claim", claimID, "error", err)
		return httpx.Error(http.StatusInternalServerError, "presign_error", "could not presign upload")
	}

	return httpx.OK(http.StatusOK, presignResponse{
		ClaimID:    claimID,
		DocumentID: docID,
		S3Key:      doc.S3Key,
		UploadURL:  url,
		Headers:    s3io.UploadHeaders(user.Sub, claimID, docID, doc.MimeType),
		ExpiresIn:  int(ttl.Seconds()),
	})
}

// parseRequest parses and validates the attach request body.
func parseRequest(body string) (presignRequest, error) {
	var req presignRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		return req, errors.New("invalid json")
	}
	if err := validate.Filename(req.Filename); err != nil {
		return req, err
	}
	if err := validate.MimeType(req.ContentType); err != nil {
		return req, err
	}
	return req, nil
}
