// Package main serves policy reads and the OCR extraction endpoint used to
// prefill claim forms from an uploaded policy document.
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"strings"

	"github.com/insureco/claims-backend/internal/authz"
	"github.com/insureco/claims-backend/internal/awsutil"
	"github.com/insureco/claims-backend/internal/config"
	"github.com/insureco/claims-backend/internal/ddb"
	"github.com/insureco/claims-backend/internal/gemini"
	"github.com/insureco/claims-backend/internal/httpx"
	"github.com/insureco/claims-backend/internal/logging"
	"github.com/insureco/claims-backend/internal/models"
	"github.com/insureco/claims-backend/internal/validate"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
)

// extractRequest is the expected JSON body for the extraction endpoint.
type extractRequest struct {
	Document    string `json:"document"` // base64-encoded file content
	ContentType string `json:"contentType"`
}

// App holds the application state, including configuration and AWS clients.
type App struct {
	env      config.Env
	logger   *slog.Logger
	policies *ddb.PolicyRepo
	llm      *gemini.Client
}

func main() {
	env := config.MustLoad()
	logger := logging.New(env.LogLevel)

	clients, err := awsutil.NewClients(context.Background(), env.Region)
	if err != nil {
		log.Fatal(err)
	}

	app := &App{
		env:      env,
		logger:   logger,
		policies: &ddb.PolicyRepo{DB: clients.DDB, Table: env.PoliciesTable},
		llm: gemini.NewClient(gemini.Config{
			Endpoint: env.GeminiEndpoint,
			APIKey:   env.GeminiAPIKey,
			Model:    env.GeminiModel,
			Timeout:  env.GeminiTimeout,
		}, logger),
	}
	lambda.Start(app.handler)
}

// handler dispatches the policy routes.
func (a *App) handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	user, err := authz.FromAPIGWv2(req, a.env.DevBypassAuth)
	if err != nil {
		return httpx.Error(http.StatusUnauthorized, "unauthorized", "missing or invalid credentials")
	}

	if req.RequestContext.HTTP.Method == http.MethodPost && strings.HasSuffix(req.RawPath, "/extract") {
		return a.extract(ctx, req.Body)
	}
	if id := strings.TrimSpace(req.PathParameters["id"]); id != "" {
		return a.get(ctx, user, id)
	}
	if number := strings.TrimSpace(req.QueryStringParameters["number"]); number != "" {
		return a.findByNumber(ctx, user, number)
	}
	return httpx.Error(http.StatusBadRequest, "invalid_request", "missing policy id or number")
}

// get returns one policy by id. Non-admins only see their own.
func (a *App) get(ctx context.Context, user models.UserClaims, policyID string) (events.APIGatewayV2HTTPResponse, error) {
	policy, err := a.policies.Get(ctx, policyID)
	if err != nil {
		return a.lookupError(policyID, err)
	}
	return a.respond(user, policy)
}

// findByNumber resolves a policy by its printed policy number.
func (a *App) findByNumber(ctx context.Context, user models.UserClaims, number string) (events.APIGatewayV2HTTPResponse, error) {
	policy, err := a.policies.FindByNumber(ctx, number)
	if err != nil {
		return a.lookupError(number, err)
	}
	return a.respond(user, policy)
}

func (a *App) respond(user models.UserClaims, policy models.Policy) (events.APIGatewayV2HTTPResponse, error) {
	if authz.RequireAdmin(user) != nil && policy.UserID != "" && policy.UserID != user.Sub {
		// Hide other users' policies rather than confirming they exist.
		return httpx.Error(http.StatusNotFound, "not_found", "policy not found")
	}
	return httpx.OK(http.StatusOK, policy)
}

func (a *App) lookupError(ref string, err error) (events.APIGatewayV2HTTPResponse, error) {
	if errors.Is(err, ddb.ErrNotFound) {
		return httpx.Error(http.StatusNotFound, "not_found", "policy not found")
	}
	a.logger.Error("policy lookup failed", "policy", ref, "error", err)
	return httpx.Error(http.StatusInternalServerError, "db_error", "could not load policy")
}

// extract runs OCR over an uploaded policy document and returns the
// recognized fields.
func (a *App) extract(ctx context.Context, body string) (events.APIGatewayV2HTTPResponse, error) {
	if !a.llm.Configured() {
		return httpx.Error(http.StatusServiceUnavailable, "ai_unavailable", "document extraction is not configured")
	}

	var req extractRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		return httpx.Error(http.StatusBadRequest, "invalid_request", "invalid json")
	}
	if err := validate.MimeType(req.ContentType); err != nil {
		return httpx.Error(http.StatusBadRequest, "invalid_request", err.Error())
	}

	data, err := base64.StdEncoding.DecodeString(req.Document)
	if err != nil {
		return httpx.Error(http.StatusBadRequest, "invalid_request", "document must be base64 encoded")
	}
	if err := validate.DocumentSize(int64(len(data))); err != nil {
		return httpx.Error(http.StatusBadRequest, "invalid_request", err.Error())
	}

	extracted, err := a.llm.ExtractPolicy(ctx, data, req.ContentType)
	if err != nil {
		a.logger.Error("policy extraction failed", "error", err)
		return httpx.Error(http.StatusServiceUnavailable, "ai_unavailable", "could not extract document")
	}
	return httpx.OK(http.StatusOK, extracted)
}
