// Package main serves the claim help assistant: chat messages, session
// history and the quick-question list.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"strings"

	"github.com/insureco/claims-backend/internal/authz"
	"github.com/insureco/claims-backend/internal/awsutil"
	"github.com/insureco/claims-backend/internal/chat"
	"github.com/insureco/claims-backend/internal/config"
	"github.com/insureco/claims-backend/internal/ddb"
	"github.com/insureco/claims-backend/internal/gemini"
	"github.com/insureco/claims-backend/internal/httpx"
	"github.com/insureco/claims-backend/internal/logging"
	"github.com/insureco/claims-backend/internal/models"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
)

// messageRequest is the expected JSON body for a chat message.
type messageRequest struct {
	SessionID string         `json:"sessionId"`
	Message   string         `json:"message"`
	Context   map[string]any `json:"context"`
}

// App holds the application state, including configuration and AWS clients.
type App struct {
	env       config.Env
	logger    *slog.Logger
	assistant *chat.Assistant
	llm       *gemini.Client
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

	store := chat.NewStore(env.ChatSessionTTL, env.ChatSessionCap)
	claims := &ddb.ClaimRepo{DB: clients.DDB, Table: env.ClaimsTable}

	app := &App{
		env:       env,
		logger:    logger,
		assistant: chat.NewAssistant(store, llm, claims, logger),
		llm:       llm,
	}
	lambda.Start(app.handler)
}

// handler dispatches the chat routes.
func (a *App) handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	if req.RequestContext.HTTP.Method == http.MethodGet && strings.HasSuffix(req.RawPath, "/help/quick") {
		return httpx.OK(http.StatusOK, map[string]any{"questions": chat.QuickQuestions()})
	}

	user, err := authz.FromAPIGWv2(req, a.env.DevBypassAuth)
	if err != nil {
		return httpx.Error(http.StatusUnauthorized, "unauthorized", "missing or invalid credentials")
	}

	sessionID := strings.TrimSpace(req.PathParameters["sessionId"])
	switch req.RequestContext.HTTP.Method {
	case http.MethodPost:
		return a.message(ctx, user, req.Body)
	case http.MethodGet:
		return a.history(user, sessionID)
	case http.MethodDelete:
		return a.clear(user, sessionID)
	}
	return httpx.Error(http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
}

// message appends one user message and returns the assistant's reply.
func (a *App) message(ctx context.Context, user models.UserClaims, body string) (events.APIGatewayV2HTTPResponse, error) {
	if !a.llm.Configured() {
		return httpx.Error(http.StatusServiceUnavailable, "ai_unavailable", "the assistant is not configured")
	}

	var req messageRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		return httpx.Error(http.StatusBadRequest, "invalid_request", "invalid json")
	}
	if strings.TrimSpace(req.Message) == "" {
		return httpx.Error(http.StatusBadRequest, "invalid_request", "message is required")
	}

	reply, err := a.assistant.Handle(ctx, req.SessionID, user.Sub, req.Message, req.Context)
	if err != nil {
		if errors.Is(err, chat.ErrNotSessionOwner) {
			// Same response as an unknown session; don't confirm it exists.
			return httpx.Error(http.StatusNotFound, "not_found", "session not found")
		}
		a.logger.Error("assistant reply failed", "session", req.SessionID, "error", err)
		return httpx.Error(http.StatusServiceUnavailable, "ai_unavailable", "the assistant could not reply")
	}
	return httpx.OK(http.StatusOK, reply)
}

// history returns the caller's stored session messages.
func (a *App) history(user models.UserClaims, sessionID string) (events.APIGatewayV2HTTPResponse, error) {
	session, ok := a.assistant.History(sessionID)
	if !ok || session.UserID != user.Sub {
		return httpx.Error(http.StatusNotFound, "not_found", "session not found")
	}
	return httpx.OK(http.StatusOK, session)
}

// clear drops the caller's session.
func (a *App) clear(user models.UserClaims, sessionID string) (events.APIGatewayV2HTTPResponse, error) {
	if session, ok := a.assistant.History(sessionID); !ok || session.UserID != user.Sub {
		return httpx.Error(http.StatusNotFound, "not_found", "session not found")
	}
	a.assistant.Clear(sessionID)
	return httpx.OK(http.StatusOK, map[string]any{"cleared": true})
}
