// Package main handles the admin review decision: moving a claim to a new
// status with an audit note.
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
	"github.com/insureco/claims-backend/internal/config"
	"github.com/insureco/claims-backend/internal/ddb"
	"github.com/insureco/claims-backend/internal/httpx"
	"github.com/insureco/claims-backend/internal/logging"
	"github.com/insureco/claims-backend/internal/models"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
)

// reviewRequest is the expected JSON body for a status decision.
type reviewRequest struct {
	Status models.ClaimStatus `json:"status"`
	Note   string             `json:"note"`
}

// App holds the application state, including configuration and AWS clients.
type App struct {
	env    config.Env
	logger *slog.Logger
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
		claims: &ddb.ClaimRepo{DB: clients.DDB, Table: env.ClaimsTable},
	}
	lambda.Start(app.handler)
}

// handler applies a reviewer's status decision to one claim.
func (a *App) handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	user, err := authz.FromAPIGWv2(req, a.env.DevBypassAuth)
	if err != nil {
		return httpx.Error(http.StatusUnauthorized, "unauthorized", "missing or invalid credentials")
	}
	if err := authz.RequireAdmin(user); err != nil {
		return httpx.Error(http.StatusForbidden, "forbidden", "admin access required")
	}

	claimID := strings.TrimSpace(req.PathParameters["id"])
	if claimID == "" {
		return httpx.Error(http.StatusBadRequest, "invalid_request", "missing claim id")
	}

	var body reviewRequest
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		return httpx.Error(http.StatusBadRequest, "invalid_request", "invalid json")
	}

	claim, err := a.claims.GetByID(ctx, claimID)
	if err != nil {
		if errors.Is(err, ddb.ErrNotFound) {
			return httpx.Error(http.StatusNotFound, "not_found", "claim not found")
		}
		a.logger.Error("claim lookup failed", "claim", claimID, "error", err)
		return httpx.Error(http.StatusInternalServerError, "db_error", "could not load claim")
	}

	if !models.CanTransition(claim.Status, body.Status) {
		return httpx.Error(http.StatusConflict, "invalid_transition",
			"cannot move claim from "+string(claim.Status)+" to "+string(body.Status))
	}

	actor := user.Email
	if actor == "" {
		actor = user.Sub
	}
	updated, err := a.claims.UpdateStatus(ctx, claim.UserID, claimID, body.Status, body.Note, actor)
	if err != nil {
		switch {
		case errors.Is(err, ddb.ErrNotFound):
			return httpx.Error(http.StatusNotFound, "not_found", "claim not found")
		case errors.Is(err, ddb.ErrTerminalStatus):
			return httpx.Error(http.StatusConflict, "claim_closed", "claim is already decided")
		}
		a.logger.Error("status update failed", "claim", claimID, "error", err)
		return httpx.Error(http.StatusInternalServerError, "db_error", "could not update claim")
	}

	a.logger.Info("claim reviewed", "claim", claimID, "status", body.Status, "by", actor)
	return httpx.OK(http.StatusOK, updated)
}
