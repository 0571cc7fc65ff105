// Package main serves claim reads: the user's claim list, a single claim and
// the admin stats overview.
package main

import (
	"context"
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

// handler dispatches the claim read routes.
func (a *App) handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	user, err := authz.FromAPIGWv2(req, a.env.DevBypassAuth)
	if err != nil {
		return httpx.Error(http.StatusUnauthorized, "unauthorized", "missing or invalid credentials")
	}

	if strings.HasSuffix(req.RawPath, "/stats/overview") {
		return a.stats(ctx, user)
	}
	if id := strings.TrimSpace(req.PathParameters["id"]); id != "" {
		return a.get(ctx, user, id)
	}
	return a.list(ctx, user, req.QueryStringParameters)
}

// list returns claims visible to the caller, optionally filtered by status and
// type. Admins see the whole store and may scope to one user.
func (a *App) list(ctx context.Context, user models.UserClaims, query map[string]string) (events.APIGatewayV2HTTPResponse, error) {
	filter := ddb.Filter{
		Status: models.ClaimStatus(strings.TrimSpace(query["status"])),
		Type:   models.ClaimType(strings.TrimSpace(query["type"])),
		UserID: user.Sub,
	}
	if authz.RequireAdmin(user) == nil {
		filter.UserID = strings.TrimSpace(query["userId"])
	}

	items, err := a.claims.List(ctx, filter)
	if err != nil {
		a.logger.Error("claim list failed", "user", user.Sub, "error", err)
		return httpx.Error(http.StatusInternalServerError, "db_error", "could not list claims")
	}
	return httpx.OK(http.StatusOK, map[string]any{
		"claims": items,
		"count":  len(items),
	})
}

// get returns one claim. Non-admins only see their own.
func (a *App) get(ctx context.Context, user models.UserClaims, claimID string) (events.APIGatewayV2HTTPResponse, error) {
	var (
		claim models.Claim
		err   error
	)
	if authz.RequireAdmin(user) == nil {
		claim, err = a.claims.GetByID(ctx, claimID)
	} else {
		claim, err = a.claims.Get(ctx, user.Sub, claimID)
	}
	if err != nil {
		if errors.Is(err, ddb.ErrNotFound) {
			return httpx.Error(http.StatusNotFound, "not_found", "claim not found")
		}
		a.logger.Error("claim get failed", "claim", claimID, "error", err)
		return httpx.Error(http.StatusInternalServerError, "db_error", "could not load claim")
	}
	return httpx.OK(http.StatusOK, claim)
}

// overview aggregates store-wide claim counts and amounts.
type overview struct {
	Total               int                      `json:"total"`
	Pending             int                      `json:"pending"`
	Approved            int                      `json:"approved"`
	Rejected            int                      `json:"rejected"`
	TotalClaimAmount    float64                  `json:"totalClaimAmount"`
	ApprovedClaimAmount float64                  `json:"approvedClaimAmount"`
	ByType              map[models.ClaimType]int `json:"byType"`
	RiskDistribution    map[models.RiskLevel]int `json:"riskDistribution"`
}

// stats computes the admin dashboard overview.
func (a *App) stats(ctx context.Context, user models.UserClaims) (events.APIGatewayV2HTTPResponse, error) {
	if err := authz.RequireAdmin(user); err != nil {
		return httpx.Error(http.StatusForbidden, "forbidden", "admin access required")
	}

	items, err := a.claims.List(ctx, ddb.Filter{})
	if err != nil {
		a.logger.Error("claim scan failed", "error", err)
		return httpx.Error(http.StatusInternalServerError, "db_error", "could not load claims")
	}

	stats := overview{
		ByType:           map[models.ClaimType]int{},
		RiskDistribution: map[models.RiskLevel]int{},
	}
	for _, c := range items {
		stats.Total++
		stats.TotalClaimAmount += c.ClaimAmount
		stats.ByType[c.Type]++
		switch c.Status {
		case models.StatusApproved:
			stats.Approved++
			stats.ApprovedClaimAmount += c.ClaimAmount
		case models.StatusRejected:
			stats.Rejected++
		default:
			stats.Pending++
		}
		if c.RiskAssessment != nil {
			stats.RiskDistribution[c.RiskAssessment.RiskLevel]++
		}
	}
	return httpx.OK(http.StatusOK, stats)
}
