// Package authz provides authorization utilities.
package authz

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/insureco/claims-backend/internal/models"
)

// ErrUnauthorized is returned when a user is not authorized to access a resource.
var ErrUnauthorized = errors.New("unauthorized")

// ErrForbidden is returned when a user lacks the role required for an action.
var ErrForbidden = errors.New("forbidden")

const (
	devBypassHeader  = "x-user-sub"
	devBypassRoleHdr = "x-user-role"

	// RoleAdmin marks claim reviewers.
	RoleAdmin = "admin"
)

// --- small utils ---

// headerLookup returns the value of a header key from a map.
func headerLookup(h map[string]string, key string) string {
	if len(h) == 0 {
		return ""
	}
	lk := strings.ToLower(key)
	for k, v := range h {
		if strings.ToLower(k) == lk {
			return v
		}
	}
	return ""
}

// stringIf returns the string value of an interface{} if it is a non-empty string.
func stringIf(v any) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return ""
}

// claimsFromAuthHeader decodes the JWT payload from the Authorization header (unverified).
func claimsFromAuthHeader(headers map[string]string) map[string]any {
	auth := headerLookup(headers, "Authorization")
	if auth == "" {
		return nil
	}
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		auth = strings.TrimSpace(auth[len("bearer "):])
	}
	parts := strings.Split(auth, ".")
	if len(parts) != 3 {
		return nil
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil
	}
	var m map[string]any
	if json.Unmarshal(payload, &m) != nil {
		return nil
	}
	return m
}

// FromAPIGWv2 extracts the caller's identity from an HTTP API (v2) request.
func FromAPIGWv2(req events.APIGatewayV2HTTPRequest, devBypass bool) (models.UserClaims, error) {
	// 0) Dev bypass headers
	if devBypass {
		if sub := strings.TrimSpace(headerLookup(req.Headers, devBypassHeader)); sub != "" {
			return models.UserClaims{
				Sub:  sub,
				Role: headerLookup(req.Headers, devBypassRoleHdr),
			}, nil
		}
	}

	// 1) JWT authorizer claims
	if req.RequestContext.Authorizer != nil && req.RequestContext.Authorizer.JWT != nil {
		claims := req.RequestContext.Authorizer.JWT.Claims
		if sub := claims["sub"]; sub != "" {
			return models.UserClaims{
				Sub:   sub,
				Email: claims["email"],
				Role:  claims["custom:role"],
			}, nil
		}
	}

	// 2) Fallback: parse JWT from Authorization header (unverified)
	if m := claimsFromAuthHeader(req.Headers); m != nil {
		if sub := stringIf(m["sub"]); sub != "" {
			return models.UserClaims{
				Sub:   sub,
				Email: stringIf(m["email"]),
				Role:  stringIf(m["custom:role"]),
			}, nil
		}
	}

	return models.UserClaims{}, ErrUnauthorized
}

// RequireAdmin checks the caller carries the admin role.
func RequireAdmin(user models.UserClaims) error {
	if user.Role != RoleAdmin {
		return ErrForbidden
	}
	return nil
}
