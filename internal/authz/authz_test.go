package authz

import (
	"encoding/base64"
	"errors"
	"testing"

	"github.com/aws/aws-lambda-go/events"

	"github.com/insureco/claims-backend/internal/models"
)

func TestDevBypass(t *testing.T) {
	t.Parallel()

	req := events.APIGatewayV2HTTPRequest{
		Headers: map[string]string{"X-User-Sub": "dev-user", "X-User-Role": "admin"},
	}

	user, err := FromAPIGWv2(req, true)
	if err != nil {
		t.Fatalf("expected bypass to succeed: %v", err)
	}
	if user.Sub != "dev-user" || user.Role != "admin" {
		t.Errorf("unexpected user: %+v", user)
	}

	// The same headers are ignored when the bypass is off.
	if _, err := FromAPIGWv2(req, false); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized without bypass, got %v", err)
	}
}

func TestAuthorizerClaims(t *testing.T) {
	t.Parallel()

	req := events.APIGatewayV2HTTPRequest{
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			Authorizer: &events.APIGatewayV2HTTPRequestContextAuthorizerDescription{
				JWT: &events.APIGatewayV2HTTPRequestContextAuthorizerJWTDescription{
					Claims: map[string]string{
						"sub":         "cognito-sub",
						"email":       "user@example.com",
						"custom:role": "admin",
					},
				},
			},
		},
	}

	user, err := FromAPIGWv2(req, false)
	if err != nil {
		t.Fatalf("expected authorizer claims to resolve: %v", err)
	}
	if user.Sub != "cognito-sub" || user.Email != "user@example.com" || user.Role != "admin" {
		t.Errorf("unexpected user: %+v", user)
	}
}

func TestAuthHeaderFallback(t *testing.T) {
	t.Parallel()

	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"header-sub","email":"h@example.com"}`))
	token := "eyJhbGciOiJIUzI1NiJ9." + payload + ".sig"

	req := events.APIGatewayV2HTTPRequest{
		Headers: map[string]string{"Authorization": "Bearer " + token},
	}

	user, err := FromAPIGWv2(req, false)
	if err != nil {
		t.Fatalf("expected header fallback to resolve: %v", err)
	}
	if user.Sub != "header-sub" || user.Email != "h@example.com" {
		t.Errorf("unexpected user: %+v", user)
	}
}

func TestMissingIdentity(t *testing.T) {
	t.Parallel()

	cases := []events.APIGatewayV2HTTPRequest{
		{},
		{Headers: map[string]string{"Authorization": "Bearer not-a-jwt"}},
		{Headers: map[string]string{"Authorization": "Bearer a.!!.c"}},
	}
	for i, req := range cases {
		if _, err := FromAPIGWv2(req, false); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("case %d: expected ErrUnauthorized, got %v", i, err)
		}
	}
}

func TestRequireAdmin(t *testing.T) {
	t.Parallel()

	if err := RequireAdmin(models.UserClaims{Role: RoleAdmin}); err != nil {
		t.Errorf("admin should pass: %v", err)
	}
	if err := RequireAdmin(models.UserClaims{Role: "customer"}); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	if err := RequireAdmin(models.UserClaims{}); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for empty role, got %v", err)
	}
}
