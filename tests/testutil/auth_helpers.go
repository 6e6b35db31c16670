package testutil

import (
	"strings"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/iwenyou/cabinet-quotes-api/middleware"
)

// MockValidatedClaims builds validated claims shaped the way EnsureValidToken
// produces them after verifying a real Auth0 token, including the namespaced
// role claim.
func MockValidatedClaims(subject, issuer, role string, scopes []string) *validator.ValidatedClaims {
	return &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{
			Issuer:  issuer,
			Subject: subject,
		},
		CustomClaims: &middleware.CustomClaims{
			Scope: strings.Join(scopes, " "),
			Role:  role,
		},
	}
}

// SetMockAuthContext populates a Gin context with everything the auth
// middleware sets for an authenticated request
func SetMockAuthContext(c *gin.Context, auth0ID, role, accessToken string) {
	c.Set("user_id", auth0ID)
	c.Set("validated_claims", MockValidatedClaims(auth0ID, "https://test.auth0.com/", role, nil))
	c.Set("access_token", accessToken)
}

// MockAuthMiddleware authenticates every request as the given Auth0 subject.
// Route-level tests install it in place of EnsureValidToken.
func MockAuthMiddleware(auth0ID, role, accessToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		SetMockAuthContext(c, auth0ID, role, accessToken)
		c.Next()
	}
}
