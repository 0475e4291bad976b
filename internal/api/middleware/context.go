package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"socialpulse/internal/auth"
)

type contextKey string

const claimsKey contextKey = "auth_claims"

// SetClaims stores the verified token claims in the request context.
func SetClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// GetClaims retrieves the verified token claims set by Authenticate.
func GetClaims(r *http.Request) (*auth.Claims, bool) {
	claims, ok := r.Context().Value(claimsKey).(*auth.Claims)
	return claims, ok
}

// GetClientID is a shortcut for the tenant scope of the request.
func GetClientID(r *http.Request) (uuid.UUID, bool) {
	claims, ok := GetClaims(r)
	if !ok {
		return uuid.Nil, false
	}
	return claims.ClientID, true
}
