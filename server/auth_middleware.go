package server

import (
	"context"
	"net/http"
	"strings"

	apperrors "github.com/jrsteele09/genzmobo-auth/internal/errors"
	"github.com/jrsteele09/genzmobo-auth/token"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeyClaims stores the verified access token claims
const ContextKeyClaims ContextKey = "claims"

// RequireAuth is middleware that validates a Bearer access token.
// Verification includes the revocation check, so a logged out token is
// rejected with TOKEN_REVOKED.
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			raw, err := bearerToken(r)
			if err != nil {
				writeError(w, err)
				return
			}

			claims, err := s.verifier.Verify(r.Context(), raw, token.KindAccess)
			if err != nil {
				writeError(w, err)
				return
			}

			next(w, r.WithContext(context.WithValue(r.Context(), ContextKeyClaims, claims)))
		}
	}
}

// ClaimsFromContext returns the claims RequireAuth stored on the request.
func ClaimsFromContext(ctx context.Context) (*token.Claims, bool) {
	claims, ok := ctx.Value(ContextKeyClaims).(*token.Claims)
	return claims, ok && claims != nil
}

func bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", apperrors.Newf(apperrors.InvalidToken, "Missing Authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", apperrors.Newf(apperrors.InvalidToken, "Invalid Authorization header format")
	}

	raw := strings.TrimSpace(parts[1])
	if raw == "" {
		return "", apperrors.Newf(apperrors.InvalidToken, "Empty token")
	}
	return raw, nil
}
