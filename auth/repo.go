package auth

import (
	"context"
	"time"

	"github.com/jrsteele09/genzmobo-auth/token"
)

// TokenVerifier is satisfied by *token.Verifier.
type TokenVerifier interface {
	Verify(ctx context.Context, raw string, kind token.Kind) (*token.Claims, error)
}

// Revoker is satisfied by *revocation.Store.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
}

// AttemptLimiter is satisfied by *otp.Limiter.
type AttemptLimiter interface {
	Attempt(ctx context.Context, email string) error
	Reset(ctx context.Context, email string) error
}
