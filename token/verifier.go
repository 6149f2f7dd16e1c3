package token

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	apperrors "github.com/jrsteele09/genzmobo-auth/internal/errors"
	"github.com/rs/zerolog/log"
)

// RevocationChecker reports whether a token id has been revoked. An error means
// the answer is unknown.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type Verifier struct {
	signer      Signer
	revocations RevocationChecker
	failClosed  bool
	nowFunc     func() time.Time
}

type VerifierOption func(*Verifier)

// WithFailClosed rejects tokens whose revocation status cannot be read.
func WithFailClosed(failClosed bool) VerifierOption {
	return func(v *Verifier) {
		v.failClosed = failClosed
	}
}

func WithVerifierClock(now func() time.Time) VerifierOption {
	return func(v *Verifier) {
		v.nowFunc = now
	}
}

func NewVerifier(signer Signer, revocations RevocationChecker, options ...VerifierOption) *Verifier {
	v := &Verifier{
		signer:      signer,
		revocations: revocations,
		nowFunc:     time.Now,
	}
	for _, opt := range options {
		opt(v)
	}
	return v
}

// Verify checks signature, expiry, claim shape, kind and revocation, in that
// order. Expiry is checked before revocation so an expired token always
// reports TokenExpired.
func (v *Verifier) Verify(ctx context.Context, raw string, kind Kind) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, v.signer.GetVerificationKey,
		jwt.WithValidMethods([]string{v.signer.GetSigningMethod().Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.nowFunc),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		v.record(kind, "expired")
		return nil, apperrors.Wrap(apperrors.TokenExpired, err)
	default:
		v.record(kind, "invalid")
		return nil, apperrors.Wrap(apperrors.InvalidToken, err)
	}

	if claims.Use != kind {
		v.record(kind, "invalid")
		return nil, apperrors.Newf(apperrors.InvalidToken, "expected %s token, got %s", kind, claims.Use)
	}

	if claims.ID == "" || v.revocations == nil {
		v.record(kind, "ok")
		return claims, nil
	}

	revoked, err := v.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		if v.failClosed {
			v.record(kind, "store_unavailable")
			return nil, apperrors.Wrap(apperrors.RevocationStoreUnavailable, err)
		}
		RevocationFailOpenTotal.Inc()
		log.Warn().Err(err).Str("jti", claims.ID).Msg("revocation store unavailable, accepting token")
	} else if revoked {
		v.record(kind, "revoked")
		return nil, apperrors.New(apperrors.TokenRevoked)
	}

	v.record(kind, "ok")
	return claims, nil
}

func (v *Verifier) record(kind Kind, outcome string) {
	TokenVerificationsTotal.WithLabelValues(string(kind), outcome).Inc()
}
