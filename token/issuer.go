package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Issued is a signed token together with its revocation handle.
type Issued struct {
	Token     string
	ID        string
	ExpiresAt time.Time
}

// Issuer mints tokens. It has no side effects; persisting what it returns is
// the caller's job.
type Issuer struct {
	signer        Signer
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	resetExpiry   time.Duration
	nowFunc       func() time.Time
	newID         func() string
}

type IssuerOption func(*Issuer)

func WithExpiries(access, refresh, reset time.Duration) IssuerOption {
	return func(i *Issuer) {
		i.accessExpiry = access
		i.refreshExpiry = refresh
		i.resetExpiry = reset
	}
}

func WithIssuerClock(now func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.nowFunc = now
	}
}

func NewIssuer(signer Signer, options ...IssuerOption) *Issuer {
	i := &Issuer{
		signer:        signer,
		accessExpiry:  15 * time.Minute,
		refreshExpiry: 7 * 24 * time.Hour,
		resetExpiry:   15 * time.Minute,
		nowFunc:       time.Now,
		newID:         uuid.NewString,
	}
	for _, opt := range options {
		opt(i)
	}
	return i
}

func (i *Issuer) IssueAccessToken(subject string) (Issued, error) {
	return i.issue(subject, KindAccess, i.accessExpiry, i.newID())
}

func (i *Issuer) IssueRefreshToken(subject string) (Issued, error) {
	return i.issue(subject, KindRefresh, i.refreshExpiry, i.newID())
}

// IssueResetToken returns a password-reset token. It has no jti and so
// cannot be revoked individually.
func (i *Issuer) IssueResetToken(subject string) (string, error) {
	issued, err := i.issue(subject, KindReset, i.resetExpiry, "")
	if err != nil {
		return "", err
	}
	return issued.Token, nil
}

func (i *Issuer) issue(subject string, kind Kind, ttl time.Duration, id string) (Issued, error) {
	now := i.nowFunc()
	claims := &Claims{
		Use: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := i.signer.Sign(claims)
	if err != nil {
		return Issued{}, err
	}
	TokensIssuedTotal.WithLabelValues(string(kind)).Inc()
	return Issued{
		Token:     signed,
		ID:        id,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
