// Package auth coordinates the session lifecycle: login, refresh and logout,
// plus the account flows (registration, OTP verification, password reset)
// that feed it.
package auth

import (
	"context"
	"time"

	apperrors "github.com/jrsteele09/genzmobo-auth/internal/errors"
	"github.com/jrsteele09/genzmobo-auth/mail"
	"github.com/jrsteele09/genzmobo-auth/token"
	"github.com/jrsteele09/genzmobo-auth/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	defaultOTPExpiry = 5 * time.Minute
	otpUniqueTries   = 10
)

// Deps holds all dependencies for the Service.
type Deps struct {
	Users       users.UserRepo
	Issuer      *token.Issuer
	Verifier    TokenVerifier
	Revocations Revoker
	Mail        mail.Relay
	Attempts    AttemptLimiter
}

type Service struct {
	deps           Deps
	strictRotation bool
	otpExpiry      time.Duration
	nowTime        func() time.Time
}

type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// WithStrictRotation makes refresh conditional on the presented token still
// being the stored one at write time. Two concurrent refreshes with the same
// token then yield exactly one success.
func WithStrictRotation(strict bool) ServiceOption {
	return func(s *Service) {
		s.strictRotation = strict
	}
}

func WithOTPExpiry(d time.Duration) ServiceOption {
	return func(s *Service) {
		s.otpExpiry = d
	}
}

func NewService(deps Deps, options ...ServiceOption) (*Service, error) {
	if deps.Users == nil {
		return nil, errors.New("[NewService] Users repo is required")
	}
	if deps.Issuer == nil {
		return nil, errors.New("[NewService] Issuer is required")
	}
	if deps.Verifier == nil {
		return nil, errors.New("[NewService] Verifier is required")
	}
	if deps.Revocations == nil {
		return nil, errors.New("[NewService] Revocations store is required")
	}
	if deps.Mail == nil {
		return nil, errors.New("[NewService] Mail relay is required")
	}
	if deps.Attempts == nil {
		return nil, errors.New("[NewService] Attempts limiter is required")
	}

	s := &Service{
		deps:      deps,
		otpExpiry: defaultOTPExpiry,
		nowTime:   time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// TokenPair is the result of login and refresh. The refresh token goes to a
// cookie; the access token goes in the response body.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
}

type LoginResult struct {
	TokenPair
	User *users.User
}

// Login authenticates by email or username. Unknown identifier, wrong password
// and unverified email all fail with InvalidCredentials. Nothing is persisted
// unless both tokens were issued.
func (s *Service) Login(ctx context.Context, identifier, password string) (result *LoginResult, err error) {
	defer func() { recordSession("login", err) }()

	user, err := s.deps.Users.GetByIdentifier(ctx, identifier)
	if errors.Is(err, users.ErrNotFound) {
		log.Info().Str("reason", "unknown_identifier").Msg("login rejected")
		return nil, apperrors.New(apperrors.InvalidCredentials)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, err)
	}
	if !user.CheckPassword(password) {
		log.Info().Str("user_id", user.ID).Str("reason", "wrong_password").Msg("login rejected")
		return nil, apperrors.New(apperrors.InvalidCredentials)
	}
	if !user.IsVerified {
		log.Info().Str("user_id", user.ID).Str("reason", "unverified").Msg("login rejected")
		return nil, apperrors.New(apperrors.InvalidCredentials)
	}

	pair, accessID, err := s.issuePair(user.ID)
	if err != nil {
		return nil, err
	}
	now := s.nowTime()
	if err := s.deps.Users.StartSession(ctx, user.ID, users.Session{
		RefreshToken:  pair.RefreshToken,
		AccessTokenID: accessID,
		At:            now,
	}); err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, err)
	}

	user.RefreshToken = pair.RefreshToken
	user.CurrentTokenJTI = accessID
	user.LastLoginAt = &now
	log.Info().Str("user_id", user.ID).Msg("login")
	return &LoginResult{TokenPair: pair, User: user}, nil
}

// Refresh rotates both tokens. The presented refresh token must be the one
// stored for its user and must itself verify.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (pair *TokenPair, err error) {
	defer func() { recordSession("refresh", err) }()

	if refreshToken == "" {
		return nil, apperrors.New(apperrors.MissingRefreshToken)
	}
	user, err := s.deps.Users.GetByRefreshToken(ctx, refreshToken)
	if errors.Is(err, users.ErrNotFound) {
		return nil, apperrors.New(apperrors.InvalidOrRevokedRefreshToken)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, err)
	}

	claims, err := s.deps.Verifier.Verify(ctx, refreshToken, token.KindRefresh)
	if err != nil {
		// An unreachable revocation store is an outage, not a bad token.
		if apperrors.KindOf(err) == apperrors.RevocationStoreUnavailable {
			return nil, err
		}
		return nil, apperrors.Wrap(apperrors.InvalidOrRevokedRefreshToken, err)
	}
	if claims.Subject != user.ID {
		log.Warn().Str("user_id", user.ID).Str("sub", claims.Subject).Msg("refresh token subject mismatch")
		return nil, apperrors.New(apperrors.InvalidOrRevokedRefreshToken)
	}

	issued, accessID, err := s.issuePair(user.ID)
	if err != nil {
		return nil, err
	}
	expected := ""
	if s.strictRotation {
		expected = refreshToken
	}
	err = s.deps.Users.RotateSession(ctx, user.ID, expected, users.Session{
		RefreshToken:  issued.RefreshToken,
		AccessTokenID: accessID,
		At:            s.nowTime(),
	})
	if errors.Is(err, users.ErrNotFound) {
		return nil, apperrors.New(apperrors.InvalidOrRevokedRefreshToken)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, err)
	}
	return &issued, nil
}

// Logout revokes the access token for the rest of its lifetime and ends the
// stored session. A revocation store failure is logged and does not fail
// the logout.
func (s *Service) Logout(ctx context.Context, claims *token.Claims) (err error) {
	defer func() { recordSession("logout", err) }()

	if claims == nil || claims.Subject == "" || claims.ID == "" {
		return apperrors.New(apperrors.InvalidPayload)
	}

	var ttl time.Duration
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Sub(s.nowTime())
	}
	if err := s.deps.Revocations.Revoke(ctx, claims.ID, ttl); err != nil {
		log.Error().Err(err).Str("jti", claims.ID).Msg("failed to revoke access token on logout")
	}

	err = s.deps.Users.EndSession(ctx, claims.Subject, s.nowTime())
	if errors.Is(err, users.ErrNotFound) {
		log.Warn().Str("user_id", claims.Subject).Msg("logout for unknown user")
		return nil
	}
	if err != nil {
		return apperrors.Wrap(apperrors.Internal, err)
	}
	log.Info().Str("user_id", claims.Subject).Str("jti", claims.ID).Msg("logout")
	return nil
}

func (s *Service) issuePair(subject string) (TokenPair, string, error) {
	access, err := s.deps.Issuer.IssueAccessToken(subject)
	if err != nil {
		return TokenPair{}, "", apperrors.Wrap(apperrors.Internal, err)
	}
	refresh, err := s.deps.Issuer.IssueRefreshToken(subject)
	if err != nil {
		return TokenPair{}, "", apperrors.Wrap(apperrors.Internal, err)
	}
	return TokenPair{
		AccessToken:      access.Token,
		RefreshToken:     refresh.Token,
		RefreshExpiresAt: refresh.ExpiresAt,
	}, access.ID, nil
}

func recordSession(event string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = apperrors.KindOf(err).Code()
	}
	SessionEventsTotal.WithLabelValues(event, outcome).Inc()
}
