package auth

import (
	"context"
	"time"

	apperrors "github.com/jrsteele09/genzmobo-auth/internal/errors"
	"github.com/jrsteele09/genzmobo-auth/mail"
	"github.com/jrsteele09/genzmobo-auth/otp"
	"github.com/jrsteele09/genzmobo-auth/token"
	"github.com/jrsteele09/genzmobo-auth/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type RegisterParams struct {
	Email       string
	Username    string
	Password    string
	DisplayName string
}

type Registration struct {
	UserID       string
	Email        string
	OTPExpiresAt time.Time
}

// Register creates an unverified account and mails it a verification code.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*Registration, error) {
	params.Email = users.NormalizeEmail(params.Email)
	if err := users.ValidatePasswordStrength(params.Password); err != nil {
		return nil, apperrors.Newf(apperrors.WeakPassword, "%s", err.Error())
	}
	if _, err := s.deps.Users.GetByEmail(ctx, params.Email); err == nil {
		return nil, apperrors.New(apperrors.EmailTaken)
	} else if !errors.Is(err, users.ErrNotFound) {
		return nil, apperrors.Wrap(apperrors.Internal, err)
	}
	if _, err := s.deps.Users.GetByUsername(ctx, params.Username); err == nil {
		return nil, apperrors.New(apperrors.UsernameTaken)
	} else if !errors.Is(err, users.ErrNotFound) {
		return nil, apperrors.Wrap(apperrors.Internal, err)
	}

	hash, err := users.HashPassword(params.Password)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, err)
	}
	code, err := s.uniqueOTP(ctx)
	if err != nil {
		return nil, err
	}

	now := s.nowTime()
	expiresAt := now.Add(s.otpExpiry)
	user := users.NewUser(params.Email, params.Username, params.DisplayName, hash, now)
	user.OTPCode = code
	user.OTPExpiresAt = &expiresAt
	if err := s.deps.Users.Create(ctx, user); err != nil {
		if errors.Is(err, users.ErrDuplicate) {
			return nil, apperrors.New(apperrors.EmailTaken)
		}
		return nil, apperrors.Wrap(apperrors.Internal, err)
	}

	body, err := mail.VerifyBody(user.Username, code, s.otpMinutes())
	if err == nil {
		s.send(ctx, user.Email, mail.VerifySubject, body)
	}
	log.Info().Str("user_id", user.ID).Msg("registered")
	return &Registration{UserID: user.ID, Email: user.Email, OTPExpiresAt: expiresAt}, nil
}

// VerifyOTP marks the account verified. Every call counts against the
// email's attempt limit; success clears it.
func (s *Service) VerifyOTP(ctx context.Context, email, code string) error {
	email = users.NormalizeEmail(email)
	if err := s.deps.Attempts.Attempt(ctx, email); err != nil {
		return err
	}
	user, err := s.deps.Users.GetByEmail(ctx, email)
	if errors.Is(err, users.ErrNotFound) {
		return apperrors.New(apperrors.UserNotFound)
	}
	if err != nil {
		return apperrors.Wrap(apperrors.Internal, err)
	}
	if user.IsVerified {
		return apperrors.New(apperrors.AlreadyVerified)
	}
	if err := s.checkOTP(user, code); err != nil {
		return err
	}
	if err := s.deps.Users.MarkVerified(ctx, user.ID, s.nowTime()); err != nil {
		return apperrors.Wrap(apperrors.Internal, err)
	}
	s.resetAttempts(ctx, email)
	log.Info().Str("user_id", user.ID).Msg("email verified")
	return nil
}

// ForgotPassword stores a fresh OTP for the account and mails it.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.deps.Users.GetByEmail(ctx, users.NormalizeEmail(email))
	if errors.Is(err, users.ErrNotFound) {
		return apperrors.New(apperrors.UserNotFound)
	}
	if err != nil {
		return apperrors.Wrap(apperrors.Internal, err)
	}
	code, err := s.uniqueOTP(ctx)
	if err != nil {
		return err
	}
	now := s.nowTime()
	if err := s.deps.Users.SetOTP(ctx, user.ID, code, now.Add(s.otpExpiry), now); err != nil {
		return apperrors.Wrap(apperrors.Internal, err)
	}
	body, err := mail.ResetBody(code, s.otpMinutes())
	if err == nil {
		s.send(ctx, user.Email, mail.ResetSubject, body)
	}
	return nil
}

// VerifyResetOTP consumes a password reset OTP and exchanges it for a
// short-lived reset token.
func (s *Service) VerifyResetOTP(ctx context.Context, email, code string) (string, error) {
	email = users.NormalizeEmail(email)
	if err := s.deps.Attempts.Attempt(ctx, email); err != nil {
		return "", err
	}
	user, err := s.deps.Users.GetByEmail(ctx, email)
	if errors.Is(err, users.ErrNotFound) {
		return "", apperrors.New(apperrors.UserNotFound)
	}
	if err != nil {
		return "", apperrors.Wrap(apperrors.Internal, err)
	}
	if err := s.checkOTP(user, code); err != nil {
		return "", err
	}
	if err := s.deps.Users.ClearOTP(ctx, user.ID, s.nowTime()); err != nil {
		return "", apperrors.Wrap(apperrors.Internal, err)
	}
	s.resetAttempts(ctx, email)

	resetToken, err := s.deps.Issuer.IssueResetToken(user.ID)
	if err != nil {
		return "", apperrors.Wrap(apperrors.Internal, err)
	}
	return resetToken, nil
}

// ResetPassword sets a new password for the holder of a reset token from
// VerifyResetOTP. A successful reset ends the user's session.
func (s *Service) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	if err := users.ValidatePasswordStrength(newPassword); err != nil {
		return apperrors.Newf(apperrors.WeakPassword, "%s", err.Error())
	}

	user, err := s.resetTarget(ctx, resetToken)
	if err != nil {
		return err
	}
	hash, err := users.HashPassword(newPassword)
	if err != nil {
		return apperrors.Wrap(apperrors.Internal, err)
	}
	if err := s.deps.Users.ResetPassword(ctx, user.ID, hash, s.nowTime()); err != nil {
		return apperrors.Wrap(apperrors.Internal, err)
	}
	log.Info().Str("user_id", user.ID).Msg("password reset")
	return nil
}

// resetTarget only accepts reset tokens. A bare OTP never reaches the user
// lookup, so the reset endpoint cannot be used to guess codes.
func (s *Service) resetTarget(ctx context.Context, resetToken string) (*users.User, error) {
	claims, err := s.deps.Verifier.Verify(ctx, resetToken, token.KindReset)
	if err != nil {
		return nil, err
	}
	user, err := s.deps.Users.GetByID(ctx, claims.Subject)
	if errors.Is(err, users.ErrNotFound) {
		return nil, apperrors.New(apperrors.UserNotFound)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, err)
	}
	return user, nil
}

func (s *Service) checkOTP(user *users.User, code string) error {
	if user.OTPCode == "" || user.OTPCode != code {
		return apperrors.New(apperrors.InvalidOTP)
	}
	if user.OTPExpired(s.nowTime()) {
		return apperrors.New(apperrors.OTPExpired)
	}
	return nil
}

// uniqueOTP returns a code no other user currently holds.
func (s *Service) uniqueOTP(ctx context.Context) (string, error) {
	for range otpUniqueTries {
		code, err := otp.Generate()
		if err != nil {
			return "", apperrors.Wrap(apperrors.Internal, err)
		}
		_, err = s.deps.Users.GetByOTP(ctx, code)
		if errors.Is(err, users.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", apperrors.Wrap(apperrors.Internal, err)
		}
	}
	return "", apperrors.Newf(apperrors.Internal, "could not allocate a unique OTP")
}

func (s *Service) resetAttempts(ctx context.Context, email string) {
	if err := s.deps.Attempts.Reset(ctx, email); err != nil {
		log.Warn().Err(err).Str("email", email).Msg("failed to reset otp attempts")
	}
}

// send delivers mail synchronously but never fails the caller.
func (s *Service) send(ctx context.Context, to, subject, body string) {
	if err := s.deps.Mail.Send(ctx, to, subject, body); err != nil {
		log.Error().Err(err).Str("to", to).Str("subject", subject).Msg("failed to send email")
	}
}

func (s *Service) otpMinutes() int {
	return int(s.otpExpiry / time.Minute)
}
