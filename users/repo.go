package users

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("user not found")
	ErrDuplicate = errors.New("user already exists")
)

// Session is what login and refresh write to the user record.
type Session struct {
	RefreshToken  string
	AccessTokenID string
	At            time.Time
}

type UserRepo interface {
	// Create assigns the user an ID. ErrDuplicate if the email or username is taken.
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	// GetByIdentifier matches identifier against email or username.
	GetByIdentifier(ctx context.Context, identifier string) (*User, error)
	// GetByRefreshToken matches the stored refresh token exactly.
	GetByRefreshToken(ctx context.Context, refreshToken string) (*User, error)
	GetByOTP(ctx context.Context, code string) (*User, error)

	// StartSession records a login.
	StartSession(ctx context.Context, id string, session Session) error
	// RotateSession replaces the session tokens. A non-empty expectedRefreshToken
	// makes the write conditional on it still being stored; ErrNotFound otherwise.
	RotateSession(ctx context.Context, id, expectedRefreshToken string, session Session) error
	// EndSession unsets the refresh token and current access token id.
	EndSession(ctx context.Context, id string, at time.Time) error

	MarkVerified(ctx context.Context, id string, at time.Time) error
	SetOTP(ctx context.Context, id, code string, expiresAt, at time.Time) error
	ClearOTP(ctx context.Context, id string, at time.Time) error
	// ResetPassword stores the new hash, clears the OTP and ends the session.
	ResetPassword(ctx context.Context, id, passwordHash string, at time.Time) error

	Ping(ctx context.Context) error
}
