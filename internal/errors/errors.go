package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the closed set of failure categories the service reports.
// Callers branch on Kind, never on message text.
type Kind int

const (
	Internal Kind = iota
	InvalidToken
	TokenExpired
	TokenRevoked
	InvalidCredentials
	InvalidOrRevokedRefreshToken
	MissingRefreshToken
	RevocationStoreUnavailable
	InvalidPayload
	InvalidRequest
	EmailTaken
	UsernameTaken
	WeakPassword
	UserNotFound
	AlreadyVerified
	InvalidOTP
	OTPExpired
	TooManyAttempts
	RateLimited
	ServiceUnavailable
)

type kindInfo struct {
	code    string
	status  int
	message string
}

var kinds = map[Kind]kindInfo{
	Internal:                     {"INTERNAL", http.StatusInternalServerError, "internal error"},
	InvalidToken:                 {"INVALID_TOKEN", http.StatusUnauthorized, "Invalid token"},
	TokenExpired:                 {"TOKEN_EXPIRED", http.StatusUnauthorized, "Token expired"},
	TokenRevoked:                 {"TOKEN_REVOKED", http.StatusUnauthorized, "Token revoked"},
	InvalidCredentials:           {"INVALID_CREDENTIALS", http.StatusUnauthorized, "Invalid credentials"},
	InvalidOrRevokedRefreshToken: {"INVALID_REFRESH_TOKEN", http.StatusUnauthorized, "Invalid or revoked refresh token"},
	MissingRefreshToken:          {"MISSING_REFRESH_TOKEN", http.StatusUnauthorized, "No refresh token"},
	RevocationStoreUnavailable:   {"REVOCATION_STORE_UNAVAILABLE", http.StatusServiceUnavailable, "Revocation store unavailable"},
	InvalidPayload:               {"INVALID_PAYLOAD", http.StatusInternalServerError, "Invalid token payload"},
	InvalidRequest:               {"INVALID_REQUEST", http.StatusBadRequest, "Invalid request"},
	EmailTaken:                   {"EMAIL_TAKEN", http.StatusBadRequest, "Email already taken"},
	UsernameTaken:                {"USERNAME_TAKEN", http.StatusBadRequest, "Username already taken"},
	WeakPassword:                 {"WEAK_PASSWORD", http.StatusBadRequest, "Weak password: must have uppercase, number, special char"},
	UserNotFound:                 {"USER_NOT_FOUND", http.StatusNotFound, "User not found"},
	AlreadyVerified:              {"ALREADY_VERIFIED", http.StatusBadRequest, "Already verified"},
	InvalidOTP:                   {"INVALID_OTP", http.StatusBadRequest, "Invalid OTP"},
	OTPExpired:                   {"OTP_EXPIRED", http.StatusBadRequest, "OTP expired"},
	TooManyAttempts:              {"TOO_MANY_ATTEMPTS", http.StatusTooManyRequests, "Too many OTP attempts. Account locked for 15 minutes."},
	RateLimited:                  {"RATE_LIMITED", http.StatusTooManyRequests, "Too many requests"},
	ServiceUnavailable:           {"SERVICE_UNAVAILABLE", http.StatusServiceUnavailable, "Service unavailable"},
}

// Code returns the machine-stable identifier for the kind.
func (k Kind) Code() string {
	return kinds[k].code
}

// Status returns the HTTP status the kind maps to at the boundary.
func (k Kind) Status() int {
	if info, ok := kinds[k]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

func (k Kind) String() string {
	if info, ok := kinds[k]; ok {
		return info.code
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error lets a bare Kind be used as an errors.Is target.
func (k Kind) Error() string {
	return kinds[k].message
}

// Error is a failure tagged with a Kind. Message is safe to show to callers;
// Err is the internal cause and is never rendered.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error or a bare Kind of the same kind.
func (e *Error) Is(target error) bool {
	switch t := target.(type) {
	case Kind:
		return e.Kind == t
	case *Error:
		return e.Kind == t.Kind
	}
	return false
}

// New creates an error of the given kind with its default message.
func New(kind Kind) *Error {
	return &Error{Kind: kind, Message: kinds[kind].message}
}

// Newf creates an error of the given kind with a custom message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap tags cause with kind, keeping the kind's default message.
func Wrap(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Message: kinds[kind].message, Err: cause}
}

// KindOf returns the Kind in err's chain, or Internal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var k Kind
	if errors.As(err, &k) {
		return k
	}
	return Internal
}

// MessageOf returns the caller-safe message for err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return kinds[KindOf(err)].message
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
