package otp

import (
	"context"
	"time"

	apperrors "github.com/jrsteele09/genzmobo-auth/internal/errors"
	"github.com/jrsteele09/genzmobo-auth/internal/kvstore"
	"github.com/jrsteele09/genzmobo-auth/users"
	"github.com/rs/zerolog/log"
)

const (
	attemptsPrefix = "otp_attempts:"
	lockPrefix     = "otp_lock:"

	defaultTimeout = 500 * time.Millisecond
)

// Limiter counts OTP attempts per email in the shared key-value store, so
// counts survive restarts and are shared between instances.
type Limiter struct {
	kv          kvstore.Store
	maxAttempts int
	lockout     time.Duration
	timeout     time.Duration
}

type LimiterOption func(*Limiter)

func WithMaxAttempts(n int) LimiterOption {
	return func(l *Limiter) {
		l.maxAttempts = n
	}
}

func WithLockout(d time.Duration) LimiterOption {
	return func(l *Limiter) {
		l.lockout = d
	}
}

// WithTimeout bounds each key-value call.
func WithTimeout(d time.Duration) LimiterOption {
	return func(l *Limiter) {
		if d > 0 {
			l.timeout = d
		}
	}
}

func NewLimiter(kv kvstore.Store, options ...LimiterOption) *Limiter {
	l := &Limiter{
		kv:          kv,
		maxAttempts: 5,
		lockout:     15 * time.Minute,
		timeout:     defaultTimeout,
	}
	for _, opt := range options {
		opt(l)
	}
	return l
}

// Attempt records one try for email. The attempt that reaches the limit locks
// the email for the lockout window; further attempts while locked fail
// without extending the lock.
func (l *Limiter) Attempt(ctx context.Context, email string) error {
	email = users.NormalizeEmail(email)

	var locked bool
	err := l.call(ctx, func(ctx context.Context) (err error) {
		_, locked, err = l.kv.Get(ctx, lockPrefix+email)
		return err
	})
	if err != nil {
		return err
	}
	if locked {
		return apperrors.New(apperrors.TooManyAttempts)
	}

	var n int64
	err = l.call(ctx, func(ctx context.Context) (err error) {
		n, err = l.kv.Incr(ctx, attemptsPrefix+email, l.lockout)
		return err
	})
	if err != nil {
		return err
	}
	if n < int64(l.maxAttempts) {
		return nil
	}

	err = l.call(ctx, func(ctx context.Context) error {
		return l.kv.SetWithTTL(ctx, lockPrefix+email, "1", l.lockout)
	})
	if err != nil {
		return err
	}
	err = l.call(ctx, func(ctx context.Context) error {
		return l.kv.Delete(ctx, attemptsPrefix+email)
	})
	if err != nil {
		log.Warn().Err(err).Str("email", email).Msg("failed to clear otp attempt counter")
	}
	log.Warn().Str("email", email).Dur("lockout", l.lockout).Msg("otp attempts exhausted, email locked")
	return apperrors.New(apperrors.TooManyAttempts)
}

// Reset clears the attempt counter after a successful verification.
func (l *Limiter) Reset(ctx context.Context, email string) error {
	return l.call(ctx, func(ctx context.Context) error {
		return l.kv.Delete(ctx, attemptsPrefix+users.NormalizeEmail(email))
	})
}

// call runs fn under the limiter timeout. A store that is down or slow is
// reported as unavailable rather than as a failed attempt.
func (l *Limiter) call(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		return apperrors.Wrap(apperrors.ServiceUnavailable, err)
	}
	return nil
}
