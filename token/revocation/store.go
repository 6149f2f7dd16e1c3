// Package revocation is the access-token blacklist. Entries live in a TTL
// key-value store and never outlive the token they block.
package revocation

import (
	"context"
	"math"
	"strconv"
	"time"

	apperrors "github.com/jrsteele09/genzmobo-auth/internal/errors"
	"github.com/jrsteele09/genzmobo-auth/internal/kvstore"
	"github.com/rs/zerolog/log"
	gobreaker "github.com/sony/gobreaker/v2"
)

const keyPrefix = "blacklist:"

type Store struct {
	kv      kvstore.Store
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker[any]
	nowFunc func() time.Time
}

type Option func(*Store)

// WithTimeout bounds every call to the backing store.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Store) {
		s.timeout = timeout
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.nowFunc = now
	}
}

// WithBreaker replaces the default circuit breaker settings.
func WithBreaker(settings gobreaker.Settings) Option {
	return func(s *Store) {
		s.breaker = gobreaker.NewCircuitBreaker[any](settings)
	}
}

func New(kv kvstore.Store, options ...Option) *Store {
	s := &Store{
		kv:      kv,
		timeout: 500 * time.Millisecond,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.breaker == nil {
		s.breaker = gobreaker.NewCircuitBreaker[any](DefaultBreakerSettings())
	}
	return s
}

// DefaultBreakerSettings opens after five consecutive failures and probes
// again after ten seconds.
func DefaultBreakerSettings() gobreaker.Settings {
	return gobreaker.Settings{
		Name:        "revocation-store",
		MaxRequests: 1,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			BreakerStateChangesTotal.WithLabelValues(to.String()).Inc()
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	}
}

// Revoke blocks tokenID for ttl. The stored value is the absolute expiry so a
// stale entry can be recognised on read. A ttl <= 0 does nothing.
func (s *Store) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	expiresAt := s.nowFunc().Add(ttl)
	_, err := s.call(ctx, func(ctx context.Context) (any, error) {
		return nil, s.kv.SetWithTTL(ctx, keyPrefix+tokenID, formatExpiry(expiresAt), ttl)
	})
	if err != nil {
		OperationsTotal.WithLabelValues("revoke", "failure").Inc()
		return apperrors.Wrap(apperrors.RevocationStoreUnavailable, err)
	}
	OperationsTotal.WithLabelValues("revoke", "success").Inc()
	return nil
}

// IsRevoked reports whether tokenID is blacklisted. An entry whose recorded
// expiry has passed is deleted and reported as not revoked.
func (s *Store) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	key := keyPrefix + tokenID
	res, err := s.call(ctx, func(ctx context.Context) (any, error) {
		value, found, err := s.kv.Get(ctx, key)
		if err != nil || !found {
			return nil, err
		}
		return value, nil
	})
	if err != nil {
		OperationsTotal.WithLabelValues("check", "failure").Inc()
		return false, apperrors.Wrap(apperrors.RevocationStoreUnavailable, err)
	}
	value, found := res.(string)
	if !found {
		OperationsTotal.WithLabelValues("check", "miss").Inc()
		return false, nil
	}

	expiresAt, err := parseExpiry(value)
	if err != nil {
		log.Warn().Err(err).Str("jti", tokenID).Msg("unreadable revocation entry, treating as revoked")
		OperationsTotal.WithLabelValues("check", "hit").Inc()
		return true, nil
	}
	if !s.nowFunc().Before(expiresAt) {
		if _, err := s.call(ctx, func(ctx context.Context) (any, error) {
			return nil, s.kv.Delete(ctx, key)
		}); err != nil {
			log.Warn().Err(err).Str("jti", tokenID).Msg("failed to prune stale revocation entry")
		}
		OperationsTotal.WithLabelValues("check", "stale").Inc()
		return false, nil
	}
	OperationsTotal.WithLabelValues("check", "hit").Inc()
	return true, nil
}

// Ping reports whether the backing store is reachable.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.call(ctx, func(ctx context.Context) (any, error) {
		return nil, s.kv.Ping(ctx)
	})
	return err
}

func (s *Store) call(ctx context.Context, fn func(ctx context.Context) (any, error)) (any, error) {
	return s.breaker.Execute(func() (any, error) {
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		return fn(ctx)
	})
}

func formatExpiry(t time.Time) string {
	return strconv.FormatFloat(float64(t.UnixNano())/1e9, 'f', 6, 64)
}

func parseExpiry(value string) (time.Time, error) {
	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return time.Time{}, err
	}
	whole, frac := math.Modf(seconds)
	return time.Unix(int64(whole), int64(frac*1e9)), nil
}
