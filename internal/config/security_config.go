package config

import "time"

type SecurityConfig interface {
	GetOTPExpiry() time.Duration
	GetOTPMaxAttempts() int
	GetOTPLockout() time.Duration
	GetRevocationTimeout() time.Duration
	GetRevocationFailClosed() bool
	GetStrictRefreshRotation() bool
	GetEnableRateLimiting() bool
	GetCookieSecure() bool
}

type Security struct{}

var _ SecurityConfig = Security{}

func (Security) GetOTPExpiry() time.Duration {
	return 5 * time.Minute
}

func (Security) GetOTPMaxAttempts() int {
	return 5
}

func (Security) GetOTPLockout() time.Duration {
	return 15 * time.Minute
}

func (Security) GetRevocationTimeout() time.Duration {
	return GetEnvMillis("REVOCATION_TIMEOUT_MS", 500*time.Millisecond)
}

// GetRevocationFailClosed rejects tokens when the revocation store cannot be
// read. Off by default: an unreachable store means "not revoked".
func (Security) GetRevocationFailClosed() bool {
	return GetEnvBool("REVOCATION_FAIL_CLOSED", false)
}

// GetStrictRefreshRotation makes refresh a compare-and-swap on the stored
// token, so two concurrent refreshes with one token cannot both succeed.
func (Security) GetStrictRefreshRotation() bool {
	return GetEnvBool("REFRESH_STRICT_ROTATION", false)
}

func (Security) GetEnableRateLimiting() bool {
	return GetEnvBool("RATE_LIMIT_ENABLED", true)
}

func (Security) GetCookieSecure() bool {
	return GetEnvBool("COOKIE_SECURE", true)
}
