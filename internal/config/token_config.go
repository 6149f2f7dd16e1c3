package config

import "time"

const (
	jwtSecretVar        = "JWT_SECRET"
	jwtAlgorithmVar     = "JWT_ALGORITHM"
	accessExpiryVar     = "JWT_ACCESS_EXPIRE_MINUTES"
	refreshExpiryVar    = "JWT_REFRESH_EXPIRE_DAYS"
	defaultJWTAlgorithm = "HS256"
)

var supportedAlgorithms = map[string]struct{}{
	"HS256": {},
	"HS384": {},
	"HS512": {},
}

type TokenConfig interface {
	GetJWTSecret() string
	GetJWTAlgorithm() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetResetTokenExpiry() time.Duration
}

type Token struct{}

var _ TokenConfig = Token{}

func (Token) GetJWTSecret() string {
	return GetEnv(jwtSecretVar, "")
}

func (Token) GetJWTAlgorithm() string {
	return GetEnv(jwtAlgorithmVar, defaultJWTAlgorithm)
}

func (Token) GetAccessTokenExpiry() time.Duration {
	return time.Duration(GetEnvInt(accessExpiryVar, 15)) * time.Minute
}

func (Token) GetRefreshTokenExpiry() time.Duration {
	return time.Duration(GetEnvInt(refreshExpiryVar, 7)) * 24 * time.Hour
}

// GetResetTokenExpiry is fixed; password-reset tokens are not configurable.
func (Token) GetResetTokenExpiry() time.Duration {
	return 15 * time.Minute
}
