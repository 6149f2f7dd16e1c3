package config

import (
	"fmt"
	"strings"
)

type Config interface {
	EnvConfig
	CorsConfig
	TokenConfig
	SecurityConfig
	StoreConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetSmtpHost() string
	GetSmtpPort() int
	GetSmtpUser() string
	GetSmtpPassword() string
	GetEmailFrom() string
	GetEmailFromName() string
}

type CorsConfig interface {
	GetAllowedOrigins() []string
	GetAllowedMethods() []string
	GetAllowedHeaders() []string
}

type mainConfig struct {
	EnvVars
	Cors
	Token
	Security
	Store
}

func New() Config {
	return mainConfig{}
}

// Validate reports configuration that must stop the service at startup.
func Validate(c Config) error {
	if strings.TrimSpace(c.GetJWTSecret()) == "" {
		return fmt.Errorf("%s is required", jwtSecretVar)
	}
	if _, ok := supportedAlgorithms[c.GetJWTAlgorithm()]; !ok {
		return fmt.Errorf("unsupported %s %q", jwtAlgorithmVar, c.GetJWTAlgorithm())
	}
	if c.GetAccessTokenExpiry() <= 0 || c.GetRefreshTokenExpiry() <= 0 {
		return fmt.Errorf("token expiries must be positive")
	}
	switch c.GetKVBackend() {
	case KVBackendRedis:
		if c.GetRedisURL() == "" {
			return fmt.Errorf("%s is required for the redis backend", redisURLVar)
		}
	case KVBackendBadger, KVBackendMemory:
	default:
		return fmt.Errorf("unknown %s %q", kvBackendVar, c.GetKVBackend())
	}
	if c.GetMongoURI() == "" {
		return fmt.Errorf("%s is required", mongoURIVar)
	}
	return nil
}
