package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	portEnvVar      = "PORT"
	appNameVar      = "APP_NAME"
	logLevelVar     = "LOG_LEVEL"
	smtpServerVar   = "SMTP_SERVER"
	smtpPortVar     = "SMTP_PORT"
	smtpUserVar     = "SMTP_USER"
	smtpPasswordVar = "SMTP_PASSWORD"
	emailFromVar    = "EMAIL_FROM"
	emailFromName   = "EMAIL_FROM_NAME"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8001")
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Auth Service")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelVar, "info")
}

func (EnvVars) GetSmtpHost() string {
	return GetEnv(smtpServerVar, "smtp.gmail.com")
}

func (EnvVars) GetSmtpPort() int {
	return GetEnvInt(smtpPortVar, 587)
}

func (EnvVars) GetSmtpUser() string {
	return GetEnv(smtpUserVar, "")
}

func (EnvVars) GetSmtpPassword() string {
	return GetEnv(smtpPasswordVar, "")
}

func (EnvVars) GetEmailFrom() string {
	return GetEnv(emailFromVar, "no-reply@genzmobo.local")
}

func (EnvVars) GetEmailFromName() string {
	return GetEnv(emailFromName, "Auth Service")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetEnvInt(envVar string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(envVar))
	if err != nil {
		return defaultValue
	}
	return value
}

func GetEnvBool(envVar string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(envVar))
	if err != nil {
		return defaultValue
	}
	return value
}

// GetEnvMillis reads an integer millisecond count as a duration.
func GetEnvMillis(envVar string, defaultValue time.Duration) time.Duration {
	ms, err := strconv.Atoi(os.Getenv(envVar))
	if err != nil || ms <= 0 {
		return defaultValue
	}
	return time.Duration(ms) * time.Millisecond
}
