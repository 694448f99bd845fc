package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/ourfood/climate-diet/internal/models"
)

type Config struct {
	DatabasePath string
	AuthMode     models.AuthMode

	OIDCIssuer       string
	OIDCClientID     string
	OIDCClientSecret string
	OIDCRedirectURL  string

	SessionSecret string
	JWTSecret     string

	LogLevel string
	Port     string
}

func Load() (Config, error) {
	// A missing .env is fine; the environment may already be populated.
	godotenv.Load()

	config := Config{
		DatabasePath:     envOrDefault("DATABASE_PATH", "./data/climate-diet.db"),
		AuthMode:         models.AuthMode(envOrDefault("AUTH_MODE", string(models.AuthModeLocal))),
		OIDCIssuer:       os.Getenv("OIDC_ISSUER"),
		OIDCClientID:     os.Getenv("OIDC_CLIENT_ID"),
		OIDCClientSecret: os.Getenv("OIDC_CLIENT_SECRET"),
		OIDCRedirectURL:  os.Getenv("OIDC_REDIRECT_URL"),
		SessionSecret:    os.Getenv("SESSION_SECRET"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		LogLevel:         envOrDefault("LOG_LEVEL", "info"),
		Port:             envOrDefault("PORT", "8080"),
	}

	if config.SessionSecret == "" {
		return Config{}, fmt.Errorf("SESSION_SECRET is required")
	}

	switch config.AuthMode {
	case models.AuthModeLocal:
		if config.JWTSecret == "" {
			return Config{}, fmt.Errorf("JWT_SECRET is required in local auth mode")
		}
	case models.AuthModeOIDC:
		if config.OIDCIssuer == "" {
			return Config{}, fmt.Errorf("OIDC_ISSUER is required in oidc auth mode")
		}
	default:
		return Config{}, fmt.Errorf("unknown AUTH_MODE %q", config.AuthMode)
	}

	return config, nil
}

func envOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
