package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	defaultDatabaseURL   = "repairshop.db"
	defaultListenAddr    = ":8080"
	defaultJWTSecret     = "change-me-jwt-secret"
	defaultJWTTTL        = "24h"
	defaultAdminEmail    = "admin@example.com"
	defaultAdminPassword = "admin123"
)

type Config struct {
	DatabaseURL   string
	ListenAddr    string
	JWTSecret     string
	JWTTTL        time.Duration
	AdminEmail    string
	AdminPassword string
}

func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:   getEnv("DATABASE_URL", defaultDatabaseURL),
		ListenAddr:    getEnv("LISTEN_ADDR", defaultListenAddr),
		JWTSecret:     getEnv("JWT_SECRET", defaultJWTSecret),
		AdminEmail:    getEnv("ADMIN_EMAIL", defaultAdminEmail),
		AdminPassword: getEnv("ADMIN_PASSWORD", defaultAdminPassword),
	}

	var err error
	cfg.JWTTTL, err = parseDurationEnv("JWT_TTL", defaultJWTTTL)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func parseDurationEnv(key, fallback string) (time.Duration, error) {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", key, raw, err)
	}
	return d, nil
}
