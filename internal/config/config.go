package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is constructed once at process start and passed explicitly into
// every component that needs it; business logic never reads the environment.
type Config struct {
	Port           string
	Env            string
	BaseURL        string
	DatabaseURL    string
	RedisURL       string
	AuthSecret     string
	BcryptCost     int
	TokenTTL       time.Duration
	LogFile        string
	Email          EmailConfig
	TrustedProxies []string
}

type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Secure   bool
}

func (e EmailConfig) Enabled() bool {
	return e.Host != "" && e.Port != 0 && e.From != ""
}

// Production reports whether the process runs outside development; it
// controls the Secure flag on the auth cookie.
func (c Config) Production() bool {
	return c.Env != "development"
}

func Load() (Config, error) {
	clean := func(val string) string {
		return strings.Trim(val, "\"' \t\r\n")
	}

	rawPort := strings.Trim(getenvDefault("EMAIL_SERVER_PORT", "587"), "\"' ")
	emailPort, err := strconv.Atoi(rawPort)
	if err != nil {
		emailPort = 587
	}

	cfg := Config{
		Port:           getenvDefault("PORT", "8080"),
		Env:            getenvDefault("APP_ENV", "development"),
		BaseURL:        getenvDefault("APP_BASE_URL", "http://localhost:3000"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       getenvDefault("REDIS_URL", "redis://localhost:6379"),
		AuthSecret:     os.Getenv("AUTH_SECRET"),
		BcryptCost:     parseInt(os.Getenv("BCRYPT_COST"), 12),
		TokenTTL:       parseDuration(os.Getenv("TOKEN_TTL"), time.Hour),
		LogFile:        getenvDefault("LOG_FILE", "logs/server.log"),
		TrustedProxies: parseList(os.Getenv("TRUSTED_PROXIES")),
	}

	cfg.Email = EmailConfig{
		Host:     clean(os.Getenv("EMAIL_SERVER_HOST")),
		Port:     emailPort,
		Username: clean(os.Getenv("EMAIL_SERVER_USER")),
		Password: clean(os.Getenv("EMAIL_SERVER_PASSWORD")),
		From:     clean(os.Getenv("EMAIL_FROM")),
		Secure:   parseBool(os.Getenv("EMAIL_SERVER_SECURE")),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.AuthSecret == "" {
		return Config{}, fmt.Errorf("AUTH_SECRET is required")
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func parseBool(val string) bool {
	if val == "" {
		return false
	}
	val = strings.ToLower(strings.Trim(val, "\"' "))
	return val == "1" || val == "true" || val == "yes"
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func parseDuration(val string, def time.Duration) time.Duration {
	if val == "" {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(val))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func parseList(val string) []string {
	parts := strings.Split(val, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
