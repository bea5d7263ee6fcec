// Package config は環境変数ベースのアプリケーション設定を提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Identity provider (マネージドIDサービスへの認証委譲)
	IDPClientID     string
	IDPClientSecret string
	IDPRedirectURL  string
	IDPAccountsURL  string

	// Cliq (チャット通知API)
	CliqClientID     string
	CliqClientSecret string
	CliqRefreshToken string
	CliqDomain       string

	// Session
	SessionMaxAge int

	// Admin
	AdminEmail string

	// Notification
	TokenRefreshInterval time.Duration
	NotifyMaxConcurrent  int
	NotifyRatePerSec     float64
	NotifyMaxAttempts    int
	NotifyBackoffBase    time.Duration

	// Outbound HTTP
	ExternalTimeout time.Duration

	// Rate Limit (req/min/user)
	RateLimitGeneral int
	RateLimitSignup  int

	// Server
	ServerPort string
	BaseURL    string

	// Cookie
	CookieSecure bool
	CookieDomain string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	required := []struct {
		key string
		dst *string
	}{
		{"DATABASE_URL", &cfg.DatabaseURL},
		{"IDP_CLIENT_ID", &cfg.IDPClientID},
		{"IDP_CLIENT_SECRET", &cfg.IDPClientSecret},
		{"IDP_REDIRECT_URL", &cfg.IDPRedirectURL},
		{"CLIQ_CLIENT_ID", &cfg.CliqClientID},
		{"CLIQ_CLIENT_SECRET", &cfg.CliqClientSecret},
		{"CLIQ_REFRESH_TOKEN", &cfg.CliqRefreshToken},
		{"ADMIN_EMAIL", &cfg.AdminEmail},
		{"BASE_URL", &cfg.BaseURL},
	}
	for _, f := range required {
		*f.dst = os.Getenv(f.key)
		if *f.dst == "" {
			missing = append(missing, f.key)
		}
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.IDPAccountsURL = getEnvString("IDP_ACCOUNTS_URL", "https://accounts.zoho.in")
	cfg.CliqDomain = getEnvString("CLIQ_DOMAIN", "https://cliq.zoho.in")
	cfg.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", 86400)
	cfg.TokenRefreshInterval = getEnvDuration("TOKEN_REFRESH_INTERVAL", 50*time.Minute)
	cfg.NotifyMaxConcurrent = getEnvInt("NOTIFY_MAX_CONCURRENT", 3)
	cfg.NotifyRatePerSec = getEnvFloat("NOTIFY_RATE", 2.0)
	cfg.NotifyMaxAttempts = getEnvInt("NOTIFY_MAX_ATTEMPTS", 3)
	cfg.NotifyBackoffBase = getEnvDuration("NOTIFY_BACKOFF_BASE", 500*time.Millisecond)
	cfg.ExternalTimeout = getEnvDuration("EXTERNAL_TIMEOUT", 10*time.Second)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitSignup = getEnvInt("RATE_LIMIT_SIGNUP", 10)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
