package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures environment driven configuration values for the scheduler service.
type Config struct {
	HTTPPort              int
	SQLiteDSN             string
	SessionSecret         string
	TokenEncryptionKey    []byte
	SessionTTL            time.Duration
	RateLimitBooking      int
	RateLimitAvailability int
	RateLimitOAuth        int
}

// Load parses configuration values from the current process environment.
//
// The loader applies sensible defaults for optional fields while validating
// required values and reporting localized error messages for missing entries.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:              8080,
		SQLiteDSN:             "file:scheduler.db?_foreign_keys=on",
		SessionTTL:            24 * time.Hour,
		RateLimitBooking:      30,
		RateLimitAvailability: 120,
		RateLimitOAuth:        10,
	}

	missing := make([]string, 0, 2)
	invalid := make([]string, 0, 4)

	if portValue := strings.TrimSpace(os.Getenv("SCHED_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "SCHED_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("SCHED_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if secret := strings.TrimSpace(os.Getenv("SCHED_SESSION_SECRET")); secret == "" {
		missing = append(missing, "SCHED_SESSION_SECRET")
	} else {
		cfg.SessionSecret = secret
	}

	if keyValue := strings.TrimSpace(os.Getenv("SCHED_TOKEN_ENCRYPTION_KEY")); keyValue == "" {
		missing = append(missing, "SCHED_TOKEN_ENCRYPTION_KEY")
	} else {
		key, err := base64.StdEncoding.DecodeString(keyValue)
		if err != nil || len(key) != 32 {
			invalid = append(invalid, "SCHED_TOKEN_ENCRYPTION_KEY")
		} else {
			cfg.TokenEncryptionKey = key
		}
	}

	if ttlValue := strings.TrimSpace(os.Getenv("SCHED_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "SCHED_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if v := strings.TrimSpace(os.Getenv("SCHED_RATE_LIMIT_BOOKING")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			invalid = append(invalid, "SCHED_RATE_LIMIT_BOOKING")
		} else {
			cfg.RateLimitBooking = n
		}
	}

	if v := strings.TrimSpace(os.Getenv("SCHED_RATE_LIMIT_AVAILABILITY")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			invalid = append(invalid, "SCHED_RATE_LIMIT_AVAILABILITY")
		} else {
			cfg.RateLimitAvailability = n
		}
	}

	if v := strings.TrimSpace(os.Getenv("SCHED_RATE_LIMIT_OAUTH")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			invalid = append(invalid, "SCHED_RATE_LIMIT_OAUTH")
		} else {
			cfg.RateLimitOAuth = n
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("必須の環境変数が設定されていません: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("環境変数の値が不正です: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
