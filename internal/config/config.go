// Package config loads process-wide settings from the environment.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage drivers.
const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Cipher algorithms accepted in CHAT_CIPHER_ALG.
const (
	CipherAESGCM           = "aes-256-gcm"
	CipherXChaCha20Poly1305 = "xchacha20-poly1305"
)

// Config holds everything cmd/ needs to wire the server.
type Config struct {
	Env           string
	HTTPAddr      string
	StorageDriver string
	DatabaseDSN   string
	RedisURL      string

	CipherKeyHex string
	CipherAlg    string

	JWTSecret string
	JWTIssuer string

	LogLevel  string
	OpTimeout time.Duration

	TelegramBotToken string
	TelegramHRChatID int64
	NotifyLang       string
}

// Load reads the environment. Call Validate before using the result.
func Load() Config {
	return Config{
		Env:           getenv("APP_ENV", "development"),
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		StorageDriver: strings.ToLower(getenv("STORAGE_DRIVER", StorageDriverPostgres)),
		DatabaseDSN:   getenv("DATABASE_DSN", "host=localhost user=user password=password dbname=ethosdb port=5432 sslmode=disable"),
		RedisURL:      getenv("REDIS_URL", ""),

		CipherKeyHex: strings.TrimSpace(os.Getenv("CHAT_CIPHER_KEY")),
		CipherAlg:    strings.ToLower(getenv("CHAT_CIPHER_ALG", CipherAESGCM)),

		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTIssuer: getenv("JWT_ISSUER", "ethos-service"),

		LogLevel:  getenv("LOG_LEVEL", "info"),
		OpTimeout: getenvDuration("OP_TIMEOUT", 5*time.Second),

		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramHRChatID: getenvInt64("TELEGRAM_HR_CHAT_ID", 0),
		NotifyLang:       getenv("NOTIFY_LANG", "en"),
	}
}

// Validate reports configuration the server must refuse to start with.
func (c Config) Validate() error {
	var errs []error

	if c.CipherKeyHex == "" {
		errs = append(errs, errors.New("CHAT_CIPHER_KEY is required"))
	} else if b, err := hex.DecodeString(c.CipherKeyHex); err != nil {
		errs = append(errs, fmt.Errorf("CHAT_CIPHER_KEY is not valid hex: %w", err))
	} else if len(b) != CipherKeySize {
		errs = append(errs, fmt.Errorf("CHAT_CIPHER_KEY must decode to %d bytes, got %d", CipherKeySize, len(b)))
	}

	switch c.CipherAlg {
	case CipherAESGCM, CipherXChaCha20Poly1305:
	default:
		errs = append(errs, fmt.Errorf("unsupported CHAT_CIPHER_ALG %q", c.CipherAlg))
	}

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}

	switch c.StorageDriver {
	case StorageDriverPostgres, StorageDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unsupported STORAGE_DRIVER %q", c.StorageDriver))
	}

	if c.TelegramBotToken != "" && c.TelegramHRChatID == 0 {
		errs = append(errs, errors.New("TELEGRAM_HR_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set"))
	}

	return errors.Join(errs...)
}

// IsProduction reports whether APP_ENV selects production behaviour.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt64(key string, fallback int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
