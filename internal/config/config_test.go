package config_test

import (
	"strings"
	"testing"
	"time"

	"ethos/backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CHAT_CIPHER_KEY", validKey)
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("OP_TIMEOUT", "")
	t.Setenv("STORAGE_DRIVER", "")

	cfg := config.Load()

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, config.StorageDriverPostgres, cfg.StorageDriver)
	assert.Equal(t, config.CipherAESGCM, cfg.CipherAlg)
	assert.Equal(t, 5*time.Second, cfg.OpTimeout)
	require.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("STORAGE_DRIVER", "MEMORY")
	t.Setenv("OP_TIMEOUT", "250ms")
	t.Setenv("TELEGRAM_HR_CHAT_ID", "-100123")

	cfg := config.Load()

	assert.Equal(t, ":9999", cfg.HTTPAddr)
	assert.Equal(t, config.StorageDriverMemory, cfg.StorageDriver)
	assert.Equal(t, 250*time.Millisecond, cfg.OpTimeout)
	assert.Equal(t, int64(-100123), cfg.TelegramHRChatID)
}

func TestValidate_CipherKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr string
	}{
		{name: "missing", key: "", wantErr: "CHAT_CIPHER_KEY is required"},
		{name: "not hex", key: strings.Repeat("zz", 32), wantErr: "not valid hex"},
		{name: "short", key: "0011", wantErr: "must decode to 32 bytes"},
		{name: "valid", key: validKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Config{
				CipherKeyHex:  tt.key,
				CipherAlg:     config.CipherAESGCM,
				JWTSecret:     "secret",
				StorageDriver: config.StorageDriverMemory,
			}
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := config.Config{
		CipherKeyHex:     validKey,
		CipherAlg:        "rot13",
		StorageDriver:    "mongo",
		TelegramBotToken: "token",
	}

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "CHAT_CIPHER_ALG")
	assert.Contains(t, msg, "JWT_SECRET")
	assert.Contains(t, msg, "STORAGE_DRIVER")
	assert.Contains(t, msg, "TELEGRAM_HR_CHAT_ID")
}
