package config

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig(t *testing.T) {
	secret := base64.StdEncoding.EncodeToString([]byte("super-secret"))

	t.Run("valid config", func(t *testing.T) {
		cfg, err := NewConfig("localhost:8000", "host=localhost dbname=crew", secret, []string{"http://localhost:3000"})
		assert.NoError(t, err)
		assert.Equal(t, "localhost:8000", cfg.ServerAddr)
		assert.Equal(t, []byte("super-secret"), cfg.SigningKey)
		assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	})

	t.Run("empty server address", func(t *testing.T) {
		_, err := NewConfig("", "dsn", secret, nil)
		assert.Error(t, err)
	})

	t.Run("empty database DSN", func(t *testing.T) {
		_, err := NewConfig("localhost:8000", "", secret, nil)
		assert.Error(t, err)
	})

	t.Run("empty signing secret", func(t *testing.T) {
		_, err := NewConfig("localhost:8000", "dsn", "", nil)
		assert.Error(t, err)
	})

	t.Run("invalid base64 signing secret", func(t *testing.T) {
		_, err := NewConfig("localhost:8000", "dsn", "not-base64!!!", nil)
		assert.Error(t, err)
	})
}
