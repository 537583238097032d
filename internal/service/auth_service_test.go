package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jsinglet/mrva_go_server/config"
	"github.com/jsinglet/mrva_go_server/internal/pkg/jwt"
)

func authConfig(t *testing.T, apiKey string, userID int64) *config.Config {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(apiKey), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.ExpireHours = 24
	cfg.APIKeys = []config.APIKeyConfig{
		{UserID: userID, KeyHash: string(hash)},
	}
	return cfg
}

func TestAuthService_ExchangeToken(t *testing.T) {
	cfg := authConfig(t, "sk-valid-key", 7)
	s := NewAuthService(cfg)

	resp, err := s.ExchangeToken("sk-valid-key")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, 24*3600, resp.ExpiresIn)

	claims, err := jwt.ParseToken(resp.Token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
}

func TestAuthService_ExchangeToken_InvalidKey(t *testing.T) {
	cfg := authConfig(t, "sk-valid-key", 7)
	s := NewAuthService(cfg)

	_, err := s.ExchangeToken("sk-wrong-key")
	assert.ErrorIs(t, err, ErrInvalidAPIKey)
}

func TestAuthService_ExchangeToken_NoKeysConfigured(t *testing.T) {
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	s := NewAuthService(cfg)

	_, err := s.ExchangeToken("anything")
	assert.ErrorIs(t, err, ErrInvalidAPIKey)
}
