package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *AppConfig {
	cfg := &AppConfig{}
	cfg.Security.AccountToken.Secret = "a"
	cfg.Security.AdminToken.Secret = "b"
	cfg.Security.SuperAdminToken.Secret = "c"
	cfg.Security.InitialAdminPassword = "initial"
	return cfg
}

func TestValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, validate(validConfig()))

	t.Run("missing tier secret", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.Security.AdminToken.Secret = ""
		assert.Error(t, validate(cfg))
	})

	t.Run("missing initial admin password", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.Security.InitialAdminPassword = ""
		assert.Error(t, validate(cfg))
	})
}
