package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadEnvOverrides(t *testing.T) {
	t.Setenv(EnvConfig, "/etc/strm123.toml")
	t.Setenv(EnvPassport, "user")
	t.Setenv(EnvPassword, "pass")
	t.Setenv(EnvBaseURL, "http://base")
	t.Setenv(EnvOutputRoot, "/out")
	t.Setenv(EnvMaxDepth, "2")
	t.Setenv(EnvProxy, "http://proxy:8080")

	assert.Equal(t, EnvOverrides{
		ConfigPath: "/etc/strm123.toml",
		Passport:   "user",
		Password:   "pass",
		BaseURL:    "http://base",
		OutputRoot: "/out",
		MaxDepth:   "2",
		Proxy:      "http://proxy:8080",
	}, ReadEnvOverrides())
}

func TestReadEnvOverrides_Unset(t *testing.T) {
	for _, name := range []string{EnvConfig, EnvPassport, EnvPassword, EnvBaseURL, EnvOutputRoot, EnvMaxDepth, EnvProxy} {
		t.Setenv(name, "")
	}

	assert.Equal(t, EnvOverrides{}, ReadEnvOverrides())
}

func TestEnvOverridesApply_EmptyKeepsValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Account.Passport = "keep"

	assert.NoError(t, EnvOverrides{}.apply(cfg))
	assert.Equal(t, "keep", cfg.Account.Passport)
	assert.Equal(t, defaultMaxDepth, cfg.Mirror.MaxDepth)
}
