package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Defaults(t *testing.T) {
	assert.NoError(t, Validate(DefaultConfig()))
}

func TestValidate_Mirror(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"relative base url", func(c *Config) { c.Mirror.BaseURL = "/strm" }, "mirror.base_url"},
		{"empty output root", func(c *Config) { c.Mirror.OutputRoot = " " }, "mirror.output_root"},
		{"zero depth", func(c *Config) { c.Mirror.MaxDepth = 0 }, "mirror.max_depth"},
		{"empty pointer ext", func(c *Config) { c.Mirror.PointerExt = "." }, "mirror.pointer_ext"},
		{"pointer ext with slash", func(c *Config) { c.Mirror.PointerExt = "a/b" }, "mirror.pointer_ext"},
		{"video ext without dot", func(c *Config) { c.Mirror.VideoExtensions = []string{"mp4"} }, "mirror.video_extensions"},
		{"bare dot subtitle", func(c *Config) { c.Mirror.SubtitleExtensions = []string{"."} }, "mirror.subtitle_extensions"},
		{"too many attempts", func(c *Config) { c.Mirror.DownloadAttempts = 11 }, "mirror.download_attempts"},
		{"listen without port", func(c *Config) { c.Gateway.Listen = "localhost" }, "gateway.listen"},
		{"bad lifetime", func(c *Config) { c.Session.DefaultLifetime = "forever" }, "session.default_lifetime"},
		{"short lifetime", func(c *Config) { c.Session.DefaultLifetime = "5s" }, "session.default_lifetime"},
		{"zero login attempts", func(c *Config) { c.Session.LoginAttempts = 0 }, "session.login_attempts"},
		{"short timeout", func(c *Config) { c.Network.Timeout = "10ms" }, "network.timeout"},
		{"bad proxy", func(c *Config) { c.Network.Proxy = "proxy:8080" }, "network.proxy"},
		{"bad log format", func(c *Config) { c.Logging.LogFormat = "xml" }, "logging.log_format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_AcceptsUnlimitedAndPositiveDepth(t *testing.T) {
	for _, depth := range []int{-1, 1, 10} {
		cfg := DefaultConfig()
		cfg.Mirror.MaxDepth = depth
		assert.NoError(t, Validate(cfg), depth)
	}
}

func TestValidate_AccumulatesErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mirror.BaseURL = ""
	cfg.Network.Timeout = "x"

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mirror.base_url")
	assert.Contains(t, err.Error(), "network.timeout")
}

func TestValidateCredentials(t *testing.T) {
	cfg := DefaultConfig()

	err := ValidateCredentials(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvPassport)
	assert.Contains(t, err.Error(), EnvPassword)

	cfg.Account.Passport = "u"
	cfg.Account.Password = "p"
	assert.NoError(t, ValidateCredentials(cfg))
}

func TestDurationFallbacks(t *testing.T) {
	assert.Equal(t, defaultSessionLifetime, SessionConfig{DefaultLifetime: "bad"}.Lifetime())
	assert.Equal(t, defaultNetworkTimeout, NetworkConfig{Timeout: "-1s"}.TimeoutDuration())
}
