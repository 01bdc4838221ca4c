// Package config implements TOML configuration loading, validation, and
// platform-specific path resolution for strm123. Values resolve through a
// four-layer override chain: defaults -> config file -> environment -> CLI
// flags.
package config

import "time"

// Config is the top-level configuration structure parsed from a TOML file.
type Config struct {
	Account AccountConfig `toml:"account"`
	Mirror  MirrorConfig  `toml:"mirror"`
	Gateway GatewayConfig `toml:"gateway"`
	Session SessionConfig `toml:"session"`
	Network NetworkConfig `toml:"network"`
	Logging LoggingConfig `toml:"logging"`
}

// AccountConfig holds the 123pan sign-in credentials used by the gateway.
type AccountConfig struct {
	Passport string `toml:"passport"`
	Password string `toml:"password" json:"-"`
}

// MirrorConfig controls where and how shares are mirrored.
type MirrorConfig struct {
	BaseURL            string   `toml:"base_url"`
	OutputRoot         string   `toml:"output_root"`
	MaxDepth           int      `toml:"max_depth"`
	PointerExt         string   `toml:"pointer_ext"`
	VideoExtensions    []string `toml:"video_extensions"`
	SubtitleExtensions []string `toml:"subtitle_extensions"`
	DownloadAttempts   int      `toml:"download_attempts"`
}

// GatewayConfig controls the redirect server.
type GatewayConfig struct {
	Listen  string `toml:"listen"`
	Metrics bool   `toml:"metrics"`
}

// SessionConfig controls the credential session. DefaultLifetime applies
// when a sign-in response carries no expiry.
type SessionConfig struct {
	DefaultLifetime string `toml:"default_lifetime"`
	TokenFile       string `toml:"token_file"`
	LoginAttempts   int    `toml:"login_attempts"`
}

// NetworkConfig controls outbound HTTP behavior. Timeout bounds every remote
// call, including body transfer.
type NetworkConfig struct {
	Proxy     string `toml:"proxy"`
	Timeout   string `toml:"timeout"`
	UserAgent string `toml:"user_agent"`
}

// LoggingConfig controls log output: level and format.
type LoggingConfig struct {
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// CLIOverrides holds values from CLI flags that override config file and
// environment settings. Pointer fields distinguish "not specified" (nil)
// from "explicitly set to the zero value".
type CLIOverrides struct {
	ConfigPath string  // --config flag (empty = use default)
	BaseURL    *string // --base-url
	OutputRoot *string // --output
	MaxDepth   *int    // --max-depth
	Listen     *string // --listen
}

// Lifetime returns the parsed default token lifetime. Validate guarantees it
// parses; the fallback only covers unvalidated configs.
func (s SessionConfig) Lifetime() time.Duration {
	return durationOr(s.DefaultLifetime, defaultSessionLifetime)
}

// TimeoutDuration returns the parsed network timeout.
func (n NetworkConfig) TimeoutDuration() time.Duration {
	return durationOr(n.Timeout, defaultNetworkTimeout)
}

func durationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}

	return d
}
