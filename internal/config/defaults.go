package config

import (
	"slices"
	"time"

	"github.com/strm123/strm123/internal/mirror"
	"github.com/strm123/strm123/internal/pan123"
)

// Default values for configuration options. These are "layer 0" of the
// override chain.
const (
	defaultBaseURL          = "http://localhost:8123"
	defaultOutputRoot       = "/app/strm_output"
	defaultMaxDepth         = -1
	defaultDownloadAttempts = 3
	defaultListen           = "0.0.0.0:8123"
	defaultLifetimeString   = "720h"
	defaultLoginAttempts    = 1
	defaultTimeoutString    = "30s"
	defaultLogLevel         = "info"
	defaultLogFormat        = "auto"

	defaultSessionLifetime = 720 * time.Hour
	defaultNetworkTimeout  = 30 * time.Second
)

// DefaultConfig returns a Config populated with all default values. It is the
// starting point for TOML decoding so unset fields keep their defaults.
func DefaultConfig() *Config {
	return &Config{
		Mirror: MirrorConfig{
			BaseURL:            defaultBaseURL,
			OutputRoot:         defaultOutputRoot,
			MaxDepth:           defaultMaxDepth,
			PointerExt:         mirror.DefaultPointerExt,
			VideoExtensions:    slices.Clone(mirror.DefaultVideoExtensions),
			SubtitleExtensions: slices.Clone(mirror.DefaultSubtitleExtensions),
			DownloadAttempts:   defaultDownloadAttempts,
		},
		Gateway: GatewayConfig{
			Listen:  defaultListen,
			Metrics: true,
		},
		Session: SessionConfig{
			DefaultLifetime: defaultLifetimeString,
			LoginAttempts:   defaultLoginAttempts,
		},
		Network: NetworkConfig{
			Timeout:   defaultTimeoutString,
			UserAgent: pan123.DefaultUserAgent,
		},
		Logging: LoggingConfig{
			LogLevel:  defaultLogLevel,
			LogFormat: defaultLogFormat,
		},
	}
}
