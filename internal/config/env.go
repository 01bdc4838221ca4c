package config

import (
	"fmt"
	"os"
	"strconv"
)

// Environment variable names for overrides.
const (
	EnvConfig     = "STRM123_CONFIG"
	EnvPassport   = "P123_PASSPORT"
	EnvPassword   = "P123_PASSWORD"
	EnvBaseURL    = "BASE_URL"
	EnvOutputRoot = "OUTPUT_ROOT"
	EnvMaxDepth   = "MAX_DEPTH"
	EnvProxy      = "STRM123_PROXY"
)

// EnvOverrides holds values derived from environment variables. Empty
// strings mean "not set".
type EnvOverrides struct {
	ConfigPath string
	Passport   string
	Password   string
	BaseURL    string
	OutputRoot string
	MaxDepth   string
	Proxy      string
}

// ReadEnvOverrides reads environment variables and returns any overrides found.
// This does not modify the Config; Resolve applies them.
func ReadEnvOverrides() EnvOverrides {
	return EnvOverrides{
		ConfigPath: os.Getenv(EnvConfig),
		Passport:   os.Getenv(EnvPassport),
		Password:   os.Getenv(EnvPassword),
		BaseURL:    os.Getenv(EnvBaseURL),
		OutputRoot: os.Getenv(EnvOutputRoot),
		MaxDepth:   os.Getenv(EnvMaxDepth),
		Proxy:      os.Getenv(EnvProxy),
	}
}

// apply copies every set override into cfg.
func (e EnvOverrides) apply(cfg *Config) error {
	if e.Passport != "" {
		cfg.Account.Passport = e.Passport
	}

	if e.Password != "" {
		cfg.Account.Password = e.Password
	}

	if e.BaseURL != "" {
		cfg.Mirror.BaseURL = e.BaseURL
	}

	if e.OutputRoot != "" {
		cfg.Mirror.OutputRoot = e.OutputRoot
	}

	if e.MaxDepth != "" {
		depth, err := strconv.Atoi(e.MaxDepth)
		if err != nil {
			return fmt.Errorf("%s: must be an integer, got %q", EnvMaxDepth, e.MaxDepth)
		}

		cfg.Mirror.MaxDepth = depth
	}

	if e.Proxy != "" {
		cfg.Network.Proxy = e.Proxy
	}

	return nil
}
