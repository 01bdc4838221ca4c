package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"
)

// Validation range constants.
const (
	minAttempts = 1
	maxAttempts = 10
	minTimeout  = 1 * time.Second
	minLifetime = 1 * time.Minute
)

// Validate checks all configuration values and returns all errors found.
// It accumulates every error rather than stopping at the first, so users
// see a complete report and can fix all issues in one pass.
func Validate(cfg *Config) error {
	var errs []error

	errs = append(errs, validateMirror(&cfg.Mirror)...)
	errs = append(errs, validateGateway(&cfg.Gateway)...)
	errs = append(errs, validateSession(&cfg.Session)...)
	errs = append(errs, validateNetwork(&cfg.Network)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)

	return errors.Join(errs...)
}

// ValidateCredentials checks that sign-in credentials are present. Only the
// commands that talk to the account API need them.
func ValidateCredentials(cfg *Config) error {
	var errs []error

	if cfg.Account.Passport == "" {
		errs = append(errs, fmt.Errorf("account.passport: must be set (or %s)", EnvPassport))
	}

	if cfg.Account.Password == "" {
		errs = append(errs, fmt.Errorf("account.password: must be set (or %s)", EnvPassword))
	}

	return errors.Join(errs...)
}

func validateMirror(m *MirrorConfig) []error {
	var errs []error

	if err := validateHTTPURL("mirror.base_url", m.BaseURL); err != nil {
		errs = append(errs, err)
	}

	if strings.TrimSpace(m.OutputRoot) == "" {
		errs = append(errs, errors.New("mirror.output_root: must not be empty"))
	}

	if m.MaxDepth == 0 {
		errs = append(errs, errors.New("mirror.max_depth: must be -1 (unlimited) or >= 1"))
	}

	if strings.Trim(m.PointerExt, ".") == "" || strings.ContainsAny(m.PointerExt, `/\`) {
		errs = append(errs, fmt.Errorf("mirror.pointer_ext: invalid extension %q", m.PointerExt))
	}

	errs = append(errs, validateExtensions("mirror.video_extensions", m.VideoExtensions)...)
	errs = append(errs, validateExtensions("mirror.subtitle_extensions", m.SubtitleExtensions)...)
	errs = append(errs, validateAttempts("mirror.download_attempts", m.DownloadAttempts)...)

	return errs
}

func validateExtensions(field string, exts []string) []error {
	var errs []error

	for _, ext := range exts {
		if len(ext) < 2 || !strings.HasPrefix(ext, ".") || strings.ContainsAny(ext, `/\ `) {
			errs = append(errs, fmt.Errorf("%s: %q must look like \".ext\"", field, ext))
		}
	}

	return errs
}

func validateAttempts(field string, n int) []error {
	if n < minAttempts || n > maxAttempts {
		return []error{fmt.Errorf("%s: must be between %d and %d, got %d", field, minAttempts, maxAttempts, n)}
	}

	return nil
}

func validateGateway(g *GatewayConfig) []error {
	if _, port, err := net.SplitHostPort(g.Listen); err != nil || port == "" {
		return []error{fmt.Errorf("gateway.listen: must be host:port, got %q", g.Listen)}
	}

	return nil
}

func validateSession(s *SessionConfig) []error {
	var errs []error

	errs = append(errs, validateDurationMin("session.default_lifetime", s.DefaultLifetime, minLifetime)...)
	errs = append(errs, validateAttempts("session.login_attempts", s.LoginAttempts)...)

	return errs
}

func validateNetwork(n *NetworkConfig) []error {
	var errs []error

	errs = append(errs, validateDurationMin("network.timeout", n.Timeout, minTimeout)...)

	if n.Proxy != "" {
		u, err := url.Parse(n.Proxy)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("network.proxy: must be a URL such as http://host:port, got %q", n.Proxy))
		}
	}

	return errs
}

func validateDurationMin(field, value string, minimum time.Duration) []error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return []error{fmt.Errorf("%s: invalid duration %q: %w", field, value, err)}
	}

	if d < minimum {
		return []error{fmt.Errorf("%s: must be >= %s, got %s", field, minimum, d)}
	}

	return nil
}

func validateHTTPURL(field, value string) error {
	u, err := url.Parse(value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s: must be an absolute http(s) URL, got %q", field, value)
	}

	return nil
}

func validateLogging(l *LoggingConfig) []error {
	var errs []error

	errs = append(errs, validateLogLevel(l.LogLevel)...)
	errs = append(errs, validateLogFormat(l.LogFormat)...)

	return errs
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

func validateLogLevel(level string) []error {
	if !validLogLevels[level] {
		return []error{fmt.Errorf("logging.log_level: must be one of debug, info, warn, error; got %q", level)}
	}

	return nil
}

var validLogFormats = map[string]bool{
	"auto": true,
	"text": true,
	"json": true,
}

func validateLogFormat(format string) []error {
	if !validLogFormats[format] {
		return []error{fmt.Errorf("logging.log_format: must be one of auto, text, json; got %q", format)}
	}

	return nil
}
