package config

import (
	"fmt"
	"io"
	"strings"
)

// RenderEffective writes the resolved configuration as an annotated summary
// to w. The password is never printed.
func RenderEffective(cfg *Config, source string, w io.Writer) error {
	ew := &errWriter{w: w}

	if source == "" {
		source = "defaults only"
	}

	ew.printf("# Effective configuration (%s)\n\n", source)

	ew.printf("[account]\n")
	ew.printf("  passport = %q\n", cfg.Account.Passport)
	ew.printf("  password = %s\n\n", redact(cfg.Account.Password))

	ew.printf("[mirror]\n")
	ew.printf("  base_url            = %q\n", cfg.Mirror.BaseURL)
	ew.printf("  output_root         = %q\n", cfg.Mirror.OutputRoot)
	ew.printf("  max_depth           = %d\n", cfg.Mirror.MaxDepth)
	ew.printf("  pointer_ext         = %q\n", cfg.Mirror.PointerExt)
	ew.printf("  video_extensions    = [%s]\n", joinQuoted(cfg.Mirror.VideoExtensions))
	ew.printf("  subtitle_extensions = [%s]\n", joinQuoted(cfg.Mirror.SubtitleExtensions))
	ew.printf("  download_attempts   = %d\n\n", cfg.Mirror.DownloadAttempts)

	ew.printf("[gateway]\n")
	ew.printf("  listen  = %q\n", cfg.Gateway.Listen)
	ew.printf("  metrics = %t\n\n", cfg.Gateway.Metrics)

	ew.printf("[session]\n")
	ew.printf("  default_lifetime = %q\n", cfg.Session.DefaultLifetime)
	ew.printf("  token_file       = %q\n", cfg.Session.TokenFile)
	ew.printf("  login_attempts   = %d\n\n", cfg.Session.LoginAttempts)

	ew.printf("[network]\n")
	ew.printf("  proxy      = %q\n", cfg.Network.Proxy)
	ew.printf("  timeout    = %q\n", cfg.Network.Timeout)
	ew.printf("  user_agent = %q\n\n", cfg.Network.UserAgent)

	ew.printf("[logging]\n")
	ew.printf("  log_level  = %q\n", cfg.Logging.LogLevel)
	ew.printf("  log_format = %q\n", cfg.Logging.LogFormat)

	return ew.err
}

// errWriter wraps an io.Writer and captures the first write error.
// Subsequent writes after an error are no-ops.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}

	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func joinQuoted(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("%q", s)
	}

	return strings.Join(quoted, ", ")
}

func redact(secret string) string {
	if secret == "" {
		return `""`
	}

	return `"********"`
}
