package main

import (
	"log/slog"

	"github.com/strm123/strm123/internal/config"
	"github.com/strm123/strm123/internal/mirror"
	"github.com/strm123/strm123/internal/pan123"
	"github.com/strm123/strm123/internal/retry"
	"github.com/strm123/strm123/internal/session"
)

// shareScheme is the scheme used for share listing and subtitle downloads.
// Tests point it at plain-HTTP servers.
var shareScheme = "https"

// Endpoint overrides for the account API; empty keeps the pan123 defaults.
var (
	apiBaseURL   string
	loginBaseURL string
)

// newPanClient builds the 123pan client from network settings.
func newPanClient(cfg *config.Config, logger *slog.Logger) (*pan123.Client, error) {
	httpClient, err := pan123.NewHTTPClient(cfg.Network.TimeoutDuration(), cfg.Network.Proxy)
	if err != nil {
		return nil, err
	}

	opts := []pan123.Option{
		pan123.WithShareScheme(shareScheme),
		pan123.WithUserAgent(cfg.Network.UserAgent),
	}

	if apiBaseURL != "" {
		opts = append(opts, pan123.WithAPIBaseURL(apiBaseURL))
	}

	if loginBaseURL != "" {
		opts = append(opts, pan123.WithLoginBaseURL(loginBaseURL))
	}

	return pan123.NewClient(httpClient, logger, opts...), nil
}

// newSession builds the credential session. Logins use the configured
// attempt budget with the default backoff schedule.
func newSession(cfg *config.Config, auth session.Authenticator, logger *slog.Logger) *session.Session {
	return session.New(auth, session.Credentials{
		Passport: cfg.Account.Passport,
		Password: cfg.Account.Password,
	}, session.Options{
		DefaultLifetime: cfg.Session.Lifetime(),
		Retry:           retry.Default().WithAttempts(cfg.Session.LoginAttempts),
		TokenFile:       cfg.Session.TokenFile,
		Logger:          logger,
	})
}

// newEngine builds the mirror engine from mirror settings.
func newEngine(cfg *config.Config, client *pan123.Client, logger *slog.Logger) *mirror.Engine {
	return mirror.NewEngine(client, client, mirror.Options{
		BaseURL:            cfg.Mirror.BaseURL,
		OutputRoot:         cfg.Mirror.OutputRoot,
		MaxDepth:           cfg.Mirror.MaxDepth,
		PointerExt:         cfg.Mirror.PointerExt,
		VideoExtensions:    cfg.Mirror.VideoExtensions,
		SubtitleExtensions: cfg.Mirror.SubtitleExtensions,
		Retry:              retry.Default().WithAttempts(cfg.Mirror.DownloadAttempts),
		FetchScheme:        shareScheme,
		Logger:             logger,
	})
}
