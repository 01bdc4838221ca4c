package pan123

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// Envelope success codes. Sign-in answers 200; every other endpoint answers 0.
const (
	codeOK      = 0
	codeLoginOK = 200
)

// expireLayouts are the formats seen in the sign-in "expire" field.
// Layouts without a zone are interpreted in the service's zone (UTC+8).
var expireLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// serviceZone is the zone the service uses for naive timestamps.
var serviceZone = time.FixedZone("CST", 8*60*60)

// Login signs in with passport (phone or e-mail) and password. The returned
// expiry is normalized to UTC, or zero when the response carries none.
func (c *Client) Login(ctx context.Context, passport, password string) (LoginResult, error) {
	body := map[string]any{
		"passport": passport,
		"password": password,
		"remember": true,
	}

	data, err := doJSON[loginData](ctx, c, http.MethodPost, c.loginBase+"/api/user/sign_in", nil, body, codeLoginOK)
	if err != nil {
		return LoginResult{}, fmt.Errorf("pan123: sign in: %w", err)
	}

	if data.Token == "" {
		return LoginResult{}, &APIError{
			StatusCode: http.StatusOK,
			Code:       codeLoginOK,
			Message:    "sign-in response has no token",
			Err:        ErrAPI,
		}
	}

	res := LoginResult{Token: data.Token}

	if data.Expire != "" {
		expiry, parseErr := ParseExpiry(data.Expire)
		if parseErr != nil {
			c.logger.Warn("ignoring unparseable token expiry",
				slog.String("expire", data.Expire),
				slog.String("error", parseErr.Error()),
			)
		} else {
			res.Expiry = expiry
		}
	}

	c.logger.Info("sign in succeeded", slog.Time("expiry", res.Expiry))

	return res, nil
}

// ParseExpiry parses an expiry timestamp and normalizes it to UTC.
func ParseExpiry(s string) (time.Time, error) {
	for _, layout := range expireLayouts {
		t, err := time.ParseInLocation(layout, s, serviceZone)
		if err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("pan123: unrecognized expiry %q", s)
}

// DownloadURL resolves a file descriptor to a time-limited direct download
// URL, authorized with tok. The URL embeds credentials and must not be
// logged.
func (c *Client) DownloadURL(ctx context.Context, tok *oauth2.Token, req DownloadRequest) (string, error) {
	body := map[string]any{
		"FileName":  req.FileName,
		"Size":      req.Size,
		"Etag":      req.ETag,
		"S3KeyFlag": req.S3KeyFlag,
		"Type":      0,
		"driveId":   0,
	}

	data, err := doJSON[downloadInfoData](ctx, c, http.MethodPost, c.apiBase+"/api/file/download_info", tok, body, codeOK)
	if err != nil {
		return "", fmt.Errorf("pan123: download info for %q: %w", req.FileName, err)
	}

	if data.DownloadURL == "" {
		return "", ErrNoDownloadURL
	}

	c.logger.Debug("download URL resolved",
		slog.String("name", req.FileName),
		slog.Int64("size", req.Size),
	)

	return data.DownloadURL, nil
}
