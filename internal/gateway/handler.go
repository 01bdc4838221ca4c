// Package gateway serves the redirect endpoint that pointer files link to:
// each request names a file descriptor, which is resolved to a time-limited
// direct download URL with the shared credential session.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/strm123/strm123/internal/metrics"
	"github.com/strm123/strm123/internal/pan123"
)

// Session hands out the shared account token. Its token source signs in
// first when the session is uninitialized or expired.
type Session interface {
	TokenSource(ctx context.Context) oauth2.TokenSource
}

// Resolver turns a descriptor into a direct download URL.
type Resolver interface {
	DownloadURL(ctx context.Context, tok *oauth2.Token, req pan123.DownloadRequest) (string, error)
}

// Handler resolves descriptors and redirects. It is safe for concurrent use.
type Handler struct {
	sess     Session
	resolver Resolver
	logger   *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(sess Session, resolver Resolver, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{sess: sess, resolver: resolver, logger: logger}
}

// errorBody is the JSON body of every failed request.
type errorBody struct {
	State   bool   `json:"state"`
	Message string `json:"message"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := loggerFrom(r.Context(), h.logger)

	desc, err := ParseDescriptor(r.URL.Path, r.URL.Query())
	if err != nil {
		logger.Warn("rejecting malformed request", slog.String("error", err.Error()))
		metrics.RecordGatewayRequest(metrics.OutcomeBadRequest)
		writeError(w, http.StatusBadRequest, ErrBadRequest.Error())

		return
	}

	target, err := h.resolve(r.Context(), desc)
	if err != nil {
		outcome := metrics.OutcomeUpstream
		if !errors.Is(err, ErrUpstream) {
			outcome = metrics.OutcomeAuthError
		}

		logger.Error("redirect failed",
			slog.String("name", desc.Name),
			slog.String("error", err.Error()),
		)
		metrics.RecordGatewayRequest(outcome)
		writeError(w, http.StatusInternalServerError, err.Error())

		return
	}

	logger.Info("redirecting", slog.String("name", desc.Name), slog.Int64("size", desc.Size))
	metrics.RecordGatewayRequest(metrics.OutcomeRedirect)

	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, target, http.StatusFound)
}

// resolve obtains a token and resolves desc. Session failures are returned
// unchanged; resolver failures are wrapped in ErrUpstream.
func (h *Handler) resolve(ctx context.Context, desc Descriptor) (string, error) {
	tok, err := h.sess.TokenSource(ctx).Token()
	if err != nil {
		return "", err
	}

	target, err := h.resolver.DownloadURL(ctx, tok, pan123.DownloadRequest{
		FileName:  desc.Name,
		Size:      desc.Size,
		ETag:      desc.ETag,
		S3KeyFlag: desc.S3KeyFlag,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	return target, nil
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{State: false, Message: msg})
}
