// Package session owns the 123pan sign-in token for the lifetime of the
// process. The token and its expiry are only ever replaced together, and
// refreshes are serialized so concurrent callers trigger at most one login.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/oauth2"

	"github.com/strm123/strm123/internal/metrics"
	"github.com/strm123/strm123/internal/pan123"
	"github.com/strm123/strm123/internal/retry"
	"github.com/strm123/strm123/internal/tokenfile"
)

// DefaultLifetime is assumed when the sign-in response carries no expiry.
const DefaultLifetime = 30 * 24 * time.Hour

// expirySkew treats a token as expired slightly early so it cannot lapse
// between the check and the call that uses it.
const expirySkew = 30 * time.Second

// ErrAuth is returned when a login does not succeed.
var ErrAuth = errors.New("session: authentication failed")

// Authenticator signs in to the remote account API.
type Authenticator interface {
	Login(ctx context.Context, passport, password string) (pan123.LoginResult, error)
}

// Credentials are the account credentials used for every login.
type Credentials struct {
	Passport string
	Password string
}

// State is the externally visible session state.
type State int

const (
	StateUninitialized State = iota
	StateValid
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateValid:
		return "valid"
	case StateExpired:
		return "expired"
	default:
		return "uninitialized"
	}
}

// Options configure a Session. Zero values select defaults.
type Options struct {
	DefaultLifetime time.Duration
	Retry           retry.Policy // zero = a single login attempt
	TokenFile       string       // empty = no token cache
	Now             func() time.Time
	Logger          *slog.Logger
}

// Session is the single shared credential session. Readers take a lock-free
// snapshot; refreshes run under mu.
type Session struct {
	auth      Authenticator
	creds     Credentials
	lifetime  time.Duration
	policy    retry.Policy
	tokenFile string
	now       func() time.Time
	logger    *slog.Logger

	mu      sync.Mutex
	current atomic.Pointer[oauth2.Token]
}

// New creates a Session. When a token cache is configured and holds an
// unexpired token for the same account, the session starts Valid.
func New(auth Authenticator, creds Credentials, opts Options) *Session {
	s := &Session{
		auth:      auth,
		creds:     creds,
		lifetime:  opts.DefaultLifetime,
		policy:    opts.Retry,
		tokenFile: opts.TokenFile,
		now:       opts.Now,
		logger:    opts.Logger,
	}

	if s.lifetime <= 0 {
		s.lifetime = DefaultLifetime
	}

	if s.now == nil {
		s.now = time.Now
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	s.loadCache()

	return s
}

// EnsureValid makes sure a non-expired token is held, logging in when the
// session is uninitialized or expired.
func (s *Session) EnsureValid(ctx context.Context) error {
	_, err := s.snapshot(ctx)
	return err
}

// Token returns a token that is valid at the time of the call.
func (s *Session) Token(ctx context.Context) (string, error) {
	tok, err := s.snapshot(ctx)
	if err != nil {
		return "", err
	}

	return tok.AccessToken, nil
}

// Login signs in unconditionally and replaces the token. On failure the
// previous token is discarded, together with the token cache.
func (s *Session) Login(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.loginLocked(ctx)

	return err
}

// TokenSource adapts the session to oauth2.TokenSource. Each call goes
// through the same check-then-refresh path as Token.
func (s *Session) TokenSource(ctx context.Context) oauth2.TokenSource {
	return tokenSource{ctx: ctx, s: s}
}

type tokenSource struct {
	ctx context.Context //nolint:containedctx // oauth2.TokenSource has no ctx parameter
	s   *Session
}

func (ts tokenSource) Token() (*oauth2.Token, error) {
	tok, err := ts.s.snapshot(ts.ctx)
	if err != nil {
		return nil, err
	}

	cp := *tok

	return &cp, nil
}

// State reports the current session state.
func (s *Session) State() State {
	tok := s.current.Load()
	if tok == nil {
		return StateUninitialized
	}

	if s.valid(tok) {
		return StateValid
	}

	return StateExpired
}

// Expiry returns the UTC expiry of the held token, or zero.
func (s *Session) Expiry() time.Time {
	if tok := s.current.Load(); tok != nil {
		return tok.Expiry
	}

	return time.Time{}
}

// snapshot returns the current token, refreshing it first if needed.
func (s *Session) snapshot(ctx context.Context) (*oauth2.Token, error) {
	if tok := s.current.Load(); s.valid(tok) {
		return tok, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another caller may have refreshed while we waited for the lock.
	if tok := s.current.Load(); s.valid(tok) {
		return tok, nil
	}

	if s.current.Load() == nil {
		s.logger.Info("session not initialized, logging in")
	} else {
		s.logger.Info("session token expired, logging in")
	}

	return s.loginLocked(ctx)
}

// loginLocked performs the sign-in. Caller must hold mu.
func (s *Session) loginLocked(ctx context.Context) (*oauth2.Token, error) {
	var res pan123.LoginResult

	err := s.policy.Do(ctx, func(ctx context.Context, attempt int) error {
		r, err := s.auth.Login(ctx, s.creds.Passport, s.creds.Password)
		if err != nil {
			s.logger.Warn("login attempt failed",
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()),
			)

			if !pan123.IsRetryable(err) {
				return retry.Permanent(err)
			}

			return err
		}

		res = r

		return nil
	})
	if err != nil {
		s.current.Store(nil)
		s.dropCache()
		metrics.RecordLogin(false)

		return nil, fmt.Errorf("%w: %w", ErrAuth, err)
	}

	expiry := res.Expiry
	if expiry.IsZero() {
		expiry = s.now().Add(s.lifetime)
	}

	tok := &oauth2.Token{
		AccessToken: res.Token,
		TokenType:   "Bearer",
		Expiry:      expiry.UTC(),
	}

	s.current.Store(tok)
	metrics.RecordLogin(true)

	s.logger.Info("login succeeded", slog.Time("expiry", tok.Expiry))

	s.saveCache(tok)

	return tok, nil
}

// valid reports whether tok is usable now. Both sides are UTC.
func (s *Session) valid(tok *oauth2.Token) bool {
	if tok == nil || tok.AccessToken == "" {
		return false
	}

	return s.now().UTC().Add(expirySkew).Before(tok.Expiry.UTC())
}

func (s *Session) loadCache() {
	if s.tokenFile == "" {
		return
	}

	tf, err := tokenfile.Load(s.tokenFile)
	if err != nil {
		s.logger.Warn("ignoring unreadable token cache",
			slog.String("path", s.tokenFile),
			slog.String("error", err.Error()),
		)

		return
	}

	if tf == nil {
		return
	}

	if tf.Account != s.creds.Passport {
		s.logger.Info("token cache belongs to another account, ignoring",
			slog.String("path", s.tokenFile),
		)

		return
	}

	tok := &oauth2.Token{
		AccessToken: tf.Token.AccessToken,
		TokenType:   tf.Token.TokenType,
		Expiry:      tf.Token.Expiry.UTC(),
	}

	if !s.valid(tok) {
		s.logger.Info("cached token expired", slog.Time("expiry", tok.Expiry))
		return
	}

	s.current.Store(tok)
	s.logger.Info("loaded cached token",
		slog.String("path", s.tokenFile),
		slog.Time("expiry", tok.Expiry),
	)
}

func (s *Session) saveCache(tok *oauth2.Token) {
	if s.tokenFile == "" {
		return
	}

	if err := tokenfile.Save(s.tokenFile, s.creds.Passport, tok); err != nil {
		s.logger.Warn("failed to persist token cache",
			slog.String("path", s.tokenFile),
			slog.String("error", err.Error()),
		)
	}
}

// dropCache removes a cached token that the session no longer trusts, so a
// restart does not resurrect it.
func (s *Session) dropCache() {
	if s.tokenFile == "" {
		return
	}

	if err := tokenfile.Remove(s.tokenFile); err != nil {
		s.logger.Warn("failed to remove token cache",
			slog.String("path", s.tokenFile),
			slog.String("error", err.Error()),
		)
	}
}
