package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/strm123/strm123/internal/pan123"
	"github.com/strm123/strm123/internal/retry"
	"github.com/strm123/strm123/internal/tokenfile"
)

// fakeAuth counts logins and returns scripted results.
type fakeAuth struct {
	calls  atomic.Int32
	delay  time.Duration
	expiry time.Time
	errs   []error // consumed in order; nil entries mean success
	mu     sync.Mutex
}

func (f *fakeAuth) Login(_ context.Context, passport, password string) (pan123.LoginResult, error) {
	n := f.calls.Add(1)

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	var err error
	if len(f.errs) > 0 {
		err = f.errs[0]
		f.errs = f.errs[1:]
	}
	f.mu.Unlock()

	if err != nil {
		return pan123.LoginResult{}, err
	}

	if passport != "user" || password != "pw" {
		return pan123.LoginResult{}, errors.New("unexpected credentials")
	}

	return pan123.LoginResult{Token: "tok-" + string(rune('0'+n)), Expiry: f.expiry}, nil
}

// clock is a settable test clock.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSession(auth Authenticator, clk *clock, opts Options) *Session {
	opts.Now = clk.Now
	opts.Logger = discardLogger()

	return New(auth, Credentials{Passport: "user", Password: "pw"}, opts)
}

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestEnsureValid_LogsInWhenUninitialized(t *testing.T) {
	auth := &fakeAuth{}
	clk := &clock{now: t0}
	s := newTestSession(auth, clk, Options{})

	assert.Equal(t, StateUninitialized, s.State())

	require.NoError(t, s.EnsureValid(context.Background()))
	assert.Equal(t, int32(1), auth.calls.Load())
	assert.Equal(t, StateValid, s.State())

	// Fast path: no second login while valid.
	require.NoError(t, s.EnsureValid(context.Background()))
	assert.Equal(t, int32(1), auth.calls.Load())
}

func TestEnsureValid_DefaultLifetimeWhenNoExpiry(t *testing.T) {
	auth := &fakeAuth{}
	clk := &clock{now: t0}
	s := newTestSession(auth, clk, Options{})

	require.NoError(t, s.EnsureValid(context.Background()))
	assert.Equal(t, t0.Add(DefaultLifetime), s.Expiry())

	clk.Advance(DefaultLifetime - time.Hour)
	require.NoError(t, s.EnsureValid(context.Background()))
	assert.Equal(t, int32(1), auth.calls.Load())

	clk.Advance(2 * time.Hour)
	assert.Equal(t, StateExpired, s.State())
	require.NoError(t, s.EnsureValid(context.Background()))
	assert.Equal(t, int32(2), auth.calls.Load())
}

func TestEnsureValid_ConfigurableLifetime(t *testing.T) {
	auth := &fakeAuth{}
	clk := &clock{now: t0}
	s := newTestSession(auth, clk, Options{DefaultLifetime: time.Hour})

	require.NoError(t, s.EnsureValid(context.Background()))
	assert.Equal(t, t0.Add(time.Hour), s.Expiry())
}

func TestEnsureValid_ExplicitExpiryNormalizedToUTC(t *testing.T) {
	zone := time.FixedZone("CST", 8*60*60)
	explicit := time.Date(2026, 3, 1, 22, 0, 0, 0, zone) // 14:00 UTC

	auth := &fakeAuth{expiry: explicit}
	clk := &clock{now: t0}
	s := newTestSession(auth, clk, Options{})

	require.NoError(t, s.EnsureValid(context.Background()))
	assert.Equal(t, time.UTC, s.Expiry().Location())
	assert.True(t, s.Expiry().Equal(explicit))

	clk.Advance(time.Hour + 30*time.Minute) // 13:30 UTC
	assert.Equal(t, StateValid, s.State())

	clk.Advance(time.Hour) // 14:30 UTC
	assert.Equal(t, StateExpired, s.State())
}

func TestEnsureValid_NonUTCClock(t *testing.T) {
	auth := &fakeAuth{expiry: t0.Add(time.Hour)}
	zone := time.FixedZone("PST", -8*60*60)
	clk := &clock{now: t0.In(zone)}
	s := newTestSession(auth, clk, Options{})

	require.NoError(t, s.EnsureValid(context.Background()))
	assert.Equal(t, StateValid, s.State())

	clk.Advance(2 * time.Hour)
	assert.Equal(t, StateExpired, s.State())
}

func TestEnsureValid_ConcurrentSingleLogin(t *testing.T) {
	auth := &fakeAuth{delay: 20 * time.Millisecond}
	clk := &clock{now: t0}
	s := newTestSession(auth, clk, Options{})

	const n = 50

	var wg sync.WaitGroup
	errs := make(chan error, n)
	tokens := make(chan string, n)

	for range n {
		wg.Add(1)

		go func() {
			defer wg.Done()

			tok, err := s.Token(context.Background())
			errs <- err
			tokens <- tok
		}()
	}

	wg.Wait()
	close(errs)
	close(tokens)

	for err := range errs {
		assert.NoError(t, err)
	}

	for tok := range tokens {
		assert.Equal(t, "tok-1", tok)
	}

	assert.Equal(t, int32(1), auth.calls.Load())
	assert.Equal(t, StateValid, s.State())
}

func TestEnsureValid_FailureSurfacesErrAuthAndRetriesNextCall(t *testing.T) {
	upstream := &pan123.APIError{StatusCode: 200, Code: 5113, Message: "wrong password", Err: pan123.ErrAPI}
	auth := &fakeAuth{errs: []error{upstream}}
	clk := &clock{now: t0}
	s := newTestSession(auth, clk, Options{})

	err := s.EnsureValid(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuth)
	assert.ErrorIs(t, err, pan123.ErrAPI)
	assert.Equal(t, StateUninitialized, s.State())

	require.NoError(t, s.EnsureValid(context.Background()))
	assert.Equal(t, int32(2), auth.calls.Load())
}

func TestLogin_FailureDiscardsOldToken(t *testing.T) {
	auth := &fakeAuth{}
	clk := &clock{now: t0}
	s := newTestSession(auth, clk, Options{})

	require.NoError(t, s.Login(context.Background()))
	assert.Equal(t, StateValid, s.State())

	auth.mu.Lock()
	auth.errs = []error{errors.New("network down")}
	auth.mu.Unlock()

	require.ErrorIs(t, s.Login(context.Background()), ErrAuth)
	assert.Equal(t, StateUninitialized, s.State())
	assert.True(t, s.Expiry().IsZero())
}

func TestLogin_RetryPolicyRetriesTransientErrors(t *testing.T) {
	auth := &fakeAuth{errs: []error{errors.New("connection reset"), nil}}
	clk := &clock{now: t0}

	policy := retry.Default()
	policy.Sleep = func(context.Context, time.Duration) error { return nil }

	s := newTestSession(auth, clk, Options{Retry: policy})

	require.NoError(t, s.EnsureValid(context.Background()))
	assert.Equal(t, int32(2), auth.calls.Load())
}

func TestLogin_RetryPolicySkipsPermanentErrors(t *testing.T) {
	rejected := &pan123.APIError{StatusCode: 401, Err: pan123.ErrUnauthorized}
	auth := &fakeAuth{errs: []error{rejected, rejected, rejected}}
	clk := &clock{now: t0}

	policy := retry.Default()
	policy.Sleep = func(context.Context, time.Duration) error { return nil }

	s := newTestSession(auth, clk, Options{Retry: policy})

	require.ErrorIs(t, s.EnsureValid(context.Background()), pan123.ErrUnauthorized)
	assert.Equal(t, int32(1), auth.calls.Load())
}

func TestTokenCache_SavedAndReloaded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	auth := &fakeAuth{}
	clk := &clock{now: t0}

	s := newTestSession(auth, clk, Options{TokenFile: path})
	require.NoError(t, s.EnsureValid(context.Background()))

	tf, err := tokenfile.Load(path)
	require.NoError(t, err)
	require.NotNil(t, tf)
	assert.Equal(t, "user", tf.Account)
	assert.Equal(t, "tok-1", tf.Token.AccessToken)

	// A fresh session starts valid from the cache without logging in.
	s2 := newTestSession(auth, clk, Options{TokenFile: path})
	assert.Equal(t, StateValid, s2.State())

	tok, err := s2.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)
	assert.Equal(t, int32(1), auth.calls.Load())
}

func TestTokenCache_ExpiredIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, tokenfile.Save(path, "user", &oauth2.Token{
		AccessToken: "old", TokenType: "Bearer", Expiry: t0.Add(-time.Minute),
	}))

	auth := &fakeAuth{}
	s := newTestSession(auth, &clock{now: t0}, Options{TokenFile: path})
	assert.Equal(t, StateUninitialized, s.State())

	tok, err := s.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)
}

func TestTokenCache_OtherAccountIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, tokenfile.Save(path, "someone-else", &oauth2.Token{
		AccessToken: "theirs", TokenType: "Bearer", Expiry: t0.Add(time.Hour),
	}))

	s := newTestSession(&fakeAuth{}, &clock{now: t0}, Options{TokenFile: path})
	assert.Equal(t, StateUninitialized, s.State())
}

func TestTokenCache_RemovedWhenLoginFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	auth := &fakeAuth{}
	clk := &clock{now: t0}

	s := newTestSession(auth, clk, Options{TokenFile: path})
	require.NoError(t, s.Login(context.Background()))
	require.FileExists(t, path)

	auth.mu.Lock()
	auth.errs = []error{&pan123.APIError{StatusCode: 401, Err: pan123.ErrUnauthorized}}
	auth.mu.Unlock()

	require.ErrorIs(t, s.Login(context.Background()), ErrAuth)
	assert.NoFileExists(t, path)

	// A restart no longer sees the discarded token.
	s2 := newTestSession(auth, clk, Options{TokenFile: path})
	assert.Equal(t, StateUninitialized, s2.State())
}

func TestTokenSource_ReturnsCopy(t *testing.T) {
	auth := &fakeAuth{}
	s := newTestSession(auth, &clock{now: t0}, Options{})

	ts := s.TokenSource(context.Background())

	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok.AccessToken)
	assert.Equal(t, "Bearer", tok.TokenType)

	tok.AccessToken = "mutated"

	again, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "tok-1", again.AccessToken)
	assert.Equal(t, int32(1), auth.calls.Load())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "uninitialized", StateUninitialized.String())
	assert.Equal(t, "valid", StateValid.String())
	assert.Equal(t, "expired", StateExpired.String())
}
