// Package mirror walks a remote share and reproduces it under a local output
// root: video files become one-line pointer files that link back to the
// redirect gateway, subtitle files are downloaded verbatim, everything else
// is skipped. Per-entry failures are counted, never fatal; only a failed
// listing aborts a run.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/strm123/strm123/internal/metrics"
	"github.com/strm123/strm123/internal/pan123"
	"github.com/strm123/strm123/internal/retry"
)

// DefaultPointerExt is the extension given to pointer files.
const DefaultPointerExt = "strm"

// Lister enumerates the files of a share.
type Lister interface {
	ListShare(ctx context.Context, req pan123.ShareRequest) iter.Seq2[pan123.ShareEntry, error]
}

// Fetcher streams the body at a URL into w. One call is one attempt.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, w io.Writer) (int64, error)
}

// Share identifies the share to mirror.
type Share struct {
	Domain   string
	Key      string
	Password string
}

// Options configure an Engine. BaseURL and OutputRoot are required; zero
// values elsewhere select defaults.
type Options struct {
	BaseURL            string
	OutputRoot         string
	MaxDepth           int // <0 = unlimited
	PointerExt         string
	VideoExtensions    []string
	SubtitleExtensions []string
	Retry              retry.Policy // zero MaxAttempts = retry.Default()
	FetchScheme        string       // scheme for subtitle downloads, "https" by default
	Logger             *slog.Logger
}

// Engine mirrors shares into OutputRoot. An Engine is safe to reuse across
// runs; concurrent runs on the same output root are rejected with ErrBusy.
type Engine struct {
	lister     Lister
	fetcher    Fetcher
	classifier *Classifier
	opts       Options
	logger     *slog.Logger
}

// NewEngine creates an Engine.
func NewEngine(lister Lister, fetcher Fetcher, opts Options) *Engine {
	if opts.PointerExt == "" {
		opts.PointerExt = DefaultPointerExt
	}

	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = retry.Default()
	}

	if opts.FetchScheme == "" {
		opts.FetchScheme = "https"
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		lister:     lister,
		fetcher:    fetcher,
		classifier: NewClassifier(opts.VideoExtensions, opts.SubtitleExtensions),
		opts:       opts,
		logger:     logger,
	}
}

// Mirror runs one walk of share. It returns the accumulated tally together
// with ErrListing if enumeration failed, the context error if ctx was
// canceled between entries, or ErrBusy if another run holds the output root.
func (e *Engine) Mirror(ctx context.Context, share Share) (Tally, error) {
	release, err := acquireLock(e.opts.OutputRoot)
	if err != nil {
		return Tally{}, err
	}
	defer release()

	start := time.Now()

	e.logger.Info("mirror started",
		slog.String("domain", share.Domain),
		slog.String("share_key", share.Key),
		slog.String("output_root", e.opts.OutputRoot),
	)

	tally, err := e.walk(ctx, share)

	metrics.RecordMirrorRun(tally.Video, tally.Subtitle, tally.Errors)

	e.logger.Info("mirror finished",
		slog.Int("video", tally.Video),
		slog.Int("subtitle", tally.Subtitle),
		slog.Int("errors", tally.Errors),
		slog.Duration("elapsed", time.Since(start)),
	)

	return tally, err
}

func (e *Engine) walk(ctx context.Context, share Share) (Tally, error) {
	var tally Tally

	req := pan123.ShareRequest{
		Domain:   share.Domain,
		ShareKey: share.Key,
		Password: share.Password,
		MaxDepth: e.opts.MaxDepth,
	}

	for entry, err := range e.lister.ListShare(ctx, req) {
		if err != nil {
			tally.Errors++

			e.logger.Error("share listing failed", slog.String("error", err.Error()))

			return tally, fmt.Errorf("%w: %w", ErrListing, err)
		}

		if err := ctx.Err(); err != nil {
			e.logger.Warn("mirror canceled", slog.String("error", err.Error()))
			return tally, fmt.Errorf("mirror: canceled: %w", err)
		}

		if entry.IsDir {
			continue
		}

		delta, err := e.processEntry(ctx, share, entry)
		if err != nil {
			e.logger.Warn("entry failed",
				slog.String("path", entry.RelativePath),
				slog.String("error", err.Error()),
			)
		}

		tally = tally.Add(delta)
	}

	return tally, nil
}

// processEntry handles one file and returns its contribution to the tally.
func (e *Engine) processEntry(ctx context.Context, share Share, entry pan123.ShareEntry) (Tally, error) {
	kind := e.classifier.Classify(entry.RelativePath)
	if kind == KindIgnored {
		e.logger.Debug("skipping entry", slog.String("path", entry.RelativePath))
		return Tally{}, nil
	}

	rel, err := localRelPath(entry.RelativePath)
	if err != nil {
		return Tally{Errors: 1}, err
	}

	upstream, err := upstreamPath(entry.SourceURI)
	if err != nil {
		return Tally{Errors: 1}, err
	}

	switch kind {
	case KindVideo:
		if err := e.writePointer(rel, upstream); err != nil {
			return Tally{Errors: 1}, err
		}

		return Tally{Video: 1}, nil
	case KindSubtitle:
		if err := e.downloadSubtitle(ctx, share.Domain, rel, upstream); err != nil {
			return Tally{Errors: 1}, err
		}

		return Tally{Subtitle: 1}, nil
	default:
		return Tally{}, nil
	}
}

func (e *Engine) writePointer(rel, upstream string) error {
	target := filepath.Join(e.opts.OutputRoot, filepath.FromSlash(pointerRelPath(rel, e.opts.PointerExt)))

	if err := writeString(target, pointerContent(e.opts.BaseURL, upstream)); err != nil {
		return err
	}

	e.logger.Debug("wrote pointer file", slog.String("path", target))

	return nil
}

func (e *Engine) downloadSubtitle(ctx context.Context, domain, rel, upstream string) error {
	target := filepath.Join(e.opts.OutputRoot, filepath.FromSlash(rel))
	src := subtitleURL(e.opts.FetchScheme, domain, upstream)

	policy := e.opts.Retry
	policy.Notify = func(attempt int, delay time.Duration, err error) {
		e.logger.Warn("subtitle download failed, retrying",
			slog.String("path", rel),
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()),
		)
	}

	err := policy.Do(ctx, func(ctx context.Context, _ int) error {
		err := writeAtomic(target, func(w io.Writer) error {
			if _, err := e.fetcher.Fetch(ctx, src, w); err != nil {
				return fmt.Errorf("%w: %s: %w", ErrFetch, rel, err)
			}

			return nil
		})

		// Local write problems will not improve on a second try.
		if errors.Is(err, ErrIO) {
			return retry.Permanent(err)
		}

		return err
	})
	if err != nil {
		if !errors.Is(err, ErrIO) && !errors.Is(err, ErrFetch) {
			err = fmt.Errorf("%w: %s: %w", ErrFetch, rel, err)
		}

		return err
	}

	e.logger.Debug("downloaded subtitle", slog.String("path", target))

	return nil
}
