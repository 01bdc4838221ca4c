package pan123

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
)

// Share listing constants.
const (
	sharePageSize = 100
	shareRootID   = 0
	lastPageNext  = "-1"

	// SourceScheme prefixes every ShareEntry.SourceURI.
	SourceScheme = "123://"
)

// ListShare walks a share depth-first and yields every file entry in listing
// order. Directories are descended into (subject to MaxDepth) but not yielded.
// A listing failure is yielded once as a non-nil error and ends the sequence.
// Shares are public links, so no token is sent.
func (c *Client) ListShare(ctx context.Context, req ShareRequest) iter.Seq2[ShareEntry, error] {
	return func(yield func(ShareEntry, error) bool) {
		c.logger.Info("listing share",
			slog.String("domain", req.Domain),
			slog.String("share_key", req.ShareKey),
			slog.Int("max_depth", req.MaxDepth),
		)

		_, err := c.walkShare(ctx, req, shareRootID, "/", 1, yield)
		if err != nil {
			yield(ShareEntry{}, err)
		}
	}
}

// walkShare lists one folder and recurses. It returns (false, nil) when the
// consumer stopped iteration.
func (c *Client) walkShare(
	ctx context.Context, req ShareRequest, parentID int64, dir string, depth int,
	yield func(ShareEntry, error) bool,
) (bool, error) {
	next := "0"

	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return false, fmt.Errorf("pan123: listing canceled: %w", err)
		}

		data, err := doJSON[sharePage](ctx, c, http.MethodGet, c.shareURL(req, parentID, next, page), nil, nil, 0)
		if err != nil {
			return false, fmt.Errorf("pan123: listing share %s folder %d: %w", req.ShareKey, parentID, err)
		}

		for _, f := range data.InfoList {
			relPath := path.Join(dir, f.FileName)

			if f.Type == shareTypeFolder {
				if req.MaxDepth >= 0 && depth >= req.MaxDepth {
					continue
				}

				more, err := c.walkShare(ctx, req, f.FileID, relPath, depth+1, yield)
				if err != nil || !more {
					return more, err
				}

				continue
			}

			if !yield(ShareEntry{
				RelativePath: relPath,
				SourceURI:    sourceURI(f),
				Size:         f.Size,
			}, nil) {
				return false, nil
			}
		}

		if data.Next == "" || data.Next == lastPageNext || len(data.InfoList) == 0 {
			return true, nil
		}

		next = data.Next
	}
}

func (c *Client) shareURL(req ShareRequest, parentID int64, next string, page int) string {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(sharePageSize))
	q.Set("next", next)
	q.Set("orderBy", "file_id")
	q.Set("orderDirection", "asc")
	q.Set("shareKey", req.ShareKey)
	q.Set("SharePwd", req.Password)
	q.Set("ParentFileId", strconv.FormatInt(parentID, 10))
	q.Set("Page", strconv.Itoa(page))

	u := url.URL{
		Scheme:   c.shareScheme,
		Host:     req.Domain,
		Path:     "/b/api/share/get",
		RawQuery: q.Encode(),
	}

	return u.String()
}

// sourceURI builds the opaque locator for a shared file:
// 123://{escaped name}|{size}|{etag}?s3keyflag={flag}.
func sourceURI(f shareFile) string {
	q := url.Values{}
	q.Set("s3keyflag", f.S3KeyFlag)

	return SourceScheme + url.PathEscape(f.FileName) + "|" +
		strconv.FormatInt(f.Size, 10) + "|" + f.Etag + "?" + q.Encode()
}
