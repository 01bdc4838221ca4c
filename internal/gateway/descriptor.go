package gateway

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Sentinel errors for request handling.
var (
	ErrBadRequest = errors.New("gateway: malformed descriptor, expected name|size|etag")
	ErrUpstream   = errors.New("gateway: download link resolution failed")
)

// Descriptor identifies one file to the account API.
type Descriptor struct {
	Name      string
	Size      int64
	ETag      string
	S3KeyFlag string
}

// ParseDescriptor parses a decoded request path of the form
// "name|size|etag[?extra]". The extra suffix is opaque and starts at the
// first "?" that follows a complete name|size|etag, so it may contain "|".
// Within the descriptor the size and etag are the last two fields, so names
// may themselves contain "|". S3KeyFlag comes from query, falling back to an
// "s3keyflag" key inside extra.
func ParseDescriptor(raw string, query url.Values) (Descriptor, error) {
	raw = strings.TrimPrefix(raw, "/")

	desc, extra, err := splitExtra(raw)
	if err != nil {
		return Descriptor{}, err
	}

	desc.S3KeyFlag = query.Get("s3keyflag")
	if desc.S3KeyFlag == "" && extra != "" {
		if vals, err := url.ParseQuery(extra); err == nil {
			desc.S3KeyFlag = vals.Get("s3keyflag")
		}
	}

	return desc, nil
}

// splitExtra finds the first "?" whose prefix is a valid descriptor and
// returns the descriptor and the text after it.
func splitExtra(raw string) (Descriptor, string, error) {
	for i := 0; i < len(raw); i++ {
		j := strings.IndexByte(raw[i:], '?')
		if j < 0 {
			break
		}

		i += j

		if desc, _, err := parseFields(raw[:i]); err == nil {
			return desc, raw[i+1:], nil
		}
	}

	return parseFields(raw)
}

// parseFields parses "name|size|etag[?extra]" splitting from the right.
func parseFields(s string) (Descriptor, string, error) {
	if strings.Count(s, "|") < 2 {
		return Descriptor{}, "", fmt.Errorf("%w: %q", ErrBadRequest, s)
	}

	rest, tail, _ := cutLast(s, "|")
	name, sizeField, _ := cutLast(rest, "|")
	etag, extra, _ := strings.Cut(tail, "?")

	if name == "" {
		return Descriptor{}, "", fmt.Errorf("%w: empty name", ErrBadRequest)
	}

	size, err := strconv.ParseInt(sizeField, 10, 64)
	if err != nil || size < 0 {
		return Descriptor{}, "", fmt.Errorf("%w: invalid size %q", ErrBadRequest, sizeField)
	}

	if etag == "" {
		return Descriptor{}, "", fmt.Errorf("%w: empty etag", ErrBadRequest)
	}

	return Descriptor{Name: name, Size: size, ETag: etag}, extra, nil
}

func cutLast(s, sep string) (before, after string, found bool) {
	i := strings.LastIndex(s, sep)
	if i < 0 {
		return s, "", false
	}

	return s[:i], s[i+len(sep):], true
}
