package mirror

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// upstreamPath decodes a share source URI into the raw upstream segment:
// the scheme prefix and any query suffix are dropped and the rest is
// URL-decoded. "123://E1.mp4|10|ab?s3keyflag=x" yields "E1.mp4|10|ab".
func upstreamPath(sourceURI string) (string, error) {
	_, rest, ok := strings.Cut(sourceURI, "://")
	if !ok {
		return "", fmt.Errorf("%w: source uri %q has no scheme", ErrDecode, sourceURI)
	}

	rest, _, _ = strings.Cut(rest, "?")

	raw, err := url.PathUnescape(rest)
	if err != nil {
		return "", fmt.Errorf("%w: source uri %q: %w", ErrDecode, sourceURI, err)
	}

	if raw == "" {
		return "", fmt.Errorf("%w: source uri %q has an empty path", ErrDecode, sourceURI)
	}

	return raw, nil
}

// localRelPath turns a share-relative path ("/S1/E1.mp4") into a cleaned,
// NFC-normalized, slash-separated path that stays inside the output root.
func localRelPath(rel string) (string, error) {
	cleaned := path.Clean("/" + norm.NFC.String(rel))
	cleaned = strings.TrimPrefix(cleaned, "/")

	if cleaned == "" || cleaned == "." {
		return "", fmt.Errorf("%w: empty relative path %q", ErrDecode, rel)
	}

	if !filepath.IsLocal(filepath.FromSlash(cleaned)) {
		return "", fmt.Errorf("%w: relative path %q escapes the output root", ErrDecode, rel)
	}

	return cleaned, nil
}

// pointerRelPath swaps the extension of rel for the pointer extension.
func pointerRelPath(rel, pointerExt string) string {
	return strings.TrimSuffix(rel, path.Ext(rel)) + "." + strings.TrimPrefix(pointerExt, ".")
}

// pointerContent is the single line written to a pointer file.
func pointerContent(baseURL, upstream string) string {
	return strings.TrimRight(baseURL, "/") + "/" + upstream
}

// subtitleURL is where a subtitle's bytes are fetched from.
func subtitleURL(scheme, domain, upstream string) string {
	u := url.URL{Scheme: scheme, Host: domain, Path: "/" + upstream}
	return u.String()
}
