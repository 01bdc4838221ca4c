package mirror

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpstreamPath(t *testing.T) {
	tests := []struct {
		name string
		uri  string
		want string
	}{
		{"strips scheme and query", "123://E1.mp4%7C10%7Cab?s3keyflag=x", "E1.mp4|10|ab"},
		{"no query", "123://a%20b.mkv|1|e", "a b.mkv|1|e"},
		{"unicode", "123://%E5%89%A7%E9%9B%86.mp4|1|e?x=1", "剧集.mp4|1|e"},
		{"other scheme", "https://host/path", "host/path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := upstreamPath(tt.uri)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUpstreamPath_Errors(t *testing.T) {
	for _, uri := range []string{"", "no-scheme", "123://", "123://?s3keyflag=1", "123://bad%zz"} {
		_, err := upstreamPath(uri)
		assert.ErrorIs(t, err, ErrDecode, uri)
	}
}

func TestLocalRelPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/S1/E1.mp4", "S1/E1.mp4"},
		{"S1//E1.mp4", "S1/E1.mp4"},
		{"/a/./b/../c.srt", "a/c.srt"},
		{"/../../etc/passwd.srt", "etc/passwd.srt"},
		// Decomposed "é" is composed.
		{"/cafe\u0301.mp4", "caf\u00e9.mp4"},
	}

	for _, tt := range tests {
		got, err := localRelPath(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestLocalRelPath_Empty(t *testing.T) {
	for _, in := range []string{"", "/", "/.."} {
		_, err := localRelPath(in)
		assert.ErrorIs(t, err, ErrDecode, in)
	}
}

func TestPointerRelPath(t *testing.T) {
	assert.Equal(t, "S1/E1.strm", pointerRelPath("S1/E1.mp4", "strm"))
	assert.Equal(t, "S1/E1.strm", pointerRelPath("S1/E1.mp4", ".strm"))
	assert.Equal(t, "a.b/c.d.strm", pointerRelPath("a.b/c.d.mkv", "strm"))
}

func TestPointerContent(t *testing.T) {
	assert.Equal(t, "http://base/x|1|e", pointerContent("http://base", "x|1|e"))
	assert.Equal(t, "http://base/x|1|e", pointerContent("http://base///", "x|1|e"))
}

func TestSubtitleURL(t *testing.T) {
	assert.Equal(t, "https://www.123pan.com/a.srt%7C1%7Ce", subtitleURL("https", "www.123pan.com", "a.srt|1|e"))
	assert.Equal(t, "http://127.0.0.1:9/a%20b.srt", subtitleURL("http", "127.0.0.1:9", "a b.srt"))
}
