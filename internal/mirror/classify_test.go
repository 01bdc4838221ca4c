package mirror

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_Defaults(t *testing.T) {
	c := NewClassifier(nil, nil)

	tests := map[string]Kind{
		"/a/b.mp4":  KindVideo,
		"B.MKV":     KindVideo,
		"x.m2ts":    KindVideo,
		"x.rmvb":    KindVideo,
		"ep.srt":    KindSubtitle,
		"ep.ASS":    KindSubtitle,
		"ep.vtt":    KindSubtitle,
		"cover.jpg": KindIgnored,
		"README":    KindIgnored,
		"archive.":  KindIgnored,
	}

	for name, want := range tests {
		assert.Equal(t, want, c.Classify(name), name)
	}
}

func TestClassify_Custom(t *testing.T) {
	c := NewClassifier([]string{"webm", ".MP4"}, []string{".sup"})

	assert.Equal(t, KindVideo, c.Classify("a.webm"))
	assert.Equal(t, KindVideo, c.Classify("a.mp4"))
	assert.Equal(t, KindIgnored, c.Classify("a.mkv"))
	assert.Equal(t, KindSubtitle, c.Classify("a.sup"))
	assert.Equal(t, KindIgnored, c.Classify("a.srt"))
}

func TestClassify_OverlapPrefersVideo(t *testing.T) {
	c := NewClassifier([]string{".ts"}, []string{".ts"})
	assert.Equal(t, KindVideo, c.Classify("a.ts"))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "video", KindVideo.String())
	assert.Equal(t, "subtitle", KindSubtitle.String())
	assert.Equal(t, "ignored", KindIgnored.String())
}

func TestTallyAdd(t *testing.T) {
	got := Tally{Video: 1, Errors: 2}.Add(Tally{Video: 3, Subtitle: 4, Errors: 1})
	assert.Equal(t, Tally{Video: 4, Subtitle: 4, Errors: 3}, got)
	assert.Equal(t, "video=4 subtitle=4 error=3", got.String())
}
