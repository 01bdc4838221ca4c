package mirror

import (
	"path"
	"strings"
)

// Kind is the handling class of a share entry.
type Kind int

const (
	KindIgnored Kind = iota
	KindVideo
	KindSubtitle
)

func (k Kind) String() string {
	switch k {
	case KindVideo:
		return "video"
	case KindSubtitle:
		return "subtitle"
	default:
		return "ignored"
	}
}

// DefaultVideoExtensions are mirrored as pointer files.
var DefaultVideoExtensions = []string{
	".mp4", ".mkv", ".avi", ".mov", ".flv", ".ts", ".iso", ".rmvb", ".m2ts",
}

// DefaultSubtitleExtensions are downloaded verbatim.
var DefaultSubtitleExtensions = []string{".srt", ".ass", ".sub", ".ssa", ".vtt"}

// Classifier maps file extensions to a Kind. Matching is case-insensitive.
type Classifier struct {
	exts map[string]Kind
}

// NewClassifier builds a Classifier. Nil slices select the defaults; an
// extension listed in both sets is treated as video.
func NewClassifier(video, subtitle []string) *Classifier {
	if video == nil {
		video = DefaultVideoExtensions
	}

	if subtitle == nil {
		subtitle = DefaultSubtitleExtensions
	}

	c := &Classifier{exts: make(map[string]Kind, len(video)+len(subtitle))}

	for _, ext := range subtitle {
		c.exts[normalizeExt(ext)] = KindSubtitle
	}

	for _, ext := range video {
		c.exts[normalizeExt(ext)] = KindVideo
	}

	return c
}

// Classify returns the Kind for a file name or path.
func (c *Classifier) Classify(name string) Kind {
	ext := strings.ToLower(path.Ext(name))
	if ext == "" {
		return KindIgnored
	}

	return c.exts[ext]
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	return ext
}
