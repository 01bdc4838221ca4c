// Package sharelink extracts 123pan share links from free-form chat text and
// formats the reply sent back once a mirror run finishes.
package sharelink

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/strm123/strm123/internal/mirror"
)

// ErrNoLink is returned when a message contains no recognizable share link.
var ErrNoLink = errors.New("sharelink: no share link with a 4-character code found")

// linkPattern matches "[https://]www.123<digits|pan>.<com|cn>/s/<key>" followed by an
// optional code marker ("?提取码=", "提取码：", "?pwd=") and the 4-character
// code.
var linkPattern = regexp.MustCompile(`(?i)` +
	`(?:https?://)?` +
	`(www\.123(?:\d+|pan)\.(?:com|cn))` +
	`/s/` +
	`([\w-]+)` +
	`(?:\s*[?&](?:提取码|pwd)[=:：]\s*|\s*提取码\s*[：:=]?\s*)?` +
	`(\w{4})`)

// Replies sent around a run.
const (
	StartedReply   = "🔄 123STRM开始处理，请稍候..."
	BadFormatReply = "❌ 链接格式错误！"
)

// Link is a share reference parsed from a message.
type Link struct {
	Domain   string
	Key      string
	Password string
}

// Share converts l for the mirror engine.
func (l Link) Share() mirror.Share {
	return mirror.Share{Domain: strings.ToLower(l.Domain), Key: l.Key, Password: l.Password}
}

// Parse finds the first share link in msg.
func Parse(msg string) (Link, error) {
	m := linkPattern.FindStringSubmatch(msg)
	if m == nil {
		return Link{}, ErrNoLink
	}

	return Link{Domain: m[1], Key: m[2], Password: m[3]}, nil
}

// FormatSummary renders the reply for a finished run.
func FormatSummary(elapsed time.Duration, t mirror.Tally) string {
	return fmt.Sprintf("✅ 处理完成！\n⏱ 耗时：%.1f秒\n🎬 视频文件：%d\n📝 字幕文件：%d\n❌ 错误数：%d",
		elapsed.Seconds(), t.Video, t.Subtitle, t.Errors)
}

// FormatFailure renders the reply for a run that could not complete.
func FormatFailure(err error) string {
	return "❌ 处理失败：" + err.Error()
}
