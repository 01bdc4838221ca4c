package pan123

import "time"

// ShareEntry is one file yielded by a share listing. Directories are walked
// but never yielded.
type ShareEntry struct {
	RelativePath string // "/"-separated, leading "/" (e.g. "/S1/E1.mp4")
	IsDir        bool
	SourceURI    string // "123://name|size|etag?s3keyflag=..."; name is path-escaped
	Size         int64
}

// ShareRequest identifies a share to enumerate.
type ShareRequest struct {
	Domain   string // share host, e.g. "www.123pan.com"
	ShareKey string
	Password string
	MaxDepth int // <0 = unlimited, 1 = top level only
}

// LoginResult is a normalized login response. Expiry is UTC, or zero when the
// service did not report one.
type LoginResult struct {
	Token  string
	Expiry time.Time
}

// DownloadRequest identifies a file for direct-link resolution.
type DownloadRequest struct {
	FileName  string
	Size      int64
	ETag      string
	S3KeyFlag string
}

// envelope is the wire wrapper every JSON endpoint returns.
type envelope[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// shareFile is the wire form of a share listing item.
type shareFile struct {
	FileID    int64  `json:"FileId"`
	FileName  string `json:"FileName"`
	Type      int    `json:"Type"` // 1 = folder
	Size      int64  `json:"Size"`
	Etag      string `json:"Etag"`
	S3KeyFlag string `json:"S3KeyFlag"`
}

type sharePage struct {
	Next     string      `json:"Next"`
	InfoList []shareFile `json:"InfoList"`
}

type loginData struct {
	Token  string `json:"token"`
	Expire string `json:"expire"`
}

type downloadInfoData struct {
	DownloadURL string `json:"DownloadUrl"`
}

const shareTypeFolder = 1
