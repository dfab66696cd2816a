// Package urlmeta classifies pasted content links by hosting provider and
// extracts the identifiers the admin panel stores alongside a node.
//
// Only identifiers and a thumbnail link are ever derived. Embed URLs are
// never built or stored.
package urlmeta

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/dalemusser/stratacontent/internal/domain/models"
)

var (
	driveFilePattern = regexp.MustCompile(`/file/d/([^/]+)`)
	directPattern    = regexp.MustCompile(`(?i)\.(mp4|m3u8|mov)(\?|#|$)`)
)

// Meta is the result of classifying a url.
type Meta struct {
	Provider  models.Provider
	URL       string // trimmed input, untouched otherwise
	VideoID   string // youtube
	DriveID   string // gdrive
	DirectURL string // direct media file
	ThumbURL  string // youtube only
}

// YouTubeThumb returns the high quality thumbnail link for a video id.
func YouTubeThumb(videoID string) string {
	return "https://img.youtube.com/vi/" + videoID + "/hqdefault.jpg"
}

// Parse classifies raw. It never fails: anything that is not an absolute
// url, or that matches no provider rule, comes back as ProviderUnknown with
// only URL set.
func Parse(raw string) Meta {
	s := strings.TrimSpace(raw)
	out := Meta{Provider: models.ProviderUnknown, URL: s}
	if s == "" {
		return out
	}

	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" {
		return out
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")

	switch {
	case host == "youtu.be":
		out.Provider = models.ProviderYouTube
		out.VideoID = strings.TrimPrefix(u.Path, "/")
	case strings.HasSuffix(host, "youtube.com"):
		out.Provider = models.ProviderYouTube
		switch {
		case u.Path == "/watch":
			out.VideoID = u.Query().Get("v")
		case strings.HasPrefix(u.Path, "/shorts/"), strings.HasPrefix(u.Path, "/embed/"):
			out.VideoID = strings.Split(u.Path, "/")[2]
		}
	case strings.HasSuffix(host, "drive.google.com"):
		out.Provider = models.ProviderGDrive
		if m := driveFilePattern.FindStringSubmatch(u.Path); m != nil {
			out.DriveID = m[1]
		} else {
			out.DriveID = u.Query().Get("id")
		}
		return out
	case directPattern.MatchString(u.Path):
		out.Provider = models.ProviderDirect
		out.DirectURL = s
		return out
	default:
		return out
	}

	if out.VideoID != "" {
		out.ThumbURL = YouTubeThumb(out.VideoID)
	}
	return out
}

// ForSave returns only the fields persisted on a node: provider, video id,
// drive id and thumbnail.
func ForSave(raw string) Meta {
	m := Parse(raw)
	return Meta{
		Provider: m.Provider,
		VideoID:  m.VideoID,
		DriveID:  m.DriveID,
		ThumbURL: m.ThumbURL,
	}
}

// PreviewHref returns a link an admin can open to check a node's target.
// YouTube and Drive links are rebuilt from their ids; everything else falls
// back to the stored url, or "#" when there is none.
func PreviewHref(provider models.Provider, videoID, driveID, rawURL string) string {
	switch {
	case provider == models.ProviderYouTube && videoID != "":
		return "https://www.youtube.com/watch?v=" + videoID
	case provider == models.ProviderGDrive && driveID != "":
		return "https://drive.google.com/file/d/" + driveID + "/view"
	case rawURL != "":
		return rawURL
	default:
		return "#"
	}
}

var mimeByExt = map[string]string{
	".mp4":  "video/mp4",
	".m3u8": "application/vnd.apple.mpegurl",
	".mov":  "video/quicktime",
	".pdf":  "application/pdf",
}

// GuessMime infers a content type from the url's file extension.
// Returns "" when the url has no recognised extension.
func GuessMime(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" {
		return ""
	}
	return mimeByExt[strings.ToLower(path.Ext(u.Path))]
}
