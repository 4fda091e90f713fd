package validation

import (
	"net/url"
	"regexp"
	"strings"
)

// URLForm names the recognized YouTube URL shape a video id was extracted
// from.
type URLForm string

const (
	FormWatch  URLForm = "watch"
	FormShort  URLForm = "short"
	FormEmbed  URLForm = "embed"
	FormLegacy URLForm = "legacy"
	FormMobile URLForm = "mobile"
)

// YouTubeResult is the outcome of validating a YouTube URL.
type YouTubeResult struct {
	IsValid      bool     `json:"is_valid"`
	VideoID      string   `json:"video_id,omitempty"`
	Form         URLForm  `json:"form,omitempty"`
	CanonicalURL string   `json:"canonical_url,omitempty"`
	Errors       []Reason `json:"errors,omitempty"`
}

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

var youtubeHosts = map[string]bool{
	"youtube.com":          true,
	"www.youtube.com":      true,
	"m.youtube.com":        true,
	"music.youtube.com":    true,
	"youtube-nocookie.com": true,
	"www.youtube-nocookie.com": true,
	"youtu.be":             true,
}

// IsYouTubeHost reports whether host belongs to YouTube. Used both for
// classification and to keep page resolution away from video URLs.
func IsYouTubeHost(host string) bool {
	return youtubeHosts[strings.ToLower(host)]
}

// ValidateYouTubeURL validates a YouTube URL structurally and extracts the
// 11-character video id. No network check is involved. Scheme-less input
// is retried with https:// prepended.
func ValidateYouTubeURL(input string) YouTubeResult {
	input = strings.TrimSpace(input)
	if input == "" {
		return YouTubeResult{Errors: []Reason{ReasonEmpty}}
	}

	u, err := url.Parse(input)
	if err != nil || u.Scheme == "" {
		u, err = url.Parse("https://" + input)
		if err != nil {
			return YouTubeResult{Errors: []Reason{ReasonNotHTTP}}
		}
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return YouTubeResult{Errors: []Reason{ReasonNotHTTP}}
	}

	host := strings.ToLower(u.Hostname())
	if !IsYouTubeHost(host) {
		return YouTubeResult{Errors: []Reason{ReasonUnknownHost}}
	}

	videoID, form := extractVideoID(host, u)
	if videoID == "" {
		return YouTubeResult{Errors: []Reason{ReasonNoVideoID}}
	}
	if !videoIDPattern.MatchString(videoID) {
		return YouTubeResult{Errors: []Reason{ReasonBadVideoID}}
	}

	return YouTubeResult{
		IsValid:      true,
		VideoID:      videoID,
		Form:         form,
		CanonicalURL: "https://www.youtube.com/watch?v=" + videoID,
	}
}

func extractVideoID(host string, u *url.URL) (string, URLForm) {
	path := strings.Trim(u.Path, "/")

	if host == "youtu.be" {
		return firstSegment(path), FormShort
	}

	watchForm := FormWatch
	if host == "m.youtube.com" {
		watchForm = FormMobile
	}

	switch {
	case path == "watch":
		return u.Query().Get("v"), watchForm
	case strings.HasPrefix(path, "embed/"):
		return firstSegment(strings.TrimPrefix(path, "embed/")), FormEmbed
	case strings.HasPrefix(path, "v/"):
		return firstSegment(strings.TrimPrefix(path, "v/")), FormLegacy
	}

	// Fallback: some shapes carry v= outside /watch.
	if v := u.Query().Get("v"); v != "" {
		return v, watchForm
	}
	return "", ""
}

func firstSegment(path string) string {
	if i := strings.IndexByte(path, '/'); i >= 0 {
		return path[:i]
	}
	return path
}
