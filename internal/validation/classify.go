package validation

import (
	"net/url"
	"strings"
)

// InputKind is the routing decision for a raw submission.
type InputKind string

const (
	KindMagnet  InputKind = "magnet"
	KindYouTube InputKind = "youtube"
	KindPageURL InputKind = "page_url"
	KindUnknown InputKind = "unknown"
)

// Classify routes a raw submission: magnet URIs go to the torrent path,
// YouTube URLs to the downloader path, and any other http(s) URL is
// treated as a web page that may embed a magnet link.
func Classify(input string) InputKind {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return KindUnknown
	}

	if strings.HasPrefix(strings.ToLower(trimmed), "magnet:") {
		return KindMagnet
	}

	u, err := url.Parse(trimmed)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return KindUnknown
	}

	if IsYouTubeHost(u.Hostname()) {
		return KindYouTube
	}
	return KindPageURL
}
