// Package resolve fetches a submitted web page and extracts the first
// valid magnet link from it. Anchor hrefs are preferred; a regex pass over
// the unescaped document catches inline links missed by the parser.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	xhtml "golang.org/x/net/html"

	"github.com/veranemoloko/magnet-dispatch/internal/validation"
)

const userAgent = "MagnetDispatch/1.0 (+https://localhost)"

var (
	// ErrNoMagnet means the page was fetched but contained no valid
	// magnet link.
	ErrNoMagnet = errors.New("no valid magnet link found on the page")
	// ErrFetch means the page could not be retrieved.
	ErrFetch = errors.New("failed to fetch page")
)

var inlineMagnet = regexp.MustCompile(`(?i)magnet:\?[^\s"'<>)\]]+`)

// Resolver performs bounded page fetches.
type Resolver struct {
	client   *http.Client
	maxBytes int64
	logger   *slog.Logger
}

// New creates a Resolver with a fetch timeout and a download size cap.
func New(timeout time.Duration, maxBytes int64, logger *slog.Logger) *Resolver {
	return &Resolver{
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// Resolve fetches pageURL and returns the first magnet candidate that
// passes validation, together with its parsed result.
func (r *Resolver) Resolve(ctx context.Context, pageURL string) (string, validation.MagnetResult, error) {
	doc, err := r.fetch(ctx, pageURL)
	if err != nil {
		return "", validation.MagnetResult{}, err
	}

	for _, candidate := range ExtractMagnetLinks(doc) {
		result := validation.ValidateMagnet(candidate)
		if result.IsValid {
			r.logger.Debug("magnet link resolved from page", "page", pageURL, "info_hash", result.InfoHash)
			return candidate, result, nil
		}
	}

	return "", validation.MagnetResult{}, ErrNoMagnet
}

func (r *Resolver) fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetch, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: unexpected status %d", ErrFetch, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBytes))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetch, err)
	}
	return string(body), nil
}

// ExtractMagnetLinks collects magnet candidates from an HTML document,
// deduplicated in document order.
func ExtractMagnetLinks(doc string) []string {
	unescaped := html.UnescapeString(doc)

	var candidates []string
	if node, err := xhtml.Parse(strings.NewReader(unescaped)); err == nil {
		candidates = collectAnchors(node, candidates)
	}
	candidates = append(candidates, inlineMagnet.FindAllString(unescaped, -1)...)

	seen := make(map[string]bool, len(candidates))
	var deduped []string
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		deduped = append(deduped, c)
	}
	return deduped
}

func collectAnchors(n *xhtml.Node, out []string) []string {
	if n.Type == xhtml.ElementNode && n.Data == "a" {
		for _, attr := range n.Attr {
			if strings.EqualFold(attr.Key, "href") &&
				strings.HasPrefix(strings.ToLower(attr.Val), "magnet:?") {
				out = append(out, attr.Val)
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = collectAnchors(c, out)
	}
	return out
}
