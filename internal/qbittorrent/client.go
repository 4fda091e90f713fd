package qbittorrent

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/veranemoloko/magnet-dispatch/internal/errs"
)

// TorrentInfo is the subset of control-plane torrent metadata the service
// cares about.
type TorrentInfo struct {
	Hash     string  `json:"hash"`
	Name     string  `json:"name"`
	State    string  `json:"state"`
	Progress float64 `json:"progress"`
	Category string  `json:"category"`
}

// Client performs authenticated control-plane calls through a shared
// Session. Response classification is by discriminated error kind; callers
// never match on strings.
type Client struct {
	baseURL  string
	category string
	session  *Session
	client   *http.Client
	logger   *slog.Logger
}

// NewClient creates a Client bound to session.
func NewClient(baseURL, category string, timeout time.Duration, session *Session, logger *slog.Logger) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		category: category,
		session:  session,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

// AddMagnet enqueues a magnet link. A duplicate hash surfaces as
// errs.KindDuplicate; the torrent is already being fetched in that case.
func (c *Client) AddMagnet(ctx context.Context, magnet, category string) error {
	if category == "" {
		category = c.category
	}
	form := url.Values{
		"urls":     {magnet},
		"category": {category},
		"autoTMM":  {"false"},
		"paused":   {"false"},
	}

	body, err := c.authedForm(ctx, "/api/v2/torrents/add", form)
	if err != nil {
		return err
	}

	result := strings.ToLower(strings.TrimSpace(body))
	switch {
	case strings.HasPrefix(result, "ok"):
		return nil
	case strings.Contains(result, "duplicate"):
		return errs.New(errs.KindDuplicate, "torrent already present in control plane")
	default:
		return errs.New(errs.KindRejected, "control plane rejected the magnet link")
	}
}

// Version returns the control-plane version string. Best-effort from the
// dispatch pipeline's perspective.
func (c *Client) Version(ctx context.Context) (string, error) {
	body, err := c.authedGet(ctx, "/api/v2/app/version", nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(body), nil
}

// TorrentInfo fetches torrent metadata by info hash, or nil when the
// control plane does not know the hash.
func (c *Client) TorrentInfo(ctx context.Context, infoHash string) (*TorrentInfo, error) {
	body, err := c.authedGet(ctx, "/api/v2/torrents/info", url.Values{"hashes": {infoHash}})
	if err != nil {
		return nil, err
	}

	var infos []TorrentInfo
	if err := json.Unmarshal([]byte(body), &infos); err != nil {
		return nil, errs.Wrap(errs.KindTransient, "invalid control plane response", err)
	}
	if len(infos) == 0 {
		return nil, nil
	}
	return &infos[0], nil
}

func (c *Client) authedForm(ctx context.Context, path string, form url.Values) (string, error) {
	return c.authedDo(ctx, func(token string) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.baseURL+path, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	})
}

func (c *Client) authedGet(ctx context.Context, path string, query url.Values) (string, error) {
	return c.authedDo(ctx, func(token string) (*http.Request, error) {
		target := c.baseURL + path
		if len(query) > 0 {
			target += "?" + query.Encode()
		}
		return http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	})
}

// authedDo runs one control-plane call with the current session token. On
// an authentication failure the token is invalidated and exactly one
// re-login plus one replay is attempted before giving up with KindAuth.
func (c *Client) authedDo(ctx context.Context, build func(token string) (*http.Request, error)) (string, error) {
	token, err := c.session.EnsureAuthenticated(ctx)
	if err != nil {
		return "", err
	}

	body, err := c.do(ctx, build, token)
	if !errs.IsKind(err, errs.KindAuth) {
		return body, err
	}

	c.session.Invalidate(token)
	token, err = c.session.EnsureAuthenticated(ctx)
	if err != nil {
		return "", err
	}
	return c.do(ctx, build, token)
}

func (c *Client) do(ctx context.Context, build func(token string) (*http.Request, error), token string) (string, error) {
	req, err := build(token)
	if err != nil {
		return "", errs.Wrap(errs.KindTransient, "failed to build request", err)
	}
	req.AddCookie(&http.Cookie{Name: "SID", Value: token})

	resp, err := c.client.Do(req)
	if err != nil {
		return "", errs.Wrap(errs.KindTransient, "control plane unreachable", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	body := string(raw)

	switch {
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized:
		return "", errs.New(errs.KindAuth, "control plane session expired or invalid credentials")
	case resp.StatusCode >= 500:
		return "", errs.New(errs.KindTransient, "control plane server error")
	case resp.StatusCode >= 400:
		return "", errs.New(errs.KindRejected, "control plane refused the request")
	}

	return body, nil
}
