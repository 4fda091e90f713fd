// Package qbittorrent talks to the qBittorrent WebUI control plane:
// authentication, magnet enqueueing and a couple of status queries.
package qbittorrent

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/veranemoloko/magnet-dispatch/internal/errs"
)

// Session owns the authenticated control-plane token (the SID cookie). It
// is shared by all concurrent dispatches; login attempts collapse through
// singleflight so two concurrent 401s trigger exactly one re-login.
type Session struct {
	baseURL  string
	username string
	password string
	client   *http.Client
	logger   *slog.Logger

	group singleflight.Group

	mu         sync.RWMutex
	token      string
	acquiredAt time.Time
}

// NewSession creates a Session for the given WebUI base URL and
// credentials. No network call happens until the first EnsureAuthenticated.
func NewSession(baseURL, username, password string, timeout time.Duration, logger *slog.Logger) *Session {
	return &Session{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

// EnsureAuthenticated returns the current session token, logging in first
// if none is held. Concurrent callers that find no token wait for the one
// in-flight login instead of issuing their own.
func (s *Session) EnsureAuthenticated(ctx context.Context) (string, error) {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()
	if token != "" {
		return token, nil
	}

	v, err, _ := s.group.Do("login", func() (interface{}, error) {
		// A racing caller may have logged in while this one queued.
		s.mu.RLock()
		current := s.token
		s.mu.RUnlock()
		if current != "" {
			return current, nil
		}
		return s.login(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate drops the token, but only if it is still the one the caller
// observed failing. A stale caller cannot discard a freshly acquired token.
func (s *Session) Invalidate(token string) {
	s.mu.Lock()
	if s.token == token {
		s.token = ""
	}
	s.mu.Unlock()
}

func (s *Session) login(ctx context.Context) (string, error) {
	form := url.Values{
		"username": {s.username},
		"password": {s.password},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+"/api/v2/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return "", errs.Wrap(errs.KindTransient, "failed to build login request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", errs.Wrap(errs.KindTransient, "control plane unreachable", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode != http.StatusOK {
		return "", errs.New(errs.KindAuth, "control plane login refused")
	}
	if !strings.EqualFold(strings.TrimSpace(string(body)), "ok.") {
		return "", errs.New(errs.KindAuth, "unexpected login response")
	}

	var token string
	for _, c := range resp.Cookies() {
		if c.Name == "SID" {
			token = c.Value
			break
		}
	}
	if token == "" {
		return "", errs.New(errs.KindAuth, "login returned no session cookie")
	}

	s.mu.Lock()
	s.token = token
	s.acquiredAt = time.Now()
	s.mu.Unlock()

	s.logger.Debug("authenticated with control plane")
	return token, nil
}
