package qbittorrent

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"time"
)

// fakeControlPlane is an httptest-backed stand-in for the qBittorrent
// WebUI: cookie login, token expiry and scripted add-torrent responses.
type fakeControlPlane struct {
	mu         sync.Mutex
	loginCount int
	loginDelay time.Duration
	failLogin  bool
	tokenSeq   int
	current    string
	expired    map[string]bool

	addCalls  int
	addStatus int
	addBody   string

	// forceForbidden makes every authed endpoint answer 403 no matter
	// which token arrives, as if the WebUI revoked the account.
	forceForbidden bool

	server *httptest.Server
}

func newFakeControlPlane() *fakeControlPlane {
	f := &fakeControlPlane{
		expired:   make(map[string]bool),
		addStatus: http.StatusOK,
		addBody:   "Ok.",
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	return f
}

func (f *fakeControlPlane) handle(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/api/v2/auth/login" {
		f.mu.Lock()
		f.loginCount++
		delay := f.loginDelay
		fail := f.failLogin
		f.mu.Unlock()

		time.Sleep(delay)

		if fail {
			w.WriteHeader(http.StatusForbidden)
			return
		}

		f.mu.Lock()
		f.tokenSeq++
		f.current = fmt.Sprintf("tok%d", f.tokenSeq)
		token := f.current
		f.mu.Unlock()

		http.SetCookie(w, &http.Cookie{Name: "SID", Value: token})
		fmt.Fprint(w, "Ok.")
		return
	}

	cookie, err := r.Cookie("SID")
	f.mu.Lock()
	valid := err == nil && cookie.Value == f.current && !f.expired[cookie.Value] && !f.forceForbidden
	f.mu.Unlock()
	if !valid {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	switch r.URL.Path {
	case "/api/v2/torrents/add":
		f.mu.Lock()
		f.addCalls++
		status, body := f.addStatus, f.addBody
		f.mu.Unlock()
		w.WriteHeader(status)
		fmt.Fprint(w, body)

	case "/api/v2/app/version":
		fmt.Fprint(w, "v4.6.2")

	case "/api/v2/torrents/info":
		if r.URL.Query().Get("hashes") == knownHash {
			fmt.Fprintf(w, `[{"hash":%q,"name":"known","state":"downloading","progress":0.5}]`, knownHash)
			return
		}
		fmt.Fprint(w, "[]")

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeControlPlane) expire(token string) {
	f.mu.Lock()
	f.expired[token] = true
	f.mu.Unlock()
}

func (f *fakeControlPlane) logins() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loginCount
}

func (f *fakeControlPlane) adds() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addCalls
}

func (f *fakeControlPlane) setAddResponse(status int, body string) {
	f.mu.Lock()
	f.addStatus = status
	f.addBody = body
	f.mu.Unlock()
}

const knownHash = "c12fe1c06bba254a9dc9f519b335aa7c1367a88a"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{}))
}

func (f *fakeControlPlane) newSession() *Session {
	return NewSession(f.server.URL, "admin", "secret", 2*time.Second, testLogger())
}

func (f *fakeControlPlane) newClient(session *Session) *Client {
	return NewClient(f.server.URL, "MagnetDrop", 2*time.Second, session, testLogger())
}
