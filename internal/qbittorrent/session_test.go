package qbittorrent

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/veranemoloko/magnet-dispatch/internal/errs"
)

func TestSessionConcurrentLoginCollapses(t *testing.T) {
	cp := newFakeControlPlane()
	defer cp.server.Close()
	cp.loginDelay = 50 * time.Millisecond

	session := cp.newSession()

	const callers = 10
	tokens := make([]string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			token, err := session.EnsureAuthenticated(context.Background())
			assert.NoError(t, err)
			tokens[i] = token
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, cp.logins())
	for _, token := range tokens {
		assert.Equal(t, tokens[0], token)
	}
}

func TestSessionReusesToken(t *testing.T) {
	cp := newFakeControlPlane()
	defer cp.server.Close()

	session := cp.newSession()

	first, err := session.EnsureAuthenticated(context.Background())
	assert.NoError(t, err)
	second, err := session.EnsureAuthenticated(context.Background())
	assert.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, cp.logins())
}

func TestSessionInvalidate(t *testing.T) {
	cp := newFakeControlPlane()
	defer cp.server.Close()

	session := cp.newSession()

	first, err := session.EnsureAuthenticated(context.Background())
	assert.NoError(t, err)

	session.Invalidate(first)

	second, err := session.EnsureAuthenticated(context.Background())
	assert.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.Equal(t, 2, cp.logins())
}

func TestSessionInvalidateIgnoresStaleToken(t *testing.T) {
	cp := newFakeControlPlane()
	defer cp.server.Close()

	session := cp.newSession()

	first, err := session.EnsureAuthenticated(context.Background())
	assert.NoError(t, err)

	// A caller that observed an older token must not drop the live one.
	session.Invalidate("tok-from-before-relogin")

	again, err := session.EnsureAuthenticated(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, first, again)
	assert.Equal(t, 1, cp.logins())
}

func TestSessionLoginRefused(t *testing.T) {
	cp := newFakeControlPlane()
	defer cp.server.Close()
	cp.failLogin = true

	session := cp.newSession()

	_, err := session.EnsureAuthenticated(context.Background())
	assert.True(t, errs.IsKind(err, errs.KindAuth))
}

func TestSessionUnreachableControlPlane(t *testing.T) {
	session := NewSession("http://127.0.0.1:1", "admin", "secret", time.Second, testLogger())

	_, err := session.EnsureAuthenticated(context.Background())
	assert.True(t, errs.IsKind(err, errs.KindTransient))
}
