package qbittorrent

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/veranemoloko/magnet-dispatch/internal/errs"
)

const testMagnet = "magnet:?xt=urn:btih:" + knownHash

func TestAddMagnetOK(t *testing.T) {
	cp := newFakeControlPlane()
	defer cp.server.Close()

	client := cp.newClient(cp.newSession())

	err := client.AddMagnet(context.Background(), testMagnet, "")
	assert.NoError(t, err)
	assert.Equal(t, 1, cp.adds())
}

func TestAddMagnetDuplicate(t *testing.T) {
	cp := newFakeControlPlane()
	defer cp.server.Close()
	cp.setAddResponse(http.StatusOK, "Fails. duplicate torrent")

	client := cp.newClient(cp.newSession())

	err := client.AddMagnet(context.Background(), testMagnet, "")
	assert.True(t, errs.IsKind(err, errs.KindDuplicate))
}

func TestAddMagnetRejected(t *testing.T) {
	cp := newFakeControlPlane()
	defer cp.server.Close()
	cp.setAddResponse(http.StatusOK, "Fails.")

	client := cp.newClient(cp.newSession())

	err := client.AddMagnet(context.Background(), testMagnet, "")
	assert.True(t, errs.IsKind(err, errs.KindRejected))
}

func TestAddMagnetServerError(t *testing.T) {
	cp := newFakeControlPlane()
	defer cp.server.Close()
	cp.setAddResponse(http.StatusInternalServerError, "")

	client := cp.newClient(cp.newSession())

	err := client.AddMagnet(context.Background(), testMagnet, "")
	assert.True(t, errs.IsKind(err, errs.KindTransient))
}

func TestAddMagnetExpiredTokenReloginOnce(t *testing.T) {
	cp := newFakeControlPlane()
	defer cp.server.Close()

	session := cp.newSession()
	client := cp.newClient(session)

	token, err := session.EnsureAuthenticated(context.Background())
	assert.NoError(t, err)
	cp.expire(token)

	err = client.AddMagnet(context.Background(), testMagnet, "")
	assert.NoError(t, err)
	assert.Equal(t, 2, cp.logins())
	assert.Equal(t, 2, cp.adds())
}

func TestAddMagnetPersistentAuthFailure(t *testing.T) {
	cp := newFakeControlPlane()
	defer cp.server.Close()

	session := cp.newSession()
	client := cp.newClient(session)

	_, err := session.EnsureAuthenticated(context.Background())
	assert.NoError(t, err)

	// Logins keep succeeding but every authed call is refused, so the
	// single allowed replay also fails and the error surfaces as KindAuth.
	cp.mu.Lock()
	cp.forceForbidden = true
	cp.mu.Unlock()

	err = client.AddMagnet(context.Background(), testMagnet, "")
	assert.True(t, errs.IsKind(err, errs.KindAuth))
	assert.Equal(t, 2, cp.logins())
}

func TestConcurrentReloginIsShared(t *testing.T) {
	cp := newFakeControlPlane()
	defer cp.server.Close()
	cp.loginDelay = 30 * time.Millisecond

	session := cp.newSession()
	client := cp.newClient(session)

	token, err := session.EnsureAuthenticated(context.Background())
	assert.NoError(t, err)
	cp.expire(token)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, client.AddMagnet(context.Background(), testMagnet, ""))
		}()
	}
	wg.Wait()

	// One initial login plus a single shared re-login.
	assert.Equal(t, 2, cp.logins())
}

func TestVersion(t *testing.T) {
	cp := newFakeControlPlane()
	defer cp.server.Close()

	client := cp.newClient(cp.newSession())

	version, err := client.Version(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "v4.6.2", version)
}

func TestTorrentInfo(t *testing.T) {
	cp := newFakeControlPlane()
	defer cp.server.Close()

	client := cp.newClient(cp.newSession())

	info, err := client.TorrentInfo(context.Background(), knownHash)
	assert.NoError(t, err)
	if assert.NotNil(t, info) {
		assert.Equal(t, knownHash, info.Hash)
		assert.Equal(t, "downloading", info.State)
	}

	missing, err := client.TorrentInfo(context.Background(), "ffffffffffffffffffffffffffffffffffffffff")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}
