package shared

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestSessionManager(t *testing.T) (*SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "test-secret", time.Hour), mr
}

func TestSessionIssueAndLoad(t *testing.T) {
	sm, _ := newTestSessionManager(t)
	ctx := context.Background()

	sess, err := sm.Issue(ctx, "user-1")
	require.NoError(t, err)
	require.NotEmpty(t, sess.Token)
	require.Equal(t, "user-1", sess.User())

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+sess.Token)

	loaded, err := sm.Load(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Equal(t, "user-1", loaded.User())
}

func TestSessionLoadWithoutToken(t *testing.T) {
	sm, _ := newTestSessionManager(t)

	req := httptest.NewRequest("GET", "/", nil)
	loaded, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	require.Nil(t, loaded)

	req.Header.Set("Authorization", "Basic abc")
	loaded, err = sm.Load(context.Background(), req)
	require.NoError(t, err)
	require.Nil(t, loaded)

	req.Header.Set("Authorization", "Bearer unknown-token")
	loaded, err = sm.Load(context.Background(), req)
	require.NoError(t, err)
	require.Nil(t, loaded)
}

func TestSessionRevoke(t *testing.T) {
	sm, _ := newTestSessionManager(t)
	ctx := context.Background()

	sess, err := sm.Issue(ctx, "user-1")
	require.NoError(t, err)
	require.NoError(t, sm.Revoke(ctx, sess.Token))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+sess.Token)
	loaded, err := sm.Load(ctx, req)
	require.NoError(t, err)
	require.Nil(t, loaded)
}

func TestSessionStoreKeysNeverHoldRawTokens(t *testing.T) {
	sm, mr := newTestSessionManager(t)

	sess, err := sm.Issue(context.Background(), "user-1")
	require.NoError(t, err)
	require.NotContains(t, mr.Keys(), "session:"+sess.Token)
}

func TestSessionManagerWithoutStore(t *testing.T) {
	sm := NewSessionManager(nil, "test-secret", time.Hour)
	ctx := context.Background()

	_, err := sm.Issue(ctx, "user-1")
	require.ErrorIs(t, err, ErrSessionStoreUnavailable)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	_, err = sm.Load(ctx, req)
	require.ErrorIs(t, err, ErrSessionStoreUnavailable)

	require.ErrorIs(t, sm.Revoke(ctx, "some-token"), ErrSessionStoreUnavailable)
}

func TestSessionExpires(t *testing.T) {
	sm, mr := newTestSessionManager(t)
	ctx := context.Background()

	sess, err := sm.Issue(ctx, "user-1")
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+sess.Token)
	loaded, err := sm.Load(ctx, req)
	require.NoError(t, err)
	require.Nil(t, loaded)
}
