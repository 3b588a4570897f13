package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oracadehub/learning-portal/internal/core/domain"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := Connect(context.Background(), Config{Addr: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	_, err = Connect(context.Background(), Config{Addr: "127.0.0.1:1", Timeout: 200 * time.Millisecond})
	assert.Error(t, err)
}

func TestStateStore_ConsumeIsOneShot(t *testing.T) {
	_, client := newTestClient(t)
	store := NewStateStore(client)
	ctx := context.Background()
	role := domain.RoleInstructor

	require.NoError(t, store.Save(ctx, "abc", &role))

	got, err := store.Consume(ctx, "abc")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.RoleInstructor, *got)

	_, err = store.Consume(ctx, "abc")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestStateStore_WithoutRole(t *testing.T) {
	_, client := newTestClient(t)
	store := NewStateStore(client)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "xyz", nil))

	got, err := store.Consume(ctx, "xyz")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStateStore_Expires(t *testing.T) {
	mr, client := newTestClient(t)
	store := NewStateStore(client)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "old", nil))
	mr.FastForward(stateTTL + time.Second)

	_, err := store.Consume(ctx, "old")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestStateStore_UnknownAndEmpty(t *testing.T) {
	_, client := newTestClient(t)
	store := NewStateStore(client)

	_, err := store.Consume(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	_, err = store.Consume(context.Background(), "never-saved")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestSessionStore_Lifecycle(t *testing.T) {
	mr, client := newTestClient(t)
	store := NewSessionStore(client, time.Hour)
	ctx := context.Background()

	_, err := store.Get(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	require.NoError(t, store.Put(ctx, "s1", "u1"))
	uid, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "u1", uid)
	assert.True(t, mr.TTL("session:s1") > 0)

	require.NoError(t, store.Delete(ctx, "s1"))
	_, err = store.Get(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	assert.NoError(t, store.Delete(ctx, "s1"))
}

func TestSessionStore_Expires(t *testing.T) {
	mr, client := newTestClient(t)
	store := NewSessionStore(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "s1", "u1"))
	mr.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
