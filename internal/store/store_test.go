package store

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return New(client)
}

func TestGetSetDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, found, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, s.Set(ctx, "snapshot", "A,B"))
	val, found, err := s.Get(ctx, "snapshot")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "A,B", val)

	require.NoError(t, s.Delete(ctx, "snapshot"))
	_, found, err = s.Get(ctx, "snapshot")
	require.NoError(t, err)
	require.False(t, found)

	// Deleting twice must stay silent.
	require.NoError(t, s.Delete(ctx, "snapshot"))
}

func TestSetNXGate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ok, err := s.SetNX(ctx, "cooldown", "1", time.Hour)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.SetNX(ctx, "cooldown", "2", time.Hour)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestListPushReadDrain(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.ListPush(ctx, "waitlist:1", "a@x.com", "a@x.com"))
	require.NoError(t, s.ListPush(ctx, "waitlist:1", "b@x.com"))

	entries, err := s.ListRead(ctx, "waitlist:1")
	require.NoError(t, err)
	require.Equal(t, []string{"a@x.com", "a@x.com", "b@x.com"}, entries)

	drained, err := s.ListDrain(ctx, "waitlist:1")
	require.NoError(t, err)
	require.Equal(t, []string{"a@x.com", "a@x.com", "b@x.com"}, drained)

	// The drain removed the key, so a second drain sees nothing.
	drained, err = s.ListDrain(ctx, "waitlist:1")
	require.NoError(t, err)
	require.Empty(t, drained)
}

func TestListPushNoValues(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.ListPush(context.Background(), "waitlist:1"))
}
