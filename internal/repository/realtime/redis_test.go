package realtime

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mamadbah2/kasir/internal/domain/models"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T, maxRetries int) Store {
		_, rdb := newTestRedis(t)
		return NewRedisStore(rdb, RedisOptions{Prefix: "pos:", MaxRetries: maxRetries}, zaptest.NewLogger(t))
	})
}

func TestRedisStore_KeyLayout(t *testing.T) {
	mr, rdb := newTestRedis(t)
	s := NewRedisStore(rdb, RedisOptions{Prefix: "pos:"}, zaptest.NewLogger(t))

	require.NoError(t, s.Set(context.Background(), "products/p1", []byte(`{"stock":3}`)))

	value, err := mr.Get("pos:node:products/p1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"stock":3}`, value)

	members, err := mr.Members("pos:children:products")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, members)
}

func TestRedisStore_ListSkipsStaleIndexEntries(t *testing.T) {
	mr, rdb := newTestRedis(t)
	s := NewRedisStore(rdb, RedisOptions{Prefix: "pos:"}, zaptest.NewLogger(t))

	require.NoError(t, s.Set(context.Background(), "products/p1", []byte(`1`)))
	_, err := mr.SetAdd("pos:children:products", "ghost")
	require.NoError(t, err)

	snap, err := s.List(context.Background(), "products")
	require.NoError(t, err)
	assert.Len(t, snap, 1)
	assert.Contains(t, snap, "p1")
}

func TestRedisStore_Unavailable(t *testing.T) {
	mr, rdb := newTestRedis(t)
	s := NewRedisStore(rdb, RedisOptions{}, zaptest.NewLogger(t))
	mr.Close()

	_, err := s.Get(context.Background(), "products/p1")
	require.ErrorIs(t, err, models.ErrPersistence)
}
