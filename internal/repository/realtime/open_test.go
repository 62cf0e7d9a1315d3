package realtime

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mamadbah2/kasir/internal/config"
	redisclient "github.com/mamadbah2/kasir/pkg/clients/redis"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()
	logger := zaptest.NewLogger(t)

	store, closeFn, err := Open(ctx, config.StoreConfig{Driver: config.DriverMemory, TxMaxRetries: 5}, redisclient.Config{}, logger)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)
	require.NoError(t, closeFn())

	mr := miniredis.RunT(t)
	store, closeFn, err = Open(ctx,
		config.StoreConfig{Driver: config.DriverRedis, Prefix: "pos:", TxMaxRetries: 5},
		redisclient.Config{URL: "redis://" + mr.Addr(), ReadTimeout: 1, WriteTimeout: 1, DialTimeout: 1},
		logger)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "products/p1", []byte(`{"stock":1}`)))
	assert.True(t, mr.Exists("pos:node:products/p1"))
	require.NoError(t, closeFn())

	_, _, err = Open(ctx, config.StoreConfig{Driver: config.DriverRedis}, redisclient.Config{}, logger)
	require.Error(t, err)

	_, _, err = Open(ctx, config.StoreConfig{Driver: "sqlite"}, redisclient.Config{}, logger)
	require.Error(t, err)
}
