package realtime

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/kasir/internal/config"
	redisclient "github.com/mamadbah2/kasir/pkg/clients/redis"
)

// Open builds the store selected by cfg.Driver. The returned func releases
// the underlying connection.
func Open(ctx context.Context, cfg config.StoreConfig, redisCfg redisclient.Config, logger *zap.Logger) (Store, func() error, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return NewMemoryStore(cfg.TxMaxRetries, logger), func() error { return nil }, nil
	case config.DriverRedis:
		rdb, err := redisCfg.New(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		store := NewRedisStore(rdb, RedisOptions{Prefix: cfg.Prefix, MaxRetries: cfg.TxMaxRetries}, logger)
		return store, rdb.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
