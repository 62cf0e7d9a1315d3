package realtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mamadbah2/kasir/internal/domain/models"
)

// RedisStore keeps the tree in Redis. Every leaf is a string key, every
// collection a set of child names, and every change is announced on a pub/sub
// channel carrying the collection path.
type RedisStore struct {
	rdb        *redis.Client
	prefix     string
	maxRetries int
	logger     *zap.Logger
}

// RedisOptions tunes key naming and transaction retries.
type RedisOptions struct {
	Prefix     string
	MaxRetries int
}

type abortError struct{ err error }

func (e *abortError) Error() string { return e.err.Error() }

// NewRedisStore wraps an already connected client.
func NewRedisStore(rdb *redis.Client, opts RedisOptions, logger *zap.Logger) *RedisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	return &RedisStore{
		rdb:        rdb,
		prefix:     opts.Prefix,
		maxRetries: opts.MaxRetries,
		logger:     logger.Named("store.redis"),
	}
}

func (s *RedisStore) nodeKey(path string) string { return s.prefix + "node:" + path }
func (s *RedisStore) childrenKey(collection string) string {
	return s.prefix + "children:" + collection
}
func (s *RedisStore) channel() string { return s.prefix + "changes" }

func (s *RedisStore) Get(ctx context.Context, path string) ([]byte, error) {
	if err := validateLeaf(path); err != nil {
		return nil, err
	}
	value, err := s.rdb.Get(ctx, s.nodeKey(path)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %w", models.ErrPersistence, path, err)
	}
	return value, nil
}

func (s *RedisStore) List(ctx context.Context, collection string) (Snapshot, error) {
	if err := validatePath(collection); err != nil {
		return nil, err
	}
	names, err := s.rdb.SMembers(ctx, s.childrenKey(collection)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: list %s: %w", models.ErrPersistence, collection, err)
	}
	out := make(Snapshot, len(names))
	if len(names) == 0 {
		return out, nil
	}

	keys := make([]string, len(names))
	for i, name := range names {
		keys[i] = s.nodeKey(Join(collection, name))
	}
	values, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: list %s: %w", models.ErrPersistence, collection, err)
	}
	for i, v := range values {
		// A missing value means the child was removed between the two reads.
		if str, ok := v.(string); ok {
			out[names[i]] = []byte(str)
		}
	}
	return out, nil
}

func (s *RedisStore) Set(ctx context.Context, path string, value []byte) error {
	if err := validateLeaf(path); err != nil {
		return err
	}
	collection, name := Split(path)
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.nodeKey(path), value, 0)
		pipe.SAdd(ctx, s.childrenKey(collection), name)
		pipe.Publish(ctx, s.channel(), collection)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: set %s: %w", models.ErrPersistence, path, err)
	}
	return nil
}

func (s *RedisStore) Push(ctx context.Context, collection string, value []byte) (string, error) {
	if err := validatePath(collection); err != nil {
		return "", err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate push id: %w", err)
	}
	if err := s.Set(ctx, Join(collection, id.String()), value); err != nil {
		return "", err
	}
	return id.String(), nil
}

func (s *RedisStore) Delete(ctx context.Context, path string) error {
	if err := validatePath(path); err != nil {
		return err
	}

	exists, err := s.rdb.Exists(ctx, s.nodeKey(path)).Result()
	if err != nil {
		return fmt.Errorf("%w: delete %s: %w", models.ErrPersistence, path, err)
	}
	if exists == 1 {
		collection, name := Split(path)
		_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, s.nodeKey(path))
			pipe.SRem(ctx, s.childrenKey(collection), name)
			pipe.Publish(ctx, s.channel(), collection)
			return nil
		})
		if err != nil {
			return fmt.Errorf("%w: delete %s: %w", models.ErrPersistence, path, err)
		}
		return nil
	}

	return s.deleteCollection(ctx, path)
}

// deleteCollection drops every child of collection atomically. The children
// index is watched so a child added concurrently is never left orphaned.
func (s *RedisStore) deleteCollection(ctx context.Context, collection string) error {
	index := s.childrenKey(collection)
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
			names, err := tx.SMembers(ctx, index).Result()
			if err != nil {
				return err
			}
			if len(names) == 0 {
				return nil
			}
			keys := make([]string, 0, len(names)+1)
			for _, name := range names {
				keys = append(keys, s.nodeKey(Join(collection, name)))
			}
			keys = append(keys, index)

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, keys...)
				pipe.Publish(ctx, s.channel(), collection)
				return nil
			})
			return err
		}, index)

		if errors.Is(err, redis.TxFailedErr) {
			s.logger.Debug("collection delete conflict, retrying", zap.String("collection", collection), zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return fmt.Errorf("%w: delete %s: %w", models.ErrPersistence, collection, err)
		}
		return nil
	}
	return fmt.Errorf("%w: delete %s: too many conflicts", models.ErrPersistence, collection)
}

func (s *RedisStore) Transact(ctx context.Context, paths []string, fn TxFunc) (TxResult, error) {
	if len(paths) == 0 {
		return TxResult{}, fmt.Errorf("%w: empty transaction", ErrInvalidPath)
	}
	keys := make([]string, len(paths))
	for i, p := range paths {
		if err := validateLeaf(p); err != nil {
			return TxResult{}, err
		}
		keys[i] = s.nodeKey(p)
	}

	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		var values map[string][]byte

		err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
			raw, err := tx.MGet(ctx, keys...).Result()
			if err != nil {
				return err
			}
			current := make(map[string][]byte, len(paths))
			for i, p := range paths {
				if str, ok := raw[i].(string); ok {
					current[p] = []byte(str)
				} else {
					current[p] = nil
				}
			}

			next, err := fn(current)
			if err != nil {
				return &abortError{err: err}
			}
			if err := checkWrites(paths, next); err != nil {
				return &abortError{err: err}
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				touched := make(map[string]struct{})
				for p, v := range next {
					collection, name := Split(p)
					if v == nil {
						pipe.Del(ctx, s.nodeKey(p))
						pipe.SRem(ctx, s.childrenKey(collection), name)
					} else {
						pipe.Set(ctx, s.nodeKey(p), v, 0)
						pipe.SAdd(ctx, s.childrenKey(collection), name)
					}
					touched[collection] = struct{}{}
				}
				for collection := range touched {
					pipe.Publish(ctx, s.channel(), collection)
				}
				return nil
			})
			if err != nil {
				return err
			}

			values = current
			for p, v := range next {
				values[p] = v
			}
			return nil
		}, keys...)

		var abort *abortError
		switch {
		case err == nil:
			return TxResult{Committed: true, Values: values}, nil
		case errors.As(err, &abort):
			return TxResult{}, abort.err
		case errors.Is(err, redis.TxFailedErr):
			s.logger.Debug("transaction conflict, retrying", zap.Strings("paths", paths), zap.Int("attempt", attempt))
			continue
		default:
			return TxResult{}, fmt.Errorf("%w: transaction: %w", models.ErrPersistence, err)
		}
	}

	s.logger.Warn("transaction gave up", zap.Strings("paths", paths), zap.Int("retries", s.maxRetries))
	return TxResult{}, nil
}

func (s *RedisStore) Watch(ctx context.Context, collection string) (<-chan Snapshot, error) {
	if err := validatePath(collection); err != nil {
		return nil, err
	}

	pubsub := s.rdb.Subscribe(ctx, s.channel())
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("%w: subscribe: %w", models.ErrPersistence, err)
	}

	out := make(chan Snapshot, 1)
	go func() {
		defer close(out)
		defer pubsub.Close()

		emit := func() bool {
			snap, err := s.List(ctx, collection)
			if err != nil {
				if ctx.Err() != nil {
					return false
				}
				s.logger.Error("watch refresh failed", zap.String("collection", collection), zap.Error(err))
				return true
			}
			select {
			case out <- snap:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !emit() {
			return
		}
		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				if affects(collection, msg.Payload) && !emit() {
					return
				}
			}
		}
	}()
	return out, nil
}
