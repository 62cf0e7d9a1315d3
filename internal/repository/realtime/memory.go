package realtime

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MemoryStore is an in-process Store. It gives the same optimistic semantics
// as the Redis store: the update function runs without holding the lock and
// the commit only succeeds if none of the paths changed in the meantime.
type MemoryStore struct {
	mu         sync.RWMutex
	nodes      map[string][]byte
	versions   map[string]uint64
	watchers   map[*memoryWatcher]struct{}
	maxRetries int
	logger     *zap.Logger
}

type memoryWatcher struct {
	collection string
	notify     chan struct{}
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore(maxRetries int, logger *zap.Logger) *MemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &MemoryStore{
		nodes:      make(map[string][]byte),
		versions:   make(map[string]uint64),
		watchers:   make(map[*memoryWatcher]struct{}),
		maxRetries: maxRetries,
		logger:     logger.Named("store.memory"),
	}
}

func (s *MemoryStore) Get(_ context.Context, path string) ([]byte, error) {
	if err := validateLeaf(path); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.nodes[path]), nil
}

func (s *MemoryStore) List(_ context.Context, collection string) (Snapshot, error) {
	if err := validatePath(collection); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLocked(collection), nil
}

func (s *MemoryStore) listLocked(collection string) Snapshot {
	prefix := collection + "/"
	out := make(Snapshot)
	for path, value := range s.nodes {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		name := path[len(prefix):]
		if strings.Contains(name, "/") {
			continue
		}
		out[name] = clone(value)
	}
	return out
}

func (s *MemoryStore) Set(_ context.Context, path string, value []byte) error {
	if err := validateLeaf(path); err != nil {
		return err
	}
	s.mu.Lock()
	s.writeLocked(path, value)
	s.mu.Unlock()

	collection, _ := Split(path)
	s.publish(collection)
	return nil
}

func (s *MemoryStore) Push(ctx context.Context, collection string, value []byte) (string, error) {
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

func (s *MemoryStore) Delete(_ context.Context, path string) error {
	if err := validatePath(path); err != nil {
		return err
	}

	s.mu.Lock()
	if _, ok := s.nodes[path]; ok {
		s.writeLocked(path, nil)
		s.mu.Unlock()
		collection, _ := Split(path)
		s.publish(collection)
		return nil
	}

	prefix := path + "/"
	removed := 0
	for key := range s.nodes {
		if strings.HasPrefix(key, prefix) {
			s.writeLocked(key, nil)
			removed++
		}
	}
	s.mu.Unlock()

	if removed > 0 {
		s.publish(path)
	}
	return nil
}

func (s *MemoryStore) Transact(ctx context.Context, paths []string, fn TxFunc) (TxResult, error) {
	if len(paths) == 0 {
		return TxResult{}, fmt.Errorf("%w: empty transaction", ErrInvalidPath)
	}
	for _, p := range paths {
		if err := validateLeaf(p); err != nil {
			return TxResult{}, err
		}
	}

	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return TxResult{}, err
		}

		current, seen := s.read(paths)
		next, err := fn(current)
		if err != nil {
			return TxResult{}, err
		}
		if err := checkWrites(paths, next); err != nil {
			return TxResult{}, err
		}

		s.mu.Lock()
		if !s.unchangedLocked(seen) {
			s.mu.Unlock()
			s.logger.Debug("transaction conflict, retrying", zap.Strings("paths", paths), zap.Int("attempt", attempt))
			continue
		}
		touched := make(map[string]struct{})
		for p, v := range next {
			s.writeLocked(p, v)
			collection, _ := Split(p)
			touched[collection] = struct{}{}
		}
		values := make(map[string][]byte, len(paths))
		for _, p := range paths {
			values[p] = clone(s.nodes[p])
		}
		s.mu.Unlock()

		for collection := range touched {
			s.publish(collection)
		}
		return TxResult{Committed: true, Values: values}, nil
	}

	s.logger.Warn("transaction gave up", zap.Strings("paths", paths), zap.Int("retries", s.maxRetries))
	return TxResult{}, nil
}

func (s *MemoryStore) read(paths []string) (map[string][]byte, map[string]uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	current := make(map[string][]byte, len(paths))
	seen := make(map[string]uint64, len(paths))
	for _, p := range paths {
		current[p] = clone(s.nodes[p])
		seen[p] = s.versions[p]
	}
	return current, seen
}

func (s *MemoryStore) unchangedLocked(seen map[string]uint64) bool {
	for p, v := range seen {
		if s.versions[p] != v {
			return false
		}
	}
	return true
}

// writeLocked stores or deletes a node and bumps its version. Versions are
// never dropped so a delete followed by a re-create still counts as a change.
func (s *MemoryStore) writeLocked(path string, value []byte) {
	if value == nil {
		delete(s.nodes, path)
	} else {
		s.nodes[path] = clone(value)
	}
	s.versions[path]++
}

func (s *MemoryStore) Watch(ctx context.Context, collection string) (<-chan Snapshot, error) {
	if err := validatePath(collection); err != nil {
		return nil, err
	}

	w := &memoryWatcher{collection: collection, notify: make(chan struct{}, 1)}
	s.mu.Lock()
	s.watchers[w] = struct{}{}
	s.mu.Unlock()

	out := make(chan Snapshot, 1)
	go func() {
		defer close(out)
		defer func() {
			s.mu.Lock()
			delete(s.watchers, w)
			s.mu.Unlock()
		}()

		for {
			s.mu.RLock()
			snap := s.listLocked(collection)
			s.mu.RUnlock()

			select {
			case out <- snap:
			case <-ctx.Done():
				return
			}

			select {
			case <-w.notify:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// publish wakes every watcher of collection. Notifications coalesce, so a slow
// watcher sees the latest snapshot rather than every intermediate one.
func (s *MemoryStore) publish(collection string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for w := range s.watchers {
		if !affects(w.collection, collection) {
			continue
		}
		select {
		case w.notify <- struct{}{}:
		default:
		}
	}
}

func checkWrites(paths []string, next map[string][]byte) error {
	for p := range next {
		found := false
		for _, q := range paths {
			if p == q {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: %q is not part of the transaction", ErrInvalidPath, p)
		}
	}
	return nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
