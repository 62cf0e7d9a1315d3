package realtime

import (
	"testing"

	"go.uber.org/zap/zaptest"
)

func TestMemoryStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T, maxRetries int) Store {
		return NewMemoryStore(maxRetries, zaptest.NewLogger(t))
	})
}
