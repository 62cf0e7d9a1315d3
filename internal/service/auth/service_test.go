package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mamadbah2/kasir/internal/domain/models"
	"github.com/mamadbah2/kasir/internal/repository/realtime"
)

func newTestGate(t *testing.T) (*Service, realtime.Store) {
	t.Helper()
	store := realtime.NewMemoryStore(0, zaptest.NewLogger(t))
	return NewService(store, zaptest.NewLogger(t)), store
}

func TestVerify_PlainPassword(t *testing.T) {
	ctx := context.Background()
	gate, store := newTestGate(t)
	require.NoError(t, store.Set(ctx, "rules/owner", []byte(`{"type":"Owner","password":"rahasia"}`)))

	require.NoError(t, gate.Verify(ctx, "owner", "rahasia"))
	require.ErrorIs(t, gate.Verify(ctx, "owner", "salah"), models.ErrUnauthorized)
	require.ErrorIs(t, gate.Verify(ctx, "owner", ""), models.ErrUnauthorized)
	require.ErrorIs(t, gate.Verify(ctx, "nobody", "rahasia"), models.ErrUnauthorized)
}

func TestSetRule_HashesPassword(t *testing.T) {
	ctx := context.Background()
	gate, store := newTestGate(t)

	require.NoError(t, gate.SetRule(ctx, "manager", "Manager", "s3cret"))

	raw, err := store.Get(ctx, "rules/manager")
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "s3cret")

	require.NoError(t, gate.Verify(ctx, "manager", "s3cret"))
	require.ErrorIs(t, gate.Verify(ctx, "manager", "S3cret"), models.ErrUnauthorized)

	require.Error(t, gate.SetRule(ctx, "", "x", "pw"))
	require.Error(t, gate.SetRule(ctx, "k", "x", ""))
}

func TestRules_HidesPasswords(t *testing.T) {
	ctx := context.Background()
	gate, store := newTestGate(t)
	require.NoError(t, store.Set(ctx, "rules/b", []byte(`{"type":"Staff","password":"x"}`)))
	require.NoError(t, store.Set(ctx, "rules/a", []byte(`{"type":"Owner","password":"y"}`)))

	rules, err := gate.Rules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "a", rules[0].Key)
	assert.Equal(t, "Owner", rules[0].Type)
	assert.Empty(t, rules[0].Password)
}
