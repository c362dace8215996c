package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourextrem/eventdao/internal/domain/address"
	"github.com/yourextrem/eventdao/internal/domain/outbox"
	"github.com/yourextrem/eventdao/internal/domain/registry"
)

func TestRegistryService_InitializeRegistry(t *testing.T) {
	ctx := context.Background()

	t.Run("初期化できる", func(t *testing.T) {
		s := newTestServices(t, nil, nil)

		r, err := s.registry.InitializeRegistry(ctx, " alice ")
		require.NoError(t, err)
		assert.Equal(t, address.Registry(), r.Address)
		assert.Equal(t, "alice", r.Authority)
		assert.Equal(t, uint32(0), r.TotalEvents)

		got, err := s.registry.GetRegistry(ctx)
		require.NoError(t, err)
		assert.Equal(t, r.Authority, got.Authority)
		assert.Equal(t, []string{outbox.TypeRegistryInitialized}, s.outboxTypes(t))
	})

	t.Run("2回目はAlreadyInitializedで既存の記録は変わらない", func(t *testing.T) {
		s := newTestServices(t, nil, nil)
		_, err := s.registry.InitializeRegistry(ctx, "alice")
		require.NoError(t, err)
		s.seedEvent(t, 10, 0)

		_, err = s.registry.InitializeRegistry(ctx, "bob")
		assert.ErrorIs(t, err, registry.ErrAlreadyInitialized)

		got, err := s.registry.GetRegistry(ctx)
		require.NoError(t, err)
		assert.Equal(t, "alice", got.Authority)
		assert.Equal(t, uint32(1), got.TotalEvents)
	})

	t.Run("authorityが空ならエラー", func(t *testing.T) {
		s := newTestServices(t, nil, nil)

		_, err := s.registry.InitializeRegistry(ctx, "  ")
		assert.ErrorIs(t, err, registry.ErrAuthorityRequired)

		_, err = s.registry.GetRegistry(ctx)
		assert.ErrorIs(t, err, registry.ErrRegistryNotFound)
		assert.Empty(t, s.outboxTypes(t))
	})
}
