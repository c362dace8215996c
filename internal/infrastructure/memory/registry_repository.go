package memory

import (
	"context"

	"github.com/yourextrem/eventdao/internal/domain/registry"
	"github.com/yourextrem/eventdao/internal/domain/transaction"
)

// RegistryRepository はレジストリのメモリ実装
type RegistryRepository struct{ store *Store }

func NewRegistryRepository(s *Store) *RegistryRepository { return &RegistryRepository{store: s} }

func (r *RegistryRepository) Create(ctx context.Context, t transaction.Tx, reg *registry.Registry) error {
	tx, err := r.store.unwrap(t)
	if err != nil {
		return err
	}
	if tx.registry != nil {
		return registry.ErrAlreadyInitialized
	}
	r.store.mu.RLock()
	exists := r.store.registry != nil
	r.store.mu.RUnlock()
	if exists {
		return registry.ErrAlreadyInitialized
	}

	cp := *reg
	tx.registry = &cp
	return nil
}

func (r *RegistryRepository) Get(ctx context.Context) (*registry.Registry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	if r.store.registry == nil {
		return nil, registry.ErrRegistryNotFound
	}
	cp := *r.store.registry
	return &cp, nil
}

func (r *RegistryRepository) GetForUpdate(ctx context.Context, t transaction.Tx) (*registry.Registry, error) {
	tx, err := r.store.unwrap(t)
	if err != nil {
		return nil, err
	}
	if tx.registry != nil {
		cp := *tx.registry
		return &cp, nil
	}
	return r.Get(ctx)
}

func (r *RegistryRepository) UpdateTotalEvents(ctx context.Context, t transaction.Tx, reg *registry.Registry) error {
	tx, err := r.store.unwrap(t)
	if err != nil {
		return err
	}
	current, err := r.GetForUpdate(ctx, tx)
	if err != nil {
		return err
	}
	current.TotalEvents = reg.TotalEvents
	tx.registry = current
	return nil
}

var _ registry.Repository = (*RegistryRepository)(nil)
