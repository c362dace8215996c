package memory

import (
	"context"
	"fmt"

	"github.com/yourextrem/eventdao/internal/domain/outbox"
	"github.com/yourextrem/eventdao/internal/domain/transaction"
)

// OutboxRepository はアウトボックスのメモリ実装
type OutboxRepository struct{ store *Store }

func NewOutboxRepository(s *Store) *OutboxRepository { return &OutboxRepository{store: s} }

func (r *OutboxRepository) Append(ctx context.Context, t transaction.Tx, m *outbox.Message) error {
	tx, err := r.store.unwrap(t)
	if err != nil {
		return err
	}
	cp := *m
	tx.outbox = append(tx.outbox, &cp)
	return nil
}

func (r *OutboxRepository) GetDeliverable(ctx context.Context, limit int) ([]*outbox.Message, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []*outbox.Message
	for _, id := range r.store.outboxOrder {
		if len(out) >= limit {
			break
		}
		if m := r.store.outbox[id]; m.Deliverable() {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *OutboxRepository) MarkPublished(ctx context.Context, id string) error {
	return r.update(id, func(m *outbox.Message) { m.MarkPublished() })
}

func (r *OutboxRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	return r.update(id, func(m *outbox.Message) { m.MarkFailed(reason) })
}

func (r *OutboxRepository) update(id string, fn func(*outbox.Message)) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	m, ok := r.store.outbox[id]
	if !ok {
		return fmt.Errorf("アウトボックスメッセージ %s が見つかりません", id)
	}
	fn(m)
	return nil
}

var _ outbox.Repository = (*OutboxRepository)(nil)
