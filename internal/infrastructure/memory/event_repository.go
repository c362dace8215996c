package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/yourextrem/eventdao/internal/domain/event"
	"github.com/yourextrem/eventdao/internal/domain/transaction"
)

// EventRepository はイベントのメモリ実装
type EventRepository struct{ store *Store }

func NewEventRepository(s *Store) *EventRepository { return &EventRepository{store: s} }

func (r *EventRepository) Create(ctx context.Context, t transaction.Tx, e *event.Event) error {
	tx, err := r.store.unwrap(t)
	if err != nil {
		return err
	}
	if _, staged := tx.events[e.ID]; staged || r.committed(e.ID) != nil {
		return fmt.Errorf("イベントID %d は既に使用されています", e.ID)
	}
	cp := *e
	tx.events[e.ID] = &cp
	return nil
}

func (r *EventRepository) GetByID(ctx context.Context, id uint32) (*event.Event, error) {
	e := r.committed(id)
	if e == nil {
		return nil, event.ErrEventNotFound
	}
	return e, nil
}

func (r *EventRepository) GetForUpdate(ctx context.Context, t transaction.Tx, id uint32) (*event.Event, error) {
	tx, err := r.store.unwrap(t)
	if err != nil {
		return nil, err
	}
	if e, ok := tx.events[id]; ok {
		cp := *e
		return &cp, nil
	}
	return r.GetByID(ctx, id)
}

func (r *EventRepository) List(ctx context.Context, limit, offset int) ([]*event.Event, error) {
	r.store.mu.RLock()
	ids := make([]uint32, 0, len(r.store.events))
	for id := range r.store.events {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	selected := page(ids, limit, offset)
	out := make([]*event.Event, 0, len(selected))
	for _, id := range selected {
		cp := *r.store.events[id]
		out = append(out, &cp)
	}
	r.store.mu.RUnlock()
	return out, nil
}

func (r *EventRepository) UpdateParticipants(ctx context.Context, t transaction.Tx, e *event.Event) error {
	tx, err := r.store.unwrap(t)
	if err != nil {
		return err
	}
	current, err := r.GetForUpdate(ctx, tx, e.ID)
	if err != nil {
		return err
	}
	if e.CurrentParticipants > current.MaxParticipants {
		return event.ErrEventFull
	}
	current.CurrentParticipants = e.CurrentParticipants
	tx.events[e.ID] = current
	return nil
}

// committed はコミット済みイベントのコピーを返す
func (r *EventRepository) committed(id uint32) *event.Event {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	e, ok := r.store.events[id]
	if !ok {
		return nil
	}
	cp := *e
	return &cp
}

// page は offset/limit で切り出す
func page[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

var _ event.Repository = (*EventRepository)(nil)
