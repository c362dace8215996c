// Package memory はプロセス内に記録を保持するストア
// 書き込みトランザクションは1本ずつ直列に実行され、変更はコミット時にまとめて反映される
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/yourextrem/eventdao/internal/domain/address"
	"github.com/yourextrem/eventdao/internal/domain/event"
	"github.com/yourextrem/eventdao/internal/domain/outbox"
	"github.com/yourextrem/eventdao/internal/domain/registry"
	"github.com/yourextrem/eventdao/internal/domain/ticket"
	"github.com/yourextrem/eventdao/internal/domain/transaction"
)

var (
	ErrTxDone    = errors.New("memory: transaction has already been committed or rolled back")
	ErrForeignTx = errors.New("memory: transaction does not belong to this store")
)

// Store はコミット済みの全レコードを保持する
type Store struct {
	// 書き込みトランザクションのセマフォ
	writer chan struct{}

	mu          sync.RWMutex
	registry    *registry.Registry
	events      map[uint32]*event.Event
	tickets     map[address.Address]*ticket.Ticket
	ticketOrder []address.Address
	payments    []*ticket.Payment
	outbox      map[string]*outbox.Message
	outboxOrder []string
}

// NewStore は空のストアを作成する
func NewStore() *Store {
	return &Store{
		writer:  make(chan struct{}, 1),
		events:  make(map[uint32]*event.Event),
		tickets: make(map[address.Address]*ticket.Ticket),
		outbox:  make(map[string]*outbox.Message),
	}
}

// Begin は書き込みトランザクションを開始する
// 他のトランザクションが終わるまで待つ
func (s *Store) Begin(ctx context.Context) (transaction.Tx, error) {
	select {
	case s.writer <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &Tx{
		store:   s,
		events:  make(map[uint32]*event.Event),
		tickets: make(map[address.Address]*ticket.Ticket),
	}, nil
}

// Tx はコミットまで変更を溜めておくトランザクション
type Tx struct {
	store *Store
	done  bool

	registry   *registry.Registry
	events     map[uint32]*event.Event
	tickets    map[address.Address]*ticket.Ticket
	newTickets []address.Address
	payments   []*ticket.Payment
	outbox     []*outbox.Message
}

// Commit は溜めた変更をストアに反映する
func (tx *Tx) Commit() error {
	if tx.done {
		return ErrTxDone
	}
	s := tx.store

	s.mu.Lock()
	if tx.registry != nil {
		s.registry = tx.registry
	}
	for id, e := range tx.events {
		s.events[id] = e
	}
	for addr, t := range tx.tickets {
		s.tickets[addr] = t
	}
	s.ticketOrder = append(s.ticketOrder, tx.newTickets...)
	s.payments = append(s.payments, tx.payments...)
	for _, m := range tx.outbox {
		s.outbox[m.ID] = m
		s.outboxOrder = append(s.outboxOrder, m.ID)
	}
	s.mu.Unlock()

	tx.finish()
	return nil
}

// Rollback は変更を破棄する
func (tx *Tx) Rollback() error {
	if tx.done {
		return ErrTxDone
	}
	tx.finish()
	return nil
}

func (tx *Tx) finish() {
	tx.done = true
	<-tx.store.writer
}

// unwrap は transaction.Tx をこのストアのトランザクションに戻す
func (s *Store) unwrap(t transaction.Tx) (*Tx, error) {
	tx, ok := t.(*Tx)
	if !ok || tx.store != s {
		return nil, ErrForeignTx
	}
	if tx.done {
		return nil, ErrTxDone
	}
	return tx, nil
}

// Counts は件数の概要（テスト・ヘルスチェック用）
type Counts struct {
	Events   int
	Tickets  int
	Payments int
	Outbox   int
}

// Counts はコミット済みレコードの件数を返す
func (s *Store) Counts() Counts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Counts{
		Events:   len(s.events),
		Tickets:  len(s.tickets),
		Payments: len(s.payments),
		Outbox:   len(s.outbox),
	}
}

// Payments はコミット済みの支払い記録のコピーを返す
func (s *Store) Payments() []*ticket.Payment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*ticket.Payment, len(s.payments))
	for i, p := range s.payments {
		cp := *p
		out[i] = &cp
	}
	return out
}

var _ transaction.Manager = (*Store)(nil)
