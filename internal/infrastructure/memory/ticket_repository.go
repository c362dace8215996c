package memory

import (
	"context"

	"github.com/yourextrem/eventdao/internal/domain/address"
	"github.com/yourextrem/eventdao/internal/domain/ticket"
	"github.com/yourextrem/eventdao/internal/domain/transaction"
)

// TicketRepository はチケットのメモリ実装
type TicketRepository struct{ store *Store }

func NewTicketRepository(s *Store) *TicketRepository { return &TicketRepository{store: s} }

func (r *TicketRepository) Create(ctx context.Context, t transaction.Tx, tk *ticket.Ticket) error {
	tx, err := r.store.unwrap(t)
	if err != nil {
		return err
	}
	if _, staged := tx.tickets[tk.Address]; staged || r.committed(tk.Address) != nil {
		return ticket.ErrDuplicateTicket
	}
	tx.tickets[tk.Address] = copyTicket(tk)
	tx.newTickets = append(tx.newTickets, tk.Address)
	return nil
}

func (r *TicketRepository) Exists(ctx context.Context, t transaction.Tx, addr address.Address) (bool, error) {
	tx, err := r.store.unwrap(t)
	if err != nil {
		return false, err
	}
	if _, staged := tx.tickets[addr]; staged {
		return true, nil
	}
	return r.committed(addr) != nil, nil
}

func (r *TicketRepository) GetByAddress(ctx context.Context, addr address.Address) (*ticket.Ticket, error) {
	tk := r.committed(addr)
	if tk == nil {
		return nil, ticket.ErrTicketNotFound
	}
	return tk, nil
}

func (r *TicketRepository) GetForUpdate(ctx context.Context, t transaction.Tx, addr address.Address) (*ticket.Ticket, error) {
	tx, err := r.store.unwrap(t)
	if err != nil {
		return nil, err
	}
	if tk, ok := tx.tickets[addr]; ok {
		return copyTicket(tk), nil
	}
	return r.GetByAddress(ctx, addr)
}

func (r *TicketRepository) MarkUsed(ctx context.Context, t transaction.Tx, tk *ticket.Ticket) error {
	tx, err := r.store.unwrap(t)
	if err != nil {
		return err
	}
	current, err := r.GetForUpdate(ctx, tx, tk.Address)
	if err != nil {
		return err
	}
	if current.IsUsed {
		return ticket.ErrTicketAlreadyUsed
	}
	current.IsUsed = true
	current.UsedAt = tk.UsedAt
	tx.tickets[tk.Address] = copyTicket(current)
	return nil
}

func (r *TicketRepository) ListByOwner(ctx context.Context, owner string, limit, offset int) ([]*ticket.Ticket, error) {
	return r.list(func(tk *ticket.Ticket) bool { return tk.Owner == owner }, limit, offset), nil
}

func (r *TicketRepository) ListByEvent(ctx context.Context, eventID uint32, limit, offset int) ([]*ticket.Ticket, error) {
	return r.list(func(tk *ticket.Ticket) bool { return tk.EventID == eventID }, limit, offset), nil
}

func (r *TicketRepository) CountByEvent(ctx context.Context, eventID uint32) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	n := 0
	for _, tk := range r.store.tickets {
		if tk.EventID == eventID {
			n++
		}
	}
	return n, nil
}

func (r *TicketRepository) RecordPayment(ctx context.Context, t transaction.Tx, p *ticket.Payment) error {
	tx, err := r.store.unwrap(t)
	if err != nil {
		return err
	}
	cp := *p
	tx.payments = append(tx.payments, &cp)
	return nil
}

// list は購入順に条件に合うチケットを返す
func (r *TicketRepository) list(match func(*ticket.Ticket) bool, limit, offset int) []*ticket.Ticket {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var matched []*ticket.Ticket
	for _, addr := range r.store.ticketOrder {
		if tk := r.store.tickets[addr]; match(tk) {
			matched = append(matched, tk)
		}
	}

	selected := page(matched, limit, offset)
	out := make([]*ticket.Ticket, len(selected))
	for i, tk := range selected {
		out[i] = copyTicket(tk)
	}
	return out
}

func (r *TicketRepository) committed(addr address.Address) *ticket.Ticket {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	tk, ok := r.store.tickets[addr]
	if !ok {
		return nil
	}
	return copyTicket(tk)
}

func copyTicket(tk *ticket.Ticket) *ticket.Ticket {
	cp := *tk
	if tk.UsedAt != nil {
		usedAt := *tk.UsedAt
		cp.UsedAt = &usedAt
	}
	return &cp
}

var _ ticket.Repository = (*TicketRepository)(nil)
