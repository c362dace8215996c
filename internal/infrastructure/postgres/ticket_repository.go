package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/yourextrem/eventdao/internal/domain/address"
	"github.com/yourextrem/eventdao/internal/domain/ticket"
	"github.com/yourextrem/eventdao/internal/domain/transaction"
)

type ticketRow struct {
	Address      address.Address `db:"address"`
	EventID      int64           `db:"event_id"`
	Owner        string          `db:"owner"`
	PurchaseTime time.Time       `db:"purchase_time"`
	IsUsed       bool            `db:"is_used"`
	UsedAt       *time.Time      `db:"used_at"`
}

func (r *ticketRow) toEntity() *ticket.Ticket {
	return &ticket.Ticket{
		Address:      r.Address,
		EventID:      uint32(r.EventID),
		Owner:        r.Owner,
		PurchaseTime: r.PurchaseTime,
		IsUsed:       r.IsUsed,
		UsedAt:       r.UsedAt,
	}
}

const ticketColumns = `address, event_id, owner, purchase_time, is_used, used_at`

// TicketRepository はチケットのPostgreSQL実装
type TicketRepository struct{ db *sqlx.DB }

func NewTicketRepository(db *sqlx.DB) *TicketRepository { return &TicketRepository{db: db} }

// Create はチケットを挿入する。(event_id, owner) の重複は ErrDuplicateTicket
func (r *TicketRepository) Create(ctx context.Context, t transaction.Tx, tk *ticket.Ticket) error {
	tx, err := UnwrapTx(t)
	if err != nil {
		return err
	}
	query := `INSERT INTO tickets (` + ticketColumns + `) VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT DO NOTHING`
	res, err := tx.ExecContext(ctx, query, tk.Address, int64(tk.EventID), tk.Owner, tk.PurchaseTime, tk.IsUsed, tk.UsedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ticket.ErrDuplicateTicket
		}
		return fmt.Errorf("チケット作成に失敗: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("作成結果の確認に失敗: %w", err)
	}
	if n == 0 {
		return ticket.ErrDuplicateTicket
	}
	return nil
}

func (r *TicketRepository) Exists(ctx context.Context, t transaction.Tx, addr address.Address) (bool, error) {
	tx, err := UnwrapTx(t)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM tickets WHERE address = $1)`, addr); err != nil {
		return false, fmt.Errorf("チケット存在確認に失敗: %w", err)
	}
	return exists, nil
}

func (r *TicketRepository) GetByAddress(ctx context.Context, addr address.Address) (*ticket.Ticket, error) {
	var row ticketRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+ticketColumns+` FROM tickets WHERE address = $1`, addr); err != nil {
		return nil, mapTicketErr(err)
	}
	return row.toEntity(), nil
}

func (r *TicketRepository) GetForUpdate(ctx context.Context, t transaction.Tx, addr address.Address) (*ticket.Ticket, error) {
	tx, err := UnwrapTx(t)
	if err != nil {
		return nil, err
	}
	var row ticketRow
	if err := tx.GetContext(ctx, &row, `SELECT `+ticketColumns+` FROM tickets WHERE address = $1 FOR UPDATE`, addr); err != nil {
		return nil, mapTicketErr(err)
	}
	return row.toEntity(), nil
}

// MarkUsed は未使用のチケットだけを使用済みにする
func (r *TicketRepository) MarkUsed(ctx context.Context, t transaction.Tx, tk *ticket.Ticket) error {
	tx, err := UnwrapTx(t)
	if err != nil {
		return err
	}
	usedAt := time.Now()
	if tk.UsedAt != nil {
		usedAt = *tk.UsedAt
	}
	res, err := tx.ExecContext(ctx, `UPDATE tickets SET is_used = TRUE, used_at = $1 WHERE address = $2 AND is_used = FALSE`, usedAt, tk.Address)
	if err != nil {
		return fmt.Errorf("チケット更新に失敗: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の確認に失敗: %w", err)
	}
	if n == 0 {
		return ticket.ErrTicketAlreadyUsed
	}
	return nil
}

func (r *TicketRepository) ListByOwner(ctx context.Context, owner string, limit, offset int) ([]*ticket.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE owner = $1 ORDER BY purchase_time, address LIMIT $2 OFFSET $3`
	return r.selectTickets(ctx, query, owner, limit, offset)
}

func (r *TicketRepository) ListByEvent(ctx context.Context, eventID uint32, limit, offset int) ([]*ticket.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE event_id = $1 ORDER BY purchase_time, address LIMIT $2 OFFSET $3`
	return r.selectTickets(ctx, query, int64(eventID), limit, offset)
}

func (r *TicketRepository) CountByEvent(ctx context.Context, eventID uint32) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM tickets WHERE event_id = $1`, int64(eventID)); err != nil {
		return 0, fmt.Errorf("チケット数の取得に失敗: %w", err)
	}
	return n, nil
}

func (r *TicketRepository) RecordPayment(ctx context.Context, t transaction.Tx, p *ticket.Payment) error {
	tx, err := UnwrapTx(t)
	if err != nil {
		return err
	}
	query := `INSERT INTO ticket_payments (id, ticket_address, event_id, payer, payee, amount, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := tx.ExecContext(ctx, query, p.ID, p.TicketAddress, int64(p.EventID), p.Payer, p.Payee, int64(p.Amount), p.CreatedAt); err != nil {
		return fmt.Errorf("支払い記録に失敗: %w", err)
	}
	return nil
}

func (r *TicketRepository) selectTickets(ctx context.Context, query string, key any, limit, offset int) ([]*ticket.Ticket, error) {
	var rows []ticketRow
	if err := r.db.SelectContext(ctx, &rows, query, key, limit, offset); err != nil {
		return nil, fmt.Errorf("チケット一覧取得に失敗: %w", err)
	}
	tickets := make([]*ticket.Ticket, len(rows))
	for i := range rows {
		tickets[i] = rows[i].toEntity()
	}
	return tickets, nil
}

func mapTicketErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ticket.ErrTicketNotFound
	}
	return fmt.Errorf("チケット取得に失敗: %w", err)
}

var _ ticket.Repository = (*TicketRepository)(nil)
