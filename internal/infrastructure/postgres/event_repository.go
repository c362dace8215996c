package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/yourextrem/eventdao/internal/domain/address"
	"github.com/yourextrem/eventdao/internal/domain/event"
	"github.com/yourextrem/eventdao/internal/domain/transaction"
)

// eventRow はDBの行を表す構造体
type eventRow struct {
	ID                  int64           `db:"id"`
	Address             address.Address `db:"address"`
	Title               string          `db:"title"`
	Description         string          `db:"description"`
	Organizer           string          `db:"organizer"`
	MaxParticipants     int64           `db:"max_participants"`
	CurrentParticipants int64           `db:"current_participants"`
	TicketPrice         int64           `db:"ticket_price"`
	IsActive            bool            `db:"is_active"`
	CreatedAt           time.Time       `db:"created_at"`
}

func (r *eventRow) toEntity() *event.Event {
	return &event.Event{
		ID:                  uint32(r.ID),
		Address:             r.Address,
		Title:               r.Title,
		Description:         r.Description,
		Organizer:           r.Organizer,
		MaxParticipants:     uint32(r.MaxParticipants),
		CurrentParticipants: uint32(r.CurrentParticipants),
		TicketPrice:         uint64(r.TicketPrice),
		IsActive:            r.IsActive,
		CreatedAt:           r.CreatedAt,
	}
}

const eventColumns = `id, address, title, description, organizer, max_participants, current_participants, ticket_price, is_active, created_at`

// EventRepository はイベントのPostgreSQL実装
type EventRepository struct {
	db *sqlx.DB
}

func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Create(ctx context.Context, t transaction.Tx, e *event.Event) error {
	tx, err := UnwrapTx(t)
	if err != nil {
		return err
	}
	query := `INSERT INTO events (` + eventColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err = tx.ExecContext(ctx, query,
		int64(e.ID), e.Address, e.Title, e.Description, e.Organizer,
		int64(e.MaxParticipants), int64(e.CurrentParticipants), int64(e.TicketPrice),
		e.IsActive, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("イベント作成に失敗しました: %w", err)
	}
	return nil
}

func (r *EventRepository) GetByID(ctx context.Context, id uint32) (*event.Event, error) {
	var row eventRow
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, int64(id)); err != nil {
		return nil, mapEventErr(err)
	}
	return row.toEntity(), nil
}

// GetForUpdate はイベント行をロックして取得する。同じイベントへの購入はここで直列化される
func (r *EventRepository) GetForUpdate(ctx context.Context, t transaction.Tx, id uint32) (*event.Event, error) {
	tx, err := UnwrapTx(t)
	if err != nil {
		return nil, err
	}
	var row eventRow
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &row, query, int64(id)); err != nil {
		return nil, mapEventErr(err)
	}
	return row.toEntity(), nil
}

func (r *EventRepository) List(ctx context.Context, limit, offset int) ([]*event.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events ORDER BY id LIMIT $1 OFFSET $2`
	var rows []eventRow
	if err := r.db.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, fmt.Errorf("イベント一覧取得に失敗しました: %w", err)
	}
	events := make([]*event.Event, len(rows))
	for i := range rows {
		events[i] = rows[i].toEntity()
	}
	return events, nil
}

// UpdateParticipants は参加者数を書き込む。定員超過は CHECK 制約でも弾かれる
func (r *EventRepository) UpdateParticipants(ctx context.Context, t transaction.Tx, e *event.Event) error {
	tx, err := UnwrapTx(t)
	if err != nil {
		return err
	}
	query := `UPDATE events SET current_participants = $1 WHERE id = $2 AND $1 <= max_participants`
	res, err := tx.ExecContext(ctx, query, int64(e.CurrentParticipants), int64(e.ID))
	if err != nil {
		return fmt.Errorf("参加者数の更新に失敗しました: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の確認に失敗しました: %w", err)
	}
	if n == 0 {
		return event.ErrEventFull
	}
	return nil
}

func mapEventErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return event.ErrEventNotFound
	}
	return fmt.Errorf("イベント取得に失敗しました: %w", err)
}

var _ event.Repository = (*EventRepository)(nil)
