package postgres

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/yourextrem/eventdao/internal/domain/outbox"
	"github.com/yourextrem/eventdao/internal/domain/transaction"
)

type outboxRow struct {
	ID            string     `db:"id"`
	AggregateType string     `db:"aggregate_type"`
	AggregateID   string     `db:"aggregate_id"`
	EventType     string     `db:"event_type"`
	Topic         string     `db:"topic"`
	PartitionKey  string     `db:"partition_key"`
	Payload       []byte     `db:"payload"`
	Status        string     `db:"status"`
	RetryCount    int        `db:"retry_count"`
	MaxRetries    int        `db:"max_retries"`
	LastError     string     `db:"last_error"`
	CreatedAt     time.Time  `db:"created_at"`
	PublishedAt   *time.Time `db:"published_at"`
}

func (r *outboxRow) toEntity() *outbox.Message {
	return &outbox.Message{
		ID:            r.ID,
		AggregateType: r.AggregateType,
		AggregateID:   r.AggregateID,
		EventType:     r.EventType,
		Topic:         r.Topic,
		PartitionKey:  r.PartitionKey,
		Payload:       r.Payload,
		Status:        outbox.Status(r.Status),
		RetryCount:    r.RetryCount,
		MaxRetries:    r.MaxRetries,
		LastError:     r.LastError,
		CreatedAt:     r.CreatedAt,
		PublishedAt:   r.PublishedAt,
	}
}

const outboxColumns = `id, aggregate_type, aggregate_id, event_type, topic, partition_key, payload, status, retry_count, max_retries, last_error, created_at, published_at`

// OutboxRepository はアウトボックスのPostgreSQL実装
type OutboxRepository struct{ db *sqlx.DB }

func NewOutboxRepository(db *sqlx.DB) *OutboxRepository { return &OutboxRepository{db: db} }

func (r *OutboxRepository) Append(ctx context.Context, t transaction.Tx, m *outbox.Message) error {
	tx, err := UnwrapTx(t)
	if err != nil {
		return err
	}
	query := `INSERT INTO outbox_messages (` + outboxColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err = tx.ExecContext(ctx, query,
		m.ID, m.AggregateType, m.AggregateID, m.EventType, m.Topic, m.PartitionKey, m.Payload,
		string(m.Status), m.RetryCount, m.MaxRetries, m.LastError, m.CreatedAt, m.PublishedAt,
	)
	if err != nil {
		return fmt.Errorf("アウトボックス追加に失敗: %w", err)
	}
	return nil
}

// outboxClaimTTL はリレーが取得したメッセージを他のリレーから隠す期間
// 期限までに MarkPublished / MarkFailed されなければ再配送対象に戻る
const outboxClaimTTL = 30 * time.Second

// GetDeliverable は配送対象を取得して一定期間占有する
// 複数のリレーが同時に動いても同じメッセージは返さない
func (r *OutboxRepository) GetDeliverable(ctx context.Context, limit int) ([]*outbox.Message, error) {
	query := `UPDATE outbox_messages SET claimed_until = NOW() + $2::float8 * INTERVAL '1 second'
		WHERE id IN (
			SELECT id FROM outbox_messages
			WHERE (status = 'pending' OR (status = 'failed' AND retry_count < max_retries))
			  AND (claimed_until IS NULL OR claimed_until < NOW())
			ORDER BY created_at
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + outboxColumns
	var rows []outboxRow
	if err := r.db.SelectContext(ctx, &rows, query, limit, outboxClaimTTL.Seconds()); err != nil {
		return nil, fmt.Errorf("アウトボックス取得に失敗: %w", err)
	}
	// RETURNING の順序は保証されない
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].CreatedAt.Before(rows[j].CreatedAt) })
	msgs := make([]*outbox.Message, len(rows))
	for i := range rows {
		msgs[i] = rows[i].toEntity()
	}
	return msgs, nil
}

func (r *OutboxRepository) MarkPublished(ctx context.Context, id string) error {
	query := `UPDATE outbox_messages SET status = 'published', published_at = NOW(), last_error = '', claimed_until = NULL WHERE id = $1`
	return r.exec(ctx, query, id)
}

func (r *OutboxRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	query := `UPDATE outbox_messages SET status = 'failed', retry_count = retry_count + 1, last_error = $2, claimed_until = NULL WHERE id = $1`
	return r.exec(ctx, query, id, reason)
}

func (r *OutboxRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("アウトボックス更新に失敗: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("アウトボックスメッセージ %v が見つかりません", args[0])
	}
	return nil
}

var _ outbox.Repository = (*OutboxRepository)(nil)
