package event

import (
	"context"

	"github.com/yourextrem/eventdao/internal/domain/transaction"
)

// Repository はイベントリポジトリのインターフェース
type Repository interface {
	// Create は新しいイベントを作成する（トランザクション必須）
	Create(ctx context.Context, tx transaction.Tx, e *Event) error

	// GetByID はIDからイベントを取得する
	GetByID(ctx context.Context, id uint32) (*Event, error)

	// GetForUpdate はイベントを行ロック付きで取得する（トランザクション必須）
	GetForUpdate(ctx context.Context, tx transaction.Tx, id uint32) (*Event, error)

	// List はイベント一覧をID順に取得する
	List(ctx context.Context, limit, offset int) ([]*Event, error)

	// UpdateParticipants は参加者数を更新する（トランザクション必須）
	UpdateParticipants(ctx context.Context, tx transaction.Tx, e *Event) error
}
