package outbox

import (
	"context"

	"github.com/yourextrem/eventdao/internal/domain/transaction"
)

// Repository はアウトボックスのインターフェース
type Repository interface {
	// Append はメッセージを追加する（トランザクション必須）
	Append(ctx context.Context, tx transaction.Tx, m *Message) error

	// GetDeliverable は未送信および再送可能なメッセージを作成順に取得する
	GetDeliverable(ctx context.Context, limit int) ([]*Message, error)

	// MarkPublished は送信済みにする
	MarkPublished(ctx context.Context, id string) error

	// MarkFailed は送信失敗を記録する
	MarkFailed(ctx context.Context, id string, reason string) error
}
