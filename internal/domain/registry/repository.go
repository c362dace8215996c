package registry

import (
	"context"

	"github.com/yourextrem/eventdao/internal/domain/transaction"
)

// Repository はレジストリリポジトリのインターフェース
type Repository interface {
	// Create はレジストリを作成する。既に存在すれば ErrAlreadyInitialized
	Create(ctx context.Context, tx transaction.Tx, r *Registry) error

	// Get はレジストリを取得する
	Get(ctx context.Context) (*Registry, error)

	// GetForUpdate はレジストリを行ロック付きで取得する（トランザクション必須）
	GetForUpdate(ctx context.Context, tx transaction.Tx) (*Registry, error)

	// UpdateTotalEvents はイベント数を更新する（トランザクション必須）
	UpdateTotalEvents(ctx context.Context, tx transaction.Tx, r *Registry) error
}
