package ticket

import (
	"context"

	"github.com/yourextrem/eventdao/internal/domain/address"
	"github.com/yourextrem/eventdao/internal/domain/transaction"
)

// Repository はチケットリポジトリのインターフェース
type Repository interface {
	// Create はチケットを作成する。同じアドレスが存在すれば ErrDuplicateTicket
	Create(ctx context.Context, tx transaction.Tx, t *Ticket) error

	// Exists はアドレスのチケットが存在するかを返す（トランザクション必須）
	Exists(ctx context.Context, tx transaction.Tx, addr address.Address) (bool, error)

	// GetByAddress はアドレスからチケットを取得する
	GetByAddress(ctx context.Context, addr address.Address) (*Ticket, error)

	// GetForUpdate はチケットを行ロック付きで取得する（トランザクション必須）
	GetForUpdate(ctx context.Context, tx transaction.Tx, addr address.Address) (*Ticket, error)

	// MarkUsed はチケットを使用済みに更新する（トランザクション必須）
	MarkUsed(ctx context.Context, tx transaction.Tx, t *Ticket) error

	// ListByOwner は所有者のチケット一覧を購入順に取得する
	ListByOwner(ctx context.Context, owner string, limit, offset int) ([]*Ticket, error)

	// ListByEvent はイベントのチケット一覧を購入順に取得する
	ListByEvent(ctx context.Context, eventID uint32, limit, offset int) ([]*Ticket, error)

	// CountByEvent はイベントのチケット枚数を取得する
	CountByEvent(ctx context.Context, eventID uint32) (int, error)

	// RecordPayment は支払い記録を保存する（トランザクション必須）
	RecordPayment(ctx context.Context, tx transaction.Tx, p *Payment) error
}
