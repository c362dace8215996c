package postgres

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/yourextrem/eventdao/internal/domain/transaction"
)

// ErrNotPostgresTx は別ストアのトランザクションが渡された場合のエラー
var ErrNotPostgresTx = errors.New("postgres: transaction was not started by TxManager")

// TxWrapper は sqlx.Tx を transaction.Tx として扱う
type TxWrapper struct {
	*sqlx.Tx
}

func (t *TxWrapper) Commit() error {
	return t.Tx.Commit()
}

func (t *TxWrapper) Rollback() error {
	return t.Tx.Rollback()
}

// TxManager は sqlx.DB を使用したトランザクションマネージャー
type TxManager struct {
	db *sqlx.DB
}

func NewTxManager(db *sqlx.DB) *TxManager {
	return &TxManager{db: db}
}

// Begin は READ COMMITTED のトランザクションを開始する
// 競合する行は各リポジトリの SELECT ... FOR UPDATE で直列化する
func (m *TxManager) Begin(ctx context.Context) (transaction.Tx, error) {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &TxWrapper{Tx: tx}, nil
}

// UnwrapTx は transaction.Tx から sqlx.Tx を取り出す
func UnwrapTx(tx transaction.Tx) (*sqlx.Tx, error) {
	if wrapper, ok := tx.(*TxWrapper); ok && wrapper.Tx != nil {
		return wrapper.Tx, nil
	}
	return nil, ErrNotPostgresTx
}

var _ transaction.Manager = (*TxManager)(nil)
