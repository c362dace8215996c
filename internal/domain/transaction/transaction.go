package transaction

import (
	"context"
	"fmt"
)

// Tx はストア上の1トランザクション
// ドメイン層が sqlx やメモリストアに依存しないための抽象化
type Tx interface {
	Commit() error
	Rollback() error
}

// Manager はトランザクションを開始する
type Manager interface {
	Begin(ctx context.Context) (Tx, error)
}

// Run は fn をトランザクション内で実行する
// fn がエラーを返した場合はロールバックし、コミットしない
func Run(ctx context.Context, m Manager, fn func(tx Tx) error) error {
	tx, err := m.Begin(ctx)
	if err != nil {
		return fmt.Errorf("トランザクション開始エラー: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("コミットエラー: %w", err)
	}
	return nil
}
