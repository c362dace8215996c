package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/yourextrem/eventdao/internal/domain/address"
	"github.com/yourextrem/eventdao/internal/domain/registry"
	"github.com/yourextrem/eventdao/internal/domain/transaction"
)

type registryRow struct {
	Address     address.Address `db:"address"`
	Authority   string          `db:"authority"`
	TotalEvents int64           `db:"total_events"`
	CreatedAt   time.Time       `db:"created_at"`
}

func (r *registryRow) toEntity() *registry.Registry {
	return &registry.Registry{
		Address:     r.Address,
		Authority:   r.Authority,
		TotalEvents: uint32(r.TotalEvents),
		CreatedAt:   r.CreatedAt,
	}
}

const registryColumns = `address, authority, total_events, created_at`

// RegistryRepository はレジストリのPostgreSQL実装
type RegistryRepository struct{ db *sqlx.DB }

func NewRegistryRepository(db *sqlx.DB) *RegistryRepository {
	return &RegistryRepository{db: db}
}

// Create はレジストリ行を挿入する。アドレスが固定なので2件目は入らない
func (r *RegistryRepository) Create(ctx context.Context, t transaction.Tx, reg *registry.Registry) error {
	tx, err := UnwrapTx(t)
	if err != nil {
		return err
	}
	query := `INSERT INTO registries (` + registryColumns + `) VALUES ($1, $2, $3, $4) ON CONFLICT (address) DO NOTHING`
	res, err := tx.ExecContext(ctx, query, reg.Address, reg.Authority, int64(reg.TotalEvents), reg.CreatedAt)
	if err != nil {
		return fmt.Errorf("レジストリ作成に失敗: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("作成結果の確認に失敗: %w", err)
	}
	if n == 0 {
		return registry.ErrAlreadyInitialized
	}
	return nil
}

func (r *RegistryRepository) Get(ctx context.Context) (*registry.Registry, error) {
	var row registryRow
	query := `SELECT ` + registryColumns + ` FROM registries WHERE address = $1`
	if err := r.db.GetContext(ctx, &row, query, address.Registry()); err != nil {
		return nil, mapRegistryErr(err)
	}
	return row.toEntity(), nil
}

// GetForUpdate はレジストリ行をロックして取得する。イベント作成はここで直列化される
func (r *RegistryRepository) GetForUpdate(ctx context.Context, t transaction.Tx) (*registry.Registry, error) {
	tx, err := UnwrapTx(t)
	if err != nil {
		return nil, err
	}
	var row registryRow
	query := `SELECT ` + registryColumns + ` FROM registries WHERE address = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &row, query, address.Registry()); err != nil {
		return nil, mapRegistryErr(err)
	}
	return row.toEntity(), nil
}

func (r *RegistryRepository) UpdateTotalEvents(ctx context.Context, t transaction.Tx, reg *registry.Registry) error {
	tx, err := UnwrapTx(t)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `UPDATE registries SET total_events = $1 WHERE address = $2`, int64(reg.TotalEvents), reg.Address)
	if err != nil {
		return fmt.Errorf("レジストリ更新に失敗: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return registry.ErrRegistryNotFound
	}
	return nil
}

func mapRegistryErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return registry.ErrRegistryNotFound
	}
	return fmt.Errorf("レジストリ取得に失敗: %w", err)
}

var _ registry.Repository = (*RegistryRepository)(nil)
