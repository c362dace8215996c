package application

import (
	"context"

	"github.com/yourextrem/eventdao/internal/domain/outbox"
	"github.com/yourextrem/eventdao/internal/domain/registry"
	"github.com/yourextrem/eventdao/internal/domain/transaction"
	"github.com/yourextrem/eventdao/internal/pkg/logger"
)

// RegistryService はレジストリの初期化と参照を扱う
type RegistryService struct {
	txManager    transaction.Manager
	registryRepo registry.Repository
	outboxRepo   outbox.Repository
}

// NewRegistryService は RegistryService を作成する
func NewRegistryService(txManager transaction.Manager, registryRepo registry.Repository, outboxRepo outbox.Repository) *RegistryService {
	return &RegistryService{
		txManager:    txManager,
		registryRepo: registryRepo,
		outboxRepo:   outboxRepo,
	}
}

// InitializeRegistry はレジストリを1度だけ作成する
// 2回目以降は ErrAlreadyInitialized を返し、既存のレコードは変更しない
func (s *RegistryService) InitializeRegistry(ctx context.Context, authority string) (r *registry.Registry, err error) {
	defer func() { observe(opInitializeRegistry, err) }()

	r = registry.NewRegistry(authority)
	if err := r.Validate(); err != nil {
		return nil, err
	}

	err = transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		if err := s.registryRepo.Create(ctx, tx, r); err != nil {
			return err
		}
		return appendOutbox(ctx, s.outboxRepo, tx, func() (*outbox.Message, error) {
			return registryInitialized(r)
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info("レジストリを初期化しました",
		logger.Account("registry", r.Address),
		logger.Identity("authority", r.Authority),
	)
	return r, nil
}

// GetRegistry はレジストリを取得する
func (s *RegistryService) GetRegistry(ctx context.Context) (*registry.Registry, error) {
	return s.registryRepo.Get(ctx)
}
