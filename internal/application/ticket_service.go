package application

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yourextrem/eventdao/internal/domain/address"
	"github.com/yourextrem/eventdao/internal/domain/event"
	"github.com/yourextrem/eventdao/internal/domain/outbox"
	"github.com/yourextrem/eventdao/internal/domain/ticket"
	"github.com/yourextrem/eventdao/internal/domain/transaction"
	redisinfra "github.com/yourextrem/eventdao/internal/infrastructure/redis"
	"github.com/yourextrem/eventdao/internal/pkg/logger"
	"github.com/yourextrem/eventdao/internal/pkg/metrics"
)

// 購入ロックの設定
const (
	purchaseLockTTL        = 10 * time.Second
	purchaseLockRetries    = 3
	purchaseLockRetryDelay = 100 * time.Millisecond
)

// TicketService はチケットの購入と使用を扱う
type TicketService struct {
	txManager   transaction.Manager
	eventRepo   event.Repository
	ticketRepo  ticket.Repository
	outboxRepo  outbox.Repository
	lockManager redisinfra.LockManagerInterface // nil ならDBの行ロックのみ
	cache       redisinfra.EventCacheInterface  // nil ならキャッシュしない
}

// NewTicketService は TicketService を作成する
func NewTicketService(
	txManager transaction.Manager,
	eventRepo event.Repository,
	ticketRepo ticket.Repository,
	outboxRepo outbox.Repository,
	lockManager redisinfra.LockManagerInterface,
	cache redisinfra.EventCacheInterface,
) *TicketService {
	return &TicketService{
		txManager:   txManager,
		eventRepo:   eventRepo,
		ticketRepo:  ticketRepo,
		outboxRepo:  outboxRepo,
		lockManager: lockManager,
		cache:       cache,
	}
}

// BuyTicketInput はチケット購入の入力
type BuyTicketInput struct {
	EventID uint32
	Buyer   string
}

// UseTicketInput はチケット使用の入力
type UseTicketInput struct {
	Caller string
	Ticket address.Address
}

func purchaseLockKey(eventID uint32) string {
	return "event:" + strconv.FormatUint(uint64(eventID), 10)
}

// BuyTicket はイベントのチケットを1枚購入する
// 判定順: イベントの存在 → 重複購入 → 受付中か → 残り枠
func (s *TicketService) BuyTicket(ctx context.Context, input BuyTicketInput) (tk *ticket.Ticket, err error) {
	defer func() { observe(opBuyTicket, err) }()

	tk = ticket.NewTicket(input.EventID, input.Buyer)
	if err := tk.Validate(); err != nil {
		return nil, err
	}

	if s.lockManager != nil {
		lock, lockErr := s.lockManager.AcquireLockWithRetry(ctx, purchaseLockKey(input.EventID),
			purchaseLockTTL, purchaseLockRetries, purchaseLockRetryDelay)
		switch {
		case lockErr == nil:
			defer func() {
				if err := lock.Release(ctx); err != nil {
					logger.Warn("ロック解放に失敗", logger.EventID(input.EventID), zap.Error(err))
				}
			}()
		case errors.Is(lockErr, redisinfra.ErrLockNotAcquired):
			return nil, ErrEventBusy
		default:
			// Redis 障害時はDBの行ロックだけで続行する
			logger.Warn("ロック取得に失敗、行ロックのみで続行", logger.EventID(input.EventID), zap.Error(lockErr))
		}
	}

	var ev *event.Event
	err = transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		e, err := s.eventRepo.GetForUpdate(ctx, tx, input.EventID)
		if err != nil {
			return err
		}

		exists, err := s.ticketRepo.Exists(ctx, tx, tk.Address)
		if err != nil {
			return err
		}
		if exists {
			return ticket.ErrDuplicateTicket
		}

		if err := e.Admit(); err != nil {
			return err
		}
		if err := s.ticketRepo.Create(ctx, tx, tk); err != nil {
			return err
		}
		if err := s.eventRepo.UpdateParticipants(ctx, tx, e); err != nil {
			return err
		}
		if e.TicketPrice > 0 {
			if err := s.ticketRepo.RecordPayment(ctx, tx, ticket.NewPayment(tk, e.Organizer, e.TicketPrice)); err != nil {
				return err
			}
		}
		ev = e
		return appendOutbox(ctx, s.outboxRepo, tx, func() (*outbox.Message, error) {
			return ticketPurchased(tk, e)
		})
	})
	if err != nil {
		return nil, err
	}

	s.invalidateAvailability(ctx, input.EventID)
	metrics.Get().ObserveTicketSold()

	logger.Info("チケットを購入しました",
		logger.EventID(ev.ID),
		logger.Account("ticket", tk.Address),
		logger.Identity("buyer", tk.Owner),
		zap.Uint64("amount", ev.TicketPrice),
		zap.Uint32("current_participants", ev.CurrentParticipants),
	)
	return tk, nil
}

// UseTicket はチケットを使用済みにする
// 判定順: チケットの存在 → 所有者 → 未使用
func (s *TicketService) UseTicket(ctx context.Context, input UseTicketInput) (tk *ticket.Ticket, err error) {
	defer func() { observe(opUseTicket, err) }()

	caller := strings.TrimSpace(input.Caller)
	if caller == "" {
		return nil, ErrIdentityRequired
	}

	err = transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		t, err := s.ticketRepo.GetForUpdate(ctx, tx, input.Ticket)
		if err != nil {
			return err
		}
		if err := t.Use(caller); err != nil {
			return err
		}
		if err := s.ticketRepo.MarkUsed(ctx, tx, t); err != nil {
			return err
		}
		tk = t
		return appendOutbox(ctx, s.outboxRepo, tx, func() (*outbox.Message, error) {
			return ticketUsed(t)
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info("チケットを使用しました",
		logger.EventID(tk.EventID),
		logger.Account("ticket", tk.Address),
		logger.Identity("owner", tk.Owner),
	)
	return tk, nil
}

// GetTicket はアドレスでチケットを取得する
func (s *TicketService) GetTicket(ctx context.Context, addr address.Address) (*ticket.Ticket, error) {
	return s.ticketRepo.GetByAddress(ctx, addr)
}

// FindTicket はイベントIDと所有者からチケットを取得する
func (s *TicketService) FindTicket(ctx context.Context, eventID uint32, owner string) (*ticket.Ticket, error) {
	return s.ticketRepo.GetByAddress(ctx, address.Ticket(eventID, strings.TrimSpace(owner)))
}

// ListTicketsByOwner は所有者のチケット一覧を取得する
func (s *TicketService) ListTicketsByOwner(ctx context.Context, owner string, limit, offset int) ([]*ticket.Ticket, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return nil, ErrIdentityRequired
	}
	limit, offset = normalizePage(limit, offset)
	return s.ticketRepo.ListByOwner(ctx, owner, limit, offset)
}

// ListTicketsByEvent はイベントのチケット一覧を取得する
func (s *TicketService) ListTicketsByEvent(ctx context.Context, eventID uint32, limit, offset int) ([]*ticket.Ticket, error) {
	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	limit, offset = normalizePage(limit, offset)
	return s.ticketRepo.ListByEvent(ctx, eventID, limit, offset)
}

// CountTicketsByEvent はイベントの発行済みチケット枚数を返す
func (s *TicketService) CountTicketsByEvent(ctx context.Context, eventID uint32) (int, error) {
	return s.ticketRepo.CountByEvent(ctx, eventID)
}

func (s *TicketService) invalidateAvailability(ctx context.Context, eventID uint32) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, eventID); err != nil {
		logger.Warn("残り枠キャッシュの削除に失敗", logger.EventID(eventID), zap.Error(err))
	}
}
