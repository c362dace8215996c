package application

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/yourextrem/eventdao/internal/domain/event"
	"github.com/yourextrem/eventdao/internal/domain/outbox"
	"github.com/yourextrem/eventdao/internal/domain/registry"
	"github.com/yourextrem/eventdao/internal/domain/transaction"
	redisinfra "github.com/yourextrem/eventdao/internal/infrastructure/redis"
	"github.com/yourextrem/eventdao/internal/pkg/logger"
)

// 残り枠キャッシュの有効期限
const availabilityCacheTTL = 30 * time.Second

// EventService はイベントの作成と参照を扱う
type EventService struct {
	txManager    transaction.Manager
	registryRepo registry.Repository
	eventRepo    event.Repository
	outboxRepo   outbox.Repository
	cache        redisinfra.EventCacheInterface // nil ならキャッシュしない
}

// NewEventService は EventService を作成する
func NewEventService(
	txManager transaction.Manager,
	registryRepo registry.Repository,
	eventRepo event.Repository,
	outboxRepo outbox.Repository,
	cache redisinfra.EventCacheInterface,
) *EventService {
	return &EventService{
		txManager:    txManager,
		registryRepo: registryRepo,
		eventRepo:    eventRepo,
		outboxRepo:   outboxRepo,
		cache:        cache,
	}
}

// CreateEventInput はイベント作成の入力
type CreateEventInput struct {
	Organizer       string
	Title           string
	Description     string
	MaxParticipants uint32
	TicketPrice     uint64
}

// CreateEvent はレジストリからIDを払い出してイベントを作成する
func (s *EventService) CreateEvent(ctx context.Context, input CreateEventInput) (e *event.Event, err error) {
	defer func() { observe(opCreateEvent, err) }()

	// IDは払い出し前なので仮の値で検証する
	if err := event.NewEvent(0, input.Organizer, input.Title, input.Description, input.MaxParticipants, input.TicketPrice).Validate(); err != nil {
		return nil, err
	}

	err = transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		reg, err := s.registryRepo.GetForUpdate(ctx, tx)
		if err != nil {
			return err
		}
		id, err := reg.AllocateEventID()
		if err != nil {
			return err
		}

		e = event.NewEvent(id, input.Organizer, input.Title, input.Description, input.MaxParticipants, input.TicketPrice)
		if err := s.eventRepo.Create(ctx, tx, e); err != nil {
			return err
		}
		if err := s.registryRepo.UpdateTotalEvents(ctx, tx, reg); err != nil {
			return err
		}
		return appendOutbox(ctx, s.outboxRepo, tx, func() (*outbox.Message, error) {
			return eventCreated(e)
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info("イベントを作成しました",
		logger.EventID(e.ID),
		logger.Account("event", e.Address),
		logger.Identity("organizer", e.Organizer),
		zap.Uint32("max_participants", e.MaxParticipants),
		zap.Uint64("ticket_price", e.TicketPrice),
	)
	return e, nil
}

// GetEvent はイベントを取得する
func (s *EventService) GetEvent(ctx context.Context, id uint32) (*event.Event, error) {
	return s.eventRepo.GetByID(ctx, id)
}

// ListEvents はイベント一覧をID順に取得する
func (s *EventService) ListEvents(ctx context.Context, limit, offset int) ([]*event.Event, error) {
	limit, offset = normalizePage(limit, offset)
	return s.eventRepo.List(ctx, limit, offset)
}

// GetAvailability は残り枠数を返す
// キャッシュがあればそれを使い、なければDBから取得してキャッシュする
func (s *EventService) GetAvailability(ctx context.Context, id uint32) (uint32, error) {
	// 読み込み前のバージョンで保存し、間に無効化があれば古い値を残さない
	var version int64
	cacheable := false
	if s.cache != nil {
		remaining, v, err := s.cache.GetRemaining(ctx, id)
		if err == nil {
			return remaining, nil
		}
		if errors.Is(err, redisinfra.ErrCacheMiss) {
			version, cacheable = v, true
		} else {
			logger.Warn("残り枠キャッシュの取得に失敗", logger.EventID(id), zap.Error(err))
		}
	}

	e, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	remaining := e.Remaining()

	if cacheable {
		err := s.cache.SetRemaining(ctx, id, remaining, version, availabilityCacheTTL)
		switch {
		case errors.Is(err, redisinfra.ErrCacheConflict):
			logger.Debug("残り枠が更新されたためキャッシュしない", logger.EventID(id))
		case err != nil:
			logger.Warn("残り枠キャッシュの保存に失敗", logger.EventID(id), zap.Error(err))
		}
	}
	return remaining, nil
}
