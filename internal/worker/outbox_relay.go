package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourextrem/eventdao/internal/domain/outbox"
	"github.com/yourextrem/eventdao/internal/pkg/logger"
	"github.com/yourextrem/eventdao/internal/pkg/metrics"
)

// Publisher はアウトボックスのメッセージを外部へ送る
type Publisher interface {
	Publish(ctx context.Context, m *outbox.Message) error
}

// OutboxRelay は未送信のアウトボックスを定期的に送信するワーカー
type OutboxRelay struct {
	repo      outbox.Repository
	publisher Publisher
	metrics   *metrics.Metrics
	interval  time.Duration
	batchSize int
	stopCh    chan struct{}
	doneCh    chan struct{}
	stopOnce  sync.Once
}

// NewOutboxRelay は新しい中継ワーカーを作成する。m は nil でもよい
func NewOutboxRelay(repo outbox.Repository, publisher Publisher, m *metrics.Metrics, interval time.Duration, batchSize int) *OutboxRelay {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &OutboxRelay{
		repo:      repo,
		publisher: publisher,
		metrics:   m,
		interval:  interval,
		batchSize: batchSize,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start は中継を開始する。ctx のキャンセルか Stop まで戻らない
func (r *OutboxRelay) Start(ctx context.Context) {
	logger.Info("アウトボックス中継開始",
		zap.Duration("interval", r.interval),
		zap.Int("batch_size", r.batchSize),
	)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	defer close(r.doneCh)

	for {
		select {
		case <-ctx.Done():
			logger.Info("アウトボックス中継停止（コンテキストキャンセル）")
			return
		case <-r.stopCh:
			logger.Info("アウトボックス中継停止（シグナル受信）")
			return
		case <-ticker.C:
			r.RelayOnce(ctx)
		}
	}
}

// Stop は中継を停止し、ループの終了を待つ
func (r *OutboxRelay) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
	<-r.doneCh
}

// RelayOnce は1バッチ分を送信し、送信できた件数を返す
func (r *OutboxRelay) RelayOnce(ctx context.Context) int {
	log := logger.Get()

	msgs, err := r.repo.GetDeliverable(ctx, r.batchSize)
	if err != nil {
		log.Error("アウトボックス取得失敗", zap.Error(err))
		return 0
	}

	published := 0
	for _, m := range msgs {
		if ctx.Err() != nil {
			break
		}
		if err := r.publisher.Publish(ctx, m); err != nil {
			log.Warn("アウトボックス送信失敗",
				zap.String("message_id", m.ID),
				zap.String("event_type", m.EventType),
				zap.Int("attempt", m.RetryCount+1),
				zap.Error(err),
			)
			r.metrics.ObserveOutbox("failed")
			if markErr := r.repo.MarkFailed(ctx, m.ID, err.Error()); markErr != nil {
				log.Error("送信失敗の記録に失敗", zap.String("message_id", m.ID), zap.Error(markErr))
			}
			continue
		}

		r.metrics.ObserveOutbox("published")
		if err := r.repo.MarkPublished(ctx, m.ID); err != nil {
			log.Error("送信済みの記録に失敗", zap.String("message_id", m.ID), zap.Error(err))
			continue
		}
		published++
	}

	if published > 0 {
		log.Debug("アウトボックスを送信", zap.Int("count", published))
	}
	return published
}
