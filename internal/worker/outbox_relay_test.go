package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourextrem/eventdao/internal/domain/outbox"
	"github.com/yourextrem/eventdao/internal/domain/transaction"
	"github.com/yourextrem/eventdao/internal/pkg/metrics"
)

// MockOutboxRepository は outbox.Repository のモック
type MockOutboxRepository struct {
	mock.Mock
}

func (m *MockOutboxRepository) Append(ctx context.Context, tx transaction.Tx, msg *outbox.Message) error {
	return m.Called(ctx, tx, msg).Error(0)
}

func (m *MockOutboxRepository) GetDeliverable(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockOutboxRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	return m.Called(ctx, id, reason).Error(0)
}

// MockPublisher は Publisher のモック
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, msg *outbox.Message) error {
	return m.Called(ctx, msg).Error(0)
}

func newMessage(t *testing.T, id string) *outbox.Message {
	t.Helper()
	m, err := outbox.NewMessage(outbox.AggregateEvent, id, outbox.TypeEventCreated, map[string]string{"id": id})
	require.NoError(t, err)
	m.ID = id
	return m
}

func TestNewOutboxRelay(t *testing.T) {
	r := NewOutboxRelay(new(MockOutboxRepository), new(MockPublisher), nil, time.Second, 0)

	assert.Equal(t, time.Second, r.interval)
	assert.Equal(t, 100, r.batchSize)
	assert.NotNil(t, r.stopCh)
	assert.NotNil(t, r.doneCh)
}

func TestOutboxRelay_RelayOnce(t *testing.T) {
	t.Run("全件送信できる", func(t *testing.T) {
		repo := new(MockOutboxRepository)
		pub := new(MockPublisher)
		m := metrics.NewWithRegistry(prometheus.NewRegistry())
		msgs := []*outbox.Message{newMessage(t, "a"), newMessage(t, "b")}

		repo.On("GetDeliverable", mock.Anything, 10).Return(msgs, nil)
		pub.On("Publish", mock.Anything, mock.Anything).Return(nil)
		repo.On("MarkPublished", mock.Anything, "a").Return(nil)
		repo.On("MarkPublished", mock.Anything, "b").Return(nil)

		r := NewOutboxRelay(repo, pub, m, time.Second, 10)
		n := r.RelayOnce(context.Background())

		assert.Equal(t, 2, n)
		assert.Equal(t, 2.0, testutil.ToFloat64(m.OutboxMessagesTotal.WithLabelValues("published")))
		repo.AssertExpectations(t)
		pub.AssertExpectations(t)
	})

	t.Run("送信失敗は記録して続行する", func(t *testing.T) {
		repo := new(MockOutboxRepository)
		pub := new(MockPublisher)
		a, b := newMessage(t, "a"), newMessage(t, "b")

		repo.On("GetDeliverable", mock.Anything, 10).Return([]*outbox.Message{a, b}, nil)
		pub.On("Publish", mock.Anything, a).Return(errors.New("broker down"))
		pub.On("Publish", mock.Anything, b).Return(nil)
		repo.On("MarkFailed", mock.Anything, "a", "broker down").Return(nil)
		repo.On("MarkPublished", mock.Anything, "b").Return(nil)

		r := NewOutboxRelay(repo, pub, nil, time.Second, 10)
		n := r.RelayOnce(context.Background())

		assert.Equal(t, 1, n)
		repo.AssertExpectations(t)
	})

	t.Run("取得エラー時は何もしない", func(t *testing.T) {
		repo := new(MockOutboxRepository)
		pub := new(MockPublisher)
		repo.On("GetDeliverable", mock.Anything, 10).Return(nil, errors.New("db error"))

		r := NewOutboxRelay(repo, pub, nil, time.Second, 10)

		assert.Equal(t, 0, r.RelayOnce(context.Background()))
		pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})
}

func TestOutboxRelay_StartStop(t *testing.T) {
	repo := new(MockOutboxRepository)
	pub := new(MockPublisher)
	repo.On("GetDeliverable", mock.Anything, 100).Return([]*outbox.Message{}, nil)

	r := NewOutboxRelay(repo, pub, nil, 10*time.Millisecond, 100)
	go r.Start(context.Background())

	time.Sleep(50 * time.Millisecond)
	r.Stop()
	// 二重停止してもパニックしない
	assert.NotPanics(t, r.Stop)

	repo.AssertCalled(t, "GetDeliverable", mock.Anything, 100)
}

func TestOutboxRelay_ContextCancel(t *testing.T) {
	repo := new(MockOutboxRepository)
	repo.On("GetDeliverable", mock.Anything, 100).Return([]*outbox.Message{}, nil)

	r := NewOutboxRelay(repo, new(MockPublisher), nil, time.Hour, 100)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		r.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("relay did not stop on context cancel")
	}
}

func TestLogPublisher(t *testing.T) {
	m := newMessage(t, "x")
	assert.NoError(t, LogPublisher{}.Publish(context.Background(), m))
}
