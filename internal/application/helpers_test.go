package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yourextrem/eventdao/internal/infrastructure/memory"
	redisinfra "github.com/yourextrem/eventdao/internal/infrastructure/redis"
)

type testServices struct {
	store    *memory.Store
	outbox   *memory.OutboxRepository
	registry *RegistryService
	events   *EventService
	tickets  *TicketService
}

func newTestServices(t testing.TB, lockManager redisinfra.LockManagerInterface, cache redisinfra.EventCacheInterface) *testServices {
	t.Helper()
	store := memory.NewStore()
	registryRepo := memory.NewRegistryRepository(store)
	eventRepo := memory.NewEventRepository(store)
	ticketRepo := memory.NewTicketRepository(store)
	outboxRepo := memory.NewOutboxRepository(store)

	return &testServices{
		store:    store,
		outbox:   outboxRepo,
		registry: NewRegistryService(store, registryRepo, outboxRepo),
		events:   NewEventService(store, registryRepo, eventRepo, outboxRepo, cache),
		tickets:  NewTicketService(store, eventRepo, ticketRepo, outboxRepo, lockManager, cache),
	}
}

// 初期化済みのレジストリと1件のイベントを用意する
func (s *testServices) seedEvent(t *testing.T, maxParticipants uint32, price uint64) uint32 {
	t.Helper()
	ctx := context.Background()
	if _, err := s.registry.GetRegistry(ctx); err != nil {
		_, err := s.registry.InitializeRegistry(ctx, "authority")
		require.NoError(t, err)
	}
	e, err := s.events.CreateEvent(ctx, CreateEventInput{
		Organizer:       "organizer",
		Title:           "Go Conference",
		Description:     "desc",
		MaxParticipants: maxParticipants,
		TicketPrice:     price,
	})
	require.NoError(t, err)
	return e.ID
}

func (s *testServices) outboxTypes(t *testing.T) []string {
	t.Helper()
	msgs, err := s.outbox.GetDeliverable(context.Background(), 1000)
	require.NoError(t, err)
	types := make([]string, 0, len(msgs))
	for _, m := range msgs {
		types = append(types, m.EventType)
	}
	return types
}

// fakeLock は取得回数を記録するロック
type fakeLock struct {
	released bool
}

func (l *fakeLock) Release(ctx context.Context) error {
	l.released = true
	return nil
}

func (l *fakeLock) Extend(ctx context.Context, ttl time.Duration) error { return nil }

type fakeLockManager struct {
	mu    sync.Mutex
	err   error
	keys  []string
	locks []*fakeLock
}

func (m *fakeLockManager) AcquireLockWithRetry(ctx context.Context, key string, ttl time.Duration, maxRetries int, retryDelay time.Duration) (redisinfra.Lock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys = append(m.keys, key)
	if m.err != nil {
		return nil, m.err
	}
	l := &fakeLock{}
	m.locks = append(m.locks, l)
	return l, nil
}

type fakeCache struct {
	mu          sync.Mutex
	values      map[uint32]uint32
	versions    map[uint32]int64
	gets        int
	invalidated []uint32
	// beforeSet は SetRemaining の直前に呼ばれる
	beforeSet func()
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: make(map[uint32]uint32), versions: make(map[uint32]int64)}
}

func (c *fakeCache) GetRemaining(ctx context.Context, eventID uint32) (uint32, int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	v, ok := c.values[eventID]
	if !ok {
		return 0, c.versions[eventID], redisinfra.ErrCacheMiss
	}
	return v, c.versions[eventID], nil
}

func (c *fakeCache) SetRemaining(ctx context.Context, eventID uint32, remaining uint32, version int64, ttl time.Duration) error {
	if c.beforeSet != nil {
		hook := c.beforeSet
		c.beforeSet = nil
		hook()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.versions[eventID] != version {
		return redisinfra.ErrCacheConflict
	}
	c.values[eventID] = remaining
	return nil
}

func (c *fakeCache) Invalidate(ctx context.Context, eventID uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.versions[eventID]++
	delete(c.values, eventID)
	c.invalidated = append(c.invalidated, eventID)
	return nil
}
