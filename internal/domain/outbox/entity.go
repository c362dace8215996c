package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status は送信状態
type Status string

const (
	StatusPending   Status = "pending"
	StatusPublished Status = "published"
	StatusFailed    Status = "failed"
)

// DefaultMaxRetries は送信失敗時の最大リトライ回数
const DefaultMaxRetries = 5

// 集約の種類
const (
	AggregateRegistry = "registry"
	AggregateEvent    = "event"
	AggregateTicket   = "ticket"
)

// イベント種別
const (
	TypeRegistryInitialized = "registry.initialized"
	TypeEventCreated        = "event.created"
	TypeTicketPurchased     = "ticket.purchased"
	TypeTicketUsed          = "ticket.used"
)

// Message は状態変更と同じトランザクションで書き込まれるドメインイベント
type Message struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Topic         string // 空ならパブリッシャーの既定トピック
	PartitionKey  string
	Payload       []byte
	Status        Status
	RetryCount    int
	MaxRetries    int
	LastError     string
	CreatedAt     time.Time
	PublishedAt   *time.Time
}

// NewMessage は payload を JSON にして新しいメッセージを作成する
func NewMessage(aggregateType, aggregateID, eventType string, payload any) (*Message, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("ペイロードのエンコードに失敗: %w", err)
	}
	return &Message{
		ID:            uuid.New().String(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		PartitionKey:  aggregateID,
		Payload:       b,
		Status:        StatusPending,
		MaxRetries:    DefaultMaxRetries,
		CreatedAt:     time.Now(),
	}, nil
}

// CanRetry は再送可能かを返す
func (m *Message) CanRetry() bool {
	return m.Status == StatusFailed && m.RetryCount < m.MaxRetries
}

// Deliverable は送信対象かを返す
func (m *Message) Deliverable() bool {
	return m.Status == StatusPending || m.CanRetry()
}

// MarkPublished は送信済みにする
func (m *Message) MarkPublished() {
	now := time.Now()
	m.Status = StatusPublished
	m.PublishedAt = &now
	m.LastError = ""
}

// MarkFailed は送信失敗を記録する
func (m *Message) MarkFailed(reason string) {
	m.Status = StatusFailed
	m.RetryCount++
	m.LastError = reason
}

// Decode はペイロードを v に展開する
func (m *Message) Decode(v any) error {
	return json.Unmarshal(m.Payload, v)
}
