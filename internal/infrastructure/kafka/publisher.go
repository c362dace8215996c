package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/yourextrem/eventdao/internal/config"
	"github.com/yourextrem/eventdao/internal/domain/outbox"
)

// ErrNoBrokers はブローカー未設定のエラー
var ErrNoBrokers = errors.New("kafka: no brokers configured")

// メッセージヘッダー
const (
	HeaderEventType     = "event_type"
	HeaderMessageID     = "message_id"
	HeaderAggregateType = "aggregate_type"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher はアウトボックスのメッセージを Kafka に書き込む
type Publisher struct {
	writer       messageWriter
	defaultTopic string
}

// NewPublisher は Hash パーティショナーを使う Publisher を作成する
// 同じ集約のメッセージは同じパーティションに入り順序が保たれる
func NewPublisher(cfg config.KafkaConfig) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrNoBrokers
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
	}
	return newPublisher(writer, cfg.Topic), nil
}

func newPublisher(w messageWriter, defaultTopic string) *Publisher {
	return &Publisher{writer: w, defaultTopic: defaultTopic}
}

// Publish はメッセージを1件送信する
func (p *Publisher) Publish(ctx context.Context, m *outbox.Message) error {
	if err := p.writer.WriteMessages(ctx, p.toKafkaMessage(m)); err != nil {
		return fmt.Errorf("Kafka送信に失敗 (%s): %w", m.EventType, err)
	}
	return nil
}

func (p *Publisher) toKafkaMessage(m *outbox.Message) kafka.Message {
	topic := m.Topic
	if topic == "" {
		topic = p.defaultTopic
	}
	return kafka.Message{
		Topic: topic,
		Key:   []byte(m.PartitionKey),
		Value: m.Payload,
		Time:  m.CreatedAt,
		Headers: []kafka.Header{
			{Key: HeaderEventType, Value: []byte(m.EventType)},
			{Key: HeaderMessageID, Value: []byte(m.ID)},
			{Key: HeaderAggregateType, Value: []byte(m.AggregateType)},
		},
	}
}

// Close は Writer を閉じる
func (p *Publisher) Close() error {
	return p.writer.Close()
}
