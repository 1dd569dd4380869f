package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/invoicescan/account-service/internal/ports"
)

// KafkaMailPublisher hands mail intents to the mail-sender service over
// Kafka. Messages are keyed by account id so intents for one account stay
// ordered on a partition.
type KafkaMailPublisher struct {
	writer      *kafka.Writer
	topicByKind map[string]string
}

func NewKafkaMailPublisher(brokers []string, topicByKind map[string]string) (*KafkaMailPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka mail publisher requires at least one broker")
	}
	return &KafkaMailPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			RequiredAcks: kafka.RequireAll,
			Balancer:     &kafka.Hash{},
		},
		topicByKind: topicByKind,
	}, nil
}

func (p *KafkaMailPublisher) Publish(ctx context.Context, intent ports.MailIntent) error {
	topic, ok := p.topicByKind[intent.Kind]
	if !ok || topic == "" {
		return fmt.Errorf("no topic configured for mail kind %q", intent.Kind)
	}

	payload, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("marshal mail intent: %w", err)
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(intent.AccountID.String()),
		Value: payload,
		Time:  time.Now().UTC(),
	})
}

func (p *KafkaMailPublisher) Close() error {
	return p.writer.Close()
}
