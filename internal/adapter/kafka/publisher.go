package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/YelzhanWeb/lunchmate/internal/adapter/logger"
	"github.com/YelzhanWeb/lunchmate/internal/config"
	"github.com/YelzhanWeb/lunchmate/internal/interfaces"
)

// Publisher writes order and menu-day events to one topic. Messages are keyed
// by aggregate id so all events of an order land in the same partition.
type Publisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   logger.Logger
}

// NewSyncProducer dials the brokers with acknowledged, synchronous sends.
func NewSyncProducer(cfg config.KafkaConfig) (sarama.SyncProducer, error) {
	sc := sarama.NewConfig()
	sc.Producer.Return.Successes = true
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Timeout = 5 * time.Second

	prod, err := sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to kafka: %w", err)
	}
	return prod, nil
}

func NewPublisher(producer sarama.SyncProducer, topic string, logger logger.Logger) *Publisher {
	return &Publisher{
		producer: producer,
		topic:    topic,
		logger:   logger,
	}
}

func (p *Publisher) PublishStatusUpdate(ctx context.Context, msg interfaces.StatusUpdateMessage) error {
	return p.send(ctx, msg.OrderID, msg.Event, msg)
}

func (p *Publisher) PublishMenuDay(ctx context.Context, msg interfaces.MenuDayMessage) error {
	return p.send(ctx, msg.MenuDayID, msg.Event, msg)
}

func (p *Publisher) Close() error {
	return p.producer.Close()
}

func (p *Publisher) send(ctx context.Context, key, event string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(body),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event"), Value: []byte(event)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send message to topic %s: %w", p.topic, err)
	}

	p.logger.Debug("kafka_message_sent", "Event stored", logger.RequestID(ctx), map[string]interface{}{
		"topic":     p.topic,
		"partition": partition,
		"offset":    offset,
		"event":     event,
	})
	return nil
}
