package repository

import (
	"context"

	"ChartFeed/internal/domain/models"
	domrepo "ChartFeed/internal/domain/repository"
	pkgkafka "ChartFeed/pkg/kafka"
)

// KafkaPublisher implements Publisher for Kafka.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates a Kafka publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) domrepo.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, u *models.LiveUpdate) error {
	return p.producer.Publish(ctx, p.topic, []byte(u.Symbol), updatePayload(u))
}

func (p *KafkaPublisher) PublishBatch(ctx context.Context, updates []*models.LiveUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(updates))
	for i, u := range updates {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(u.Symbol),
			Value: updatePayload(u),
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

func updatePayload(u *models.LiveUpdate) map[string]interface{} {
	return map[string]interface{}{
		"symbol": u.Symbol,
		"t":      u.Candle.Time,
		"o":      u.Candle.Open,
		"h":      u.Candle.High,
		"l":      u.Candle.Low,
		"c":      u.Candle.Close,
		"v":      u.Candle.Volume,
	}
}
