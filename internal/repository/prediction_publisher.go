package repository

import (
	"context"
	"strings"

	"StockSeq/internal/domain/models"
	domrepo "StockSeq/internal/domain/repository"
	pkgkafka "StockSeq/pkg/kafka"
)

// KafkaPredictionPublisher sends one JSON PredictionRecord per symbol, keyed by symbol.
type KafkaPredictionPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaPredictionPublisher(producer *pkgkafka.Producer, topic string) *KafkaPredictionPublisher {
	return &KafkaPredictionPublisher{producer: producer, topic: topic}
}

func (p *KafkaPredictionPublisher) Publish(ctx context.Context, preds []models.PredictionRecord) error {
	if len(preds) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(preds))
	for i, pr := range preds {
		msgs[i] = pkgkafka.Message{Key: []byte(strings.ToUpper(pr.Symbol)), Value: pr}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPredictionPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NopPublisher is used when publishing is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, []models.PredictionRecord) error { return nil }
func (NopPublisher) Close() error                                             { return nil }

var (
	_ domrepo.PredictionPublisher = (*KafkaPredictionPublisher)(nil)
	_ domrepo.PredictionPublisher = NopPublisher{}
)
