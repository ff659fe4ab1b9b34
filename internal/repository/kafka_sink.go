package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"FinEnrich/internal/domain/models"
	"FinEnrich/internal/domain/repository"
	pkgkafka "FinEnrich/pkg/kafka"
)

type batchPublisher interface {
	PublishBatch(ctx context.Context, messages []pkgkafka.Message) error
}

// KafkaSink publishes each record as JSON keyed by symbol.
type KafkaSink struct {
	producer batchPublisher
}

// NewKafkaSink creates a Kafka sink.
func NewKafkaSink(producer *pkgkafka.Producer) repository.Sink {
	return &KafkaSink{producer: producer}
}

func (s *KafkaSink) Name() string { return "kafka" }

func (s *KafkaSink) Write(ctx context.Context, records []models.EnrichedRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	msgs := make([]pkgkafka.Message, len(records))
	for i, r := range records {
		if r.News == nil {
			r.News = []models.NewsItem{}
		}
		b, err := json.Marshal(r)
		if err != nil {
			return 0, fmt.Errorf("marshal %s: %w", r.Symbol, err)
		}
		msgs[i] = pkgkafka.Message{Key: []byte(r.Symbol), Value: b}
	}

	if err := s.producer.PublishBatch(ctx, msgs); err != nil {
		return 0, err
	}
	return len(msgs), nil
}
