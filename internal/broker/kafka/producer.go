package kafka

import (
	"context"

	"resize-orchestrator/internal/config"

	wbkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"
)

type ProducerClient struct {
	producer *wbkafka.Producer
	retries  retry.Strategy
}

func NewProducerClient(cfg *config.Config) *ProducerClient {
	return &ProducerClient{
		producer: wbkafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic),
		retries:  cfg.DefaultRetryStrategy(),
	}
}

func (p *ProducerClient) Publish(ctx context.Context, key, value []byte) error {
	return p.producer.SendWithRetry(ctx, p.retries, key, value)
}

func (p *ProducerClient) Close() error {
	return p.producer.Close()
}
