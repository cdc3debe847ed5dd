package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/twmb/franz-go/pkg/kgo"

	"pixeltrack/api/models"
)

// Producer is the part of *kgo.Client the publisher needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// KafkaPublisher forwards tracked events to a Kafka topic, keyed by pixel id
// so one pixel's events stay ordered within a partition.
type KafkaPublisher struct {
	client Producer
	topic  string
}

func NewKafkaClient(brokers []string) (*kgo.Client, error) {
	cl, err := kgo.NewClient(kgo.SeedBrokers(brokers...))
	if err != nil {
		return nil, fmt.Errorf("unable to create kafka client: %w", err)
	}
	return cl, nil
}

func NewKafkaPublisher(client Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{client: client, topic: topic}
}

func (p *KafkaPublisher) Name() string { return "kafka" }

func (p *KafkaPublisher) Deliver(ctx context.Context, event models.PixelEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("kafka publish: marshal error: %w", err)
	}

	record := &kgo.Record{
		Topic:     p.topic,
		Key:       []byte(event.PixelID),
		Value:     data,
		Timestamp: event.Timestamp,
		Headers: []kgo.RecordHeader{
			{Key: "event_name", Value: []byte(event.EventName)},
		},
	}

	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("kafka publish error: %w", err)
	}
	log.Printf("Published %s for pixel %s to topic %s", event.EventName, event.PixelID, p.topic)
	return nil
}
