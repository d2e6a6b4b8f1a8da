package sink

import (
	"context"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/poiesic/newsdigest/pipeline"
)

// KafkaSink publishes each payload as one message keyed by run id.
type KafkaSink struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaProducer connects a synchronous producer that waits for all
// in-sync replicas.
func NewKafkaProducer(brokers []string) (sarama.SyncProducer, error) {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V3_6_0_0
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Return.Successes = true
	cfg.Producer.Retry.Max = 3

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting kafka producer: %w", err)
	}
	return producer, nil
}

// NewKafkaSink creates a sink over an existing producer.
// The sink owns the producer and closes it in Close.
func NewKafkaSink(producer sarama.SyncProducer, topic string) *KafkaSink {
	return &KafkaSink{producer: producer, topic: topic}
}

// Name identifies the sink.
func (s *KafkaSink) Name() string { return "kafka" }

// Deliver sends the payload and waits for the broker acknowledgement.
func (s *KafkaSink) Deliver(ctx context.Context, payload *pipeline.Payload) error {
	data, err := Encode(payload)
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.StringEncoder(payload.Meta.RunID),
		Value: sarama.ByteEncoder(data),
		Headers: []sarama.RecordHeader{
			{Key: []byte("payload_version"), Value: []byte(payload.Meta.Version)},
		},
	}
	if _, _, err := s.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("sending payload to %s: %w", s.topic, err)
	}
	return nil
}

// Close closes the producer.
func (s *KafkaSink) Close() error {
	return s.producer.Close()
}
