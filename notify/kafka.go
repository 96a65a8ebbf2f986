package notify

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/TARS911/dongfeng-minitraktor-sub001/config"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSender publishes events as JSON, keyed by event type.
type KafkaSender struct {
	writer messageWriter
}

func NewKafkaSender(cfg config.KafkaConfig) *KafkaSender {
	return &KafkaSender{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  cfg.Topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
	}
}

func (k *KafkaSender) Name() string { return "kafka" }

func (k *KafkaSender) Send(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.Type),
		Value: data,
		Time:  e.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event-id", Value: []byte(e.Id)},
			{Key: "event-type", Value: []byte(e.Type)},
		},
	})
}

func (k *KafkaSender) Close() error {
	return k.writer.Close()
}
