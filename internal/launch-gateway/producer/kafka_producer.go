package producer

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/radieske/game-gateway-poc/pkg/contracts/events"
)

// KafkaPublisher publica os eventos de auditoria do gateway.
// Um writer por tópico, como em todos os serviços.
type KafkaPublisher struct {
	SyncWriter   *kafka.Writer
	LaunchWriter *kafka.Writer
}

func NewKafkaPublisher(syncW, launchW *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{SyncWriter: syncW, LaunchWriter: launchW}
}

func (p *KafkaPublisher) PublishSyncCompleted(ctx context.Context, e events.VendorSyncCompleted) error {
	b, _ := json.Marshal(e)
	return p.SyncWriter.WriteMessages(ctx, kafka.Message{Key: []byte(e.UserID), Value: b})
}

func (p *KafkaPublisher) PublishGameLaunched(ctx context.Context, e events.GameLaunched) error {
	b, _ := json.Marshal(e)
	return p.LaunchWriter.WriteMessages(ctx, kafka.Message{Key: []byte(e.UserID), Value: b})
}
