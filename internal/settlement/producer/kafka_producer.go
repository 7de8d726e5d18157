package producer

import (
	"context"
	"encoding/json"
	"time"

	sharedkafka "github.com/radieske/wager-settlement-poc/internal/shared/kafka"
	"github.com/radieske/wager-settlement-poc/pkg/contracts/events"
)

type KafkaPublisher struct {
	Writer *sharedkafka.Writer
}

func NewKafkaPublisher(w *sharedkafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{Writer: w}
}

func (p *KafkaPublisher) PublishWagerSettled(ctx context.Context, e events.WagerSettled) error {
	e.TsUnixMs = time.Now().UnixMilli()
	b, _ := json.Marshal(e)
	return sharedkafka.WriteJSON(ctx, p.Writer, e.WagerID, b)
}
