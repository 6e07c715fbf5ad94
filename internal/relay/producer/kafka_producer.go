package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/casinolabs/casino-bet-relay/pkg/contracts/events"
)

// KafkaPublisher publica os eventos do ciclo de vida da aposta. Mensagens
// são chaveadas pelo hash da transação pra manter a ordem por aposta.
type KafkaPublisher struct {
	Placed    *kafka.Writer
	Confirmed *kafka.Writer
}

func NewKafkaPublisher(placed, confirmed *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{Placed: placed, Confirmed: confirmed}
}

func (p *KafkaPublisher) PublishBetPlaced(ctx context.Context, e events.BetPlaced) error {
	e.TsUnixMs = time.Now().UnixMilli()
	b, _ := json.Marshal(e)
	return p.Placed.WriteMessages(ctx, kafka.Message{Key: []byte(e.TxHash), Value: b})
}

func (p *KafkaPublisher) PublishBetConfirmed(ctx context.Context, e events.BetConfirmed) error {
	e.Ts = time.Now()
	b, _ := json.Marshal(e)
	return p.Confirmed.WriteMessages(ctx, kafka.Message{Key: []byte(e.TxHash), Value: b})
}
