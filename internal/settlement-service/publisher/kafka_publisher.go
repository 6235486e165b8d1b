package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/radieske/spin-wheel-settlement/internal/settlement"
	skafka "github.com/radieske/spin-wheel-settlement/internal/shared/kafka"
)

// KafkaPublisher publica os eventos de liquidação para o histórico e analytics
// Depois de Retries falhas o evento vai para a DLQ, se houver
type KafkaPublisher struct {
	Writer  skafka.MessageWriter
	DLQ     skafka.MessageWriter
	Retries int
	Backoff time.Duration
}

func NewKafkaPublisher(w, dlq skafka.MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{Writer: w, DLQ: dlq, Retries: 3, Backoff: 300 * time.Millisecond}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev settlement.Event) error {
	b, err := json.Marshal(ToEvent(ev))
	if err != nil {
		return err
	}
	key := eventKey(ev)
	err = skafka.WriteJSON(ctx, p.Writer, key, b)
	for i := 0; err != nil && i < p.Retries; i++ {
		select {
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		case <-time.After(time.Duration(i+1) * p.Backoff):
		}
		err = skafka.WriteJSON(ctx, p.Writer, key, b)
	}
	if err != nil && p.DLQ != nil {
		if dlqErr := skafka.WriteJSON(ctx, p.DLQ, key, b); dlqErr != nil {
			return errors.Join(err, dlqErr)
		}
	}
	return err
}

func (p *KafkaPublisher) Close() error {
	err := p.Writer.Close()
	if p.DLQ != nil {
		err = errors.Join(err, p.DLQ.Close())
	}
	return err
}
