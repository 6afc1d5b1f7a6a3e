package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

type Publisher interface {
	Publish(ctx context.Context, a Activity) error
	Close() error
}

// SequenceFunc hands out the next sequence number for a partition key.
type SequenceFunc func(ctx context.Context, partitionKey string) (int64, error)

type channel interface {
	exchangeDeclarer
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type RabbitPublisher struct {
	ch   channel
	next SequenceFunc
	now  func() time.Time
}

func NewRabbitPublisher(conn *amqp.Connection, next SequenceFunc) (*RabbitPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	p, err := newRabbitPublisher(ch, next)
	if err != nil {
		_ = ch.Close()
		return nil, err
	}
	return p, nil
}

func newRabbitPublisher(ch channel, next SequenceFunc) (*RabbitPublisher, error) {
	if err := declareEventsExchange(ch); err != nil {
		return nil, fmt.Errorf("declare events exchange: %w", err)
	}
	return &RabbitPublisher{ch: ch, next: next, now: time.Now}, nil
}

func (p *RabbitPublisher) Close() error {
	return p.ch.Close()
}

func (p *RabbitPublisher) Publish(ctx context.Context, a Activity) error {
	routingKey, err := a.Kind.routingKey()
	if err != nil {
		return err
	}
	if a.ViewerID == "" {
		return fmt.Errorf("publish %s: viewer id is required", a.Kind)
	}

	seq, err := p.next(ctx, a.ViewerID)
	if err != nil {
		return fmt.Errorf("reserve sequence: %w", err)
	}

	env := newActivityEvent(a, seq, p.now().UTC())
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal %s envelope: %w", a.Kind, err)
	}
	return p.publishJSON(ctx, routingKey, body)
}

func (p *RabbitPublisher) publishJSON(ctx context.Context, routingKey string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		EventsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// Nop drops every activity. It is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Activity) error { return nil }
func (Nop) Close() error                            { return nil }
