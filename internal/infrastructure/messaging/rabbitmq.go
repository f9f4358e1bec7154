// Package messaging publishes committed domain events to RabbitMQ so the
// notification collaborator can fan them out.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sangkips/tabsettle-api/internal/domain/event"
)

// Publisher writes events to a durable fanout exchange
type Publisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string

	// amqp channels are not safe for concurrent publishing
	mu sync.Mutex
}

// Dial connects to the broker and declares the exchange
func Dial(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("messaging: dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("messaging: open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange, // name
		"fanout", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("messaging: declare exchange %s: %w", exchange, err)
	}

	log.Printf("[messaging] connected, publishing to exchange %s", exchange)
	return &Publisher{conn: conn, ch: ch, exchange: exchange}, nil
}

// Publish implements event.Publisher
func (p *Publisher) Publish(ctx context.Context, evt event.Event) error {
	msg, err := newPublishing(evt)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(ctx, p.exchange, string(evt.Type), false, false, msg)
}

// Close releases the channel and connection
func (p *Publisher) Close() {
	if p == nil {
		return
	}
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

func newPublishing(evt event.Event) (amqp.Publishing, error) {
	body, err := json.Marshal(evt)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("messaging: encode %s: %w", evt.Type, err)
	}
	return amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		MessageId:    evt.ID.String(),
		Type:         string(evt.Type),
		Timestamp:    evt.OccurredAt.UTC(),
		Headers:      amqp.Table{"tenant_id": evt.TenantID.String()},
		Body:         body,
	}, nil
}
