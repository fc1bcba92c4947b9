package messaging

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/yeremiapane/table-order/utils"
)

const publishTimeout = 10 * time.Second

// channel is the subset of *amqp091.Channel the publisher needs.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	IsClosed() bool
	Close() error
}

// Publisher mirrors realtime events onto a RabbitMQ fanout exchange so other
// services (kitchen displays, printers) can follow order activity.
type Publisher struct {
	mu       sync.Mutex
	url      string
	exchange string
	conn     *amqp091.Connection
	ch       channel
}

// Dial connects to RabbitMQ and declares the exchange, retrying a few times.
func Dial(url, exchange string) (*Publisher, error) {
	p := &Publisher{url: url, exchange: exchange}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

func newPublisher(ch channel, exchange string) (*Publisher, error) {
	p := &Publisher{exchange: exchange, ch: ch}
	if err := p.declare(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Publisher) connect() error {
	const maxRetries = 5
	var err error

	for i := 0; i < maxRetries; i++ {
		var conn *amqp091.Connection
		conn, err = amqp091.Dial(p.url)
		if err == nil {
			var ch *amqp091.Channel
			ch, err = conn.Channel()
			if err == nil {
				p.conn, p.ch = conn, ch
				if err = p.declare(); err == nil {
					return nil
				}
				ch.Close()
			}
			conn.Close()
		}

		if i < maxRetries-1 {
			wait := time.Duration(i+1) * 2 * time.Second
			utils.ErrorLogger.Warnf("messaging: failed to connect to RabbitMQ, retrying in %v: %v", wait, err)
			time.Sleep(wait)
		}
	}
	return fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", maxRetries, err)
}

func (p *Publisher) declare() error {
	err := p.ch.ExchangeDeclare(
		p.exchange, // name
		"fanout",   // type
		true,       // durable
		false,      // auto-deleted
		false,      // internal
		false,      // no-wait
		nil,        // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare %s exchange: %w", p.exchange, err)
	}
	return nil
}

// Publish sends one already-encoded event. The event name travels as the routing key.
func (p *Publisher) Publish(ctx context.Context, event string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch.IsClosed() {
		if p.url == "" {
			return fmt.Errorf("channel closed")
		}
		if err := p.connect(); err != nil {
			return fmt.Errorf("failed to reconnect: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err := p.ch.PublishWithContext(ctx, p.exchange, event, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp091.Transient,
		Timestamp:    time.Now(),
		Type:         event,
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", event, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil && !p.ch.IsClosed() {
		p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
