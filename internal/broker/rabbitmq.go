package broker

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

var ErrNack = errors.New("publish NACK from broker")

type confirmation interface {
	WaitContext(context.Context) (bool, error)
}

type channel interface {
	publish(ctx context.Context, exchange, routingKey string, msg amqp.Publishing) (confirmation, error)
	close() error
}

type amqpChannel struct {
	ch *amqp.Channel
}

func (c amqpChannel) publish(ctx context.Context, exchange, routingKey string, msg amqp.Publishing) (confirmation, error) {
	return c.ch.PublishWithDeferredConfirmWithContext(ctx, exchange, routingKey, false, false, msg)
}

func (c amqpChannel) close() error {
	return c.ch.Close()
}

// Publisher sends order events to a topic exchange with publisher confirms.
// Every message waits on its own confirmation, so concurrent publishes never
// see each other's acks.
type Publisher struct {
	conn     *amqp.Connection
	ch       channel
	exchange string
}

func Dial(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("error dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("error open amqp channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("error declare exchange %s: %w", exchange, err)
	}

	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("error enable publisher confirms: %w", err)
	}

	return &Publisher{
		conn:     conn,
		ch:       amqpChannel{ch: ch},
		exchange: exchange,
	}, nil
}

// Publish blocks until the broker confirms the message or ctx is done.
func (p *Publisher) Publish(ctx context.Context, routingKey string, body []byte) error {
	if p.ch == nil || p.conn != nil && p.conn.IsClosed() {
		return errors.New("amqp connection is closed")
	}

	confirm, err := p.ch.publish(ctx, p.exchange, routingKey, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return err
	}

	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return err
	}

	if !acked {
		return ErrNack
	}

	return nil
}

func (p *Publisher) Close() {
	if p.ch != nil {
		_ = p.ch.close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}
