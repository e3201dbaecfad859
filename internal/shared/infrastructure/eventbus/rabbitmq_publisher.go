package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ExchangeName is the topic exchange planning events are published to.
const ExchangeName = "eventline.planning.events"

// ErrNacked is returned when the broker refuses a published message.
var ErrNacked = errors.New("rabbitmq: message nacked by broker")

// RabbitMQPublisher publishes to a durable topic exchange on a confirm-mode
// channel, so Publish returns only once the broker has taken the message.
type RabbitMQPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   *slog.Logger
}

// NewRabbitMQPublisher dials url and declares ExchangeName.
func NewRabbitMQPublisher(url string, logger *slog.Logger) (*RabbitMQPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}

	p := &RabbitMQPublisher{conn: conn, exchange: ExchangeName, logger: logger}
	if err := p.openChannel(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	logger.Info("rabbitmq publisher connected", "exchange", p.exchange)
	return p, nil
}

// openChannel must be called with mu held or before p is shared.
func (p *RabbitMQPublisher) openChannel() error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(p.exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return fmt.Errorf("declare exchange %s: %w", p.exchange, err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		return fmt.Errorf("enable publisher confirms: %w", err)
	}
	p.channel = ch
	return nil
}

// Publish sends payload as a persistent JSON message and waits for the
// broker's confirmation. A channel closed by an earlier error is reopened.
func (p *RabbitMQPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel == nil || p.channel.IsClosed() {
		if err := p.openChannel(); err != nil {
			return err
		}
		p.logger.WarnContext(ctx, "rabbitmq channel reopened")
	}

	confirm, err := p.channel.PublishWithDeferredConfirmWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         payload,
	})
	if err == nil {
		var acked bool
		acked, err = confirm.WaitContext(ctx)
		if err == nil && !acked {
			err = ErrNacked
		}
	}
	if err != nil {
		p.logger.ErrorContext(ctx, "publish failed", "routing_key", routingKey, "error", err)
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}

	p.logger.DebugContext(ctx, "message published", "routing_key", routingKey, "size", len(payload))
	return nil
}

// Close closes the channel and then the connection.
func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	if p.channel != nil && !p.channel.IsClosed() {
		errs = append(errs, p.channel.Close())
	}
	if p.conn != nil && !p.conn.IsClosed() {
		errs = append(errs, p.conn.Close())
	}
	p.logger.Info("rabbitmq publisher closed")
	return errors.Join(errs...)
}
