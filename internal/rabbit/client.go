// Package rabbit is the RabbitMQ transport of the worker: it consumes the
// request queue with manual acknowledgements and publishes replies through
// the default exchange.
package rabbit

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/fmueller/voxworker/internal/dispatch"
)

var ErrClosed = errors.New("rabbitmq delivery channel closed")

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type Client struct {
	conn       *amqp.Connection
	ch         channel
	deliveries <-chan amqp.Delivery
	logger     *zap.Logger
}

// Dial connects to the broker, declares the queue, applies the prefetch
// limit and starts consuming. Connecting is retried cfg.DialAttempts times.
func Dial(ctx context.Context, cfg Config, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.withDefaults()

	conn, err := dialWithRetry(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(cfg.Queue, cfg.Durable, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", cfg.Queue, err)
	}

	if err := ch.Qos(cfg.Prefetch, 0, false); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("set prefetch %d: %w", cfg.Prefetch, err)
	}

	deliveries, err := ch.Consume(cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("consume queue %s: %w", cfg.Queue, err)
	}

	logger.Info("connected to rabbitmq",
		zap.String("broker", redactURI(cfg.URI)),
		zap.String("queue", cfg.Queue),
		zap.Bool("durable", cfg.Durable),
		zap.Int("prefetch", cfg.Prefetch),
	)

	return &Client{conn: conn, ch: ch, deliveries: deliveries, logger: logger}, nil
}

func dialWithRetry(ctx context.Context, cfg Config, logger *zap.Logger) (*amqp.Connection, error) {
	props := amqp.NewConnectionProperties()
	props.SetClientConnectionName(cfg.ConnectionName)

	var lastErr error
	for attempt := 1; attempt <= cfg.DialAttempts; attempt++ {
		if attempt > 1 {
			logger.Warn("retrying rabbitmq connection",
				zap.Int("attempt", attempt),
				zap.Int("max", cfg.DialAttempts),
				zap.Duration("delay", cfg.RetryDelay),
				zap.Error(lastErr),
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(cfg.RetryDelay):
			}
		}

		conn, err := amqp.DialConfig(cfg.URI, amqp.Config{Properties: props})
		if err == nil {
			return conn, nil
		}
		lastErr = err
	}

	return nil, fmt.Errorf("connect to rabbitmq at %s: %w", redactURI(cfg.URI), lastErr)
}

// Next blocks until a delivery arrives or ctx is done.
func (c *Client) Next(ctx context.Context) (dispatch.Delivery, error) {
	select {
	case <-ctx.Done():
		return dispatch.Delivery{}, ctx.Err()
	case d, ok := <-c.deliveries:
		if !ok {
			return dispatch.Delivery{}, ErrClosed
		}
		return dispatch.Delivery{
			Envelope: toEnvelope(d),
			Ack: func() error {
				return d.Ack(false)
			},
		}, nil
	}
}

func (c *Client) Publish(ctx context.Context, destination string, body []byte, correlationID string) error {
	return c.ch.PublishWithContext(ctx, "", destination, false, false, amqp.Publishing{
		ContentType:   "application/json",
		CorrelationId: correlationID,
		Timestamp:     time.Now(),
		Body:          body,
	})
}

func (c *Client) Close() error {
	var errs []error
	if c.ch != nil {
		if err := c.ch.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, fmt.Errorf("close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, fmt.Errorf("close connection: %w", err))
		}
	}
	return errors.Join(errs...)
}

func toEnvelope(d amqp.Delivery) dispatch.Envelope {
	return dispatch.Envelope{
		RoutingKey:    d.RoutingKey,
		Body:          d.Body,
		ReplyTo:       d.ReplyTo,
		CorrelationID: d.CorrelationId,
		DeliveryTag:   d.DeliveryTag,
	}
}

func redactURI(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "<invalid uri>"
	}
	return parsed.Redacted()
}
