package amqpad

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"safari_quote/internal/domain"
)

// Handler reacts to one refresh event. A returned error rejects the message.
type Handler func(ctx context.Context, ev domain.CatalogRefreshed) error

type Consumer struct {
	url     string
	handler Handler
	resync  func(ctx context.Context) error
}

func NewConsumer(url string, h Handler) *Consumer { return &Consumer{url: url, handler: h} }

// OnSubscribe sets fn to run after every successful (re)subscribe. The queue
// only exists while connected, so events published in between are lost and
// fn is the place to catch up on them.
func (c *Consumer) OnSubscribe(fn func(ctx context.Context) error) *Consumer {
	c.resync = fn
	return c
}

// Run dials the broker and consumes until ctx is done, reconnecting with
// backoff whenever the connection drops.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			log.Warn().Err(err).Dur("retry_in", backoff).Msg("refresh consumer: dial failed")
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			backoff = min(backoff*2, 30*time.Second)
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn().Err(err).Msg("refresh consumer: loop ended, reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := declareExchange(ch); err != nil {
		return fmt.Errorf("exchange declare: %w", err)
	}
	// Server-named, exclusive queue: one per replica, gone when it disconnects.
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	if err := ch.QueueBind(q.Name, "", Exchange, false, nil); err != nil {
		return fmt.Errorf("queue bind: %w", err)
	}
	msgs, err := ch.Consume(q.Name, "", false, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	log.Info().Str("queue", q.Name).Msg("refresh consumer ready")
	c.subscribed(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handle(ctx, d.Body); err != nil {
				log.Error().Err(err).Msg("refresh consumer: handle failed")
				_ = d.Nack(false, false) // do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) subscribed(ctx context.Context) {
	if c.resync == nil {
		return
	}
	if err := c.resync(ctx); err != nil {
		log.Error().Err(err).Msg("refresh consumer: resync after subscribe failed")
	}
}

func (c *Consumer) handle(ctx context.Context, body []byte) error {
	ev, err := decode(body)
	if err != nil {
		return err
	}
	return c.handler(ctx, ev)
}

func decode(body []byte) (domain.CatalogRefreshed, error) {
	var ev domain.CatalogRefreshed
	if err := json.Unmarshal(body, &ev); err != nil {
		return domain.CatalogRefreshed{}, fmt.Errorf("unmarshal: %w", err)
	}
	return ev, nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
