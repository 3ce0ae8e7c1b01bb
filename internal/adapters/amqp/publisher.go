// Package amqpad broadcasts and receives catalog refresh events over
// RabbitMQ. Every API replica binds its own queue to a fanout exchange so
// each one reloads its snapshot.
package amqpad

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"safari_quote/internal/domain"
)

const Exchange = "catalog.refreshed"

func declareExchange(ch *amqp.Channel) error {
	return ch.ExchangeDeclare(
		Exchange, // name
		"fanout", // kind
		true,     // durable
		false,    // autoDelete
		false,    // internal
		false,    // noWait
		nil,      // args
	)
}

// Publisher implements domain.RefreshNotifier. It dials per event; refreshes
// are rare.
type Publisher struct{ url string }

func NewPublisher(url string) *Publisher { return &Publisher{url: url} }

func (p *Publisher) NotifyRefreshed(ctx context.Context, ev domain.CatalogRefreshed) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("amqp dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("amqp channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := declareExchange(ch); err != nil {
		return fmt.Errorf("exchange declare: %w", err)
	}

	pub, err := encode(ev)
	if err != nil {
		return err
	}
	if err := ch.PublishWithContext(ctx, Exchange, "", false, false, pub); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	log.Info().Int("tariffs", ev.Tariffs).Int("rules", ev.FeeRules).Int("fees", ev.ServiceFees).Msg("catalog refresh published")
	return nil
}

func encode(ev domain.CatalogRefreshed) (amqp.Publishing, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal event: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}, nil
}
