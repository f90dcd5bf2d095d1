// Package service holds dispatchers that hand committed booking effects to
// the background pipeline.
package service

import (
	"context"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/room-booking/internal/booking"
	"github.com/iliyamo/room-booking/internal/model"
	q "github.com/iliyamo/room-booking/internal/queue"
)

// publishFunc sends one encoded batch to the broker.
type publishFunc func(ctx context.Context, body []byte) error

// QueuePublisher publishes effect batches to the durable booking.effects
// queue.  When the broker is unreachable the batch goes to the fallback
// dispatcher instead, so effects are delayed at worst, never dropped.
// Publishing happens off the caller's goroutine; Wait blocks until every
// pending publish has finished.
type QueuePublisher struct {
	publish  publishFunc
	fallback booking.Dispatcher
	wg       sync.WaitGroup
}

func NewQueuePublisher(url string, fallback booking.Dispatcher) *QueuePublisher {
	return &QueuePublisher{
		publish:  func(ctx context.Context, body []byte) error { return publishToQueue(ctx, url, body) },
		fallback: fallback,
	}
}

// Dispatch never fails from the caller's point of view and does not wait
// for the broker.
func (p *QueuePublisher) Dispatch(ctx context.Context, batch model.EffectBatch) {
	if len(batch.Effects) == 0 {
		return
	}
	detached := context.WithoutCancel(ctx) // the request may end first
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.send(detached, batch)
	}()
}

// Wait blocks until all dispatched batches are published or handed to the
// fallback.
func (p *QueuePublisher) Wait() { p.wg.Wait() }

func (p *QueuePublisher) send(ctx context.Context, batch model.EffectBatch) {
	log := logrus.WithFields(logrus.Fields{"booking_id": batch.BookingID, "action": batch.Action})
	body, err := q.Encode(batch)
	if err == nil {
		pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = p.publish(pubCtx, body)
		cancel()
		if err == nil {
			log.Debug("rabbitmq: effects published")
			return
		}
	}
	log.WithError(err).Warn("rabbitmq: publish failed, running effects locally")
	if p.fallback != nil {
		p.fallback.Dispatch(ctx, batch)
	}
}

func publishToQueue(ctx context.Context, url string, body []byte) error {
	conn, err := q.Dial(url) // bounded, a silent broker must not pin this goroutine
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		q.EffectsQueueName, // name
		true,               // durable
		false,              // autoDelete
		false,              // exclusive
		false,              // noWait
		nil,                // args
	); err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	return ch.PublishWithContext(ctx,
		"",                 // default exchange
		q.EffectsQueueName, // routing key = queue name
		false,              // mandatory
		false,              // immediate
		pub,
	)
}
