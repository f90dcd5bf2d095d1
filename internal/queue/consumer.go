package queue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/room-booking/internal/effects"
	"github.com/iliyamo/room-booking/internal/model"
)

// Runner executes a decoded batch.
type Runner interface {
	Run(ctx context.Context, batch model.EffectBatch) []effects.Result
}

// Consumer drains the effects queue, runs each batch and appends a
// one-line entry per batch to the journal.
type Consumer struct {
	url     string
	runner  Runner
	journal io.Writer
}

func NewConsumer(url string, runner Runner, journal io.Writer) *Consumer {
	if journal == nil {
		journal = io.Discard
	}
	return &Consumer{url: url, runner: runner, journal: journal}
}

// Start connects to the broker and consumes until ctx is cancelled,
// reconnecting with exponential backoff whenever the connection drops.
func (c *Consumer) Start(ctx context.Context) error {
	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, err := Dial(c.url)
		if err != nil {
			logrus.WithError(err).WithField("retry_in", backoff.String()).Warn("effects-consumer: dial failed")
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logrus.WithError(err).Warn("effects-consumer: consume loop ended, reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		logrus.WithError(err).Warn("effects-consumer: set QoS failed")
	}
	if _, err := ch.QueueDeclare(EffectsQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(EffectsQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.Handle(ctx, d.Body); err != nil {
				logrus.WithError(err).Error("effects-consumer: handle message failed")
				_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Handle decodes and runs one message body.  Effect failures are already
// retried and logged by the runner, so only undecodable bodies fail.
func (c *Consumer) Handle(ctx context.Context, body []byte) error {
	batch, err := Decode(body)
	if err != nil {
		return err
	}
	results := c.runner.Run(ctx, batch)
	if _, err := io.WriteString(c.journal, JournalLine(batch, results)); err != nil {
		logrus.WithError(err).Warn("effects-consumer: journal write failed")
	}
	return nil
}

// JournalLine formats the journal entry for a processed batch.
func JournalLine(batch model.EffectBatch, results []effects.Result) string {
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	var b model.Booking
	if len(batch.Effects) > 0 {
		b = batch.Effects[len(batch.Effects)-1].Booking
	}
	return fmt.Sprintf("[%s] Booking %s | booking_id=%s | room=%q | date=%s | time=%s-%s | pic=%q | effects=%d | failed=%d\n",
		batch.OccurredAt.UTC().Format(time.RFC3339), batch.Action, batch.BookingID,
		b.Room, b.Date, b.StartTime, b.EndTime, b.PIC, len(results), failed)
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
