// Package effects executes the side effects of committed booking changes:
// ledger rows and operator notifications.  Failures are retried a bounded
// number of times and then logged; they never reach the booking caller.
package effects

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/room-booking/internal/ledger"
	"github.com/iliyamo/room-booking/internal/model"
	"github.com/iliyamo/room-booking/internal/notify"
)

// Result reports how one effect fared.
type Result struct {
	Effect   model.Effect
	Attempts int
	Err      error
}

// Executor runs effect batches against a ledger mirror and a notifier.
type Executor struct {
	mirror      ledger.Mirror
	notifier    notify.Notifier
	maxAttempts int
	backoff     time.Duration
	timeout     time.Duration

	wg sync.WaitGroup
}

// Option customises an Executor.
type Option func(*Executor)

// WithMaxAttempts bounds how often a failing effect is tried.
func WithMaxAttempts(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.maxAttempts = n
		}
	}
}

// WithBackoff sets the delay before the first retry; it doubles after
// every further failure.
func WithBackoff(d time.Duration) Option { return func(e *Executor) { e.backoff = d } }

// WithTimeout bounds a whole batch run by Dispatch.
func WithTimeout(d time.Duration) Option { return func(e *Executor) { e.timeout = d } }

func NewExecutor(mirror ledger.Mirror, notifier notify.Notifier, opts ...Option) *Executor {
	if mirror == nil {
		mirror = ledger.NoopMirror{}
	}
	if notifier == nil {
		notifier = notify.NewNoopSender()
	}
	e := &Executor{
		mirror:      mirror,
		notifier:    notifier,
		maxAttempts: 3,
		backoff:     500 * time.Millisecond,
		timeout:     time.Minute,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Dispatch runs batch on its own goroutine, detached from ctx's
// cancellation so a finished HTTP request does not abort it.
func (e *Executor) Dispatch(ctx context.Context, batch model.EffectBatch) {
	if len(batch.Effects) == 0 {
		return
	}
	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer cancel()
		e.Run(bg, batch)
	}()
}

// Wait blocks until every dispatched batch has finished.
func (e *Executor) Wait() { e.wg.Wait() }

// Run executes the batch in order and returns one Result per effect.
// A failed effect does not stop the ones after it.
func (e *Executor) Run(ctx context.Context, batch model.EffectBatch) []Result {
	results := make([]Result, 0, len(batch.Effects))
	for _, eff := range batch.Effects {
		attempts, err := e.runWithRetry(ctx, eff)
		log := logrus.WithFields(logrus.Fields{
			"booking_id": batch.BookingID,
			"action":     batch.Action,
			"effect":     eff.Kind,
			"room":       eff.Booking.Room,
			"date":       eff.Booking.Date,
			"attempts":   attempts,
		})
		if err != nil {
			log.WithError(err).Error("effects: giving up")
		} else {
			log.Debug("effects: done")
		}
		results = append(results, Result{Effect: eff, Attempts: attempts, Err: err})
	}
	return results
}

func (e *Executor) runWithRetry(ctx context.Context, eff model.Effect) (int, error) {
	delay := e.backoff
	var err error
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		if err = e.apply(ctx, eff); err == nil {
			return attempt, nil
		}
		if errors.Is(err, errUnknownEffect) || attempt == e.maxAttempts {
			return attempt, err
		}
		logrus.WithError(err).WithFields(logrus.Fields{"effect": eff.Kind, "attempt": attempt}).
			Warn("effects: attempt failed, retrying")
		select {
		case <-ctx.Done():
			return attempt, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return e.maxAttempts, err
}

var errUnknownEffect = errors.New("effects: unknown effect kind")

func (e *Executor) apply(ctx context.Context, eff model.Effect) error {
	switch eff.Kind {
	case model.EffectLedgerAppend:
		return e.mirror.Append(ctx, eff.Booking)
	case model.EffectLedgerDelete:
		return e.mirror.Delete(ctx, eff.Booking)
	case model.EffectNotify:
		if eff.Destination == "" {
			logrus.WithField("booking_id", eff.Booking.ID).Debug("effects: no notify destination configured")
			return nil
		}
		return e.notifier.Send(ctx, eff.Destination, eff.Message)
	default:
		return fmt.Errorf("%w: %q", errUnknownEffect, eff.Kind)
	}
}
