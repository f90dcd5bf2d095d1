package effects

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/room-booking/internal/model"
)

type recorder struct {
	mu        sync.Mutex
	calls     []string
	failFirst map[string]int
}

func (r *recorder) record(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, name)
	if r.failFirst[name] > 0 {
		r.failFirst[name]--
		return errors.New(name + " unavailable")
	}
	return nil
}

func (r *recorder) Append(_ context.Context, b model.Booking) error {
	return r.record("append:" + b.Room)
}
func (r *recorder) Delete(_ context.Context, b model.Booking) error {
	return r.record("delete:" + b.Room)
}
func (r *recorder) Name() string                                 { return "recorder" }
func (r *recorder) Send(_ context.Context, dest, _ string) error { return r.record("notify:" + dest) }

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func updateBatch() model.EffectBatch {
	prev := model.Booking{ID: "bk-1", Room: "R1", Date: "2024-05-01"}
	next := model.Booking{ID: "bk-1", Room: "R2", Date: "2024-05-01"}
	return model.EffectBatch{
		Action:    "updated",
		BookingID: "bk-1",
		Effects: []model.Effect{
			{Kind: model.EffectLedgerDelete, Booking: prev},
			{Kind: model.EffectLedgerAppend, Booking: next},
			{Kind: model.EffectNotify, Booking: next, Destination: "628", Message: "Booking updated"},
		},
	}
}

func TestRunPreservesOrder(t *testing.T) {
	rec := &recorder{}
	e := NewExecutor(rec, rec, WithBackoff(0))
	results := e.Run(context.Background(), updateBatch())

	assert.Equal(t, []string{"delete:R1", "append:R2", "notify:628"}, rec.snapshot())
	require.Len(t, results, 3)
	for _, r := range results {
		assert.NoError(t, r.Err)
		assert.Equal(t, 1, r.Attempts)
	}
}

func TestRunRetriesThenSucceeds(t *testing.T) {
	rec := &recorder{failFirst: map[string]int{"append:R2": 2}}
	e := NewExecutor(rec, rec, WithBackoff(time.Millisecond), WithMaxAttempts(3))
	results := e.Run(context.Background(), updateBatch())

	assert.NoError(t, results[1].Err)
	assert.Equal(t, 3, results[1].Attempts)
}

func TestRunGivesUpAndContinues(t *testing.T) {
	rec := &recorder{failFirst: map[string]int{"delete:R1": 10}}
	e := NewExecutor(rec, rec, WithBackoff(time.Millisecond), WithMaxAttempts(2))
	results := e.Run(context.Background(), updateBatch())

	assert.Error(t, results[0].Err)
	assert.Equal(t, 2, results[0].Attempts)
	assert.NoError(t, results[1].Err, "later effects still run")
	assert.NoError(t, results[2].Err)
	assert.Equal(t, []string{"delete:R1", "delete:R1", "append:R2", "notify:628"}, rec.snapshot())
}

func TestRunUnknownKindIsNotRetried(t *testing.T) {
	rec := &recorder{}
	e := NewExecutor(rec, rec, WithBackoff(0))
	results := e.Run(context.Background(), model.EffectBatch{Effects: []model.Effect{{Kind: "bogus"}}})
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, errUnknownEffect)
	assert.Equal(t, 1, results[0].Attempts)
}

func TestRunSkipsNotifyWithoutDestination(t *testing.T) {
	rec := &recorder{}
	e := NewExecutor(rec, rec)
	e.Run(context.Background(), model.EffectBatch{Effects: []model.Effect{{Kind: model.EffectNotify}}})
	assert.Empty(t, rec.snapshot())
}

func TestDispatchOutlivesRequestContext(t *testing.T) {
	rec := &recorder{}
	e := NewExecutor(rec, rec, WithBackoff(0))
	ctx, cancel := context.WithCancel(context.Background())
	e.Dispatch(ctx, updateBatch())
	cancel()
	e.Wait()
	assert.Len(t, rec.snapshot(), 3)
}

func TestNilCollaboratorsDefaultToNoop(t *testing.T) {
	e := NewExecutor(nil, nil)
	results := e.Run(context.Background(), updateBatch())
	for _, r := range results {
		assert.NoError(t, r.Err)
	}
}
