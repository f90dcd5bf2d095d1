package queue

import (
	"bytes"
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/room-booking/internal/effects"
	"github.com/iliyamo/room-booking/internal/model"
)

func sampleBatch() model.EffectBatch {
	b := model.Booking{ID: "bk-1", Room: "R1", Date: "2024-05-01", StartTime: "09:00", EndTime: "10:00", PIC: "ani", UnitKerja: "X"}
	return model.EffectBatch{
		Action:     "created",
		BookingID:  b.ID,
		OccurredAt: time.Date(2024, 4, 30, 8, 0, 0, 0, time.UTC),
		Effects: []model.Effect{
			{Kind: model.EffectLedgerAppend, Booking: b},
			{Kind: model.EffectNotify, Booking: b, Destination: "628", Message: "New booking"},
		},
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte("{"))
	assert.Error(t, err)
	_, err = Decode([]byte(`{"action":"created"}`))
	assert.Error(t, err)
}

func TestEncodeDecodeKeepsEffectOrder(t *testing.T) {
	body, err := Encode(sampleBatch())
	require.NoError(t, err)
	got, err := Decode(body)
	require.NoError(t, err)
	require.Len(t, got.Effects, 2)
	assert.Equal(t, model.EffectLedgerAppend, got.Effects[0].Kind)
	assert.Equal(t, "628", got.Effects[1].Destination)
	assert.True(t, got.OccurredAt.Equal(sampleBatch().OccurredAt))
}

type stubRunner struct{ seen []model.EffectBatch }

func (s *stubRunner) Run(_ context.Context, batch model.EffectBatch) []effects.Result {
	s.seen = append(s.seen, batch)
	out := make([]effects.Result, len(batch.Effects))
	for i, e := range batch.Effects {
		out[i] = effects.Result{Effect: e, Attempts: 1}
	}
	out[len(out)-1].Err = errors.New("gateway down")
	return out
}

func TestHandleRunsBatchAndJournals(t *testing.T) {
	runner := &stubRunner{}
	var journal bytes.Buffer
	c := NewConsumer("amqp://unused", runner, &journal)

	body, err := Encode(sampleBatch())
	require.NoError(t, err)
	require.NoError(t, c.Handle(context.Background(), body))

	require.Len(t, runner.seen, 1)
	assert.Equal(t,
		"[2024-04-30T08:00:00Z] Booking created | booking_id=bk-1 | room=\"R1\" | date=2024-05-01 | time=09:00-10:00 | pic=\"ani\" | effects=2 | failed=1\n",
		journal.String())
}

func TestHandleBadBody(t *testing.T) {
	runner := &stubRunner{}
	c := NewConsumer("amqp://unused", runner, nil)
	assert.Error(t, c.Handle(context.Background(), []byte("nope")))
	assert.Empty(t, runner.seen)
}

func TestStartStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewConsumer("amqp://127.0.0.1:1/", &stubRunner{}, nil).Start(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDialGivesUpOnSilentBroker(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			// accept and never answer the protocol header
			defer c.Close()
		}
	}()

	start := time.Now()
	_, err = DialWithTimeout("amqp://guest:guest@"+ln.Addr().String()+"/", 200*time.Millisecond)
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}
