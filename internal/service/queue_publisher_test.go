package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/room-booking/internal/model"
	q "github.com/iliyamo/room-booking/internal/queue"
)

type capture struct {
	mu      sync.Mutex
	batches []model.EffectBatch
}

func (c *capture) Dispatch(_ context.Context, b model.EffectBatch) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batches = append(c.batches, b)
}

func batch() model.EffectBatch {
	return model.EffectBatch{
		Action:    "created",
		BookingID: "bk-1",
		Effects:   []model.Effect{{Kind: model.EffectLedgerAppend, Booking: model.Booking{ID: "bk-1"}}},
	}
}

func TestDispatchPublishes(t *testing.T) {
	fb := &capture{}
	var sent []byte
	p := &QueuePublisher{
		publish:  func(_ context.Context, body []byte) error { sent = body; return nil },
		fallback: fb,
	}
	p.Dispatch(context.Background(), batch())
	p.Wait()

	require.NotNil(t, sent)
	got, err := q.Decode(sent)
	require.NoError(t, err)
	assert.Equal(t, "bk-1", got.BookingID)
	assert.Empty(t, fb.batches)
}

func TestDispatchFallsBackWhenBrokerDown(t *testing.T) {
	fb := &capture{}
	p := &QueuePublisher{
		publish:  func(context.Context, []byte) error { return errors.New("connection refused") },
		fallback: fb,
	}
	p.Dispatch(context.Background(), batch())
	p.Wait()
	require.Len(t, fb.batches, 1)
	assert.Equal(t, "bk-1", fb.batches[0].BookingID)
}

func TestDispatchEmptyBatchIsIgnored(t *testing.T) {
	fb := &capture{}
	called := false
	p := &QueuePublisher{
		publish:  func(context.Context, []byte) error { called = true; return nil },
		fallback: fb,
	}
	p.Dispatch(context.Background(), model.EffectBatch{BookingID: "bk-1"})
	p.Wait()
	assert.False(t, called)
	assert.Empty(t, fb.batches)
}

func TestDispatchDoesNotWaitForBroker(t *testing.T) {
	fb := &capture{}
	release := make(chan struct{})
	published := make(chan struct{})
	p := &QueuePublisher{
		publish: func(context.Context, []byte) error {
			<-release
			close(published)
			return nil
		},
		fallback: fb,
	}

	returned := make(chan struct{})
	go func() {
		p.Dispatch(context.Background(), batch())
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Dispatch blocked on a stalled broker")
	}

	close(release)
	p.Wait()
	select {
	case <-published:
	default:
		t.Fatal("Wait returned before the publish finished")
	}
	assert.Empty(t, fb.batches)
}

func TestDispatchRequestContextCancelled(t *testing.T) {
	fb := &capture{}
	var pubErr error
	p := &QueuePublisher{
		publish: func(ctx context.Context, _ []byte) error {
			pubErr = ctx.Err()
			return nil
		},
		fallback: fb,
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.Dispatch(ctx, batch())
	cancel()
	p.Wait()
	assert.NoError(t, pubErr, "publish outlives the request")
}
