// Package queue carries booking effect batches over RabbitMQ.
package queue

import (
	"encoding/json"
	"fmt"

	"github.com/iliyamo/room-booking/internal/model"
)

// EffectsQueueName is the durable queue holding pending effect batches.
const EffectsQueueName = "booking.effects"

// Encode renders batch as the JSON message body.
func Encode(batch model.EffectBatch) ([]byte, error) {
	return json.Marshal(batch)
}

// Decode parses a message body produced by Encode.
func Decode(body []byte) (model.EffectBatch, error) {
	var batch model.EffectBatch
	if err := json.Unmarshal(body, &batch); err != nil {
		return model.EffectBatch{}, fmt.Errorf("unmarshal: %w", err)
	}
	if batch.BookingID == "" {
		return model.EffectBatch{}, fmt.Errorf("batch without booking_id")
	}
	return batch, nil
}
