package model

import "time"

// EffectKind names a side effect requested by a booking state change.
type EffectKind string

const (
	EffectLedgerAppend EffectKind = "ledger.append"
	EffectLedgerDelete EffectKind = "ledger.delete"
	EffectNotify       EffectKind = "notify"
)

// Effect is a pending side effect.  Ledger effects carry the booking row
// to append or remove; notify effects carry the destination and the
// rendered message.
type Effect struct {
	Kind        EffectKind `json:"kind"`
	Booking     Booking    `json:"booking"`
	Destination string     `json:"destination,omitempty"`
	Message     string     `json:"message,omitempty"`
}

// EffectBatch groups the effects produced by one committed booking
// change.  Effects must be executed in order: an update deletes the old
// ledger row before appending the new one.
type EffectBatch struct {
	Action     string    `json:"action"` // created | updated | cancelled
	BookingID  string    `json:"booking_id"`
	Effects    []Effect  `json:"effects"`
	OccurredAt time.Time `json:"occurred_at"`
}
