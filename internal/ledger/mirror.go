// Package ledger mirrors committed bookings into an external spreadsheet
// that staff read as the official room ledger.
package ledger

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/room-booking/internal/model"
)

// Mirror appends and removes ledger rows.  A Delete that finds no row is
// not an error.
type Mirror interface {
	Append(ctx context.Context, b model.Booking) error
	Delete(ctx context.Context, b model.Booking) error
}

// NoopMirror is used when no spreadsheet is configured.
type NoopMirror struct{}

func (NoopMirror) Append(_ context.Context, b model.Booking) error {
	logrus.WithField("booking_id", b.ID).Debug("ledger: mirror disabled, append skipped")
	return nil
}

func (NoopMirror) Delete(_ context.Context, b model.Booking) error {
	logrus.WithField("booking_id", b.ID).Debug("ledger: mirror disabled, delete skipped")
	return nil
}
