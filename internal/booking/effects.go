package booking

import (
	"fmt"

	"github.com/iliyamo/room-booking/internal/model"
)

// Actions recorded on an Outcome.
const (
	ActionCreated   = "created"
	ActionUpdated   = "updated"
	ActionCancelled = "cancelled"
)

var headlines = map[string]string{
	ActionCreated:   "New booking",
	ActionUpdated:   "Booking updated",
	ActionCancelled: "Booking cancelled",
}

// Summary renders the notification text for a booking event.
func Summary(action string, b Booking) string {
	return fmt.Sprintf("%s\nRoom: %s\nDate: %s\nTime: %s - %s\nPIC: %s\nUnit kerja: %s",
		headlines[action], b.Room, b.Date, b.StartTime, b.EndTime, b.PIC, b.UnitKerja)
}

func (m *Manager) notify(action string, b Booking) model.Effect {
	return model.Effect{
		Kind:        model.EffectNotify,
		Booking:     b,
		Destination: m.cfg.NotifyDestination,
		Message:     Summary(action, b),
	}
}

func ledgerAppend(b Booking) model.Effect {
	return model.Effect{Kind: model.EffectLedgerAppend, Booking: b}
}

func ledgerDelete(b Booking) model.Effect {
	return model.Effect{Kind: model.EffectLedgerDelete, Booking: b}
}

func (m *Manager) effectsFor(action string, b, prev Booking) []model.Effect {
	switch action {
	case ActionCreated:
		return []model.Effect{ledgerAppend(b), m.notify(action, b)}
	case ActionUpdated:
		return []model.Effect{ledgerDelete(prev), ledgerAppend(b), m.notify(action, b)}
	case ActionCancelled:
		return []model.Effect{ledgerDelete(b), m.notify(action, b)}
	}
	return nil
}
