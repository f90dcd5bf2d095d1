package booking

import (
	"context"

	"github.com/iliyamo/room-booking/internal/model"
)

// Booking is the persisted booking record.
type Booking = model.Booking

// CheckFunc inspects the bookings currently stored for the room and date
// being written and returns an error to abort the write.
type CheckFunc func(existing []Booking) error

// Match selects a booking by its full field tuple.  An empty UnitKerja
// matches any unit.
type Match struct {
	Room      string `json:"room"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	PIC       string `json:"pic"`
	UnitKerja string `json:"unitKerja"`
}

// Matches reports whether b satisfies m.
func (m Match) Matches(b Booking) bool {
	if m.UnitKerja != "" && m.UnitKerja != b.UnitKerja {
		return false
	}
	return b.Room == m.Room && b.Date == m.Date && b.StartTime == m.StartTime &&
		b.EndTime == m.EndTime && b.PIC == m.PIC
}

// Store is the booking persistence contract.
//
// Insert and Replace must call check with the bookings stored for the
// target room and date while holding an exclusive lock on that pair, and
// write only when check returns nil, all in one atomic unit.  A write that
// would duplicate (room, date, startTime, endTime) fails with ErrConflict.
// Lookups of a missing id fail with ErrNotFound.
type Store interface {
	ListByRoomDate(ctx context.Context, room, date string) ([]Booking, error)
	ListByPIC(ctx context.Context, pic string) ([]Booking, error)
	ListAll(ctx context.Context) ([]Booking, error)
	GetByID(ctx context.Context, id string) (Booking, error)
	Insert(ctx context.Context, b Booking, check CheckFunc) (Booking, error)
	Replace(ctx context.Context, id string, next Booking, check CheckFunc) (prev, updated Booking, err error)
	DeleteMatch(ctx context.Context, m Match) (Booking, bool, error)
	DeleteByID(ctx context.Context, id string) (Booking, bool, error)
}

// Dispatcher executes the side effects of a committed change.  It never
// reports failure; implementations log and move on.
type Dispatcher interface {
	Dispatch(ctx context.Context, batch model.EffectBatch)
}
