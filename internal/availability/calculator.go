package availability

import "github.com/iliyamo/room-booking/internal/model"

// Calculator derives free slots from a day's bookings.  The working-hours
// window is fixed at construction so deployments and tests can supply
// their own.
type Calculator struct {
	hours Interval
}

// NewCalculator returns a Calculator bounded by the given working hours.
func NewCalculator(workingHours Interval) *Calculator {
	return &Calculator{hours: workingHours}
}

// WorkingHours returns the window every room can be booked in.
func (c *Calculator) WorkingHours() Interval { return c.hours }

// Compute returns the free slots of room on date, ascending by start
// time.  Bookings for other rooms or days are ignored.  An empty, non-nil
// slice means the day is fully booked.
//
// The fold assumes stored bookings for one room/date never overlap; the
// store enforces that at write time.
func (c *Calculator) Compute(room, date string, bookings []model.Booking) []Interval {
	free := []Interval{c.hours}
	for _, b := range bookings {
		if b.Room != room || b.Date != date {
			continue
		}
		free = Subtract(free, BookingInterval(b))
	}
	sortIntervals(free)
	return free
}

// WithOwnSlot adds a booking's own interval back into a free-slot list so
// that the booking can be kept or shrunk while it is being edited.
func WithOwnSlot(free []Interval, own Interval) []Interval {
	all := make([]Interval, 0, len(free)+1)
	all = append(all, free...)
	all = append(all, own)
	return Merge(all)
}

// BookingInterval returns the time range occupied by b.
func BookingInterval(b model.Booking) Interval {
	return Interval{Start: b.StartTime, End: b.EndTime}
}
