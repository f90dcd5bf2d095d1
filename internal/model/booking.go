package model

import "time"

// Booking records a single room reservation over a time range on one
// calendar day.  Date is an ISO "YYYY-MM-DD" string and StartTime/EndTime
// are zero-padded "HH:MM" values on a 24-hour clock, so string comparison
// orders them the same way as minutes of the day.
//
// Fields:
//
//	ID        – opaque identifier assigned at creation; never changes.
//	Room      – one of the configured room names.
//	Date      – calendar day of the booking (no timezone).
//	StartTime – first minute of the booking, inclusive.
//	EndTime   – end of the booking, exclusive.
//	PIC       – person in charge; the requester's username.
//	UnitKerja – work unit label of the requester (informational).
//	CreatedAt – creation timestamp.
//	UpdatedAt – last update timestamp.
type Booking struct {
	ID        string    `json:"id"`        // bookings.id
	Room      string    `json:"room"`      // bookings.room
	Date      string    `json:"date"`      // bookings.booking_date
	StartTime string    `json:"startTime"` // bookings.start_time
	EndTime   string    `json:"endTime"`   // bookings.end_time
	PIC       string    `json:"pic"`       // bookings.pic
	UnitKerja string    `json:"unitKerja"` // bookings.unit_kerja
	CreatedAt time.Time `json:"createdAt"` // bookings.created_at
	UpdatedAt time.Time `json:"updatedAt"` // bookings.updated_at
}

// SameSlot reports whether b and o describe the same room, day and time
// range.  Uniqueness in the store is keyed on exactly these fields.
func (b Booking) SameSlot(o Booking) bool {
	return b.Room == o.Room && b.Date == o.Date && b.StartTime == o.StartTime && b.EndTime == o.EndTime
}
