package availability

import "github.com/iliyamo/room-booking/internal/model"

// Candidate is a proposed booking slot.
type Candidate struct {
	Room      string
	Date      string
	StartTime string
	EndTime   string
}

// FindConflict returns the first booking in existing that overlaps the
// candidate on the same room and date.  The booking whose ID equals
// excludeID is skipped, which lets an update move within its own slot.
// An empty excludeID excludes nothing.
func FindConflict(c Candidate, excludeID string, existing []model.Booking) (model.Booking, bool) {
	want := Interval{Start: c.StartTime, End: c.EndTime}
	for _, b := range existing {
		if excludeID != "" && b.ID == excludeID {
			continue
		}
		if b.Room != c.Room || b.Date != c.Date {
			continue
		}
		if Overlaps(want, BookingInterval(b)) {
			return b, true
		}
	}
	return model.Booking{}, false
}

// HasConflict reports whether the candidate overlaps any booking in
// existing other than excludeID.
func HasConflict(c Candidate, excludeID string, existing []model.Booking) bool {
	_, found := FindConflict(c, excludeID, existing)
	return found
}
