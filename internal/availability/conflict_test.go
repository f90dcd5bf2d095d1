package availability

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/room-booking/internal/model"
)

func candidate(start, end string) Candidate {
	return Candidate{Room: "R1", Date: "2024-05-01", StartTime: start, EndTime: end}
}

func TestHasConflict(t *testing.T) {
	existing := []model.Booking{booked("a", "09:00", "10:00")}

	assert.True(t, HasConflict(candidate("09:30", "10:30"), "", existing))
	assert.True(t, HasConflict(candidate("08:00", "12:00"), "", existing))
	assert.True(t, HasConflict(candidate("09:15", "09:45"), "", existing))
	assert.False(t, HasConflict(candidate("10:00", "11:00"), "", existing), "touching end")
	assert.False(t, HasConflict(candidate("08:00", "09:00"), "", existing), "touching start")

	t.Run("excluded id is skipped", func(t *testing.T) {
		assert.False(t, HasConflict(candidate("09:00", "09:30"), "a", existing))
		assert.True(t, HasConflict(candidate("09:00", "09:30"), "b", existing))
	})

	t.Run("other room or date never conflicts", func(t *testing.T) {
		c := candidate("09:00", "10:00")
		c.Room = "R2"
		assert.False(t, HasConflict(c, "", existing))
		c = candidate("09:00", "10:00")
		c.Date = "2024-05-02"
		assert.False(t, HasConflict(c, "", existing))
	})
}

func TestFindConflictReportsBooking(t *testing.T) {
	existing := []model.Booking{booked("a", "08:00", "09:00"), booked("b", "09:00", "10:00")}
	b, ok := FindConflict(candidate("09:30", "11:00"), "", existing)
	assert.True(t, ok)
	assert.Equal(t, "b", b.ID)
}

func TestHasConflictIsSymmetric(t *testing.T) {
	var slots []Interval
	for s := 7*60 + 30; s < 17*60; s += 30 {
		for e := s + 30; e <= 17*60; e += 60 {
			slots = append(slots, Interval{clock(s), clock(e)})
		}
	}
	for _, x := range slots {
		for _, y := range slots {
			xy := HasConflict(candidate(x.Start, x.End), "", []model.Booking{booked("y", y.Start, y.End)})
			yx := HasConflict(candidate(y.Start, y.End), "", []model.Booking{booked("x", x.Start, x.End)})
			assert.Equal(t, xy, yx, "%v vs %v", x, y)
		}
	}
}
