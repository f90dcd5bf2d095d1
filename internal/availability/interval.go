// Package availability computes free time slots for a room and detects
// overlapping bookings.  Everything here is a pure function of its inputs.
//
// Intervals are half-open [Start, End) ranges within one day expressed as
// zero-padded "HH:MM" strings.  Zero padding makes lexicographic order the
// same as chronological order, so intervals are compared as strings.
package availability

import (
	"errors"
	"sort"
	"strings"
	"time"
)

// Interval is a half-open time range [Start, End) within a single day.
type Interval struct {
	Start string `json:"startTime"`
	End   string `json:"endTime"`
}

// ErrInvalidClock is returned by ParseClock for values that are not a
// time of day.
var ErrInvalidClock = errors.New("invalid time of day")

// ParseClock validates a time of day and returns it in canonical "HH:MM"
// form.  Unpadded hours such as "9:00" are accepted.
func ParseClock(s string) (string, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return "", ErrInvalidClock
	}
	return t.Format("15:04"), nil
}

// Valid reports whether the interval is non-empty.
func (iv Interval) Valid() bool { return iv.Start < iv.End }

// Contains reports whether o lies entirely within iv.
func (iv Interval) Contains(o Interval) bool {
	return iv.Start <= o.Start && o.End <= iv.End
}

// Overlaps reports whether two half-open intervals share at least one
// minute.  Touching endpoints (a.End == b.Start) do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start < b.End && a.End > b.Start
}

// Subtract removes occupied from every slot it intersects.  Each slot
// yields zero, one or two remainders; slots that do not intersect
// occupied are returned unchanged.  Input order is preserved.
func Subtract(free []Interval, occupied Interval) []Interval {
	out := make([]Interval, 0, len(free)+1)
	for _, slot := range free {
		if occupied.Start >= slot.End || occupied.End <= slot.Start {
			out = append(out, slot)
			continue
		}
		if occupied.Start > slot.Start {
			out = append(out, Interval{Start: slot.Start, End: occupied.Start})
		}
		if occupied.End < slot.End {
			out = append(out, Interval{Start: occupied.End, End: slot.End})
		}
	}
	return out
}

// Merge sorts slots by start time and folds every slot that touches or
// overlaps its predecessor into it.  Slots separated by a gap stay apart.
// The input slice is not modified.
func Merge(slots []Interval) []Interval {
	sorted := make([]Interval, len(slots))
	copy(sorted, slots)
	sortIntervals(sorted)

	merged := make([]Interval, 0, len(sorted))
	for _, s := range sorted {
		if n := len(merged); n > 0 && s.Start <= merged[n-1].End {
			if s.End > merged[n-1].End {
				merged[n-1].End = s.End
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

func sortIntervals(s []Interval) {
	sort.SliceStable(s, func(i, j int) bool {
		if s[i].Start == s[j].Start {
			return s[i].End < s[j].End
		}
		return s[i].Start < s[j].Start
	})
}
