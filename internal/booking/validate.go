package booking

import (
	"strings"
	"time"

	"github.com/iliyamo/room-booking/internal/availability"
)

// Request carries the user-editable fields of a booking.
type Request struct {
	Room      string `json:"room"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	PIC       string `json:"pic"`
	UnitKerja string `json:"unitKerja"`
}

func (r Request) trimmed() Request {
	return Request{
		Room:      strings.TrimSpace(r.Room),
		Date:      strings.TrimSpace(r.Date),
		StartTime: strings.TrimSpace(r.StartTime),
		EndTime:   strings.TrimSpace(r.EndTime),
		PIC:       strings.TrimSpace(r.PIC),
		UnitKerja: strings.TrimSpace(r.UnitKerja),
	}
}

// validate checks a request and returns it normalised: trimmed fields and
// canonical "HH:MM" times.
func (m *Manager) validate(in Request) (Request, error) {
	r := in.trimmed()
	var missing []string
	for _, f := range []struct{ name, val string }{
		{"room", r.Room}, {"date", r.Date}, {"startTime", r.StartTime},
		{"endTime", r.EndTime}, {"pic", r.PIC}, {"unitKerja", r.UnitKerja},
	} {
		if f.val == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return r, badInput("missing %s", strings.Join(missing, ", "))
	}
	if err := m.checkRoomDate(r.Room, r.Date); err != nil {
		return r, err
	}
	var err error
	if r.StartTime, err = availability.ParseClock(r.StartTime); err != nil {
		return r, badInput("invalid startTime %q", in.StartTime)
	}
	if r.EndTime, err = availability.ParseClock(r.EndTime); err != nil {
		return r, badInput("invalid endTime %q", in.EndTime)
	}
	iv := availability.Interval{Start: r.StartTime, End: r.EndTime}
	if !iv.Valid() {
		return r, badInput("startTime must be before endTime")
	}
	if wh := m.calc.WorkingHours(); !wh.Contains(iv) {
		return r, badInput("booking must fall within working hours %s-%s", wh.Start, wh.End)
	}
	return r, nil
}

func (m *Manager) checkRoomDate(room, date string) error {
	if room == "" || date == "" {
		return badInput("room and date are required")
	}
	if _, ok := m.rooms[room]; !ok {
		return badInput("unknown room %q", room)
	}
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		return badInput("invalid date %q, want YYYY-MM-DD", date)
	}
	return nil
}
