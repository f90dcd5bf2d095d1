package ledger

import (
	"fmt"
	"strings"

	"github.com/iliyamo/room-booking/internal/model"
)

// DefaultSheet receives rows for rooms without a sheet of their own.
const DefaultSheet = "Sheet1"

// Row renders b as the six ledger columns A:F.
func Row(b model.Booking) []interface{} {
	return []interface{}{b.Room, b.Date, b.StartTime, b.EndTime, b.PIC, b.UnitKerja}
}

// FindRow returns the index of the first row in rows holding b, or -1.
// Spreadsheets tend to reformat times, so "09:00:00" and "9:00" both
// match a stored "09:00".
func FindRow(rows [][]interface{}, b model.Booking) int {
	for i, row := range rows {
		cells := make([]string, 6)
		for j := 0; j < len(row) && j < 6; j++ {
			cells[j] = cell(row[j])
		}
		if cells[0] == strings.TrimSpace(b.Room) &&
			cells[1] == strings.TrimSpace(b.Date) &&
			sameClock(cells[2], b.StartTime) &&
			sameClock(cells[3], b.EndTime) &&
			cells[4] == strings.TrimSpace(b.PIC) &&
			cells[5] == strings.TrimSpace(b.UnitKerja) {
			return i
		}
	}
	return -1
}

func cell(v interface{}) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func sameClock(got, want string) bool {
	want = strings.TrimSpace(want)
	return got == want || got == want+":00" || got == strings.TrimPrefix(want, "0")
}
