package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/room-booking/internal/booking"
	"github.com/iliyamo/room-booking/internal/model"
)

var bookingCols = []string{"id", "room", "booking_date", "start_time", "end_time", "pic", "unit_kerja", "created_at", "updated_at"}

var stamp = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

const (
	sqlLockInsert = "INSERT IGNORE INTO booking_days (room, booking_date) VALUES (?, ?)"
	sqlLockSelect = "SELECT room FROM booking_days WHERE room = ? AND booking_date = ? FOR UPDATE"
	sqlDayList    = "FROM bookings WHERE room = ? AND booking_date = ?"
	sqlByIDLock   = "FROM bookings WHERE id = ? FOR UPDATE"
	sqlInsert     = "INSERT INTO bookings (id, room, booking_date"
	sqlUpdate     = "UPDATE bookings SET room = ?, booking_date = ?"
	sqlDelete     = "DELETE FROM bookings WHERE id = ?"
)

func newMockRepo(t *testing.T) (*BookingRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewBookingRepo(db), mock
}

func bookingRows(bs ...model.Booking) *sqlmock.Rows {
	rows := sqlmock.NewRows(bookingCols)
	for _, b := range bs {
		rows.AddRow(b.ID, b.Room, b.Date, b.StartTime, b.EndTime, b.PIC, b.UnitKerja, b.CreatedAt, b.UpdatedAt)
	}
	return rows
}

func sampleBooking(id, room, date, start, end string) model.Booking {
	return model.Booking{ID: id, Room: room, Date: date, StartTime: start, EndTime: end,
		PIC: "ani", UnitKerja: "Keuangan", CreatedAt: stamp, UpdatedAt: stamp}
}

func expectLock(mock sqlmock.Sqlmock, room, date string) {
	mock.ExpectExec(regexp.QuoteMeta(sqlLockInsert)).WithArgs(room, date).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(sqlLockSelect)).WithArgs(room, date).
		WillReturnRows(sqlmock.NewRows([]string{"room"}).AddRow(room))
}

func TestBookingRepoInsertLocksChecksThenWrites(t *testing.T) {
	repo, mock := newMockRepo(t)
	b := sampleBooking("bk-2", "R1", "2024-05-01", "10:00", "11:00")
	existing := sampleBooking("bk-1", "R1", "2024-05-01", "08:00", "09:00")

	mock.ExpectBegin()
	expectLock(mock, "R1", "2024-05-01")
	mock.ExpectQuery(regexp.QuoteMeta(sqlDayList)).WithArgs("R1", "2024-05-01").
		WillReturnRows(bookingRows(existing))
	mock.ExpectExec(regexp.QuoteMeta(sqlInsert)).
		WithArgs(b.ID, b.Room, b.Date, b.StartTime, b.EndTime, b.PIC, b.UnitKerja, b.CreatedAt, b.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	var seen []model.Booking
	got, err := repo.Insert(context.Background(), b, func(ex []booking.Booking) error {
		seen = ex
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, b, got)
	require.Len(t, seen, 1)
	assert.Equal(t, "bk-1", seen[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepoInsertCheckFailureRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)
	b := sampleBooking("bk-2", "R1", "2024-05-01", "08:30", "09:30")

	mock.ExpectBegin()
	expectLock(mock, "R1", "2024-05-01")
	mock.ExpectQuery(regexp.QuoteMeta(sqlDayList)).WithArgs("R1", "2024-05-01").
		WillReturnRows(bookingRows(sampleBooking("bk-1", "R1", "2024-05-01", "08:00", "09:00")))
	mock.ExpectRollback()

	_, err := repo.Insert(context.Background(), b, func([]booking.Booking) error {
		return booking.ErrConflict
	})
	assert.ErrorIs(t, err, booking.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet(), "no INSERT after a failed check")
}

func TestBookingRepoInsertDuplicateKeyIsConflict(t *testing.T) {
	repo, mock := newMockRepo(t)
	b := sampleBooking("bk-2", "R1", "2024-05-01", "08:00", "09:00")

	mock.ExpectBegin()
	expectLock(mock, "R1", "2024-05-01")
	mock.ExpectQuery(regexp.QuoteMeta(sqlDayList)).WithArgs("R1", "2024-05-01").
		WillReturnRows(bookingRows())
	mock.ExpectExec(regexp.QuoteMeta(sqlInsert)).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()

	_, err := repo.Insert(context.Background(), b, func([]booking.Booking) error { return nil })
	assert.ErrorIs(t, err, booking.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepoReplaceMissingID(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(sqlByIDLock)).WithArgs("nope").WillReturnRows(bookingRows())
	mock.ExpectRollback()

	next := sampleBooking("", "R1", "2024-05-01", "08:00", "09:00")
	_, _, err := repo.Replace(context.Background(), "nope", next, func([]booking.Booking) error { return nil })
	assert.ErrorIs(t, err, booking.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepoReplaceMoveLocksBothDaysInOrder(t *testing.T) {
	repo, mock := newMockRepo(t)
	prev := sampleBooking("bk-1", "R2", "2024-05-02", "13:00", "14:00")
	next := sampleBooking("", "R1", "2024-05-01", "10:00", "11:00")
	next.UpdatedAt = stamp.Add(time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(sqlByIDLock)).WithArgs("bk-1").WillReturnRows(bookingRows(prev))
	// R1 sorts before R2, whatever the argument order
	expectLock(mock, "R1", "2024-05-01")
	expectLock(mock, "R2", "2024-05-02")
	mock.ExpectQuery(regexp.QuoteMeta(sqlDayList)).WithArgs("R1", "2024-05-01").WillReturnRows(bookingRows())
	mock.ExpectExec(regexp.QuoteMeta(sqlUpdate)).
		WithArgs("R1", "2024-05-01", "10:00", "11:00", "ani", "Keuangan", next.UpdatedAt, "bk-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	gotPrev, updated, err := repo.Replace(context.Background(), "bk-1", next, func([]booking.Booking) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, prev, gotPrev)
	assert.Equal(t, "bk-1", updated.ID)
	assert.Equal(t, prev.CreatedAt, updated.CreatedAt)
	assert.Equal(t, "R1", updated.Room)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepoReplaceSameDayLocksOnce(t *testing.T) {
	repo, mock := newMockRepo(t)
	prev := sampleBooking("bk-1", "R1", "2024-05-01", "08:00", "09:00")
	next := sampleBooking("", "R1", "2024-05-01", "08:00", "10:00")

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(sqlByIDLock)).WithArgs("bk-1").WillReturnRows(bookingRows(prev))
	expectLock(mock, "R1", "2024-05-01")
	mock.ExpectQuery(regexp.QuoteMeta(sqlDayList)).WithArgs("R1", "2024-05-01").WillReturnRows(bookingRows(prev))
	mock.ExpectExec(regexp.QuoteMeta(sqlUpdate)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, _, err := repo.Replace(context.Background(), "bk-1", next, func([]booking.Booking) error { return nil })
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepoDeleteByID(t *testing.T) {
	repo, mock := newMockRepo(t)
	b := sampleBooking("bk-1", "R1", "2024-05-01", "08:00", "09:00")

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(sqlByIDLock)).WithArgs("bk-1").WillReturnRows(bookingRows(b))
	mock.ExpectExec(regexp.QuoteMeta(sqlDelete)).WithArgs("bk-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	got, found, err := repo.DeleteByID(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, b, got)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(sqlByIDLock)).WithArgs("bk-1").WillReturnRows(bookingRows())
	mock.ExpectRollback()

	_, found, err = repo.DeleteByID(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepoGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE id = ?")).WithArgs("x").WillReturnRows(bookingRows())

	_, err := repo.GetByID(context.Background(), "x")
	assert.ErrorIs(t, err, booking.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
