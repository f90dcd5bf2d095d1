package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/iliyamo/room-booking/internal/booking"
	"github.com/iliyamo/room-booking/internal/model"
)

// BookingRepo stores bookings in MySQL.  Writers serialise per room and
// day by locking the matching booking_days row with SELECT ... FOR UPDATE
// inside the write transaction, so a conflict check and the insert that
// follows it cannot interleave with another writer for the same day.  The
// uq_bookings_slot unique key remains the last line of defence.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, room, booking_date, start_time, end_time, pic, unit_kerja, created_at, updated_at`

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func scanBookings(rows *sql.Rows) ([]model.Booking, error) {
	defer rows.Close()
	out := []model.Booking{} // empty slice, not nil, so JSON encodes []
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(&b.ID, &b.Room, &b.Date, &b.StartTime, &b.EndTime, &b.PIC, &b.UnitKerja, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil { // iteration error, e.g. dropped connection
		return nil, err
	}
	return out, nil
}

func listBookings(ctx context.Context, q queryer, where string, args ...any) ([]model.Booking, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+bookingColumns+` FROM bookings `+where, args...)
	if err != nil {
		return nil, err
	}
	return scanBookings(rows)
}

// ListByRoomDate returns every booking of room on date ordered by start time.
func (r *BookingRepo) ListByRoomDate(ctx context.Context, room, date string) ([]model.Booking, error) {
	return listBookings(ctx, r.db, `WHERE room = ? AND booking_date = ? ORDER BY start_time`, room, date)
}

// ListByPIC returns the bookings of one requester, newest day first.
func (r *BookingRepo) ListByPIC(ctx context.Context, pic string) ([]model.Booking, error) {
	return listBookings(ctx, r.db, `WHERE pic = ? ORDER BY booking_date DESC, start_time`, pic)
}

// ListAll returns every booking, newest day first.
func (r *BookingRepo) ListAll(ctx context.Context) ([]model.Booking, error) {
	return listBookings(ctx, r.db, `ORDER BY booking_date DESC, start_time, room`)
}

// GetByID returns booking id or booking.ErrNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id string) (model.Booking, error) {
	bs, err := listBookings(ctx, r.db, `WHERE id = ?`, id)
	if err != nil {
		return model.Booking{}, err
	}
	if len(bs) == 0 {
		return model.Booking{}, booking.ErrNotFound
	}
	return bs[0], nil
}

// Insert locks the booking's day, runs check on the bookings already
// stored for it and inserts b when check passes.
func (r *BookingRepo) Insert(ctx context.Context, b model.Booking, check booking.CheckFunc) (model.Booking, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Booking{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback() // any early return undoes the lock row insert too
		}
	}()

	if err := lockDays(ctx, tx, dayKey{b.Room, b.Date}); err != nil { // serialise writers of this room/day
		return model.Booking{}, err
	}
	if err := runCheck(ctx, tx, b.Room, b.Date, check); err != nil { // overlap with a stored booking
		return model.Booking{}, err
	}
	const q = `INSERT INTO bookings (id, room, booking_date, start_time, end_time, pic, unit_kerja, created_at, updated_at)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, q, b.ID, b.Room, b.Date, b.StartTime, b.EndTime, b.PIC, b.UnitKerja, b.CreatedAt, b.UpdatedAt); err != nil {
		return model.Booking{}, translateWriteErr(err) // 1062 becomes ErrConflict
	}
	if err := tx.Commit(); err != nil {
		return model.Booking{}, err
	}
	committed = true // the deferred rollback is now a no-op
	return b, nil
}

// Replace overwrites booking id with next after check passes against the
// bookings of next's day.  Both the old and the new day are locked so a
// move between days cannot race with writers on either.
func (r *BookingRepo) Replace(ctx context.Context, id string, next model.Booking, check booking.CheckFunc) (model.Booking, model.Booking, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Booking{}, model.Booking{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	prevs, err := listBookings(ctx, tx, `WHERE id = ? FOR UPDATE`, id) // row lock on the booking itself
	if err != nil {
		return model.Booking{}, model.Booking{}, err
	}
	if len(prevs) == 0 {
		return model.Booking{}, model.Booking{}, booking.ErrNotFound
	}
	prev := prevs[0]

	if err := lockDays(ctx, tx, dayKey{prev.Room, prev.Date}, dayKey{next.Room, next.Date}); err != nil {
		return model.Booking{}, model.Booking{}, err
	}
	if err := runCheck(ctx, tx, next.Room, next.Date, check); err != nil {
		return model.Booking{}, model.Booking{}, err
	}
	const q = `UPDATE bookings
               SET room = ?, booking_date = ?, start_time = ?, end_time = ?, pic = ?, unit_kerja = ?, updated_at = ?
               WHERE id = ?`
	if _, err := tx.ExecContext(ctx, q, next.Room, next.Date, next.StartTime, next.EndTime, next.PIC, next.UnitKerja, next.UpdatedAt, id); err != nil {
		return model.Booking{}, model.Booking{}, translateWriteErr(err)
	}
	if err := tx.Commit(); err != nil {
		return model.Booking{}, model.Booking{}, err
	}
	committed = true
	next.ID = id                    // id never changes
	next.CreatedAt = prev.CreatedAt // creation time survives edits
	return prev, next, nil
}

// DeleteMatch removes the booking whose fields all equal m.  found is
// false when nothing matched.
func (r *BookingRepo) DeleteMatch(ctx context.Context, m booking.Match) (model.Booking, bool, error) {
	where := `WHERE room = ? AND booking_date = ? AND start_time = ? AND end_time = ? AND pic = ?`
	args := []any{m.Room, m.Date, m.StartTime, m.EndTime, m.PIC}
	if m.UnitKerja != "" {
		where += ` AND unit_kerja = ?`
		args = append(args, m.UnitKerja)
	}
	return r.deleteOne(ctx, where+` LIMIT 1 FOR UPDATE`, args...)
}

// DeleteByID removes booking id.  found is false when it does not exist.
func (r *BookingRepo) DeleteByID(ctx context.Context, id string) (model.Booking, bool, error) {
	return r.deleteOne(ctx, `WHERE id = ? FOR UPDATE`, id)
}

func (r *BookingRepo) deleteOne(ctx context.Context, where string, args ...any) (model.Booking, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Booking{}, false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	bs, err := listBookings(ctx, tx, where, args...)
	if err != nil {
		return model.Booking{}, false, err
	}
	if len(bs) == 0 {
		return model.Booking{}, false, nil
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, bs[0].ID)
	if err != nil {
		return model.Booking{}, false, err
	}
	if n, _ := res.RowsAffected(); n == 0 { // removed between select and delete
		return model.Booking{}, false, nil
	}
	if err := tx.Commit(); err != nil {
		return model.Booking{}, false, err
	}
	committed = true
	return bs[0], true, nil
}

type dayKey struct{ room, date string }

// lockDays takes the per-day write locks in a fixed order so two
// transactions touching the same pair of days cannot deadlock.
func lockDays(ctx context.Context, tx *sql.Tx, keys ...dayKey) error {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].room != keys[j].room {
			return keys[i].room < keys[j].room
		}
		return keys[i].date < keys[j].date
	})
	var last *dayKey
	for i := range keys {
		k := keys[i]
		if last != nil && *last == k { // same day twice: lock once
			continue
		}
		last = &keys[i]
		// make sure the lock row exists, then take it
		if _, err := tx.ExecContext(ctx, `INSERT IGNORE INTO booking_days (room, booking_date) VALUES (?, ?)`, k.room, k.date); err != nil {
			return fmt.Errorf("lock day %s/%s: %w", k.room, k.date, err)
		}
		var room string
		err := tx.QueryRowContext(ctx, `SELECT room FROM booking_days WHERE room = ? AND booking_date = ? FOR UPDATE`, k.room, k.date).Scan(&room)
		if err != nil {
			return fmt.Errorf("lock day %s/%s: %w", k.room, k.date, err)
		}
	}
	return nil
}

func runCheck(ctx context.Context, tx *sql.Tx, room, date string, check booking.CheckFunc) error {
	if check == nil { // plain write, nothing to verify
		return nil
	}
	existing, err := listBookings(ctx, tx, `WHERE room = ? AND booking_date = ?`, room, date)
	if err != nil {
		return err
	}
	return check(existing)
}

func translateWriteErr(err error) error {
	if isDuplicateKey(err) {
		return fmt.Errorf("%w: slot already stored", booking.ErrConflict)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return booking.ErrNotFound
	}
	return err
}
