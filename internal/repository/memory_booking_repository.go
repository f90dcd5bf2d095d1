package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/iliyamo/room-booking/internal/booking"
	"github.com/iliyamo/room-booking/internal/model"
)

// MemoryBookingRepo keeps bookings in process memory.  A single mutex
// serialises writers, which gives the same check-then-write atomicity the
// MySQL store gets from its per-day row lock.  It is meant for tests and
// single-instance demos; data is lost on restart.
type MemoryBookingRepo struct {
	mu   sync.RWMutex
	byID map[string]model.Booking
}

// NewMemoryBookingRepo returns an empty in-memory store.
func NewMemoryBookingRepo() *MemoryBookingRepo {
	return &MemoryBookingRepo{byID: make(map[string]model.Booking)}
}

// ListByRoomDate returns the bookings of room on date in no particular order.
func (r *MemoryBookingRepo) ListByRoomDate(_ context.Context, room, date string) ([]model.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.filter(func(b model.Booking) bool { return b.Room == room && b.Date == date }), nil
}

func (r *MemoryBookingRepo) ListByPIC(_ context.Context, pic string) ([]model.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.filter(func(b model.Booking) bool { return b.PIC == pic }), nil
}

func (r *MemoryBookingRepo) ListAll(_ context.Context) ([]model.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.filter(func(model.Booking) bool { return true }), nil
}

func (r *MemoryBookingRepo) GetByID(_ context.Context, id string) (model.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.byID[id]
	if !ok {
		return model.Booking{}, booking.ErrNotFound
	}
	return b, nil
}

func (r *MemoryBookingRepo) Insert(_ context.Context, b model.Booking, check booking.CheckFunc) (model.Booking, error) {
	r.mu.Lock() // held across check and write
	defer r.mu.Unlock()
	if err := r.checkSlot(b, check); err != nil {
		return model.Booking{}, err
	}
	if _, taken := r.byID[b.ID]; taken { // id generator collision
		return model.Booking{}, fmt.Errorf("duplicate booking id %s", b.ID)
	}
	r.byID[b.ID] = b
	return b, nil
}

func (r *MemoryBookingRepo) Replace(_ context.Context, id string, next model.Booking, check booking.CheckFunc) (model.Booking, model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, ok := r.byID[id]
	if !ok {
		return model.Booking{}, model.Booking{}, booking.ErrNotFound
	}
	next.ID = id                    // id never changes
	next.CreatedAt = prev.CreatedAt // keep creation time
	if err := r.checkSlot(next, check); err != nil {
		return model.Booking{}, model.Booking{}, err
	}
	r.byID[id] = next
	return prev, next, nil
}

func (r *MemoryBookingRepo) DeleteMatch(_ context.Context, m booking.Match) (model.Booking, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, b := range r.byID { // first match wins, like LIMIT 1 in MySQL
		if m.Matches(b) {
			delete(r.byID, id)
			return b, true, nil
		}
	}
	return model.Booking{}, false, nil
}

func (r *MemoryBookingRepo) DeleteByID(_ context.Context, id string) (model.Booking, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.byID[id]
	if !ok {
		return model.Booking{}, false, nil
	}
	delete(r.byID, id)
	return b, true, nil
}

// checkSlot runs the caller's check against the target day and then the
// store's own uniqueness rule.  Callers hold the write lock.
func (r *MemoryBookingRepo) checkSlot(b model.Booking, check booking.CheckFunc) error {
	day := r.filter(func(o model.Booking) bool { return o.Room == b.Room && o.Date == b.Date })
	if check != nil {
		if err := check(day); err != nil {
			return err
		}
	}
	for _, o := range day {
		if o.ID != b.ID && o.SameSlot(b) { // mirrors uq_bookings_slot
			return fmt.Errorf("%w: slot %s %s %s-%s already stored", booking.ErrConflict, b.Room, b.Date, b.StartTime, b.EndTime)
		}
	}
	return nil
}

func (r *MemoryBookingRepo) filter(keep func(model.Booking) bool) []model.Booking {
	out := []model.Booking{} // never nil
	for _, b := range r.byID {
		if keep(b) {
			out = append(out, b)
		}
	}
	return out
}
