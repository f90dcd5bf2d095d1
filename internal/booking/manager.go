// Package booking runs the booking lifecycle: validation, conflict checks,
// persistence and the list of side effects each committed change requests.
//
// The Manager never talks to notification or ledger services itself.  Each
// mutation returns an Outcome whose Effects a Dispatcher executes after
// the change is committed, so a failing side effect can never undo or fail
// a booking.
package booking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/room-booking/internal/availability"
	"github.com/iliyamo/room-booking/internal/model"
)

// Config holds the per-deployment booking rules.
type Config struct {
	WorkingHours      availability.Interval
	Rooms             []string
	NotifyDestination string
}

// Outcome is a committed booking change plus the side effects it requests.
type Outcome struct {
	Action   string
	Booking  Booking
	Previous *Booking
	Effects  []model.Effect
	At       time.Time
}

// Batch packages the outcome's effects for a Dispatcher.
func (o Outcome) Batch() model.EffectBatch {
	return model.EffectBatch{Action: o.Action, BookingID: o.Booking.ID, Effects: o.Effects, OccurredAt: o.At}
}

// Manager orchestrates create, update and cancel against a Store.
type Manager struct {
	store Store
	calc  *availability.Calculator
	cfg   Config
	rooms map[string]struct{}
	newID func() string
	now   func() time.Time
}

// Option customises a Manager.
type Option func(*Manager)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }

// WithIDGenerator overrides how booking ids are minted.
func WithIDGenerator(gen func() string) Option { return func(m *Manager) { m.newID = gen } }

// NewManager builds a Manager over store using the rules in cfg.
func NewManager(store Store, cfg Config, opts ...Option) *Manager {
	if store == nil {
		panic("nil store passed to booking.NewManager")
	}
	m := &Manager{
		store: store,
		calc:  availability.NewCalculator(cfg.WorkingHours),
		cfg:   cfg,
		rooms: make(map[string]struct{}, len(cfg.Rooms)),
		newID: uuid.NewString,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, r := range cfg.Rooms {
		m.rooms[r] = struct{}{}
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Rooms lists the bookable rooms in configuration order.
func (m *Manager) Rooms() []string {
	out := make([]string, len(m.cfg.Rooms))
	copy(out, m.cfg.Rooms)
	return out
}

// WorkingHours returns the daily bookable window.
func (m *Manager) WorkingHours() availability.Interval { return m.calc.WorkingHours() }

// Availability returns the free slots of room on date.
func (m *Manager) Availability(ctx context.Context, room, date string) ([]availability.Interval, error) {
	room, date = strings.TrimSpace(room), strings.TrimSpace(date)
	if err := m.checkRoomDate(room, date); err != nil {
		return nil, err
	}
	existing, err := m.store.ListByRoomDate(ctx, room, date)
	if err != nil {
		return nil, m.storeErr("list bookings", err)
	}
	return m.calc.Compute(room, date, existing), nil
}

// AvailabilityForEdit returns the free slots of room on date with the
// edited booking's own slot added back when it lives on that room and
// date.
func (m *Manager) AvailabilityForEdit(ctx context.Context, room, date, bookingID string) ([]availability.Interval, error) {
	free, err := m.Availability(ctx, room, date)
	if err != nil || strings.TrimSpace(bookingID) == "" {
		return free, err
	}
	own, err := m.store.GetByID(ctx, strings.TrimSpace(bookingID))
	if err != nil {
		return nil, m.storeErr("load edited booking", err)
	}
	if own.Room != strings.TrimSpace(room) || own.Date != strings.TrimSpace(date) {
		return free, nil
	}
	return availability.WithOwnSlot(free, availability.BookingInterval(own)), nil
}

// Create validates and stores a new booking.
func (m *Manager) Create(ctx context.Context, in Request) (Outcome, error) {
	r, err := m.validate(in)
	if err != nil {
		return Outcome{}, err
	}
	now := m.now()
	b := Booking{
		ID:        m.newID(),
		Room:      r.Room,
		Date:      r.Date,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
		PIC:       r.PIC,
		UnitKerja: r.UnitKerja,
		CreatedAt: now,
		UpdatedAt: now,
	}
	saved, err := m.store.Insert(ctx, b, conflictCheck(b, ""))
	if err != nil {
		return Outcome{}, m.storeErr("insert booking", err)
	}
	return m.outcome(ActionCreated, saved, nil), nil
}

// Update overwrites every mutable field of booking id.  The conflict
// check ignores the booking itself, so it may shrink, grow or move within
// its own slot.  On conflict the stored booking is left untouched.
func (m *Manager) Update(ctx context.Context, id string, in Request) (Outcome, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Outcome{}, badInput("missing id")
	}
	r, err := m.validate(in)
	if err != nil {
		return Outcome{}, err
	}
	next := Booking{
		ID:        id,
		Room:      r.Room,
		Date:      r.Date,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
		PIC:       r.PIC,
		UnitKerja: r.UnitKerja,
		UpdatedAt: m.now(),
	}
	prev, updated, err := m.store.Replace(ctx, id, next, conflictCheck(next, id))
	if err != nil {
		return Outcome{}, m.storeErr("update booking", err)
	}
	return m.outcome(ActionUpdated, updated, &prev), nil
}

// Cancel deletes the booking matching every field of match.  A missing
// booking is a normal negative result: found is false and err is nil.
func (m *Manager) Cancel(ctx context.Context, match Match) (out Outcome, found bool, err error) {
	match = normaliseMatch(match)
	b, found, err := m.store.DeleteMatch(ctx, match)
	if err != nil {
		return Outcome{}, false, m.storeErr("delete booking", err)
	}
	if !found {
		return Outcome{}, false, nil
	}
	return m.outcome(ActionCancelled, b, nil), true, nil
}

// CancelByID deletes booking id, with the same not-found semantics as
// Cancel.
func (m *Manager) CancelByID(ctx context.Context, id string) (out Outcome, found bool, err error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Outcome{}, false, nil
	}
	b, found, err := m.store.DeleteByID(ctx, id)
	if err != nil {
		return Outcome{}, false, m.storeErr("delete booking", err)
	}
	if !found {
		return Outcome{}, false, nil
	}
	return m.outcome(ActionCancelled, b, nil), true, nil
}

// Get returns booking id.
func (m *Manager) Get(ctx context.Context, id string) (Booking, error) {
	b, err := m.store.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Booking{}, m.storeErr("get booking", err)
	}
	return b, nil
}

// ListForUser returns the bookings owned by pic, newest date first and
// by start time within a day.
func (m *Manager) ListForUser(ctx context.Context, pic string) ([]Booking, error) {
	pic = strings.TrimSpace(pic)
	if pic == "" {
		return []Booking{}, nil
	}
	bs, err := m.store.ListByPIC(ctx, pic)
	if err != nil {
		return nil, m.storeErr("list bookings", err)
	}
	return sortNewestFirst(bs), nil
}

// List returns every booking, newest date first.
func (m *Manager) List(ctx context.Context) ([]Booking, error) {
	bs, err := m.store.ListAll(ctx)
	if err != nil {
		return nil, m.storeErr("list bookings", err)
	}
	return sortNewestFirst(bs), nil
}

func (m *Manager) outcome(action string, b Booking, prev *Booking) Outcome {
	var p Booking
	if prev != nil {
		p = *prev
	}
	return Outcome{
		Action:   action,
		Booking:  b,
		Previous: prev,
		Effects:  m.effectsFor(action, b, p),
		At:       m.now(),
	}
}

func conflictCheck(b Booking, excludeID string) CheckFunc {
	cand := availability.Candidate{Room: b.Room, Date: b.Date, StartTime: b.StartTime, EndTime: b.EndTime}
	return func(existing []Booking) error {
		if c, ok := availability.FindConflict(cand, excludeID, existing); ok {
			return &ConflictError{With: c}
		}
		return nil
	}
}

// storeErr passes domain errors through and wraps everything else as a
// persistence failure.
func (m *Manager) storeErr(op string, err error) error {
	if errors.Is(err, ErrConflict) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrBadInput) {
		return err
	}
	logrus.WithError(err).WithField("op", op).Error("booking store failure")
	return fmt.Errorf("%w: %s: %v", ErrPersistence, op, err)
}

func normaliseMatch(m Match) Match {
	m.Room = strings.TrimSpace(m.Room)
	m.Date = strings.TrimSpace(m.Date)
	m.PIC = strings.TrimSpace(m.PIC)
	m.UnitKerja = strings.TrimSpace(m.UnitKerja)
	if t, err := availability.ParseClock(m.StartTime); err == nil {
		m.StartTime = t
	}
	if t, err := availability.ParseClock(m.EndTime); err == nil {
		m.EndTime = t
	}
	return m
}

func sortNewestFirst(bs []Booking) []Booking {
	if bs == nil {
		return []Booking{}
	}
	sort.SliceStable(bs, func(i, j int) bool {
		if bs[i].Date != bs[j].Date {
			return bs[i].Date > bs[j].Date
		}
		if bs[i].StartTime != bs[j].StartTime {
			return bs[i].StartTime < bs[j].StartTime
		}
		return bs[i].Room < bs[j].Room
	})
	return bs
}
