package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-booking/internal/availability"
	"github.com/iliyamo/room-booking/internal/booking"
	"github.com/iliyamo/room-booking/internal/middleware"
)

// BookingHandler exposes the booking lifecycle over HTTP.  Side effects of
// committed changes are handed to Effects after the store has committed.
type BookingHandler struct {
	Bookings *booking.Manager
	Effects  booking.Dispatcher
}

func NewBookingHandler(m *booking.Manager, d booking.Dispatcher) *BookingHandler {
	if m == nil || d == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{Bookings: m, Effects: d}
}

type availabilityReq struct {
	Room    string `json:"room" query:"room"`
	Date    string `json:"date" query:"date"`
	Editing string `json:"editing" query:"editing"`
}

type availabilityResp struct {
	Room      string                  `json:"room"`
	Date      string                  `json:"date"`
	Available []availability.Interval `json:"available"`
}

// Rooms handles GET /v1/rooms.
func (h *BookingHandler) Rooms(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"rooms":        h.Bookings.Rooms(),
		"workingHours": h.Bookings.WorkingHours(),
	})
}

// Availability handles GET /v1/availability?room=&date=[&editing=id].
func (h *BookingHandler) Availability(c echo.Context) error {
	req := availabilityReq{
		Room:    c.QueryParam("room"),
		Date:    c.QueryParam("date"),
		Editing: c.QueryParam("editing"),
	}
	return h.availability(c, req)
}

// CheckAvailability handles POST /v1/check-availability with a JSON body.
func (h *BookingHandler) CheckAvailability(c echo.Context) error {
	var req availabilityReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	return h.availability(c, req)
}

func (h *BookingHandler) availability(c echo.Context, req availabilityReq) error {
	var (
		free []availability.Interval
		err  error
	)
	if strings.TrimSpace(req.Editing) != "" {
		free, err = h.Bookings.AvailabilityForEdit(c.Request().Context(), req.Room, req.Date, req.Editing)
	} else {
		free, err = h.Bookings.Availability(c.Request().Context(), req.Room, req.Date)
	}
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, availabilityResp{
		Room:      strings.TrimSpace(req.Room),
		Date:      strings.TrimSpace(req.Date),
		Available: free,
	})
}

// Create handles POST /v1/bookings.  The caller is always the PIC.
func (h *BookingHandler) Create(c echo.Context) error {
	var req booking.Request
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid body"})
	}
	req.PIC = middleware.Username(c)
	out, err := h.Bookings.Create(c.Request().Context(), req)
	if err != nil {
		return bookingError(c, err)
	}
	h.Effects.Dispatch(c.Request().Context(), out.Batch())
	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"message": "booking created",
		"booking": out.Booking,
	})
}

// Update handles PUT /v1/bookings/:id.  The booking keeps the PIC it was
// made under, whoever edits it.
func (h *BookingHandler) Update(c echo.Context) error {
	var req booking.Request
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid body"})
	}
	ctx := c.Request().Context()
	current, err := h.Bookings.Get(ctx, c.Param("id")) // 404 before validating the body
	if err != nil {
		return bookingError(c, err)
	}
	req.PIC = current.PIC // a body "pic" is ignored; ownership never moves
	out, err := h.Bookings.Update(ctx, c.Param("id"), req)
	if err != nil {
		return bookingError(c, err)
	}
	h.Effects.Dispatch(c.Request().Context(), out.Batch())
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "booking updated",
		"booking": out.Booking,
	})
}

// Cancel handles POST /v1/bookings/cancel, matching on every field.  The
// PIC defaults to the caller.
func (h *BookingHandler) Cancel(c echo.Context) error {
	var m booking.Match
	if err := c.Bind(&m); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid body"})
	}
	if strings.TrimSpace(m.PIC) == "" {
		m.PIC = middleware.Username(c)
	}
	out, found, err := h.Bookings.Cancel(c.Request().Context(), m)
	return h.cancelled(c, out, found, err)
}

// CancelByID handles DELETE /v1/bookings/:id.
func (h *BookingHandler) CancelByID(c echo.Context) error {
	out, found, err := h.Bookings.CancelByID(c.Request().Context(), c.Param("id"))
	return h.cancelled(c, out, found, err)
}

func (h *BookingHandler) cancelled(c echo.Context, out booking.Outcome, found bool, err error) error {
	if err != nil {
		return bookingError(c, err)
	}
	if !found {
		return c.JSON(http.StatusOK, echo.Map{"success": false, "message": "booking not found"})
	}
	h.Effects.Dispatch(c.Request().Context(), out.Batch())
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "booking cancelled",
		"booking": out.Booking,
	})
}

// Get handles GET /v1/bookings/:id.
func (h *BookingHandler) Get(c echo.Context) error {
	b, err := h.Bookings.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// List handles GET /v1/bookings.
func (h *BookingHandler) List(c echo.Context) error {
	bs, err := h.Bookings.List(c.Request().Context())
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, bs)
}

// Mine handles GET /v1/my-bookings.
func (h *BookingHandler) Mine(c echo.Context) error {
	bs, err := h.Bookings.ListForUser(c.Request().Context(), middleware.Username(c))
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, bs)
}

// bookingError maps booking sentinels to HTTP responses.
func bookingError(c echo.Context, err error) error {
	var ce *booking.ConflictError
	switch {
	case errors.As(err, &ce):
		return c.JSON(http.StatusConflict, echo.Map{
			"success":  false,
			"error":    "time slot already booked",
			"conflict": ce.With,
		})
	case errors.Is(err, booking.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"success": false, "error": "time slot already booked"})
	case errors.Is(err, booking.ErrBadInput):
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": err.Error()})
	case errors.Is(err, booking.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "error": "booking not found"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "storage failure"})
	}
}
