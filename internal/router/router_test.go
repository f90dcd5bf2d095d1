package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/room-booking/internal/availability"
	"github.com/iliyamo/room-booking/internal/booking"
	"github.com/iliyamo/room-booking/internal/config"
	"github.com/iliyamo/room-booking/internal/effects"
	"github.com/iliyamo/room-booking/internal/handler"
	"github.com/iliyamo/room-booking/internal/repository"
)

func newServer(t *testing.T) *echo.Echo {
	t.Helper()
	cfg := config.Config{JWTSecret: "secret", AccessTTLMin: 5, RefreshTTLDays: 1, BcryptCost: 4}
	m := booking.NewManager(repository.NewMemoryBookingRepo(), booking.Config{
		WorkingHours: availability.Interval{Start: "07:30", End: "17:00"},
		Rooms:        []string{"Ruang Kelas 1"},
	})
	d := Deps{
		JWTSecret: cfg.JWTSecret,
		Auth:      handler.NewAuthHandler(cfg, repository.NewMemoryUserRepo(), repository.NewMemoryTokenRepo()),
		Bookings:  handler.NewBookingHandler(m, effects.NewExecutor(nil, nil)),
	}
	e := echo.New()
	RegisterRoutes(e)
	RegisterAuth(e, d)
	RegisterBookings(e, d)
	return e
}

func call(e *echo.Echo, method, path, body, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestPublicAndProtectedRoutes(t *testing.T) {
	e := newServer(t)

	assert.Equal(t, http.StatusOK, call(e, http.MethodGet, "/healthz", "", "").Code)
	assert.Equal(t, http.StatusOK, call(e, http.MethodGet, "/v1/rooms", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, call(e, http.MethodGet, "/v1/my-bookings", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, call(e, http.MethodPost, "/v1/bookings", "{}", "").Code)
}

func TestRegisterThenBook(t *testing.T) {
	e := newServer(t)

	rec := call(e, http.MethodPost, "/v1/auth/register", `{"username":"ani","email":"ani@example.com","password":"secret1"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	token := extract(rec.Body.String(), `"access":{"token":"`)

	rec = call(e, http.MethodPost, "/v1/bookings",
		`{"room":"Ruang Kelas 1","date":"2024-05-01","startTime":"09:00","endTime":"10:00","unitKerja":"Keuangan"}`, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"pic":"ani"`)

	rec = call(e, http.MethodGet, "/v1/availability?room=Ruang+Kelas+1&date=2024-05-01", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `{"startTime":"10:00","endTime":"17:00"}`)
}

func extract(s, prefix string) string {
	i := strings.Index(s, prefix)
	if i < 0 {
		return ""
	}
	rest := s[i+len(prefix):]
	return rest[:strings.Index(rest, `"`)]
}
