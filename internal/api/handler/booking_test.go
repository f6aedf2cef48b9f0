package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anand-babu-0003/ParkWise-sub000/internal/api/handler"
	"github.com/anand-babu-0003/ParkWise-sub000/internal/api/middleware"
	"github.com/anand-babu-0003/ParkWise-sub000/internal/domain"
	"github.com/anand-babu-0003/ParkWise-sub000/internal/repository"
	"github.com/anand-babu-0003/ParkWise-sub000/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v4"
)

// stubLotRepo is a minimal in-memory ParkingLotRepository for routing through
// real services in handler tests.
type stubLotRepo struct {
	lots   map[int]*domain.ParkingLot
	nextID int
}

func newStubLotRepo() *stubLotRepo {
	return &stubLotRepo{lots: make(map[int]*domain.ParkingLot), nextID: 1}
}

func (r *stubLotRepo) seed(lot domain.ParkingLot) *domain.ParkingLot {
	lot.ID = r.nextID
	r.nextID++
	r.lots[lot.ID] = &lot
	return &lot
}

func (r *stubLotRepo) Create(_ context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error) {
	created := r.seed(*lot)
	*lot = *created
	return lot, nil
}

func (r *stubLotRepo) FindByID(_ context.Context, id int) (*domain.ParkingLot, error) {
	lot, ok := r.lots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *lot
	return &cp, nil
}

func (r *stubLotRepo) FindAll(_ context.Context) ([]domain.ParkingLot, error) {
	var out []domain.ParkingLot
	for _, lot := range r.lots {
		out = append(out, *lot)
	}
	return out, nil
}

func (r *stubLotRepo) FindByOwnerID(_ context.Context, ownerID int) ([]domain.ParkingLot, error) {
	var out []domain.ParkingLot
	for _, lot := range r.lots {
		if lot.OwnerID.Valid && int(lot.OwnerID.Int64) == ownerID {
			out = append(out, *lot)
		}
	}
	return out, nil
}

func (r *stubLotRepo) Search(ctx context.Context, _ domain.LotSearchDTO) ([]domain.ParkingLot, error) {
	return r.FindAll(ctx)
}

func (r *stubLotRepo) Update(_ context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error) {
	if _, ok := r.lots[lot.ID]; !ok {
		return nil, repository.ErrNotFound
	}
	cp := *lot
	r.lots[lot.ID] = &cp
	return lot, nil
}

func (r *stubLotRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.lots[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.lots, id)
	return nil
}

func (r *stubLotRepo) AdjustAvailable(_ context.Context, id int, delta int) (int, error) {
	lot, ok := r.lots[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	if err := lot.ApplyDelta(delta, delta > 0); err != nil {
		return 0, err
	}
	return lot.AvailableSlots, nil
}

func (r *stubLotRepo) Recount(_ context.Context, id int) (int, error) {
	lot, ok := r.lots[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	return lot.AvailableSlots, nil
}

type stubBookingRepo struct {
	bookings map[int]*domain.Booking
	nextID   int
}

func newStubBookingRepo() *stubBookingRepo {
	return &stubBookingRepo{bookings: make(map[int]*domain.Booking), nextID: 1}
}

func (r *stubBookingRepo) seed(booking domain.Booking) *domain.Booking {
	booking.ID = r.nextID
	r.nextID++
	r.bookings[booking.ID] = &booking
	return &booking
}

func (r *stubBookingRepo) Create(_ context.Context, booking *domain.Booking) (*domain.Booking, error) {
	created := r.seed(*booking)
	*booking = *created
	return booking, nil
}

func (r *stubBookingRepo) FindByID(_ context.Context, id int) (*domain.Booking, error) {
	booking, ok := r.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *booking
	return &cp, nil
}

func (r *stubBookingRepo) FindByReference(_ context.Context, reference string) (*domain.Booking, error) {
	for _, booking := range r.bookings {
		if booking.Reference == reference {
			cp := *booking
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubBookingRepo) FindByUserID(_ context.Context, userID int) ([]domain.Booking, error) {
	var out []domain.Booking
	for _, booking := range r.bookings {
		if booking.UserID == userID {
			out = append(out, *booking)
		}
	}
	return out, nil
}

func (r *stubBookingRepo) FindByLotID(_ context.Context, lotID int, status *domain.BookingStatus) ([]domain.Booking, error) {
	var out []domain.Booking
	for _, booking := range r.bookings {
		if booking.LotID == lotID && (status == nil || booking.Status == *status) {
			out = append(out, *booking)
		}
	}
	return out, nil
}

func (r *stubBookingRepo) FindAll(_ context.Context) ([]domain.Booking, error) {
	var out []domain.Booking
	for _, booking := range r.bookings {
		out = append(out, *booking)
	}
	return out, nil
}

func (r *stubBookingRepo) CountConfirmedByLot(_ context.Context, lotID int) (int, error) {
	count := 0
	for _, booking := range r.bookings {
		if booking.LotID == lotID && booking.Status == domain.BookingConfirmed {
			count++
		}
	}
	return count, nil
}

func (r *stubBookingRepo) Update(_ context.Context, booking *domain.Booking) (*domain.Booking, error) {
	if _, ok := r.bookings[booking.ID]; !ok {
		return nil, repository.ErrNotFound
	}
	cp := *booking
	r.bookings[booking.ID] = &cp
	return booking, nil
}

func (r *stubBookingRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.bookings[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.bookings, id)
	return nil
}

type handlerFixture struct {
	lots     *stubLotRepo
	bookings *stubBookingRepo
	bookingH *handler.BookingHandler
	lotH     *handler.ParkingLotHandler
}

func newHandlerFixture() *handlerFixture {
	lots := newStubLotRepo()
	bookings := newStubBookingRepo()
	bookingService := service.NewBookingService(bookings, lots, service.NewStubPaymentAuthorizer(), nil)
	lotService := service.NewLotService(lots, bookings)
	return &handlerFixture{
		lots:     lots,
		bookings: bookings,
		bookingH: handler.NewBookingHandler(bookingService, service.NewQRService()),
		lotH:     handler.NewParkingLotHandler(lotService, bookingService),
	}
}

// asPrincipal stands in for the JWT middleware: it stores the resolved
// principal directly in the gin context.
func asPrincipal(userID int, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID)
		c.Set(middleware.UserRoleKey, role)
		c.Set(middleware.UsernameKey, "tester")
	}
}

func (f *handlerFixture) router(userID int, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("/api/v1", asPrincipal(userID, role))
	g.POST("/bookings", f.bookingH.CreateBooking)
	g.GET("/bookings/:id", f.bookingH.GetBookingByID)
	g.GET("/bookings/by-reference/:reference", f.bookingH.GetBookingByReference)
	g.GET("/parking-lots/:id/bookings", f.lotH.GetLotBookings)
	return r
}

func doRequest(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func (f *handlerFixture) seedLotAndBooking(ownerID, bookerID int) (*domain.ParkingLot, *domain.Booking) {
	lot := f.lots.seed(domain.ParkingLot{
		Name:           "Central Garage",
		TotalSlots:     10,
		AvailableSlots: 9,
		PricePerHour:   2.5,
		OwnerID:        null.IntFrom(int64(ownerID)),
	})
	booking := f.bookings.seed(domain.Booking{
		Reference: "11111111-2222-3333-4444-555555555555",
		UserID:    bookerID,
		LotID:     lot.ID,
		LotName:   lot.Name,
		Date:      "2026-09-10",
		Time:      "09:00",
		Status:    domain.BookingConfirmed,
		Price:     2.5,
	})
	return lot, booking
}

func TestGetBooking_DeniedForOtherUser(t *testing.T) {
	f := newHandlerFixture()
	_, booking := f.seedLotAndBooking(10, 1)

	w := doRequest(t, f.router(2, domain.RoleDriver), http.MethodGet, "/api/v1/bookings/1", nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	// the owner of the booking still gets through
	w = doRequest(t, f.router(booking.UserID, domain.RoleDriver), http.MethodGet, "/api/v1/bookings/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestGetBooking_AdminReadsAny(t *testing.T) {
	f := newHandlerFixture()
	_, booking := f.seedLotAndBooking(10, 1)

	w := doRequest(t, f.router(99, domain.RoleAdmin), http.MethodGet, "/api/v1/bookings/1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got domain.Booking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Equal(t, booking.ID, got.ID)
	require.Equal(t, booking.UserID, got.UserID)
}

func TestCreateBooking_BindsPrincipalUserID(t *testing.T) {
	f := newHandlerFixture()
	lot := f.lots.seed(domain.ParkingLot{
		Name:           "Harbor Lot",
		TotalSlots:     4,
		AvailableSlots: 4,
		PricePerHour:   3,
		OwnerID:        null.IntFrom(10),
	})

	// the payload carries no user identity; the principal does
	w := doRequest(t, f.router(5, domain.RoleDriver), http.MethodPost, "/api/v1/bookings", gin.H{
		"lot_id": lot.ID,
		"date":   "2026-09-12",
		"time":   "14:00",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var got domain.Booking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Equal(t, 5, got.UserID)
	require.Equal(t, domain.BookingConfirmed, got.Status)
	require.Equal(t, 3, f.lots.lots[lot.ID].AvailableSlots)
}

func TestGetLotBookings_OwnerOnly(t *testing.T) {
	f := newHandlerFixture()
	lot, _ := f.seedLotAndBooking(10, 1)
	path := "/api/v1/parking-lots/1/bookings"
	require.Equal(t, 1, lot.ID)

	w := doRequest(t, f.router(11, domain.RoleOwner), http.MethodGet, path, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(t, f.router(10, domain.RoleOwner), http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got []domain.Booking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)

	w = doRequest(t, f.router(99, domain.RoleAdmin), http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestGetBookingByReference(t *testing.T) {
	f := newHandlerFixture()
	_, booking := f.seedLotAndBooking(10, 1)
	path := "/api/v1/bookings/by-reference/" + booking.Reference

	w := doRequest(t, f.router(booking.UserID, domain.RoleDriver), http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got domain.Booking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Equal(t, booking.ID, got.ID)

	w = doRequest(t, f.router(2, domain.RoleDriver), http.MethodGet, path, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(t, f.router(99, domain.RoleAdmin), http.MethodGet, "/api/v1/bookings/by-reference/unknown-ref", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}
