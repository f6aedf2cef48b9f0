package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/anand-babu-0003/ParkWise-sub000/internal/api/middleware"
	"github.com/anand-babu-0003/ParkWise-sub000/internal/domain"
	"github.com/anand-babu-0003/ParkWise-sub000/internal/repository"
	"github.com/anand-babu-0003/ParkWise-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	bookingService *service.BookingService
	qrService      *service.QRService
}

func NewBookingHandler(bs *service.BookingService, qs *service.QRService) *BookingHandler {
	return &BookingHandler{bookingService: bs, qrService: qs}
}

// POST /bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var dto domain.CreateBookingDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// the resolved principal is trusted for user identity; the payload
	// cannot book on behalf of someone else
	userID, _ := middleware.Principal(c)
	booking, err := h.bookingService.CreateBooking(c.Request.Context(), userID, dto)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrCapacityExceeded):
			c.JSON(http.StatusConflict, gin.H{"error": "parking lot is full"})
		case errors.Is(err, service.ErrPaymentDeclined):
			c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create booking", "details": err.Error()})
		}
		return
	}
	c.JSON(http.StatusCreated, booking)
}

// GET /bookings
func (h *BookingHandler) ListOwnBookings(c *gin.Context) {
	userID, _ := middleware.Principal(c)
	bookings, err := h.bookingService.ListBookingsByUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list bookings"})
		return
	}
	c.JSON(http.StatusOK, bookings)
}

// GET /bookings/all (admin)
func (h *BookingHandler) ListAllBookings(c *gin.Context) {
	bookings, err := h.bookingService.ListAllBookings(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list bookings"})
		return
	}
	c.JSON(http.StatusOK, bookings)
}

// GET /bookings/:id
func (h *BookingHandler) GetBookingByID(c *gin.Context) {
	booking, ok := h.loadOwnedBooking(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, booking)
}

// PUT /bookings/:id
func (h *BookingHandler) UpdateBooking(c *gin.Context) {
	booking, ok := h.loadOwnedBooking(c)
	if !ok {
		return
	}

	var dto domain.UpdateBookingDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.bookingService.UpdateBooking(c.Request.Context(), booking.ID, dto)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
		case errors.Is(err, domain.ErrCapacityExceeded):
			c.JSON(http.StatusConflict, gin.H{"error": "parking lot is full, cannot re-confirm"})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not update booking", "details": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DELETE /bookings/:id
func (h *BookingHandler) DeleteBooking(c *gin.Context) {
	booking, ok := h.loadOwnedBooking(c)
	if !ok {
		return
	}

	if err := h.bookingService.DeleteBooking(c.Request.Context(), booking.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete booking", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "booking deleted"})
}

// GET /bookings/:id/qr
func (h *BookingHandler) GetBookingQR(c *gin.Context) {
	booking, ok := h.loadOwnedBooking(c)
	if !ok {
		return
	}

	png, err := h.qrService.TicketPNG(booking)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not render booking QR", "details": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// GET /bookings/by-reference/:reference
// Resolves the reference embedded in a scanned ticket QR.
func (h *BookingHandler) GetBookingByReference(c *gin.Context) {
	booking, err := h.bookingService.GetBookingByReference(c.Request.Context(), c.Param("reference"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch booking"})
		return
	}
	if !authorizeBookingAccess(c, booking) {
		return
	}
	c.JSON(http.StatusOK, booking)
}

// loadOwnedBooking resolves :id and enforces that the caller owns the booking
// or is an admin. On failure it writes the response and returns ok=false.
func (h *BookingHandler) loadOwnedBooking(c *gin.Context) (*domain.Booking, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return nil, false
	}

	booking, err := h.bookingService.GetBooking(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch booking"})
		return nil, false
	}
	if !authorizeBookingAccess(c, booking) {
		return nil, false
	}
	return booking, true
}

// authorizeBookingAccess enforces that the caller owns the booking or is an
// admin, writing the 403 response itself when not.
func authorizeBookingAccess(c *gin.Context, booking *domain.Booking) bool {
	principalID, role := middleware.Principal(c)
	if role != domain.RoleAdmin && booking.UserID != principalID {
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied (not your booking)"})
		return false
	}
	return true
}
