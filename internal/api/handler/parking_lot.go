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

type ParkingLotHandler struct {
	lotService     *service.LotService
	bookingService *service.BookingService
}

func NewParkingLotHandler(ls *service.LotService, bs *service.BookingService) *ParkingLotHandler {
	return &ParkingLotHandler{lotService: ls, bookingService: bs}
}

// POST /parking-lots
func (h *ParkingLotHandler) CreateParkingLot(c *gin.Context) {
	var dto domain.ParkingLotDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ownerID, _ := middleware.Principal(c)
	lot, err := h.lotService.CreateLot(c.Request.Context(), ownerID, dto)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create parking lot", "details": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, lot)
}

// GET /parking-lots/:id
func (h *ParkingLotHandler) GetParkingLotByID(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid parking lot id"})
		return
	}

	lot, err := h.lotService.GetLotByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "parking lot not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch parking lot"})
		return
	}
	c.JSON(http.StatusOK, lot)
}

// GET /parking-lots
func (h *ParkingLotHandler) GetAllParkingLots(c *gin.Context) {
	lots, err := h.lotService.GetAllLots(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list parking lots"})
		return
	}
	c.JSON(http.StatusOK, lots)
}

// GET /parking-lots/mine
func (h *ParkingLotHandler) GetOwnParkingLots(c *gin.Context) {
	ownerID, _ := middleware.Principal(c)
	lots, err := h.lotService.GetLotsByOwner(c.Request.Context(), ownerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list parking lots"})
		return
	}
	c.JSON(http.StatusOK, lots)
}

// GET /parking-lots/search?q=&lat=&lng=&radius_km=
func (h *ParkingLotHandler) SearchParkingLots(c *gin.Context) {
	var filter domain.LotSearchDTO
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lots, err := h.lotService.SearchLots(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not search parking lots", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, lots)
}

// PUT /parking-lots/:id
func (h *ParkingLotHandler) UpdateParkingLot(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid parking lot id"})
		return
	}

	var dto domain.ParkingLotPatchDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	principalID, role := middleware.Principal(c)
	lot, err := h.lotService.UpdateLot(c.Request.Context(), id, principalID, role, dto)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "parking lot not found"})
		case errors.Is(err, service.ErrNotLotOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		case errors.Is(err, repository.ErrDuplicateEntry):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update parking lot", "details": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, lot)
}

// DELETE /parking-lots/:id
func (h *ParkingLotHandler) DeleteParkingLot(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid parking lot id"})
		return
	}

	principalID, role := middleware.Principal(c)
	err = h.lotService.DeleteLot(c.Request.Context(), id, principalID, role)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "parking lot not found"})
		case errors.Is(err, service.ErrNotLotOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrLotInUse):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete parking lot", "details": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "parking lot deleted"})
}

// GET /parking-lots/:id/bookings?status=
func (h *ParkingLotHandler) GetLotBookings(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid parking lot id"})
		return
	}

	lot, err := h.lotService.GetLotByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "parking lot not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch parking lot"})
		return
	}

	principalID, role := middleware.Principal(c)
	if role != domain.RoleAdmin && !(lot.OwnerID.Valid && int(lot.OwnerID.Int64) == principalID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied (not the lot owner)"})
		return
	}

	var statusFilter *domain.BookingStatus
	if statusStr := c.Query("status"); statusStr != "" {
		status, err := domain.ParseBookingStatus(statusStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		statusFilter = &status
	}

	bookings, err := h.bookingService.ListBookingsByLot(c.Request.Context(), id, statusFilter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list bookings for lot"})
		return
	}
	c.JSON(http.StatusOK, bookings)
}
