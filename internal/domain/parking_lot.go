package domain

import (
	"errors"
	"time"

	"gopkg.in/guregu/null.v4"
)

var ErrCapacityExceeded = errors.New("parking lot has no available slots")
var ErrCapacityUnderflow = errors.New("available slots would drop below zero")

type ParkingLot struct {
	ID             int        `json:"id"`
	Name           string     `json:"name" binding:"required"`
	Location       string     `json:"location,omitempty"`
	Longitude      null.Float `json:"longitude"`
	Latitude       null.Float `json:"latitude"`
	TotalSlots     int        `json:"total_slots"`
	AvailableSlots int        `json:"available_slots"`
	PricePerHour   float64    `json:"price_per_hour"`
	OperatingHours string     `json:"operating_hours,omitempty"`
	OwnerID        null.Int   `json:"owner_id"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ApplyDelta adjusts AvailableSlots by delta while keeping it inside
// [0, TotalSlots]. Increments are clamped to TotalSlots when clampHigh is set,
// because compensating increments (cancellation, deletion) must not fail the
// operation that triggered them. Decrements below zero always fail.
func (l *ParkingLot) ApplyDelta(delta int, clampHigh bool) error {
	next := l.AvailableSlots + delta
	if next < 0 {
		if l.AvailableSlots == 0 && delta < 0 {
			return ErrCapacityExceeded
		}
		return ErrCapacityUnderflow
	}
	if next > l.TotalSlots {
		if !clampHigh {
			return ErrCapacityExceeded
		}
		next = l.TotalSlots
	}
	l.AvailableSlots = next
	return nil
}

type ParkingLotDTO struct {
	Name           string   `json:"name" binding:"required"`
	Location       string   `json:"location"`
	Longitude      *float64 `json:"longitude"`
	Latitude       *float64 `json:"latitude"`
	TotalSlots     int      `json:"total_slots" binding:"min=0"`
	AvailableSlots *int     `json:"available_slots"` // defaults to total_slots
	PricePerHour   float64  `json:"price_per_hour" binding:"min=0"`
	OperatingHours string   `json:"operating_hours"`
}

// ParkingLotPatchDTO enumerates the fields an owner may change after
// creation. available_slots is deliberately absent: the booking coordinator
// owns that counter.
type ParkingLotPatchDTO struct {
	Name           *string  `json:"name"`
	Location       *string  `json:"location"`
	Longitude      *float64 `json:"longitude"`
	Latitude       *float64 `json:"latitude"`
	TotalSlots     *int     `json:"total_slots"`
	PricePerHour   *float64 `json:"price_per_hour"`
	OperatingHours *string  `json:"operating_hours"`
}

type LotSearchDTO struct {
	Query     string   `form:"q"`
	Latitude  *float64 `form:"lat"`
	Longitude *float64 `form:"lng"`
	RadiusKm  *float64 `form:"radius_km"`
}

// HasNear reports whether the filter carries a complete geospatial query.
func (f LotSearchDTO) HasNear() bool {
	return f.Latitude != nil && f.Longitude != nil
}

type LotAvailabilityNotification struct {
	LotID          int `json:"lot_id"`
	AvailableSlots int `json:"available_slots"`
	TotalSlots     int `json:"total_slots"`
}
