package domain

import (
	"fmt"
	"time"
)

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "Confirmed"
	BookingCompleted BookingStatus = "Completed"
	BookingCancelled BookingStatus = "Cancelled"
)

func ParseBookingStatus(s string) (BookingStatus, error) {
	switch BookingStatus(s) {
	case BookingConfirmed, BookingCompleted, BookingCancelled:
		return BookingStatus(s), nil
	}
	return "", fmt.Errorf("invalid booking status: %q", s)
}

// HoldsSlot reports whether a booking in this status holds one slot-counter
// unit on its lot. Only Confirmed does.
func (s BookingStatus) HoldsSlot() bool {
	return s == BookingConfirmed
}

// CounterDelta returns the available-slot adjustment for a transition from
// oldStatus to newStatus, keyed off the status persisted *before* the update.
//
//	Confirmed -> Cancelled  +1 (slot released)
//	Cancelled -> Confirmed  -1 (slot taken again)
//	Confirmed -> Completed   0 (terminal, counter-neutral)
//	same -> same             0 (idempotent re-apply)
//
// Any other pair is rejected: Completed is terminal and Cancelled cannot be
// completed without being re-confirmed first.
func CounterDelta(oldStatus, newStatus BookingStatus) (int, error) {
	if oldStatus == newStatus {
		return 0, nil
	}
	switch {
	case oldStatus == BookingConfirmed && newStatus == BookingCancelled:
		return 1, nil
	case oldStatus == BookingCancelled && newStatus == BookingConfirmed:
		return -1, nil
	case oldStatus == BookingConfirmed && newStatus == BookingCompleted:
		return 0, nil
	}
	return 0, fmt.Errorf("invalid booking status transition: %s -> %s", oldStatus, newStatus)
}

type Booking struct {
	ID        int           `json:"id"`
	Reference string        `json:"reference"`
	UserID    int           `json:"user_id"`
	LotID     int           `json:"lot_id"`
	LotName   string        `json:"lot_name"` // snapshot at creation time
	Date      string        `json:"date"`
	Time      string        `json:"time"`
	Status    BookingStatus `json:"status"`
	Price     float64       `json:"price"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type CreateBookingDTO struct {
	LotID  int      `json:"lot_id" binding:"required"`
	Date   string   `json:"date" binding:"required"`
	Time   string   `json:"time" binding:"required"`
	Price  *float64 `json:"price"`  // defaults to the lot's price_per_hour
	Status string   `json:"status"` // defaults to Confirmed
}

// UpdateBookingDTO lists the only fields legally mutable after creation.
// lot_id, user_id and price are immutable; unknown fields are rejected by the
// binding layer.
type UpdateBookingDTO struct {
	Date   *string `json:"date"`
	Time   *string `json:"time"`
	Status *string `json:"status"`
}
