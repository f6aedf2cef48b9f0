package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/anand-babu-0003/ParkWise-sub000/internal/domain"
	"github.com/anand-babu-0003/ParkWise-sub000/internal/repository"

	"github.com/google/uuid"
)

var ErrPaymentDeclined = errors.New("payment was declined")

// AvailabilityNotifier receives the new counter value after every mutation.
// The websocket manager implements it; tests use a no-op.
type AvailabilityNotifier interface {
	NotifyAvailability(lotID, availableSlots, totalSlots int)
}

type noopNotifier struct{}

func (noopNotifier) NotifyAvailability(int, int, int) {}

// BookingService is the only component allowed to change a lot's
// available_slots in response to booking activity. Every create/update/delete
// chains a booking write with a compensating counter adjustment so that the
// count of Confirmed bookings against a lot always equals
// total_slots - available_slots once the operation returns.
type BookingService struct {
	bookingRepo repository.BookingRepository
	lotRepo     repository.ParkingLotRepository
	payments    PaymentAuthorizer
	notifier    AvailabilityNotifier
}

func NewBookingService(
	bookingRepo repository.BookingRepository,
	lotRepo repository.ParkingLotRepository,
	payments PaymentAuthorizer,
	notifier AvailabilityNotifier,
) *BookingService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &BookingService{
		bookingRepo: bookingRepo,
		lotRepo:     lotRepo,
		payments:    payments,
		notifier:    notifier,
	}
}

// CreateBooking reserves one slot at the lot. The counter is decremented
// before the booking row is inserted: the conditional decrement is the
// contended step and rejecting there keeps the counter from going negative
// under concurrent creates. If the insert then fails the decrement is rolled
// back with a clamped increment.
func (s *BookingService) CreateBooking(ctx context.Context, userID int, dto domain.CreateBookingDTO) (*domain.Booking, error) {
	status := domain.BookingConfirmed
	if dto.Status != "" {
		parsed, err := domain.ParseBookingStatus(dto.Status)
		if err != nil {
			return nil, err
		}
		status = parsed
	}

	lot, err := s.lotRepo.FindByID(ctx, dto.LotID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: parking lot %d does not exist", repository.ErrNotFound, dto.LotID)
		}
		return nil, fmt.Errorf("error looking up parking lot: %w", err)
	}

	price := lot.PricePerHour
	if dto.Price != nil {
		if *dto.Price < 0 {
			return nil, fmt.Errorf("price must not be negative")
		}
		price = *dto.Price
	}

	approved, err := s.payments.Authorize(ctx, price)
	if err != nil {
		return nil, fmt.Errorf("error authorizing payment: %w", err)
	}
	if !approved {
		return nil, ErrPaymentDeclined
	}

	availableAfter := lot.AvailableSlots
	if status.HoldsSlot() {
		availableAfter, err = s.lotRepo.AdjustAvailable(ctx, lot.ID, -1)
		if err != nil {
			return nil, err
		}
	}

	booking := &domain.Booking{
		Reference: uuid.NewString(),
		UserID:    userID,
		LotID:     lot.ID,
		LotName:   lot.Name,
		Date:      dto.Date,
		Time:      dto.Time,
		Status:    status,
		Price:     price,
	}
	created, err := s.bookingRepo.Create(ctx, booking)
	if err != nil {
		if status.HoldsSlot() {
			// Give the slot back so the failed insert leaves no hold behind.
			if _, rbErr := s.lotRepo.AdjustAvailable(ctx, lot.ID, 1); rbErr != nil {
				log.Printf("BookingService: could not roll back slot decrement for lot %d: %v (reconciliation will repair)", lot.ID, rbErr)
			}
		}
		return nil, fmt.Errorf("error creating booking: %w", err)
	}

	if status.HoldsSlot() {
		s.notifier.NotifyAvailability(lot.ID, availableAfter, lot.TotalSlots)
	}
	log.Printf("BookingService: booking %d (ref %s) created for lot %d, status %s", created.ID, created.Reference, lot.ID, created.Status)
	return created, nil
}

// UpdateBooking applies a patch to a booking and the compensating counter
// change derived from the transition table. The comparison is keyed off the
// status persisted before this update, so re-applying the same patch never
// double-counts.
func (s *BookingService) UpdateBooking(ctx context.Context, id int, dto domain.UpdateBookingDTO) (*domain.Booking, error) {
	booking, err := s.bookingRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	oldStatus := booking.Status

	newStatus := oldStatus
	if dto.Status != nil {
		parsed, err := domain.ParseBookingStatus(*dto.Status)
		if err != nil {
			return nil, err
		}
		newStatus = parsed
	}

	delta, err := domain.CounterDelta(oldStatus, newStatus)
	if err != nil {
		return nil, err
	}

	if dto.Date != nil {
		booking.Date = *dto.Date
	}
	if dto.Time != nil {
		booking.Time = *dto.Time
	}
	booking.Status = newStatus

	if delta < 0 {
		// Re-confirming takes a slot back; grab it first so a full lot
		// rejects before the booking row changes.
		if _, err := s.lotRepo.AdjustAvailable(ctx, booking.LotID, delta); err != nil {
			return nil, err
		}
		updated, err := s.bookingRepo.Update(ctx, booking)
		if err != nil {
			if _, rbErr := s.lotRepo.AdjustAvailable(ctx, booking.LotID, -delta); rbErr != nil {
				log.Printf("BookingService: could not roll back slot decrement for lot %d: %v (reconciliation will repair)", booking.LotID, rbErr)
			}
			return nil, fmt.Errorf("error updating booking: %w", err)
		}
		s.broadcastLot(ctx, booking.LotID)
		return updated, nil
	}

	updated, err := s.bookingRepo.Update(ctx, booking)
	if err != nil {
		return nil, fmt.Errorf("error updating booking: %w", err)
	}

	if delta > 0 {
		// Cancellation releases the slot. The increment is clamped to
		// total_slots, and a lot that vanished in the meantime does not fail
		// the cancellation.
		if _, err := s.lotRepo.AdjustAvailable(ctx, booking.LotID, delta); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				log.Printf("BookingService: lot %d no longer exists, skipping slot release for booking %d", booking.LotID, booking.ID)
			} else {
				log.Printf("BookingService: could not release slot on lot %d for booking %d: %v (reconciliation will repair)", booking.LotID, booking.ID, err)
				return updated, fmt.Errorf("booking updated but slot release failed: %w", err)
			}
		} else {
			s.broadcastLot(ctx, booking.LotID)
		}
	}
	return updated, nil
}

// DeleteBooking removes a booking, releasing its slot hold first when the
// booking is still Confirmed. Deleting a booking whose lot has been removed
// always succeeds.
func (s *BookingService) DeleteBooking(ctx context.Context, id int) error {
	booking, err := s.bookingRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if booking.Status.HoldsSlot() {
		if _, err := s.lotRepo.AdjustAvailable(ctx, booking.LotID, 1); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				log.Printf("BookingService: lot %d no longer exists, deleting orphaned booking %d", booking.LotID, booking.ID)
			} else {
				return fmt.Errorf("error releasing slot for booking %d: %w", booking.ID, err)
			}
		} else {
			s.broadcastLot(ctx, booking.LotID)
		}
	}

	if err := s.bookingRepo.Delete(ctx, id); err != nil {
		return err
	}
	log.Printf("BookingService: booking %d deleted", id)
	return nil
}

func (s *BookingService) GetBooking(ctx context.Context, id int) (*domain.Booking, error) {
	return s.bookingRepo.FindByID(ctx, id)
}

func (s *BookingService) GetBookingByReference(ctx context.Context, reference string) (*domain.Booking, error) {
	return s.bookingRepo.FindByReference(ctx, reference)
}

func (s *BookingService) ListBookingsByUser(ctx context.Context, userID int) ([]domain.Booking, error) {
	return s.bookingRepo.FindByUserID(ctx, userID)
}

func (s *BookingService) ListAllBookings(ctx context.Context) ([]domain.Booking, error) {
	return s.bookingRepo.FindAll(ctx)
}

func (s *BookingService) ListBookingsByLot(ctx context.Context, lotID int, status *domain.BookingStatus) ([]domain.Booking, error) {
	return s.bookingRepo.FindByLotID(ctx, lotID, status)
}

// ReconcileLot re-derives the lot's counter from its Confirmed bookings.
// This is the self-healing path for partial writes: whichever of the two
// document writes failed, the recount restores the invariant.
func (s *BookingService) ReconcileLot(ctx context.Context, lotID int) error {
	available, err := s.lotRepo.Recount(ctx, lotID)
	if err != nil {
		return fmt.Errorf("error reconciling lot %d: %w", lotID, err)
	}
	lot, err := s.lotRepo.FindByID(ctx, lotID)
	if err == nil {
		s.notifier.NotifyAvailability(lot.ID, available, lot.TotalSlots)
	}
	return nil
}

// ReconcileAllLots runs the recount over every lot. Called from the
// background ticker in main.
func (s *BookingService) ReconcileAllLots(ctx context.Context) (int, error) {
	lots, err := s.lotRepo.FindAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("error listing lots for reconciliation: %w", err)
	}
	repaired := 0
	for _, lot := range lots {
		available, err := s.lotRepo.Recount(ctx, lot.ID)
		if err != nil {
			log.Printf("BookingService: recount failed for lot %d: %v", lot.ID, err)
			continue
		}
		if available != lot.AvailableSlots {
			log.Printf("BookingService: lot %d counter repaired %d -> %d", lot.ID, lot.AvailableSlots, available)
			s.notifier.NotifyAvailability(lot.ID, available, lot.TotalSlots)
			repaired++
		}
	}
	return repaired, nil
}

func (s *BookingService) broadcastLot(ctx context.Context, lotID int) {
	lot, err := s.lotRepo.FindByID(ctx, lotID)
	if err != nil {
		return
	}
	s.notifier.NotifyAvailability(lot.ID, lot.AvailableSlots, lot.TotalSlots)
}
