package service_test

import (
	"context"
	"testing"

	"github.com/anand-babu-0003/ParkWise-sub000/internal/domain"
	"github.com/anand-babu-0003/ParkWise-sub000/internal/repository"
	"github.com/anand-babu-0003/ParkWise-sub000/internal/service"

	"github.com/stretchr/testify/require"
)

func TestCreateLot_DefaultsAvailableToTotal(t *testing.T) {
	lots := newFakeLotRepo()
	s := service.NewLotService(lots, newFakeBookingRepo())

	lot, err := s.CreateLot(context.Background(), 7, domain.ParkingLotDTO{
		Name: "Riverside Lot", TotalSlots: 40, PricePerHour: 15,
	})
	require.NoError(t, err)
	require.Equal(t, 40, lot.AvailableSlots)
	require.True(t, lot.OwnerID.Valid)
	require.Equal(t, int64(7), lot.OwnerID.Int64)
}

func TestCreateLot_RejectsOutOfBoundsAvailable(t *testing.T) {
	s := service.NewLotService(newFakeLotRepo(), newFakeBookingRepo())

	bad := 50
	_, err := s.CreateLot(context.Background(), 7, domain.ParkingLotDTO{
		Name: "Overbooked", TotalSlots: 40, AvailableSlots: &bad,
	})
	require.Error(t, err)

	negative := -1
	_, err = s.CreateLot(context.Background(), 7, domain.ParkingLotDTO{
		Name: "Negative", TotalSlots: 40, AvailableSlots: &negative,
	})
	require.Error(t, err)
}

func TestUpdateLot_ShrinkingTotalClampsAvailable(t *testing.T) {
	lots := newFakeLotRepo()
	s := service.NewLotService(lots, newFakeBookingRepo())

	lot := seedLot(lots, 20, 20)
	newTotal := 5
	updated, err := s.UpdateLot(context.Background(), lot.ID, 7, domain.RoleOwner, domain.ParkingLotPatchDTO{
		TotalSlots: &newTotal,
	})
	require.NoError(t, err)
	require.Equal(t, 5, updated.TotalSlots)
	require.Equal(t, 5, updated.AvailableSlots, "available must be clamped into the new bound")
}

func TestUpdateLot_OwnershipEnforced(t *testing.T) {
	lots := newFakeLotRepo()
	s := service.NewLotService(lots, newFakeBookingRepo())
	lot := seedLot(lots, 10, 10) // owned by principal 7

	name := "Renamed"
	_, err := s.UpdateLot(context.Background(), lot.ID, 99, domain.RoleDriver, domain.ParkingLotPatchDTO{Name: &name})
	require.ErrorIs(t, err, service.ErrNotLotOwner)

	// admin may edit any lot
	_, err = s.UpdateLot(context.Background(), lot.ID, 99, domain.RoleAdmin, domain.ParkingLotPatchDTO{Name: &name})
	require.NoError(t, err)
}

func TestDeleteLot_RejectedWhileConfirmedBookingsExist(t *testing.T) {
	lots := newFakeLotRepo()
	bookings := newFakeBookingRepo()
	lotSvc := service.NewLotService(lots, bookings)
	bookingSvc := newBookingService(lots, bookings)

	lot := seedLot(lots, 10, 10)
	booking, err := bookingSvc.CreateBooking(context.Background(), 1, domain.CreateBookingDTO{
		LotID: lot.ID, Date: "2026-09-12", Time: "14:00",
	})
	require.NoError(t, err)

	err = lotSvc.DeleteLot(context.Background(), lot.ID, 7, domain.RoleOwner)
	require.ErrorIs(t, err, service.ErrLotInUse)

	cancelled := "Cancelled"
	_, err = bookingSvc.UpdateBooking(context.Background(), booking.ID, domain.UpdateBookingDTO{Status: &cancelled})
	require.NoError(t, err)

	require.NoError(t, lotSvc.DeleteLot(context.Background(), lot.ID, 7, domain.RoleOwner),
		"cancelled bookings must not block deletion")
	_, err = lots.FindByID(context.Background(), lot.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)
}
