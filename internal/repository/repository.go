package repository

import (
	"context"
	"errors"

	"github.com/anand-babu-0003/ParkWise-sub000/internal/domain"
)

var ErrNotFound = errors.New("record not found")
var ErrDuplicateEntry = errors.New("record already exists")

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id int) (*domain.User, error)
}

type ParkingLotRepository interface {
	Create(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error)
	FindByID(ctx context.Context, id int) (*domain.ParkingLot, error)
	FindAll(ctx context.Context) ([]domain.ParkingLot, error)
	FindByOwnerID(ctx context.Context, ownerID int) ([]domain.ParkingLot, error)
	// Search filters by free text and, when the filter carries coordinates,
	// returns lots within radius_km ordered nearest first.
	Search(ctx context.Context, filter domain.LotSearchDTO) ([]domain.ParkingLot, error)
	Update(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error)
	Delete(ctx context.Context, id int) error
	// AdjustAvailable applies delta to available_slots as a single conditional
	// UPDATE and returns the resulting count. A decrement that would drop the
	// counter below zero affects no rows and returns domain.ErrCapacityExceeded;
	// an increment is clamped to total_slots. This is the only way the counter
	// may be mutated in response to booking activity.
	AdjustAvailable(ctx context.Context, id int, delta int) (int, error)
	// Recount re-derives available_slots from the set of Confirmed bookings
	// against the lot, healing any divergence left by a partial write.
	Recount(ctx context.Context, id int) (int, error)
}

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	FindByID(ctx context.Context, id int) (*domain.Booking, error)
	FindByReference(ctx context.Context, reference string) (*domain.Booking, error)
	FindByUserID(ctx context.Context, userID int) ([]domain.Booking, error)
	FindByLotID(ctx context.Context, lotID int, status *domain.BookingStatus) ([]domain.Booking, error)
	FindAll(ctx context.Context) ([]domain.Booking, error)
	CountConfirmedByLot(ctx context.Context, lotID int) (int, error)
	Update(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	Delete(ctx context.Context, id int) error
}
