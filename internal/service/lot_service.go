package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/anand-babu-0003/ParkWise-sub000/internal/domain"
	"github.com/anand-babu-0003/ParkWise-sub000/internal/repository"

	"gopkg.in/guregu/null.v4"
)

var ErrLotInUse = errors.New("parking lot still has confirmed bookings")
var ErrNotLotOwner = errors.New("caller does not own this parking lot")

type LotService struct {
	lotRepo     repository.ParkingLotRepository
	bookingRepo repository.BookingRepository
}

func NewLotService(lotRepo repository.ParkingLotRepository, bookingRepo repository.BookingRepository) *LotService {
	return &LotService{lotRepo: lotRepo, bookingRepo: bookingRepo}
}

func (s *LotService) CreateLot(ctx context.Context, ownerID int, dto domain.ParkingLotDTO) (*domain.ParkingLot, error) {
	if dto.TotalSlots < 0 {
		return nil, fmt.Errorf("total_slots must not be negative")
	}
	available := dto.TotalSlots
	if dto.AvailableSlots != nil {
		available = *dto.AvailableSlots
		if available < 0 || available > dto.TotalSlots {
			return nil, fmt.Errorf("available_slots must be between 0 and %d", dto.TotalSlots)
		}
	}
	if dto.PricePerHour < 0 {
		return nil, fmt.Errorf("price_per_hour must not be negative")
	}

	lot := &domain.ParkingLot{
		Name:           dto.Name,
		Location:       dto.Location,
		Longitude:      null.FloatFromPtr(dto.Longitude),
		Latitude:       null.FloatFromPtr(dto.Latitude),
		TotalSlots:     dto.TotalSlots,
		AvailableSlots: available,
		PricePerHour:   dto.PricePerHour,
		OperatingHours: dto.OperatingHours,
		OwnerID:        null.IntFrom(int64(ownerID)),
	}
	return s.lotRepo.Create(ctx, lot)
}

func (s *LotService) GetLotByID(ctx context.Context, id int) (*domain.ParkingLot, error) {
	return s.lotRepo.FindByID(ctx, id)
}

func (s *LotService) GetAllLots(ctx context.Context) ([]domain.ParkingLot, error) {
	return s.lotRepo.FindAll(ctx)
}

func (s *LotService) GetLotsByOwner(ctx context.Context, ownerID int) ([]domain.ParkingLot, error) {
	return s.lotRepo.FindByOwnerID(ctx, ownerID)
}

func (s *LotService) SearchLots(ctx context.Context, filter domain.LotSearchDTO) ([]domain.ParkingLot, error) {
	if filter.RadiusKm != nil && *filter.RadiusKm < 0 {
		return nil, fmt.Errorf("radius_km must not be negative")
	}
	return s.lotRepo.Search(ctx, filter)
}

// UpdateLot applies an owner patch. Shrinking total_slots clamps
// available_slots back into bounds so the counter invariant survives capacity
// edits.
func (s *LotService) UpdateLot(ctx context.Context, id int, principalID int, role string, dto domain.ParkingLotPatchDTO) (*domain.ParkingLot, error) {
	lot, err := s.lotRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeLotAccess(lot, principalID, role); err != nil {
		return nil, err
	}

	if dto.Name != nil {
		lot.Name = *dto.Name
	}
	if dto.Location != nil {
		lot.Location = *dto.Location
	}
	if dto.Longitude != nil {
		lot.Longitude = null.FloatFrom(*dto.Longitude)
	}
	if dto.Latitude != nil {
		lot.Latitude = null.FloatFrom(*dto.Latitude)
	}
	if dto.TotalSlots != nil {
		if *dto.TotalSlots < 0 {
			return nil, fmt.Errorf("total_slots must not be negative")
		}
		lot.TotalSlots = *dto.TotalSlots
		// renormalize the counter into the new bounds
		if err := lot.ApplyDelta(0, true); err != nil {
			return nil, err
		}
	}
	if dto.PricePerHour != nil {
		if *dto.PricePerHour < 0 {
			return nil, fmt.Errorf("price_per_hour must not be negative")
		}
		lot.PricePerHour = *dto.PricePerHour
	}
	if dto.OperatingHours != nil {
		lot.OperatingHours = *dto.OperatingHours
	}

	return s.lotRepo.Update(ctx, lot)
}

// DeleteLot refuses to remove a lot while Confirmed bookings still hold slots
// against it. Completed and Cancelled bookings keep their denormalized lot
// name and do not block deletion.
func (s *LotService) DeleteLot(ctx context.Context, id int, principalID int, role string) error {
	lot, err := s.lotRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := authorizeLotAccess(lot, principalID, role); err != nil {
		return err
	}

	confirmed, err := s.bookingRepo.CountConfirmedByLot(ctx, id)
	if err != nil {
		return fmt.Errorf("error checking bookings for lot %d: %w", id, err)
	}
	if confirmed > 0 {
		return fmt.Errorf("%w: %d confirmed booking(s)", ErrLotInUse, confirmed)
	}
	return s.lotRepo.Delete(ctx, id)
}

func authorizeLotAccess(lot *domain.ParkingLot, principalID int, role string) error {
	if role == domain.RoleAdmin {
		return nil
	}
	if lot.OwnerID.Valid && int(lot.OwnerID.Int64) == principalID {
		return nil
	}
	return ErrNotLotOwner
}
