package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/anand-babu-0003/ParkWise-sub000/internal/domain"
	"github.com/anand-babu-0003/ParkWise-sub000/internal/repository"

	"github.com/lib/pq"
)

const lotColumns = `id, name, location, longitude, latitude, total_slots, available_slots, price_per_hour, operating_hours, owner_id, created_at, updated_at`

type pgParkingLotRepository struct {
	db *sql.DB
}

func NewPgParkingLotRepository(db *sql.DB) repository.ParkingLotRepository {
	return &pgParkingLotRepository{db: db}
}

func scanLot(row interface{ Scan(...any) error }) (*domain.ParkingLot, error) {
	lot := &domain.ParkingLot{}
	var location, operatingHours sql.NullString
	err := row.Scan(
		&lot.ID, &lot.Name, &location, &lot.Longitude, &lot.Latitude,
		&lot.TotalSlots, &lot.AvailableSlots, &lot.PricePerHour,
		&operatingHours, &lot.OwnerID, &lot.CreatedAt, &lot.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if location.Valid {
		lot.Location = location.String
	}
	if operatingHours.Valid {
		lot.OperatingHours = operatingHours.String
	}
	lot.CreatedAt = lot.CreatedAt.In(time.UTC)
	lot.UpdatedAt = lot.UpdatedAt.In(time.UTC)
	return lot, nil
}

func (r *pgParkingLotRepository) Create(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error) {
	query := `INSERT INTO parking_lots (name, location, longitude, latitude, total_slots, available_slots, price_per_hour, operating_hours, owner_id)
	           VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	           RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		lot.Name,
		sql.NullString{String: lot.Location, Valid: lot.Location != ""},
		lot.Longitude, lot.Latitude,
		lot.TotalSlots, lot.AvailableSlots, lot.PricePerHour,
		sql.NullString{String: lot.OperatingHours, Valid: lot.OperatingHours != ""},
		lot.OwnerID,
	).Scan(&lot.ID, &lot.CreatedAt, &lot.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code.Name() == "unique_violation" {
				return nil, fmt.Errorf("%w: parking lot '%s' already exists", repository.ErrDuplicateEntry, lot.Name)
			}
		}
		return nil, fmt.Errorf("ParkingLotRepository.Create: %w", err)
	}
	lot.CreatedAt = lot.CreatedAt.In(time.UTC)
	lot.UpdatedAt = lot.UpdatedAt.In(time.UTC)
	return lot, nil
}

func (r *pgParkingLotRepository) FindByID(ctx context.Context, id int) (*domain.ParkingLot, error) {
	query := `SELECT ` + lotColumns + ` FROM parking_lots WHERE id = $1`
	lot, err := scanLot(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingLotRepository.FindByID: %w", err)
	}
	return lot, nil
}

func (r *pgParkingLotRepository) FindAll(ctx context.Context) ([]domain.ParkingLot, error) {
	query := `SELECT ` + lotColumns + ` FROM parking_lots ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ParkingLotRepository.FindAll: %w", err)
	}
	defer rows.Close()
	return collectLots(rows, "FindAll")
}

func (r *pgParkingLotRepository) FindByOwnerID(ctx context.Context, ownerID int) ([]domain.ParkingLot, error) {
	query := `SELECT ` + lotColumns + ` FROM parking_lots WHERE owner_id = $1 ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("ParkingLotRepository.FindByOwnerID: %w", err)
	}
	defer rows.Close()
	return collectLots(rows, "FindByOwnerID")
}

// Search orders by great-circle distance from the query point when
// coordinates are supplied, bounded by radius_km (default 10km). Without
// coordinates it falls back to a name/location text filter ordered by name.
func (r *pgParkingLotRepository) Search(ctx context.Context, filter domain.LotSearchDTO) ([]domain.ParkingLot, error) {
	if filter.HasNear() {
		radius := 10.0
		if filter.RadiusKm != nil && *filter.RadiusKm > 0 {
			radius = *filter.RadiusKm
		}
		// haversine over (latitude, longitude), earth radius 6371km
		query := `SELECT ` + lotColumns + ` FROM (
		            SELECT *, 6371 * acos(LEAST(1.0,
		                cos(radians($1)) * cos(radians(latitude)) * cos(radians(longitude) - radians($2))
		                + sin(radians($1)) * sin(radians(latitude)))) AS distance_km
		            FROM parking_lots
		            WHERE latitude IS NOT NULL AND longitude IS NOT NULL
		              AND ($3 = '' OR name ILIKE '%' || $3 || '%' OR location ILIKE '%' || $3 || '%')
		          ) nearby
		          WHERE distance_km <= $4
		          ORDER BY distance_km ASC`
		rows, err := r.db.QueryContext(ctx, query, *filter.Latitude, *filter.Longitude, filter.Query, radius)
		if err != nil {
			return nil, fmt.Errorf("ParkingLotRepository.Search: %w", err)
		}
		defer rows.Close()
		return collectLots(rows, "Search")
	}

	query := `SELECT ` + lotColumns + ` FROM parking_lots
	          WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' OR location ILIKE '%' || $1 || '%')
	          ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query, filter.Query)
	if err != nil {
		return nil, fmt.Errorf("ParkingLotRepository.Search: %w", err)
	}
	defer rows.Close()
	return collectLots(rows, "Search")
}

func collectLots(rows *sql.Rows, method string) ([]domain.ParkingLot, error) {
	var lots []domain.ParkingLot
	for rows.Next() {
		lot, err := scanLot(rows)
		if err != nil {
			return nil, fmt.Errorf("ParkingLotRepository.%s (scanning row): %w", method, err)
		}
		lots = append(lots, *lot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ParkingLotRepository.%s (rows error): %w", method, err)
	}
	return lots, nil
}

func (r *pgParkingLotRepository) Update(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error) {
	query := `UPDATE parking_lots
	           SET name = $1, location = $2, longitude = $3, latitude = $4, total_slots = $5,
	               available_slots = $6, price_per_hour = $7, operating_hours = $8, updated_at = CURRENT_TIMESTAMP
	           WHERE id = $9
	           RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query,
		lot.Name,
		sql.NullString{String: lot.Location, Valid: lot.Location != ""},
		lot.Longitude, lot.Latitude,
		lot.TotalSlots, lot.AvailableSlots, lot.PricePerHour,
		sql.NullString{String: lot.OperatingHours, Valid: lot.OperatingHours != ""},
		lot.ID,
	).Scan(&lot.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code.Name() == "unique_violation" {
				return nil, fmt.Errorf("%w: parking lot '%s' already exists", repository.ErrDuplicateEntry, lot.Name)
			}
		}
		return nil, fmt.Errorf("ParkingLotRepository.Update: %w", err)
	}
	lot.UpdatedAt = lot.UpdatedAt.In(time.UTC)
	return lot, nil
}

func (r *pgParkingLotRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM parking_lots WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("ParkingLotRepository.Delete: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ParkingLotRepository.Delete (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// AdjustAvailable mutates available_slots as one conditional UPDATE so that
// two concurrent decrements against a lot with one free slot cannot both
// succeed. Increments are clamped to total_slots; a decrement on a full
// counter matches no row and is reported as capacity exhaustion.
func (r *pgParkingLotRepository) AdjustAvailable(ctx context.Context, id int, delta int) (int, error) {
	var available int
	if delta >= 0 {
		query := `UPDATE parking_lots
		           SET available_slots = LEAST(available_slots + $1, total_slots), updated_at = CURRENT_TIMESTAMP
		           WHERE id = $2
		           RETURNING available_slots`
		err := r.db.QueryRowContext(ctx, query, delta, id).Scan(&available)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return 0, repository.ErrNotFound
			}
			return 0, fmt.Errorf("ParkingLotRepository.AdjustAvailable: %w", err)
		}
		return available, nil
	}

	query := `UPDATE parking_lots
	           SET available_slots = available_slots + $1, updated_at = CURRENT_TIMESTAMP
	           WHERE id = $2 AND available_slots + $1 >= 0
	           RETURNING available_slots`
	err := r.db.QueryRowContext(ctx, query, delta, id).Scan(&available)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// No row matched: either the lot is gone or the counter is at
			// zero. Distinguish so callers can report the right failure.
			if _, findErr := r.FindByID(ctx, id); findErr != nil {
				return 0, findErr
			}
			return 0, domain.ErrCapacityExceeded
		}
		return 0, fmt.Errorf("ParkingLotRepository.AdjustAvailable: %w", err)
	}
	return available, nil
}

func (r *pgParkingLotRepository) Recount(ctx context.Context, id int) (int, error) {
	query := `UPDATE parking_lots l
	           SET available_slots = GREATEST(l.total_slots - (
	                   SELECT COUNT(*) FROM bookings b WHERE b.lot_id = l.id AND b.status = $1
	               ), 0),
	               updated_at = CURRENT_TIMESTAMP
	           WHERE l.id = $2
	           RETURNING available_slots`
	var available int
	err := r.db.QueryRowContext(ctx, query, domain.BookingConfirmed, id).Scan(&available)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, repository.ErrNotFound
		}
		return 0, fmt.Errorf("ParkingLotRepository.Recount: %w", err)
	}
	return available, nil
}
