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

const bookingColumns = `id, reference, user_id, lot_id, lot_name, booking_date, booking_time, status, price, created_at, updated_at`

type pgBookingRepository struct {
	db *sql.DB
}

func NewPgBookingRepository(db *sql.DB) repository.BookingRepository {
	return &pgBookingRepository{db: db}
}

func scanBooking(row interface{ Scan(...any) error }) (*domain.Booking, error) {
	b := &domain.Booking{}
	err := row.Scan(
		&b.ID, &b.Reference, &b.UserID, &b.LotID, &b.LotName,
		&b.Date, &b.Time, &b.Status, &b.Price, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.CreatedAt = b.CreatedAt.In(time.UTC)
	b.UpdatedAt = b.UpdatedAt.In(time.UTC)
	return b, nil
}

func (r *pgBookingRepository) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	query := `INSERT INTO bookings (reference, user_id, lot_id, lot_name, booking_date, booking_time, status, price)
	           VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	           RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		booking.Reference, booking.UserID, booking.LotID, booking.LotName,
		booking.Date, booking.Time, booking.Status, booking.Price,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code.Name() == "unique_violation" {
				return nil, fmt.Errorf("%w: booking reference '%s' already exists", repository.ErrDuplicateEntry, booking.Reference)
			}
		}
		return nil, fmt.Errorf("BookingRepository.Create: %w", err)
	}
	booking.CreatedAt = booking.CreatedAt.In(time.UTC)
	booking.UpdatedAt = booking.UpdatedAt.In(time.UTC)
	return booking, nil
}

func (r *pgBookingRepository) FindByID(ctx context.Context, id int) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	booking, err := scanBooking(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("BookingRepository.FindByID: %w", err)
	}
	return booking, nil
}

func (r *pgBookingRepository) FindByReference(ctx context.Context, reference string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE reference = $1`
	booking, err := scanBooking(r.db.QueryRowContext(ctx, query, reference))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("BookingRepository.FindByReference: %w", err)
	}
	return booking, nil
}

func (r *pgBookingRepository) FindByUserID(ctx context.Context, userID int) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("BookingRepository.FindByUserID: %w", err)
	}
	defer rows.Close()
	return collectBookings(rows, "FindByUserID")
}

func (r *pgBookingRepository) FindByLotID(ctx context.Context, lotID int, status *domain.BookingStatus) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE lot_id = $1 AND ($2::text IS NULL OR status = $2) ORDER BY created_at DESC`
	var statusArg sql.NullString
	if status != nil {
		statusArg = sql.NullString{String: string(*status), Valid: true}
	}
	rows, err := r.db.QueryContext(ctx, query, lotID, statusArg)
	if err != nil {
		return nil, fmt.Errorf("BookingRepository.FindByLotID: %w", err)
	}
	defer rows.Close()
	return collectBookings(rows, "FindByLotID")
}

func (r *pgBookingRepository) FindAll(ctx context.Context) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("BookingRepository.FindAll: %w", err)
	}
	defer rows.Close()
	return collectBookings(rows, "FindAll")
}

func (r *pgBookingRepository) CountConfirmedByLot(ctx context.Context, lotID int) (int, error) {
	query := `SELECT COUNT(*) FROM bookings WHERE lot_id = $1 AND status = $2`
	var count int
	err := r.db.QueryRowContext(ctx, query, lotID, domain.BookingConfirmed).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("BookingRepository.CountConfirmedByLot: %w", err)
	}
	return count, nil
}

func (r *pgBookingRepository) Update(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	// lot_id, user_id, reference and price are immutable after creation.
	query := `UPDATE bookings
	           SET booking_date = $1, booking_time = $2, status = $3, updated_at = CURRENT_TIMESTAMP
	           WHERE id = $4
	           RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query, booking.Date, booking.Time, booking.Status, booking.ID).
		Scan(&booking.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("BookingRepository.Update: %w", err)
	}
	booking.UpdatedAt = booking.UpdatedAt.In(time.UTC)
	return booking, nil
}

func (r *pgBookingRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM bookings WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("BookingRepository.Delete: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("BookingRepository.Delete (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func collectBookings(rows *sql.Rows, method string) ([]domain.Booking, error) {
	var bookings []domain.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("BookingRepository.%s (scanning row): %w", method, err)
		}
		bookings = append(bookings, *booking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("BookingRepository.%s (rows error): %w", method, err)
	}
	return bookings, nil
}
