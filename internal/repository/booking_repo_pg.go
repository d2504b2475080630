package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/jmoiron/sqlx"
)

const bookingColumns = `id, flight_id, user_id, no_of_seats, total_cost, status, created_at, updated_at`

// BookingRepository is the local record store for bookings. Status changes
// happen inside a BookingTx so a failed saga step can be rolled back.
type BookingRepository interface {
	Begin(ctx context.Context) (BookingTx, error)
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	ListStale(ctx context.Context, cutoff time.Time, after domain.StaleCursor, limit int) ([]domain.Booking, error)
}

// BookingTx is one local transaction. GetForUpdate holds the row lock until
// Commit or Rollback, which serializes concurrent operations on a booking.
type BookingTx interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetForUpdate(ctx context.Context, id int64) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) error
	Commit() error
	Rollback() error
}

type PGBookingRepository struct {
	db *sqlx.DB
}

func NewBookingRepository(db *sqlx.DB) BookingRepository {
	return &PGBookingRepository{db: db}
}

func (r *PGBookingRepository) Begin(ctx context.Context) (BookingTx, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &pgBookingTx{tx: tx}, nil
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var b domain.Booking
	err := r.db.GetContext(ctx, &b, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get booking %d: %w", id, err)
	}
	return &b, nil
}

// ListStale returns unpaid bookings created before cutoff, oldest first,
// starting strictly after the given cursor. A zero cursor starts at the head.
func (r *PGBookingRepository) ListStale(ctx context.Context, cutoff time.Time, after domain.StaleCursor, limit int) ([]domain.Booking, error) {
	var bookings []domain.Booking
	err := r.db.SelectContext(ctx, &bookings, `SELECT `+bookingColumns+` FROM bookings
		WHERE created_at < $1 AND status NOT IN ($2, $3)
			AND (created_at, id) > ($4, $5)
		ORDER BY created_at, id
		LIMIT $6`, cutoff, domain.BookingStatusBooked, domain.BookingStatusCancelled, after.CreatedAt, after.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("list stale bookings: %w", err)
	}
	return bookings, nil
}

type pgBookingTx struct {
	tx *sqlx.Tx
}

func (t *pgBookingTx) Create(ctx context.Context, booking *domain.Booking) error {
	row := t.tx.QueryRowxContext(ctx, `INSERT INTO bookings (flight_id, user_id, no_of_seats, total_cost, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		booking.FlightID, booking.UserID, booking.NoOfSeats, booking.TotalCost, booking.Status)
	if err := row.Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt); err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

func (t *pgBookingTx) GetForUpdate(ctx context.Context, id int64) (*domain.Booking, error) {
	var b domain.Booking
	err := t.tx.GetContext(ctx, &b, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock booking %d: %w", id, err)
	}
	return &b, nil
}

func (t *pgBookingTx) UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) error {
	res, err := t.tx.ExecContext(ctx, `UPDATE bookings SET status = $1, updated_at = now() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("update booking %d status: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update booking %d status: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *pgBookingTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Rollback is a no-op after a successful Commit.
func (t *pgBookingTx) Rollback() error {
	err := t.tx.Rollback()
	if err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback transaction: %w", err)
	}
	return nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
