package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bookingRowColumns = []string{"id", "flight_id", "user_id", "no_of_seats", "total_cost", "status", "created_at", "updated_at"}

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestNewBookingRepository(t *testing.T) {
	db, _ := newMockDB(t)
	repo := NewBookingRepository(db)
	assert.NotNil(t, repo)
}

func TestBookingTx_CreateAndCommit(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)
	ctx := context.Background()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO bookings`).
		WithArgs(int64(4), int64(9), 2, int64(100), "INITIATED").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(11), now, now))
	mock.ExpectCommit()

	tx, err := repo.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	booking := &domain.Booking{FlightID: 4, UserID: 9, NoOfSeats: 2, TotalCost: 100, Status: domain.BookingStatusInitiated}
	require.NoError(t, tx.Create(ctx, booking))
	require.NoError(t, tx.Commit())

	assert.Equal(t, int64(11), booking.ID)
	assert.Equal(t, now, booking.CreatedAt)
	assert.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingTx_CreateRollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO bookings`).WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	tx, err := repo.Begin(ctx)
	require.NoError(t, err)

	err = tx.Create(ctx, &domain.Booking{FlightID: 1, UserID: 1, NoOfSeats: 1, Status: domain.BookingStatusInitiated})
	assert.ErrorContains(t, err, "insert booking")
	assert.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingTx_GetForUpdate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)
	ctx := context.Background()
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	testCases := []struct {
		name        string
		setup       func()
		expected    *domain.Booking
		expectedErr error
	}{
		{
			name: "Booking found",
			setup: func() {
				mock.ExpectQuery(`SELECT .* FROM bookings WHERE id = \$1 FOR UPDATE`).
					WithArgs(int64(5)).
					WillReturnRows(sqlmock.NewRows(bookingRowColumns).
						AddRow(int64(5), int64(4), int64(9), 2, int64(100), "INITIATED", created, created))
			},
			expected: &domain.Booking{ID: 5, FlightID: 4, UserID: 9, NoOfSeats: 2, TotalCost: 100,
				Status: domain.BookingStatusInitiated, CreatedAt: created, UpdatedAt: created},
		},
		{
			name: "Booking not found",
			setup: func() {
				mock.ExpectQuery(`SELECT .* FROM bookings WHERE id = \$1 FOR UPDATE`).
					WithArgs(int64(5)).
					WillReturnError(sql.ErrNoRows)
			},
			expectedErr: ErrNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mock.ExpectBegin()
			tc.setup()
			mock.ExpectRollback()

			tx, err := repo.Begin(ctx)
			require.NoError(t, err)

			booking, err := tx.GetForUpdate(ctx, 5)
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				assert.Nil(t, booking)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.expected, booking)
			}

			require.NoError(t, tx.Rollback())
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestBookingTx_UpdateStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE bookings SET status = \$1`).
		WithArgs("BOOKED", int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE bookings SET status = \$1`).
		WithArgs("CANCELLED", int64(6)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	tx, err := repo.Begin(ctx)
	require.NoError(t, err)

	assert.NoError(t, tx.UpdateStatus(ctx, 5, domain.BookingStatusBooked))
	assert.ErrorIs(t, tx.UpdateStatus(ctx, 6, domain.BookingStatusCancelled), ErrNotFound)
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGBookingRepository_GetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)
	ctx := context.Background()
	created := time.Now()

	mock.ExpectQuery(`SELECT .* FROM bookings WHERE id = \$1`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(bookingRowColumns).
			AddRow(int64(3), int64(1), int64(2), 1, int64(50), "BOOKED", created, created))
	mock.ExpectQuery(`SELECT .* FROM bookings WHERE id = \$1`).
		WithArgs(int64(4)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SELECT .* FROM bookings WHERE id = \$1`).
		WithArgs(int64(5)).
		WillReturnError(errors.New("connection reset"))

	booking, err := repo.GetByID(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusBooked, booking.Status)

	_, err = repo.GetByID(ctx, 4)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.GetByID(ctx, 5)
	assert.ErrorContains(t, err, "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGBookingRepository_ListStale(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)
	ctx := context.Background()
	cutoff := time.Now().Add(-300 * time.Second)
	created := cutoff.Add(-100 * time.Second)

	mock.ExpectQuery(`SELECT .* FROM bookings\s+WHERE created_at < \$1 AND status NOT IN \(\$2, \$3\)\s+AND \(created_at, id\) > \(\$4, \$5\)\s+ORDER BY created_at, id`).
		WithArgs(cutoff, "BOOKED", "CANCELLED", time.Time{}, int64(0), 100).
		WillReturnRows(sqlmock.NewRows(bookingRowColumns).
			AddRow(int64(1), int64(4), int64(9), 2, int64(100), "INITIATED", created, created).
			AddRow(int64(2), int64(4), int64(8), 1, int64(50), "PENDING", created, created))

	bookings, err := repo.ListStale(ctx, cutoff, domain.StaleCursor{}, 100)
	require.NoError(t, err)
	require.Len(t, bookings, 2)
	assert.Equal(t, domain.BookingStatusPending, bookings[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGBookingRepository_ListStale_ResumesAfterCursor(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)
	cutoff := time.Now().Add(-300 * time.Second)
	after := domain.StaleCursor{CreatedAt: cutoff.Add(-time.Hour), ID: 12}

	mock.ExpectQuery(`SELECT .* FROM bookings`).
		WithArgs(cutoff, "BOOKED", "CANCELLED", after.CreatedAt, after.ID, 50).
		WillReturnRows(sqlmock.NewRows(bookingRowColumns))

	bookings, err := repo.ListStale(context.Background(), cutoff, after, 50)
	require.NoError(t, err)
	assert.Empty(t, bookings)
	assert.NoError(t, mock.ExpectationsWereMet())
}
