package booking

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/flightbooking/internal/apperr"
	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/kafka"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"github.com/sirupsen/logrus"
)

const compensationTimeout = 5 * time.Second

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	MakePayment(ctx context.Context, input PaymentInput) (*domain.Booking, error)
	CancelBooking(ctx context.Context, bookingID int64) error
	ExpireBooking(ctx context.Context, bookingID int64) error
	GetBooking(ctx context.Context, bookingID int64) (*domain.Booking, error)
}

type Inventory interface {
	GetFlight(ctx context.Context, flightID int64) (*domain.FlightInfo, error)
	AdjustSeats(ctx context.Context, flightID int64, seats int, direction domain.SeatDirection) error
}

// IdempotencyGuard remembers idempotency keys of successful payments.
type IdempotencyGuard interface {
	Seen(ctx context.Context, key string) (bool, error)
	Record(ctx context.Context, key string) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookingService struct {
	bookings           repository.BookingRepository
	inventory          Inventory
	guard              IdempotencyGuard
	producer           Producer
	log                logrus.FieldLogger
	eventsTopic        string
	notificationsTopic string
	paymentWindow      time.Duration
	now                func() time.Time
}

type CreateBookingInput struct {
	FlightID  int64 `json:"flightId"`
	UserID    int64 `json:"userId"`
	NoOfSeats int   `json:"noOfSeats"`
}

type PaymentInput struct {
	BookingID      int64  `json:"bookingId"`
	UserID         int64  `json:"userId"`
	TotalCost      int64  `json:"totalCost"`
	IdempotencyKey string `json:"-"`
}

type BookingServiceOption func(*BookingService)

// WithEvents publishes lifecycle events for every committed transition.
func WithEvents(producer Producer, topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.producer = producer
		s.eventsTopic = topic
	}
}

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	inventory Inventory,
	guard IdempotencyGuard,
	log logrus.FieldLogger,
	paymentWindow time.Duration,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:      bookings,
		inventory:     inventory,
		guard:         guard,
		log:           log,
		paymentWindow: paymentWindow,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// CreateBooking holds seats on the remote inventory and records an INITIATED
// booking. The insert stays uncommitted until the seat decrement succeeds.
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	if input.NoOfSeats <= 0 {
		return nil, apperr.InvalidRequest("number of seats must be positive")
	}
	if input.FlightID <= 0 || input.UserID <= 0 {
		return nil, apperr.InvalidRequest("flight id and user id are required")
	}

	flight, err := s.inventory.GetFlight(ctx, input.FlightID)
	if err != nil {
		return nil, remoteFailure("could not fetch flight", err)
	}
	if input.NoOfSeats > flight.TotalSeats {
		return nil, apperr.InvalidRequest("not enough seats available")
	}

	booking := &domain.Booking{
		FlightID:  input.FlightID,
		UserID:    input.UserID,
		NoOfSeats: input.NoOfSeats,
		TotalCost: int64(input.NoOfSeats) * flight.Price,
		Status:    domain.BookingStatusInitiated,
	}

	tx, err := s.bookings.Begin(ctx)
	if err != nil {
		return nil, apperr.ServiceUnavailable("booking store is unavailable", err)
	}
	defer s.rollback(tx)

	if err := tx.Create(ctx, booking); err != nil {
		return nil, apperr.ServiceUnavailable("could not create booking", err)
	}

	if err := s.inventory.AdjustSeats(ctx, booking.FlightID, booking.NoOfSeats, domain.SeatsDecrement); err != nil {
		return nil, remoteFailure("could not reserve seats", err)
	}

	if err := tx.Commit(); err != nil {
		s.releaseOrphanedHold(ctx, booking)
		return nil, apperr.ServiceUnavailable("could not create booking", err)
	}

	s.log.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"flight_id":  booking.FlightID,
		"seats":      booking.NoOfSeats,
	}).Info("booking initiated")
	s.publish(ctx, kafka.EventBookingCreated, booking)
	return booking, nil
}

// MakePayment confirms a booking. Checks run in a fixed order and any failure
// leaves the booking and the idempotency guard untouched, except that an
// expired booking is cancelled before the error is returned.
func (s *BookingService) MakePayment(ctx context.Context, input PaymentInput) (*domain.Booking, error) {
	if input.IdempotencyKey == "" {
		return nil, apperr.InvalidRequest("idempotency key is missing")
	}
	seen, err := s.guard.Seen(ctx, input.IdempotencyKey)
	if err != nil {
		return nil, apperr.ServiceUnavailable("idempotency store is unavailable", err)
	}
	if seen {
		return nil, apperr.InvalidRequest("cannot retry a successful payment")
	}

	tx, err := s.bookings.Begin(ctx)
	if err != nil {
		return nil, apperr.ServiceUnavailable("booking store is unavailable", err)
	}
	defer s.rollback(tx)

	booking, err := tx.GetForUpdate(ctx, input.BookingID)
	if err != nil {
		return nil, storeFailure("booking not found", err)
	}

	if booking.Status.Terminal() {
		if booking.Status == domain.BookingStatusBooked {
			return nil, apperr.InvalidRequest("payment has already been made")
		}
		return nil, apperr.InvalidRequest("booking session has expired")
	}

	if booking.Expired(s.now(), s.paymentWindow) {
		// the cancellation path locks the row in its own transaction
		s.rollback(tx)
		if err := s.ExpireBooking(ctx, booking.ID); err != nil {
			return nil, err
		}
		return nil, apperr.InvalidRequest("booking session has expired")
	}

	if booking.UserID != input.UserID {
		return nil, apperr.NotFound("booking not found")
	}
	if booking.TotalCost != input.TotalCost {
		return nil, apperr.PaymentMismatch("payment amount does not match the booking total")
	}

	if err := tx.UpdateStatus(ctx, booking.ID, domain.BookingStatusBooked); err != nil {
		return nil, storeFailure("booking not found", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, apperr.ServiceUnavailable("could not confirm payment", err)
	}
	booking.Status = domain.BookingStatusBooked

	// The booking is BOOKED from here on, so a retry is rejected by the status
	// check even if the key below never gets recorded.
	if err := s.guard.Record(ctx, input.IdempotencyKey); err != nil {
		s.log.WithError(err).WithField("booking_id", booking.ID).Warn("failed to record idempotency key")
	}

	s.log.WithField("booking_id", booking.ID).Info("booking paid")
	s.publish(ctx, kafka.EventBookingConfirmed, booking)
	return booking, nil
}

// CancelBooking releases the booking's seats and marks it CANCELLED.
// Cancelling an already cancelled booking succeeds without touching inventory.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID int64) error {
	return s.cancel(ctx, bookingID, kafka.EventBookingCancelled)
}

// ExpireBooking is the cancellation path used for abandoned bookings. A booking
// that got paid after it was picked for expiry is left alone.
func (s *BookingService) ExpireBooking(ctx context.Context, bookingID int64) error {
	err := s.cancel(ctx, bookingID, kafka.EventBookingExpired)
	if errors.Is(err, errAlreadyBooked) {
		return nil
	}
	return err
}

func (s *BookingService) GetBooking(ctx context.Context, bookingID int64) (*domain.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, storeFailure("booking not found", err)
	}
	return booking, nil
}

var errAlreadyBooked = apperr.InvalidRequest("a paid booking cannot be cancelled")

func (s *BookingService) cancel(ctx context.Context, bookingID int64, eventType string) error {
	tx, err := s.bookings.Begin(ctx)
	if err != nil {
		return apperr.ServiceUnavailable("booking store is unavailable", err)
	}
	defer s.rollback(tx)

	booking, err := tx.GetForUpdate(ctx, bookingID)
	if err != nil {
		return storeFailure("booking not found", err)
	}

	if booking.Status.Terminal() {
		if booking.Status == domain.BookingStatusBooked {
			return errAlreadyBooked
		}
		if err := tx.Commit(); err != nil {
			return apperr.ServiceUnavailable("could not cancel booking", err)
		}
		return nil
	}

	if err := tx.UpdateStatus(ctx, booking.ID, domain.BookingStatusCancelled); err != nil {
		return storeFailure("booking not found", err)
	}
	if err := s.inventory.AdjustSeats(ctx, booking.FlightID, booking.NoOfSeats, domain.SeatsIncrement); err != nil {
		return apperr.ServiceUnavailable("could not release seats", err)
	}
	if err := tx.Commit(); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"booking_id": booking.ID,
			"flight_id":  booking.FlightID,
			"seats":      booking.NoOfSeats,
		}).Error("seats released but cancellation was not committed")
		return apperr.ServiceUnavailable("could not cancel booking", err)
	}
	booking.Status = domain.BookingStatusCancelled

	s.log.WithFields(logrus.Fields{"booking_id": booking.ID, "reason": eventType}).Info("booking cancelled")
	s.publish(ctx, eventType, booking)
	return nil
}

// releaseOrphanedHold undoes the seat decrement of a booking whose insert
// failed to commit.
func (s *BookingService) releaseOrphanedHold(ctx context.Context, booking *domain.Booking) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	entry := s.log.WithFields(logrus.Fields{
		"flight_id": booking.FlightID,
		"user_id":   booking.UserID,
		"seats":     booking.NoOfSeats,
	})
	if err := s.inventory.AdjustSeats(ctx, booking.FlightID, booking.NoOfSeats, domain.SeatsIncrement); err != nil {
		entry.WithError(err).Error("orphaned seat hold: compensation failed")
		return
	}
	entry.Warn("booking commit failed, seat hold released")
}

func (s *BookingService) rollback(tx repository.BookingTx) {
	if err := tx.Rollback(); err != nil {
		s.log.WithError(err).Warn("rollback failed")
	}
}

func (s *BookingService) publish(ctx context.Context, eventType string, booking *domain.Booking) {
	if s.producer == nil || s.eventsTopic == "" {
		return
	}
	event := kafka.NewBookingEvent(eventType, booking)
	key := event.Key()
	if err := s.producer.Publish(ctx, s.eventsTopic, key, event); err != nil {
		s.log.WithError(err).WithField("event", eventType).Warn("failed to publish booking event")
		return
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, key, event); err != nil {
			s.log.WithError(err).WithField("event", eventType).Warn("failed to publish notification")
		}
	}
}

func storeFailure(notFoundMsg string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(notFoundMsg)
	}
	return apperr.ServiceUnavailable("booking store is unavailable", err)
}

// remoteFailure keeps client-correctable inventory errors and reports
// everything else as the inventory being unavailable.
func remoteFailure(msg string, err error) error {
	switch apperr.KindOf(err) {
	case apperr.KindInvalidRequest, apperr.KindNotFound:
		return err
	}
	return apperr.ServiceUnavailable(msg, err)
}

var _ BookingUseCase = (*BookingService)(nil)
