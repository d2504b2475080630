package sweeper

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/flightbooking/internal/apperr"
	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

type StaleLister interface {
	ListStale(ctx context.Context, cutoff time.Time, after domain.StaleCursor, limit int) ([]domain.Booking, error)
}

type Expirer interface {
	ExpireBooking(ctx context.Context, bookingID int64) error
}

// KeyPurger is implemented by idempotency guards that need explicit cleanup.
type KeyPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

type Result struct {
	Scanned int
	Expired int
	Failed  int
	Purged  int64
}

// Sweeper cancels bookings that were never paid within the payment window.
// Each booking goes through the same locked cancellation path as a request.
type Sweeper struct {
	bookings      StaleLister
	expirer       Expirer
	purger        KeyPurger
	log           logrus.FieldLogger
	paymentWindow time.Duration
	batchSize     int
	now           func() time.Time
	cron          *cron.Cron
}

type Option func(*Sweeper)

func WithKeyPurger(purger KeyPurger) Option {
	return func(s *Sweeper) {
		s.purger = purger
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) {
		s.now = now
	}
}

func New(bookings StaleLister, expirer Expirer, log logrus.FieldLogger, paymentWindow time.Duration, batchSize int, opts ...Option) *Sweeper {
	s := &Sweeper{
		bookings:      bookings,
		expirer:       expirer,
		log:           log,
		paymentWindow: paymentWindow,
		batchSize:     batchSize,
		now:           time.Now,
	}
	if s.batchSize <= 0 {
		s.batchSize = 100
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start schedules RunOnce on schedule (standard cron syntax or descriptors such
// as "@every 1m"). Overlapping runs are skipped.
func (s *Sweeper) Start(ctx context.Context, schedule string) error {
	s.cron = cron.New(cron.WithChain(
		cron.Recover(cron.PrintfLogger(s.log)),
		cron.SkipIfStillRunning(cron.PrintfLogger(s.log)),
	))

	_, err := s.cron.AddFunc(schedule, func() {
		if _, err := s.RunOnce(ctx); err != nil {
			s.log.WithError(err).Error("expiry sweep failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule expiry sweep %q: %w", schedule, err)
	}

	s.cron.Start()
	s.log.WithField("schedule", schedule).Info("expiry sweeper started")
	return nil
}

// Stop waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.log.Info("expiry sweeper stopped")
}

// RunOnce performs a single sweep. Stale bookings are read in pages of
// batchSize, each page starting after the last booking of the previous one, so
// bookings that keep failing never hide newer ones. Failures are counted and
// reported once at the end.
func (s *Sweeper) RunOnce(ctx context.Context) (Result, error) {
	var result Result
	cutoff := s.now().Add(-s.paymentWindow)

	var after domain.StaleCursor
	for ctx.Err() == nil {
		page, err := s.bookings.ListStale(ctx, cutoff, after, s.batchSize)
		if err != nil {
			return result, apperr.Internal("failed to list stale bookings", err)
		}
		result.Scanned += len(page)

		for _, b := range page {
			if ctx.Err() != nil {
				break
			}
			if err := s.expirer.ExpireBooking(ctx, b.ID); err != nil {
				result.Failed++
				s.log.WithError(err).WithField("booking_id", b.ID).Error("failed to expire booking")
				continue
			}
			result.Expired++
		}

		if len(page) < s.batchSize {
			break
		}
		after = page[len(page)-1].Cursor()
	}

	if s.purger != nil {
		purged, err := s.purger.PurgeExpired(ctx)
		if err != nil {
			s.log.WithError(err).Warn("failed to purge expired idempotency keys")
		}
		result.Purged = purged
	}

	if result.Scanned > 0 || result.Purged > 0 {
		s.log.WithFields(logrus.Fields{
			"scanned": result.Scanned,
			"expired": result.Expired,
			"failed":  result.Failed,
			"purged":  result.Purged,
		}).Info("expiry sweep finished")
	}

	if result.Failed > 0 {
		return result, apperr.Internal(fmt.Sprintf("%d of %d bookings could not be expired", result.Failed, result.Scanned), nil)
	}
	return result, ctx.Err()
}
