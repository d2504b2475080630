package notify

import (
	"context"
	"fmt"

	"github.com/Domenick1991/flightbooking/internal/kafka"
	"github.com/sirupsen/logrus"
)

// Sender turns booking events into user notifications. Delivery is a log line
// for now; the worker consumes the notifications topic and calls Send.
type Sender struct {
	log logrus.FieldLogger
}

func NewSender(log logrus.FieldLogger) *Sender {
	return &Sender{log: log}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	text, ok := Message(event)
	if !ok {
		s.log.WithField("type", event.Type).Debug("no notification for event type")
		return nil
	}

	s.log.WithFields(logrus.Fields{
		"user_id":    event.UserID,
		"booking_id": event.BookingID,
		"event_id":   event.ID,
	}).Info(text)
	return nil
}

func Message(event kafka.BookingEvent) (string, bool) {
	switch event.Type {
	case kafka.EventBookingCreated:
		return fmt.Sprintf("booking %d: %d seat(s) on flight %d held, pay %d to confirm",
			event.BookingID, event.NoOfSeats, event.FlightID, event.TotalCost), true
	case kafka.EventBookingConfirmed:
		return fmt.Sprintf("booking %d confirmed for flight %d", event.BookingID, event.FlightID), true
	case kafka.EventBookingCancelled:
		return fmt.Sprintf("booking %d cancelled", event.BookingID), true
	case kafka.EventBookingExpired:
		return fmt.Sprintf("booking %d expired before payment", event.BookingID), true
	default:
		return "", false
	}
}
