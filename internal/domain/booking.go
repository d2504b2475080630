package domain

import "time"

type BookingStatus string

const (
	BookingStatusInitiated BookingStatus = "INITIATED"
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusBooked    BookingStatus = "BOOKED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// Terminal reports whether no further transition is allowed out of s.
func (s BookingStatus) Terminal() bool {
	return s == BookingStatusBooked || s == BookingStatusCancelled
}

type Booking struct {
	ID        int64         `db:"id" json:"id"`
	FlightID  int64         `db:"flight_id" json:"flightId"`
	UserID    int64         `db:"user_id" json:"userId"`
	NoOfSeats int           `db:"no_of_seats" json:"noOfSeats"`
	TotalCost int64         `db:"total_cost" json:"totalCost"`
	Status    BookingStatus `db:"status" json:"status"`
	CreatedAt time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time     `db:"updated_at" json:"updatedAt"`
}

// StaleCursor is the keyset position of a booking in the (created_at, id)
// order used when paging through unpaid bookings.
type StaleCursor struct {
	CreatedAt time.Time
	ID        int64
}

func (b *Booking) Cursor() StaleCursor {
	return StaleCursor{CreatedAt: b.CreatedAt, ID: b.ID}
}

// Expired reports whether the payment window measured from CreatedAt has passed at now.
func (b *Booking) Expired(now time.Time, window time.Duration) bool {
	return now.Sub(b.CreatedAt) > window
}
