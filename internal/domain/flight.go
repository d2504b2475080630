package domain

// FlightInfo is the part of a flight owned by the remote inventory service
// that the booking saga depends on.
type FlightInfo struct {
	ID         int64 `json:"id"`
	TotalSeats int   `json:"totalSeats"`
	Price      int64 `json:"price"`
}

type SeatDirection int

const (
	SeatsDecrement SeatDirection = iota
	SeatsIncrement
)

func (d SeatDirection) String() string {
	if d == SeatsIncrement {
		return "increment"
	}
	return "decrement"
}
