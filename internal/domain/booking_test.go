package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBookingStatus_Terminal(t *testing.T) {
	assert.False(t, BookingStatusInitiated.Terminal())
	assert.False(t, BookingStatusPending.Terminal())
	assert.True(t, BookingStatusBooked.Terminal())
	assert.True(t, BookingStatusCancelled.Terminal())
}

func TestBooking_Expired(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	b := &Booking{CreatedAt: created}
	window := 300 * time.Second

	assert.False(t, b.Expired(created.Add(299*time.Second), window))
	assert.False(t, b.Expired(created.Add(300*time.Second), window))
	assert.True(t, b.Expired(created.Add(301*time.Second), window))
}

func TestBooking_Cursor(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	b := &Booking{ID: 42, CreatedAt: created}

	assert.Equal(t, StaleCursor{CreatedAt: created, ID: 42}, b.Cursor())
}
