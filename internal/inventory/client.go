// Package inventory is the client for the remote flight inventory service.
// Seat capacity is changed only through relative decrement/increment calls.
package inventory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Domenick1991/flightbooking/internal/apperr"
	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/goccy/go-json"
	circuit "github.com/rubyist/circuitbreaker"
)

type Client struct {
	baseURL    string
	httpClient *circuit.HTTPClient
}

type flightEnvelope struct {
	Data flightPayload `json:"data"`
}

type flightPayload struct {
	ID         int64 `json:"id"`
	TotalSeats int   `json:"totalSeats"`
	Price      int64 `json:"price"`
}

type adjustSeatsRequest struct {
	Seats int   `json:"seats"`
	Dec   *bool `json:"dec,omitempty"`
}

// NewClient returns a client whose calls trip a threshold breaker after
// threshold consecutive transport failures.
func NewClient(baseURL string, timeout time.Duration, threshold int64) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: circuit.NewHTTPClient(timeout, threshold, nil),
	}
}

func (c *Client) GetFlight(ctx context.Context, flightID int64) (*domain.FlightInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.flightURL(flightID), nil)
	if err != nil {
		return nil, apperr.Internal("build flight request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.ServiceUnavailable("inventory service is unavailable", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, flightID); err != nil {
		return nil, err
	}

	var env flightEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, apperr.ServiceUnavailable("decode flight response", err)
	}
	return &domain.FlightInfo{
		ID:         flightID,
		TotalSeats: env.Data.TotalSeats,
		Price:      env.Data.Price,
	}, nil
}

// AdjustSeats moves the flight's seat counter by seats in the given direction.
func (c *Client) AdjustSeats(ctx context.Context, flightID int64, seats int, direction domain.SeatDirection) error {
	body := adjustSeatsRequest{Seats: seats}
	if direction == domain.SeatsIncrement {
		dec := false
		body.Dec = &dec
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return apperr.Internal("encode seats request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.flightURL(flightID)+"/seats", bytes.NewReader(payload))
	if err != nil {
		return apperr.Internal("build seats request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperr.ServiceUnavailable("inventory service is unavailable", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return checkStatus(resp, flightID)
}

func (c *Client) flightURL(flightID int64) string {
	return fmt.Sprintf("%s/flights/%d", c.baseURL, flightID)
}

func checkStatus(resp *http.Response, flightID int64) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return apperr.NotFound(fmt.Sprintf("flight %d not found", flightID))
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusConflict:
		return apperr.InvalidRequest("seats are not available")
	default:
		return apperr.ServiceUnavailable("inventory service is unavailable",
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
}
