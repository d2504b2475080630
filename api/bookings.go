package api

import (
	"net/http"
	"strconv"

	"github.com/Domenick1991/flightbooking/internal/apperr"
	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const IdempotencyKeyHeader = "x-idempotency-key"

type BookingHandler struct {
	service booking.BookingUseCase
	log     logrus.FieldLogger
}

type createBookingRequest struct {
	FlightID  int64 `json:"flightId"`
	UserID    int64 `json:"userId"`
	NoOfSeats int   `json:"noOfSeats"`
}

type paymentRequest struct {
	BookingID int64 `json:"bookingId"`
	UserID    int64 `json:"userId"`
	TotalCost int64 `json:"totalCost"`
}

type bookingResponse struct {
	Data *domain.Booking `json:"data"`
}

type cancelResponse struct {
	Cancelled bool `json:"cancelled"`
}

func NewBookingHandler(service booking.BookingUseCase, log logrus.FieldLogger) *BookingHandler {
	return &BookingHandler{service: service, log: log}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.POST("/payments", h.pay)
	router.GET("/:id", h.get)
	router.DELETE("/:id", h.cancel)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.InvalidRequest("malformed booking request"))
		return
	}

	created, err := h.service.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		FlightID:  req.FlightID,
		UserID:    req.UserID,
		NoOfSeats: req.NoOfSeats,
	})
	if err != nil {
		h.fail(c, "create booking", err)
		return
	}

	c.JSON(http.StatusCreated, bookingResponse{Data: created})
}

func (h *BookingHandler) pay(c *gin.Context) {
	key := c.GetHeader(IdempotencyKeyHeader)
	if key == "" {
		writeError(c, apperr.InvalidRequest("idempotency key is missing"))
		return
	}

	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.InvalidRequest("malformed payment request"))
		return
	}

	paid, err := h.service.MakePayment(c.Request.Context(), booking.PaymentInput{
		BookingID:      req.BookingID,
		UserID:         req.UserID,
		TotalCost:      req.TotalCost,
		IdempotencyKey: key,
	})
	if err != nil {
		h.fail(c, "make payment", err)
		return
	}

	c.JSON(http.StatusOK, bookingResponse{Data: paid})
}

func (h *BookingHandler) get(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}

	found, err := h.service.GetBooking(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "get booking", err)
		return
	}

	c.JSON(http.StatusOK, bookingResponse{Data: found})
}

func (h *BookingHandler) cancel(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}

	if err := h.service.CancelBooking(c.Request.Context(), id); err != nil {
		h.fail(c, "cancel booking", err)
		return
	}

	c.JSON(http.StatusOK, cancelResponse{Cancelled: true})
}

func (h *BookingHandler) fail(c *gin.Context, op string, err error) {
	entry := h.log.WithError(err).WithField("op", op)
	switch apperr.KindOf(err) {
	case apperr.KindServiceUnavailable, apperr.KindInternal:
		entry.Error("request failed")
	default:
		entry.Debug("request rejected")
	}
	writeError(c, err)
}

func bookingID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(c, apperr.InvalidRequest("invalid booking id"))
		return 0, false
	}
	return id, true
}
