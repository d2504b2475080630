package api

import (
	"net/http"

	"github.com/Domenick1991/flightbooking/internal/apperr"
	"github.com/gin-gonic/gin"
)

type errorBody struct {
	Kind    apperr.Kind `json:"kind"`
	Message string      `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// StatusFor maps an error kind to the HTTP status returned to clients.
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindInvalidRequest:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindPaymentMismatch:
		return http.StatusPaymentRequired
	case apperr.KindServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	message := err.Error()
	if kind == apperr.KindInternal {
		message = "internal error"
	}
	c.JSON(StatusFor(kind), errorResponse{Error: errorBody{Kind: kind, Message: message}})
}
