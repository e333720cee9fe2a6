package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/peermarket/backend/internal/service"
)

type errorPayload struct {
	Code          string `json:"code"`
	Message       string `json:"message"`
	CurrentStatus string `json:"currentStatus,omitempty"`
}

type ErrorResponse struct {
	Error errorPayload `json:"error"`
}

func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: errorPayload{
			Code:    code,
			Message: message,
		},
	}
}

// serviceError maps engine errors to HTTP rejections. currentStatus carries
// the entity's authoritative status so clients can reconcile without a
// re-fetch.
func serviceError(c echo.Context, err error, currentStatus string) error {
	resp := func(status int, code string) error {
		r := NewErrorResponse(code, err.Error())
		r.Error.CurrentStatus = currentStatus
		return c.JSON(status, r)
	}
	switch {
	case errors.Is(err, service.ErrNotFound):
		return resp(http.StatusNotFound, "not_found")
	case errors.Is(err, service.ErrUnauthorized):
		return resp(http.StatusForbidden, "forbidden")
	case errors.Is(err, service.ErrInvalidState):
		return resp(http.StatusConflict, "invalid_state")
	default:
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal", "internal error"))
	}
}
