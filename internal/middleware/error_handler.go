package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/brokealtyapp/tudestinotours-sub001/internal/ledger"
)

// APIError is the error envelope every failed request returns.
type APIError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ErrorKind maps a domain error onto the wire-level error kind.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ledger.ErrValidation):
		return "validation"
	case errors.Is(err, ledger.ErrNotFound):
		return "not_found"
	case errors.Is(err, ledger.ErrAlreadyPaid), errors.Is(err, ledger.ErrVersionConflict):
		return "conflict"
	case errors.Is(err, ledger.ErrInvalidState):
		return "invalid_state"
	default:
		return "internal"
	}
}

// ErrorStatus maps a domain error onto an HTTP status code.
func ErrorStatus(err error) int {
	switch {
	case errors.Is(err, ledger.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrAlreadyPaid),
		errors.Is(err, ledger.ErrVersionConflict),
		errors.Is(err, ledger.ErrInvalidState):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// CustomErrorHandler renders every error as a JSON envelope. Domain errors
// from the ledger keep their kind and message; unexpected errors collapse
// to a generic internal failure so internals do not leak.
func CustomErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	kind := "internal"
	message := "Something went wrong. Please try again later."

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if msg, ok := he.Message.(string); ok && msg != "" {
			message = msg
		}
		switch code {
		case http.StatusNotFound:
			kind = "not_found"
		case http.StatusBadRequest:
			kind = "validation"
		case http.StatusConflict:
			kind = "conflict"
		case http.StatusUnauthorized, http.StatusForbidden:
			kind = "unauthorized"
		}
	} else if k := ErrorKind(err); k != "internal" {
		code = ErrorStatus(err)
		kind = k
		message = err.Error()
	}

	c.Logger().Error(err)

	if jsonErr := c.JSON(code, map[string]APIError{"error": {Kind: kind, Message: message}}); jsonErr != nil {
		c.Logger().Error(jsonErr)
	}
}
