package handler // handler defines http handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rentease/rentease-server/internal/model"
	"github.com/rentease/rentease-server/internal/repository"
	"github.com/rentease/rentease-server/internal/service"
)

// getUserID extracts the user_id from echo.Context and converts it to uint64.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// actorFrom builds the authenticated principal from the JWT claims
// stored in context by the auth middleware.
func actorFrom(c echo.Context) (model.Actor, error) {
	id, err := getUserID(c)
	if err != nil {
		return model.Actor{}, err
	}
	role, _ := c.Get("role").(string)
	return model.Actor{ID: id, Role: model.Role(role)}, nil
}

// pathID parses a numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

// parseDate parses a YYYY-MM-DD query or body value as a UTC date.
func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

// respondErr translates domain errors into HTTP responses.  Anything
// unrecognized becomes a 500 with a generic message so internals do
// not leak to clients.
func respondErr(c echo.Context, err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, repository.ErrPropertyNotFound),
		errors.Is(err, repository.ErrBookingNotFound),
		errors.Is(err, repository.ErrPaymentNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "dates not available"})
	case errors.Is(err, repository.ErrDuplicateIntent),
		errors.Is(err, repository.ErrAlreadyReviewed),
		errors.Is(err, service.ErrAlreadyPaid):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrExpired),
		errors.Is(err, service.ErrInvalidRange),
		errors.Is(err, service.ErrPropertyUnavailable),
		errors.Is(err, service.ErrOwnBooking),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrStayNotOver),
		errors.Is(err, service.ErrNotPayable),
		errors.Is(err, service.ErrNotDecidable),
		errors.Is(err, service.ErrNotReviewable):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	c.Logger().Errorf("internal error: %v", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
