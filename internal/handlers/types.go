package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// timeNow is swappable in tests
var timeNow = time.Now

// getStringFromContext reads a string value set by the auth middleware
func getStringFromContext(c echo.Context, key string) string {
	if val := c.Get(key); val != nil {
		if s, ok := val.(string); ok {
			return s
		}
	}
	return ""
}

// actorFromContext identifies the admin performing a mutation for the
// audit trail. Falls back to "admin" when the claim is missing.
func actorFromContext(c echo.Context) string {
	if email := getStringFromContext(c, "userEmail"); email != "" {
		return email
	}
	return "admin"
}

// paramID parses a numeric path parameter
func paramID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+name)
	}
	return uint(id), nil
}

// queryDate parses an optional YYYY-MM-DD query parameter
func queryDate(c echo.Context, name string) (*time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+name+", expected YYYY-MM-DD")
	}
	return &t, nil
}

// queryDecimal parses an optional decimal query parameter
func queryDecimal(c echo.Context, name string) (*decimal.Decimal, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+name+", expected a decimal amount")
	}
	return &d, nil
}

// queryInt parses an optional integer query parameter, returning def when absent
func queryInt(c echo.Context, name string, def int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return def
	}
	if v, err := strconv.Atoi(raw); err == nil {
		return v
	}
	return def
}

// queryUint parses an optional unsigned integer query parameter
func queryUint(c echo.Context, name string) uint {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0
	}
	if v, err := strconv.ParseUint(raw, 10, 32); err == nil {
		return uint(v)
	}
	return 0
}
