package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/MintEngine/mintcraft-node/internal/engine"
	"github.com/MintEngine/mintcraft-node/internal/model"
)

// currentAccountID extracts the authenticated account id stored by the
// JWT middleware.  JWT numeric claims decode as float64; some clients
// re-issue tokens with string subjects, so both are accepted.
func currentAccountID(c echo.Context) (model.AccountID, bool) {
	switch v := c.Get("user_id").(type) {
	case float64:
		return model.AccountID(v), true
	case string:
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return model.AccountID(n), true
		}
	case uint64:
		return model.AccountID(v), true
	}
	return 0, false
}

// pathUint parses a numeric path parameter.
func pathUint(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

// engineError maps the engine's sentinel errors onto HTTP responses so
// every handler reports failures the same way.
func engineError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, engine.ErrAlreadyExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "already exists"})
	case errors.Is(err, engine.ErrCollision):
		return c.JSON(http.StatusConflict, echo.Map{"error": "ticket collision, retry"})
	case errors.Is(err, engine.ErrAssetUnavailable):
		return c.JSON(http.StatusConflict, echo.Map{"error": "asset not available"})
	case errors.Is(err, engine.ErrInsufficientFunds):
		return c.JSON(http.StatusPaymentRequired, echo.Map{"error": "insufficient funds"})
	case errors.Is(err, engine.ErrWrongState):
		return c.JSON(http.StatusConflict, echo.Map{"error": "wrong lifecycle state"})
	case errors.Is(err, engine.ErrExpired):
		return c.JSON(http.StatusGone, echo.Map{"error": "ticket expired"})
	case errors.Is(err, engine.ErrUnauthorized):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, engine.ErrUnknownOutcome):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "unknown outcome"})
	case errors.Is(err, engine.ErrInvalidDistribution):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "invalid reward distribution"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
