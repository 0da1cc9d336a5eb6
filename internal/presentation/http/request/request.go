// Package request extracts the caller and path parameters from echo requests.
package request

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Argor01/OkoZnaniy-sub000/internal/entity"
	"github.com/Argor01/OkoZnaniy-sub000/pkg/errorbank"
)

// Identity headers set by the authenticating gateway in front of the engine.
const (
	HeaderActorID   = "X-Actor-ID"
	HeaderActorRole = "X-Actor-Role"
)

// Actor reads the caller identity.
func Actor(c echo.Context) (entity.Actor, error) {
	rawID := c.Request().Header.Get(HeaderActorID)
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return entity.Actor{}, errorbank.Forbidden("missing or malformed actor id", errorbank.WithDetail("header", HeaderActorID))
	}
	role, ok := entity.ParseRole(c.Request().Header.Get(HeaderActorRole))
	if !ok {
		return entity.Actor{}, errorbank.Forbidden("missing or unknown actor role", errorbank.WithDetail("header", HeaderActorRole))
	}
	return entity.Actor{ID: id, Role: role}, nil
}

// ParamID parses a positive integer path parameter.
func ParamID(c echo.Context, name string) (int64, error) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errorbank.InvalidInput("invalid "+name, errorbank.WithDetail(name, raw))
	}
	return id, nil
}

// QueryInt parses an optional integer query parameter, returning def when absent.
func QueryInt(c echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errorbank.InvalidInput("invalid "+name, errorbank.WithDetail(name, raw))
	}
	return v, nil
}

// Bind decodes the body into payload and runs the echo validator on it.
func Bind(c echo.Context, payload any) error {
	if err := c.Bind(payload); err != nil {
		return errorbank.InvalidInput("invalid payload", errorbank.WithCause(err))
	}
	if c.Echo().Validator == nil {
		return nil
	}
	if err := c.Validate(payload); err != nil {
		return errorbank.From(err)
	}
	return nil
}
