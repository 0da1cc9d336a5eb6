package http

import (
	"context"
	"errors"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	echo "github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/Argor01/OkoZnaniy-sub000/internal/config"
	"github.com/Argor01/OkoZnaniy-sub000/pkg/validation"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func serve(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestReadyReflectsDatabase(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "reachable", status: nethttp.StatusOK},
		{name: "down", err: errors.New("connection refused"), status: nethttp.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEcho(config.Config{}, nil, validation.New(), stubPinger{err: tt.err}, zap.NewNop())
			rec := serve(e, nethttp.MethodGet, "/ready", "")
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestHealthStampsRequestID(t *testing.T) {
	e := newEcho(config.Config{}, nil, validation.New(), stubPinger{}, zap.NewNop())

	rec := serve(e, nethttp.MethodGet, "/health", "")
	assert.Equal(t, nethttp.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestBodyLimitRejectsOversizedPayloads(t *testing.T) {
	e := newEcho(config.Config{}, nil, validation.New(), stubPinger{}, zap.NewNop())
	e.POST("/echo", func(c echo.Context) error { return c.NoContent(nethttp.StatusNoContent) })

	rec := serve(e, nethttp.MethodPost, "/echo", strings.Repeat("x", 2<<20))
	assert.Equal(t, nethttp.StatusRequestEntityTooLarge, rec.Code)
}
