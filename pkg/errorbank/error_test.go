package errorbank

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
)

func TestStatusAndGRPCMapping(t *testing.T) {
	tests := []struct {
		kind   Kind
		status int
		code   codes.Code
	}{
		{KindInvalidInput, http.StatusBadRequest, codes.InvalidArgument},
		{KindInvalidAmount, http.StatusUnprocessableEntity, codes.InvalidArgument},
		{KindNotFound, http.StatusNotFound, codes.NotFound},
		{KindForbidden, http.StatusForbidden, codes.PermissionDenied},
		{KindInvalidState, http.StatusConflict, codes.FailedPrecondition},
		{KindConflict, http.StatusConflict, codes.Aborted},
		{KindExpired, http.StatusGone, codes.FailedPrecondition},
		{KindAlreadyResolved, http.StatusConflict, codes.AlreadyExists},
		{KindInternal, http.StatusInternalServerError, codes.Internal},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			err := New(tt.kind, "")
			assert.Equal(t, tt.status, err.StatusCode())
			assert.Equal(t, tt.code, err.GRPCCode())
			assert.Equal(t, string(tt.kind), err.Message())
		})
	}
}

func TestFromWrapsUnknownErrors(t *testing.T) {
	cause := errors.New("disk on fire")
	appErr := From(cause)

	assert.Equal(t, KindInternal, appErr.Kind())
	assert.ErrorIs(t, appErr, cause)
	assert.Nil(t, From(nil))
}

func TestIsSeesThroughWrapping(t *testing.T) {
	err := fmt.Errorf("accept offer: %w", Expired("offer expired", WithDetail("offer_id", 7)))

	assert.True(t, Is(err, KindExpired))
	assert.False(t, Is(err, KindConflict))
	assert.False(t, Is(errors.New("plain"), KindExpired))
	assert.Equal(t, 7, From(err).Details()["offer_id"])
}
