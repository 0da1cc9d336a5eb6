package validation

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Argor01/OkoZnaniy-sub000/pkg/errorbank"
)

type payload struct {
	Title    string          `json:"title" validate:"required,max=10"`
	Amount   decimal.Decimal `json:"amount" validate:"required"`
	Deadline time.Time       `json:"deadline" validate:"required"`
}

func TestValidateReportsJSONFieldNames(t *testing.T) {
	v := New()

	err := v.Validate(payload{Title: "this title is too long"})
	require.Error(t, err)

	appErr := errorbank.From(err)
	assert.Equal(t, errorbank.KindInvalidInput, appErr.Kind())
	fields, ok := appErr.Details()["fields"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "max=10", fields["title"])
	assert.Equal(t, "required", fields["deadline"])
}

func TestValidateAcceptsCompletePayload(t *testing.T) {
	v := New()
	err := v.Validate(payload{Title: "essay", Amount: decimal.NewFromInt(5), Deadline: time.Now()})
	assert.NoError(t, err)
}
