package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Argor01/OkoZnaniy-sub000/internal/entity"
	"github.com/Argor01/OkoZnaniy-sub000/pkg/errorbank"
)

func TestCanUpload(t *testing.T) {
	tests := []struct {
		name  string
		order *entity.Order
		actor entity.Actor
		kind  entity.FileKind
		want  errorbank.Kind
	}{
		{"client attaches task to new order", orderIn(entity.OrderStatusNew, nil), entity.Client(clientID), entity.FileKindTask, ""},
		{"client attaches task during review", orderIn(entity.OrderStatusReview, ptr(expertID)), entity.Client(clientID), entity.FileKindTask, ""},
		{"stranger attaches task", orderIn(entity.OrderStatusNew, nil), entity.Client(otherID), entity.FileKindTask, errorbank.KindForbidden},
		{"task on completed order", orderIn(entity.OrderStatusCompleted, ptr(expertID)), entity.Client(clientID), entity.FileKindTask, errorbank.KindInvalidState},

		{"assignee uploads solution", orderIn(entity.OrderStatusInProgress, ptr(expertID)), entity.Expert(expertID), entity.FileKindSolution, ""},
		{"assignee uploads revision", orderIn(entity.OrderStatusRevision, ptr(expertID)), entity.Expert(expertID), entity.FileKindRevision, ""},
		{"solution during review", orderIn(entity.OrderStatusReview, ptr(expertID)), entity.Expert(expertID), entity.FileKindSolution, errorbank.KindInvalidState},
		{"solution on unassigned order", orderIn(entity.OrderStatusNew, nil), entity.Expert(expertID), entity.FileKindSolution, errorbank.KindForbidden},
		{"other expert uploads solution", orderIn(entity.OrderStatusInProgress, ptr(expertID)), entity.Expert(otherID), entity.FileKindSolution, errorbank.KindForbidden},
		{"client uploads solution", orderIn(entity.OrderStatusInProgress, ptr(expertID)), entity.Client(clientID), entity.FileKindSolution, errorbank.KindForbidden},
		{"unknown kind", orderIn(entity.OrderStatusInProgress, ptr(expertID)), entity.Expert(expertID), entity.FileKind("zip"), errorbank.KindInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanUpload(tt.order, tt.actor, tt.kind)
			if tt.want == "" {
				require.NoError(t, err)
				return
			}
			assert.Equal(t, tt.want, errorbank.From(err).Kind())
		})
	}
}
