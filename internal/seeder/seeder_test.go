package seeder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Argor01/OkoZnaniy-sub000/internal/database/dbtest"
	"github.com/Argor01/OkoZnaniy-sub000/internal/entity"
	bidrepo "github.com/Argor01/OkoZnaniy-sub000/internal/repository/bid"
	orderrepo "github.com/Argor01/OkoZnaniy-sub000/internal/repository/order"
)

func TestOrdersSeedsOnce(t *testing.T) {
	conns := dbtest.New(t)
	s := New(conns, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, s.Orders(ctx))
	require.NoError(t, s.Orders(ctx))

	orders, err := orderrepo.NewRepository(conns).List(ctx, orderrepo.Filter{ClientID: DemoClientID})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, entity.OrderStatusNew, orders[0].Status)

	bids, err := bidrepo.NewRepository(conns).ListByOrder(ctx, orders[0].ID, entity.BidStatusActive)
	require.NoError(t, err)
	assert.Len(t, bids, 2)
}
