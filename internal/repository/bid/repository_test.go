package bid_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Argor01/OkoZnaniy-sub000/internal/database"
	"github.com/Argor01/OkoZnaniy-sub000/internal/database/dbtest"
	"github.com/Argor01/OkoZnaniy-sub000/internal/entity"
	bidrepo "github.com/Argor01/OkoZnaniy-sub000/internal/repository/bid"
	orderrepo "github.com/Argor01/OkoZnaniy-sub000/internal/repository/order"
)

func seedOrder(t *testing.T, conns *database.Connections, now time.Time) *entity.Order {
	t.Helper()
	o := &entity.Order{
		ClientID:  1,
		Title:     "Thesis chapter",
		Budget:    decimal.NewFromInt(3000),
		Deadline:  now.Add(96 * time.Hour),
		Status:    entity.OrderStatusNew,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, orderrepo.NewRepository(conns).Create(context.Background(), o))
	return o
}

func placeBid(t *testing.T, repo *bidrepo.Repository, orderID, expertID int64, amount int64, now time.Time) *entity.Bid {
	t.Helper()
	b := &entity.Bid{
		OrderID:   orderID,
		ExpertID:  expertID,
		Amount:    decimal.NewFromInt(amount),
		Status:    entity.BidStatusActive,
		CreatedAt: now,
	}
	require.NoError(t, repo.Create(context.Background(), b))
	return b
}

func TestResolveIsSingleShot(t *testing.T) {
	ctx := context.Background()
	conns := dbtest.New(t)
	repo := bidrepo.NewRepository(conns)
	now := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)

	o := seedOrder(t, conns, now)
	b := placeBid(t, repo, o.ID, 20, 2500, now)

	require.NoError(t, repo.Resolve(ctx, b, entity.BidStatusRejected, now))
	assert.Equal(t, entity.BidStatusRejected, b.Status)
	require.NotNil(t, b.ResolvedAt)

	stale := &entity.Bid{ID: b.ID}
	assert.ErrorIs(t, repo.Resolve(ctx, stale, entity.BidStatusAccepted, now), bidrepo.ErrConflict)

	got, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.BidStatusRejected, got.Status)

	_, err = repo.GetByID(ctx, b.ID+50)
	assert.ErrorIs(t, err, bidrepo.ErrNotFound)
}

func TestResolveActiveSparesWinner(t *testing.T) {
	ctx := context.Background()
	conns := dbtest.New(t)
	repo := bidrepo.NewRepository(conns)
	now := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)

	o := seedOrder(t, conns, now)
	winner := placeBid(t, repo, o.ID, 20, 2500, now)
	placeBid(t, repo, o.ID, 21, 2700, now)
	placeBid(t, repo, o.ID, 22, 2900, now)

	n, err := repo.ResolveActive(ctx, o.ID, winner.ID, entity.BidStatusRejected, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	active, err := repo.ListByOrder(ctx, o.ID, entity.BidStatusActive)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, winner.ID, active[0].ID)

	all, err := repo.ListByOrder(ctx, o.ID, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestActiveForOnlySeesLiveBid(t *testing.T) {
	ctx := context.Background()
	conns := dbtest.New(t)
	repo := bidrepo.NewRepository(conns)
	now := time.Now().UTC()

	o := seedOrder(t, conns, now)
	b := placeBid(t, repo, o.ID, 20, 2500, now)

	got, err := repo.ActiveFor(ctx, o.ID, 20)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	require.NoError(t, repo.Resolve(ctx, b, entity.BidStatusCancelled, now))
	_, err = repo.ActiveFor(ctx, o.ID, 20)
	assert.ErrorIs(t, err, bidrepo.ErrNotFound)

	require.NoError(t, repo.DeleteByOrder(ctx, o.ID))
	all, err := repo.ListByOrder(ctx, o.ID, "")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreateRejectsSecondActiveBid(t *testing.T) {
	ctx := context.Background()
	conns := dbtest.New(t)
	repo := bidrepo.NewRepository(conns)
	now := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	order := seedOrder(t, conns, now)

	first := placeBid(t, repo, order.ID, 50, 2500, now)

	dup := &entity.Bid{
		OrderID:   order.ID,
		ExpertID:  50,
		Amount:    decimal.NewFromInt(2400),
		Status:    entity.BidStatusActive,
		CreatedAt: now,
	}
	assert.ErrorIs(t, repo.Create(ctx, dup), bidrepo.ErrConflict)

	// a resolved bid frees the slot
	require.NoError(t, repo.Resolve(ctx, first, entity.BidStatusCancelled, now))
	require.NoError(t, repo.Create(ctx, dup))
}
