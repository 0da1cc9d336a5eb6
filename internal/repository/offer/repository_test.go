package offer_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Argor01/OkoZnaniy-sub000/internal/database/dbtest"
	"github.com/Argor01/OkoZnaniy-sub000/internal/entity"
	offerrepo "github.com/Argor01/OkoZnaniy-sub000/internal/repository/offer"
)

func newOffer(chatID, messageID int64, now time.Time) *entity.Offer {
	return &entity.Offer{
		ChatID:      chatID,
		MessageID:   messageID,
		ExpertID:    20,
		ClientID:    10,
		Description: "Course project on graph algorithms",
		Cost:        decimal.RequireFromString("4200.00"),
		Deadline:    now.Add(7 * 24 * time.Hour),
		Status:      entity.OfferStatusNew,
		CreatedAt:   now,
	}
}

func TestGetByChatMessage(t *testing.T) {
	ctx := context.Background()
	repo := offerrepo.NewRepository(dbtest.New(t))
	now := time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)

	o := newOffer(3, 41, now)
	require.NoError(t, repo.Create(ctx, o))

	got, err := repo.Get(ctx, 3, 41)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)
	assert.True(t, o.Cost.Equal(got.Cost))

	_, err = repo.Get(ctx, 3, 42)
	assert.ErrorIs(t, err, offerrepo.ErrNotFound)

	// one offer per chat message
	assert.ErrorIs(t, repo.Create(ctx, newOffer(3, 41, now)), offerrepo.ErrDuplicate)
	require.NoError(t, repo.Create(ctx, newOffer(4, 41, now)))
}

func TestResolveFirstWriterWins(t *testing.T) {
	ctx := context.Background()
	repo := offerrepo.NewRepository(dbtest.New(t))
	now := time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)

	o := newOffer(3, 41, now)
	require.NoError(t, repo.Create(ctx, o))

	loser, err := repo.Get(ctx, 3, 41)
	require.NoError(t, err)

	require.NoError(t, repo.Resolve(ctx, o, entity.OfferStatusRejected, nil, now))
	assert.Equal(t, entity.OfferStatusRejected, o.Status)
	assert.ErrorIs(t, repo.Resolve(ctx, loser, entity.OfferStatusAccepted, nil, now), offerrepo.ErrConflict)
	assert.Equal(t, entity.OfferStatusNew, loser.Status)
}

func TestLinkOrderAndList(t *testing.T) {
	ctx := context.Background()
	repo := offerrepo.NewRepository(dbtest.New(t))
	now := time.Now().UTC()

	first := newOffer(3, 41, now)
	second := newOffer(3, 44, now)
	other := newOffer(9, 41, now)
	for _, o := range []*entity.Offer{first, second, other} {
		require.NoError(t, repo.Create(ctx, o))
	}

	require.NoError(t, repo.Resolve(ctx, first, entity.OfferStatusAccepted, nil, now))
	require.NoError(t, repo.LinkOrder(ctx, first, 77))

	got, err := repo.Get(ctx, 3, 41)
	require.NoError(t, err)
	require.NotNil(t, got.OrderID)
	assert.Equal(t, int64(77), *got.OrderID)

	list, err := repo.ListByChat(ctx, 3)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)
}
