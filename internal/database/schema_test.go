package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/Argor01/OkoZnaniy-sub000/internal/database/dbtest"
	"github.com/Argor01/OkoZnaniy-sub000/internal/entity"
)

func TestActiveBidUniquePerExpert(t *testing.T) {
	ctx := context.Background()
	conns := dbtest.New(t)
	now := time.Now().UTC()

	order := &entity.Order{ClientID: 1, Title: "essay", Budget: decimal.NewFromInt(100), Deadline: now.Add(time.Hour), Status: entity.OrderStatusNew, Version: 1, CreatedAt: now, UpdatedAt: now}
	_, err := conns.Writer.NewInsert().Model(order).Exec(ctx)
	require.NoError(t, err)
	require.NotZero(t, order.ID)

	first := &entity.Bid{OrderID: order.ID, ExpertID: 2, Amount: decimal.NewFromInt(90), Status: entity.BidStatusActive, CreatedAt: now}
	_, err = conns.Writer.NewInsert().Model(first).Exec(ctx)
	require.NoError(t, err)

	dup := &entity.Bid{OrderID: order.ID, ExpertID: 2, Amount: decimal.NewFromInt(80), Status: entity.BidStatusActive, CreatedAt: now}
	_, err = conns.Writer.NewInsert().Model(dup).Exec(ctx)
	assert.Error(t, err)

	// a resolved bid does not block a new active one
	_, err = conns.Writer.NewUpdate().Model((*entity.Bid)(nil)).Set("status = ?", entity.BidStatusCancelled).Where("id = ?", first.ID).Exec(ctx)
	require.NoError(t, err)
	dup.ID = 0
	_, err = conns.Writer.NewInsert().Model(dup).Exec(ctx)
	assert.NoError(t, err)
}

func TestRunInTxRollsBack(t *testing.T) {
	ctx := context.Background()
	conns := dbtest.New(t)
	now := time.Now().UTC()

	err := conns.RunInTx(ctx, "test", func(ctx context.Context, tx bun.Tx) error {
		order := &entity.Order{ClientID: 1, Title: "draft", Budget: decimal.NewFromInt(10), Deadline: now, Status: entity.OrderStatusNew, Version: 1, CreatedAt: now, UpdatedAt: now}
		if _, err := tx.NewInsert().Model(order).Exec(ctx); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	count, err := conns.Reader.NewSelect().Model((*entity.Order)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
