package seeder

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/Argor01/OkoZnaniy-sub000/internal/database"
	"github.com/Argor01/OkoZnaniy-sub000/internal/entity"
	bidrepo "github.com/Argor01/OkoZnaniy-sub000/internal/repository/bid"
	orderrepo "github.com/Argor01/OkoZnaniy-sub000/internal/repository/order"
)

// Demo identities used by the seed data.
const (
	DemoClientID  int64 = 1001
	DemoExpertAID int64 = 2001
	DemoExpertBID int64 = 2002
)

// Seeder performs database seeding for local/dev setups.
type Seeder struct {
	conns  *database.Connections
	orders *orderrepo.Repository
	bids   *bidrepo.Repository
	logger *zap.Logger
	now    func() time.Time
}

// New constructs a Seeder backed by the primary database connection.
func New(conns *database.Connections, logger *zap.Logger) *Seeder {
	return &Seeder{
		conns:  conns,
		orders: orderrepo.NewRepository(conns),
		bids:   bidrepo.NewRepository(conns),
		logger: logger,
		now:    time.Now,
	}
}

// Orders seeds a new order from the demo client with two competing bids.
// It does nothing when the demo client already has orders.
func (s *Seeder) Orders(ctx context.Context) error {
	existing, err := s.orders.List(ctx, orderrepo.Filter{ClientID: DemoClientID, Limit: 1})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		if s.logger != nil {
			s.logger.Info("demo orders already present; skipping")
		}
		return nil
	}

	now := s.now().UTC()
	order := &entity.Order{
		ClientID:    DemoClientID,
		Title:       "Demo: linear algebra coursework",
		Description: "Twelve exercises on eigenvalues, handwritten scans welcome.",
		Budget:      decimal.NewFromInt(4000),
		Deadline:    now.Add(7 * 24 * time.Hour),
		Status:      entity.OrderStatusNew,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	bids := []*entity.Bid{
		{ExpertID: DemoExpertAID, Amount: decimal.NewFromInt(3500), Comment: "Done in three days", Status: entity.BidStatusActive, CreatedAt: now},
		{ExpertID: DemoExpertBID, Amount: decimal.NewFromInt(3900), Comment: "Includes a walkthrough call", Status: entity.BidStatusActive, CreatedAt: now},
	}

	err = s.conns.RunInTx(ctx, "Seed", func(ctx context.Context, tx bun.Tx) error {
		if err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
			return err
		}
		for _, bid := range bids {
			bid.OrderID = order.ID
			if err := s.bids.WithTx(tx).Create(ctx, bid); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Info("seeded demo order", zap.Int64("order_id", order.ID), zap.Int("bids", len(bids)))
	}
	return nil
}
