package offer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Argor01/OkoZnaniy-sub000/internal/entity"
	orderrepo "github.com/Argor01/OkoZnaniy-sub000/internal/repository/order"
	"github.com/Argor01/OkoZnaniy-sub000/internal/service/servicetest"
	"github.com/Argor01/OkoZnaniy-sub000/pkg/errorbank"
)

const (
	chatID   = int64(77)
	clientID = int64(100)
	expertID = int64(201)
)

func newTestService(t *testing.T) (*Service, *servicetest.Deps, *servicetest.Clock) {
	t.Helper()
	deps := servicetest.New(t)
	clock := &servicetest.Clock{At: time.Date(2026, 4, 10, 10, 0, 0, 0, time.UTC)}

	svc := NewService(Params{
		Connections: deps.Conns,
		Offers:      deps.Offers,
		Orders:      deps.Orders,
		Cache:       deps.Cache,
		Config:      deps.Config,
		Logger:      deps.Logger,
		Dispatcher:  deps.Dispatcher,
		Validator:   deps.Validator,
	})
	svc.now = clock.Now
	return svc, deps, clock
}

func register(t *testing.T, svc *Service, clock *servicetest.Clock, messageID int64) *entity.Offer {
	t.Helper()
	offer, err := svc.RegisterOffer(context.Background(), entity.Expert(expertID), RegisterOfferInput{
		ChatID:      chatID,
		MessageID:   messageID,
		ClientID:    clientID,
		Description: "Essay on Baroque architecture\nTen pages, APA style",
		Cost:        decimal.NewFromInt(3000),
		Deadline:    clock.At.Add(5 * 24 * time.Hour),
	})
	require.NoError(t, err)
	return offer
}

func kindOf(err error) errorbank.Kind {
	return errorbank.From(err).Kind()
}

func TestRegisterOfferValidation(t *testing.T) {
	svc, _, clock := newTestService(t)
	valid := RegisterOfferInput{
		ChatID:      chatID,
		MessageID:   1,
		ClientID:    clientID,
		Description: "Lab report",
		Cost:        decimal.NewFromInt(500),
		Deadline:    clock.At.Add(24 * time.Hour),
	}

	tests := []struct {
		name   string
		actor  entity.Actor
		mutate func(*RegisterOfferInput)
		kind   errorbank.Kind
	}{
		{name: "client cannot offer", actor: entity.Client(clientID), kind: errorbank.KindForbidden},
		{name: "missing description", actor: entity.Expert(expertID), mutate: func(in *RegisterOfferInput) { in.Description = "" }, kind: errorbank.KindInvalidInput},
		{name: "offer to self", actor: entity.Expert(clientID), kind: errorbank.KindInvalidInput},
		{name: "zero cost", actor: entity.Expert(expertID), mutate: func(in *RegisterOfferInput) { in.Cost = decimal.Zero }, kind: errorbank.KindInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			if tt.mutate != nil {
				tt.mutate(&in)
			}
			_, err := svc.RegisterOffer(context.Background(), tt.actor, in)
			assert.Equal(t, tt.kind, kindOf(err))
		})
	}
}

func TestRegisterOfferRejectsDuplicateMessage(t *testing.T) {
	svc, deps, clock := newTestService(t)
	register(t, svc, clock, 10)

	_, err := svc.RegisterOffer(context.Background(), entity.Expert(expertID), RegisterOfferInput{
		ChatID: chatID, MessageID: 10, ClientID: clientID, Description: "again",
		Cost: decimal.NewFromInt(1), Deadline: clock.At.Add(time.Hour),
	})
	assert.Equal(t, errorbank.KindConflict, kindOf(err))
	assert.Equal(t, []string{"offer.registered"}, deps.PublishedTypes(t))
}

func TestConcurrentRegisterKeepsOneOffer(t *testing.T) {
	svc, deps, clock := newTestService(t)
	ctx := context.Background()

	const attempts = 4
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RegisterOffer(ctx, entity.Expert(expertID), RegisterOfferInput{
				ChatID: chatID, MessageID: 11, ClientID: clientID, Description: "Essay on macroeconomics",
				Cost: decimal.NewFromInt(900), Deadline: clock.At.Add(48 * time.Hour),
			})
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}()
	}
	wg.Wait()

	var won int
	for _, err := range errs {
		if err == nil {
			won++
			continue
		}
		assert.Equal(t, errorbank.KindConflict, kindOf(err))
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, []string{"offer.registered"}, deps.PublishedTypes(t))
}

func TestAcceptOfferCreatesAssignedOrder(t *testing.T) {
	svc, deps, clock := newTestService(t)
	ctx := context.Background()
	offer := register(t, svc, clock, 10)

	clock.Advance(2 * time.Hour)
	order, err := svc.AcceptOffer(ctx, entity.Client(clientID), chatID, 10)
	require.NoError(t, err)

	assert.Equal(t, entity.OrderStatusInProgress, order.Status)
	assert.True(t, order.HasExpert(expertID))
	assert.Equal(t, clientID, order.ClientID)
	assert.True(t, decimal.NewFromInt(3000).Equal(order.Budget))
	assert.True(t, offer.Deadline.Equal(order.Deadline))
	assert.Equal(t, "Essay on Baroque architecture", order.Title)
	require.NotNil(t, order.SourceMessageID)
	assert.Equal(t, int64(10), *order.SourceMessageID)

	view, err := svc.GetOffer(ctx, chatID, 10)
	require.NoError(t, err)
	assert.Equal(t, "accepted", view.State)
	require.NotNil(t, view.Offer.OrderID)
	assert.Equal(t, order.ID, *view.Offer.OrderID)

	events, err := deps.Orders.ListEvents(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "offer.accepted", events[0].Type)

	_, err = svc.AcceptOffer(ctx, entity.Client(clientID), chatID, 10)
	assert.Equal(t, errorbank.KindAlreadyResolved, kindOf(err))

	_, err = svc.RejectOffer(ctx, entity.Client(clientID), chatID, 10)
	assert.Equal(t, errorbank.KindAlreadyResolved, kindOf(err))

	assert.Equal(t, []string{"offer.registered", "offer.accepted"}, deps.PublishedTypes(t))
}

func TestAcceptOfferAfterWindowExpires(t *testing.T) {
	svc, deps, clock := newTestService(t)
	ctx := context.Background()
	register(t, svc, clock, 11)

	clock.Advance(72 * time.Hour)

	view, err := svc.GetOffer(ctx, chatID, 11)
	require.NoError(t, err)
	assert.Equal(t, entity.OfferStateExpired, view.State)
	assert.Equal(t, entity.OfferStatusNew, view.Offer.Status)

	_, err = svc.AcceptOffer(ctx, entity.Client(clientID), chatID, 11)
	assert.Equal(t, errorbank.KindExpired, kindOf(err))

	_, err = svc.RejectOffer(ctx, entity.Client(clientID), chatID, 11)
	assert.Equal(t, errorbank.KindExpired, kindOf(err))

	orders, err := deps.Orders.List(ctx, orderrepo.Filter{})
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestAcceptOfferChecksActor(t *testing.T) {
	svc, _, clock := newTestService(t)
	ctx := context.Background()
	register(t, svc, clock, 12)

	_, err := svc.AcceptOffer(ctx, entity.Client(clientID+1), chatID, 12)
	assert.Equal(t, errorbank.KindForbidden, kindOf(err))

	_, err = svc.AcceptOffer(ctx, entity.Expert(expertID), chatID, 12)
	assert.Equal(t, errorbank.KindForbidden, kindOf(err))

	_, err = svc.AcceptOffer(ctx, entity.Client(clientID), chatID, 999)
	assert.Equal(t, errorbank.KindNotFound, kindOf(err))
}

func TestConcurrentAcceptCreatesOneOrder(t *testing.T) {
	svc, deps, clock := newTestService(t)
	ctx := context.Background()
	register(t, svc, clock, 13)

	const attempts = 5
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AcceptOffer(ctx, entity.Client(clientID), chatID, 13)
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}()
	}
	wg.Wait()

	var won int
	for _, err := range errs {
		if err == nil {
			won++
			continue
		}
		assert.Equal(t, errorbank.KindAlreadyResolved, kindOf(err))
	}
	assert.Equal(t, 1, won)

	orders, err := deps.Orders.List(ctx, orderrepo.Filter{})
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestSameMessageIDInTwoChats(t *testing.T) {
	svc, deps, clock := newTestService(t)
	ctx := context.Background()
	const (
		otherChat = chatID + 1
		messageID = int64(5)
	)

	register(t, svc, clock, messageID)
	_, err := svc.RegisterOffer(ctx, entity.Expert(expertID), RegisterOfferInput{
		ChatID:      otherChat,
		MessageID:   messageID,
		ClientID:    clientID,
		Description: "Lab report on titration",
		Cost:        decimal.NewFromInt(1800),
		Deadline:    clock.At.Add(3 * 24 * time.Hour),
	})
	require.NoError(t, err)

	first, err := svc.AcceptOffer(ctx, entity.Client(clientID), chatID, messageID)
	require.NoError(t, err)
	second, err := svc.AcceptOffer(ctx, entity.Client(clientID), otherChat, messageID)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	got, err := deps.Orders.GetBySourceMessage(ctx, otherChat, messageID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
	assert.True(t, decimal.NewFromInt(1800).Equal(got.Budget))
}

func TestRejectOffer(t *testing.T) {
	svc, deps, clock := newTestService(t)
	ctx := context.Background()
	register(t, svc, clock, 14)

	offer, err := svc.RejectOffer(ctx, entity.Client(clientID), chatID, 14)
	require.NoError(t, err)
	assert.Equal(t, entity.OfferStatusRejected, offer.Status)
	assert.Nil(t, offer.OrderID)

	_, err = svc.RejectOffer(ctx, entity.Client(clientID), chatID, 14)
	assert.Equal(t, errorbank.KindAlreadyResolved, kindOf(err))

	views, err := svc.ListOffers(ctx, chatID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "rejected", views[0].State)

	assert.Equal(t, []string{"offer.registered", "offer.rejected"}, deps.PublishedTypes(t))
}

func TestTitleFrom(t *testing.T) {
	assert.Equal(t, "Individual offer", titleFrom("   \nsecond line"))
	long := make([]rune, 200)
	for i := range long {
		long[i] = 'ж'
	}
	title := titleFrom(string(long))
	assert.Equal(t, maxTitleRunes, len([]rune(title)))
}
