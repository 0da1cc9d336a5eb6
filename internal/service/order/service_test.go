package order

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Argor01/OkoZnaniy-sub000/internal/cache"
	"github.com/Argor01/OkoZnaniy-sub000/internal/entity"
	"github.com/Argor01/OkoZnaniy-sub000/internal/service/servicetest"
	"github.com/Argor01/OkoZnaniy-sub000/pkg/errorbank"
)

const (
	clientID = int64(100)
	expert1  = int64(201)
	expert2  = int64(202)
)

func newTestService(t *testing.T) (*Service, *servicetest.Deps, *servicetest.Clock) {
	t.Helper()
	deps := servicetest.New(t)
	clock := &servicetest.Clock{At: time.Date(2026, 4, 10, 10, 0, 0, 0, time.UTC)}

	svc := NewService(Params{
		Connections: deps.Conns,
		Repository:  deps.Orders,
		Bids:        deps.Bids,
		Files:       deps.Files,
		Cache:       deps.Cache,
		Config:      deps.Config,
		Logger:      deps.Logger,
		Dispatcher:  deps.Dispatcher,
		Validator:   deps.Validator,
	})
	svc.now = clock.Now
	return svc, deps, clock
}

func createOrder(t *testing.T, svc *Service, budget int64) *entity.Order {
	t.Helper()
	order, err := svc.CreateOrder(context.Background(), entity.Client(clientID), CreateOrderInput{
		Title:    "Statistics coursework",
		Budget:   decimal.NewFromInt(budget),
		Deadline: svc.now().Add(7 * 24 * time.Hour),
	})
	require.NoError(t, err)
	return order
}

func kindOf(err error) errorbank.Kind {
	return errorbank.From(err).Kind()
}

func TestCreateOrderValidation(t *testing.T) {
	svc, _, clock := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		actor entity.Actor
		in    CreateOrderInput
		want  errorbank.Kind
	}{
		{
			name:  "expert cannot create",
			actor: entity.Expert(expert1),
			in:    CreateOrderInput{Title: "x", Budget: decimal.NewFromInt(10), Deadline: clock.At.Add(time.Hour)},
			want:  errorbank.KindForbidden,
		},
		{
			name:  "missing title",
			actor: entity.Client(clientID),
			in:    CreateOrderInput{Budget: decimal.NewFromInt(10), Deadline: clock.At.Add(time.Hour)},
			want:  errorbank.KindInvalidInput,
		},
		{
			name:  "zero budget",
			actor: entity.Client(clientID),
			in:    CreateOrderInput{Title: "x", Budget: decimal.Zero, Deadline: clock.At.Add(time.Hour)},
			want:  errorbank.KindInvalidAmount,
		},
		{
			name:  "negative budget",
			actor: entity.Client(clientID),
			in:    CreateOrderInput{Title: "x", Budget: decimal.NewFromInt(-5), Deadline: clock.At.Add(time.Hour)},
			want:  errorbank.KindInvalidAmount,
		},
		{
			name:  "deadline in the past",
			actor: entity.Client(clientID),
			in:    CreateOrderInput{Title: "x", Budget: decimal.NewFromInt(10), Deadline: clock.At.Add(-time.Hour)},
			want:  errorbank.KindInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateOrder(ctx, tt.actor, tt.in)
			require.Error(t, err)
			assert.Equal(t, tt.want, kindOf(err))
		})
	}
}

func TestOrderRoundTripToCompleted(t *testing.T) {
	svc, deps, _ := newTestService(t)
	ctx := context.Background()

	order := createOrder(t, svc, 5000)
	assert.Equal(t, entity.OrderStatusNew, order.Status)
	assert.Nil(t, order.ExpertID)

	order, err := svc.TakeOrder(ctx, entity.Expert(expert1), order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusInProgress, order.Status)
	require.NotNil(t, order.ExpertID)
	assert.Equal(t, expert1, *order.ExpertID)

	order, err = svc.SubmitForReview(ctx, entity.Expert(expert1), order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusReview, order.Status)

	order, err = svc.ApproveOrder(ctx, entity.Client(clientID), order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusCompleted, order.Status)

	// completed is terminal
	_, err = svc.TakeOrder(ctx, entity.Expert(expert2), order.ID)
	assert.Equal(t, errorbank.KindInvalidState, kindOf(err))
	_, err = svc.SubmitForReview(ctx, entity.Expert(expert1), order.ID)
	assert.Equal(t, errorbank.KindInvalidState, kindOf(err))
	_, err = svc.ApproveOrder(ctx, entity.Client(clientID), order.ID)
	assert.Equal(t, errorbank.KindInvalidState, kindOf(err))
	_, err = svc.RequestRevision(ctx, entity.Client(clientID), order.ID, "more")
	assert.Equal(t, errorbank.KindInvalidState, kindOf(err))
	_, err = svc.CancelOrder(ctx, entity.Client(clientID), order.ID, "")
	assert.Equal(t, errorbank.KindInvalidState, kindOf(err))

	history, err := svc.History(ctx, order.ID)
	require.NoError(t, err)
	var types []string
	for _, ev := range history {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []string{"order.created", "order.taken", "order.submitted", "order.approved"}, types)
	assert.Equal(t, types, deps.PublishedTypes(t))
}

// Scenario A: two experts take the same order at the same instant.
func TestConcurrentTakeHasSingleWinner(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	order := createOrder(t, svc, 5000)

	experts := []int64{expert1, expert2}
	errs := make([]error, len(experts))
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i, id := range experts {
		wg.Add(1)
		go func(i int, id int64) {
			defer wg.Done()
			<-start
			_, errs[i] = svc.TakeOrder(ctx, entity.Expert(id), order.ID)
		}(i, id)
	}
	close(start)
	wg.Wait()

	var winners, conflicts int
	var winner int64
	for i, err := range errs {
		switch {
		case err == nil:
			winners++
			winner = experts[i]
		case errorbank.Is(err, errorbank.KindConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, winners)
	assert.Equal(t, 1, conflicts)

	stored, err := svc.Get(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ExpertID)
	assert.Equal(t, winner, *stored.ExpertID)
	assert.Equal(t, int64(2), stored.Version)
}

// Scenario D: revision loop back to review.
func TestRevisionLoop(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	order := createOrder(t, svc, 1200)

	_, err := svc.TakeOrder(ctx, entity.Expert(expert1), order.ID)
	require.NoError(t, err)
	_, err = svc.SubmitForReview(ctx, entity.Expert(expert1), order.ID)
	require.NoError(t, err)

	order, err = svc.RequestRevision(ctx, entity.Client(clientID), order.ID, "add references")
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusRevision, order.Status)

	// only the assigned expert may resubmit
	_, err = svc.SubmitForReview(ctx, entity.Expert(expert2), order.ID)
	assert.Equal(t, errorbank.KindForbidden, kindOf(err))

	order, err = svc.SubmitForReview(ctx, entity.Expert(expert1), order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusReview, order.Status)

	order, err = svc.RequestRevision(ctx, entity.Client(clientID), order.ID, "")
	require.NoError(t, err)
	order, err = svc.ResumeWork(ctx, entity.Expert(expert1), order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusInProgress, order.Status)

	history, err := svc.History(ctx, order.ID)
	require.NoError(t, err)
	require.NotEmpty(t, history)
	var noted bool
	for _, ev := range history {
		if ev.Type == "order.revision_requested" && ev.Note == "add references" {
			noted = true
		}
	}
	assert.True(t, noted)
}

func TestWrongActorsAreForbidden(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	order := createOrder(t, svc, 900)

	_, err := svc.TakeOrder(ctx, entity.Client(clientID), order.ID)
	assert.Equal(t, errorbank.KindForbidden, kindOf(err))

	_, err = svc.TakeOrder(ctx, entity.Expert(expert1), order.ID)
	require.NoError(t, err)

	_, err = svc.SubmitForReview(ctx, entity.Expert(expert2), order.ID)
	assert.Equal(t, errorbank.KindForbidden, kindOf(err))

	_, err = svc.CancelOrder(ctx, entity.Client(999), order.ID, "")
	assert.Equal(t, errorbank.KindForbidden, kindOf(err))

	_, err = svc.ApproveOrder(ctx, entity.Client(clientID), order.ID)
	assert.Equal(t, errorbank.KindInvalidState, kindOf(err))

	_, err = svc.TakeOrder(ctx, entity.Expert(expert1), 424242)
	assert.Equal(t, errorbank.KindNotFound, kindOf(err))
}

func TestCancelKeepsExpertAndBlocksProgress(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	order := createOrder(t, svc, 700)

	_, err := svc.TakeOrder(ctx, entity.Expert(expert1), order.ID)
	require.NoError(t, err)

	order, err = svc.CancelOrder(ctx, entity.Platform(1), order.ID, "policy violation")
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusCancelled, order.Status)
	require.NotNil(t, order.ExpertID)

	_, err = svc.SubmitForReview(ctx, entity.Expert(expert1), order.ID)
	assert.Equal(t, errorbank.KindInvalidState, kindOf(err))
}

func TestGetUsesAndInvalidatesCache(t *testing.T) {
	svc, deps, _ := newTestService(t)
	ctx := context.Background()
	order := createOrder(t, svc, 300)

	_, err := deps.Cache.Get(ctx, cache.OrderKey(order.ID))
	require.NoError(t, err, "create should warm the cache")

	_, err = svc.TakeOrder(ctx, entity.Expert(expert1), order.ID)
	require.NoError(t, err)
	_, err = deps.Cache.Get(ctx, cache.OrderKey(order.ID))
	assert.ErrorIs(t, err, cache.ErrCacheMiss)

	got, err := svc.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusInProgress, got.Status)
	assert.True(t, decimal.NewFromInt(300).Equal(got.Budget))
}

func TestListFilters(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	a := createOrder(t, svc, 100)
	createOrder(t, svc, 200)

	_, err := svc.TakeOrder(ctx, entity.Expert(expert1), a.ID)
	require.NoError(t, err)

	open, err := svc.List(ctx, ListFilter{Status: "new"})
	require.NoError(t, err)
	assert.Len(t, open, 1)

	mine, err := svc.List(ctx, ListFilter{ExpertID: expert1})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, a.ID, mine[0].ID)

	_, err = svc.List(ctx, ListFilter{Status: "paid"})
	assert.Equal(t, errorbank.KindInvalidInput, kindOf(err))
}

func TestDeleteOrder(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	working := createOrder(t, svc, 100)
	_, err := svc.TakeOrder(ctx, entity.Expert(expert1), working.ID)
	require.NoError(t, err)
	assert.Equal(t, errorbank.KindInvalidState, kindOf(svc.DeleteOrder(ctx, entity.Client(clientID), working.ID)))

	fresh := createOrder(t, svc, 100)
	assert.Equal(t, errorbank.KindForbidden, kindOf(svc.DeleteOrder(ctx, entity.Client(999), fresh.ID)))
	require.NoError(t, svc.DeleteOrder(ctx, entity.Client(clientID), fresh.ID))

	_, err = svc.Get(ctx, fresh.ID)
	assert.Equal(t, errorbank.KindNotFound, kindOf(err))
	_, err = svc.History(ctx, fresh.ID)
	assert.Equal(t, errorbank.KindNotFound, kindOf(err))
}
