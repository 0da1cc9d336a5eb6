// Package servicetest assembles service dependencies over an in-memory
// database and bus for package tests.
package servicetest

import (
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Argor01/OkoZnaniy-sub000/internal/cache"
	"github.com/Argor01/OkoZnaniy-sub000/internal/config"
	"github.com/Argor01/OkoZnaniy-sub000/internal/database"
	"github.com/Argor01/OkoZnaniy-sub000/internal/database/dbtest"
	"github.com/Argor01/OkoZnaniy-sub000/internal/messaging"
	"github.com/Argor01/OkoZnaniy-sub000/internal/notification"
	bidrepo "github.com/Argor01/OkoZnaniy-sub000/internal/repository/bid"
	filerepo "github.com/Argor01/OkoZnaniy-sub000/internal/repository/file"
	offerrepo "github.com/Argor01/OkoZnaniy-sub000/internal/repository/offer"
	orderrepo "github.com/Argor01/OkoZnaniy-sub000/internal/repository/order"
	"github.com/Argor01/OkoZnaniy-sub000/pkg/validation"
)

// Deps is everything a service constructor may ask for.
type Deps struct {
	Conns      *database.Connections
	Orders     *orderrepo.Repository
	Bids       *bidrepo.Repository
	Offers     *offerrepo.Repository
	Files      *filerepo.Repository
	Cache      *cache.MemoryStore
	Bus        *messaging.MemoryClient
	Dispatcher *notification.Dispatcher
	Validator  *validation.Validator
	Logger     *zap.Logger
	Config     config.Config
}

// New builds a fresh, isolated set of dependencies.
func New(t testing.TB) *Deps {
	t.Helper()

	conns := dbtest.New(t)
	cfg := config.Config{
		Cache:  config.Cache{Enabled: true, Driver: "memory", DefaultTTL: time.Minute},
		Engine: config.Engine{OfferTTL: config.DefaultOfferTTL},
	}
	cfg.Messaging.Enabled = true
	cfg.Messaging.Kafka.Topic = "orders.lifecycle"

	bus := messaging.NewMemoryClient(cfg.Messaging.Kafka.Topic)
	logger := zap.NewNop()

	return &Deps{
		Conns:      conns,
		Orders:     orderrepo.NewRepository(conns),
		Bids:       bidrepo.NewRepository(conns),
		Offers:     offerrepo.NewRepository(conns),
		Files:      filerepo.NewRepository(conns),
		Cache:      cache.NewMemoryStore(time.Minute),
		Bus:        bus,
		Dispatcher: notification.New(bus, logger, nil),
		Validator:  validation.New(),
		Logger:     logger,
		Config:     cfg,
	}
}

// Clock is a settable time source.
type Clock struct {
	At time.Time
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time { return c.At }

// Advance moves the clock forward.
func (c *Clock) Advance(d time.Duration) { c.At = c.At.Add(d) }

// PublishedTypes lists the type field of every published lifecycle event.
func (d *Deps) PublishedTypes(t testing.TB) []string {
	t.Helper()
	var out []string
	for _, msg := range d.Bus.Published() {
		var ev notification.Event
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		out = append(out, string(ev.Type))
	}
	return out
}
