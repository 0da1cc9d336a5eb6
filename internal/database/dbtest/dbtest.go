// Package dbtest opens throwaway sqlite databases for repository and service tests.
package dbtest

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/Argor01/OkoZnaniy-sub000/internal/config"
	"github.com/Argor01/OkoZnaniy-sub000/internal/database"
)

// New returns connections to a private in-memory database with the engine
// schema applied. A single pooled connection serializes transactions the way
// row locks would on a server database.
func New(t testing.TB) *database.Connections {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", uuid.NewString())
	conns, err := database.Open(config.Database{
		Driver:       "sqlite",
		WriterDSN:    dsn,
		ReaderDSN:    dsn,
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = conns.Close() })

	if err := database.CreateSchema(context.Background(), conns.Writer); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return conns
}
