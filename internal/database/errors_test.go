package database_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Argor01/OkoZnaniy-sub000/internal/database"
	"github.com/Argor01/OkoZnaniy-sub000/internal/database/dbtest"
)

func TestIsUniqueViolation(t *testing.T) {
	ctx := context.Background()
	conns := dbtest.New(t)

	_, err := conns.Writer.ExecContext(ctx, "CREATE TABLE tags (name TEXT PRIMARY KEY, label TEXT UNIQUE)")
	require.NoError(t, err)
	_, err = conns.Writer.ExecContext(ctx, "INSERT INTO tags (name, label) VALUES ('a', 'x')")
	require.NoError(t, err)

	_, pkErr := conns.Writer.ExecContext(ctx, "INSERT INTO tags (name, label) VALUES ('a', 'y')")
	require.Error(t, pkErr)
	_, uniqueErr := conns.Writer.ExecContext(ctx, "INSERT INTO tags (name, label) VALUES ('b', 'x')")
	require.Error(t, uniqueErr)
	_, syntaxErr := conns.Writer.ExecContext(ctx, "INSERT INTO missing_table VALUES (1)")
	require.Error(t, syntaxErr)

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "sqlite primary key", err: pkErr, want: true},
		{name: "sqlite unique", err: fmt.Errorf("insert: %w", uniqueErr), want: true},
		{name: "sqlite other", err: syntaxErr},
		{name: "mysql duplicate", err: &mysql.MySQLError{Number: 1062}, want: true},
		{name: "mysql deadlock", err: &mysql.MySQLError{Number: 1213}},
		{name: "plain", err: errors.New("boom")},
		{name: "nil"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, database.IsUniqueViolation(tt.err))
		})
	}
}

func TestIsLockConflict(t *testing.T) {
	assert.True(t, database.IsLockConflict(fmt.Errorf("tx: %w", &mysql.MySQLError{Number: 1213})))
	assert.False(t, database.IsLockConflict(&mysql.MySQLError{Number: 1062}))
	assert.False(t, database.IsLockConflict(errors.New("boom")))
}
