package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	_ "modernc.org/sqlite"
)

func newTestSQLiteStore(t *testing.T) WorkflowStore {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})

	store, err := NewSQLiteStore(context.Background(), db)
	require.NoError(t, err)
	return store
}

func TestSQLiteStoreSuite(t *testing.T) {
	suite.Run(t, &StoreSuite{newStore: newTestSQLiteStore})
}

func TestSQLiteSchemaIsIdempotent(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	_, err = NewSQLiteStore(ctx, db)
	require.NoError(t, err)
	_, err = NewSQLiteStore(ctx, db)
	require.NoError(t, err)
}

func TestNumberedPlaceholders(t *testing.T) {
	require.Equal(t,
		"UPDATE workflows SET name = $1, data = $2 WHERE id = $3",
		numberedPlaceholders("UPDATE workflows SET name = ?, data = ? WHERE id = ?"),
	)
	require.Equal(t, "SELECT 1", numberedPlaceholders("SELECT 1"))
}
