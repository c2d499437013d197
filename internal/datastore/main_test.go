package datastore

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"safeconnect/internal/models"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	// a named in-memory database keeps every test isolated while still
	// letting the pool share the same store
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)
	// sqlite serializes writers; a single connection keeps bun from
	// tripping over busy errors under parallel updates
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	require.NoError(t, CreateTableUser(ctx, db))
	require.NoError(t, CreateTableAccount(ctx, db))
	require.NoError(t, CreateTableLedgerEntry(ctx, db))
	require.NoError(t, CreateTableAd(ctx, db))

	return db
}

func seedUser(t *testing.T, db *bun.DB, id string, role string, balance int) {
	t.Helper()
	ctx := context.Background()

	_, err := CreateUser(ctx, db, &models.User{ID: id, Username: id, Role: role})
	require.NoError(t, err)

	_, err = CreateAccount(ctx, db, &models.Account{UserID: id, Balance: balance, PremiumPlan: models.PlanNone})
	require.NoError(t, err)
}
