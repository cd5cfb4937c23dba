// Package dbtest opens throwaway in-memory databases with the full schema.
package dbtest

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite"

	"github.com/Additional-Code/depot/internal/database"
	"github.com/Additional-Code/depot/internal/entity"
	"github.com/Additional-Code/depot/internal/migration"
)

// Open returns connections to a private in-memory sqlite database with
// foreign keys enforced. Writer and reader share one pool.
func Open(t testing.TB) *database.Connections {
	t.Helper()

	sqldb, err := sql.Open("sqlite", database.SQLiteDSN("file::memory:"))
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	entity.RegisterModels(db)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migration.CreateSchema(context.Background(), db, db))

	return &database.Connections{Writer: db, Reader: db}
}

// CreateUser inserts an account row directly and returns it.
func CreateUser(t testing.TB, conns *database.Connections, username string, admin bool) *entity.User {
	t.Helper()

	user := &entity.User{Username: username, PasswordHash: "!", IsAdmin: admin}
	_, err := conns.Writer.NewInsert().Model(user).Exec(context.Background())
	require.NoError(t, err)
	return user
}
