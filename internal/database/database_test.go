package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

func TestOpen_MigratesAllTables(t *testing.T) {
	db, err := Open(sqlite.Open("file:migrate?mode=memory&cache=shared"), "silent")
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	for _, table := range []string{"partners", "plans", "tenants", "users", "memberships", "api_clients", "domains", "usage_records", "audit_logs"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	require.NoError(t, Ping(context.Background(), db))
}

func TestConfig_DSN(t *testing.T) {
	cfg := Config{Host: "db", Port: 5432, User: "cp", Password: "pw", DBName: "control_plane", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=cp password=pw dbname=control_plane sslmode=disable", cfg.DSN())
}
