package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"todo-web/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		for _, key := range []string{"DB_DRIVER", "DB_HOST", "DB_PORT", "DB_NAME", "DB_AUTO_MIGRATE", "DB_CONN_MAX_LIFETIME_SECONDS"} {
			t.Setenv(key, "")
		}

		cfg := NewConfigFromEnv()

		assert.Equal(t, DriverPostgres, cfg.Driver)
		assert.Equal(t, "localhost", cfg.Host)
		assert.Equal(t, "5432", cfg.Port)
		assert.Equal(t, "todoweb", cfg.Name)
		assert.True(t, cfg.AutoMigrate)
		assert.Equal(t, 5*time.Minute, cfg.ConnMaxLifetime)
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "sqlite")
		t.Setenv("DB_SQLITE_PATH", "/tmp/app.db")
		t.Setenv("DB_AUTO_MIGRATE", "false")

		cfg := NewConfigFromEnv()

		assert.Equal(t, DriverSQLite, cfg.Driver)
		assert.Equal(t, "/tmp/app.db", cfg.SQLitePath)
		assert.False(t, cfg.AutoMigrate)
	})
}

func TestConnectionStrings(t *testing.T) {
	cfg := &Config{Host: "db", Port: "5433", User: "app", Password: "p@ss word", Name: "todos", SSLMode: "require"}

	assert.Equal(t, "host=db port=5433 user=app password=p@ss word dbname=todos sslmode=require", cfg.PostgresDSN())
	assert.Equal(t, "postgres://app:p%40ss%20word@db:5433/todos?sslmode=require", cfg.PostgresURL())
}

func TestConnect(t *testing.T) {
	t.Run("sqlite file database", func(t *testing.T) {
		cfg := &Config{Driver: DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "test.db")}

		db, err := Connect(cfg)
		require.NoError(t, err)
		defer Close(db)

		require.NoError(t, AutoMigrate(db))
		assert.NoError(t, Ping(context.Background(), db))

		doc := &models.Document{Collection: "todoList", Text: "Buy milk"}
		require.NoError(t, db.Create(doc).Error)
		assert.NotEmpty(t, doc.ID)
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := Connect(&Config{Driver: "oracle"})
		assert.ErrorContains(t, err, "unsupported database driver")
	})
}
