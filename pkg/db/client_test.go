package db

import (
	"context"
	"testing"

	"github.com/angelmondragon/storefront/pkg/config"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	return conn
}

func TestNewSQLite(t *testing.T) {
	client, err := New(context.Background(), config.StorageDriverSQLite, config.DBConfig{DSN: "file::memory:", MaxOpenConns: 1}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer client.Close()

	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
	if client.Dialect() != "sqlite3" {
		t.Fatalf("expected sqlite3 dialect, got %q", client.Dialect())
	}
}

func TestNewRejectsUnknownDriverAndEmptyDSN(t *testing.T) {
	if _, err := New(context.Background(), "mysql", config.DBConfig{DSN: "x"}, nil); err == nil {
		t.Fatal("expected unsupported driver error")
	}
	if _, err := New(context.Background(), config.StorageDriverSQLite, config.DBConfig{}, nil); err == nil {
		t.Fatal("expected empty dsn error")
	}
}

func TestWrapPing(t *testing.T) {
	client := Wrap(newTestDB(t), config.StorageDriverPostgres)
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
	if client.Dialect() != "postgres" {
		t.Fatalf("unexpected dialect %q", client.Dialect())
	}
}
