package db

import (
	"os"
	"testing"

	"go-hospital/internal/config"
	"go-hospital/internal/patient"
	"go-hospital/internal/user"

	"go.uber.org/zap"
)

// Dummy DSN for test (won't actually connect, just checks error path)
func TestInit_InvalidDSN(t *testing.T) {
	cfg := &config.Config{}
	cfg.Database.Driver = "postgres"
	cfg.Database.DSN = "invalid-dsn-for-testing"
	if err := Init(cfg, zap.NewNop()); err == nil {
		t.Errorf("expected error for invalid DSN, got nil")
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open("mysql", "whatever", nil); err == nil {
		t.Errorf("expected error for unsupported driver, got nil")
	}
}

func TestInit_SQLiteMigrates(t *testing.T) {
	cfg := &config.Config{}
	cfg.Database.Driver = "sqlite"
	cfg.Database.DSN = "file:" + t.Name() + "?mode=memory&cache=shared"
	if err := Init(cfg, zap.NewNop()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if DB == nil {
		t.Fatalf("DB not set")
	}
	for _, table := range []any{&user.AppRole{}, &user.AppUser{}, &patient.Patient{}, "app_user_roles"} {
		if !DB.Migrator().HasTable(table) {
			t.Errorf("expected table for %T %v to exist", table, table)
		}
	}
}

// Only runs against a real Postgres; set TEST_DB_DSN.
func TestInit_Postgres(t *testing.T) {
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("set TEST_DB_DSN to run real DB test")
	}
	cfg := &config.Config{}
	cfg.Database.Driver = "postgres"
	cfg.Database.DSN = dsn
	if err := Init(cfg, zap.NewNop()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := Migrate(DB); err != nil {
		t.Errorf("second migration failed: %v", err)
	}
}
