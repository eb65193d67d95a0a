package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.HTTPPort != "8080" {
		t.Fatalf("port = %q, want 8080", cfg.HTTPPort)
	}
	if cfg.DBName != "nexus" {
		t.Fatalf("db name = %q, want nexus", cfg.DBName)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("log level = %q, want info", cfg.LogLevel)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("INTERNAL_API_SECRET", "s3cret")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg := Load()
	if cfg.HTTPPort != "9999" {
		t.Fatalf("port = %q, want 9999", cfg.HTTPPort)
	}
	if cfg.InternalSecret != "s3cret" {
		t.Fatalf("internal secret not read")
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Fatalf("redis addr not read")
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("log level = %q, want debug", cfg.LogLevel)
	}
}

func TestDSN(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_NAME", "nexus_test")

	got := Load().DSN()
	want := "host=db.internal port=5432 user=postgres password=postgres dbname=nexus_test sslmode=disable"
	if got != want {
		t.Fatalf("dsn = %q, want %q", got, want)
	}
}
