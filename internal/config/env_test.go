package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadEnvDefaults(t *testing.T) {
	env, err := LoadEnv()
	if err != nil {
		t.Fatalf("load env: %v", err)
	}
	if env.AppAddr != ":8080" || env.SessionBackend != "memory" || env.CatalogBackend != "static" {
		t.Fatalf("unexpected defaults: %+v", env)
	}
	if env.Payment.Delay != 2*time.Second || len(env.Payment.FailureReasons) != 4 {
		t.Fatalf("unexpected payment defaults: %+v", env.Payment)
	}
	if !env.UsesDevSecret() || env.NeedsMySQL() {
		t.Fatalf("unexpected secret/backend flags")
	}
}

func TestLoadEnvFromEnvironment(t *testing.T) {
	t.Setenv("APP_ADDR", ":9090")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("SESSION_BACKEND", "redis")
	t.Setenv("BOOKINGS_BACKEND", "MySQL")
	t.Setenv("PAYMENT_SUCCESS_RATE", "0.5")
	t.Setenv("JWT_TTL", "1h")

	env, err := LoadEnv()
	if err != nil {
		t.Fatalf("load env: %v", err)
	}
	if env.AppAddr != ":9090" || env.DB.Host != "db.internal" || env.SessionBackend != "redis" {
		t.Fatalf("env overrides not applied: %+v", env)
	}
	if !env.NeedsMySQL() || env.Payment.SuccessRate != 0.5 || env.JWTTTL != time.Hour {
		t.Fatalf("env overrides not applied: %+v", env)
	}
}

func TestLoadEnvRejectsUnknownBackend(t *testing.T) {
	t.Setenv("SESSION_BACKEND", "etcd")
	t.Setenv("PAYMENT_SUCCESS_RATE", "2")
	_, err := LoadEnv()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !strings.Contains(err.Error(), "session.backend") || !strings.Contains(err.Error(), "success_rate") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDSN(t *testing.T) {
	dsn := DBConfig{Host: "127.0.0.1", Port: 3306, User: "root", Name: "bus_booking"}.DSN()
	if !strings.HasPrefix(dsn, "root@tcp(127.0.0.1:3306)/bus_booking?") || !strings.Contains(dsn, "parseTime=true") {
		t.Fatalf("unexpected dsn %s", dsn)
	}
}
