package config

import (
	"testing"
	"time"
)

func TestLoadAppConfig_Defaults(t *testing.T) {
	t.Setenv("LOG_FORMAT", "")
	t.Setenv("GATEWAY_TIMEOUT", "")
	t.Setenv("GATEWAY_TIMEOUT_PROVIDER", "")

	cfg, err := LoadAppConfig()
	if err != nil {
		t.Fatalf("LoadAppConfig: %v", err)
	}
	if cfg.LogFormat != "text" {
		t.Fatalf("log format = %q, want text", cfg.LogFormat)
	}
	if cfg.Provider.Timeout != 5*time.Second {
		t.Fatalf("provider timeout = %v, want 5s", cfg.Provider.Timeout)
	}
	if cfg.Planner.Timeout != 30*time.Second {
		t.Fatalf("planner timeout = %v, want 30s", cfg.Planner.Timeout)
	}
}

func TestLoadAppConfig_TimeoutOverrides(t *testing.T) {
	t.Setenv("GATEWAY_TIMEOUT", "2s")
	t.Setenv("GATEWAY_TIMEOUT_PROVIDER", "1500")

	cfg, err := LoadAppConfig()
	if err != nil {
		t.Fatalf("LoadAppConfig: %v", err)
	}
	if cfg.Payment.Timeout != 2*time.Second {
		t.Fatalf("payment timeout = %v, want 2s", cfg.Payment.Timeout)
	}
	if cfg.Provider.Timeout != 1500*time.Millisecond {
		t.Fatalf("provider timeout = %v, want 1.5s", cfg.Provider.Timeout)
	}
}

func TestLoadAppConfig_Invalid(t *testing.T) {
	t.Run("log format", func(t *testing.T) {
		t.Setenv("LOG_FORMAT", "xml")
		if _, err := LoadAppConfig(); err == nil {
			t.Fatalf("expected error for LOG_FORMAT=xml")
		}
	})
	t.Run("non-positive timeout", func(t *testing.T) {
		t.Setenv("GATEWAY_TIMEOUT_CALENDAR", "-1s")
		if _, err := LoadAppConfig(); err == nil {
			t.Fatalf("expected error for negative calendar timeout")
		}
	})
}

func TestLoadDBConfig(t *testing.T) {
	t.Run("sqlite", func(t *testing.T) {
		t.Setenv("DB_DRIVER", DriverSQLite)
		t.Setenv("DB_SQLITE_PATH", "/tmp/travel.db")
		cfg, err := LoadDBConfig()
		if err != nil {
			t.Fatalf("LoadDBConfig: %v", err)
		}
		if cfg.SQLitePath != "/tmp/travel.db" {
			t.Fatalf("sqlite path = %q", cfg.SQLitePath)
		}
	})
	t.Run("bad port falls back", func(t *testing.T) {
		t.Setenv("DB_DRIVER", DriverPostgres)
		t.Setenv("DB_PORT", "not-a-port")
		cfg, err := LoadDBConfig()
		if err != nil {
			t.Fatalf("LoadDBConfig: %v", err)
		}
		if cfg.Port != 5432 {
			t.Fatalf("port = %d, want 5432", cfg.Port)
		}
	})
	t.Run("unknown driver", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "oracle")
		if _, err := LoadDBConfig(); err == nil {
			t.Fatalf("expected error for unsupported driver")
		}
	})
}
