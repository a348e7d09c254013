package config

import (
	"os"
	"testing"
)

func setenv(t *testing.T, key, value string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	os.Setenv(key, value)
	t.Cleanup(func() {
		if had {
			os.Setenv(key, old)
		} else {
			os.Unsetenv(key)
		}
	})
}

func TestLoadDefaults(t *testing.T) {
	setenv(t, "ENV", "development")
	setenv(t, "DATABASE_URL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if cfg.AuditSink != "log" {
		t.Errorf("expected default audit sink log, got %s", cfg.AuditSink)
	}
	if !cfg.Sandbox() {
		t.Error("expected sandbox mode in development without DATABASE_URL")
	}
}

func TestLoadRequiresDatabaseURLInProduction(t *testing.T) {
	setenv(t, "ENV", "production")
	setenv(t, "DATABASE_URL", "")

	if _, err := Load(); err == nil {
		t.Error("expected error when DATABASE_URL is missing in production")
	}
}

func TestLoadRejectsUnknownAuditSink(t *testing.T) {
	setenv(t, "ENV", "development")
	setenv(t, "AUDIT_SINK", "kafka")

	if _, err := Load(); err == nil {
		t.Error("expected error for unknown audit sink")
	}
}

func TestSandboxOffWithDatabaseURL(t *testing.T) {
	setenv(t, "ENV", "development")
	setenv(t, "DATABASE_URL", "postgres://localhost/praxis")
	setenv(t, "AUDIT_SINK", "log")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Sandbox() {
		t.Error("sandbox mode must be off when DATABASE_URL is set")
	}
}
