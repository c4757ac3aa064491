package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
storage:
  driver: postgres
  dsn: postgres://localhost/gtfs?sslmode=disable
events:
  url: nats://localhost:4222
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port %d, want 9090", cfg.Server.Port)
	}
	if cfg.Storage.Driver != "postgres" {
		t.Errorf("driver %q", cfg.Storage.Driver)
	}
	if cfg.Events.Subject != "timetable.mutations" {
		t.Errorf("default subject missing, got %q", cfg.Events.Subject)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: 0\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != defaultPort {
		t.Errorf("port %d, want default %d", cfg.Server.Port, defaultPort)
	}
	if cfg.Storage.Driver != "memory" {
		t.Errorf("driver %q, want memory when no DSN is set", cfg.Storage.Driver)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "7070")
	t.Setenv("DATABASE_URL", "postgres://db/gtfs")
	t.Setenv("METRICS_ADDR", ":9102")

	cfg, err := Load(writeConfig(t, "server:\n  port: 9090\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("env PORT must win, got %d", cfg.Server.Port)
	}
	if cfg.Storage.DSN != "postgres://db/gtfs" || cfg.Storage.Driver != "postgres" {
		t.Errorf("env DSN must select postgres: %+v", cfg.Storage)
	}
	if cfg.Metrics.Addr != ":9102" {
		t.Errorf("metrics addr %q", cfg.Metrics.Addr)
	}
}

func TestLoad_RejectsBadDriver(t *testing.T) {
	if _, err := Load(writeConfig(t, "server:\n  port: 1\nstorage:\n  driver: redis\n")); err == nil {
		t.Error("unknown driver must fail validation")
	}
}

func TestLoad_MissingExplicitPath(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yml")); err == nil {
		t.Error("explicit missing path must fail")
	}
}
