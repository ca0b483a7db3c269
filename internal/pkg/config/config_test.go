package config_test

import (
	"strings"
	"testing"

	"github.com/samirrijal/arnav/internal/core/navigation"
	"github.com/samirrijal/arnav/internal/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("arnav-test")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Catalog.Backend != config.BackendMemory {
		t.Errorf("expected memory backend, got %q", cfg.Catalog.Backend)
	}
	if cfg.Telemetry.ServiceName != "arnav-test" {
		t.Errorf("expected service name from argument, got %q", cfg.Telemetry.ServiceName)
	}
	if cfg.Engine != navigation.DefaultParams {
		t.Errorf("engine params differ from defaults: %+v", cfg.Engine)
	}
	if cfg.Navigation.AutoAdvance {
		t.Error("auto-advance must be off by default")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ARNAV_SERVER_PORT", "9090")
	t.Setenv("ARNAV_ENGINE_HALF_FOV_DEG", "45")
	t.Setenv("ARNAV_NAVIGATION_QUEUE_POLICY", "nearest")
	t.Setenv("ARNAV_NAVIGATION_ARRIVAL_RADIUS_M", "5")

	cfg, err := config.Load("arnav-test")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Engine.HalfFOV != 45 {
		t.Errorf("expected half fov 45, got %g", cfg.Engine.HalfFOV)
	}
	if cfg.Navigation.QueuePolicy != "nearest" {
		t.Errorf("expected nearest policy, got %q", cfg.Navigation.QueuePolicy)
	}
	if got := cfg.EngineParams().ArrivalRadius; got != 5 {
		t.Errorf("expected navigation override of arrival radius, got %g", got)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := &config.Config{
		Server:     config.ServerConfig{Port: 0, ReadTimeout: 0, WriteTimeout: 10},
		Catalog:    config.CatalogConfig{Backend: "mongo"},
		Navigation: config.NavigationConfig{QueuePolicy: "random"},
		Engine:     navigation.DefaultParams,
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"server.port", "server.read_timeout", "catalog.backend", "navigation.queue_policy"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error to mention %s, got:\n%s", want, err)
		}
	}
}

func TestValidate_BackendRequirements(t *testing.T) {
	base := config.Config{
		Server: config.ServerConfig{Port: 8080, ReadTimeout: 10, WriteTimeout: 10},
		Engine: navigation.DefaultParams,
	}

	pg := base
	pg.Catalog.Backend = config.BackendPostgres
	if err := pg.Validate(); err == nil || !strings.Contains(err.Error(), "database.host") {
		t.Errorf("postgres backend without database settings should fail, got %v", err)
	}

	lite := base
	lite.Catalog.Backend = config.BackendSQLite
	if err := lite.Validate(); err == nil || !strings.Contains(err.Error(), "catalog.sqlite_path") {
		t.Errorf("sqlite backend without a path should fail, got %v", err)
	}

	mem := base
	mem.Catalog.Backend = config.BackendMemory
	if err := mem.Validate(); err != nil {
		t.Errorf("memory backend should validate, got %v", err)
	}
}

func TestValidate_EngineParams(t *testing.T) {
	cfg := config.Config{
		Server:  config.ServerConfig{Port: 8080, ReadTimeout: 10, WriteTimeout: 10},
		Catalog: config.CatalogConfig{Backend: config.BackendMemory},
		Engine:  navigation.DefaultParams,
	}
	cfg.Engine.MinScale = 2

	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "max_scale") {
		t.Errorf("expected engine params error, got %v", err)
	}
}

func TestDSN(t *testing.T) {
	d := config.DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "arnav", SSLMode: "disable"}
	want := "postgres://u:p@db:5432/arnav?sslmode=disable"
	if got := d.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
