package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sethvargo/go-envconfig"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Database.Driver = %q, expected %q", cfg.Database.Driver, "sqlite")
	}
	if cfg.Seed.AdminEmail != "admin@example.com" {
		t.Errorf("Seed.AdminEmail = %q, expected %q", cfg.Seed.AdminEmail, "admin@example.com")
	}
	if !cfg.Seed.Enabled {
		t.Error("seeding should be enabled by default")
	}
	if cfg.JWT.ExpireHour != 24 {
		t.Errorf("JWT.ExpireHour = %d, expected 24", cfg.JWT.ExpireHour)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port == "" {
		t.Error("Server.Port should fall back to the default")
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "server:\n  port: \"9090\"\ndatabase:\n  driver: postgres\n  dsn: host=db\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("Server.Port = %q, expected %q", cfg.Server.Port, "9090")
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("Database.Driver = %q, expected %q", cfg.Database.Driver, "postgres")
	}
	// Untouched sections keep their defaults.
	if cfg.Seed.AdminEmail != "admin@example.com" {
		t.Errorf("Seed.AdminEmail = %q, expected default", cfg.Seed.AdminEmail)
	}
}

func TestOverrideFromEnv(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.overrideFromEnv(envconfig.MapLookuper(map[string]string{
		"SERVER_PORT":      "7000",
		"JWT_SECRET":       "from-env",
		"LDAP_ENABLED":     "true",
		"SEED_ADMIN_EMAIL": "root@example.com",
		"RATE_LIMIT_BURST": "3",
	}))
	if err != nil {
		t.Fatalf("overrideFromEnv() error = %v", err)
	}

	if cfg.Server.Port != "7000" {
		t.Errorf("Server.Port = %q, expected %q", cfg.Server.Port, "7000")
	}
	if cfg.JWT.Secret != "from-env" {
		t.Errorf("JWT.Secret = %q, expected %q", cfg.JWT.Secret, "from-env")
	}
	if !cfg.LDAP.Enabled {
		t.Error("LDAP.Enabled should be true")
	}
	if cfg.Seed.AdminEmail != "root@example.com" {
		t.Errorf("Seed.AdminEmail = %q, expected %q", cfg.Seed.AdminEmail, "root@example.com")
	}
	if cfg.RateLimit.Burst != 3 {
		t.Errorf("RateLimit.Burst = %d, expected 3", cfg.RateLimit.Burst)
	}
	// Unset variables leave existing values alone.
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, expected default", cfg.Server.Host)
	}
}
