package config

import (
	"context"
	"fmt"
	"os"

	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	LDAP      LDAPConfig      `yaml:"ldap"`
	Log       LogConfig       `yaml:"log"`
	Seed      SeedConfig      `yaml:"seed"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type ServerConfig struct {
	Host string `yaml:"host" env:"SERVER_HOST, overwrite"`
	Port string `yaml:"port" env:"SERVER_PORT, overwrite"`
	Mode string `yaml:"mode" env:"SERVER_MODE, overwrite"` // debug, release, test
	// CORSOrigins lists allowed browser origins; "*" allows any.
	CORSOrigins []string `yaml:"cors_origins" env:"CORS_ORIGINS, overwrite"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver" env:"DB_DRIVER, overwrite"` // sqlite, mysql, postgres
	DSN    string `yaml:"dsn" env:"DB_DSN, overwrite"`
	// LogSQL enables gorm's statement logger.
	LogSQL bool `yaml:"log_sql" env:"DB_LOG_SQL, overwrite"`
}

type JWTConfig struct {
	Secret     string `yaml:"secret" env:"JWT_SECRET, overwrite"`
	ExpireHour int    `yaml:"expire_hour" env:"JWT_EXPIRE_HOUR, overwrite"`
}

type LDAPConfig struct {
	Enabled      bool   `yaml:"enabled" env:"LDAP_ENABLED, overwrite"`
	Host         string `yaml:"host" env:"LDAP_HOST, overwrite"`
	Port         int    `yaml:"port" env:"LDAP_PORT, overwrite"`
	BaseDN       string `yaml:"base_dn" env:"LDAP_BASE_DN, overwrite"`
	BindDN       string `yaml:"bind_dn" env:"LDAP_BIND_DN, overwrite"`
	BindPassword string `yaml:"bind_password" env:"LDAP_BIND_PASSWORD, overwrite"`
	UserFilter   string `yaml:"user_filter" env:"LDAP_USER_FILTER, overwrite"`
	UseSSL       bool   `yaml:"use_ssl" env:"LDAP_USE_SSL, overwrite"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL, overwrite"` // debug, info, warn, error
}

// SeedConfig describes the administrative account provisioned on first boot.
type SeedConfig struct {
	Enabled       bool   `yaml:"enabled" env:"SEED_ENABLED, overwrite"`
	AdminName     string `yaml:"admin_name" env:"SEED_ADMIN_NAME, overwrite"`
	AdminEmail    string `yaml:"admin_email" env:"SEED_ADMIN_EMAIL, overwrite"`
	AdminPassword string `yaml:"admin_password" env:"SEED_ADMIN_PASSWORD, overwrite"`
}

// RateLimitConfig applies to the public auth endpoints.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps" env:"RATE_LIMIT_RPS, overwrite"`
	Burst int     `yaml:"burst" env:"RATE_LIMIT_BURST, overwrite"`
}

// Load reads the YAML file at configPath (defaults apply when it does not exist)
// and then overlays any environment variables that are set.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", configPath, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	if err := cfg.overrideFromEnv(envconfig.OsLookuper()); err != nil {
		return nil, err
	}
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: "8080",
			Mode: "debug",

			CORSOrigins: []string{"*"},
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "tasktracker.db",
		},
		JWT: JWTConfig{
			Secret:     "tasktracker-secret-key-change-in-production",
			ExpireHour: 24,
		},
		LDAP: LDAPConfig{
			Enabled:    false,
			Port:       389,
			UserFilter: "(uid=%s)",
		},
		Log: LogConfig{
			Level: "info",
		},
		Seed: SeedConfig{
			Enabled:       true,
			AdminName:     "System Admin",
			AdminEmail:    "admin@example.com",
			AdminPassword: "admin123",
		},
		RateLimit: RateLimitConfig{
			RPS:   5,
			Burst: 10,
		},
	}
}

func (c *Config) overrideFromEnv(lookuper envconfig.Lookuper) error {
	if err := envconfig.ProcessWith(context.Background(), &envconfig.Config{
		Target:   c,
		Lookuper: lookuper,
	}); err != nil {
		return fmt.Errorf("read environment: %w", err)
	}
	return nil
}
