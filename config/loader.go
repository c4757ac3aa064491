package config

import (
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultPort = 16282

// Load reads and validates the application configuration. With an empty
// path it tries config.yml in the working directory; a missing file is not
// an error, so the service can run on env vars and defaults alone.
// Environment variables (optionally from .env) override file values:
// PORT, DATABASE_URL, NATS_URL, NATS_SUBJECT, METRICS_ADDR.
func Load(path string) (*AppConfig, error) {
	_ = godotenv.Load()

	var cfg AppConfig
	candidates := []string{path}
	if path == "" {
		candidates = []string{"config.yml", "./config/config.yml"}
	}
	for _, p := range candidates {
		data, err := os.ReadFile(p)
		if err != nil {
			if path == "" {
				continue
			}
			return nil, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
		break
	}

	applyEnv(&cfg)
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaultPort
	}
	if cfg.Storage.Driver == "" {
		if cfg.Storage.DSN != "" {
			cfg.Storage.Driver = "postgres"
		} else {
			cfg.Storage.Driver = "memory"
		}
	}
	if cfg.Events.URL != "" && cfg.Events.Subject == "" {
		cfg.Events.Subject = "timetable.mutations"
	}

	v := validator.New()
	if err := v.Struct(cfg.Server); err != nil {
		return nil, err
	}
	if err := v.Struct(cfg.Storage); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *AppConfig) {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.Events.URL = v
	}
	if v := os.Getenv("NATS_SUBJECT"); v != "" {
		cfg.Events.Subject = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
}
