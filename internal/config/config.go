package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"trivia-quest-service/internal/game"
	"gopkg.in/yaml.v3"
)

// Store drivers for save slots.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Bank struct {
		Path string `yaml:"path"`
		TTL  string `yaml:"ttl"`
	} `yaml:"bank"`
	Store struct {
		Driver string `yaml:"driver"`
		Path   string `yaml:"path"`
		TTL    string `yaml:"ttl"`
	} `yaml:"store"`
	Game struct {
		Rules       game.Rules `yaml:"rules"`
		SplashDelay string     `yaml:"splashDelay"`
		RewardDelay string     `yaml:"rewardDelay"`
	} `yaml:"game"`
	Analytics struct {
		Buffer     int  `yaml:"buffer"`
		Log        bool `yaml:"log"`
		ErrorStats bool `yaml:"errorStats"`
	} `yaml:"analytics"`
}

// Default returns the configuration used when no file overrides it.
func Default() Config {
	var cfg Config
	cfg.Server.Port = "8080"
	cfg.Redis.TTL = "10m"
	cfg.Bank.TTL = "10m"
	cfg.Store.Driver = StoreMemory
	cfg.Store.Path = "data/saves.db"
	cfg.Game.Rules = game.DefaultRules()
	cfg.Game.SplashDelay = "1500ms"
	cfg.Game.RewardDelay = "1500ms"
	cfg.Analytics.Buffer = 256
	cfg.Analytics.Log = true
	cfg.Analytics.ErrorStats = true
	return cfg
}

// Load reads YAML config from path over the defaults. A missing file yields
// the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, err
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}
	cfg.applyEnv()
	return cfg, cfg.Validate()
}

// applyEnv lets deployment environments point at their backing services.
func (c *Config) applyEnv() {
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Postgres.URL = v
	}
	if v := os.Getenv("STORE_DRIVER"); v != "" {
		c.Store.Driver = v
	}
	if v := os.Getenv("BANK_PATH"); v != "" {
		c.Bank.Path = v
	}
}

// Validate rejects settings the service cannot run with.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case StoreMemory, StoreSQLite:
	case StoreRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("store driver redis needs redis.addr")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if err := c.Game.Rules.Validate(); err != nil {
		return fmt.Errorf("game rules: %w", err)
	}
	return nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
