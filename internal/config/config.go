package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Addr     string `env:"PARTYROOM_ADDR" envDefault:":8080"`
	LogLevel string `env:"PARTYROOM_LOG_LEVEL" envDefault:"info"`
	Dev      bool   `env:"PARTYROOM_DEV" envDefault:"false"`

	MaxPlayers      int           `env:"PARTYROOM_MAX_PLAYERS" envDefault:"4"`
	EmptyRoomGrace  time.Duration `env:"PARTYROOM_EMPTY_ROOM_GRACE" envDefault:"15s"`
	CountdownTick   time.Duration `env:"PARTYROOM_COUNTDOWN_TICK" envDefault:"1s"`
	ListingInterval time.Duration `env:"PARTYROOM_LISTING_INTERVAL" envDefault:"2s"`

	WSPingInterval time.Duration `env:"PARTYROOM_WS_PING_INTERVAL" envDefault:"20s"`
	WSWriteTimeout time.Duration `env:"PARTYROOM_WS_WRITE_TIMEOUT" envDefault:"3s"`
	OutboxSize     int           `env:"PARTYROOM_OUTBOX_SIZE" envDefault:"32"`

	Stats Stats
}

// Stats selects and configures the ledger backend.
type Stats struct {
	Backend      string        `env:"PARTYROOM_STATS_BACKEND" envDefault:"file"`
	File         string        `env:"PARTYROOM_STATS_FILE" envDefault:"data/stats.json"`
	PostgresDSN  string        `env:"PARTYROOM_POSTGRES_DSN"`
	RedisAddr    string        `env:"PARTYROOM_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass    string        `env:"PARTYROOM_REDIS_PASSWORD"`
	RedisKey     string        `env:"PARTYROOM_REDIS_KEY" envDefault:"partyroom:ledger"`
	WriteTimeout time.Duration `env:"PARTYROOM_STATS_WRITE_TIMEOUT" envDefault:"5s"`
	QueueSize    int           `env:"PARTYROOM_STATS_QUEUE" envDefault:"64"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads an optional .env file and then the process environment.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load dotenv: %w", err)
	}

	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.MaxPlayers < 2 {
		return fmt.Errorf("max players must be at least 2, got %d", c.MaxPlayers)
	}
	if c.OutboxSize < 1 {
		return fmt.Errorf("outbox size must be positive, got %d", c.OutboxSize)
	}
	switch c.Stats.Backend {
	case "file", "postgres", "redis", "memory":
	default:
		return fmt.Errorf("unknown stats backend %q", c.Stats.Backend)
	}
	if c.Stats.Backend == "postgres" && c.Stats.PostgresDSN == "" {
		return errors.New("postgres stats backend requires PARTYROOM_POSTGRES_DSN")
	}
	return nil
}
