package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port   int    `env:"PORT" envDefault:"8080"`
		Origin string `env:"ORIGIN" envDefault:"http://localhost:3000"`
	}

	Redis struct {
		Host     string `env:"REDIS_HOST" envDefault:"localhost"`
		Port     int    `env:"REDIS_PORT" envDefault:"6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	Discord struct {
		BotToken string   `env:"BOT_TOKEN,required"`
		AdminIDs []string `env:"ADMIN_IDS" envSeparator:","`
	}

	Giveaway struct {
		// How often the expiration scheduler scans for due giveaways.
		PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"10s"`
		// How long a draft configuration session stays open without confirmation.
		SessionTimeout time.Duration `env:"SESSION_TIMEOUT" envDefault:"300s"`
	}
}

func Load() (*Config, error) {
	// Missing .env is fine, variables may be set directly in the environment.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
