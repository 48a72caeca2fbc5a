package config

import (
	"fmt"

	"github.com/Netflix/go-env"
)

type Config struct {
	DatabaseDSN      string `env:"DATABASE_DSN,required=true"`
	RedisURL         string `env:"REDIS_URL,required=true"`
	RabbitMQURL      string `env:"RABBITMQ_URL,required=true"`
	AuthIntrospectURL string `env:"AUTH_INTROSPECT_URL,required=true"`
	AuthStaticToken  string `env:"AUTH_STATIC_TOKEN,default="`
	BusinessTimezone string `env:"BUSINESS_TIMEZONE,default=America/Lima"`
	IdempotencyCacheTTLSeconds int `env:"IDEMPOTENCY_CACHE_TTL_SECONDS,default=300"`
	RateLimitPerSec  int    `env:"RATE_LIMIT_PER_SEC,default=50"`
	StrictOrderNumberFormat bool `env:"STRICT_ORDER_NUMBER_FORMAT,default=false"`
	APIPort          int    `env:"API_PORT,default=8080"`
	LogLevel         string `env:"LOG_LEVEL,default=info"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
