package config

import (
	"errors"
	"flag"
	"net/url"
	"time"

	"github.com/caarlos0/env/v8"
	"github.com/joho/godotenv"
)

type Config struct {
	Address     string `env:"RUN_ADDRESS" envDefault:":1337"`
	DatabaseURI string `env:"DATABASE_URI"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	MailRelayAddress string `env:"MAIL_RELAY_ADDRESS"`
	MailFrom         string `env:"MAIL_FROM" envDefault:"no-reply@taralaba.local"`
	MailAPIKey       string `env:"MAIL_API_KEY"`

	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	UserCacheTTL  time.Duration `env:"USER_CACHE_TTL" envDefault:"5m"`

	AMQPURL      string `env:"AMQP_URL"`
	AMQPExchange string `env:"AMQP_EXCHANGE" envDefault:"laundry.orders"`

	OutboxSchedule    string `env:"OUTBOX_SCHEDULE" envDefault:"@every 15s"`
	OutboxBatch       int    `env:"OUTBOX_BATCH" envDefault:"100"`
	OutboxMaxAttempts int    `env:"OUTBOX_MAX_ATTEMPTS" envDefault:"5"`
	OutboxWorkers     int    `env:"OUTBOX_WORKERS" envDefault:"4"`

	TokenSecret string        `env:"TOKEN_SECRET"`
	TokenTTL    time.Duration `env:"TOKEN_TTL" envDefault:"3h"`

	AdminUserName string `env:"ADMIN_USERNAME"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
	AdminEmail    string `env:"ADMIN_EMAIL"`
}

// NewConfig layers configuration as defaults < .env < environment < flags.
func NewConfig(args []string) (Config, error) {
	config := Config{}

	// .env is optional
	_ = godotenv.Load()

	if err := env.Parse(&config); err != nil {
		return Config{}, err
	}

	if err := config.parseFlags(args); err != nil {
		return Config{}, err
	}

	if err := config.validateConfig(); err != nil {
		return Config{}, err
	}

	return config, nil
}

func (c *Config) parseFlags(args []string) error {
	fs := flag.NewFlagSet("taralaba", flag.ContinueOnError)

	fs.StringVar(&c.Address, "a", c.Address, "Service address")
	fs.StringVar(&c.DatabaseURI, "d", c.DatabaseURI, "Database URI")
	fs.StringVar(&c.MailRelayAddress, "m", c.MailRelayAddress, "Mail relay address")
	fs.StringVar(&c.AMQPURL, "q", c.AMQPURL, "AMQP broker URL")

	return fs.Parse(args)
}

func (c *Config) validateConfig() error {
	if c.DatabaseURI == "" {
		return errors.New("database URI is required")
	}

	if c.TokenSecret == "" {
		return errors.New("token secret is required")
	}

	for _, URI := range []string{c.MailRelayAddress, c.AMQPURL} {
		if URI == "" {
			continue
		}

		if _, err := url.ParseRequestURI(URI); err != nil {
			return err
		}
	}

	if c.AdminUserName != "" && (c.AdminPassword == "" || c.AdminEmail == "") {
		return errors.New("admin password and email are required with admin username")
	}

	if c.OutboxBatch <= 0 || c.OutboxWorkers <= 0 || c.OutboxMaxAttempts <= 0 {
		return errors.New("outbox batch, workers and max attempts must be positive")
	}

	return nil
}
