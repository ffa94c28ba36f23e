// Package config reads the client, receiver and ledger settings from the
// environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"robokassa/hash"
)

var ErrDBNotConfigured = errors.New("DB_HOST is not set")

type Config struct {
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort string `env:"APP_PORT" envDefault:"8080"`

	Robokassa Robokassa
	Callback  Callback
	DB        DB
}

// Robokassa holds the shop credentials and the client tuning.
type Robokassa struct {
	MerchantLogin string         `env:"ROBOKASSA_MERCHANT_LOGIN,required"`
	Password1     string         `env:"ROBOKASSA_PASSWORD1,required"`
	Password2     string         `env:"ROBOKASSA_PASSWORD2,required"`
	HashAlgorithm hash.Algorithm `env:"ROBOKASSA_HASH_ALGORITHM" envDefault:"md5"`
	IsTest        bool           `env:"ROBOKASSA_IS_TEST" envDefault:"false"`
	BaseURL       string         `env:"ROBOKASSA_BASE_URL" envDefault:"https://auth.robokassa.ru/Merchant/"`
	Prefix        string         `env:"ROBOKASSA_SHP_PREFIX" envDefault:"shp"`

	// RateLimit is outbound requests per second, 0 disables it.
	RateLimit     float64       `env:"ROBOKASSA_RATE_LIMIT" envDefault:"0"`
	RetryAttempts uint          `env:"ROBOKASSA_RETRY_ATTEMPTS" envDefault:"1"`
	Timeout       time.Duration `env:"ROBOKASSA_TIMEOUT" envDefault:"15s"`
}

// Callback configures the notification receiver.
type Callback struct {
	RateLimit       float64 `env:"CALLBACK_RATE_LIMIT" envDefault:"10"`
	Burst           int     `env:"CALLBACK_BURST" envDefault:"20"`
	SuccessRedirect string  `env:"CALLBACK_SUCCESS_REDIRECT"`
	FailRedirect    string  `env:"CALLBACK_FAIL_REDIRECT"`
}

type DB struct {
	Host     string `env:"DB_HOST"`
	User     string `env:"DB_USER"`
	Password string `env:"DB_PASSWORD"`
	Name     string `env:"DB_NAME"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
}

// Enabled reports whether a database is configured at all.
func (d DB) Enabled() bool { return d.Host != "" }

// LoadConfig reads .env when present, then the process environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	err := env.ParseWithFuncs(&cfg, map[reflect.Type]env.ParserFunc{
		reflect.TypeOf(hash.Algorithm("")): func(v string) (interface{}, error) {
			return hash.ParseAlgorithm(v)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// LoadDBConfig reads only the DB_* settings, for tools that never talk to
// the gateway.
func LoadDBConfig() (*DB, error) {
	_ = godotenv.Load()

	var cfg DB
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}
	if !cfg.Enabled() {
		return nil, ErrDBNotConfigured
	}
	return &cfg, nil
}
