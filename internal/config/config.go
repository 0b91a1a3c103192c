// Package config содержит логику чтения конфигурации витрины.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	defaultRunAddress = "localhost:8080"
	defaultLanguage   = "en"
	defaultCurrency   = "PKR"
)

// Config содержит параметры конфигурации витрины.
type Config struct {
	RunAddress           string        `env:"RUN_ADDRESS" validate:"required"`
	DatabaseURI          string        `env:"DATABASE_URI"`
	RatesSourceAddress   string        `env:"RATES_SOURCE_ADDRESS"`
	RatesRefreshInterval time.Duration `env:"RATES_REFRESH_INTERVAL" validate:"gte=0"`
	PricingFile          string        `env:"PRICING_FILE"`
	LocalesDir           string        `env:"LOCALES_DIR"`
	CatalogFile          string        `env:"CATALOG_FILE"`
	DefaultLanguage      string        `env:"DEFAULT_LANGUAGE" validate:"oneof=en ur ar"`
	DefaultCurrency      string        `env:"DEFAULT_CURRENCY" validate:"len=3,alpha,uppercase"`
	CookieSecret         string        `env:"COOKIE_SECRET"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные из файла .env подхватываются, если файл есть, но не перекрывают окружение.
func Parse() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	fromEnv := *cfg

	flag.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.RatesSourceAddress, "r", "", "exchange rates source address")
	flag.DurationVar(&cfg.RatesRefreshInterval, "i", 0, "exchange rates refresh interval, 0 disables refresh")
	flag.StringVar(&cfg.PricingFile, "p", "", "currency table JSON file")
	flag.StringVar(&cfg.LocalesDir, "l", "", "directory with language JSON files")
	flag.StringVar(&cfg.CatalogFile, "c", "", "product catalog JSON file")

	flag.Parse()

	if fromEnv.RunAddress != "" {
		cfg.RunAddress = fromEnv.RunAddress
	}
	if fromEnv.DatabaseURI != "" {
		cfg.DatabaseURI = fromEnv.DatabaseURI
	}
	if fromEnv.RatesSourceAddress != "" {
		cfg.RatesSourceAddress = fromEnv.RatesSourceAddress
	}
	if fromEnv.RatesRefreshInterval != 0 {
		cfg.RatesRefreshInterval = fromEnv.RatesRefreshInterval
	}
	if fromEnv.PricingFile != "" {
		cfg.PricingFile = fromEnv.PricingFile
	}
	if fromEnv.LocalesDir != "" {
		cfg.LocalesDir = fromEnv.LocalesDir
	}
	if fromEnv.CatalogFile != "" {
		cfg.CatalogFile = fromEnv.CatalogFile
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = defaultRunAddress
	}
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = defaultLanguage
	}
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = defaultCurrency
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}
