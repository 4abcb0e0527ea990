package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is read from an optional YAML file, then overridden by the
// environment.
type Config struct {
	Env          string `yaml:"env" validate:"oneof=development production test"`
	Port         string `yaml:"port" validate:"required,numeric"`
	LogLevel     string `yaml:"logLevel" validate:"oneof=debug info warn error"`
	DatabaseURL  string `yaml:"databaseURL" validate:"required"`
	RedisAddr    string `yaml:"redisAddr,omitempty"`
	RedisPwd     string `yaml:"redisPassword,omitempty"`
	WebOrigin    string `yaml:"webOrigin" validate:"required,url"`
	BasketPrefix string `yaml:"basketPrefix" validate:"required,alphanum,max=8"`
}

var validate = validator.New()

// LoadEnv loads .env into the process environment if the file exists.
func LoadEnv() {
	_ = godotenv.Load()
}

func Defaults() Config {
	return Config{
		Env:          "development",
		Port:         "3001",
		LogLevel:     "info",
		WebOrigin:    "http://localhost:3000",
		BasketPrefix: "BK",
	}
}

// Load builds the configuration. path may be empty.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	applyEnv(&cfg, os.Getenv)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config, getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&cfg.Env, "ENV")
	set(&cfg.Port, "PORT")
	set(&cfg.LogLevel, "LOG_LEVEL")
	set(&cfg.RedisAddr, "REDIS_ADDR")
	set(&cfg.RedisPwd, "REDIS_PASSWORD")
	set(&cfg.WebOrigin, "WEB_ORIGIN")
	set(&cfg.BasketPrefix, "BASKET_PREFIX")
	set(&cfg.DatabaseURL, "DATABASE_URL")

	if cfg.DatabaseURL == "" && getenv("DB_HOST") != "" {
		port := getenv("DB_PORT")
		if port == "" {
			port = "5432"
		}
		cfg.DatabaseURL = fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			getenv("DB_HOST"),
			getenv("DB_USER"),
			getenv("DB_PASSWORD"),
			getenv("DB_NAME"),
			port,
		)
	}
}
