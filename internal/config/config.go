/**
 * @description
 * Configuration management for the narration service. Values come from the
 * environment (optionally seeded from a .env file) through Viper.
 *
 * @dependencies
 * - github.com/spf13/viper: environment binding and .env reading.
 */
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

const (
	defaultCacheTTLSeconds     = 300
	defaultReminderWindowHours = 48
	defaultReminderSchedule    = "0 * * * *"
)

// Config holds all configuration for the application.
type Config struct {
	ServerPort         string `mapstructure:"SERVER_PORT"`
	LogLevel           string `mapstructure:"LOG_LEVEL"`
	DatabaseURL        string `mapstructure:"DATABASE_URL"`
	RedisURL           string `mapstructure:"REDIS_URL"`
	CachePrefix        string `mapstructure:"CACHE_PREFIX"`
	RabbitMQURL        string `mapstructure:"RABBITMQ_URL"`
	PaymentEventQueue  string `mapstructure:"PAYMENT_EVENT_QUEUE"`
	EventsExchange     string `mapstructure:"EVENTS_EXCHANGE"`
	PaymentsAPIBaseURL string `mapstructure:"PAYMENTS_API_BASE_URL"`
	PaymentsAPIKey     string `mapstructure:"PAYMENTS_API_KEY"`
	JWKSURL            string `mapstructure:"JWKS_URL"`
	InternalAPIKey     string `mapstructure:"INTERNAL_API_KEY"`
	StoreCurrency      string `mapstructure:"STORE_CURRENCY"`
	Timezone           string `mapstructure:"TIMEZONE"`
	DateFormat         string `mapstructure:"DATE_FORMAT"`
	DecimalSeparator   string `mapstructure:"DECIMAL_SEPARATOR"`
	ThousandSeparator  string `mapstructure:"THOUSAND_SEPARATOR"`
	ReminderSchedule   string `mapstructure:"REMINDER_SCHEDULE"`

	CacheTTL       time.Duration `mapstructure:"-"`
	ReminderWindow time.Duration `mapstructure:"-"`
}

// LoadConfig reads configuration from environment variables and an optional
// .env file in path. Invalid numeric or schedule values fall back to defaults.
func LoadConfig(path string, logger *slog.Logger) (config Config, err error) {
	if logger == nil {
		logger = slog.Default()
	}

	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("CACHE_PREFIX", "narration:render")
	viper.SetDefault("CACHE_TTL_SECONDS", defaultCacheTTLSeconds)
	viper.SetDefault("PAYMENT_EVENT_QUEUE", "narration_service.payment_updates")
	viper.SetDefault("EVENTS_EXCHANGE", "payments.events")
	viper.SetDefault("STORE_CURRENCY", "usd")
	viper.SetDefault("TIMEZONE", "UTC")
	viper.SetDefault("DATE_FORMAT", "Jan 2, 2006")
	viper.SetDefault("DECIMAL_SEPARATOR", ".")
	viper.SetDefault("THOUSAND_SEPARATOR", ",")
	viper.SetDefault("REMINDER_SCHEDULE", defaultReminderSchedule)
	viper.SetDefault("REMINDER_WINDOW_HOURS", defaultReminderWindowHours)

	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("LOG_LEVEL")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("CACHE_PREFIX")
	_ = viper.BindEnv("CACHE_TTL_SECONDS")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("PAYMENT_EVENT_QUEUE")
	_ = viper.BindEnv("EVENTS_EXCHANGE")
	_ = viper.BindEnv("PAYMENTS_API_BASE_URL")
	_ = viper.BindEnv("PAYMENTS_API_KEY")
	_ = viper.BindEnv("JWKS_URL")
	_ = viper.BindEnv("INTERNAL_API_KEY")
	_ = viper.BindEnv("STORE_CURRENCY")
	_ = viper.BindEnv("TIMEZONE")
	_ = viper.BindEnv("DATE_FORMAT")
	_ = viper.BindEnv("DECIMAL_SEPARATOR")
	_ = viper.BindEnv("THOUSAND_SEPARATOR")
	_ = viper.BindEnv("REMINDER_SCHEDULE")
	_ = viper.BindEnv("REMINDER_WINDOW_HOURS")

	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			logger.Warn("failed to read config file; using environment values", "error", err)
		}
	}

	if err = viper.Unmarshal(&config); err != nil {
		return
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}

	config.LogLevel = strings.ToLower(strings.TrimSpace(config.LogLevel))
	config.StoreCurrency = strings.ToLower(strings.TrimSpace(config.StoreCurrency))
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.CachePrefix = strings.TrimSuffix(strings.TrimSpace(config.CachePrefix), ":")
	if config.CachePrefix == "" {
		config.CachePrefix = "narration:render"
	}

	config.CacheTTL = time.Duration(positiveInt(logger, "CACHE_TTL_SECONDS", defaultCacheTTLSeconds)) * time.Second
	config.ReminderWindow = time.Duration(positiveInt(logger, "REMINDER_WINDOW_HOURS", defaultReminderWindowHours)) * time.Hour

	config.ReminderSchedule = strings.TrimSpace(config.ReminderSchedule)
	if _, parseErr := cron.ParseStandard(config.ReminderSchedule); parseErr != nil {
		logger.Warn("invalid REMINDER_SCHEDULE; using default", "value", config.ReminderSchedule, "error", parseErr)
		config.ReminderSchedule = defaultReminderSchedule
	}

	if _, locErr := time.LoadLocation(config.Timezone); locErr != nil {
		logger.Warn("invalid TIMEZONE; defaulting to UTC", "value", config.Timezone, "error", locErr)
		config.Timezone = "UTC"
	}

	return
}

// Location returns the configured display timezone.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SlogLevel maps LOG_LEVEL onto a slog level.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func positiveInt(logger *slog.Logger, key string, fallback int) int {
	raw := strings.TrimSpace(viper.GetString(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		logger.Warn("invalid config value; using default", "key", key, "value", raw, "default", fallback)
		return fallback
	}
	return value
}
