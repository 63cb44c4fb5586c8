package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"cryptocutie-bot/internal/utils"
)

type Config struct {
	DBUser         string
	DBPassword     string
	DBName         string
	DBHost         string
	DBPort         string
	RedisHost      string
	RedisPort      string
	RedisPassword  string
	BotToken       string
	BotUsername    string
	AdminIDs       []int64
	StoreTimeout   time.Duration
	SessionTTL     time.Duration
	NotifyInterval time.Duration
	MetricsAddr    string
	MetricsAllowed []netip.Prefix
	LogLevel       string

	// Problems found while parsing, reported by Validate.
	errs []error
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using system environment variables")
	}

	cfg := &Config{
		DBUser:        getEnv("DB_USER", "postgres"),
		DBPassword:    getEnv("DB_PASSWORD", "postgres"),
		DBName:        getEnv("DB_NAME", "cryptocutie_bot"),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "5432"),
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		BotToken:      getEnv("TELEGRAM_BOT_TOKEN", ""),
		BotUsername:   strings.TrimPrefix(getEnv("BOT_USERNAME", ""), "@"),
		MetricsAddr:   getEnv("METRICS_ADDR", ":9090"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}
	cfg.AdminIDs = cfg.parseIDs("ADMIN_IDS", getEnv("ADMIN_IDS", ""))
	cfg.StoreTimeout = cfg.parseDuration("STORE_TIMEOUT", getEnv("STORE_TIMEOUT", "5s"))
	cfg.SessionTTL = cfg.parseDuration("SESSION_TTL", getEnv("SESSION_TTL", "10m"))
	cfg.NotifyInterval = cfg.parseDuration("NOTIFY_INTERVAL", getEnv("NOTIFY_INTERVAL", "1h"))
	if allowed, err := utils.ParseCIDRs(getEnv("METRICS_ALLOWED_CIDRS", "")); err != nil {
		cfg.errs = append(cfg.errs, fmt.Errorf("METRICS_ALLOWED_CIDRS: %w", err))
	} else {
		cfg.MetricsAllowed = allowed
	}
	return cfg
}

// Validate reports every missing or malformed setting at once.
func (c *Config) Validate() error {
	errs := append([]error(nil), c.errs...)
	if c.BotToken == "" {
		errs = append(errs, errors.New("TELEGRAM_BOT_TOKEN is required"))
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	return errors.Join(errs...)
}

func (c *Config) parseDuration(key, value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		c.errs = append(c.errs, fmt.Errorf("%s: %w", key, err))
		return 0
	}
	if d <= 0 {
		c.errs = append(c.errs, fmt.Errorf("%s must be positive, got %s", key, value))
	}
	return d
}

func (c *Config) parseIDs(key, value string) []int64 {
	var ids []int64
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			c.errs = append(c.errs, fmt.Errorf("%s: invalid user id %q", key, part))
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
