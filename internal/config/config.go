package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// Stores
	StoreDriver             string
	MirrorDriver            string
	FirebaseProjectID       string
	FirebaseCredentialsFile string
	RedisURL                string
	MirrorSyncInterval      time.Duration

	// Identity
	AppleClientIDs []string

	// Notifications
	KafkaBrokers     []string
	KafkaNotifyTopic string
	TelegramBotToken string
	TelegramChatID   int64
	ReminderInterval time.Duration

	// Presentation
	FlashDuration time.Duration

	// Observability
	SentryDSN        string
	AppEnv           string
	LogRetentionDays int

	// Server
	AppName     string
	Port        string
	CORSOrigins string
}

// fileConfig is the YAML overlay read from CONFIG_FILE. Environment variables
// win over it; it wins over built-in defaults.
type fileConfig struct {
	Server struct {
		AppName     string `yaml:"app_name"`
		Port        string `yaml:"port"`
		CORSOrigins string `yaml:"cors_origins"`
	} `yaml:"server"`
	Database struct {
		Host    string `yaml:"host"`
		Port    string `yaml:"port"`
		User    string `yaml:"user"`
		Name    string `yaml:"name"`
		SSLMode string `yaml:"sslmode"`
	} `yaml:"database"`
	Store struct {
		Driver             string `yaml:"driver"`
		MirrorDriver       string `yaml:"mirror_driver"`
		FirebaseProjectID  string `yaml:"firebase_project_id"`
		MirrorSyncInterval string `yaml:"mirror_sync_interval"`
		RedisURL           string `yaml:"redis_url"`
	} `yaml:"store"`
	Notify struct {
		KafkaBrokers     []string `yaml:"kafka_brokers"`
		KafkaNotifyTopic string   `yaml:"kafka_topic"`
		TelegramChatID   int64    `yaml:"telegram_chat_id"`
		ReminderInterval string   `yaml:"reminder_interval"`
	} `yaml:"notify"`
	Identity struct {
		AppleClientIDs []string `yaml:"apple_client_ids"`
	} `yaml:"identity"`
	FlashDuration    string `yaml:"flash_duration"`
	LogRetentionDays int    `yaml:"log_retention_days"`
}

// Load resolves configuration: defaults, then the YAML file named by
// CONFIG_FILE, then the environment (including a local .env file).
func Load() (*Config, error) {
	_ = godotenv.Load()

	var f fileConfig
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	retention := f.LogRetentionDays
	if retention <= 0 {
		retention = 30
	}

	return &Config{
		DBHost:     getEnv("DB_HOST", or(f.Database.Host, "localhost")),
		DBPort:     getEnv("DB_PORT", or(f.Database.Port, "5432")),
		DBUser:     getEnv("DB_USER", or(f.Database.User, "postgres")),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", or(f.Database.Name, "eventcenter")),
		DBSSLMode:  getEnv("DB_SSLMODE", or(f.Database.SSLMode, "disable")),

		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTAccessExpiry:  parseDuration(getEnv("JWT_ACCESS_EXPIRY", "15m"), 15*time.Minute),
		JWTRefreshExpiry: parseDuration(getEnv("JWT_REFRESH_EXPIRY", "168h"), 168*time.Hour),

		StoreDriver:             getEnv("STORE_DRIVER", or(f.Store.Driver, "firestore")),
		MirrorDriver:            getEnv("MIRROR_DRIVER", or(f.Store.MirrorDriver, "postgres")),
		FirebaseProjectID:       getEnv("FIREBASE_PROJECT_ID", f.Store.FirebaseProjectID),
		FirebaseCredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", ""),
		RedisURL:                getEnv("REDIS_URL", f.Store.RedisURL),
		MirrorSyncInterval:      parseDuration(getEnv("MIRROR_SYNC_INTERVAL", or(f.Store.MirrorSyncInterval, "5m")), 5*time.Minute),

		AppleClientIDs: getEnvList("APPLE_CLIENT_IDS", f.Identity.AppleClientIDs),

		KafkaBrokers:     getEnvList("KAFKA_BROKERS", f.Notify.KafkaBrokers),
		KafkaNotifyTopic: getEnv("KAFKA_NOTIFY_TOPIC", or(f.Notify.KafkaNotifyTopic, "eventcenter.notifications")),
		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnvInt64("TELEGRAM_CHAT_ID", f.Notify.TelegramChatID),
		ReminderInterval: parseDuration(getEnv("REMINDER_INTERVAL", or(f.Notify.ReminderInterval, "15m")), 15*time.Minute),

		FlashDuration: parseDuration(getEnv("FLASH_DURATION", or(f.FlashDuration, "3s")), 3*time.Second),

		SentryDSN:        getEnv("SENTRY_DSN", ""),
		AppEnv:           getEnv("APP_ENV", "development"),
		LogRetentionDays: int(getEnvInt64("LOG_RETENTION_DAYS", int64(retention))),

		AppName:     getEnv("APP_NAME", or(f.Server.AppName, "EventCenter")),
		Port:        getEnv("PORT", or(f.Server.Port, "8080")),
		CORSOrigins: getEnv("CORS_ORIGINS", or(f.Server.CORSOrigins, "*")),
	}, nil
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvInt64(key string, fallback int64) int64 {
	n, err := strconv.ParseInt(os.Getenv(key), 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func or(val, fallback string) string {
	if val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
