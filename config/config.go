package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	App    AppConfig
	Logger LoggerConfig
	SQLite SQLiteConfig
	Redis  RedisConfig
	Kafka  KafkaConfig
}

type AppConfig struct {
	Env string
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
	FilePath          string // Empty disables file output
	MaxSizeMB         int
	MaxBackups        int
	MaxAgeDays        int
}

type SQLiteConfig struct {
	Path            string
	Table           string
	BusyTimeoutMS   int
	JournalMode     string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
}

type RedisConfig struct {
	Addr     string // Empty disables the import lock
	Password string
	DB       int
	LockTTL  int
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

func LoadEnv() *Config {
	return &Config{
		App: AppConfig{
			Env: getEnv("APP_ENV", "dev"),
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOGGER_LEVEL", "info"),
			Encoding:          getEnv("LOGGER_ENCODING", "console"),
			DisableCaller:     getEnvBool("LOGGER_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOGGER_DISABLE_STACKTRACE", true),
			FilePath:          getEnv("LOGGER_FILE_PATH", ""),
			MaxSizeMB:         getEnvInt("LOGGER_MAX_SIZE_MB", 50),
			MaxBackups:        getEnvInt("LOGGER_MAX_BACKUPS", 3),
			MaxAgeDays:        getEnvInt("LOGGER_MAX_AGE_DAYS", 28),
		},
		SQLite: SQLiteConfig{
			Path:            getEnv("SQLITE_PATH", "stock.db"),
			Table:           getEnv("SQLITE_TABLE", "stock_items"),
			BusyTimeoutMS:   getEnvInt("SQLITE_BUSY_TIMEOUT_MS", 5000),
			JournalMode:     getEnv("SQLITE_JOURNAL_MODE", "WAL"),
			MaxOpenConns:    getEnvInt("SQLITE_MAX_OPEN_CONNS", 1),
			MaxIdleConns:    getEnvInt("SQLITE_MAX_IDLE_CONNS", 1),
			ConnMaxLifetime: getEnvInt("SQLITE_CONN_MAX_LIFETIME", 0),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			LockTTL:  getEnvInt("REDIS_LOCK_TTL", 300),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:   getEnv("KAFKA_TOPIC_STOCK", "stock.records"),
			GroupID: getEnv("KAFKA_GROUP_STOCK", "stock-import"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return fallback
}
