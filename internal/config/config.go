package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// ストアのドライバー
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config はアプリケーション設定を表す
type Config struct {
	Env      string
	Server   ServerConfig
	Store    StoreConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Outbox   OutboxConfig
	Metrics  MetricsConfig
}

// ServerConfig はサーバー設定
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// StoreConfig はレコードの保存先
type StoreConfig struct {
	Driver         string
	MigrationsPath string
}

// DatabaseConfig はデータベース設定
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig はRedis設定
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

// KafkaConfig はアウトボックスの送信先
// Brokers が空ならログ出力のみ
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// OutboxConfig はアウトボックス中継ワーカーの設定
type OutboxConfig struct {
	PollInterval time.Duration
	BatchSize    int
}

// MetricsConfig は /metrics の Basic 認証
type MetricsConfig struct {
	User     string
	Password string
}

// Load は環境変数から設定を読み込む
func Load() *Config {
	cfg := &Config{
		Env: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
		},
		Store: StoreConfig{
			Driver:         strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
			MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "eventdao"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Enabled:  getBoolEnv("REDIS_ENABLED", true),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: getListEnv("KAFKA_BROKERS"),
			Topic:   getEnv("KAFKA_TOPIC", "eventdao.ticketing"),
		},
		Outbox: OutboxConfig{
			PollInterval: getDurationEnv("OUTBOX_POLL_INTERVAL", time.Second),
			BatchSize:    getIntEnv("OUTBOX_BATCH_SIZE", 100),
		},
		Metrics: MetricsConfig{
			User:     os.Getenv("METRICS_USER"),
			Password: os.Getenv("METRICS_PASSWORD"),
		},
	}

	// URL 形式が指定されていれば個別設定より優先する
	if raw := os.Getenv("DATABASE_URL"); raw != "" {
		applyDatabaseURL(&cfg.Database, raw)
	}
	if raw := os.Getenv("REDIS_URL"); raw != "" {
		applyRedisURL(&cfg.Redis, raw)
	}

	return cfg
}

// IsProduction は本番環境かを返す
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// DSN はPostgreSQL接続文字列を返す
func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" port=" + c.Port +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.DBName +
		" sslmode=" + c.SSLMode
}

// Addr はRedis接続アドレスを返す
func (c *RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

func applyDatabaseURL(c *DatabaseConfig, raw string) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return
	}
	c.Host = u.Hostname()
	if p := u.Port(); p != "" {
		c.Port = p
	}
	if u.User != nil {
		c.User = u.User.Username()
		if pw, ok := u.User.Password(); ok {
			c.Password = pw
		}
	}
	if name := strings.TrimPrefix(u.Path, "/"); name != "" {
		c.DBName = name
	}
	// マネージドDBは TLS 前提
	c.SSLMode = "require"
	if mode := u.Query().Get("sslmode"); mode != "" {
		c.SSLMode = mode
	}
}

func applyRedisURL(c *RedisConfig, raw string) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return
	}
	c.Host = u.Hostname()
	if p := u.Port(); p != "" {
		c.Port = p
	}
	if u.User != nil {
		if pw, ok := u.User.Password(); ok {
			c.Password = pw
		}
	}
	if db, err := strconv.Atoi(strings.TrimPrefix(u.Path, "/")); err == nil {
		c.DB = db
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getListEnv はカンマ区切りの値を空要素を除いて返す
func getListEnv(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
