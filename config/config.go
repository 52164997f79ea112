package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"warehouse-service/internal/database"

	"go.uber.org/zap"
)

type Config struct {
	Env      string
	HTTPPort string
	GRPCPort string
	JWT      JWT
	DB       DB
	Redis    Redis
	Kafka    Kafka
	Admin    Admin
}

type JWT struct {
	Secret    string
	Issuer    string
	Audience  string
	AccessExp time.Duration
}

type DB struct {
	database.Config
}

type Redis struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	CartTTL  time.Duration
}

type Kafka struct {
	Enabled     bool
	Brokers     []string
	TopicOrders string
}

// Admin: учётка, которую cmd/migrate создаёт при первом запуске (если задан пароль).
type Admin struct {
	Username string
	Email    string
	Password string
}

func Load(log *zap.Logger) *Config {
	return &Config{
		Env:      getEnvDefault("ENV", "production"),
		HTTPPort: getEnv("HTTP_PORT", log),
		GRPCPort: getEnvDefault("GRPC_PORT", ":9090"),
		JWT: JWT{
			Secret:    getEnv("JWT_SECRET", log),
			Issuer:    getEnv("JWT_ISSUER", log),
			Audience:  getEnv("JWT_AUDIENCE", log),
			AccessExp: parseDurationWithDays(getEnvDefault("ACCESS_EXP", "12h"), 12*time.Hour),
		},
		DB: loadDB(log),
		Redis: Redis{
			Enabled:  getEnvDefault("REDIS_ENABLED", "false") == "true",
			Addr:     getEnvDefault("REDIS_ADDR", "localhost:6379"),
			Password: getEnvDefault("REDIS_PASSWORD", ""),
			DB:       atoiDefault(getEnvDefault("REDIS_DB", "0"), 0),
			CartTTL:  parseDurationWithDays(getEnvDefault("CART_TTL", "7d"), 7*24*time.Hour),
		},
		Kafka: Kafka{
			Enabled:     getEnvDefault("KAFKA_ENABLED", "false") == "true",
			Brokers:     splitAndTrim(os.Getenv("KAFKA_BROKERS")),
			TopicOrders: getEnvDefault("KAFKA_TOPIC_ORDERS", "orders.placed"),
		},
		Admin: Admin{
			Username: getEnvDefault("ADMIN_USERNAME", "admin"),
		},
	}
}

// LoadMigrate: только то, что нужно cmd/migrate.
func LoadMigrate(log *zap.Logger) *Config {
	return &Config{
		Env: getEnvDefault("ENV", "production"),
		DB:  loadDB(log),
		Admin: Admin{
			Username: getEnvDefault("ADMIN_USERNAME", "admin"),
			Email:    getEnvDefault("ADMIN_EMAIL", "admin@example.com"),
			Password: getEnvDefault("ADMIN_PASSWORD", ""),
		},
	}
}

type NotifierConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
	SMTPSSL      bool

	KafkaBrokers []string
	KafkaGroupID string
	KafkaTopic   string
}

func LoadNotifier(log *zap.Logger) *NotifierConfig {
	return &NotifierConfig{
		SMTPHost:     getEnv("SMTP_HOST", log),
		SMTPPort:     getEnvInt("SMTP_PORT", log),
		SMTPUser:     getEnv("SMTP_USER", log),
		SMTPPassword: getEnv("SMTP_PASSWORD", log),
		SMTPFrom:     getEnv("SMTP_FROM", log),
		SMTPSSL:      getEnvDefault("SMTP_SSL", "true") == "true",
		KafkaBrokers: splitAndTrim(os.Getenv("KAFKA_BROKERS")),
		KafkaGroupID: getEnv("KAFKA_GROUP_ID", log),
		KafkaTopic:   getEnvDefault("KAFKA_TOPIC_ORDERS", "orders.placed"),
	}
}

func loadDB(log *zap.Logger) DB {
	return DB{
		Config: database.Config{
			Host:     getEnv("DB_HOST", log),
			Port:     getEnv("DB_PORT", log),
			User:     getEnv("DB_USER", log),
			Password: getEnv("DB_PASSWORD", log),
			Name:     getEnv("DB_NAME", log),
			SSLMode:  getEnvDefault("DB_SSLMODE", "disable"),
		},
	}
}

func getEnv(key string, log *zap.Logger) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	log.Error("Обязательная переменная окружения не установлена", zap.String("key", key))
	panic("missing required environment variable: " + key)
}

func getEnvDefault(key, def string) string {
	if val, exists := os.LookupEnv(key); exists && val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, log *zap.Logger) int {
	valStr := getEnv(key, log)
	val, err := strconv.Atoi(valStr)
	if err != nil {
		log.Error("Ошибка преобразования переменной окружения в int", zap.String("key", key), zap.Error(err))
		panic("invalid int value for environment variable: " + key)
	}
	return val
}

// parseDurationWithDays понимает обычный time.ParseDuration и суффикс "d" (дни).
func parseDurationWithDays(s string, def time.Duration) time.Duration {
	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil || days <= 0 {
			return def
		}
		return time.Duration(days) * 24 * time.Hour
	}

	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := []string{}
	for _, p := range strings.Split(s, ",") {
		pt := strings.TrimSpace(p)
		if pt != "" {
			parts = append(parts, pt)
		}
	}
	return parts
}
