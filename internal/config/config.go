package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	Pricing     PricingConfig
	Reservation ReservationConfig
	Auth        AuthConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Host         string
	Port         string
	Username     string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

type RedisConfig struct {
	Addr string
}

type KafkaConfig struct {
	Brokers []string
	Enabled bool
	Topics  TopicConfig
}

type TopicConfig struct {
	OrderCreated      string
	OrderConfirmed    string
	OrderCancelled    string
	OrderRefunded     string
	OrganizerApproved string
	EventApproval     string
}

type PricingConfig struct {
	// ServiceFeeBps is the buyer-side surcharge in basis points (1000 = 10%).
	ServiceFeeBps int64
	// RefundRetainedBps is the non-refundable processing fee in basis points.
	RefundRetainedBps int64
	// DefaultCommissionBps is the platform commission applied when no
	// category-specific rule exists (500 = 5%).
	DefaultCommissionBps int64
	RefundWindowDays     int
}

type ReservationConfig struct {
	// HoldTTL is how long an unconfirmed reservation keeps its inventory.
	HoldTTL time.Duration
	// LockTimeout bounds how long a reserve call waits for the per-type mutex.
	LockTimeout time.Duration
	// SweepInterval is how often the expiry sweeper scans for stale reservations.
	SweepInterval time.Duration
}

type AuthConfig struct {
	JWTSecret string
	// QRSecret keys the AES encryption of ticket QR payloads.
	QRSecret string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", ":8080"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			Username:     getEnv("DB_USERNAME", "marketplace_user"),
			Password:     getEnv("DB_PASSWORD", "marketplace_pass"),
			Database:     getEnv("DB_NAME", "marketplace"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  time.Duration(getEnvInt("DB_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
		},
		Redis: RedisConfig{
			Addr: getEnv("REDIS_ADDR", "localhost:6379"),
		},
		Kafka: KafkaConfig{
			Brokers: []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			Enabled: getEnvBool("KAFKA_ENABLED", true),
			Topics: TopicConfig{
				OrderCreated:      getEnv("KAFKA_TOPIC_ORDER_CREATED", "order-created"),
				OrderConfirmed:    getEnv("KAFKA_TOPIC_ORDER_CONFIRMED", "order-confirmed"),
				OrderCancelled:    getEnv("KAFKA_TOPIC_ORDER_CANCELLED", "order-cancelled"),
				OrderRefunded:     getEnv("KAFKA_TOPIC_ORDER_REFUNDED", "order-refunded"),
				OrganizerApproved: getEnv("KAFKA_TOPIC_ORGANIZER_APPROVED", "organizer-approved"),
				EventApproval:     getEnv("KAFKA_TOPIC_EVENT_APPROVAL", "event-approval"),
			},
		},
		Pricing: PricingConfig{
			ServiceFeeBps:        int64(getEnvInt("SERVICE_FEE_BPS", 1000)),
			RefundRetainedBps:    int64(getEnvInt("REFUND_RETAINED_BPS", 1000)),
			DefaultCommissionBps: int64(getEnvInt("DEFAULT_COMMISSION_BPS", 500)),
			RefundWindowDays:     getEnvInt("REFUND_WINDOW_DAYS", 7),
		},
		Reservation: ReservationConfig{
			HoldTTL:       time.Duration(getEnvInt("RESERVATION_TTL_MINUTES", 15)) * time.Minute,
			LockTimeout:   time.Duration(getEnvInt("RESERVATION_LOCK_TIMEOUT_MS", 500)) * time.Millisecond,
			SweepInterval: time.Duration(getEnvInt("RESERVATION_SWEEP_SECONDS", 60)) * time.Second,
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "dev-secret-do-not-use-in-prod"),
			QRSecret:  getEnv("QR_SECRET", "dev-qr-secret"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
