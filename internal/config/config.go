package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Auth     AuthConfig
	QR       QRConfig
	Peers    PeerConfig
	ViaCep   ViaCepConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	DSN          string
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
	TicketEvents string
	EventEvents  string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type QRConfig struct {
	Secret string
}

// PeerConfig holds the base URLs and per-call timeout for the sibling service.
// Each gateway call is a single attempt bounded by CallTimeout; there is no
// automatic retry.
type PeerConfig struct {
	EventServiceURL  string
	TicketServiceURL string
	CallTimeout      time.Duration
}

type ViaCepConfig struct {
	BaseURL  string
	CacheTTL time.Duration
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
			DSN:          getEnv("MYSQL_DSN", ""),
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
				TicketEvents: getEnv("KAFKA_TOPIC_TICKETS", "ticket-events"),
				EventEvents:  getEnv("KAFKA_TOPIC_EVENTS", "event-events"),
			},
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			TokenTTL:  time.Duration(getEnvInt("JWT_TTL_MINUTES", 30)) * time.Minute,
		},
		QR: QRConfig{
			Secret: getEnv("QR_SECRET", ""),
		},
		Peers: PeerConfig{
			EventServiceURL:  getEnv("EVENT_SERVICE_URL", "http://localhost:8080"),
			TicketServiceURL: getEnv("TICKET_SERVICE_URL", "http://localhost:8081"),
			CallTimeout:      time.Duration(getEnvInt("PEER_CALL_TIMEOUT_SECONDS", 5)) * time.Second,
		},
		ViaCep: ViaCepConfig{
			BaseURL:  getEnv("VIACEP_URL", "https://viacep.com.br/ws"),
			CacheTTL: time.Duration(getEnvInt("VIACEP_CACHE_TTL_HOURS", 24)) * time.Hour,
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
