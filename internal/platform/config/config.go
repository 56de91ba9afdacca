package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	textutil "mapproperties/pkg/platform/strings"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	devSigningKey = "dev-secret-key-change-in-production"
)

// Config is the process configuration, read once at startup.
type Config struct {
	Addr        string
	Environment string
	LogLevel    string

	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string

	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig

	OTP          OTPConfig
	Verification VerificationConfig
}

type PostgresConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig configures the OTP challenge store. An empty URL keeps
// challenges in process.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the audit sink. No brokers keeps audit events in process.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
	// AuditBuffer > 0 publishes audit events asynchronously.
	AuditBuffer int
}

type OTPConfig struct {
	TTL time.Duration
	// DevCode replaces random codes; refused in production.
	DevCode string
	// KeySecret keys challenge store lookups and defaults to the JWT signing key.
	KeySecret string
}

type VerificationConfig struct {
	// ReviewBelow > 0 routes passing submissions scoring below it to NEEDS_REVIEW.
	ReviewBelow int
}

// FromEnv builds the config from environment variables. Malformed numbers
// and durations are errors; unset values take defaults.
func FromEnv() (Config, error) {
	var errs []error

	cfg := Config{
		Addr:          getEnv("MAPPROPERTIES_ADDR", ":8080"),
		Environment:   strings.ToLower(getEnv("ENVIRONMENT", EnvDevelopment)),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		JWTSigningKey: getEnv("JWT_SIGNING_KEY", devSigningKey),
		JWTIssuer:     getEnv("JWT_ISSUER", "mapproperties"),
		JWTAudience:   getEnv("JWT_AUDIENCE", "mapproperties-app"),
		Postgres: PostgresConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getInt("DATABASE_MAX_OPEN_CONNS", 25, &errs),
			MaxIdleConns:    getInt("DATABASE_MAX_IDLE_CONNS", 5, &errs),
			ConnMaxLifetime: getDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute, &errs),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10, &errs),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2, &errs),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second, &errs),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second, &errs),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second, &errs),
		},
		Kafka: KafkaConfig{
			Brokers:     textutil.SplitList(os.Getenv("KAFKA_BROKERS")),
			AuditTopic:  getEnv("AUDIT_TOPIC", "mapproperties.audit"),
			AuditBuffer: getInt("AUDIT_BUFFER", 0, &errs),
		},
		OTP: OTPConfig{
			TTL:     getDuration("OTP_TTL", 5*time.Minute, &errs),
			DevCode: os.Getenv("OTP_DEV_CODE"),
		},
		Verification: VerificationConfig{
			ReviewBelow: getInt("VERIFY_REVIEW_BELOW", 0, &errs),
		},
	}
	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	cfg.OTP.KeySecret = getEnv("OTP_KEY_SECRET", cfg.JWTSigningKey)
	return cfg, nil
}

// IsProduction reports whether the process runs in production.
func (c Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// Validate rejects settings that are unsafe or inconsistent.
func (c Config) Validate() error {
	var errs []error
	if c.OTP.TTL <= 0 {
		errs = append(errs, errors.New("OTP_TTL must be positive"))
	}
	if c.Verification.ReviewBelow < 0 || c.Verification.ReviewBelow > 100 {
		errs = append(errs, errors.New("VERIFY_REVIEW_BELOW must be within [0, 100]"))
	}
	if c.Kafka.AuditBuffer < 0 {
		errs = append(errs, errors.New("AUDIT_BUFFER must not be negative"))
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.AuditTopic == "" {
		errs = append(errs, errors.New("AUDIT_TOPIC is required when KAFKA_BROKERS is set"))
	}
	if c.IsProduction() {
		if c.JWTSigningKey == devSigningKey || len(c.JWTSigningKey) < 32 {
			errs = append(errs, errors.New("JWT_SIGNING_KEY must be set to at least 32 characters in production"))
		}
		if c.OTP.DevCode != "" {
			errs = append(errs, errors.New("OTP_DEV_CODE must not be set in production"))
		}
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int, errs *[]error) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid integer %q", key, raw))
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid duration %q", key, raw))
		return fallback
	}
	return v
}
