package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration for the account service.
// It merges file defaults and environment overrides so local and deployed
// runs share one code path.
type Config struct {
	ServiceID string

	HTTPPort int

	DatabaseURL string
	RedisURL    string

	KafkaBrokers          []string
	MailVerificationTopic string
	MailResetTopic        string
	MailLogOnly           bool

	JWTPrivateKeyPEM  string
	JWTPublicKeyPEM   string
	JWTKeyID          string
	AllowEphemeralJWT bool

	BcryptCost        int
	PasswordMinLength int

	TokenTTL        time.Duration
	OTPTTL          time.Duration
	OTPLength       int
	FailedThreshold int
	LockoutDuration time.Duration

	DispatchQueueSize      int
	DispatchEnqueueTimeout time.Duration
	OTPSweepInterval       time.Duration

	MaxDBConns int32
}

// configFile mirrors the YAML schema in configs/default.yaml. Runtime-only
// fields stay out of it on purpose.
type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL  string   `yaml:"postgres_url"`
		RedisURL     string   `yaml:"redis_url"`
		KafkaBrokers []string `yaml:"kafka_brokers"`
	} `yaml:"dependencies"`
	Mail struct {
		VerificationTopic string `yaml:"verification_topic"`
		ResetTopic        string `yaml:"reset_topic"`
		LogOnly           bool   `yaml:"log_only"`
	} `yaml:"mail"`
}

// LoadConfig resolves configuration in priority order: defaults -> file -> env.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:              "account-service",
		HTTPPort:               8080,
		MailVerificationTopic:  "mail.verification",
		MailResetTopic:         "mail.reset",
		JWTKeyID:               "account-service-key-1",
		AllowEphemeralJWT:      true,
		BcryptCost:             12,
		PasswordMinLength:      8,
		TokenTTL:               time.Hour,
		OTPTTL:                 10 * time.Minute,
		OTPLength:              6,
		FailedThreshold:        5,
		LockoutDuration:        30 * time.Minute,
		DispatchQueueSize:      256,
		DispatchEnqueueTimeout: 250 * time.Millisecond,
		OTPSweepInterval:       5 * time.Minute,
		MaxDBConns:             20,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Dependencies.PostgresURL != "" {
			cfg.DatabaseURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if len(f.Dependencies.KafkaBrokers) > 0 {
			cfg.KafkaBrokers = f.Dependencies.KafkaBrokers
		}
		if f.Mail.VerificationTopic != "" {
			cfg.MailVerificationTopic = f.Mail.VerificationTopic
		}
		if f.Mail.ResetTopic != "" {
			cfg.MailResetTopic = f.Mail.ResetTopic
		}
		cfg.MailLogOnly = f.Mail.LogOnly
	}

	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.MailVerificationTopic = envOrDefault("MAIL_VERIFICATION_TOPIC", cfg.MailVerificationTopic)
	cfg.MailResetTopic = envOrDefault("MAIL_RESET_TOPIC", cfg.MailResetTopic)
	cfg.MailLogOnly = envBool("MAIL_LOG_ONLY", cfg.MailLogOnly)
	cfg.JWTPrivateKeyPEM = envOrDefault("JWT_PRIVATE_KEY_PEM", cfg.JWTPrivateKeyPEM)
	cfg.JWTPublicKeyPEM = envOrDefault("JWT_PUBLIC_KEY_PEM", cfg.JWTPublicKeyPEM)
	cfg.JWTKeyID = envOrDefault("JWT_KEY_ID", cfg.JWTKeyID)
	cfg.AllowEphemeralJWT = envBool("JWT_ALLOW_EPHEMERAL", cfg.AllowEphemeralJWT)

	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.BcryptCost = envInt("BCRYPT_ROUNDS", cfg.BcryptCost)
	cfg.PasswordMinLength = envInt("PASSWORD_MIN_LENGTH", cfg.PasswordMinLength)
	cfg.OTPLength = envInt("OTP_LENGTH", cfg.OTPLength)
	cfg.FailedThreshold = envInt("FAILED_SIGNIN_THRESHOLD", cfg.FailedThreshold)
	cfg.DispatchQueueSize = envInt("DISPATCH_QUEUE_SIZE", cfg.DispatchQueueSize)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))

	cfg.TokenTTL = time.Duration(envInt("TOKEN_EXPIRY_MINUTES", int(cfg.TokenTTL.Minutes()))) * time.Minute
	cfg.OTPTTL = time.Duration(envInt("OTP_EXPIRY_MINUTES", int(cfg.OTPTTL.Minutes()))) * time.Minute
	cfg.LockoutDuration = time.Duration(envInt("ACCOUNT_LOCKOUT_MINUTES", int(cfg.LockoutDuration.Minutes()))) * time.Minute
	cfg.DispatchEnqueueTimeout = time.Duration(envInt("DISPATCH_ENQUEUE_TIMEOUT_MS", int(cfg.DispatchEnqueueTimeout.Milliseconds()))) * time.Millisecond
	cfg.OTPSweepInterval = time.Duration(envInt("OTP_SWEEP_SECONDS", int(cfg.OTPSweepInterval.Seconds()))) * time.Second

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing DB_URL/POSTGRES_URL")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("missing REDIS_URL")
	}
	if len(cfg.KafkaBrokers) == 0 && !cfg.MailLogOnly {
		return Config{}, fmt.Errorf("missing KAFKA_BROKERS (set MAIL_LOG_ONLY=true to run without a broker)")
	}
	if (cfg.JWTPrivateKeyPEM == "" || cfg.JWTPublicKeyPEM == "") && !cfg.AllowEphemeralJWT {
		return Config{}, fmt.Errorf("missing JWT_PRIVATE_KEY_PEM or JWT_PUBLIC_KEY_PEM")
	}

	return cfg, nil
}

// envOrDefault returns an env var when present, otherwise the provided fallback.
func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envInt parses integer env vars with safe fallback on empty/invalid values.
func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// envBool parses common boolean env forms while keeping a deterministic fallback.
func envBool(name string, fallback bool) bool {
	switch os.Getenv(name) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return fallback
	}
}

// envCSV parses comma-separated env vars and removes empty segments.
func envCSV(name string, fallback []string) []string {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	parts := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		parts = append(parts, trimmed)
	}
	if len(parts) == 0 {
		return fallback
	}
	return parts
}
