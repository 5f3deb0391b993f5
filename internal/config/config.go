package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	API       APIConfig       `mapstructure:"api"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Auth      AuthConfig      `mapstructure:"auth"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Archive   ArchiveConfig   `mapstructure:"archive"`
	Events    EventsConfig    `mapstructure:"events"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	DevRelay  DevRelayConfig  `mapstructure:"devrelay"`
}

// APIConfig holds HTTP server configuration.
type APIConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
}

// DatabaseConfig holds PostgreSQL connection configuration for the
// site settings store. An empty URL runs the service on built-in defaults.
type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	PoolMin        int32         `mapstructure:"pool_min"`
	PoolMax        int32         `mapstructure:"pool_max"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// AuthConfig selects how bearer tokens are verified.
// Mode is "jwt" (shared secret) or "introspection" (remote user endpoint).
type AuthConfig struct {
	Mode             string        `mapstructure:"mode"`
	JWTSecret        string        `mapstructure:"jwt_secret"`
	JWTIssuer        string        `mapstructure:"jwt_issuer"`
	IntrospectionURL string        `mapstructure:"introspection_url"`
	APIKey           string        `mapstructure:"api_key"`
	Timeout          time.Duration `mapstructure:"timeout"`
}

// CORSConfig holds the allowed origins for browser callers.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	MaxAge         int      `mapstructure:"max_age"`
}

// RateLimitConfig holds per-caller send limits.
type RateLimitConfig struct {
	SendsPerHour int64 `mapstructure:"sends_per_hour"`
	// SystemSendsPerHour limits skipAuth sends as one budget; zero exempts them.
	SystemSendsPerHour int64 `mapstructure:"system_sends_per_hour"`
}

// RedisConfig holds Redis connection configuration. An empty Addr
// disables rate limiting and the Redis event stream.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ArchiveConfig holds rendered-message archive configuration.
// Type is "", "local" or "s3".
type ArchiveConfig struct {
	Type       string `mapstructure:"type"`
	Path       string `mapstructure:"path"`
	S3Bucket   string `mapstructure:"s3_bucket"`
	S3Prefix   string `mapstructure:"s3_prefix"`
	S3Region   string `mapstructure:"s3_region"`
	S3Endpoint string `mapstructure:"s3_endpoint"`
}

// EventsConfig holds delivery event publishing configuration.
// Type is "", "redis" or "sqs".
type EventsConfig struct {
	Type        string `mapstructure:"type"`
	RedisStream string `mapstructure:"redis_stream"`
	SQSQueueURL string `mapstructure:"sqs_queue_url"`
	SQSRegion   string `mapstructure:"sqs_region"`
	SQSEndpoint string `mapstructure:"sqs_endpoint"`
}

// SMTPConfig holds client-side timeouts for outbound delivery.
// Relay host and credentials live in the site settings store.
type SMTPConfig struct {
	DialTimeout    time.Duration `mapstructure:"dial_timeout"`
	CommandTimeout time.Duration `mapstructure:"command_timeout"`
	InsecureTLS    bool          `mapstructure:"insecure_tls"`
}

// DevRelayConfig holds settings for the local capture relay.
type DevRelayConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Domain          string        `mapstructure:"domain"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	CaptureDir      string        `mapstructure:"capture_dir"`
	MaxConnections  int           `mapstructure:"max_connections"`
	MaxMessageBytes int64         `mapstructure:"max_message_bytes"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	// Reject lists recipients answered with a permanent failure.
	Reject []string `mapstructure:"reject"`
	// TLS enables STARTTLS. Without a cert and key pair a self-signed
	// certificate is generated at startup.
	TLS         bool   `mapstructure:"tls"`
	ImplicitTLS bool   `mapstructure:"implicit_tls"`
	CertFile    string `mapstructure:"tls_cert_file"`
	KeyFile     string `mapstructure:"tls_key_file"`
}

// Load reads configuration from the given config directory path.
// It looks for a file named "config.yaml" in that directory.
// Environment variables with prefix NOTIFY_ override file values.
// For example, NOTIFY_DATABASE_URL overrides database.url.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)

	setDefaults(v)

	v.SetEnvPrefix("NOTIFY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every key so that env overrides apply even when
// the key is missing from config.yaml.
func setDefaults(v *viper.Viper) {
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.read_timeout", 10*time.Second)
	v.SetDefault("api.write_timeout", 60*time.Second)
	v.SetDefault("api.max_body_bytes", 1<<20)

	v.SetDefault("database.url", "")
	v.SetDefault("database.pool_min", 1)
	v.SetDefault("database.pool_max", 10)
	v.SetDefault("database.connect_timeout", 5*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.file_path", "")
	v.SetDefault("logging.max_size_mb", 100)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age_days", 28)

	v.SetDefault("auth.mode", "jwt")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.jwt_issuer", "")
	v.SetDefault("auth.introspection_url", "")
	v.SetDefault("auth.api_key", "")
	v.SetDefault("auth.timeout", 5*time.Second)

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.max_age", 300)

	v.SetDefault("ratelimit.sends_per_hour", 0)
	v.SetDefault("ratelimit.system_sends_per_hour", 0)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("archive.type", "")
	v.SetDefault("archive.path", "")
	v.SetDefault("archive.s3_bucket", "")
	v.SetDefault("archive.s3_prefix", "")
	v.SetDefault("archive.s3_region", "us-east-1")
	v.SetDefault("archive.s3_endpoint", "")

	v.SetDefault("events.type", "")
	v.SetDefault("events.redis_stream", "notify:events")
	v.SetDefault("events.sqs_queue_url", "")
	v.SetDefault("events.sqs_region", "us-east-1")
	v.SetDefault("events.sqs_endpoint", "")

	v.SetDefault("smtp.dial_timeout", 10*time.Second)
	v.SetDefault("smtp.command_timeout", 30*time.Second)
	v.SetDefault("smtp.insecure_tls", false)

	v.SetDefault("devrelay.host", "127.0.0.1")
	v.SetDefault("devrelay.port", 2525)
	v.SetDefault("devrelay.domain", "localhost")
	v.SetDefault("devrelay.username", "dev")
	v.SetDefault("devrelay.password", "dev")
	v.SetDefault("devrelay.capture_dir", "")
	v.SetDefault("devrelay.max_connections", 20)
	v.SetDefault("devrelay.max_message_bytes", 10<<20)
	v.SetDefault("devrelay.read_timeout", 60*time.Second)
	v.SetDefault("devrelay.write_timeout", 60*time.Second)
	v.SetDefault("devrelay.tls", false)
	v.SetDefault("devrelay.implicit_tls", false)
}
