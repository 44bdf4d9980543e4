package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server ServerConfig
	DB     DBConfig
	JWT    JWTConfig
	S3     S3Config
	Log    LogConfig
	CORS   CORSConfig
	AI     AIConfig
	Feed   FeedConfig
	Ingest IngestConfig
	Recon  ReconConfig
	Email  EmailConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// JWTConfig holds JWT signing and expiry settings.
type JWTConfig struct {
	Secret            string        `mapstructure:"secret"`
	AccessTokenExpiry time.Duration `mapstructure:"access_expiry"`
	Issuer            string        `mapstructure:"issuer"`
}

// S3Config holds AWS S3 settings for raw document storage.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// AIConfig holds settings for the vendor-normalization and
// category-classification providers.
type AIConfig struct {
	APIKey         string `mapstructure:"api_key"`
	Model          string `mapstructure:"model"`
	Endpoint       string `mapstructure:"endpoint"`
	TimeoutSecs    int    `mapstructure:"timeout_secs"`
	MaxConcurrency int    `mapstructure:"max_concurrency"`
}

// FeedConfig holds settings for the external accounting-system invoice feed.
type FeedConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	APIKey      string `mapstructure:"api_key"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
}

// IngestConfig holds ingest queue worker settings.
type IngestConfig struct {
	PollIntervalSecs int `mapstructure:"poll_interval_secs"`
	MaxRetries       int `mapstructure:"max_retries"`
	Concurrency      int `mapstructure:"concurrency"`
}

// ReconConfig holds reconciliation engine settings. Thresholds and weights are
// configuration, not constants.
type ReconConfig struct {
	AutoConfirmThreshold float64 `mapstructure:"auto_confirm_threshold"`
	ReviewThreshold      float64 `mapstructure:"review_threshold"`
	DateToleranceDays    int     `mapstructure:"date_tolerance_days"`
	AmountTolerancePct   float64 `mapstructure:"amount_tolerance_pct"`
	AmountWeight         float64 `mapstructure:"amount_weight"`
	DateWeight           float64 `mapstructure:"date_weight"`
	TextWeight           float64 `mapstructure:"text_weight"`
	WindowDays           int     `mapstructure:"window_days"`
	CronSchedule         string  `mapstructure:"cron_schedule"`
}

// EmailConfig holds review-digest delivery settings.
type EmailConfig struct {
	Provider    string `mapstructure:"provider"`
	Region      string `mapstructure:"region"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
	FrontendURL string `mapstructure:"frontend_url"`
}

// Load reads configuration from environment variables with the CLEARBOOKS_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CLEARBOOKS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "clearbooks")
	v.SetDefault("db.password", "clearbooks_secret")
	v.SetDefault("db.name", "clearbooks_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// JWT defaults
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.access_expiry", "15m")
	v.SetDefault("jwt.issuer", "clearbooks")

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "clearbooks-uploads")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.max_file_size_mb", 25)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// AI provider defaults
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.model", "gpt-4o-mini")
	v.SetDefault("ai.endpoint", "")
	v.SetDefault("ai.timeout_secs", 30)
	v.SetDefault("ai.max_concurrency", 5)

	// Invoice feed defaults
	v.SetDefault("feed.base_url", "")
	v.SetDefault("feed.api_key", "")
	v.SetDefault("feed.timeout_secs", 30)

	// Ingest queue defaults
	v.SetDefault("ingest.poll_interval_secs", 10)
	v.SetDefault("ingest.max_retries", 3)
	v.SetDefault("ingest.concurrency", 3)

	// Reconciliation defaults
	v.SetDefault("recon.auto_confirm_threshold", 0.95)
	v.SetDefault("recon.review_threshold", 0.60)
	v.SetDefault("recon.date_tolerance_days", 5)
	v.SetDefault("recon.amount_tolerance_pct", 0.01)
	v.SetDefault("recon.amount_weight", 0.5)
	v.SetDefault("recon.date_weight", 0.2)
	v.SetDefault("recon.text_weight", 0.3)
	v.SetDefault("recon.window_days", 90)
	v.SetDefault("recon.cron_schedule", "0 2 * * *")

	// Email defaults
	v.SetDefault("email.provider", "noop")
	v.SetDefault("email.region", "us-east-1")
	v.SetDefault("email.from_address", "noreply@clearbooks.app")
	v.SetDefault("email.from_name", "Clearbooks")
	v.SetDefault("email.frontend_url", "http://localhost:3000")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                  "CLEARBOOKS_SERVER_PORT",
		"server.read_timeout":          "CLEARBOOKS_SERVER_READ_TIMEOUT",
		"server.write_timeout":         "CLEARBOOKS_SERVER_WRITE_TIMEOUT",
		"server.environment":           "CLEARBOOKS_SERVER_ENVIRONMENT",
		"db.host":                      "CLEARBOOKS_DB_HOST",
		"db.port":                      "CLEARBOOKS_DB_PORT",
		"db.user":                      "CLEARBOOKS_DB_USER",
		"db.password":                  "CLEARBOOKS_DB_PASSWORD",
		"db.name":                      "CLEARBOOKS_DB_NAME",
		"db.sslmode":                   "CLEARBOOKS_DB_SSLMODE",
		"db.max_open":                  "CLEARBOOKS_DB_MAX_OPEN",
		"db.max_idle":                  "CLEARBOOKS_DB_MAX_IDLE",
		"jwt.secret":                   "CLEARBOOKS_JWT_SECRET",
		"jwt.access_expiry":            "CLEARBOOKS_JWT_ACCESS_EXPIRY",
		"jwt.issuer":                   "CLEARBOOKS_JWT_ISSUER",
		"s3.region":                    "CLEARBOOKS_S3_REGION",
		"s3.bucket":                    "CLEARBOOKS_S3_BUCKET",
		"s3.endpoint":                  "CLEARBOOKS_S3_ENDPOINT",
		"s3.access_key":                "CLEARBOOKS_S3_ACCESS_KEY",
		"s3.secret_key":                "CLEARBOOKS_S3_SECRET_KEY",
		"s3.max_file_size_mb":          "CLEARBOOKS_S3_MAX_FILE_SIZE_MB",
		"log.level":                    "CLEARBOOKS_LOG_LEVEL",
		"log.format":                   "CLEARBOOKS_LOG_FORMAT",
		"cors.allowed_origins":         "CLEARBOOKS_CORS_ALLOWED_ORIGINS",
		"ai.api_key":                   "CLEARBOOKS_AI_API_KEY",
		"ai.model":                     "CLEARBOOKS_AI_MODEL",
		"ai.endpoint":                  "CLEARBOOKS_AI_ENDPOINT",
		"ai.timeout_secs":              "CLEARBOOKS_AI_TIMEOUT_SECS",
		"ai.max_concurrency":           "CLEARBOOKS_AI_MAX_CONCURRENCY",
		"feed.base_url":                "CLEARBOOKS_FEED_BASE_URL",
		"feed.api_key":                 "CLEARBOOKS_FEED_API_KEY",
		"feed.timeout_secs":            "CLEARBOOKS_FEED_TIMEOUT_SECS",
		"ingest.poll_interval_secs":    "CLEARBOOKS_INGEST_POLL_INTERVAL_SECS",
		"ingest.max_retries":           "CLEARBOOKS_INGEST_MAX_RETRIES",
		"ingest.concurrency":           "CLEARBOOKS_INGEST_CONCURRENCY",
		"recon.auto_confirm_threshold": "CLEARBOOKS_RECON_AUTO_CONFIRM_THRESHOLD",
		"recon.review_threshold":       "CLEARBOOKS_RECON_REVIEW_THRESHOLD",
		"recon.date_tolerance_days":    "CLEARBOOKS_RECON_DATE_TOLERANCE_DAYS",
		"recon.amount_tolerance_pct":   "CLEARBOOKS_RECON_AMOUNT_TOLERANCE_PCT",
		"recon.amount_weight":          "CLEARBOOKS_RECON_AMOUNT_WEIGHT",
		"recon.date_weight":            "CLEARBOOKS_RECON_DATE_WEIGHT",
		"recon.text_weight":            "CLEARBOOKS_RECON_TEXT_WEIGHT",
		"recon.window_days":            "CLEARBOOKS_RECON_WINDOW_DAYS",
		"recon.cron_schedule":          "CLEARBOOKS_RECON_CRON_SCHEDULE",
		"email.provider":               "CLEARBOOKS_EMAIL_PROVIDER",
		"email.region":                 "CLEARBOOKS_EMAIL_REGION",
		"email.from_address":           "CLEARBOOKS_EMAIL_FROM_ADDRESS",
		"email.from_name":              "CLEARBOOKS_EMAIL_FROM_NAME",
		"email.frontend_url":           "CLEARBOOKS_EMAIL_FRONTEND_URL",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if CLEARBOOKS_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("CLEARBOOKS_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.JWT = JWTConfig{
		Secret:            v.GetString("jwt.secret"),
		AccessTokenExpiry: v.GetDuration("jwt.access_expiry"),
		Issuer:            v.GetString("jwt.issuer"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		MaxFileSizeMB: v.GetInt64("s3.max_file_size_mb"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{AllowedOrigins: corsOrigins}

	cfg.AI = AIConfig{
		APIKey:         v.GetString("ai.api_key"),
		Model:          v.GetString("ai.model"),
		Endpoint:       v.GetString("ai.endpoint"),
		TimeoutSecs:    v.GetInt("ai.timeout_secs"),
		MaxConcurrency: v.GetInt("ai.max_concurrency"),
	}
	cfg.Feed = FeedConfig{
		BaseURL:     v.GetString("feed.base_url"),
		APIKey:      v.GetString("feed.api_key"),
		TimeoutSecs: v.GetInt("feed.timeout_secs"),
	}
	cfg.Ingest = IngestConfig{
		PollIntervalSecs: v.GetInt("ingest.poll_interval_secs"),
		MaxRetries:       v.GetInt("ingest.max_retries"),
		Concurrency:      v.GetInt("ingest.concurrency"),
	}
	cfg.Recon = ReconConfig{
		AutoConfirmThreshold: v.GetFloat64("recon.auto_confirm_threshold"),
		ReviewThreshold:      v.GetFloat64("recon.review_threshold"),
		DateToleranceDays:    v.GetInt("recon.date_tolerance_days"),
		AmountTolerancePct:   v.GetFloat64("recon.amount_tolerance_pct"),
		AmountWeight:         v.GetFloat64("recon.amount_weight"),
		DateWeight:           v.GetFloat64("recon.date_weight"),
		TextWeight:           v.GetFloat64("recon.text_weight"),
		WindowDays:           v.GetInt("recon.window_days"),
		CronSchedule:         v.GetString("recon.cron_schedule"),
	}
	cfg.Email = EmailConfig{
		Provider:    v.GetString("email.provider"),
		Region:      v.GetString("email.region"),
		FromAddress: v.GetString("email.from_address"),
		FromName:    v.GetString("email.from_name"),
		FrontendURL: v.GetString("email.frontend_url"),
	}

	return cfg, nil
}
