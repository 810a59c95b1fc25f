package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Admin     AdminConfig     `mapstructure:"admin"`
	Stripe    StripeConfig    `mapstructure:"stripe"`
	Email     EmailConfig     `mapstructure:"email"`
	Nudge     NudgeConfig     `mapstructure:"nudge"`
	Site      SiteConfig      `mapstructure:"site"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Tracing   TracingConfig   `mapstructure:"tracing"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	ForceMigrate bool `mapstructure:"-"`
	MigrateOnly  bool `mapstructure:"-"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type AdminConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type StripeConfig struct {
	WebhookSecret string `mapstructure:"webhook_secret"`
	// 签名时间戳允许的最大偏移，超过即视为重放
	SignatureToleranceSeconds int `mapstructure:"signature_tolerance_seconds"`

	SignatureTolerance time.Duration `mapstructure:"-"`
}

type EmailConfig struct {
	SendGridAPIKey    string `mapstructure:"sendgrid_api_key"`
	FromEmail         string `mapstructure:"from_email"`
	FromName          string `mapstructure:"from_name"`
	NotificationEmail string `mapstructure:"notification_email"`
}

type NudgeConfig struct {
	UnsubscribeSecret string `mapstructure:"unsubscribe_secret"`
	// 每日发送时间（UTC，格式 "15:04"）
	RunAt string `mapstructure:"run_at"`
}

type SiteConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("GRAVEL")
	viper.AutomaticEnv()

	// Database
	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.dbname", "DATABASE_NAME")

	// Redis
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	viper.BindEnv("server.mode", "SERVER_MODE")

	// Secrets
	viper.BindEnv("admin.api_key", "ADMIN_API_KEY")
	viper.BindEnv("stripe.webhook_secret", "STRIPE_WEBHOOK_SECRET")
	viper.BindEnv("nudge.unsubscribe_secret", "NUDGE_UNSUBSCRIBE_SECRET")
	viper.BindEnv("email.sendgrid_api_key", "SENDGRID_API_KEY")
	viper.BindEnv("email.from_email", "FROM_EMAIL")
	viper.BindEnv("email.from_name", "FROM_NAME")
	viper.BindEnv("email.notification_email", "NOTIFICATION_EMAIL")
	viper.BindEnv("site.base_url", "SITE_BASE_URL")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.Stripe.SignatureTolerance = time.Duration(cfg.Stripe.SignatureToleranceSeconds) * time.Second
	if cfg.Stripe.SignatureTolerance <= 0 {
		cfg.Stripe.SignatureTolerance = 300 * time.Second
	}
	if cfg.Nudge.RunAt == "" {
		cfg.Nudge.RunAt = "14:00"
	}

	// 生产环境校验密钥强度
	if cfg.Server.Mode == "release" {
		if len(cfg.Admin.APIKey) < 32 {
			return nil, fmt.Errorf("admin API key is too short (%d chars), must be at least 32 characters in release mode", len(cfg.Admin.APIKey))
		}
		if len(cfg.Nudge.UnsubscribeSecret) < 32 {
			return nil, fmt.Errorf("unsubscribe secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.Nudge.UnsubscribeSecret))
		}
	}

	return &cfg, nil
}
