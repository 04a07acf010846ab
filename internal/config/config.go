package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const (
	// EnvDevelopment relaxes secret validation and switches logs to console output.
	EnvDevelopment = "development"
	// EnvProduction enables the production reminder plan.
	EnvProduction = "production"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	Env         string `mapstructure:"ENV"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	ServerPort  string `mapstructure:"SERVER_PORT"`
	SwaggerHost string `mapstructure:"SWAGGER_HOST"`
	ResetDB     bool   `mapstructure:"RESET_DB"`

	DBDriver    string `mapstructure:"DB_DRIVER"`
	DatabaseDSN string `mapstructure:"DATABASE_DSN"`

	RedisAddr string `mapstructure:"REDIS_ADDR"`
	RedisPass string `mapstructure:"REDIS_PASSWORD"`
	RedisDB   int    `mapstructure:"REDIS_DB"`

	JWTAccessSecret  string        `mapstructure:"JWT_ACCESS_SECRET"`
	JWTRefreshSecret string        `mapstructure:"JWT_REFRESH_SECRET"`
	JWTAccessTTL     time.Duration `mapstructure:"JWT_ACCESS_EXPIRES_IN"`
	JWTRefreshTTL    time.Duration `mapstructure:"JWT_REFRESH_EXPIRES_IN"`
	PasswordCost     int           `mapstructure:"PASSWORD_COST"`

	DailyCapacity       int           `mapstructure:"DAILY_CAPACITY"`
	UpcomingOnly        bool          `mapstructure:"UPCOMING_ONLY"`
	RefreshCookieMaxAge time.Duration `mapstructure:"REFRESH_COOKIE_MAX_AGE"`
	NotificationsFile   string        `mapstructure:"NOTIFICATIONS_FILE"`

	RateLimitRPS   float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `mapstructure:"RATE_LIMIT_BURST"`
}

var keys = []string{
	"ENV", "LOG_LEVEL", "SERVER_PORT", "SWAGGER_HOST", "RESET_DB",
	"DB_DRIVER", "DATABASE_DSN",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	"JWT_ACCESS_SECRET", "JWT_REFRESH_SECRET", "JWT_ACCESS_EXPIRES_IN", "JWT_REFRESH_EXPIRES_IN", "PASSWORD_COST",
	"DAILY_CAPACITY", "UPCOMING_ONLY", "REFRESH_COOKIE_MAX_AGE", "NOTIFICATIONS_FILE",
	"RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
}

// Load builds Config from the environment and an optional .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	setDefaults(v)
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// .env is optional
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("DB_DRIVER", "mysql")
	v.SetDefault("DATABASE_DSN", "user:password@tcp(localhost:3306)/medbook?charset=utf8mb4&parseTime=True&loc=UTC")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("JWT_ACCESS_EXPIRES_IN", "15m")
	v.SetDefault("JWT_REFRESH_EXPIRES_IN", "720h")
	v.SetDefault("PASSWORD_COST", 10)
	v.SetDefault("DAILY_CAPACITY", 3)
	v.SetDefault("UPCOMING_ONLY", true)
	// 30 * 24 * 60 * 1000 milliseconds, kept as observed in the original service.
	v.SetDefault("REFRESH_COOKIE_MAX_AGE", "43200s")
	v.SetDefault("NOTIFICATIONS_FILE", "notifications.log")
	v.SetDefault("RATE_LIMIT_RPS", 5)
	v.SetDefault("RATE_LIMIT_BURST", 10)
}

// IsDev reports whether the service runs in development mode.
func (c *Config) IsDev() bool {
	return c.Env == EnvDevelopment
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Validate checks that the configuration is safe to run with.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "mysql", "postgres", "memory":
	default:
		return fmt.Errorf("DB_DRIVER must be \"mysql\", \"postgres\" or \"memory\", got %q", c.DBDriver)
	}

	if !c.IsDev() {
		if c.JWTAccessSecret == "" {
			return fmt.Errorf("JWT_ACCESS_SECRET is required outside development")
		}
		if c.JWTRefreshSecret == "" {
			return fmt.Errorf("JWT_REFRESH_SECRET is required outside development")
		}
		if c.JWTAccessSecret == c.JWTRefreshSecret {
			return fmt.Errorf("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
		}
	}

	if c.JWTAccessTTL <= 0 || c.JWTRefreshTTL <= 0 {
		return fmt.Errorf("token expiries must be positive")
	}
	if c.DailyCapacity < 0 {
		return fmt.Errorf("DAILY_CAPACITY must not be negative, got %d", c.DailyCapacity)
	}
	return nil
}

// ApplyDevSecrets fills missing JWT secrets with fixed development values.
func (c *Config) ApplyDevSecrets() {
	if !c.IsDev() {
		return
	}
	if c.JWTAccessSecret == "" {
		c.JWTAccessSecret = "dev-access-secret"
	}
	if c.JWTRefreshSecret == "" {
		c.JWTRefreshSecret = "dev-refresh-secret"
	}
}
