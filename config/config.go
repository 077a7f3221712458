package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata" // practice timezones resolve on hosts without zoneinfo

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// DefaultPath is used when no explicit config file is given.
var DefaultPath = filepath.Join("config", "config.json")

// AppConfig holds all runtime configuration. It is built once by Load and handed to every component.
// Secrets have no defaults and must come from the config file or the environment.
type AppConfig struct {
	App      AppSection     `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	OAuth    OAuthConfig    `mapstructure:"oauth"`
	Log      LogConfig      `mapstructure:"log"`
	Practice PracticeConfig `mapstructure:"practice"`
}

type AppSection struct {
	Port               string        `mapstructure:"port" validate:"required"`
	JWTSecret          string        `mapstructure:"jwt_secret" validate:"required,min=16"`
	TokenTTL           time.Duration `mapstructure:"token_ttl" validate:"min=1m"`
	RateLimitPerMinute int           `mapstructure:"rate_limit_per_minute" validate:"min=1"`
	AllowedOrigins     []string      `mapstructure:"allowed_origins"`
	GinMode            string        `mapstructure:"gin_mode" validate:"oneof=debug release test"`
	GinLogPath         string        `mapstructure:"gin_log_path"`
}

type DatabaseConfig struct {
	// Driver selects the gorm dialector: mysql, postgres or sqlite.
	Driver          string        `mapstructure:"driver" validate:"oneof=mysql postgres sqlite"`
	URI             string        `mapstructure:"uri"`
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"min=1,max=1000"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"min=0,max=100"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"min=0"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" validate:"min=0"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// RedisConfig leaves Host empty to run without redis; caches then fall back to memory or are skipped.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	DB       int    `mapstructure:"db"`
	Password string `mapstructure:"password"`
}

type OAuthConfig struct {
	RedirectBase       string `mapstructure:"redirect_base"`
	GitHubClientID     string `mapstructure:"github_client_id"`
	GitHubClientSecret string `mapstructure:"github_client_secret"`
	GoogleClientID     string `mapstructure:"google_client_id"`
	GoogleClientSecret string `mapstructure:"google_client_secret"`
}

type LogConfig struct {
	Level      string `mapstructure:"level" validate:"oneof=debug info warn error dpanic panic fatal"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type PracticeConfig struct {
	// Timezone decides which calendar date "today" is.
	Timezone       string        `mapstructure:"timezone" validate:"required"`
	HistoryLimit   int           `mapstructure:"history_limit" validate:"min=1,max=365"`
	LeaderboardTTL time.Duration `mapstructure:"leaderboard_ttl"`
	RefreshCron    string        `mapstructure:"refresh_cron"`
}

// Location returns the practice timezone, falling back to the process local zone.
func (c AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Practice.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// envBindings maps config keys onto the environment variables operators already use.
var envBindings = map[string]string{
	"app.port":                   "APP_PORT",
	"app.jwt_secret":             "JWT_SECRET",
	"app.token_ttl":              "TOKEN_TTL",
	"app.rate_limit_per_minute":  "RATE_LIMIT_PER_MINUTE",
	"app.gin_mode":               "GIN_MODE",
	"app.gin_log_path":           "GIN_LOG_PATH",
	"database.driver":            "DB_DRIVER",
	"database.uri":               "DATABASE_URI",
	"database.host":              "DB_HOST",
	"database.port":              "DB_PORT",
	"database.user":              "DB_USER",
	"database.password":          "DB_PASSWORD",
	"database.name":              "DB_NAME",
	"database.sslmode":           "DB_SSLMODE",
	"database.auto_migrate":      "DB_AUTO_MIGRATE",
	"redis.host":                 "REDIS_HOST",
	"redis.port":                 "REDIS_PORT",
	"redis.db":                   "REDIS_DB",
	"redis.password":             "REDIS_PASSWORD",
	"oauth.redirect_base":        "OAUTH_REDIRECT_BASE_URL",
	"oauth.github_client_id":     "GITHUB_CLIENT_ID",
	"oauth.github_client_secret": "GITHUB_CLIENT_SECRET",
	"oauth.google_client_id":     "GOOGLE_CLIENT_ID",
	"oauth.google_client_secret": "GOOGLE_CLIENT_SECRET",
	"log.level":                  "LOG_LEVEL",
	"log.path":                   "LOG_PATH",
	"log.max_size_mb":            "LOG_MAX_SIZE_MB",
	"log.max_backups":            "LOG_MAX_BACKUPS",
	"log.max_age_days":           "LOG_MAX_AGE_DAYS",
	"log.compress":               "LOG_COMPRESS",
	"practice.timezone":          "PRACTICE_TIMEZONE",
	"practice.history_limit":     "PRACTICE_HISTORY_LIMIT",
	"practice.leaderboard_ttl":   "PRACTICE_LEADERBOARD_TTL",
	"practice.refresh_cron":      "PRACTICE_REFRESH_CRON",
}

// Load reads configuration with precedence defaults -> JSON file -> environment.
// A missing file is not an error; invalid JSON or failed validation is.
func Load(path string) (AppConfig, error) {
	if path == "" {
		path = DefaultPath
	}

	v := viper.New()
	applyDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return AppConfig{}, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}
	// CORS_ALLOWED_ORIGINS holds a comma separated list.
	if err := v.BindEnv("app.allowed_origins", "CORS_ALLOWED_ORIGINS"); err != nil {
		return AppConfig{}, fmt.Errorf("failed to bind CORS_ALLOWED_ORIGINS: %w", err)
	}

	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return AppConfig{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return AppConfig{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.App.AllowedOrigins = splitAndTrim(cfg.App.AllowedOrigins)

	if err := Validate(cfg); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.token_ttl", 72*time.Hour)
	v.SetDefault("app.rate_limit_per_minute", 60)
	v.SetDefault("app.allowed_origins", []string{"*"})
	v.SetDefault("app.gin_mode", "release")
	v.SetDefault("app.gin_log_path", "logs/gin.log")

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", "3306")
	v.SetDefault("database.user", "root")
	v.SetDefault("database.name", "navia")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("database.conn_max_idle_time", 10*time.Minute)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("redis.port", 6379)

	v.SetDefault("oauth.redirect_base", "http://localhost:8080")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 7)

	v.SetDefault("practice.timezone", "Local")
	v.SetDefault("practice.history_limit", 30)
	v.SetDefault("practice.leaderboard_ttl", 5*time.Minute)
	v.SetDefault("practice.refresh_cron", "5 0 * * *")
}

var validate = validator.New()

// Validate checks struct tags on the whole configuration tree.
func Validate(cfg AppConfig) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := time.LoadLocation(cfg.Practice.Timezone); err != nil {
		return fmt.Errorf("invalid configuration: practice timezone %q: %w", cfg.Practice.Timezone, err)
	}
	return nil
}

// splitAndTrim flattens entries such as "a.com, b.com" coming from the environment.
func splitAndTrim(raw []string) []string {
	items := []string{}
	for _, entry := range raw {
		for _, item := range strings.Split(entry, ",") {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				items = append(items, trimmed)
			}
		}
	}
	return items
}
