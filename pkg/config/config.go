package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Warehouse WarehouseConfig
	Redis     RedisConfig
	Canvas    CanvasConfig
	SMTP      SMTPConfig
	CORS      CORSConfig
	Log       LogConfig
	Report    ReportConfig
	Schedules []ScheduleConfig
}

// WarehouseConfig points at the read-only Canvas Data warehouse.
type WarehouseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// CanvasConfig configures the Canvas REST API used for profile lookups.
type CanvasConfig struct {
	BaseURL string
	Token   string
	Shard   int64
	Timeout time.Duration
}

// SMTPConfig configures report delivery.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Subject  string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ReportConfig tunes the report worker pool and email cache behaviour.
type ReportConfig struct {
	QueueWorkers    int
	QueueBuffer     int
	QueueRetries    int
	ResolverWorkers int
	JobTimeout      time.Duration
	CacheTTLMinDays int
	CacheTTLMaxDays int
}

// ScheduleConfig describes a recurring report submission.
type ScheduleConfig struct {
	CronSpec       string
	TermID         string
	CourseType     string
	LoginFilter    bool
	RefreshData    bool
	RequesterEmail string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Warehouse = WarehouseConfig{
		Host:         v.GetString("WAREHOUSE_HOST"),
		Port:         v.GetInt("WAREHOUSE_PORT"),
		User:         v.GetString("WAREHOUSE_USER"),
		Password:     v.GetString("WAREHOUSE_PASSWORD"),
		Name:         v.GetString("WAREHOUSE_NAME"),
		SSLMode:      v.GetString("WAREHOUSE_SSL_MODE"),
		MaxOpenConns: v.GetInt("WAREHOUSE_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("WAREHOUSE_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Canvas = CanvasConfig{
		BaseURL: v.GetString("CANVAS_BASE_URL"),
		Token:   v.GetString("CANVAS_TOKEN"),
		Shard:   v.GetInt64("CANVAS_SHARD"),
		Timeout: parseDuration(v.GetString("CANVAS_TIMEOUT"), 15*time.Second),
	}

	cfg.SMTP = SMTPConfig{
		Host:     v.GetString("SMTP_HOST"),
		Port:     v.GetInt("SMTP_PORT"),
		Username: v.GetString("SMTP_USERNAME"),
		Password: v.GetString("SMTP_PASSWORD"),
		From:     v.GetString("SMTP_FROM"),
		Subject:  v.GetString("SMTP_SUBJECT"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Report = ReportConfig{
		QueueWorkers:    v.GetInt("REPORT_QUEUE_WORKERS"),
		QueueBuffer:     v.GetInt("REPORT_QUEUE_BUFFER"),
		QueueRetries:    v.GetInt("REPORT_QUEUE_RETRIES"),
		ResolverWorkers: v.GetInt("REPORT_RESOLVER_WORKERS"),
		JobTimeout:      parseDuration(v.GetString("REPORT_JOB_TIMEOUT"), 30*time.Minute),
		CacheTTLMinDays: v.GetInt("REPORT_CACHE_TTL_MIN_DAYS"),
		CacheTTLMaxDays: v.GetInt("REPORT_CACHE_TTL_MAX_DAYS"),
	}

	cfg.Schedules = parseSchedules(v.GetString("REPORT_SCHEDULES"))

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("WAREHOUSE_HOST", "localhost")
	v.SetDefault("WAREHOUSE_PORT", 5432)
	v.SetDefault("WAREHOUSE_USER", "canvas_data")
	v.SetDefault("WAREHOUSE_PASSWORD", "canvas_data")
	v.SetDefault("WAREHOUSE_NAME", "canvas_warehouse")
	v.SetDefault("WAREHOUSE_SSL_MODE", "disable")
	v.SetDefault("WAREHOUSE_MAX_OPEN_CONNS", 5)
	v.SetDefault("WAREHOUSE_MAX_IDLE_CONNS", 2)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("CANVAS_BASE_URL", "https://canvas.example.edu/api/v1")
	v.SetDefault("CANVAS_TOKEN", "")
	v.SetDefault("CANVAS_SHARD", 1)
	v.SetDefault("CANVAS_TIMEOUT", "15s")

	v.SetDefault("SMTP_HOST", "localhost")
	v.SetDefault("SMTP_PORT", 25)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_FROM", "donotreply@example.edu")
	v.SetDefault("SMTP_SUBJECT", "Canvas Data Report")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("REPORT_QUEUE_WORKERS", 1)
	v.SetDefault("REPORT_QUEUE_BUFFER", 8)
	v.SetDefault("REPORT_QUEUE_RETRIES", 3)
	v.SetDefault("REPORT_RESOLVER_WORKERS", 1)
	v.SetDefault("REPORT_JOB_TIMEOUT", "30m")
	v.SetDefault("REPORT_CACHE_TTL_MIN_DAYS", 7)
	v.SetDefault("REPORT_CACHE_TTL_MAX_DAYS", 21)

	v.SetDefault("REPORT_SCHEDULES", "")
}

// parseSchedules decodes REPORT_SCHEDULES entries of the form
// "cron spec|term id|course type|login filter|refresh|requester email"
// separated by semicolons. Malformed entries are skipped.
func parseSchedules(raw string) []ScheduleConfig {
	if raw == "" {
		return nil
	}

	var schedules []ScheduleConfig
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, "|")
		if len(parts) != 6 {
			continue
		}
		schedules = append(schedules, ScheduleConfig{
			CronSpec:       strings.TrimSpace(parts[0]),
			TermID:         strings.TrimSpace(parts[1]),
			CourseType:     strings.TrimSpace(parts[2]),
			LoginFilter:    strings.EqualFold(strings.TrimSpace(parts[3]), "true"),
			RefreshData:    strings.EqualFold(strings.TrimSpace(parts[4]), "true"),
			RequesterEmail: strings.TrimSpace(parts[5]),
		})
	}

	return schedules
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
