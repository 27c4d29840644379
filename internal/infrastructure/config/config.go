package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Playauto  PlayautoConfig
	Sync      SyncConfig
	Scheduler SchedulerConfig
	Forecast  ForecastConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name     string
	Env      string
	Port     string
	Timezone string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
}

// PlayautoConfig holds marketplace hub API settings
type PlayautoConfig struct {
	BaseURL        string
	APIKey         string
	Email          string
	Password       string
	PageSize       int
	PageDelay      time.Duration
	TokenTTL       time.Duration
	RequestTimeout time.Duration
}

// SyncConfig holds sync orchestration settings
type SyncConfig struct {
	RangeDelay time.Duration // pause between top-level sub-ranges
}

// SchedulerConfig holds sync scheduler configuration
type SchedulerConfig struct {
	Enabled        bool
	SmartSyncHours []int // local hours at which the smart sync fires
	WeeklyDay      int   // weekday of the validation sync (0 = Sunday)
	WeeklyHour     int   // local hour of the validation sync
}

// ForecastConfig holds forecast defaults
type ForecastConfig struct {
	LookbackDays int
	HorizonDays  int
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with ORDERPULSE_ prefix (e.g., ORDERPULSE_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	// Set config file settings
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	// Enable environment variable override
	v.SetEnvPrefix("ORDERPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Build config struct
	cfg := &Config{
		App: AppConfig{
			Name:     v.GetString("app.name"),
			Env:      v.GetString("app.env"),
			Port:     v.GetString("app.port"),
			Timezone: v.GetString("app.timezone"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
		},
		Playauto: PlayautoConfig{
			BaseURL:        v.GetString("playauto.base_url"),
			APIKey:         v.GetString("playauto.api_key"),
			Email:          v.GetString("playauto.email"),
			Password:       v.GetString("playauto.password"),
			PageSize:       v.GetInt("playauto.page_size"),
			PageDelay:      v.GetDuration("playauto.page_delay"),
			TokenTTL:       v.GetDuration("playauto.token_ttl"),
			RequestTimeout: v.GetDuration("playauto.request_timeout"),
		},
		Sync: SyncConfig{
			RangeDelay: v.GetDuration("sync.range_delay"),
		},
		Scheduler: SchedulerConfig{
			Enabled:        v.GetBool("scheduler.enabled"),
			SmartSyncHours: v.GetIntSlice("scheduler.smart_sync_hours"),
			WeeklyDay:      v.GetInt("scheduler.weekly_day"),
			WeeklyHour:     v.GetInt("scheduler.weekly_hour"),
		},
		Forecast: ForecastConfig{
			LookbackDays: v.GetInt("forecast.lookback_days"),
			HorizonDays:  v.GetInt("forecast.horizon_days"),
		},
	}

	// Apply defaults for empty values
	applyDefaults(cfg)

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "orderpulse-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.App.Timezone == "" {
		cfg.App.Timezone = "Asia/Seoul"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "orderpulse"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	// NOTE: CORS origins are intentionally not given a default fallback to "*".
	// An empty list means no cross-origin requests are allowed until explicitly configured.
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
	if cfg.Playauto.BaseURL == "" {
		cfg.Playauto.BaseURL = "https://openapi.playauto.io/api"
	}
	if cfg.Playauto.PageSize == 0 {
		cfg.Playauto.PageSize = 3000
	}
	if cfg.Playauto.PageDelay == 0 {
		cfg.Playauto.PageDelay = 500 * time.Millisecond
	}
	if cfg.Playauto.TokenTTL == 0 {
		cfg.Playauto.TokenTTL = 23 * time.Hour
	}
	if cfg.Playauto.RequestTimeout == 0 {
		cfg.Playauto.RequestTimeout = 60 * time.Second
	}
	if cfg.Sync.RangeDelay == 0 {
		cfg.Sync.RangeDelay = time.Second
	}
	if len(cfg.Scheduler.SmartSyncHours) == 0 {
		cfg.Scheduler.SmartSyncHours = []int{0, 3, 6, 9, 12, 15, 18, 21}
	}
	if cfg.Scheduler.WeeklyHour == 0 {
		cfg.Scheduler.WeeklyHour = 4
	}
	if cfg.Forecast.LookbackDays == 0 {
		cfg.Forecast.LookbackDays = 60
	}
	if cfg.Forecast.HorizonDays == 0 {
		cfg.Forecast.HorizonDays = 30
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	// Validate connection pool settings
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("app.timezone %q is not a valid IANA timezone: %w", c.App.Timezone, err)
	}

	for _, h := range c.Scheduler.SmartSyncHours {
		if h < 0 || h > 23 {
			return fmt.Errorf("scheduler.smart_sync_hours entry %d is out of range", h)
		}
	}
	if c.Scheduler.WeeklyDay < 0 || c.Scheduler.WeeklyDay > 6 {
		return fmt.Errorf("scheduler.weekly_day must be between 0 (Sunday) and 6")
	}
	if c.Scheduler.WeeklyHour < 0 || c.Scheduler.WeeklyHour > 23 {
		return fmt.Errorf("scheduler.weekly_hour must be between 0 and 23")
	}

	// Production-specific validations
	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.Playauto.APIKey == "" {
			return fmt.Errorf("playauto.api_key is required in production")
		}
		if c.Playauto.Email == "" || c.Playauto.Password == "" {
			return fmt.Errorf("playauto credentials are required in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	return nil
}

// Location returns the configured service timezone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
