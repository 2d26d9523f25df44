// Package config provides configuration management for the application.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Session    SessionConfig    `mapstructure:"session"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Records    RecordsConfig    `mapstructure:"records"`
	Twilio     TwilioConfig     `mapstructure:"twilio"`
	Relay      RelayConfig      `mapstructure:"relay"`
	Middleware MiddlewareConfig `mapstructure:"middleware"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

// IsProduction reports whether cookies should be marked Secure.
func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}

type ServerConfig struct {
	Port           string `mapstructure:"port"`
	ReadTimeout    int    `mapstructure:"read_timeout"`
	WriteTimeout   int    `mapstructure:"write_timeout"`
	RequestTimeout int    `mapstructure:"request_timeout"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite". Empty selects postgres when URL is set.
	Driver     string `mapstructure:"driver"`
	URL        string `mapstructure:"url"`
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password"`
	DBName     string `mapstructure:"dbname"`
	SSLMode    string `mapstructure:"sslmode"`
	SQLitePath string `mapstructure:"sqlite_path"`
	MaxOpen    int    `mapstructure:"max_open_conns"`
	MaxIdle    int    `mapstructure:"max_idle_conns"`
}

type AuthConfig struct {
	AdminUsername     string `mapstructure:"admin_username"`
	AdminPassword     string `mapstructure:"admin_password"`
	AdminPasswordHash string `mapstructure:"admin_password_hash"`
}

type SessionConfig struct {
	Secret     string        `mapstructure:"secret"`
	Store      string        `mapstructure:"store"`
	Lifetime   time.Duration `mapstructure:"lifetime"`
	CookieName string        `mapstructure:"cookie_name"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type RecordsConfig struct {
	DefaultCategory string `mapstructure:"default_category"`
}

type TwilioConfig struct {
	AccountSID     string               `mapstructure:"account_sid"`
	AuthToken      string               `mapstructure:"auth_token"`
	FromNumber     string               `mapstructure:"from_number"`
	BaseURL        string               `mapstructure:"base_url"`
	Timeout        int                  `mapstructure:"timeout"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// Enabled reports whether outbound SMS can be sent.
func (t TwilioConfig) Enabled() bool {
	return t.AccountSID != "" && t.AuthToken != "" && t.FromNumber != ""
}

type CircuitBreakerConfig struct {
	MaxRequests      uint32  `mapstructure:"max_requests"`
	Interval         int     `mapstructure:"interval"`
	Timeout          int     `mapstructure:"timeout"`
	FailureRatio     float64 `mapstructure:"failure_ratio"`
	ConsecutiveFails uint32  `mapstructure:"consecutive_fails"`
}

type RelayConfig struct {
	Targets []string `mapstructure:"targets"`
	Timeout int      `mapstructure:"timeout"`
}

type MiddlewareConfig struct {
	RateLimit      int `mapstructure:"rate_limit"`
	RateLimitBurst int `mapstructure:"rate_limit_burst"`
}

// envBindings keeps the environment names operators already use.
var envBindings = map[string]string{
	"app.env":                  "APP_ENV",
	"server.port":              "PORT",
	"log.level":                "LOG_LEVEL",
	"database.driver":          "DATABASE_DRIVER",
	"database.url":             "DATABASE_URL",
	"database.sqlite_path":     "SQLITE_PATH",
	"auth.admin_username":      "ADMIN_USERNAME",
	"auth.admin_password":      "ADMIN_PASSWORD",
	"auth.admin_password_hash": "ADMIN_PASSWORD_HASH",
	"session.secret":           "SECRET_KEY",
	"session.store":            "SESSION_STORE",
	"redis.host":               "REDIS_HOST",
	"redis.port":               "REDIS_PORT",
	"redis.password":           "REDIS_PASSWORD",
	"records.default_category": "DEFAULT_RECORD_TYPE",
	"twilio.account_sid":       "TWILIO_ACCOUNT_SID",
	"twilio.auth_token":        "TWILIO_AUTH_TOKEN",
	"twilio.from_number":       "TWILIO_PHONE_NUMBER",
	"relay.targets":            "RELAY_TARGETS",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("server.port", "5000")
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("server.request_timeout", 30)
	v.SetDefault("log.level", "info")
	v.SetDefault("database.driver", "")
	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.sqlite_path", "instance/rent_data.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("auth.admin_username", "")
	v.SetDefault("auth.admin_password", "")
	v.SetDefault("auth.admin_password_hash", "")
	v.SetDefault("session.secret", "")
	v.SetDefault("session.store", "memory")
	v.SetDefault("session.lifetime", time.Hour)
	v.SetDefault("session.cookie_name", "rentverify_session")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("records.default_category", "tenant")
	v.SetDefault("twilio.account_sid", "")
	v.SetDefault("twilio.auth_token", "")
	v.SetDefault("twilio.from_number", "")
	v.SetDefault("twilio.base_url", "https://api.twilio.com")
	v.SetDefault("twilio.timeout", 10)
	v.SetDefault("twilio.circuit_breaker.max_requests", 3)
	v.SetDefault("twilio.circuit_breaker.interval", 60)
	v.SetDefault("twilio.circuit_breaker.timeout", 60)
	v.SetDefault("twilio.circuit_breaker.failure_ratio", 0.6)
	v.SetDefault("twilio.circuit_breaker.consecutive_fails", 5)
	v.SetDefault("relay.targets", []string{})
	v.SetDefault("relay.timeout", 10)
	v.SetDefault("middleware.rate_limit", 100)
	v.SetDefault("middleware.rate_limit_burst", 1000)
}

// LoadConfig reads configuration from defaults, an optional YAML file, a .env
// file in the working directory and the process environment, in increasing
// order of precedence. An empty configPath skips the YAML file.
func LoadConfig(configPath string) (*Config, error) {
	config, err := load(configPath)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadDatabaseConfig reads only the database section. Maintenance commands
// use it so they run without the web credentials being set.
func LoadDatabaseConfig(configPath string) (DatabaseConfig, error) {
	config, err := load(configPath)
	if err != nil {
		return DatabaseConfig{}, err
	}
	switch config.Database.Driver {
	case "", "postgres", "sqlite":
	default:
		return DatabaseConfig{}, fmt.Errorf("unknown database driver %q", config.Database.Driver)
	}
	return config.Database, nil
}

func load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// RELAY_TARGETS arrives as one comma separated string.
	config.Relay.Targets = splitList(config.Relay.Targets)

	return &config, nil
}

// Validate rejects configurations the application cannot start with.
func (c *Config) Validate() error {
	var problems []string

	if c.Auth.AdminUsername == "" {
		problems = append(problems, "ADMIN_USERNAME must be set")
	}
	if c.Auth.AdminPassword == "" && c.Auth.AdminPasswordHash == "" {
		problems = append(problems, "ADMIN_PASSWORD or ADMIN_PASSWORD_HASH must be set")
	}
	if c.Session.Secret == "" {
		problems = append(problems, "SECRET_KEY must be set")
	}
	if c.Session.Lifetime <= 0 {
		problems = append(problems, "session.lifetime must be > 0")
	}
	switch c.Session.Store {
	case "memory", "redis":
	default:
		problems = append(problems, fmt.Sprintf("unknown session store %q", c.Session.Store))
	}
	switch c.Database.Driver {
	case "", "postgres", "sqlite":
	default:
		problems = append(problems, fmt.Sprintf("unknown database driver %q", c.Database.Driver))
	}
	switch strings.ToLower(c.Records.DefaultCategory) {
	case "tenant", "landlord":
	default:
		problems = append(problems, fmt.Sprintf("DEFAULT_RECORD_TYPE must be tenant or landlord, got %q", c.Records.DefaultCategory))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// GetDSN returns PostgreSQL connection string.
func (d *DatabaseConfig) GetDSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// DriverName resolves the configured driver, defaulting to postgres when a
// connection URL or host is present and to sqlite otherwise.
func (d *DatabaseConfig) DriverName() string {
	if d.Driver != "" {
		return d.Driver
	}
	if d.URL != "" || d.Host != "" {
		return "postgres"
	}
	return "sqlite"
}

// Addr returns the Redis address in host:port form.
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
