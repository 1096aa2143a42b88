package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment override, e.g. PROPLEDGER_DATABASE_PASSWORD
const EnvPrefix = "PROPLEDGER"

// Config holds all application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Log       LogConfig       `mapstructure:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Ledger    LedgerConfig    `mapstructure:"ledger"`
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name  string `mapstructure:"name"`
	Env   string `mapstructure:"env"`
	Debug bool   `mapstructure:"debug"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogLevel        string        `mapstructure:"log_level"`      // silent, error, warn, info
	SlowThreshold   time.Duration `mapstructure:"slow_threshold"` // GORM slow query log threshold
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
	Output string `mapstructure:"output"` // stdout, stderr, or file path
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool            `mapstructure:"enabled"`
	CollectorEndpoint string          `mapstructure:"collector_endpoint"` // OTLP gRPC, e.g. "localhost:4317"
	Insecure          bool            `mapstructure:"insecure"`
	SamplingRatio     float64         `mapstructure:"sampling_ratio"`
	MetricsEnabled    bool            `mapstructure:"metrics_enabled"`
	MetricsInterval   time.Duration   `mapstructure:"metrics_interval"`
	LogsEnabled       bool            `mapstructure:"logs_enabled"`
	DBTracing         DBTracingConfig `mapstructure:"db_tracing"`
}

// DBTracingConfig holds otelgorm settings
type DBTracingConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	LogFullSQL      bool          `mapstructure:"log_full_sql"`
	SlowQueryThresh time.Duration `mapstructure:"slow_query_threshold"`
}

// LedgerConfig holds list paging limits for the ledger services
type LedgerConfig struct {
	DefaultPageSize int `mapstructure:"default_page_size"`
	MaxPageSize     int `mapstructure:"max_page_size"`
}

var defaults = map[string]any{
	"app.name":                                  "propledger",
	"app.env":                                   "development",
	"app.debug":                                 false,
	"database.host":                             "localhost",
	"database.port":                             5432,
	"database.user":                             "postgres",
	"database.password":                         "",
	"database.dbname":                           "propledger",
	"database.sslmode":                          "disable",
	"database.max_open_conns":                   25,
	"database.max_idle_conns":                   5,
	"database.conn_max_lifetime":                time.Hour,
	"database.log_level":                        "warn",
	"database.slow_threshold":                   200 * time.Millisecond,
	"log.level":                                 "info",
	"log.format":                                "console",
	"log.output":                                "stdout",
	"telemetry.enabled":                         false,
	"telemetry.collector_endpoint":              "localhost:4317",
	"telemetry.insecure":                        true,
	"telemetry.sampling_ratio":                  1.0,
	"telemetry.metrics_enabled":                 true,
	"telemetry.metrics_interval":                time.Minute,
	"telemetry.logs_enabled":                    true,
	"telemetry.db_tracing.enabled":              false,
	"telemetry.db_tracing.log_full_sql":         false,
	"telemetry.db_tracing.slow_query_threshold": 200 * time.Millisecond,
	"ledger.default_page_size":                  20,
	"ledger.max_page_size":                      100,
}

// Load reads config.toml from ., ./config or /etc/propledger when present.
// Priority, highest first: PROPLEDGER_* environment variables, the file,
// built-in defaults.
func Load() (*Config, error) {
	return load("")
}

// LoadFile is Load with an explicit configuration file, which must exist
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config file path is empty")
	}
	return load(path)
}

func load(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/propledger")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	db := c.Database
	check(db.MaxOpenConns > 0, "database.max_open_conns must be positive")
	check(db.MaxIdleConns >= 0, "database.max_idle_conns cannot be negative")
	check(db.MaxIdleConns <= db.MaxOpenConns,
		"database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)", db.MaxIdleConns, db.MaxOpenConns)

	l := c.Ledger
	check(l.DefaultPageSize > 0 && l.MaxPageSize > 0, "ledger page sizes must be positive")
	check(l.DefaultPageSize <= l.MaxPageSize,
		"ledger.default_page_size (%d) cannot exceed ledger.max_page_size (%d)", l.DefaultPageSize, l.MaxPageSize)

	ratio := c.Telemetry.SamplingRatio
	check(ratio >= 0 && ratio <= 1, "telemetry.sampling_ratio must be between 0.0 and 1.0, got %g", ratio)

	if c.IsProduction() {
		check(db.Password != "", "database.password is required in production")
		check(db.SSLMode != "disable", "database.sslmode cannot be 'disable' in production")
		check(!c.Telemetry.DBTracing.LogFullSQL, "telemetry.db_tracing.log_full_sql must be false in production")
	}
	return errors.Join(errs...)
}

// IsProduction reports whether the app runs in the production environment
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// DSN returns the keyword/value connection string used by the gorm postgres driver
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, quoteDSNValue(d.Password), d.DBName, d.SSLMode)
}

// URL returns the postgres:// URL used by golang-migrate, with escaped credentials
func (d *DatabaseConfig) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     d.DBName,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

func quoteDSNValue(v string) string {
	if v == "" {
		return "''"
	}
	if !strings.ContainsAny(v, ` '\`) {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}
