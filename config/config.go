package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Password PasswordConfig `mapstructure:"password"`
	Cookie   CookieConfig   `mapstructure:"cookie"`
	Account  AccountConfig  `mapstructure:"account"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

// DatabaseConfig selects and configures the user store. Driver "memory"
// keeps users in process and ignores the connection settings.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // postgres, memory
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// JWTConfig carries one secret and lifetime per token class. The two secrets
// must differ so a leaked access token can never pass refresh verification.
type JWTConfig struct {
	AccessSecret  string        `mapstructure:"access_secret"`
	AccessExpiry  time.Duration `mapstructure:"access_expiry"`
	RefreshSecret string        `mapstructure:"refresh_secret"`
	RefreshExpiry time.Duration `mapstructure:"refresh_expiry"`
	Issuer        string        `mapstructure:"issuer"`
}

// PasswordConfig tunes the PBKDF2 derivation.
type PasswordConfig struct {
	Iterations int `mapstructure:"iterations"`
	KeyLength  int `mapstructure:"key_length"`
	SaltLength int `mapstructure:"salt_length"`
}

// CookieConfig describes the cookie carrying the refresh token.
type CookieConfig struct {
	Name   string `mapstructure:"name"`
	Path   string `mapstructure:"path"`
	Domain string `mapstructure:"domain"`
	Secure bool   `mapstructure:"secure"`
}

type AccountConfig struct {
	InitialBalance int64 `mapstructure:"initial_balance"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // trace, debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// User store drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

const (
	minIterations = 10000
	minKeyLength  = 32
	minSaltLength = 16
)

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: BTA_ (Balance Transfer API).
// Nested keys use underscore: BTA_DATABASE_HOST, BTA_JWT_ACCESS_SECRET, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "balance_api")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("jwt.access_secret", "")
	v.SetDefault("jwt.access_expiry", "2m")
	v.SetDefault("jwt.refresh_secret", "")
	v.SetDefault("jwt.refresh_expiry", "24h")
	v.SetDefault("jwt.issuer", "balance-transfer-api")
	v.SetDefault("password.iterations", minIterations)
	v.SetDefault("password.key_length", 64)
	v.SetDefault("password.salt_length", minSaltLength)
	v.SetDefault("cookie.name", "jwt")
	v.SetDefault("cookie.path", "/api/users")
	v.SetDefault("cookie.domain", "")
	v.SetDefault("cookie.secure", true)
	v.SetDefault("account.initial_balance", 100)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: BTA_DATABASE_HOST -> database.host
	v.SetEnvPrefix("BTA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required, env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Validate rejects configurations the services cannot run safely with.
// Signing secrets have no defaults and must be supplied by the operator.
func (c *Config) Validate() error {
	var errs []error

	if c.JWT.AccessSecret == "" {
		errs = append(errs, errors.New("jwt.access_secret is required"))
	}
	if c.JWT.RefreshSecret == "" {
		errs = append(errs, errors.New("jwt.refresh_secret is required"))
	}
	if c.JWT.AccessSecret != "" && c.JWT.AccessSecret == c.JWT.RefreshSecret {
		errs = append(errs, errors.New("jwt.access_secret and jwt.refresh_secret must differ"))
	}
	if c.JWT.AccessExpiry <= 0 {
		errs = append(errs, errors.New("jwt.access_expiry must be positive"))
	}
	if c.JWT.RefreshExpiry <= 0 {
		errs = append(errs, errors.New("jwt.refresh_expiry must be positive"))
	}
	if c.Password.Iterations < minIterations {
		errs = append(errs, fmt.Errorf("password.iterations must be at least %d", minIterations))
	}
	if c.Password.KeyLength < minKeyLength {
		errs = append(errs, fmt.Errorf("password.key_length must be at least %d", minKeyLength))
	}
	if c.Password.SaltLength < minSaltLength {
		errs = append(errs, fmt.Errorf("password.salt_length must be at least %d", minSaltLength))
	}
	if c.Database.Driver != DriverPostgres && c.Database.Driver != DriverMemory {
		errs = append(errs, fmt.Errorf("database.driver must be %q or %q", DriverPostgres, DriverMemory))
	}
	if c.Account.InitialBalance < 0 {
		errs = append(errs, errors.New("account.initial_balance must not be negative"))
	}

	return errors.Join(errs...)
}
