package clickhouse

import (
	"fmt"
	"regexp"
	"time"
)

// Option configures Client.
type Option func(*Config)

// Config describes one ClickHouse connection pool.
type Config struct {
	Host            string
	Port            int
	Database        string
	User            string
	Password        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	DialTimeout     time.Duration
	ReadTimeout     time.Duration
	UseHTTP         bool
	MaxExecTime     time.Duration
}

// database names end up inside DDL and table references
var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func defaultConfig() Config {
	return Config{
		Port:            9000,
		Database:        "default",
		User:            "default",
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
		DialTimeout:     5 * time.Second,
		ReadTimeout:     10 * time.Second,
	}
}

func (c Config) validate() error {
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if !ValidIdentifier(c.Database) {
		return fmt.Errorf("invalid database name %q", c.Database)
	}
	return nil
}

// ValidIdentifier reports whether name can be used unquoted as a database or table name.
func ValidIdentifier(name string) bool { return identRe.MatchString(name) }

// WithAddr sets host and port.
func WithAddr(host string, port int) Option {
	return func(c *Config) {
		c.Host = host
		c.Port = port
	}
}

func WithDatabase(database string) Option {
	return func(c *Config) { c.Database = database }
}

func WithCredentials(user, password string) Option {
	return func(c *Config) {
		c.User = user
		c.Password = password
	}
}

// WithPool sizes the database/sql pool.
func WithPool(maxOpen, maxIdle int, lifetime time.Duration) Option {
	return func(c *Config) {
		c.MaxOpenConns = maxOpen
		c.MaxIdleConns = maxIdle
		if lifetime > 0 {
			c.ConnMaxLifetime = lifetime
		}
	}
}

// WithTimeouts sets dial and read timeouts; zero keeps the default.
func WithTimeouts(dial, read time.Duration) Option {
	return func(c *Config) {
		if dial > 0 {
			c.DialTimeout = dial
		}
		if read > 0 {
			c.ReadTimeout = read
		}
	}
}

// WithHTTP switches from the native protocol to HTTP.
func WithHTTP(useHTTP bool) Option {
	return func(c *Config) { c.UseHTTP = useHTTP }
}

// WithMaxExecutionTime sets max_execution_time per query.
func WithMaxExecutionTime(d time.Duration) Option {
	return func(c *Config) { c.MaxExecTime = d }
}
