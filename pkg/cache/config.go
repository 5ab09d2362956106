package cache

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOption configures Redis cache.
type RedisOption func(*RedisConfig)

// RedisConfig holds the connection and namespace settings.
type RedisConfig struct {
	Host         string
	Port         int
	Password     string
	DB           int
	Prefix       string
	PoolSize     int
	MinIdleConns int
	PoolTimeout  time.Duration
	DialTimeout  time.Duration
	PingTimeout  time.Duration
}

func defaultRedisConfig() RedisConfig {
	return RedisConfig{
		Host:         "localhost",
		Port:         6379,
		Prefix:       "stockseq",
		PoolSize:     4,
		MinIdleConns: 1,
		PoolTimeout:  30 * time.Second,
		DialTimeout:  5 * time.Second,
		PingTimeout:  5 * time.Second,
	}
}

// Addr is host:port.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c RedisConfig) options() *redis.Options {
	return &redis.Options{
		Addr:         c.Addr(),
		Password:     c.Password,
		DB:           c.DB,
		PoolSize:     c.PoolSize,
		MinIdleConns: c.MinIdleConns,
		PoolTimeout:  c.PoolTimeout,
		DialTimeout:  c.DialTimeout,
	}
}

// WithRedisAddr sets host and port; empty host or zero port keep the default.
func WithRedisAddr(host string, port int) RedisOption {
	return func(c *RedisConfig) {
		if host != "" {
			c.Host = host
		}
		if port > 0 {
			c.Port = port
		}
	}
}

// WithRedisAuth selects the password and logical database.
func WithRedisAuth(password string, db int) RedisOption {
	return func(c *RedisConfig) {
		c.Password = password
		c.DB = db
	}
}

// WithRedisPrefix sets the key namespace. An empty prefix disables namespacing.
func WithRedisPrefix(prefix string) RedisOption {
	return func(c *RedisConfig) {
		c.Prefix = prefix
	}
}

func WithRedisPool(size, minIdle int) RedisOption {
	return func(c *RedisConfig) {
		c.PoolSize = size
		c.MinIdleConns = minIdle
	}
}

func WithRedisTimeouts(dial, ping time.Duration) RedisOption {
	return func(c *RedisConfig) {
		if dial > 0 {
			c.DialTimeout = dial
		}
		if ping > 0 {
			c.PingTimeout = ping
		}
	}
}
