package cache

import (
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestKeyPrefix(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer client.Close()

	c := NewRedisCacheFromClient(client, "stockseq")
	assert.Equal(t, "stockseq:quota:ledger", c.Key("quota:ledger"))

	bare := NewRedisCacheFromClient(client, "")
	assert.Equal(t, "quota:ledger", bare.Key("quota:ledger"))
}

func TestRedisOptions(t *testing.T) {
	cfg := defaultRedisConfig()
	for _, opt := range []RedisOption{
		WithRedisAddr("", 6380),
		WithRedisAuth("secret", 2),
		WithRedisPool(8, 2),
		WithRedisTimeouts(0, time.Second),
		WithRedisPrefix(""),
	} {
		opt(&cfg)
	}

	o := cfg.options()
	assert.Equal(t, "localhost:6380", o.Addr)
	assert.Equal(t, "secret", o.Password)
	assert.Equal(t, 2, o.DB)
	assert.Equal(t, 8, o.PoolSize)
	assert.Equal(t, 5*time.Second, o.DialTimeout)
	assert.Equal(t, time.Second, cfg.PingTimeout)
	assert.Empty(t, cfg.Prefix)
}
