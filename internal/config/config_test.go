package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaultsWithMemoryStore(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("NOTIFY_DRIVER", "")
	t.Setenv("ROOMS", "")
	t.Setenv("WORK_START", "")
	t.Setenv("EFFECTS_MODE", "")

	c := Load()
	assert.Equal(t, "memory", c.StoreDriver)
	assert.Equal(t, "07:30", c.WorkStart)
	assert.Equal(t, "17:00", c.WorkEnd)
	assert.Equal(t, DefaultRooms, c.Rooms)
	assert.Equal(t, "inline", c.EffectsMode)
	assert.Equal(t, 3, c.EffectsMaxAttempts)
	assert.Empty(t, c.DBHost, "db settings ignored for the memory store")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE_DRIVER", "MEMORY")
	t.Setenv("NOTIFY_DRIVER", "")
	t.Setenv("ROOMS", " Aula , ,Lab ")
	t.Setenv("WORK_START", "08:00")
	t.Setenv("EFFECTS_MODE", "Queue")
	t.Setenv("RABBITMQ_URL", "")
	t.Setenv("AMQP_URL", "amqp://mq:5672/")
	t.Setenv("APP_ENV", "prod")

	c := Load()
	assert.Equal(t, []string{"Aula", "Lab"}, c.Rooms)
	assert.Equal(t, "08:00", c.WorkStart)
	assert.Equal(t, "queue", c.EffectsMode)
	assert.Equal(t, "amqp://mq:5672/", c.RabbitMQURL)
	assert.True(t, c.IsProd())
}

func TestRateLimitClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	t.Setenv("RATE_LIMIT_BURST", "")
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "")

	c := LoadRateLimitConfig()
	assert.Equal(t, 1, c.Capacity)
	assert.Equal(t, 2*time.Second, c.RefillInterval)
	assert.Equal(t, 10*time.Second, c.TTL)
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_BOOL", "off")
	t.Setenv("X_INT", "nope")
	t.Setenv("X_DUR", "250ms")
	assert.False(t, envBool("X_BOOL", true))
	assert.True(t, envBool("X_MISSING", true))
	assert.Equal(t, 7, envInt("X_INT", 7))
	assert.Equal(t, 250*time.Millisecond, envDur("X_DUR", time.Second))
}

func TestCacheMethods(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head,")
	c := LoadCacheConfig()
	assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, c.Methods)
}
