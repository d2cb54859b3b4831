package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, cfg.Database.WriterDSN, cfg.Database.ReaderDSN)
	assert.Equal(t, []string{"orders.events", "payments.events"}, cfg.Messaging.Kafka.Topics())
	assert.Equal(t, 5*time.Minute, cfg.Auth.OTPTTL)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, 10*time.Second, cfg.Stripe.CallTimeout)
}

func TestNewRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := New()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestNewRejectsUnknownCacheDriver(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("CACHE_DRIVER", "memcached")

	_, err := New()
	require.Error(t, err)
}

func TestNewRejectsNonPostgresDatabaseDriver(t *testing.T) {
	for _, driver := range []string{"mysql", "sqlite", "oracle"} {
		t.Setenv("JWT_SECRET", "test-secret")
		t.Setenv("DB_DRIVER", driver)

		_, err := New()
		require.Error(t, err, "driver %s", driver)
		assert.Contains(t, err.Error(), "postgres")
	}
}

func TestDisabledMessagingFallsBackToNoop(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("MESSAGING_ENABLED", "false")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "noop", cfg.Messaging.Driver)
}
