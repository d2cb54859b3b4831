package otp

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesahq/mesa/internal/cache"
	"github.com/mesahq/mesa/internal/config"
)

type memoryCache struct {
	data map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}}
}

func (m *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.data[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return v, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.data[key] = value
	return nil
}

func (m *memoryCache) Delete(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

type captureSender struct {
	lastCode string
}

func (c *captureSender) Send(_ context.Context, _ string, code string) error {
	c.lastCode = code
	return nil
}

func newTestStore() (*Store, *captureSender) {
	sender := &captureSender{}
	return &Store{cache: newMemoryCache(), ttl: 5 * time.Minute, sender: sender}, sender
}

func TestNewStoreRejectsNoopCache(t *testing.T) {
	var cfg config.Config
	cfg.Cache.Driver = "noop"
	cfg.Auth.OTPTTL = 5 * time.Minute

	_, err := NewStore(newMemoryCache(), cfg, &captureSender{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "noop")
}

func TestNewStoreAcceptsRedisDriver(t *testing.T) {
	var cfg config.Config
	cfg.Cache.Driver = "redis"
	cfg.Auth.OTPTTL = 5 * time.Minute

	store, err := NewStore(newMemoryCache(), cfg, &captureSender{})
	require.NoError(t, err)
	assert.NotNil(t, store)
}

func TestIssueGeneratesSixDigitCode(t *testing.T) {
	store, sender := newTestStore()

	require.NoError(t, store.Issue(context.Background(), "15550001111", nil))
	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), sender.lastCode)
}

func TestVerifyConsumesRecord(t *testing.T) {
	store, sender := newTestStore()
	ctx := context.Background()

	pending := &PendingUser{Name: "Ada", PhoneNumber: "15550001111"}
	require.NoError(t, store.Issue(ctx, "15550001111", pending))

	record, err := store.Verify(ctx, "15550001111", sender.lastCode)
	require.NoError(t, err)
	require.NotNil(t, record.PendingUser)
	assert.Equal(t, "Ada", record.PendingUser.Name)

	// Codes are single use.
	_, err = store.Verify(ctx, "15550001111", sender.lastCode)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVerifyRejectsWrongCode(t *testing.T) {
	store, sender := newTestStore()
	ctx := context.Background()

	require.NoError(t, store.Issue(ctx, "15550001111", nil))

	_, err := store.Verify(ctx, "15550001111", "000000")
	assert.ErrorIs(t, err, ErrNotFound)

	// A wrong guess must not burn the real code.
	_, err = store.Verify(ctx, "15550001111", sender.lastCode)
	assert.NoError(t, err)
}

func TestVerifyUnknownIdentifier(t *testing.T) {
	store, _ := newTestStore()

	_, err := store.Verify(context.Background(), "19990000000", "123456")
	assert.ErrorIs(t, err, ErrNotFound)
}
