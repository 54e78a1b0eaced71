package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEmailKey(t *testing.T) {
	assert.Equal(t, "user:123:email", emailKey(123))
}

func TestJitterTTLStaysInWindow(t *testing.T) {
	repo := NewEmailCacheRepository(nil, 7, 21)

	for i := 0; i < 500; i++ {
		ttl := repo.jitterTTL()
		assert.GreaterOrEqual(t, ttl, 7*24*time.Hour)
		assert.LessOrEqual(t, ttl, 21*24*time.Hour)
		assert.Zero(t, ttl%(24*time.Hour), "ttl must be a whole number of days")
	}
}

func TestJitterTTLDefaultsOnBadBounds(t *testing.T) {
	repo := NewEmailCacheRepository(nil, 0, 0)

	for i := 0; i < 100; i++ {
		ttl := repo.jitterTTL()
		assert.GreaterOrEqual(t, ttl, 7*24*time.Hour)
		assert.LessOrEqual(t, ttl, 21*24*time.Hour)
	}
}
