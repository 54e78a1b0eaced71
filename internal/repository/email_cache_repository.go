package repository

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	appErrors "github.com/campus-tools/online-students-report/pkg/errors"
)

const (
	defaultTTLMinDays = 7
	defaultTTLMaxDays = 21
)

// EmailCacheRepository memoizes resolved email addresses per Canvas user.
// Values are raw strings: a lowercase address or the "n/a" sentinel.
// Entries outlive report runs and are shared by concurrent runs;
// last-write-wins is fine because a key always maps to the same user.
type EmailCacheRepository struct {
	client     *redis.Client
	ttlMinDays int
	ttlMaxDays int
}

// NewEmailCacheRepository constructs the cache repository. Out-of-range
// TTL bounds fall back to the 7..21 day window.
func NewEmailCacheRepository(client *redis.Client, ttlMinDays, ttlMaxDays int) *EmailCacheRepository {
	if ttlMinDays <= 0 {
		ttlMinDays = defaultTTLMinDays
	}
	if ttlMaxDays < ttlMinDays {
		ttlMaxDays = defaultTTLMaxDays
	}
	return &EmailCacheRepository{client: client, ttlMinDays: ttlMinDays, ttlMaxDays: ttlMaxDays}
}

func emailKey(canvasID int64) string {
	return fmt.Sprintf("user:%d:email", canvasID)
}

// Get returns the cached email value for a user, or ErrCacheMiss.
func (r *EmailCacheRepository) Get(ctx context.Context, canvasID int64) (string, error) {
	value, err := r.client.Get(ctx, emailKey(canvasID)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", appErrors.ErrCacheMiss
		}
		return "", fmt.Errorf("redis get %s: %w", emailKey(canvasID), err)
	}
	return value, nil
}

// Set stores the resolved value with a jittered TTL. Spreading expiry
// over the window keeps a whole term's worth of entries from expiring at
// once and stampeding the profile API on the next run.
func (r *EmailCacheRepository) Set(ctx context.Context, canvasID int64, value string) error {
	if err := r.client.Set(ctx, emailKey(canvasID), value, r.jitterTTL()).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", emailKey(canvasID), err)
	}
	return nil
}

// jitterTTL picks a whole number of days uniformly from the configured
// inclusive window, expressed in seconds.
func (r *EmailCacheRepository) jitterTTL() time.Duration {
	days := r.ttlMinDays + rand.Intn(r.ttlMaxDays-r.ttlMinDays+1)
	return time.Duration(days) * 24 * time.Hour
}
