package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-tools/online-students-report/internal/canvas"
	"github.com/campus-tools/online-students-report/internal/models"
	appErrors "github.com/campus-tools/online-students-report/pkg/errors"
)

type cacheStub struct {
	mu        sync.Mutex
	entries   map[int64]string
	sets      int
	normalize func(string) string
}

func newCacheStub() *cacheStub {
	return &cacheStub{entries: map[int64]string{}}
}

func (c *cacheStub) Get(ctx context.Context, canvasID int64) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.entries[canvasID]
	if !ok {
		return "", appErrors.ErrCacheMiss
	}
	return value, nil
}

func (c *cacheStub) Set(ctx context.Context, canvasID int64, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.normalize != nil {
		value = c.normalize(value)
	}
	c.entries[canvasID] = value
	c.sets++
	return nil
}

type profileStub struct {
	mu       sync.Mutex
	profiles map[int64]*canvas.Profile
	errs     map[int64]error
	calls    int
}

func newProfileStub() *profileStub {
	return &profileStub{profiles: map[int64]*canvas.Profile{}, errs: map[int64]error{}}
}

func (p *profileStub) GetUserProfile(ctx context.Context, canvasID int64) (*canvas.Profile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if err, ok := p.errs[canvasID]; ok {
		return nil, err
	}
	if profile, ok := p.profiles[canvasID]; ok {
		return profile, nil
	}
	return &canvas.Profile{}, nil
}

func candidateList(ids ...int64) []models.Candidate {
	candidates := make([]models.Candidate, len(ids))
	for i, id := range ids {
		candidates[i] = models.Candidate{CanvasID: id}
	}
	return candidates
}

func TestResolveMissLowercasesAndCaches(t *testing.T) {
	cache := newCacheStub()
	profiles := newProfileStub()
	profiles.profiles[123] = &canvas.Profile{PrimaryEmail: "A@B.com"}
	svc := NewResolverService(cache, profiles, nil, nil, 1)

	resolved, summary, err := svc.ResolveAll(context.Background(), models.ReportRequest{}, candidateList(123))
	require.NoError(t, err)
	assert.Equal(t, []string{"a@b.com"}, resolved)
	assert.Equal(t, "a@b.com", cache.entries[123])
	assert.Equal(t, 0, summary.Hits)
	assert.Equal(t, 1, summary.Misses)
}

func TestResolveHitSkipsUpstream(t *testing.T) {
	cache := newCacheStub()
	cache.entries[123] = "cached@example.com"
	profiles := newProfileStub()
	svc := NewResolverService(cache, profiles, nil, nil, 1)

	resolved, summary, err := svc.ResolveAll(context.Background(), models.ReportRequest{}, candidateList(123))
	require.NoError(t, err)
	assert.Equal(t, []string{"cached@example.com"}, resolved)
	assert.Equal(t, 0, profiles.calls)
	assert.Equal(t, 1, summary.Hits)
	assert.Equal(t, 0, summary.Misses)
}

func TestResolveUnauthorizedCachesSentinel(t *testing.T) {
	cache := newCacheStub()
	profiles := newProfileStub()
	profiles.errs[124] = fmt.Errorf("user 124: %w", canvas.ErrUnauthorized)
	svc := NewResolverService(cache, profiles, nil, nil, 1)

	resolved, summary, err := svc.ResolveAll(context.Background(), models.ReportRequest{}, candidateList(124))
	require.NoError(t, err)
	assert.Equal(t, []string{models.EmailSentinel}, resolved)
	assert.Equal(t, models.EmailSentinel, cache.entries[124])
	assert.Equal(t, 1, summary.Total(), "sentinel still counts as processed")
}

func TestResolveNotFoundCachesSentinel(t *testing.T) {
	cache := newCacheStub()
	profiles := newProfileStub()
	profiles.errs[125] = fmt.Errorf("user 125: %w", canvas.ErrNotFound)
	svc := NewResolverService(cache, profiles, nil, nil, 1)

	resolved, _, err := svc.ResolveAll(context.Background(), models.ReportRequest{}, candidateList(125))
	require.NoError(t, err)
	assert.Equal(t, []string{models.EmailSentinel}, resolved)
	assert.Equal(t, models.EmailSentinel, cache.entries[125])
}

func TestResolveMissingEmailCachesSentinel(t *testing.T) {
	cache := newCacheStub()
	profiles := newProfileStub()
	profiles.profiles[126] = &canvas.Profile{}
	svc := NewResolverService(cache, profiles, nil, nil, 1)

	resolved, _, err := svc.ResolveAll(context.Background(), models.ReportRequest{}, candidateList(126))
	require.NoError(t, err)
	assert.Equal(t, []string{models.EmailSentinel}, resolved)
	assert.Equal(t, models.EmailSentinel, cache.entries[126])
}

func TestResolveRefreshForcesUpstream(t *testing.T) {
	cache := newCacheStub()
	cache.entries[123] = "stale@example.com"
	profiles := newProfileStub()
	profiles.profiles[123] = &canvas.Profile{PrimaryEmail: "fresh@example.com"}
	svc := NewResolverService(cache, profiles, nil, nil, 1)

	resolved, summary, err := svc.ResolveAll(context.Background(), models.ReportRequest{RefreshData: true}, candidateList(123))
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh@example.com"}, resolved)
	assert.Equal(t, "fresh@example.com", cache.entries[123])
	assert.Equal(t, 1, profiles.calls)
	assert.Equal(t, 1, summary.Misses)
}

func TestResolveFatalErrorAborts(t *testing.T) {
	cache := newCacheStub()
	profiles := newProfileStub()
	profiles.errs[124] = fmt.Errorf("profile request for user 124: unexpected status 502")
	svc := NewResolverService(cache, profiles, nil, nil, 1)

	_, _, err := svc.ResolveAll(context.Background(), models.ReportRequest{}, candidateList(123, 124, 125))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 502")
}

func TestResolveReturnsWhatStoreReports(t *testing.T) {
	cache := newCacheStub()
	// Store rewrites values on write; the resolver must surface the
	// stored form, not the one it wrote.
	cache.normalize = func(v string) string { return "normalized:" + v }
	profiles := newProfileStub()
	profiles.profiles[123] = &canvas.Profile{PrimaryEmail: "a@b.com"}
	svc := NewResolverService(cache, profiles, nil, nil, 1)

	resolved, _, err := svc.ResolveAll(context.Background(), models.ReportRequest{}, candidateList(123))
	require.NoError(t, err)
	assert.Equal(t, []string{"normalized:a@b.com"}, resolved, "resolver must return the read-back value")
}

func TestResolveAllPreservesOrderAcrossWorkers(t *testing.T) {
	cache := newCacheStub()
	profiles := newProfileStub()
	ids := make([]int64, 50)
	for i := range ids {
		id := int64(1000 + i)
		ids[i] = id
		profiles.profiles[id] = &canvas.Profile{PrimaryEmail: fmt.Sprintf("user%d@example.com", id)}
	}
	svc := NewResolverService(cache, profiles, nil, nil, 8)

	resolved, summary, err := svc.ResolveAll(context.Background(), models.ReportRequest{}, candidateList(ids...))
	require.NoError(t, err)
	require.Len(t, resolved, 50)
	for i, id := range ids {
		assert.Equal(t, fmt.Sprintf("user%d@example.com", id), resolved[i])
	}
	assert.Equal(t, 50, summary.Misses)
}

func TestHitRateRounding(t *testing.T) {
	summary := models.ResolutionSummary{Hits: 1, Misses: 2}
	assert.InDelta(t, 33.33, summary.HitRate(), 0.001)
	assert.Equal(t, 3, summary.Total())

	empty := models.ResolutionSummary{}
	assert.Zero(t, empty.HitRate())
}
