package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/campus-tools/online-students-report/internal/canvas"
	"github.com/campus-tools/online-students-report/internal/models"
	appErrors "github.com/campus-tools/online-students-report/pkg/errors"
)

// EmailCache abstracts the per-user email memoization store.
type EmailCache interface {
	Get(ctx context.Context, canvasID int64) (string, error)
	Set(ctx context.Context, canvasID int64, value string) error
}

// ProfileClient abstracts the upstream profile lookup.
type ProfileClient interface {
	GetUserProfile(ctx context.Context, canvasID int64) (*canvas.Profile, error)
}

// ResolverService turns candidate identifiers into email values using a
// cache-aside strategy: cache first, profile API on a miss, and a cache
// write for every resolved candidate including the "n/a" sentinel, so
// users without a usable email never trigger repeated upstream calls.
type ResolverService struct {
	cache    EmailCache
	profiles ProfileClient
	metrics  *MetricsService
	logger   *zap.Logger
	workers  int
}

// NewResolverService constructs the resolver. workers <= 1 resolves
// candidates strictly sequentially in warehouse result order.
func NewResolverService(cache EmailCache, profiles ProfileClient, metrics *MetricsService, logger *zap.Logger, workers int) *ResolverService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if workers < 1 {
		workers = 1
	}
	return &ResolverService{
		cache:    cache,
		profiles: profiles,
		metrics:  metrics,
		logger:   logger,
		workers:  workers,
	}
}

// ResolveAll resolves every candidate, preserving candidate order in the
// returned slice via indexed slots. The first fatal error cancels
// outstanding work and aborts the run; sentinel-mapped profile errors
// (private or deleted users) do not. Counters cover all processed
// candidates, sentinels included.
func (s *ResolverService) ResolveAll(ctx context.Context, req models.ReportRequest, candidates []models.Candidate) ([]string, models.ResolutionSummary, error) {
	results := make([]string, len(candidates))
	if len(candidates) == 0 {
		return results, models.ResolutionSummary{}, nil
	}

	workers := s.workers
	if workers > len(candidates) {
		workers = len(candidates)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var hits, misses int64
	var mu sync.Mutex
	var firstErr error

	indexes := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range indexes {
				value, hit, err := s.resolve(ctx, req, candidates[idx].CanvasID)
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
						cancel()
					}
					mu.Unlock()
					return
				}
				if hit {
					atomic.AddInt64(&hits, 1)
				} else {
					atomic.AddInt64(&misses, 1)
				}
				s.metrics.RecordCacheLookup(hit)
				results[idx] = value
			}
		}()
	}

	go func() {
		defer close(indexes)
		for i := range candidates {
			select {
			case <-ctx.Done():
				return
			case indexes <- i:
			}
		}
	}()

	wg.Wait()

	if firstErr != nil {
		return nil, models.ResolutionSummary{}, firstErr
	}

	summary := models.ResolutionSummary{Hits: int(hits), Misses: int(misses)}
	s.logger.Sugar().Infow("resolution run finished",
		"total_records", summary.Total(),
		"cache_hits", summary.Hits,
		"cache_misses", summary.Misses,
		"hit_rate_pct", summary.HitRate(),
	)
	return results, summary, nil
}

// resolve runs the cache-aside state machine for one candidate. The
// returned value is always what the cache store reports: the Get result
// on a hit, and a fresh read-back after any write, so store-side
// normalization round-trips.
func (s *ResolverService) resolve(ctx context.Context, req models.ReportRequest, canvasID int64) (string, bool, error) {
	if !req.RefreshData {
		value, err := s.cache.Get(ctx, canvasID)
		if err == nil {
			return value, true, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			return "", false, err
		}
	}

	start := time.Now()
	profile, err := s.profiles.GetUserProfile(ctx, canvasID)
	s.metrics.ObserveProfileLookup(time.Since(start))

	var value string
	switch {
	case err == nil:
		value = profile.PrimaryEmail
		if value == "" {
			value = models.EmailSentinel
		}
		value = strings.ToLower(value)
	case errors.Is(err, canvas.ErrUnauthorized), errors.Is(err, canvas.ErrNotFound):
		value = models.EmailSentinel
	default:
		return "", false, err
	}

	if err := s.cache.Set(ctx, canvasID, value); err != nil {
		return "", false, err
	}

	stored, err := s.cache.Get(ctx, canvasID)
	if err != nil {
		return "", false, err
	}
	return stored, false, nil
}
