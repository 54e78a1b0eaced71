package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/campus-tools/online-students-report/internal/models"
	appErrors "github.com/campus-tools/online-students-report/pkg/errors"
	"github.com/campus-tools/online-students-report/pkg/jobs"
	"github.com/campus-tools/online-students-report/pkg/mailer"
)

type candidateSource interface {
	List(ctx context.Context, courseType models.CourseType, loginFilter bool, termID int64) ([]models.Candidate, error)
}

type termSource interface {
	ListNames(ctx context.Context) (map[string]string, error)
}

type emailResolver interface {
	ResolveAll(ctx context.Context, req models.ReportRequest, candidates []models.Candidate) ([]string, models.ResolutionSummary, error)
}

type reportMailer interface {
	Deliver(ctx context.Context, msg mailer.Message) error
}

type shardMapper interface {
	ShardID(id int64) int64
}

// ReportService orchestrates one report run: candidates from the
// warehouse, cache-aside email resolution, composition, delivery. Any
// fatal error aborts the run before mail goes out; cache writes already
// committed for earlier candidates persist, so a retried run resumes
// mostly warm.
type ReportService struct {
	candidates candidateSource
	terms      termSource
	resolver   emailResolver
	composer   *Composer
	mailer     reportMailer
	shards     shardMapper
	metrics    *MetricsService
	logger     *zap.Logger
	cfg        ReportServiceConfig
}

// ReportServiceConfig carries delivery metadata and the run deadline.
type ReportServiceConfig struct {
	FromEmail  string
	Subject    string
	JobTimeout time.Duration
}

// NewReportService constructs the report service.
func NewReportService(
	candidates candidateSource,
	terms termSource,
	resolver emailResolver,
	composer *Composer,
	reportMail reportMailer,
	shards shardMapper,
	metrics *MetricsService,
	logger *zap.Logger,
	cfg ReportServiceConfig,
) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 30 * time.Minute
	}
	return &ReportService{
		candidates: candidates,
		terms:      terms,
		resolver:   resolver,
		composer:   composer,
		mailer:     reportMail,
		shards:     shards,
		metrics:    metrics,
		logger:     logger,
		cfg:        cfg,
	}
}

// Run executes a full report job for the request.
func (s *ReportService) Run(ctx context.Context, req models.ReportRequest) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.JobTimeout)
	defer cancel()

	start := time.Now()
	err := s.run(ctx, req)
	if err != nil {
		s.metrics.RecordJob("failure", time.Since(start))
		return err
	}
	s.metrics.RecordJob("success", time.Since(start))
	return nil
}

func (s *ReportService) run(ctx context.Context, req models.ReportRequest) error {
	termID, err := strconv.ParseInt(req.EnrollmentTermID, 10, 64)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment term id")
	}

	termNames, err := s.terms.ListNames(ctx)
	if err != nil {
		return fmt.Errorf("load term names: %w", err)
	}

	candidates, err := s.candidates.List(ctx, req.CourseType, req.LoginFilter, s.shards.ShardID(termID))
	if err != nil {
		return fmt.Errorf("query candidates: %w", err)
	}

	s.logger.Sugar().Infow("report run started",
		"term_id", req.EnrollmentTermID,
		"course_type", req.CourseType,
		"login_filter", req.LoginFilter,
		"refresh_data", req.RefreshData,
		"candidates", len(candidates),
	)

	resolved, summary, err := s.resolver.ResolveAll(ctx, req, candidates)
	if err != nil {
		return fmt.Errorf("resolve emails: %w", err)
	}

	report, err := s.composer.Compose(req, resolved, termNames)
	if err != nil {
		return fmt.Errorf("compose report: %w", err)
	}

	msg := mailer.Message{
		From:    s.cfg.FromEmail,
		To:      req.RequesterEmail,
		Subject: s.cfg.Subject,
		Body:    report.Body,
		Attachment: &mailer.Attachment{
			Filename: report.Filename,
			Content:  report.Attachment,
		},
	}
	if err := s.mailer.Deliver(ctx, msg); err != nil {
		return fmt.Errorf("deliver report: %w", err)
	}

	s.logger.Sugar().Infow("report run finished",
		"term_id", req.EnrollmentTermID,
		"requester", req.RequesterEmail,
		"total_records", summary.Total(),
		"hit_rate_pct", summary.HitRate(),
	)
	return nil
}

// HandleJob adapts Run to the queue handler contract.
func (s *ReportService) HandleJob(ctx context.Context, job jobs.Job) error {
	req, ok := job.Payload.(models.ReportRequest)
	if !ok {
		s.logger.Sugar().Errorw("discarding job with unexpected payload", "job_id", job.ID)
		return nil
	}
	if err := s.Run(ctx, req); err != nil {
		s.logger.Sugar().Errorw("report job failed",
			"job_id", job.ID,
			"term_id", req.EnrollmentTermID,
			"error", err,
		)
		return err
	}
	return nil
}
