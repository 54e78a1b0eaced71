package scheduler

import (
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/campus-tools/online-students-report/internal/models"
	"github.com/campus-tools/online-students-report/pkg/config"
	"github.com/campus-tools/online-students-report/pkg/jobs"
)

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

// Scheduler submits configured report requests on cron schedules, for
// standing reports that nobody should have to remember to request.
type Scheduler struct {
	engine *cron.Cron
	queue  jobDispatcher
	logger *zap.Logger
}

// New constructs a scheduler with the configured entries registered.
func New(schedules []config.ScheduleConfig, queue jobDispatcher, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Scheduler{
		engine: cron.New(),
		queue:  queue,
		logger: logger,
	}

	for _, entry := range schedules {
		req := models.ReportRequest{
			EnrollmentTermID: entry.TermID,
			CourseType:       models.ParseCourseType(entry.CourseType),
			LoginFilter:      entry.LoginFilter,
			RefreshData:      entry.RefreshData,
			RequesterEmail:   entry.RequesterEmail,
		}
		if _, err := s.engine.AddFunc(entry.CronSpec, s.submit(req)); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func (s *Scheduler) submit(req models.ReportRequest) func() {
	return func() {
		job := jobs.Job{ID: uuid.NewString(), Payload: req}
		if err := s.queue.Enqueue(job); err != nil {
			s.logger.Sugar().Errorw("failed to enqueue scheduled report",
				"term_id", req.EnrollmentTermID,
				"error", err,
			)
			return
		}
		s.logger.Sugar().Infow("scheduled report queued",
			"job_id", job.ID,
			"term_id", req.EnrollmentTermID,
			"course_type", req.CourseType,
		)
	}
}

// Start begins firing schedule entries.
func (s *Scheduler) Start() {
	s.engine.Start()
}

// Stop halts the schedule and waits for running submissions.
func (s *Scheduler) Stop() {
	<-s.engine.Stop().Done()
}
