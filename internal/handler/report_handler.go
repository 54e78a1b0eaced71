package handler

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campus-tools/online-students-report/internal/dto"
	"github.com/campus-tools/online-students-report/internal/models"
	appErrors "github.com/campus-tools/online-students-report/pkg/errors"
	"github.com/campus-tools/online-students-report/pkg/jobs"
	"github.com/campus-tools/online-students-report/pkg/response"
)

const acceptedMessage = "Report is being generated and will be emailed to you once complete."

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

// ReportHandler accepts report requests and hands them to the queue. The
// reply is fire-and-forget: the requester gets the acceptance message
// regardless of the job's eventual outcome.
type ReportHandler struct {
	queue  jobDispatcher
	logger *zap.Logger
}

// NewReportHandler constructs the handler.
func NewReportHandler(queue jobDispatcher, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportHandler{queue: queue, logger: logger}
}

// Generate enqueues a report run for the posted request.
func (h *ReportHandler) Generate(c *gin.Context) {
	var req dto.GenerateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		msg := "invalid report request"
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			msg = fmt.Sprintf("invalid report request: %s failed %s validation", fieldErrs[0].Field(), fieldErrs[0].Tag())
		}
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, msg))
		return
	}

	job := jobs.Job{
		ID: uuid.NewString(),
		Payload: models.ReportRequest{
			EnrollmentTermID: req.EnrollmentTermID,
			CourseType:       models.ParseCourseType(req.CourseType),
			LoginFilter:      req.LoginFilter,
			RefreshData:      req.RefreshData,
			RequesterEmail:   req.RequesterEmail,
		},
	}
	if err := h.queue.Enqueue(job); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue report"))
		return
	}

	h.logger.Sugar().Infow("report queued",
		"job_id", job.ID,
		"term_id", req.EnrollmentTermID,
		"course_type", req.CourseType,
	)
	response.Accepted(c, dto.GenerateReportResponse{JobID: job.ID, Message: acceptedMessage})
}
