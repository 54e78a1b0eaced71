package dto

// GenerateReportRequest is the intake payload for a report run. The
// requester email arrives in the payload; authentication happens at the
// campus gateway in front of this service.
type GenerateReportRequest struct {
	EnrollmentTermID string `json:"enrollment_term_id" binding:"required"`
	CourseType       string `json:"course_type" binding:"omitempty,oneof=online hybrid both"`
	LoginFilter      bool   `json:"login_filter"`
	RefreshData      bool   `json:"refresh_data"`
	RequesterEmail   string `json:"requester_email" binding:"required,email"`
}

// GenerateReportResponse acknowledges a queued report run.
type GenerateReportResponse struct {
	JobID   string `json:"job_id"`
	Message string `json:"message"`
}
