package models

import (
	"math"
	"strings"
)

// CourseType narrows the course-code filter applied to the warehouse query.
type CourseType string

const (
	CourseTypeOnline CourseType = "online"
	CourseTypeHybrid CourseType = "hybrid"
	CourseTypeBoth   CourseType = "both"
)

// ParseCourseType maps raw input onto the enum. Anything that is not
// "online" or "hybrid" selects both course families, matching the
// permissive handling of the legacy report form.
func ParseCourseType(raw string) CourseType {
	switch CourseType(strings.ToLower(strings.TrimSpace(raw))) {
	case CourseTypeOnline:
		return CourseTypeOnline
	case CourseTypeHybrid:
		return CourseTypeHybrid
	default:
		return CourseTypeBoth
	}
}

// Display renders the course type for the report body.
func (c CourseType) Display() string {
	s := string(c)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// ReportRequest is the immutable job payload accepted from the intake
// endpoint or the cron schedule. It is passed by value through the whole
// pipeline; nothing mutates it after acceptance.
type ReportRequest struct {
	EnrollmentTermID string     `json:"enrollment_term_id"`
	CourseType       CourseType `json:"course_type"`
	LoginFilter      bool       `json:"login_filter"`
	RefreshData      bool       `json:"refresh_data"`
	RequesterEmail   string     `json:"requester_email"`
}

// Candidate is a user identifier produced by the warehouse query,
// pending email resolution.
type Candidate struct {
	CanvasID int64 `db:"canvas_id"`
}

// EmailSentinel is cached for users whose profile has no usable email
// (unset, private, or deleted), so the upstream API is not asked again.
const EmailSentinel = "n/a"

// Term is a warehouse enrollment-term dimension row.
type Term struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

// Report is the composed deliverable: a plain-text body plus a CSV
// attachment with one email address per line.
type Report struct {
	Body       string
	Attachment []byte
	Filename   string
}

// ResolutionSummary aggregates cache behaviour over one resolution run.
type ResolutionSummary struct {
	Hits   int
	Misses int
}

// Total is the number of candidates processed, sentinels included.
func (s ResolutionSummary) Total() int {
	return s.Hits + s.Misses
}

// HitRate is the cache hit percentage rounded to two decimals.
func (s ResolutionSummary) HitRate() float64 {
	total := s.Total()
	if total == 0 {
		return 0
	}
	return math.Round(float64(s.Hits)/float64(total)*100*100) / 100
}
