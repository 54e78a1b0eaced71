package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/campus-tools/online-students-report/internal/models"
	"github.com/campus-tools/online-students-report/pkg/export"
)

// FilterEmails drops the "n/a" sentinel and empty values while
// preserving the relative order of the rest. No deduplication: two
// candidates sharing an address both appear in the attachment.
func FilterEmails(resolved []string) []string {
	filtered := make([]string, 0, len(resolved))
	for _, value := range resolved {
		if value == "" || value == models.EmailSentinel {
			continue
		}
		filtered = append(filtered, value)
	}
	return filtered
}

// Composer renders the filtered email list and request metadata into the
// report body and the emails.csv attachment.
type Composer struct {
	exporter *export.CSVExporter
	now      func() time.Time
}

// NewComposer constructs a composer. The clock is injectable for tests.
func NewComposer(exporter *export.CSVExporter, now func() time.Time) *Composer {
	if exporter == nil {
		exporter = export.NewCSVExporter()
	}
	if now == nil {
		now = time.Now
	}
	return &Composer{exporter: exporter, now: now}
}

// Compose builds the report. The total it states is the post-filter
// count, not the raw candidate count.
func (c *Composer) Compose(req models.ReportRequest, resolved []string, termNames map[string]string) (*models.Report, error) {
	emails := FilterEmails(resolved)

	var body strings.Builder
	body.WriteString("Online Student Report\n")
	body.WriteString("=====================\n")
	fmt.Fprintf(&body, "%s\n", c.now().Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&body, "Course type: %s\n", req.CourseType.Display())
	fmt.Fprintf(&body, "Term: %s\n", termNames[req.EnrollmentTermID])
	fmt.Fprintf(&body, "Login filter: %s\n", capitalizeBool(req.LoginFilter))
	fmt.Fprintf(&body, "Total Students %d\n", len(emails))

	attachment, err := c.exporter.Render(emails)
	if err != nil {
		return nil, fmt.Errorf("render emails.csv: %w", err)
	}

	return &models.Report{
		Body:       body.String(),
		Attachment: attachment,
		Filename:   "emails.csv",
	}, nil
}

func capitalizeBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
