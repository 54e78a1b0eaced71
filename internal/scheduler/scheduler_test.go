package scheduler

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-tools/online-students-report/internal/models"
	"github.com/campus-tools/online-students-report/pkg/config"
	"github.com/campus-tools/online-students-report/pkg/jobs"
)

type queueStub struct {
	mu       sync.Mutex
	enqueued []jobs.Job
}

func (q *queueStub) Enqueue(job jobs.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.enqueued = append(q.enqueued, job)
	return nil
}

func TestNewRejectsBadCronSpec(t *testing.T) {
	_, err := New([]config.ScheduleConfig{{CronSpec: "not a cron spec"}}, &queueStub{}, nil)
	require.Error(t, err)
}

func TestSubmitEnqueuesRequest(t *testing.T) {
	queue := &queueStub{}
	s, err := New(nil, queue, nil)
	require.NoError(t, err)

	req := models.ReportRequest{
		EnrollmentTermID: "75",
		CourseType:       models.CourseTypeOnline,
		RequesterEmail:   "registrar@example.edu",
	}
	s.submit(req)()

	require.Len(t, queue.enqueued, 1)
	assert.NotEmpty(t, queue.enqueued[0].ID)
	payload, ok := queue.enqueued[0].Payload.(models.ReportRequest)
	require.True(t, ok)
	assert.Equal(t, req, payload)
}

func TestNewRegistersScheduleEntries(t *testing.T) {
	schedules := []config.ScheduleConfig{
		{CronSpec: "0 6 * * 1", TermID: "75", CourseType: "online", RequesterEmail: "registrar@example.edu"},
		{CronSpec: "@daily", TermID: "76", CourseType: "hybrid", RequesterEmail: "dean@example.edu"},
	}

	s, err := New(schedules, &queueStub{}, nil)
	require.NoError(t, err)
	assert.Len(t, s.engine.Entries(), 2)
}
