package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSchedules(t *testing.T) {
	raw := "0 6 * * 1|75|online|true|false|registrar@example.edu;" +
		"0 7 1 * *|76|both|false|true|dean@example.edu"

	schedules := parseSchedules(raw)
	require.Len(t, schedules, 2)

	assert.Equal(t, "0 6 * * 1", schedules[0].CronSpec)
	assert.Equal(t, "75", schedules[0].TermID)
	assert.Equal(t, "online", schedules[0].CourseType)
	assert.True(t, schedules[0].LoginFilter)
	assert.False(t, schedules[0].RefreshData)
	assert.Equal(t, "registrar@example.edu", schedules[0].RequesterEmail)

	assert.Equal(t, "76", schedules[1].TermID)
	assert.True(t, schedules[1].RefreshData)
}

func TestParseSchedulesSkipsMalformedEntries(t *testing.T) {
	raw := "0 6 * * 1|75|online|true|false|registrar@example.edu;not-a-schedule; ;"

	schedules := parseSchedules(raw)
	require.Len(t, schedules, 1)
	assert.Equal(t, "75", schedules[0].TermID)
}

func TestParseSchedulesEmpty(t *testing.T) {
	assert.Nil(t, parseSchedules(""))
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 5*time.Minute, parseDuration("5m", time.Second))
	assert.Equal(t, time.Second, parseDuration("", time.Second))
	assert.Equal(t, time.Second, parseDuration("garbage", time.Second))
}

func TestSplitAndTrim(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitAndTrim(" a , b ,"))
	assert.Nil(t, splitAndTrim(""))
}
