package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregatesDeriveFromResults(t *testing.T) {
	rep := &RunReport{}
	rep.Append(NewResult("a", true, "ok", time.Now(), 0, nil))
	rep.Append(NewResult("b", false, "boom", time.Now(), 0, nil))
	rep.Append(NewResult("c", true, "ok", time.Now(), 0, nil))

	assert.Equal(t, 3, rep.Total())
	assert.Equal(t, 2, rep.Passed())
	assert.Equal(t, 1, rep.Failed())
	assert.Equal(t, rep.Total(), rep.Passed()+rep.Failed())

	rate, ok := rep.SuccessRate()
	require.True(t, ok)
	assert.InDelta(t, 66.666, rate, 0.01)
	assert.Equal(t, 1, rep.ExitCode())

	failed := rep.FailedResults()
	require.Len(t, failed, 1)
	assert.Equal(t, "b", failed[0].Name)
}

func TestSkippedResultsCountAsFailed(t *testing.T) {
	rep := &RunReport{}
	rep.Append(NewResult("signin", false, "Signin failed: 400", time.Now(), 0, nil))
	skipped := NewResult("profile", false, `Skipped: prerequisite "signin" failed`, time.Now(), 0, nil)
	skipped.Skipped = true
	rep.Append(skipped)

	assert.Equal(t, 2, rep.Failed())
	assert.Equal(t, 1, rep.Skipped())
	assert.Equal(t, "skipped", skipped.Status())
	assert.Equal(t, rep.Total(), rep.Passed()+rep.Failed())

	s := rep.Summarize()
	assert.Equal(t, 2, s.Failed)
	assert.Equal(t, 1, s.Skipped)
}

func TestSuccessRateEmptyReport(t *testing.T) {
	rep := &RunReport{}
	rate, ok := rep.SuccessRate()
	assert.False(t, ok)
	assert.Zero(t, rate)
	assert.Equal(t, 0, rep.ExitCode())

	s := rep.Summarize()
	assert.Nil(t, s.SuccessRate)
}

func TestNewResultCopiesDetails(t *testing.T) {
	details := map[string]any{"status": 500}
	res := NewResult("x", false, "bad", time.Now(), 1500*time.Millisecond, details)
	details["status"] = 200

	assert.Equal(t, 500, res.Details["status"])
	assert.Equal(t, int64(1500), res.DurationMS)
	assert.Equal(t, "failed", res.Status())
}

func TestSummarizeAllPassed(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rep := &RunReport{StartedAt: start, FinishedAt: start.Add(2 * time.Second)}
	rep.Append(NewResult("Health Check", true, "API is running correctly", start, 0, nil))

	s := rep.Summarize()
	require.NotNil(t, s.SuccessRate)
	assert.Equal(t, 100.0, *s.SuccessRate)
	assert.Equal(t, int64(2000), s.DurationMS)
	assert.Equal(t, 0, s.ExitCode)
}
