package report

import (
	"time"
)

// TestResult captures the outcome of a single test case.
type TestResult struct {
	Name       string         `json:"name"`
	Passed     bool           `json:"passed"`
	Message    string         `json:"message"`
	Timestamp  time.Time      `json:"timestamp"`
	Duration   time.Duration  `json:"-"`
	DurationMS int64          `json:"duration_ms"`
	Details    map[string]any `json:"details,omitempty"`

	// Skipped marks a case whose prerequisite did not pass. It counts as a
	// failure but never triggers a critical issue.
	Skipped bool `json:"skipped,omitempty"`
}

// NewResult builds a TestResult. Details are copied so later mutation of the
// caller's map cannot change a recorded result.
func NewResult(name string, passed bool, message string, at time.Time, d time.Duration, details map[string]any) TestResult {
	return TestResult{
		Name:       name,
		Passed:     passed,
		Message:    message,
		Timestamp:  at,
		Duration:   d,
		DurationMS: d.Milliseconds(),
		Details:    copyDetails(details),
	}
}

// Status returns "passed", "failed" or "skipped".
func (r TestResult) Status() string {
	switch {
	case r.Passed:
		return "passed"
	case r.Skipped:
		return "skipped"
	default:
		return "failed"
	}
}

// RunReport is the ordered record of one harness run. Aggregates are derived
// from Results on every call.
type RunReport struct {
	RunID      string       `json:"run_id"`
	Suite      string       `json:"suite"`
	Target     string       `json:"target"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Results    []TestResult `json:"results"`
}

// Append records a finished result.
func (r *RunReport) Append(res TestResult) {
	r.Results = append(r.Results, res)
}

// Total is the number of recorded results.
func (r *RunReport) Total() int {
	return len(r.Results)
}

// Passed counts successful results.
func (r *RunReport) Passed() int {
	n := 0
	for _, res := range r.Results {
		if res.Passed {
			n++
		}
	}
	return n
}

// Failed counts unsuccessful results.
func (r *RunReport) Failed() int {
	return r.Total() - r.Passed()
}

// Skipped counts results whose case never ran its checks. They are included
// in Failed.
func (r *RunReport) Skipped() int {
	n := 0
	for _, res := range r.Results {
		if res.Skipped && !res.Passed {
			n++
		}
	}
	return n
}

// SuccessRate returns passed/total*100. ok is false for an empty report.
func (r *RunReport) SuccessRate() (rate float64, ok bool) {
	total := r.Total()
	if total == 0 {
		return 0, false
	}
	return float64(r.Passed()) / float64(total) * 100, true
}

// FailedResults returns the failed results in run order.
func (r *RunReport) FailedResults() []TestResult {
	var out []TestResult
	for _, res := range r.Results {
		if !res.Passed {
			out = append(out, res)
		}
	}
	return out
}

// Duration is the wall time between start and finish.
func (r *RunReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// ExitCode is 0 when nothing failed, 1 otherwise.
func (r *RunReport) ExitCode() int {
	if r.Failed() > 0 {
		return 1
	}
	return 0
}

// Summary aggregates a run for machine-readable output.
type Summary struct {
	Total       int      `json:"total"`
	Passed      int      `json:"passed"`
	Failed      int      `json:"failed"`
	Skipped     int      `json:"skipped"`
	SuccessRate *float64 `json:"success_rate"`
	DurationMS  int64    `json:"duration_ms"`
	ExitCode    int      `json:"exit_code"`
}

// Summarize computes the Summary of r.
func (r *RunReport) Summarize() Summary {
	s := Summary{
		Total:      r.Total(),
		Passed:     r.Passed(),
		Failed:     r.Failed(),
		Skipped:    r.Skipped(),
		DurationMS: r.Duration().Milliseconds(),
		ExitCode:   r.ExitCode(),
	}
	if rate, ok := r.SuccessRate(); ok {
		s.SuccessRate = &rate
	}
	return s
}

func copyDetails(in map[string]any) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
