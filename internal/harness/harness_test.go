package harness

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bgricker/apiconform/internal/apiclient"
	"github.com/bgricker/apiconform/internal/report"
)

type recordingPrinter struct {
	names []string
}

func (p *recordingPrinter) PrintResult(res report.TestResult) error {
	p.names = append(p.names, res.Name)
	return nil
}

func quietOptions() Options {
	return Options{
		Delay: -1,
		RunID: func() string { return "run-1" },
	}
}

func passing(name string) TestCase {
	return TestCase{Name: name, Action: func(context.Context) (Outcome, error) {
		return Pass("ok", nil), nil
	}}
}

func TestRunProducesOneResultPerCaseInOrder(t *testing.T) {
	printer := &recordingPrinter{}
	opts := quietOptions()
	opts.Printer = printer
	h := New(opts)

	names := []string{"first", "second", "third", "fourth"}
	for _, n := range names {
		require.NoError(t, h.Register(passing(n)))
	}

	rep := h.Run(context.Background())
	require.Len(t, rep.Results, len(names))
	for i, n := range names {
		assert.Equal(t, n, rep.Results[i].Name)
	}
	assert.Equal(t, names, printer.names)
	assert.Equal(t, "run-1", rep.RunID)
	assert.False(t, rep.FinishedAt.Before(rep.StartedAt))
}

func TestRunToleratesFaults(t *testing.T) {
	h := New(quietOptions())
	require.NoError(t, h.RegisterAll([]TestCase{
		{Name: "errors", Action: func(context.Context) (Outcome, error) {
			return Outcome{}, errors.New("decode error")
		}},
		{Name: "panics", Action: func(context.Context) (Outcome, error) {
			var m map[string]int
			m["x"] = 1
			return Pass("unreachable", nil), nil
		}},
		{Name: "protocol", Action: func(context.Context) (Outcome, error) {
			return Outcome{}, &apiclient.ProtocolError{Reason: "HTTP 500 (expected 200)", Status: 500, Body: "oops"}
		}},
		passing("after"),
	}))

	rep := h.Run(context.Background())
	require.Len(t, rep.Results, 4)

	for _, res := range rep.Results[:3] {
		assert.False(t, res.Passed, res.Name)
		assert.NotEmpty(t, res.Message, res.Name)
	}
	assert.Contains(t, rep.Results[0].Message, "decode error")
	assert.Contains(t, rep.Results[1].Message, "Test execution failed")
	assert.Equal(t, 500, rep.Results[2].Details["status_code"])
	assert.Equal(t, "oops", rep.Results[2].Details["response"])
	assert.True(t, rep.Results[3].Passed)
	assert.Equal(t, 1, rep.ExitCode())
}

func failing(name string) TestCase {
	return TestCase{Name: name, Action: func(context.Context) (Outcome, error) {
		return Fail("boom", nil), nil
	}}
}

func TestRunSkipsCasesWithUnmetPrerequisites(t *testing.T) {
	calls := 0
	dependent := TestCase{Name: "profile", Requires: []string{"signin"}, Action: func(context.Context) (Outcome, error) {
		calls++
		return Pass("ran", nil), nil
	}}
	orphan := passing("orphan")
	orphan.Requires = []string{"filtered out"}
	chained := passing("chained")
	chained.Requires = []string{"signup", "profile"}

	h := New(quietOptions())
	require.NoError(t, h.RegisterAll([]TestCase{passing("signup"), failing("signin"), dependent, orphan, chained}))

	rep := h.Run(context.Background())
	require.Len(t, rep.Results, 5)
	assert.Zero(t, calls)

	profile := rep.Results[2]
	assert.False(t, profile.Passed)
	assert.True(t, profile.Skipped)
	assert.Equal(t, "skipped", profile.Status())
	assert.Equal(t, `Skipped: prerequisite "signin" failed`, profile.Message)
	assert.Equal(t, "signin", profile.Details["prerequisite"])

	assert.Equal(t, `Skipped: prerequisite "filtered out" did not run`, rep.Results[3].Message)
	assert.Equal(t, `Skipped: prerequisite "profile" failed`, rep.Results[4].Message)
	assert.False(t, rep.Results[1].Skipped)
	assert.Equal(t, 3, rep.Skipped())
	assert.Equal(t, 4, rep.Failed())
}

func TestRunRunsCasesWithMetPrerequisites(t *testing.T) {
	dependent := passing("profile")
	dependent.Requires = []string{"signin"}

	h := New(quietOptions())
	require.NoError(t, h.RegisterAll([]TestCase{passing("signin"), dependent}))

	rep := h.Run(context.Background())
	require.Len(t, rep.Results, 2)
	assert.True(t, rep.Results[1].Passed)
	assert.Equal(t, 0, rep.ExitCode())
}

func TestActionCanSkipItself(t *testing.T) {
	h := New(quietOptions())
	require.NoError(t, h.Register(TestCase{Name: "shops", Action: func(context.Context) (Outcome, error) {
		return Skip("Skipped: barber signin failed: 400", nil), nil
	}}))

	rep := h.Run(context.Background())
	require.Len(t, rep.Results, 1)
	assert.True(t, rep.Results[0].Skipped)
	assert.False(t, rep.Results[0].Passed)
	assert.Equal(t, 1, rep.ExitCode())
}

func TestRegisterValidation(t *testing.T) {
	h := New(quietOptions())
	assert.ErrorIs(t, h.Register(TestCase{Action: passing("x").Action}), ErrEmptyName)
	assert.ErrorIs(t, h.Register(TestCase{Name: "no action"}), ErrNoAction)
	require.NoError(t, h.Register(passing("dup")))
	assert.ErrorIs(t, h.Register(passing("dup")), ErrDuplicateName)
	assert.Len(t, h.Cases(), 1)
	assert.Panics(t, func() { h.MustRegister(passing("dup")) })
}

func TestRunSleepsBetweenCases(t *testing.T) {
	var slept []time.Duration
	h := New(Options{
		Delay: 250 * time.Millisecond,
		Sleep: func(_ context.Context, d time.Duration) { slept = append(slept, d) },
	})
	for i := 0; i < 3; i++ {
		require.NoError(t, h.Register(passing(fmt.Sprintf("case %d", i))))
	}

	h.Run(context.Background())
	assert.Equal(t, []time.Duration{250 * time.Millisecond, 250 * time.Millisecond}, slept)
}

func TestRunDefaultDelay(t *testing.T) {
	var slept []time.Duration
	h := New(Options{Sleep: func(_ context.Context, d time.Duration) { slept = append(slept, d) }})
	require.NoError(t, h.Register(passing("a")))
	require.NoError(t, h.Register(passing("b")))

	h.Run(context.Background())
	assert.Equal(t, []time.Duration{DefaultDelay}, slept)
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := New(quietOptions())
	require.NoError(t, h.Register(TestCase{Name: "cancels", Action: func(context.Context) (Outcome, error) {
		cancel()
		return Pass("done", nil), nil
	}}))
	require.NoError(t, h.Register(passing("never")))

	rep := h.Run(ctx)
	require.Len(t, rep.Results, 1)
	assert.Equal(t, "cancels", rep.Results[0].Name)
}

func TestHealthCheckAgainstStub(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","message":"up"}`))
	}))
	defer srv.Close()

	client, err := apiclient.New(srv.URL+"/api", apiclient.Options{})
	require.NoError(t, err)

	h := New(quietOptions())
	require.NoError(t, h.Register(TestCase{Name: "Health Check", Action: func(ctx context.Context) (Outcome, error) {
		resp, err := client.Get(ctx, "/health")
		if err != nil {
			return Outcome{}, err
		}
		if resp.JSON("status").String() != "ok" {
			return Fail("Invalid response format", nil), nil
		}
		return Pass("API is running correctly", nil), nil
	}}))

	rep := h.Run(context.Background())
	require.Len(t, rep.Results, 1)
	assert.True(t, rep.Results[0].Passed)
	assert.Equal(t, "Health Check", rep.Results[0].Name)
	assert.Equal(t, 1, rep.Passed())
	assert.Equal(t, 0, rep.Failed())
	rate, ok := rep.SuccessRate()
	require.True(t, ok)
	assert.Equal(t, 100.0, rate)
	assert.Equal(t, 0, rep.ExitCode())
}

func TestUnreachableHostFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	target := srv.URL
	srv.Close()

	client, err := apiclient.New(target, apiclient.Options{Timeout: time.Second})
	require.NoError(t, err)

	h := New(quietOptions())
	require.NoError(t, h.Register(TestCase{Name: "Health Check", Action: func(ctx context.Context) (Outcome, error) {
		if _, err := client.Get(ctx, "/health"); err != nil {
			return Outcome{}, err
		}
		return Pass("reachable", nil), nil
	}}))

	var rep *report.RunReport
	require.NotPanics(t, func() { rep = h.Run(context.Background()) })
	require.Len(t, rep.Results, 1)
	assert.False(t, rep.Results[0].Passed)
	assert.Contains(t, rep.Results[0].Message, "Request failed")
	assert.Equal(t, 1, rep.ExitCode())
}
