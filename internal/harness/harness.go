// Package harness executes an ordered battery of independent test cases
// against a live API and records one result per case.
//
// A case's fault never stops the run: returned errors and panics are both
// converted into failed results, and the next case starts after a fixed
// delay. Cases run strictly one after another.
package harness

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bgricker/apiconform/internal/apiclient"
	"github.com/bgricker/apiconform/internal/report"
)

// DefaultDelay is the pause inserted between consecutive cases.
const DefaultDelay = 500 * time.Millisecond

var (
	// ErrEmptyName is returned when registering a case without a name.
	ErrEmptyName = errors.New("test case name is empty")
	// ErrDuplicateName is returned when a case name is already registered.
	ErrDuplicateName = errors.New("duplicate test case name")
	// ErrNoAction is returned when registering a case without an action.
	ErrNoAction = errors.New("test case has no action")
)

// Outcome is what an action reports about itself.
type Outcome struct {
	Passed  bool
	Skipped bool
	Message string
	Details map[string]any
}

// Pass builds a passing outcome.
func Pass(message string, details map[string]any) Outcome {
	return Outcome{Passed: true, Message: message, Details: details}
}

// Fail builds a failing outcome.
func Fail(message string, details map[string]any) Outcome {
	return Outcome{Passed: false, Message: message, Details: details}
}

// Skip builds an outcome for a case whose checks could not start, such as a
// login the case depends on being refused. It counts as a failure.
func Skip(message string, details map[string]any) Outcome {
	return Outcome{Skipped: true, Message: message, Details: details}
}

// Action performs the HTTP calls of one case.
type Action func(ctx context.Context) (Outcome, error)

// TestCase is a named, independent unit of conformance checking.
type TestCase struct {
	Name     string
	Action   Action
	Metadata map[string]string

	// Requires names earlier cases that must have passed in the same run.
	// When one did not, the action is not invoked and a skipped result is
	// recorded instead.
	Requires []string
}

// ResultPrinter receives each result as soon as it is recorded.
type ResultPrinter interface {
	PrintResult(res report.TestResult) error
}

// Options configure how the harness executes cases.
type Options struct {
	Suite   string
	Target  string
	Delay   time.Duration
	Printer ResultPrinter
	Logger  *zap.Logger
	Now     func() time.Time
	Sleep   func(ctx context.Context, d time.Duration)
	RunID   func() string
}

// Harness holds the registered cases of one run.
type Harness struct {
	opts  Options
	cases []TestCase
	names map[string]struct{}
}

// New creates a harness with the supplied options. A negative delay disables
// the inter-case pause; zero selects DefaultDelay.
func New(opts Options) *Harness {
	if opts.Delay == 0 {
		opts.Delay = DefaultDelay
	}
	if opts.Delay < 0 {
		opts.Delay = 0
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	if opts.RunID == nil {
		opts.RunID = func() string { return uuid.NewString() }
	}
	return &Harness{opts: opts, names: make(map[string]struct{})}
}

// Register appends tc to the ordered case list.
func (h *Harness) Register(tc TestCase) error {
	if tc.Name == "" {
		return ErrEmptyName
	}
	if tc.Action == nil {
		return fmt.Errorf("%w: %q", ErrNoAction, tc.Name)
	}
	if _, ok := h.names[tc.Name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateName, tc.Name)
	}
	h.names[tc.Name] = struct{}{}
	h.cases = append(h.cases, tc)
	return nil
}

// MustRegister is Register for static batteries; it panics on an invalid case.
func (h *Harness) MustRegister(tc TestCase) {
	if err := h.Register(tc); err != nil {
		panic(err)
	}
}

// RegisterAll registers cases in order, stopping at the first invalid one.
func (h *Harness) RegisterAll(cases []TestCase) error {
	for _, tc := range cases {
		if err := h.Register(tc); err != nil {
			return err
		}
	}
	return nil
}

// Cases returns the registered cases in registration order.
func (h *Harness) Cases() []TestCase {
	return append([]TestCase(nil), h.cases...)
}

// Run executes every registered case in order and returns the report. It
// never fails; a cancelled ctx stops the run before the next case and the
// partial report is returned.
func (h *Harness) Run(ctx context.Context) *report.RunReport {
	rep := &report.RunReport{
		RunID:     h.opts.RunID(),
		Suite:     h.opts.Suite,
		Target:    h.opts.Target,
		StartedAt: h.opts.Now(),
	}
	log := h.opts.Logger.With(zap.String("run_id", rep.RunID), zap.String("suite", rep.Suite))
	log.Debug("run starting", zap.Int("cases", len(h.cases)), zap.String("target", rep.Target))

	passed := make(map[string]bool, len(h.cases))
	for i, tc := range h.cases {
		if ctx.Err() != nil {
			log.Warn("run interrupted", zap.Int("remaining", len(h.cases)-i), zap.Error(ctx.Err()))
			break
		}
		if i > 0 && h.opts.Delay > 0 {
			h.opts.Sleep(ctx, h.opts.Delay)
		}

		start := h.opts.Now()
		out, ok := prerequisites(tc, passed)
		if ok {
			out = h.execute(ctx, tc)
		}
		res := report.NewResult(tc.Name, out.Passed, out.Message, start, h.opts.Now().Sub(start), out.Details)
		res.Skipped = out.Skipped && !out.Passed
		rep.Append(res)
		passed[tc.Name] = res.Passed

		log.Debug("case finished", zap.String("case", tc.Name), zap.Bool("passed", res.Passed), zap.Duration("elapsed", res.Duration))
		if h.opts.Printer != nil {
			if err := h.opts.Printer.PrintResult(res); err != nil {
				log.Warn("print result", zap.String("case", tc.Name), zap.Error(err))
			}
		}
	}

	rep.FinishedAt = h.opts.Now()
	log.Debug("run finished", zap.Int("passed", rep.Passed()), zap.Int("failed", rep.Failed()))
	return rep
}

// prerequisites reports whether every case tc requires has passed. passed
// holds the outcome of each case run so far. When a prerequisite has not
// passed, the returned outcome is the skipped result to record.
func prerequisites(tc TestCase, passed map[string]bool) (Outcome, bool) {
	for _, name := range tc.Requires {
		ok, ran := passed[name]
		if ok {
			continue
		}
		reason := "failed"
		if !ran {
			reason = "did not run"
		}
		return Skip(fmt.Sprintf("Skipped: prerequisite %q %s", name, reason), map[string]any{"prerequisite": name}), false
	}
	return Outcome{}, true
}

// execute runs one action inside the failure boundary.
func (h *Harness) execute(ctx context.Context, tc TestCase) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			h.opts.Logger.Error("case panicked", zap.String("case", tc.Name), zap.Any("panic", r))
			out = Fail(fmt.Sprintf("Test execution failed: %v", r), nil)
		}
	}()

	out, err := tc.Action(ctx)
	if err != nil {
		return failureFromError(err)
	}
	if out.Passed {
		out.Skipped = false
	}
	if out.Message == "" {
		if out.Passed {
			out.Message = "ok"
		} else {
			out.Message = "check failed"
		}
	}
	return out
}

func failureFromError(err error) Outcome {
	var protocol *apiclient.ProtocolError
	switch {
	case errors.As(err, &protocol):
		return Fail(protocol.Error(), protocol.Details())
	case apiclient.IsTransport(err):
		return Fail(fmt.Sprintf("Request failed: %v", err), nil)
	default:
		msg := err.Error()
		if msg == "" {
			msg = fmt.Sprintf("%T", err)
		}
		return Fail(fmt.Sprintf("Test execution failed: %s", msg), nil)
	}
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
