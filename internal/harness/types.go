package harness

import (
	"strings"

	"github.com/roach88/forgery/internal/engine"
	"github.com/roach88/forgery/internal/testutil"
)

// TraceEvent is one delivery recorded during a scenario run.
type TraceEvent struct {
	Seq  int64  `json:"seq"`
	Tick int64  `json:"tick"`
	Sink string `json:"sink"`
	Kind string `json:"kind"`
}

// String renders the event as a golden trace line.
func (e TraceEvent) String() string {
	return testutil.FormatDelivery(e.Tick, e.Sink, e.Kind)
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success.
	Pass bool `json:"pass"`

	// RunID is the id the run was recorded under.
	RunID string `json:"run_id"`

	// Trace contains every delivery in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains failed assertion messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Final is the simulation state after the last tick.
	Final engine.Snapshot `json:"final"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// TraceText renders the trace one line per delivery, newline terminated.
func (r *Result) TraceText() string {
	var b strings.Builder
	for _, e := range r.Trace {
		b.WriteString(e.String())
		b.WriteByte('\n')
	}
	return b.String()
}
