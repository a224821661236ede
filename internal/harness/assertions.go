package harness

import (
	"fmt"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type      string       // Assertion type for categorization
	Component string       // Component under test
	Expected  string       // Human-readable expected outcome
	Actual    string       // Human-readable actual outcome
	Trace     []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s %s\n", e.Type, e.Component)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, event)
		}
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion against the result's final
// snapshot and returns the failure messages in assertion order.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(result, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d: %s", i, err))
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion) error {
	switch a.Type {
	case AssertDelivered:
		return assertDelivered(result, a)
	case AssertProduced:
		return assertProduced(result, a)
	case AssertOccupancy:
		return assertOccupancy(result, a)
	case AssertBusy:
		return assertBusy(result, a)
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
}

// assertDelivered checks a sink's delivered total.
func assertDelivered(result *Result, a Assertion) error {
	sink, ok := result.Final.Sink(a.Component)
	if !ok {
		return missing(a, "sink")
	}
	if int64(sink.Delivered) != a.Count {
		return &AssertionError{
			Type:      a.Type,
			Component: a.Component,
			Expected:  fmt.Sprintf("%d delivered", a.Count),
			Actual:    fmt.Sprintf("%d delivered", sink.Delivered),
			Trace:     result.Trace,
		}
	}
	return nil
}

// assertProduced checks a source's produced total.
func assertProduced(result *Result, a Assertion) error {
	src, ok := result.Final.Source(a.Component)
	if !ok {
		return missing(a, "source")
	}
	if src.TotalProduced != a.Count {
		return &AssertionError{
			Type:      a.Type,
			Component: a.Component,
			Expected:  fmt.Sprintf("%d produced", a.Count),
			Actual:    fmt.Sprintf("%d produced", src.TotalProduced),
		}
	}
	return nil
}

// assertOccupancy checks how many units a belt holds.
func assertOccupancy(result *Result, a Assertion) error {
	belt, ok := result.Final.Belt(a.Component)
	if !ok {
		return missing(a, "belt")
	}
	if int64(belt.Occupancy) != a.Count {
		return &AssertionError{
			Type:      a.Type,
			Component: a.Component,
			Expected:  fmt.Sprintf("occupancy %d/%d", a.Count, belt.Capacity),
			Actual:    fmt.Sprintf("occupancy %d/%d", belt.Occupancy, belt.Capacity),
		}
	}
	return nil
}

// assertBusy checks a building's busy flag.
func assertBusy(result *Result, a Assertion) error {
	b, ok := result.Final.Building(a.Component)
	if !ok {
		return missing(a, "building")
	}
	want := a.Busy != nil && *a.Busy
	if b.Busy != want {
		return &AssertionError{
			Type:      a.Type,
			Component: a.Component,
			Expected:  fmt.Sprintf("busy=%t", want),
			Actual:    fmt.Sprintf("busy=%t (held %d)", b.Busy, b.Held),
		}
	}
	return nil
}

func missing(a Assertion, kind string) error {
	return &AssertionError{
		Type:      a.Type,
		Component: a.Component,
		Expected:  fmt.Sprintf("%s %q", kind, a.Component),
		Actual:    "no such " + kind,
	}
}
