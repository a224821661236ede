package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/forgery/internal/engine"
	"github.com/roach88/forgery/internal/topology"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool                       `json:"valid"`
	Errors  []topology.ValidationError `json:"errors,omitempty"`
	Summary *TopologySummary           `json:"summary,omitempty"`
}

// TopologySummary counts declared components.
type TopologySummary struct {
	Sources   int `json:"sources"`
	Belts     int `json:"belts"`
	Buildings int `json:"buildings"`
	Sinks     int `json:"sinks"`
	Links     int `json:"links"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <topology-dir>",
		Short: "Validate a topology without running it",
		Long: `Load a CUE topology, check ids, capacities, port bounds and links, and
build it into a simulation without starting the clock.

All consistency errors are reported, not just the first.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	topo, err := topology.Load(dir)
	if err != nil {
		var compileErr *topology.CompileError
		if errors.As(err, &compileErr) {
			// A malformed declaration is a validation failure, not a bad path.
			return outputValidationErrors(formatter, []topology.ValidationError{{
				Field:   compileErr.Field,
				Message: compileErr.Message,
				Code:    compileErr.Code,
				Line:    lineOf(compileErr),
			}})
		}
		return outputValidateError(formatter, errorCode(err), err.Error(), nil)
	}

	formatter.VerboseLog("Loaded %d source(s), %d belt(s), %d building(s), %d sink(s), %d link(s) from %s",
		len(topo.Sources), len(topo.Belts), len(topo.Buildings), len(topo.Sinks), len(topo.Links), dir)

	if errs := topology.Validate(topo); len(errs) > 0 {
		return outputValidationErrors(formatter, errs)
	}

	// Building exercises the engine's own construction checks.
	if err := topology.Build(topo, engine.NewSimulation()); err != nil {
		return outputValidationErrors(formatter, []topology.ValidationError{{
			Field:   "build",
			Message: err.Error(),
			Code:    errorCode(err),
		}})
	}

	return outputValidateSuccess(formatter, summarize(topo))
}

func summarize(t *topology.Topology) *TopologySummary {
	return &TopologySummary{
		Sources:   len(t.Sources),
		Belts:     len(t.Belts),
		Buildings: len(t.Buildings),
		Sinks:     len(t.Sinks),
		Links:     len(t.Links),
	}
}

func lineOf(e *topology.CompileError) int {
	if e.Pos.IsValid() {
		return e.Pos.Line()
	}
	return 0
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, summary *TopologySummary) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Summary: summary})
	}

	fmt.Fprintf(formatter.Writer, "✓ Topology valid: %d source(s), %d belt(s), %d building(s), %d sink(s), %d link(s)\n",
		summary.Sources, summary.Belts, summary.Buildings, summary.Sinks, summary.Links)
	return nil
}

// outputValidateError outputs a single load error.
func outputValidateError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	// Load errors are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []topology.ValidationError) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data: ValidationResult{
				Valid:  false,
				Errors: errs,
			},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}
		if err := writeJSON(formatter.Writer, response); err != nil {
			return err
		}

		// Validation failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
