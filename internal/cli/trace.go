package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/forgery/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database  string
	RunID     string
	Sink      string // optional - filter deliveries to one sink
	Component string // optional - include samples for one component
}

// TraceResult holds one run's recorded output.
type TraceResult struct {
	Run        store.Run        `json:"run"`
	Deliveries []store.Delivery `json:"deliveries"`
	Totals     map[string]int64 `json:"totals"`
	Samples    []store.Sample   `json:"samples,omitempty"`
}

// RunList holds every recorded run.
type RunList struct {
	Runs []store.Run `json:"runs"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect recorded runs",
		Long: `Inspect the SQLite run log written by "forgery run --db".

Without --run, lists every recorded run. With --run, prints the run's
deliveries in order and per-sink totals; --component adds that component's
per-tick samples.

Examples:
  forgery trace --db ./runs.db
  forgery trace --db ./runs.db --run 0190c8a2-...
  forgery trace --db ./runs.db --run 0190c8a2-... --component feed --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run id to trace (default: list runs)")
	cmd.Flags().StringVar(&opts.Sink, "sink", "", "filter deliveries to one sink")
	cmd.Flags().StringVar(&opts.Component, "component", "", "include samples for a component")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// store.Open creates missing files; tracing a typo should not.
	if _, err := os.Stat(opts.Database); err != nil {
		return WrapExitError(ExitCommandError, "database not found", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if opts.RunID == "" {
		runs, err := st.ListRuns(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
		if opts.Format == "json" {
			return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: RunList{Runs: runs}})
		}
		return outputRunListText(cmd, runs)
	}

	result, err := buildTrace(ctx, st, opts)
	if err != nil {
		if errors.Is(err, store.ErrRunNotFound) {
			return WrapExitError(ExitCommandError, fmt.Sprintf("run not found: %s", opts.RunID), err)
		}
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: result, RunID: result.Run.ID})
	}
	return outputTraceText(cmd, result)
}

// buildTrace reads a run, its deliveries (optionally for one sink), the
// per-sink totals and, when asked, one component's samples.
func buildTrace(ctx context.Context, st *store.Store, opts *TraceOptions) (TraceResult, error) {
	run, err := st.GetRun(ctx, opts.RunID)
	if err != nil {
		return TraceResult{}, err
	}

	deliveries, err := st.ReadDeliveries(ctx, run.ID)
	if err != nil {
		return TraceResult{}, err
	}
	if opts.Sink != "" {
		filtered := deliveries[:0]
		for _, d := range deliveries {
			if d.Sink == opts.Sink {
				filtered = append(filtered, d)
			}
		}
		deliveries = filtered
	}
	if deliveries == nil {
		deliveries = []store.Delivery{}
	}

	totals, err := st.DeliveryCounts(ctx, run.ID)
	if err != nil {
		return TraceResult{}, err
	}

	result := TraceResult{Run: run, Deliveries: deliveries, Totals: totals}
	if opts.Component != "" {
		result.Samples, err = st.ReadSamples(ctx, run.ID, opts.Component)
		if err != nil {
			return TraceResult{}, err
		}
	}
	return result, nil
}

// outputRunListText prints one line per recorded run.
func outputRunListText(cmd *cobra.Command, runs []store.Run) error {
	w := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	for _, r := range runs {
		fmt.Fprintf(w, "%s  %s  ticks %d..%s\n", r.ID, r.Topology, r.StartTick, finalTick(r))
	}
	return nil
}

// outputTraceText outputs the trace result as text.
func outputTraceText(cmd *cobra.Command, result TraceResult) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Run: %s\n", result.Run.ID)
	fmt.Fprintf(w, "Topology: %s\n", result.Run.Topology)
	s := result.Run.Summary
	fmt.Fprintf(w, "Components: %d source(s), %d belt(s), %d building(s), %d sink(s)\n",
		s.Sources, s.Belts, s.Buildings, s.Sinks)
	fmt.Fprintf(w, "Ticks: %d..%s\n", result.Run.StartTick, finalTick(result.Run))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Deliveries:")
	if len(result.Deliveries) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, d := range result.Deliveries {
		fmt.Fprintf(w, "  [%d] tick=%d sink=%s kind=%s\n", d.Seq, d.Tick, d.Sink, d.Material)
	}

	if len(result.Totals) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Totals:")
		sinks := make([]string, 0, len(result.Totals))
		for sink := range result.Totals {
			sinks = append(sinks, sink)
		}
		sort.Strings(sinks)
		for _, sink := range sinks {
			fmt.Fprintf(w, "  %s: %d\n", sink, result.Totals[sink])
		}
	}

	if len(result.Samples) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Samples (%s):\n", result.Samples[0].Component)
		for _, smp := range result.Samples {
			fmt.Fprintf(w, "  tick=%d %s=%d\n", smp.Tick, smp.Kind, smp.Value)
		}
	}

	return nil
}

func finalTick(r store.Run) string {
	if r.FinalTick == nil {
		return "(recording)"
	}
	return fmt.Sprintf("%d", *r.FinalTick)
}
