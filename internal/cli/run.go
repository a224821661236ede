package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/forgery/internal/engine"
	"github.com/roach88/forgery/internal/observer"
	"github.com/roach88/forgery/internal/store"
	"github.com/roach88/forgery/internal/telemetry"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Ticks       int64
	Interval    time.Duration
	Database    string
	SampleEvery int64
	MetricsAddr string
	ObserveAddr string

	// IDs allows overriding the run id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDs telemetry.RunIDGenerator
}

// RunResult summarises a finished run.
type RunResult struct {
	Tick      int64            `json:"tick"`
	RunID     string           `json:"run_id,omitempty"`
	Produced  map[string]int64 `json:"produced"`
	Delivered map[string]int   `json:"delivered"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <topology-dir>",
		Short: "Run a factory topology",
		Long: `Build the factory described by the CUE files in <topology-dir> and tick it.

With --ticks 0 the run continues until interrupted. With --interval 0 ticks
are delivered back to back.

Optional surfaces:
  --db            record samples and deliveries to a SQLite run log
  --metrics-addr  serve Prometheus metrics on /metrics
  --observe-addr  serve /status and the /ws tick stream

Example:
  forgery run --ticks 72 ./factories/chain
  forgery run --interval 1s --observe-addr 127.0.0.1:8080 ./factories/chain`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFactory(opts, args[0], cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.Ticks, "ticks", 0, "number of ticks to run (0 = until interrupted)")
	cmd.Flags().DurationVar(&opts.Interval, "interval", 0, "wall-clock time per tick (0 = as fast as possible)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite run log")
	cmd.Flags().Int64Var(&opts.SampleEvery, "sample-every", 1, "record samples every n ticks")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "listen address for Prometheus metrics")
	cmd.Flags().StringVar(&opts.ObserveAddr, "observe-addr", "", "listen address for the status server")

	return cmd
}

func runFactory(opts *RunOptions, dir string, cmd *cobra.Command) error {
	if opts.Ticks < 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("--ticks must be >= 0, got %d", opts.Ticks))
	}
	if opts.Ticks == 0 && opts.Interval == 0 && opts.ObserveAddr == "" && opts.MetricsAddr == "" {
		slog.Warn("running unbounded without a tick interval; stop with Ctrl-C")
	}

	formatter := newFormatter(opts.RootOptions, cmd)

	slog.Info("loading topology", "dir", dir)
	_, sim, err := loadFactory(dir)
	if err != nil {
		_ = formatter.Error(errorCode(err), err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load topology", err)
	}
	slog.Info("topology built", "components", len(sim.IDs()))

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	var rec *telemetry.Recorder
	if opts.Database != "" {
		slog.Info("opening database", "path", opts.Database)
		st, err := store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()

		rec, err = telemetry.NewRecorder(ctx, st, sim, telemetry.RecorderOptions{
			Topology:    dir,
			SampleEvery: opts.SampleEvery,
			IDs:         opts.IDs,
		})
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to create run", err)
		}
		slog.Info("recording run", "run_id", rec.RunID())
	}

	if opts.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		collector, err := telemetry.NewCollector(reg)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to register metrics", err)
		}
		collector.Attach(sim)

		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		stop, err := serve(ctx, "metrics", opts.MetricsAddr, mux)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to start metrics server", err)
		}
		defer stop()
	}

	if opts.ObserveAddr != "" {
		srv := observer.NewServer(sim)
		stop, err := serve(ctx, "observer", opts.ObserveAddr, srv.Handler())
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to start status server", err)
		}
		defer stop()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	runErr := sim.Run(ctx, opts.Interval, opts.Ticks)
	snap := sim.Snapshot()
	slog.Info("simulation stopped", "tick", snap.Tick)

	result := RunResult{
		Tick:      snap.Tick,
		Produced:  make(map[string]int64, len(snap.Sources)),
		Delivered: make(map[string]int, len(snap.Sinks)),
	}
	for _, src := range snap.Sources {
		result.Produced[src.ID] = src.TotalProduced
	}
	for _, sk := range snap.Sinks {
		result.Delivered[sk.ID] = sk.Delivered
	}

	if rec != nil {
		result.RunID = rec.RunID()
		// The run context may already be cancelled; finishing must still land.
		if err := rec.Finish(context.Background(), snap.Tick); err != nil {
			return WrapExitError(ExitFailure, "failed to record run", err)
		}
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded) {
		return WrapExitError(ExitFailure, "simulation error", runErr)
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: result, RunID: result.RunID})
	}
	return outputRunText(cmd, snap, result)
}

// outputRunText prints the final tick and per-sink totals.
func outputRunText(cmd *cobra.Command, snap engine.Snapshot, result RunResult) error {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Stopped at tick %d\n", snap.Tick)
	if result.RunID != "" {
		fmt.Fprintf(w, "Run: %s\n", result.RunID)
	}
	for _, src := range snap.Sources {
		fmt.Fprintf(w, "  source %-12s produced %d\n", src.ID, src.TotalProduced)
	}
	for _, sk := range snap.Sinks {
		fmt.Fprintf(w, "  sink   %-12s delivered %d\n", sk.ID, sk.Delivered)
	}
	return nil
}

// serve starts an HTTP server on addr in the background. The returned stop
// function shuts it down.
func serve(ctx context.Context, name, addr string, h http.Handler) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "server", name, "error", err)
		}
	}()
	slog.Info("server listening", "server", name, "addr", ln.Addr().String())

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}, nil
}
