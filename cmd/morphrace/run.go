package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/san-kum/morphrace/internal/contest"
	"github.com/san-kum/morphrace/internal/engine"
	"github.com/san-kum/morphrace/internal/metrics"
	"github.com/san-kum/morphrace/internal/server"
	"github.com/san-kum/morphrace/internal/sim"
	"github.com/san-kum/morphrace/internal/storage"
	"github.com/san-kum/morphrace/internal/viz"
	"github.com/spf13/cobra"
)

func modeArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}

func simMetrics(mode string) []sim.Metric {
	ms := metrics.Default(mode)
	out := make([]sim.Metric, len(ms))
	for i, m := range ms {
		out[i] = m
	}
	return out
}

func runHeadless(cmd *cobra.Command, mode string) error {
	cfg, err := resolveConfig(cmd, mode)
	if err != nil {
		return err
	}
	eng, err := cfg.NewEngine(logger)
	if err != nil {
		return err
	}
	sc, err := sim.ScriptByName(cfg.Run.Script)
	if err != nil {
		return fmt.Errorf("%w (available: %v)", err, sim.ScriptNames())
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	s := sim.New(eng, sc)
	for _, m := range simMetrics(cfg.Mode) {
		s.AddMetric(m)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running %s (%s, script %s)...\n", cfg.Mode, cfg.Morphology, cfg.Run.Script)
	start := time.Now()
	result, err := s.Run(ctx, sim.Config{Dt: cfg.Run.Dt, Duration: cfg.Run.Duration, RecordMesh: recordMesh})
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	meta := storage.RunMetadata{
		Mode:       cfg.Mode,
		Morphology: cfg.Morphology.String(),
		Dt:         cfg.Run.Dt,
		Duration:   cfg.Run.Duration,
		Script:     cfg.Run.Script,
		Policy:     cfg.Policy.Args != "",
	}
	if cfg.Mode == engine.ModeContest {
		meta.Opponent = cfg.Opponent.String()
	}
	runID, err := st.Save(meta, result)
	if err != nil {
		return err
	}
	logger.Debug("run saved", "id", runID, "frames", len(result.Frames))

	final := result.Final()
	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	if cfg.Mode == engine.ModeContest {
		fmt.Printf("winner: %s\n", contest.Winner(final.Winner))
	} else {
		fmt.Printf("laps: %d/%d\n", final.Lap, final.TotalLaps)
		for i, split := range final.Splits {
			fmt.Printf("  lap %d: %.3fs\n", i+1, split)
		}
	}
	printMetrics(os.Stdout, result.Metrics)
	return nil
}

func printMetrics(w io.Writer, m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(w, "\nmetrics:")
	for _, name := range names {
		fmt.Fprintf(w, "  %s: %.6f\n", name, m[name])
	}
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, modeArg(args))
	if err != nil {
		return err
	}
	// The TUI owns the terminal.
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	build := func() (engine.Engine, error) { return cfg.NewEngine(quiet) }

	title := fmt.Sprintf("%s · %s", cfg.Mode, cfg.Morphology)
	if cfg.Mode == engine.ModeContest {
		title = fmt.Sprintf("%s · %s vs %s", cfg.Mode, cfg.Morphology, cfg.Opponent)
	}
	return viz.Run(build, title)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, modeArg(args))
	if err != nil {
		return err
	}
	srv, err := server.New(server.Config{
		Build:    func() (engine.Engine, error) { return cfg.NewEngine(logger) },
		Clock:    time.Now,
		TickRate: cfg.Server.TickRate,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go srv.Run(ctx)

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- httpServer.ListenAndServe() }()
	logger.Info("serving", "addr", cfg.Server.Addr, "mode", cfg.Mode, "tick_rate", cfg.Server.TickRate)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("stopped")
	return nil
}

func runBench(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, modeArg(args))
	if err != nil {
		return err
	}
	if _, err := sim.ScriptByName(cfg.Run.Script); err != nil {
		return err
	}
	if numRuns < 1 {
		return fmt.Errorf("runs must be positive, got %d", numRuns)
	}

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	ensemble := sim.NewEnsemble(func(int) (engine.Engine, sim.Script, []sim.Metric, error) {
		eng, err := cfg.NewEngine(quiet)
		if err != nil {
			return nil, nil, nil, err
		}
		sc, err := sim.ScriptByName(cfg.Run.Script)
		return eng, sc, simMetrics(cfg.Mode), err
	}, numRuns)

	fmt.Printf("benchmarking %s: %d sessions of %.1fs at dt=%.4f\n\n", cfg.Mode, numRuns, cfg.Run.Duration, cfg.Run.Dt)
	start := time.Now()
	results, err := ensemble.Run(context.Background(), sim.Config{Dt: cfg.Run.Dt, Duration: cfg.Run.Duration})
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	steps, completed := 0, 0
	sums := map[string]float64{}
	for _, r := range results {
		steps += r.StepsTaken
		if r.Completed {
			completed++
		}
		for name, v := range r.Metrics {
			sums[name] += v
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SESSIONS\tSTEPS\tTIME\tSTEPS/SEC\tCOMPLETED")
	fmt.Fprintf(w, "%d\t%d\t%v\t%.0f\t%d\n", len(results), steps, elapsed, float64(steps)/elapsed.Seconds(), completed)
	if err := w.Flush(); err != nil {
		return err
	}

	means := make(map[string]float64, len(sums))
	for name, v := range sums {
		means[name] = v / float64(len(results))
	}
	printMetrics(os.Stdout, means)
	return nil
}
