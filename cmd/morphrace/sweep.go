package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/san-kum/morphrace/internal/config"
	"github.com/san-kum/morphrace/internal/optim"
	"github.com/san-kum/morphrace/internal/sim"
	"github.com/spf13/cobra"
)

var (
	sweepSpecs    []string
	sweepMetric   string
	sweepMaximize bool
)

// sweepParams are the config fields a sweep may vary.
var sweepParams = map[string]func(c *config.Config, v float64){
	"laps":           func(c *config.Config, v float64) { c.Laps = int(v) },
	"finish_line":    func(c *config.Config, v float64) { c.Contest.FinishLine = v },
	"rope_slack":     func(c *config.Config, v float64) { c.Contest.RopeSlack = v },
	"rope_stiffness": func(c *config.Config, v float64) { c.Contest.RopeStiffness = v },
	"stiffness":      func(c *config.Config, v float64) { c.SoftBody.Stiffness = v },
	"gait_amplitude": func(c *config.Config, v float64) { c.SoftBody.Gait.Amplitude = v },
}

func sweepParamNames() []string {
	names := make([]string, 0, len(sweepParams))
	for n := range sweepParams {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// parseSweep reads "name=v1,v2,..." specs.
func parseSweep(specs []string) ([]string, [][]float64, error) {
	var names []string
	var ranges [][]float64
	for _, spec := range specs {
		name, list, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, nil, fmt.Errorf("bad --param %q, want name=v1,v2", spec)
		}
		if _, known := sweepParams[name]; !known {
			return nil, nil, fmt.Errorf("unknown sweep parameter %q (available: %v)", name, sweepParamNames())
		}
		var values []float64
		for _, s := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("bad value for %s: %w", name, err)
			}
			values = append(values, v)
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}
	if len(names) == 0 {
		return nil, nil, fmt.Errorf("need at least one --param")
	}
	return names, ranges, nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	base, err := resolveConfig(cmd, modeArg(args))
	if err != nil {
		return err
	}
	names, ranges, err := parseSweep(sweepSpecs)
	if err != nil {
		return err
	}

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	trial := func(params map[string]float64) (*sim.Simulator, error) {
		cfg := base.Clone()
		for name, v := range params {
			sweepParams[name](cfg, v)
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		eng, err := cfg.NewEngine(quiet)
		if err != nil {
			return nil, err
		}
		sc, err := sim.ScriptByName(cfg.Run.Script)
		if err != nil {
			return nil, err
		}
		s := sim.New(eng, sc)
		for _, m := range simMetrics(cfg.Mode) {
			s.AddMetric(m)
		}
		return s, nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	g := optim.NewGridSearch(names, ranges)
	if sweepMaximize {
		g.Maximize()
	}
	runCfg := sim.Config{Dt: base.Run.Dt, Duration: base.Run.Duration}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(names, "\t"))+"\t"+strings.ToUpper(sweepMetric))
	scores := g.Evaluate(ctx, trial, runCfg, sweepMetric)
	for _, s := range scores {
		for _, n := range names {
			fmt.Fprintf(w, "%g\t", s.Params[n])
		}
		if s.Err != nil {
			fmt.Fprintf(w, "error: %v\n", s.Err)
		} else {
			fmt.Fprintf(w, "%.6f\n", s.Value)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	best, ok := g.Best(scores)
	if !ok {
		return optim.ErrNoTrials
	}
	fmt.Printf("\nbest %s = %.6f at", sweepMetric, best.Value)
	for _, n := range names {
		fmt.Printf(" %s=%g", n, best.Params[n])
	}
	fmt.Println()
	return nil
}
