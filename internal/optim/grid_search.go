// Package optim sweeps session parameters over a grid and scores each
// point with a run metric.
package optim

import (
	"context"
	"errors"
	"math"

	"github.com/san-kum/morphrace/internal/sim"
)

// ErrNoTrials is returned when no grid point produced a result.
var ErrNoTrials = errors.New("optim: no successful trials")

// Trial builds a fresh simulator for one parameter assignment.
type Trial func(params map[string]float64) (*sim.Simulator, error)

// Score is one evaluated grid point.
type Score struct {
	Params map[string]float64
	Value  float64
	Err    error
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	maximize   bool
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Maximize makes Search prefer larger metric values.
func (g *GridSearch) Maximize() *GridSearch {
	g.maximize = true
	return g
}

// Points enumerates the grid in row-major order, last parameter fastest.
func (g *GridSearch) Points() []map[string]float64 {
	if len(g.paramNames) == 0 || len(g.paramNames) != len(g.ranges) {
		return nil
	}
	var points []map[string]float64
	g.enumerate(0, make(map[string]float64), &points)
	return points
}

func (g *GridSearch) enumerate(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		p := make(map[string]float64, len(current))
		for k, v := range current {
			p[k] = v
		}
		*out = append(*out, p)
		return
	}
	for _, val := range g.ranges[depth] {
		current[g.paramNames[depth]] = val
		g.enumerate(depth+1, current, out)
	}
}

// Evaluate runs every grid point in parallel and returns the scores in
// Points order.
func (g *GridSearch) Evaluate(ctx context.Context, trial Trial, cfg sim.Config, metricName string) []Score {
	points := g.Points()
	scores := make([]Score, len(points))
	sim.ParallelFor(len(points), 1, func(start, end int) {
		for i := start; i < end; i++ {
			scores[i] = Score{Params: points[i], Value: math.NaN()}
			if err := ctx.Err(); err != nil {
				scores[i].Err = err
				continue
			}
			s, err := trial(points[i])
			if err != nil {
				scores[i].Err = err
				continue
			}
			result, err := s.Run(ctx, cfg)
			if err != nil {
				scores[i].Err = err
				continue
			}
			v, ok := result.Metrics[metricName]
			if !ok {
				scores[i].Err = errors.New("optim: metric " + metricName + " not collected")
				continue
			}
			scores[i].Value = v
		}
	})
	return scores
}

// Search returns the best grid point. Ties go to the earlier point.
func (g *GridSearch) Search(ctx context.Context, trial Trial, cfg sim.Config, metricName string) (map[string]float64, float64, error) {
	best, ok := g.Best(g.Evaluate(ctx, trial, cfg, metricName))
	if !ok {
		if err := ctx.Err(); err != nil {
			return nil, math.NaN(), err
		}
		return nil, math.NaN(), ErrNoTrials
	}
	return best.Params, best.Value, nil
}

// Best picks the winning score, skipping failed trials.
func (g *GridSearch) Best(scores []Score) (Score, bool) {
	var best *Score
	for i := range scores {
		s := &scores[i]
		if s.Err != nil {
			continue
		}
		if best == nil || g.better(s.Value, best.Value) {
			best = s
		}
	}
	if best == nil {
		return Score{}, false
	}
	return *best, true
}

func (g *GridSearch) better(a, b float64) bool {
	if g.maximize {
		return a > b
	}
	return a < b
}
