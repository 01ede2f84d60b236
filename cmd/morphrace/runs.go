package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/morphrace/internal/analysis"
	"github.com/san-kum/morphrace/internal/contest"
	"github.com/san-kum/morphrace/internal/engine"
	"github.com/san-kum/morphrace/internal/export"
	"github.com/san-kum/morphrace/internal/softbody"
	"github.com/san-kum/morphrace/internal/storage"
	"github.com/spf13/cobra"
)

var creatureColors = []string{"#00ff88", "#ff44aa"}

func loadRun(runID string) (*storage.RunMetadata, []*storage.FrameRecord, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	frames, err := st.LoadFrames(runID)
	if err != nil {
		return nil, nil, err
	}
	if len(frames) == 0 {
		return nil, nil, fmt.Errorf("no frames in run %s", runID)
	}
	return meta, frames, nil
}

func creatureCount(meta *storage.RunMetadata) int {
	if meta.Mode == engine.ModeContest {
		return 2
	}
	return 1
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODE\tMORPH\tTIME\tDURATION\tSTEPS\tRESULT")

	for _, run := range runs {
		result := fmt.Sprintf("lap %d/%d", run.Laps, run.TotalLaps)
		if run.Mode == engine.ModeContest {
			result = contest.Winner(run.Winner).String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2fs\t%d\t%s\n",
			run.ID,
			run.Mode,
			run.Morphology,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Steps,
			result,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, frames, err := loadRun(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("mode: %s\n", meta.Mode)
	fmt.Printf("samples: %d\n\n", len(frames)/creatureCount(meta))

	n := creatureCount(meta)
	speed := make([][]float64, n)
	xs := make([][]float64, n)
	zs := make([][]float64, n)
	for i := 0; i < n; i++ {
		for _, f := range storage.Creature(frames, i+1) {
			speed[i] = append(speed[i], f.Speed)
			xs[i] = append(xs[i], f.X)
			zs[i] = append(zs[i], f.Z)
		}
	}

	for _, p := range []struct {
		caption string
		data    [][]float64
	}{
		{"speed", speed},
		{"x position", xs},
		{"z position", zs},
	} {
		graph := asciigraph.PlotMany(p.data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(p.caption),
			asciigraph.SeriesColors(asciigraph.Green, asciigraph.Magenta),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, frames, err := loadRun(args[0])
	if err != nil {
		return err
	}
	if meta.Dt <= 0 {
		return errors.New("run has no frame delta")
	}
	rate := 1 / meta.Dt

	fmt.Printf("analysis: %s\n", meta.ID)
	fmt.Printf("mode: %s\n\n", meta.Mode)

	for i := 0; i < creatureCount(meta); i++ {
		recs := storage.Creature(frames, i+1)
		samples := make([]analysis.Sample, len(recs))
		speed := make([]float64, len(recs))
		xs := make([]float64, len(recs))
		for j, r := range recs {
			samples[j] = analysis.Sample{X: r.X, Z: r.Z, Heading: r.Heading, Speed: r.Speed}
			speed[j] = r.Speed
			xs[j] = r.X
		}
		ts := analysis.Track(samples, meta.Dt)

		fmt.Printf("creature %d\n", i+1)
		fmt.Printf("  path length:   %.3f\n", ts.PathLength)
		fmt.Printf("  extent x:      [%.2f, %.2f]\n", ts.MinX, ts.MaxX)
		fmt.Printf("  extent z:      [%.2f, %.2f]\n", ts.MinZ, ts.MaxZ)
		fmt.Printf("  net turns:     %.3f\n", ts.Turns)
		fmt.Printf("  mean radius:   %.3f\n", ts.MeanRadius)

		if freq, _ := analysis.DominantFrequency(xs, rate); freq > 0 {
			fmt.Printf("  x oscillation: %.3f hz (period %.3f s)\n", freq, 1/freq)
		}
		if freq, _ := analysis.DominantFrequency(speed, rate); freq > 0 {
			fmt.Printf("  speed cycle:   %.3f hz\n", freq)
		}
		fmt.Println()

		if i == 0 && len(speed) > 1 {
			ps := analysis.PowerSpectrum(speed)
			if len(ps) > 8 {
				ps = ps[1 : len(ps)/4]
			}
			fmt.Println(asciigraph.Plot(ps,
				asciigraph.Height(10),
				asciigraph.Width(80),
				asciigraph.Caption("power spectrum (speed)"),
			))
			fmt.Println()
		}
	}
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	_, frames, err := loadRun(args[0])
	if err != nil {
		return err
	}
	w, err := output()
	if err != nil {
		return err
	}
	defer w.Close()
	return storage.ExportCSV(w, frames)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, frames, err := loadRun(args[0])
	if err != nil {
		return err
	}
	w, err := output()
	if err != nil {
		return err
	}
	defer w.Close()
	return storage.ExportJSON(w, meta, frames)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	var svg string
	switch {
	case meshFile != "":
		data, err := os.ReadFile(meshFile)
		if err != nil {
			return err
		}
		m, err := softbody.Parse(data, softbody.DefaultParams())
		if err != nil {
			return err
		}
		edges := make([][2]int, 0, m.EdgeCount())
		for _, e := range m.Edges() {
			edges = append(edges, [2]int{e.A, e.B})
		}
		svg = export.MeshToSVG(m.Nodes(), edges, 400, 400)
	case len(args) == 1:
		meta, frames, err := loadRun(args[0])
		if err != nil {
			return err
		}
		n := creatureCount(meta)
		paths := make([]export.Path, n)
		for i := 0; i < n; i++ {
			paths[i].Color = creatureColors[i]
			for _, f := range storage.Creature(frames, i+1) {
				paths[i].Points = append(paths[i].Points, export.Point{X: f.X, Y: f.Z})
			}
		}
		finish := finishLine
		if finish == 0 {
			finish = contest.DefaultFinishLine
		}
		svg = export.TrajectoryToSVG(paths, 800, 400, finish, meta.Mode == engine.ModeContest)
	default:
		return errors.New("need a run id or --mesh")
	}
	if svg == "" {
		return errors.New("nothing to draw")
	}

	w, err := output()
	if err != nil {
		return err
	}
	defer w.Close()
	_, err = fmt.Fprintln(w, svg)
	return err
}
