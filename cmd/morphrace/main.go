package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/san-kum/morphrace/internal/config"
	"github.com/san-kum/morphrace/internal/engine"
	"github.com/san-kum/morphrace/internal/morphology"
	"github.com/spf13/cobra"
)

var (
	dataDir   string
	logLevel  string
	logFormat string
	logger    *slog.Logger

	configFile string
	preset     string

	morph      string
	opponent   string
	laps       int
	dt         float64
	duration   float64
	script     string
	finishLine float64
	ropeSlack  float64
	ropeStiff  float64
	bots       []int
	slots      []int
	policyArgs string
	policyW    string
	meshFile   string
	noGait     bool
	recordMesh bool

	addr     string
	tickRate int
	numRuns  int
	outFile  string
)

// main registers commands and flags and runs the live view when no
// subcommand is given. It exits with status 1 if the command fails.
func main() {
	rootCmd := &cobra.Command{
		Use:   "morphrace",
		Short: "soft-body creature racing and tug-of-war",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := newLogger(os.Stderr)
			if err != nil {
				return err
			}
			logger = l
			slog.SetDefault(l)
			return nil
		},
		RunE:         runLive,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".morphrace", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")
	addSimFlags(rootCmd)

	raceCmd := &cobra.Command{
		Use:   "race",
		Short: "run a scripted lap race and save it",
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, args []string) error { return runHeadless(cmd, engine.ModeRace) },
	}
	addSimFlags(raceCmd)

	contestCmd := &cobra.Command{
		Use:   "contest",
		Short: "run a scripted two-creature contest and save it",
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, args []string) error { return runHeadless(cmd, engine.ModeContest) },
	}
	addSimFlags(contestCmd)

	liveCmd := &cobra.Command{
		Use:   "live [race|contest]",
		Short: "drive a creature in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addSimFlags(liveCmd)

	serveCmd := &cobra.Command{
		Use:   "serve [race|contest]",
		Short: "host an engine over HTTP and WebSocket",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runServe,
	}
	addSimFlags(serveCmd)
	serveCmd.Flags().StringVar(&addr, "addr", config.DefaultAddr, "listen address")
	serveCmd.Flags().IntVar(&tickRate, "tick-rate", config.DefaultTickRate, "websocket tick rate (Hz)")

	benchCmd := &cobra.Command{
		Use:   "bench [race|contest]",
		Short: "run an ensemble of headless sessions in parallel",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runBench,
	}
	addSimFlags(benchCmd)
	benchCmd.Flags().IntVar(&numRuns, "runs", 16, "number of sessions")

	sweepCmd := &cobra.Command{
		Use:   "sweep [race|contest]",
		Short: "score a grid of parameter values with a run metric",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	addSimFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&sweepSpecs, "param", nil, "parameter grid as name=v1,v2,... (repeatable)")
	sweepCmd.Flags().StringVar(&sweepMetric, "metric", "finish_time", "metric to score")
	sweepCmd.Flags().BoolVar(&sweepMaximize, "maximize", false, "prefer larger metric values")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot speed and position of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "track statistics and frequency analysis",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run frames to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run metadata and frames to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "draw a run's trajectory, or a mesh with --mesh, as SVG",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVar(&meshFile, "mesh", "", "mesh JSON file to draw instead of a run")
	exportSVGCmd.Flags().Float64Var(&finishLine, "finish", 0, "contest finish line to draw (0 uses the default)")
	for _, c := range []*cobra.Command{exportCSVCmd, exportJSONCmd, exportSVGCmd} {
		c.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [race|contest]",
		Short: "list presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	morphsCmd := &cobra.Command{
		Use:   "morphs",
		Short: "list morphologies and their locomotion constants",
		Args:  cobra.NoArgs,
		RunE:  listMorphs,
	}

	initCmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "write the default configuration as YAML",
		Args:  cobra.ExactArgs(1),
		RunE:  initConfig,
	}

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run the sessions listed in a YAML scenario file",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	rootCmd.AddCommand(raceCmd, contestCmd, liveCmd, serveCmd, benchCmd, sweepCmd, scenarioCmd, listCmd, plotCmd,
		analyzeCmd, exportCSVCmd, exportJSONCmd, exportSVGCmd, presetsCmd, morphsCmd, initCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// addSimFlags binds the session flags. They override --config and --preset
// only when set explicitly.
func addSimFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")
	f.StringVar(&morph, "morph", "biped", "creature morphology (biped, quadruped, hexapod)")
	f.StringVar(&opponent, "opponent", "biped", "contest opponent morphology")
	f.IntVar(&laps, "laps", config.DefaultLaps, "laps to finish a race")
	f.Float64Var(&dt, "dt", config.DefaultDt, "frame delta (s)")
	f.Float64Var(&duration, "time", config.DefaultDuration, "session length (s)")
	f.StringVar(&script, "script", config.DefaultScript, "key script for headless runs")
	f.Float64Var(&finishLine, "finish", 0, "contest finish line x")
	f.Float64Var(&ropeSlack, "rope-slack", 0, "contest rope slack (0 with zero stiffness disables the rope)")
	f.Float64Var(&ropeStiff, "rope-stiffness", 0, "contest rope stiffness")
	f.IntSliceVar(&bots, "bots", nil, "contest creatures driven by the autopilot")
	f.IntSliceVar(&slots, "policy-slots", nil, "contest creatures driven by the policy")
	f.StringVar(&policyArgs, "policy-args", "", "policy architecture JSON file")
	f.StringVar(&policyW, "policy-weights", "", "policy weights JSON file")
	f.StringVar(&meshFile, "mesh", "", "soft-body mesh JSON file")
	f.BoolVar(&noGait, "no-gait", false, "disable the mesh wobble")
	f.BoolVar(&recordMesh, "record-mesh", false, "keep mesh nodes in recorded frames")
}

// resolveConfig layers defaults, preset, config file and explicit flags.
// An empty mode keeps the configured one.
func resolveConfig(cmd *cobra.Command, mode string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		presetMode := mode
		if presetMode == "" {
			presetMode = cfg.Mode
		}
		p := config.GetPreset(presetMode, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(presetMode))
		}
		cfg = p
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if mode != "" {
		cfg.Mode = mode
	}

	flags := cmd.Flags()
	if flags.Changed("morph") {
		k, err := morphology.ParseKind(morph)
		if err != nil {
			return nil, err
		}
		cfg.Morphology = k
	}
	if flags.Changed("opponent") {
		k, err := morphology.ParseKind(opponent)
		if err != nil {
			return nil, err
		}
		cfg.Opponent = k
	}
	if flags.Changed("laps") {
		cfg.Laps = laps
	}
	if flags.Changed("dt") {
		cfg.Run.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Run.Duration = duration
	}
	if flags.Changed("script") {
		cfg.Run.Script = script
	}
	if flags.Changed("finish") {
		cfg.Contest.FinishLine = finishLine
	}
	if flags.Changed("rope-slack") {
		cfg.Contest.RopeSlack = ropeSlack
	}
	if flags.Changed("rope-stiffness") {
		cfg.Contest.RopeStiffness = ropeStiff
	}
	if flags.Changed("bots") {
		cfg.Contest.Bots = bots
	}
	if flags.Changed("policy-slots") {
		cfg.Contest.PolicySlots = slots
	}
	if flags.Changed("policy-args") {
		cfg.Policy.Args = policyArgs
	}
	if flags.Changed("policy-weights") {
		cfg.Policy.Weights = policyW
	}
	if flags.Changed("mesh") {
		cfg.Mesh = meshFile
	}
	if flags.Changed("no-gait") {
		cfg.SoftBody.Gait.Enabled = !noGait
	}
	if flags.Changed("addr") {
		cfg.Server.Addr = addr
	}
	if flags.Changed("tick-rate") {
		cfg.Server.TickRate = tickRate
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", logLevel)
	}
	opts := &slog.HandlerOptions{Level: level}
	switch logFormat {
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("unknown log format %q (available: text, json)", logFormat)
}

// output returns the --out file or stdout. The caller closes it.
func output() (io.WriteCloser, error) {
	if outFile == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(outFile)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
