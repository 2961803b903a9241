package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/mbsym/internal/config"
	"github.com/san-kum/mbsym/internal/mechanisms"
	"github.com/san-kum/mbsym/internal/viz"
)

var (
	dataDir string
	verbose bool
	logger  *slog.Logger

	dt         float64
	duration   float64
	integrator string
	controller string
	kp         float64
	ki         float64
	kd         float64
	target     float64
	index      int
	adaptive   bool
	tolerance  float64
	parallel   bool
	configFile string
	preset     string
	sets       []string
	sweepN     int
	spread     float64
	live       bool
	pace       float64

	width  int
	column int
	xAxis  int
	yAxis  int
	level  float64
	cross  int
	out    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "mbsym",
		Short:         "symbolic loop closure and reduced multibody simulation",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			lvl := slog.LevelInfo
			if verbose {
				lvl = slog.LevelDebug
			}
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
			slog.SetDefault(logger)
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".mbsym", "run directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	mechanismsCmd := &cobra.Command{
		Use:   "mechanisms",
		Short: "list built-in mechanisms",
		RunE:  listMechanisms,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [mechanism]",
		Short: "list presets of a mechanism",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for mechanism: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	deriveCmd := &cobra.Command{
		Use:   "derive [mechanism]",
		Short: "print loop closures and the reduced system",
		Args:  cobra.ExactArgs(1),
		RunE:  derive,
	}
	deriveCmd.Flags().StringArrayVar(&sets, "set", nil, "parameter override name=value (repeatable)")
	deriveCmd.Flags().IntVar(&width, "width", 100, "cut expressions longer than this (0 = never)")

	runCmd := &cobra.Command{
		Use:   "run [mechanism]",
		Short: "simulate a mechanism",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	runFlags(runCmd)
	runCmd.Flags().IntVar(&sweepN, "sweep", 0, "also run this many initial angles spread around q0")
	runCmd.Flags().Float64Var(&spread, "spread", 0.2, "half-width of the --sweep range")
	runCmd.Flags().BoolVar(&live, "live", false, "follow the run in an interactive view")
	runCmd.Flags().Float64Var(&pace, "pace", 1, "simulated seconds per wall second with --live (0 = unpaced)")

	compareCmd := &cobra.Command{
		Use:   "compare [mechanism] [integrator...]",
		Short: "compare integrators on the same mechanism",
		Args:  cobra.MinimumNArgs(2),
		RunE:  compareIntegrators,
	}
	runFlags(compareCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the state of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of one state column",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().IntVar(&column, "column", 0, "state column")

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "phase portrait or Poincaré section",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}
	phaseCmd.Flags().IntVar(&xAxis, "x-axis", 0, "state index for x-axis")
	phaseCmd.Flags().IntVar(&yAxis, "y-axis", 1, "state index for y-axis")
	phaseCmd.Flags().IntVar(&cross, "section", -1, "record a Poincaré section where this state index crosses --level")
	phaseCmd.Flags().Float64Var(&level, "level", 0, "section level")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export a phase portrait to SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().IntVar(&xAxis, "x-axis", 0, "state index for x-axis")
	exportSVGCmd.Flags().IntVar(&yAxis, "y-axis", 1, "state index for y-axis")
	exportSVGCmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")

	rootCmd.AddCommand(mechanismsCmd, presetsCmd, deriveCmd, runCmd, compareCmd, listCmd, plotCmd,
		analyzeCmd, phaseCmd, exportJSONCmd, exportSVGCmd)
	rootCmd.AddCommand(batchCommands()...)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, viz.Bad.Render("error:"), err)
		os.Exit(1)
	}
}

// runFlags registers the flags shared by every command that builds an
// experiment.
func runFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().StringVar(&integrator, "integrator", "rk4", "integrator")
	cmd.Flags().StringVar(&controller, "controller", "none", "controller")
	cmd.Flags().Float64Var(&kp, "kp", config.DefaultKp, "pid kp")
	cmd.Flags().Float64Var(&ki, "ki", config.DefaultKi, "pid ki")
	cmd.Flags().Float64Var(&kd, "kd", config.DefaultKd, "pid kd")
	cmd.Flags().Float64Var(&target, "target", 0, "pid target")
	cmd.Flags().IntVar(&index, "index", 0, "pid coordinate index")
	cmd.Flags().BoolVar(&adaptive, "adaptive", false, "adaptive step size")
	cmd.Flags().Float64Var(&tolerance, "tol", config.DefaultTolerance, "adaptive error tolerance")
	cmd.Flags().BoolVar(&parallel, "parallel", false, "run loop closures concurrently")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "parameter override name=value (repeatable)")
}

// resolveConfig layers defaults, preset, config file and changed flags,
// in that order.
func resolveConfig(cmd *cobra.Command, mechanism string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if mechanism == "" {
		mechanism = cfg.Mechanism
	}
	if preset != "" {
		p := config.GetPreset(mechanism, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(mechanism))
		}
		if configFile == "" {
			cfg = p
		} else {
			if cfg.Params == nil {
				cfg.Params = make(map[string]float64, len(p.Params))
			}
			for k, v := range p.Params {
				if _, ok := cfg.Params[k]; !ok {
					cfg.Params[k] = v
				}
			}
		}
	}
	cfg.Mechanism = mechanism

	f := cmd.Flags()
	if f.Changed("dt") || cfg.Dt == 0 {
		cfg.Dt = dt
	}
	if f.Changed("time") || cfg.Duration == 0 {
		cfg.Duration = duration
	}
	if f.Changed("integrator") || cfg.Integrator == "" {
		cfg.Integrator = integrator
	}
	if f.Changed("controller") || cfg.Controller == "" {
		cfg.Controller = controller
	}
	if f.Changed("adaptive") {
		cfg.Adaptive = adaptive
	}
	if f.Changed("tol") || cfg.Tolerance == 0 {
		cfg.Tolerance = tolerance
	}
	if f.Changed("parallel") {
		cfg.Parallel = parallel
	}
	if f.Changed("kp") {
		cfg.ControllerParams.Kp = kp
	}
	if f.Changed("ki") {
		cfg.ControllerParams.Ki = ki
	}
	if f.Changed("kd") {
		cfg.ControllerParams.Kd = kd
	}
	if f.Changed("target") {
		cfg.ControllerParams.Target = target
	}
	if f.Changed("index") {
		cfg.ControllerParams.Index = index
	}

	overrides, err := parseSets(sets)
	if err != nil {
		return nil, err
	}
	if len(overrides) > 0 && cfg.Params == nil {
		cfg.Params = make(map[string]float64, len(overrides))
	}
	for k, v := range overrides {
		cfg.Params[k] = v
	}
	return cfg, cfg.Validate()
}

func parseSets(sets []string) (map[string]float64, error) {
	out := make(map[string]float64, len(sets))
	for _, s := range sets {
		name, value, ok := strings.Cut(s, "=")
		if !ok {
			return nil, fmt.Errorf("--set %q: want name=value", s)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("--set %q: %w", s, err)
		}
		out[strings.TrimSpace(name)] = v
	}
	return out, nil
}

func listMechanisms(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDESCRIPTION\tPARAMETERS")
	for _, name := range mechanisms.Names() {
		m, _ := mechanisms.Get(name)
		fmt.Fprintf(w, "%s\t%s\t%s\n", m.Name, m.Description, strings.Join(m.ParamNames(), " "))
	}
	return w.Flush()
}
