package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/mbsym/internal/automation"
	"github.com/san-kum/mbsym/internal/optim"
	"github.com/san-kum/mbsym/internal/storage"
	"github.com/san-kum/mbsym/internal/viz"
)

var (
	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int

	trials  int
	perturb float64
	seed    int64

	grid   []string
	metric string
)

func batchCommands() []*cobra.Command {
	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run and store every step of a yaml scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	paramSweepCmd := &cobra.Command{
		Use:   "param-sweep [mechanism]",
		Short: "rerun a mechanism over a range of one parameter",
		Args:  cobra.MaximumNArgs(1),
		RunE:  paramSweep,
	}
	runFlags(paramSweepCmd)
	paramSweepCmd.Flags().StringVar(&sweepParam, "param", "", "mechanism parameter to sweep")
	paramSweepCmd.Flags().Float64Var(&sweepMin, "min", 0, "first value")
	paramSweepCmd.Flags().Float64Var(&sweepMax, "max", 1, "last value")
	paramSweepCmd.Flags().IntVar(&sweepSteps, "steps", 5, "number of values")
	_ = paramSweepCmd.MarkFlagRequired("param")

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo [mechanism]",
		Short: "random perturbations of the initial state",
		Args:  cobra.MaximumNArgs(1),
		RunE:  monteCarlo,
	}
	runFlags(monteCarloCmd)
	monteCarloCmd.Flags().IntVar(&trials, "trials", 20, "number of trials")
	monteCarloCmd.Flags().Float64Var(&perturb, "perturb", 0.1, "maximum perturbation per state component")
	monteCarloCmd.Flags().Int64Var(&seed, "seed", 1, "random seed")

	tuneCmd := &cobra.Command{
		Use:   "tune [mechanism]",
		Short: "grid search parameters or gains for the lowest metric",
		Args:  cobra.MaximumNArgs(1),
		RunE:  tune,
	}
	runFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVar(&grid, "grid", nil, "name=v1,v2,... (repeatable)")
	tuneCmd.Flags().StringVar(&metric, "metric", "tracking_error", "metric to minimize")
	_ = tuneCmd.MarkFlagRequired("grid")

	return []*cobra.Command{scenarioCmd, paramSweepCmd, monteCarloCmd, tuneCmd}
}

func runScenario(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	fmt.Printf("scenario %s: %s\n\n", viz.Title.Render(scenario.Name), scenario.Description)
	results, runErr := automation.RunScenario(ctx, scenario, logger)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tNAME\tRUN\tSTEPS\tSTATUS")
	for _, r := range results {
		runID, err := st.Save(r.Experiment.Metadata(), r.Result)
		if err != nil {
			return err
		}
		status := "ok"
		if len(r.Result.Errors) > 0 {
			status = r.Result.Errors[0].Error()
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", r.Step, r.Name, runID, r.Result.StepsTaken, status)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return runErr
}

func paramSweep(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	base, err := resolveConfig(cmd, firstArg(args))
	if err != nil {
		return err
	}
	sweep := &automation.ParameterSweep{Base: base, Param: sweepParam, Min: sweepMin, Max: sweepMax, Steps: sweepSteps}
	results, err := automation.RunSweep(ctx, sweep, logger)
	if err != nil {
		return err
	}

	fmt.Printf("sweep %s over %s\n\n", sweepParam, base.Mechanism)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VALUE\tMIN_E\tMAX_E\tRESIDUAL\tSTATUS")
	for _, r := range results {
		status := viz.Good.Render("ok")
		if r.Err != nil {
			status = viz.Bad.Render(r.Err.Error())
		}
		fmt.Fprintf(w, "%.5g\t%.5g\t%.5g\t%.2e\t%s\n", r.Value, r.MinEnergy, r.MaxEnergy, r.Metrics["closure_residual"], status)
	}
	return w.Flush()
}

func monteCarlo(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	base, err := resolveConfig(cmd, firstArg(args))
	if err != nil {
		return err
	}
	results, err := automation.RunMonteCarlo(ctx, &automation.MonteCarlo{
		Base: base, Perturbation: perturb, Trials: trials, Seed: seed,
	}, logger)
	if err != nil {
		return err
	}

	stable, unstable := automation.MonteCarloStats(results)
	fmt.Printf("monte carlo: %s, %d trials, perturbation %g\n", base.Mechanism, trials, perturb)
	fmt.Printf("  %s %d\n", viz.Good.Render("stable  "), stable)
	fmt.Printf("  %s %d\n", viz.Bad.Render("unstable"), unstable)
	return nil
}

func tune(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	base, err := resolveConfig(cmd, firstArg(args))
	if err != nil {
		return err
	}
	names, ranges, err := parseGrid(grid)
	if err != nil {
		return err
	}

	best, err := optim.NewGridSearch(names, ranges).Search(ctx, base, metric, logger)
	if err != nil {
		return err
	}
	fmt.Printf("best %s after %d runs: %s\n", metric, best.Runs, viz.MetricValue.Render(fmt.Sprintf("%.6g", best.Value)))
	for _, name := range names {
		fmt.Printf("  %s = %g\n", name, best.Params[name])
	}
	return nil
}

func parseGrid(specs []string) ([]string, [][]float64, error) {
	names := make([]string, 0, len(specs))
	ranges := make([][]float64, 0, len(specs))
	for _, spec := range specs {
		name, list, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, nil, fmt.Errorf("--grid %q: want name=v1,v2,...", spec)
		}
		var values []float64
		for _, f := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("--grid %q: %w", spec, err)
			}
			values = append(values, v)
		}
		names = append(names, strings.TrimSpace(name))
		ranges = append(ranges, values)
	}
	return names, ranges, nil
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
