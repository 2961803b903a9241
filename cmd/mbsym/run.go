package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/mbsym/internal/assembly"
	"github.com/san-kum/mbsym/internal/dynamo"
	"github.com/san-kum/mbsym/internal/experiment"
	"github.com/san-kum/mbsym/internal/mechanisms"
	"github.com/san-kum/mbsym/internal/storage"
	"github.com/san-kum/mbsym/internal/viz"
)

func derive(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	m, err := mechanisms.Get(args[0])
	if err != nil {
		return err
	}
	overrides, err := parseSets(sets)
	if err != nil {
		return err
	}
	model, err := m.Build(overrides, assembly.WithLogger(logger))
	if err != nil {
		return err
	}
	start := time.Now()
	reduced, err := model.Reduce(ctx)
	if err != nil {
		return err
	}

	fmt.Println(viz.Title.Render(m.Name) + " " + viz.Subtle.Render(m.Description))
	fmt.Println()
	fmt.Print(viz.Derivation(reduced, width))
	fmt.Println(viz.Subtle.Render(fmt.Sprintf("reduced in %v", time.Since(start).Round(time.Millisecond))))
	return nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	mechanism := ""
	if len(args) > 0 {
		mechanism = args[0]
	}
	cfg, err := resolveConfig(cmd, mechanism)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exp, err := experiment.New(ctx, cfg, logger)
	if err != nil {
		return err
	}

	start := time.Now()
	var result *dynamo.Result
	if live {
		result, err = runLive(ctx, exp)
	} else {
		fmt.Printf("running %s simulation...\n", cfg.Mechanism)
		result, err = exp.Run(ctx)
	}
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(exp.Metadata(), result)
	if err != nil {
		return err
	}
	printSummary(runID, elapsed, result)

	if sweepN > 1 {
		return runSweep(ctx, exp, st)
	}
	return nil
}

// runLive runs exp behind a viz.Live view. Quitting the view cancels the
// run; the partial trajectory is still returned for storage.
func runLive(ctx context.Context, exp *experiment.Experiment) (*dynamo.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	view := viz.NewLive(exp.Config().Mechanism, exp.StateNames(), cancel)
	p := tea.NewProgram(view)
	obs := viz.NewLiveObserver(p.Send, exp.System(), time.Second/30, pace)

	type outcome struct {
		result *dynamo.Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := exp.RunObserved(ctx, obs)
		done <- outcome{res, err}
		p.Send(viz.DoneMsg{Result: res, Err: err})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-done
		return nil, fmt.Errorf("live view: %w", err)
	}
	cancel()
	o := <-done
	if errors.Is(o.err, context.Canceled) && o.result != nil {
		logger.Info("run stopped early", "steps", o.result.StepsTaken)
		return o.result, nil
	}
	return o.result, o.err
}

func printSummary(runID string, elapsed time.Duration, result *dynamo.Result) {
	fmt.Printf("completed in %v\n", elapsed.Round(time.Microsecond))
	fmt.Printf("run id: %s\n", viz.Title.Render(runID))
	fmt.Printf("steps: %d\n", result.StepsTaken)
	if len(result.States) > 1 {
		u := make([]float64, len(result.States))
		for i, x := range result.States {
			u[i] = x[0]
		}
		fmt.Printf("u0: %s\n", viz.Sparkline(u, 60))
	}
	fmt.Println("\nmetrics:")
	fmt.Print(viz.Metrics(result.Metrics))
	for _, err := range result.Errors {
		fmt.Println(viz.Bad.Render("stopped: ") + err.Error())
	}
}

// runSweep reruns the experiment from sweepN initial angles spread
// around q0 and stores each run.
func runSweep(ctx context.Context, exp *experiment.Experiment, st *storage.Store) error {
	q0 := exp.InitialState()[0]
	values := make([]float64, sweepN)
	for i := range values {
		values[i] = q0 - spread + 2*spread*float64(i)/float64(sweepN-1)
	}

	results, err := exp.Batch(ctx, initialStates(exp, values))
	if err != nil {
		return err
	}

	fmt.Printf("\nsweep over %d initial angles:\n", sweepN)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Q0\tRUN\tSTEPS\tENERGY_DRIFT\tSTATUS")
	for i, r := range results {
		runID, err := st.Save(exp.Metadata(), r)
		if err != nil {
			return err
		}
		status := viz.Good.Render("ok")
		if len(r.Errors) > 0 {
			status = viz.Bad.Render(r.Errors[0].Error())
		}
		fmt.Fprintf(w, "%.4f\t%s\t%d\t%.2e\t%s\n", values[i], runID, r.StepsTaken, r.EnergyDrift, status)
	}
	return w.Flush()
}

func initialStates(exp *experiment.Experiment, values []float64) []dynamo.State {
	x0s := make([]dynamo.State, len(values))
	for i, v := range values {
		x0s[i] = exp.InitialState()
		x0s[i][0] = v
	}
	return x0s
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("comparing integrators for %s (dt=%.4f, duration=%.1fs)\n\n", cfg.Mechanism, cfg.Dt, cfg.Duration)
	fmt.Printf("%-12s  %-12s  %-12s  %-12s  %-12s\n", "integrator", "final_u0", "energy_drift", "residual", "time_ms")
	fmt.Println(strings.Repeat("-", 66))

	for _, name := range args[1:] {
		c := cfg.Clone()
		c.Integrator = name
		exp, err := experiment.New(ctx, c, logger)
		if err != nil {
			fmt.Printf("%-12s  error: %v\n", name, err)
			continue
		}

		start := time.Now()
		result, err := exp.Run(ctx)
		elapsed := time.Since(start)
		if err != nil {
			return err
		}
		if len(result.Errors) > 0 {
			fmt.Printf("%-12s  stopped: %v\n", name, result.Errors[0])
			continue
		}

		fmt.Printf("%-12s  %12.6f  %12.2e  %12.2e  %12.2f\n", name, result.Final()[0], result.EnergyDrift,
			result.Metrics["closure_residual"], float64(elapsed.Microseconds())/1000)
	}
	return nil
}
