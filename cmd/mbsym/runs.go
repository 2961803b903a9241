package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/mbsym/internal/analysis"
	"github.com/san-kum/mbsym/internal/dynamo"
	"github.com/san-kum/mbsym/internal/export"
	"github.com/san-kum/mbsym/internal/storage"
)

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
	fmt.Fprintln(w, "ID\tMECHANISM\tTIME\tDURATION\tDT\tINTEG\tCTRL\tSTEPS\tSTATUS")
	for _, run := range runs {
		status := "ok"
		if len(run.Errors) > 0 {
			status = "stopped"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%s\t%s\t%d\t%s\n",
			run.ID,
			run.Mechanism,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Integrator,
			run.Controller,
			run.Steps,
			status,
		)
	}
	return w.Flush()
}

func loadRun(runID string) (*storage.RunMetadata, *dynamo.Result, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	result, err := st.LoadResult(runID)
	if err != nil {
		return nil, nil, err
	}
	if len(result.States) == 0 {
		return nil, nil, fmt.Errorf("run %s has no data", runID)
	}
	return meta, result, nil
}

// columnName labels state column i after the run's coordinates.
func columnName(meta *storage.RunMetadata, i int) string {
	n := len(meta.Coordinates)
	switch {
	case i < n:
		return meta.Coordinates[i]
	case i < 2*n:
		return "d/dt " + meta.Coordinates[i-n]
	}
	return fmt.Sprintf("x%d", i)
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, result, err := loadRun(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("mechanism: %s\n", meta.Mechanism)
	fmt.Printf("samples: %d\n\n", len(result.States))

	for i := 0; i < min(len(result.States[0]), 6); i++ {
		data, _ := analysis.Column(result, i)
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(columnName(meta, i)+" vs time"),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, result, err := loadRun(args[0])
	if err != nil {
		return err
	}
	if meta.Adaptive {
		fmt.Println("warning: adaptive run, samples are not evenly spaced")
	}

	data, err := analysis.Column(result, column)
	if err != nil {
		return err
	}
	ps := analysis.PowerSpectrum(data)
	if len(ps) < 4 {
		return analysis.ErrTooShort
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("mechanism: %s\n\n", meta.Mechanism)
	graph := asciigraph.Plot(ps[:len(ps)/4],
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption("power spectrum ("+columnName(meta, column)+")"),
	)
	fmt.Println(graph)
	fmt.Println()

	freq, err := analysis.DominantFrequency(data, analysis.SampleInterval(result))
	if err != nil {
		return err
	}
	fmt.Printf("dominant frequency: %.3f hz\n", freq)
	if freq > 0 {
		fmt.Printf("period: %.3f s\n", 1.0/freq)
	}
	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	meta, result, err := loadRun(args[0])
	if err != nil {
		return err
	}

	var p *analysis.PhasePortrait
	title := "phase portrait"
	if cross >= 0 {
		p, err = analysis.NewPoincareSection(result, cross, level, xAxis, yAxis)
		title = fmt.Sprintf("poincaré section (%s = %g)", columnName(meta, cross), level)
	} else {
		p, err = analysis.NewPhasePortrait(result, xAxis, yAxis)
	}
	if err != nil {
		return err
	}
	if len(p.Points) == 0 {
		fmt.Println("no crossings detected")
		return nil
	}

	fmt.Printf("%s: %s\n", title, meta.ID)
	fmt.Printf("x: %s, y: %s, points: %d\n\n", columnName(meta, xAxis), columnName(meta, yAxis), len(p.Points))
	fmt.Print(p.ASCII(80, 24))
	return nil
}

func output() (io.WriteCloser, error) {
	if out == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(out)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, result, err := loadRun(args[0])
	if err != nil {
		return err
	}
	w, err := output()
	if err != nil {
		return err
	}
	if err := storage.ExportJSON(w, *meta, result); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func exportSVG(cmd *cobra.Command, args []string) error {
	_, result, err := loadRun(args[0])
	if err != nil {
		return err
	}
	p, err := analysis.NewPhasePortrait(result, xAxis, yAxis)
	if err != nil {
		return err
	}
	w, err := output()
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, export.PhaseSVG(p, 800, 600, "#00ff88")); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
