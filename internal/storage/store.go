// Package storage persists simulation runs as a directory per run holding
// metadata.json and states.csv.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/san-kum/mbsym/internal/dynamo"
)

var ErrRunNotFound = errors.New("run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunMetadata describes a stored run. Coordinates names the independent
// coordinates in state order; non-finite metrics are listed in NonFinite
// instead of Metrics because JSON cannot carry them.
type RunMetadata struct {
	ID          string             `json:"id"`
	Mechanism   string             `json:"mechanism"`
	Timestamp   time.Time          `json:"timestamp"`
	Params      map[string]float64 `json:"params,omitempty"`
	Coordinates []string           `json:"coordinates"`
	Dt          float64            `json:"dt"`
	Duration    float64            `json:"duration"`
	Adaptive    bool               `json:"adaptive,omitempty"`
	Integrator  string             `json:"integrator"`
	Controller  string             `json:"controller"`
	Steps       int                `json:"steps"`
	EnergyDrift float64            `json:"energy_drift"`
	Metrics     map[string]float64 `json:"metrics"`
	NonFinite   []string           `json:"non_finite,omitempty"`
	Errors      []string           `json:"errors,omitempty"`
}

// Save writes the run and returns its ID. ID, Timestamp, Steps, Metrics
// and Errors are taken from the result.
func (s *Store) Save(meta RunMetadata, result *dynamo.Result) (string, error) {
	now := time.Now()
	meta.ID = fmt.Sprintf("%s_%d", meta.Mechanism, now.UnixNano())
	meta.Timestamp = now
	meta.Steps = result.StepsTaken
	meta.EnergyDrift = result.EnergyDrift
	meta.Metrics, meta.NonFinite = splitFinite(result.Metrics)
	meta.Errors = nil
	for _, err := range result.Errors {
		meta.Errors = append(meta.Errors, err.Error())
	}

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}
	if err := writeStates(filepath.Join(runDir, "states.csv"), meta.Coordinates, result); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func splitFinite(in map[string]float64) (map[string]float64, []string) {
	out := make(map[string]float64, len(in))
	var bad []string
	for k, v := range in {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			bad = append(bad, k)
			continue
		}
		out[k] = v
	}
	sort.Strings(bad)
	return out, bad
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// header names the state columns after the coordinates, falling back to
// x<i> when the names do not cover the state.
func header(coords []string, stateLen, controlLen int) []string {
	h := []string{"time"}
	if 2*len(coords) == stateLen {
		h = append(h, coords...)
		for _, c := range coords {
			h = append(h, "d_"+c)
		}
	} else {
		for i := 0; i < stateLen; i++ {
			h = append(h, fmt.Sprintf("x%d", i))
		}
	}
	for i := 0; i < controlLen; i++ {
		h = append(h, fmt.Sprintf("tau%d", i))
	}
	return h
}

func writeStates(path string, coords []string, result *dynamo.Result) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := csv.NewWriter(f)
	if len(result.States) == 0 {
		return nil
	}

	numControls := 0
	if len(result.Controls) > 0 {
		numControls = len(result.Controls[0])
	}
	if err := w.Write(header(coords, len(result.States[0]), numControls)); err != nil {
		return err
	}

	format := func(v float64) string { return strconv.FormatFloat(v, 'g', 12, 64) }
	for i := range result.States {
		row := []string{format(result.Times[i])}
		for _, v := range result.States[i] {
			row = append(row, format(v))
		}
		if i < len(result.Controls) {
			for _, v := range result.Controls[i] {
				row = append(row, format(v))
			}
		} else {
			for j := 0; j < numControls; j++ {
				row = append(row, "0")
			}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns the stored runs, oldest first. Directories without a
// readable metadata.json are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadResult reads the trajectory of a run back. Controls has one row per
// state; the final row is the zero padding written by Save.
func (s *Store) LoadResult(runID string) (*dynamo.Result, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(s.baseDir, runID, "states.csv"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	result := &dynamo.Result{
		Metrics:     meta.Metrics,
		EnergyDrift: meta.EnergyDrift,
		StepsTaken:  meta.Steps,
	}
	if len(records) < 2 {
		return result, nil
	}

	numControls := 0
	for _, col := range records[0] {
		if strings.HasPrefix(col, "tau") {
			numControls++
		}
	}
	stateLen := len(records[0]) - 1 - numControls

	for line, record := range records[1:] {
		vals := make([]float64, len(record))
		for i, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("run %s: line %d: %w", runID, line+2, err)
			}
			vals[i] = v
		}
		result.Times = append(result.Times, vals[0])
		result.States = append(result.States, dynamo.State(vals[1:1+stateLen]))
		result.Controls = append(result.Controls, dynamo.Control(vals[1+stateLen:]))
	}
	return result, nil
}
