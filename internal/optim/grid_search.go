// Package optim searches run parameters for the best value of a metric.
package optim

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/mbsym/internal/config"
	"github.com/san-kum/mbsym/internal/dynamo"
	"github.com/san-kum/mbsym/internal/experiment"
)

// GridSearch evaluates every combination of the named values. Names kp,
// ki, kd and target set controller gains; any other name is a mechanism
// parameter.
type GridSearch struct {
	names  []string
	ranges [][]float64
	limit  int
}

func NewGridSearch(names []string, ranges [][]float64) *GridSearch {
	return &GridSearch{names: names, ranges: ranges, limit: 4}
}

// Best is the winning grid point.
type Best struct {
	Params map[string]float64
	Value  float64
	Runs   int
}

// Search minimizes metric over the grid. Points that fail to build, stop
// early or do not report the metric are skipped.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, metric string, logger *slog.Logger) (*Best, error) {
	if len(g.names) != len(g.ranges) {
		return nil, fmt.Errorf("%w: %d names for %d ranges", dynamo.ErrDimensionMismatch, len(g.names), len(g.ranges))
	}
	if logger == nil {
		logger = slog.Default()
	}

	var (
		mu   sync.Mutex
		best = &Best{Value: math.Inf(1)}
	)
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.limit)
	for _, point := range g.points() {
		eg.Go(func() error {
			val, ok := evaluate(ctx, base, point, metric, logger)
			if err := ctx.Err(); err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			best.Runs++
			if ok && val < best.Value {
				best.Value, best.Params = val, point
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if best.Params == nil {
		return nil, fmt.Errorf("no grid point reported %q", metric)
	}
	return best, nil
}

// points expands the grid in row-major order.
func (g *GridSearch) points() []map[string]float64 {
	out := []map[string]float64{{}}
	for i, name := range g.names {
		next := make([]map[string]float64, 0, len(out)*len(g.ranges[i]))
		for _, p := range out {
			for _, v := range g.ranges[i] {
				q := make(map[string]float64, len(p)+1)
				for k, pv := range p {
					q[k] = pv
				}
				q[name] = v
				next = append(next, q)
			}
		}
		out = next
	}
	return out
}

func evaluate(ctx context.Context, base *config.Config, point map[string]float64, metric string, logger *slog.Logger) (float64, bool) {
	cfg := base.Clone()
	if cfg.Params == nil {
		cfg.Params = map[string]float64{}
	}
	for k, v := range point {
		switch k {
		case "kp":
			cfg.ControllerParams.Kp = v
		case "ki":
			cfg.ControllerParams.Ki = v
		case "kd":
			cfg.ControllerParams.Kd = v
		case "target":
			cfg.ControllerParams.Target = v
		default:
			cfg.Params[k] = v
		}
	}

	exp, err := experiment.New(ctx, cfg, logger)
	if err != nil {
		logger.Debug("grid point skipped", "point", point, "err", err)
		return 0, false
	}
	result, err := exp.Run(ctx)
	if err != nil || len(result.Errors) > 0 {
		return 0, false
	}
	val, ok := result.Metrics[metric]
	if !ok || math.IsNaN(val) {
		return 0, false
	}
	return val, true
}
