package sim

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/mbsym/internal/dynamo"
)

// Sweep runs one simulation per initial state concurrently. Integrators
// and controllers are stateful, so newSim must return a fresh Simulator on
// every call; the system itself may be shared if it is safe for concurrent
// use. Results are returned in the order of x0s.
func Sweep(ctx context.Context, newSim func() (*Simulator, error), x0s []dynamo.State, cfg dynamo.Config) ([]*dynamo.Result, error) {
	results := make([]*dynamo.Result, len(x0s))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, x0 := range x0s {
		g.Go(func() error {
			s, err := newSim()
			if err != nil {
				return err
			}
			res, err := s.Run(ctx, x0, cfg)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
