// Package metrics holds scalar observers of a simulated trajectory.
package metrics

import "github.com/san-kum/mbsym/internal/dynamo"

// Defaults returns the metrics recorded for every run of dyn. Driven
// systems get no energy drift.
func Defaults(dyn dynamo.System) []dynamo.Metric {
	var ms []dynamo.Metric
	if d, ok := dyn.(dynamo.Driven); !ok || !d.Driven() {
		ms = append(ms, NewEnergyDrift(dyn))
	}
	return append(ms,
		NewStability(100.0),
		NewClosureResidual(dyn),
		NewControlEffort(),
	)
}
