package control

import (
	"fmt"
	"sort"

	"github.com/san-kum/mbsym/internal/dynamo"
)

var factories = map[string]func(dim int, params map[string]float64) dynamo.Controller{
	"none": func(dim int, _ map[string]float64) dynamo.Controller { return NewNone(dim) },
	"pid": func(dim int, p map[string]float64) dynamo.Controller {
		return NewPID(p["kp"], p["ki"], p["kd"], p["target"], dim, int(p["index"]))
	},
}

// New builds a controller by name for a system with dim independent
// coordinates. An empty name means "none".
func New(name string, dim int, params map[string]float64) (dynamo.Controller, error) {
	if name == "" {
		name = "none"
	}
	fn, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown controller: %s", name)
	}
	return fn(dim, params), nil
}

// Names returns the registered controller names, sorted.
func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
