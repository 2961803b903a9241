package storage

import (
	"encoding/json"
	"io"
	"math"

	"github.com/san-kum/mbsym/internal/dynamo"
)

// ExportData is the JSON export of a run. Non-finite samples, which
// encoding/json rejects, are written as null.
type ExportData struct {
	RunMetadata
	Times    []float64    `json:"times"`
	States   [][]*float64 `json:"states"`
	Controls [][]*float64 `json:"controls"`
}

func ExportJSON(w io.Writer, meta RunMetadata, result *dynamo.Result) error {
	data := ExportData{
		RunMetadata: meta,
		Times:       result.Times,
		States:      make([][]*float64, len(result.States)),
		Controls:    make([][]*float64, len(result.Controls)),
	}
	for i, s := range result.States {
		data.States[i] = nullable(s)
	}
	for i, c := range result.Controls {
		data.Controls[i] = nullable(c)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func nullable(row []float64) []*float64 {
	out := make([]*float64, len(row))
	for i := range row {
		if !math.IsNaN(row[i]) && !math.IsInf(row[i], 0) {
			v := row[i]
			out[i] = &v
		}
	}
	return out
}
