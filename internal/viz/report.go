package viz

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/san-kum/mbsym/internal/assembly"
	"github.com/san-kum/mbsym/internal/symbolic"
)

// Derivation renders every loop's closure and the reduced dimensions.
// Expressions longer than width runes are cut unless width <= 0.
func Derivation(r *assembly.Reduced, width int) string {
	var sb strings.Builder
	for i, l := range r.Loops {
		c := r.Closures[i]
		var body strings.Builder
		fmt.Fprintf(&body, "%s %s\n", MetricLabel.Render("kind"), l.Kind())
		body.WriteString(Subtle.Render("v(u)") + "\n")
		for k, v := range c.V {
			fmt.Fprintf(&body, "  %s = %s\n", l.V().Q[k], cut(v.String(), width))
		}
		body.WriteString(Subtle.Render("Bvu") + "\n")
		writeMatrix(&body, c.Bvu, width)
		body.WriteString(Subtle.Render("b_prime") + "\n")
		writeMatrix(&body, c.BPrime, width)

		sb.WriteString(Title.Render("loop "+l.Name()) + "\n")
		sb.WriteString(Panel.Render(strings.TrimSuffix(body.String(), "\n")) + "\n")
	}

	names := func(n int, at func(int) string) string {
		out := make([]string, n)
		for i := range out {
			out[i] = at(i)
		}
		return strings.Join(out, ", ")
	}
	fmt.Fprintf(&sb, "%s %d (%s)\n", MetricLabel.Render("independent"), len(r.U),
		names(len(r.U), func(i int) string { return r.U[i].Name }))
	fmt.Fprintf(&sb, "%s %d (%s)\n", MetricLabel.Render("dependent"), len(r.V),
		names(len(r.V), func(i int) string { return r.V[i].Name }))
	fmt.Fprintf(&sb, "%s %d\n", MetricLabel.Render("state dim"), 2*r.DOF())
	return sb.String()
}

func writeMatrix(sb *strings.Builder, m symbolic.Matrix, width int) {
	s := m.Shape()
	if s.Cols == 0 {
		for i, e := range m.Elems() {
			fmt.Fprintf(sb, "  [%d] %s\n", i, cut(e.String(), width))
		}
		return
	}
	for i := 0; i < s.Rows; i++ {
		for j := 0; j < s.Cols; j++ {
			fmt.Fprintf(sb, "  [%d,%d] %s\n", i, j, cut(m.At(i, j).String(), width))
		}
	}
}

func cut(s string, width int) string {
	r := []rune(s)
	if width <= 0 || len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}

// Metrics renders name/value pairs sorted by name. Non-finite values and
// a stability below one are flagged.
func Metrics(m map[string]float64) string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, k := range names {
		v := m[k]
		style := MetricValue
		switch {
		case math.IsNaN(v) || math.IsInf(v, 0):
			style = Bad
		case k == "stability" && v < 1:
			style = Warn
		}
		fmt.Fprintf(&sb, "  %s %s\n", MetricLabel.Render(fmt.Sprintf("%-18s", k)), style.Render(fmt.Sprintf("%.6g", v)))
	}
	return sb.String()
}
