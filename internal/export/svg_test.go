package export

import (
	"strings"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/san-kum/mbsym/internal/analysis"
)

func TestSeriesSVG(t *testing.T) {
	g := NewWithT(t)

	svg := SeriesSVG([]float64{0, 1, 2}, []float64{0, 1, 0}, 120, 100, "#00ff88")
	g.Expect(svg).To(HavePrefix("<?xml"))
	g.Expect(svg).To(ContainSubstring(`width="120" height="100"`))
	g.Expect(svg).To(ContainSubstring(`stroke="#00ff88"`))
	// x spans 0..2 with a 10% margin each side: 0 maps to 10, 2 to 110.
	g.Expect(svg).To(ContainSubstring(`d="M10.0,91.7 L60.0,8.3 L110.0,91.7"`))

	g.Expect(SeriesSVG([]float64{0}, []float64{1}, 10, 10, "red")).To(BeEmpty())
}

func TestPhaseSVG(t *testing.T) {
	g := NewWithT(t)

	p := &analysis.PhasePortrait{Points: []analysis.Point{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 1, Y: 1}}}
	svg := PhaseSVG(p, 50, 50, "red")
	g.Expect(strings.Count(svg, " L")).To(Equal(2))
	g.Expect(svg).To(HaveSuffix("</svg>\n"))

	g.Expect(PhaseSVG(nil, 50, 50, "red")).To(BeEmpty())
}
