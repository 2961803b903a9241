// Package export renders stored trajectories to SVG.
package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/mbsym/internal/analysis"
)

// PhaseSVG draws the portrait as a single polyline scaled to
// width×height with a 10% margin.
func PhaseSVG(p *analysis.PhasePortrait, width, height int, stroke string) string {
	if p == nil || len(p.Points) < 2 {
		return ""
	}
	return polyline(p.Points, width, height, stroke)
}

// SeriesSVG draws values against times.
func SeriesSVG(times, values []float64, width, height int, stroke string) string {
	n := min(len(times), len(values))
	if n < 2 {
		return ""
	}
	points := make([]analysis.Point, n)
	for i := range points {
		points[i] = analysis.Point{X: times[i], Y: values[i]}
	}
	return polyline(points, width, height, stroke)
}

func polyline(points []analysis.Point, width, height int, stroke string) string {
	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}
	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="`, width, height, width, height, stroke)

	for i, p := range points {
		x := (p.X - minX) / rangeX * float64(width)
		y := float64(height) - (p.Y-minY)/rangeY*float64(height)
		cmd := " L"
		if i == 0 {
			cmd = "M"
		}
		fmt.Fprintf(&sb, "%s%.1f,%.1f", cmd, x, y)
	}
	sb.WriteString("\"/>\n</svg>\n")
	return sb.String()
}
