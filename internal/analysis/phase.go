package analysis

import (
	"strings"

	"github.com/san-kum/mbsym/internal/dynamo"
)

type Point struct{ X, Y float64 }

// PhasePortrait holds the trajectory projected onto two state columns.
type PhasePortrait struct {
	XIndex, YIndex int
	Points         []Point
}

// NewPhasePortrait projects result onto columns xIdx and yIdx.
func NewPhasePortrait(result *dynamo.Result, xIdx, yIdx int) (*PhasePortrait, error) {
	if len(result.States) == 0 {
		return nil, ErrTooShort
	}
	n := len(result.States[0])
	if xIdx < 0 || yIdx < 0 || xIdx >= n || yIdx >= n {
		return nil, dynamo.ErrDimensionMismatch
	}

	p := &PhasePortrait{XIndex: xIdx, YIndex: yIdx, Points: make([]Point, 0, len(result.States))}
	for _, s := range result.States {
		p.Points = append(p.Points, Point{s[xIdx], s[yIdx]})
	}
	return p, nil
}

// NewPoincareSection records columns xIdx and yIdx, linearly
// interpolated, wherever column crossIdx passes level going upward.
func NewPoincareSection(result *dynamo.Result, crossIdx int, level float64, xIdx, yIdx int) (*PhasePortrait, error) {
	if len(result.States) < 2 {
		return nil, ErrTooShort
	}
	n := len(result.States[0])
	for _, idx := range []int{crossIdx, xIdx, yIdx} {
		if idx < 0 || idx >= n {
			return nil, dynamo.ErrDimensionMismatch
		}
	}

	section := &PhasePortrait{XIndex: xIdx, YIndex: yIdx}
	for i := 1; i < len(result.States); i++ {
		prev, curr := result.States[i-1], result.States[i]
		if !(prev[crossIdx] < level && curr[crossIdx] >= level) {
			continue
		}
		frac := (level - prev[crossIdx]) / (curr[crossIdx] - prev[crossIdx])
		section.Points = append(section.Points, Point{
			X: prev[xIdx] + frac*(curr[xIdx]-prev[xIdx]),
			Y: prev[yIdx] + frac*(curr[yIdx]-prev[yIdx]),
		})
	}
	return section, nil
}

// ASCII renders the points on a width×height character grid with axes
// drawn where they are in view.
func (p *PhasePortrait) ASCII(width, height int) string {
	if p == nil || len(p.Points) == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX := p.Points[0].X, p.Points[0].X
	minY, maxY := p.Points[0].Y, p.Points[0].Y
	for _, pt := range p.Points {
		minX, maxX = min(minX, pt.X), max(maxX, pt.X)
		minY, maxY = min(minY, pt.Y), max(maxY, pt.Y)
	}

	// 10% margin; a flat range is widened to 1.
	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX, maxX = minX-rangeX*0.1, maxX+rangeX*0.1
	minY, maxY = minY-rangeY*0.1, maxY+rangeY*0.1
	rangeX, rangeY = maxX-minX, maxY-minY

	col := func(x float64) int { return int((x - minX) / rangeX * float64(width-1)) }
	row := func(y float64) int { return height - 1 - int((y-minY)/rangeY*float64(height-1)) }

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}
	for _, pt := range p.Points {
		r, c := row(pt.Y), col(pt.X)
		if r >= 0 && r < height && c >= 0 && c < width {
			canvas[r][c] = '•'
		}
	}
	if minX <= 0 && maxX >= 0 {
		c := col(0)
		for r := range canvas {
			if canvas[r][c] == ' ' {
				canvas[r][c] = '│'
			}
		}
	}
	if minY <= 0 && maxY >= 0 {
		r := row(0)
		for c := range canvas[r] {
			if canvas[r][c] == ' ' {
				canvas[r][c] = '─'
			}
		}
	}

	var sb strings.Builder
	for _, line := range canvas {
		sb.WriteString(string(line))
		sb.WriteRune('\n')
	}
	return sb.String()
}
