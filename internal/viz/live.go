package viz

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/mbsym/internal/dynamo"
)

const historyCapacity = 240

// StepMsg is one sample of a running simulation.
type StepMsg struct {
	T        float64
	State    dynamo.State
	Residual float64
}

// DoneMsg reports the end of the run behind a Live view.
type DoneMsg struct {
	Result *dynamo.Result
	Err    error
}

// Live is a bubbletea model that follows a simulation running in another
// goroutine. It only renders; the run is fed in through StepMsg and ended
// by DoneMsg or by the user quitting.
type Live struct {
	title    string
	names    []string
	cancel   context.CancelFunc
	t        float64
	x        dynamo.State
	history  [][]float64
	residual float64
	worst    float64
	samples  int
	width    int
	done     bool
	stopped  bool
	err      error
	result   *dynamo.Result
}

// NewLive returns a view for a run whose state components are named by
// names. cancel is called when the user quits early.
func NewLive(title string, names []string, cancel context.CancelFunc) Live {
	return Live{
		title:   title,
		names:   names,
		cancel:  cancel,
		history: make([][]float64, len(names)),
		width:   60,
	}
}

func (m Live) Init() tea.Cmd { return nil }

func (m Live) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if !m.done && m.cancel != nil {
				m.cancel()
			}
			m.stopped = !m.done
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = max(msg.Width-30, 10)
	case StepMsg:
		m.t = msg.T
		m.x = msg.State
		m.samples++
		m.residual = msg.Residual
		if !(m.residual <= m.worst) {
			m.worst = m.residual
		}
		for i := range m.history {
			v := math.NaN()
			if i < len(msg.State) {
				v = msg.State[i]
			}
			h := append(m.history[i], v)
			if len(h) > historyCapacity {
				h = h[len(h)-historyCapacity:]
			}
			m.history[i] = h
		}
	case DoneMsg:
		m.done = true
		m.result = msg.Result
		m.err = msg.Err
		return m, tea.Quit
	}
	return m, nil
}

func (m Live) View() string {
	var sb strings.Builder
	sb.WriteString(Title.Render(m.title))
	sb.WriteString(Subtle.Render(fmt.Sprintf("  t = %.4f s  (%d frames)", m.t, m.samples)))
	sb.WriteString("\n\n")

	label := 0
	for _, n := range m.names {
		label = max(label, lipgloss.Width(n))
	}
	for i, n := range m.names {
		v := math.NaN()
		if i < len(m.x) {
			v = m.x[i]
		}
		fmt.Fprintf(&sb, "%s %s %s\n",
			MetricLabel.Render(fmt.Sprintf("%-*s", label, n)),
			MetricValue.Render(fmt.Sprintf("%+11.5f", v)),
			Sparkline(m.history[i], m.width))
	}

	sb.WriteString("\n")
	sb.WriteString(MetricLabel.Render("closure residual "))
	sb.WriteString(residualStyle(m.residual).Render(fmt.Sprintf("%.2e", m.residual)))
	sb.WriteString(Subtle.Render(fmt.Sprintf("  (max %.2e)", m.worst)))
	sb.WriteString("\n\n")

	switch {
	case m.err != nil:
		sb.WriteString(Bad.Render("error: " + m.err.Error()))
	case m.done:
		sb.WriteString(Good.Render("done"))
	default:
		sb.WriteString(Subtle.Render("q to stop"))
	}
	return Panel.Render(sb.String()) + "\n"
}

func residualStyle(r float64) lipgloss.Style {
	switch {
	case math.IsNaN(r) || r > 1e-6:
		return Bad
	case r > 1e-10:
		return Warn
	}
	return Good
}

// Result returns what the run reported, once DoneMsg has arrived.
func (m Live) Result() (*dynamo.Result, error) { return m.result, m.err }

// Stopped reports whether the user quit before the run finished.
func (m Live) Stopped() bool { return m.stopped }

// LiveObserver forwards simulator steps to a Live view at most once per
// interval. With a positive pace it also holds the simulation back so
// that pace simulated seconds take one wall-clock second.
type LiveObserver struct {
	send     func(tea.Msg)
	c        dynamo.Constrained
	interval time.Duration
	pace     float64

	start time.Time
	last  time.Time
}

// NewLiveObserver sends to send, normally (*tea.Program).Send. The
// residual is taken from dyn when it tracks closures.
func NewLiveObserver(send func(tea.Msg), dyn dynamo.System, interval time.Duration, pace float64) *LiveObserver {
	c, _ := dyn.(dynamo.Constrained)
	return &LiveObserver{send: send, c: c, interval: interval, pace: pace}
}

func (o *LiveObserver) OnStep(x dynamo.State, u dynamo.Control, t float64) {
	now := time.Now()
	if o.start.IsZero() {
		o.start = now
	}
	if o.pace > 0 {
		due := o.start.Add(time.Duration(t / o.pace * float64(time.Second)))
		if wait := due.Sub(now); wait > 0 {
			time.Sleep(wait)
			now = due
		}
	}
	if !o.last.IsZero() && now.Sub(o.last) < o.interval {
		return
	}
	o.last = now
	o.send(StepMsg{T: t, State: x.Clone(), Residual: o.residual(x, t)})
}

func (o *LiveObserver) residual(x dynamo.State, t float64) float64 {
	if o.c == nil {
		return 0
	}
	res, err := o.c.Residual(x, t)
	if err != nil {
		return math.NaN()
	}
	worst := 0.0
	for _, v := range res {
		worst = math.Max(worst, math.Abs(v))
	}
	return worst
}
