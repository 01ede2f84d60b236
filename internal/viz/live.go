package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/morphrace/internal/contest"
	"github.com/san-kum/morphrace/internal/dynamo"
	"github.com/san-kum/morphrace/internal/engine"
)

const (
	frameRate       = 60
	historyCapacity = 240
	trailCapacity   = 600
	trackWidth      = 60
	trackHeight     = 22
	minTrackSpan    = 30.0
)

const (
	statusReady    = "READY"
	statusRunning  = "RUNNING"
	statusPaused   = "PAUSED"
	statusFinished = "FINISHED"
)

type tickMsg time.Time

// Builder constructs a fresh engine. The live view calls it again on reset.
type Builder func() (engine.Engine, error)

// finishLiner is implemented by engines with a finish line.
type finishLiner interface {
	FinishLine() float64
}

// Model drives one engine from the terminal at a fixed frame rate.
// Simulated time only advances while the session is running.
type Model struct {
	build  Builder
	eng    engine.Engine
	hold   *KeyHold
	track  *Canvas
	body   *Canvas
	title  string
	now    float64
	snap   engine.Snapshot
	err    error
	speeds [2][]float64
	thrust []float64
	trails [2][]dynamo.Vec2

	started bool
	paused  bool
}

func NewModel(build Builder, title string) (Model, error) {
	eng, err := build()
	if err != nil {
		return Model{}, err
	}
	return Model{
		build: build,
		eng:   eng,
		hold:  NewKeyHold(DefaultHoldWindow),
		track: NewCanvas(trackWidth, trackHeight),
		body:  NewCanvas(20, 5),
		title: title,
		snap:  eng.Snapshot(),
	}, nil
}

// Run opens the live view full screen and blocks until the user quits.
func Run(build Builder, title string) error {
	m, err := NewModel(build, title)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch key := msg.String(); key {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.toggle()
		case "r":
			m.reset()
		case "t":
			NextTheme()
		default:
			if tok, ok := Token(key); ok {
				m.hold.Press(tok, m.now)
			}
		}
	case tickMsg:
		m.step()
		return m, tick()
	}
	return m, nil
}

func (m Model) Status() string {
	switch {
	case m.snap.Completed:
		return statusFinished
	case !m.started:
		return statusReady
	case m.paused:
		return statusPaused
	}
	return statusRunning
}

func (m Model) Snapshot() engine.Snapshot { return m.snap }

func (m *Model) toggle() {
	if !m.started {
		m.eng.Start(m.now)
		m.started = true
		m.paused = false
		m.snap = m.eng.Snapshot()
		return
	}
	m.paused = !m.paused
}

func (m *Model) reset() {
	eng, err := m.build()
	if err != nil {
		m.err = err
		return
	}
	m.eng, m.err = eng, nil
	m.now = 0
	m.started, m.paused = false, false
	m.hold.Clear()
	m.speeds = [2][]float64{}
	m.trails = [2][]dynamo.Vec2{}
	m.thrust = nil
	m.snap = eng.Snapshot()
}

func (m *Model) step() {
	if !m.started || m.paused || m.snap.Completed {
		return
	}
	m.now += 1000.0 / frameRate
	m.eng.Update(1.0/frameRate, m.now, m.hold.Active(m.now))
	m.snap = m.eng.Snapshot()

	for i, c := range m.snap.Creatures {
		if i >= len(m.speeds) {
			break
		}
		m.speeds[i] = appendCapped(m.speeds[i], c.Speed, historyCapacity)
		m.trails[i] = appendCapped(m.trails[i], topDown(c.Position), trailCapacity)
	}
	if len(m.snap.Creatures) > 0 {
		m.thrust = appendCapped(m.thrust, m.snap.Creatures[0].Control.Throttle, historyCapacity)
	}
}

func appendCapped[T any](s []T, v T, limit int) []T {
	s = append(s, v)
	if len(s) > limit {
		s = s[len(s)-limit:]
	}
	return s
}

func (m Model) View() string {
	m.drawTrack()
	trackView := canvasStyle.Render(lipgloss.NewStyle().Foreground(CurrentTheme.Racer).Render(m.track.String()))

	var s strings.Builder
	s.WriteString(GradientText(strings.ToUpper(m.title), CurrentTheme.Title, CurrentTheme.Accent) + "\n\n")
	status := m.Status()
	s.WriteString(statusStyles[status].Render(status) + "\n\n")
	if m.err != nil {
		s.WriteString(lipgloss.NewStyle().Foreground(CurrentTheme.Finish).Render(m.err.Error()) + "\n\n")
	}

	s.WriteString(row("Time", fmt.Sprintf("%.2fs", m.snap.Time)))
	switch m.snap.Mode {
	case engine.ModeContest:
		m.writeContest(&s)
	default:
		m.writeRace(&s)
	}
	for i, c := range m.snap.Creatures {
		s.WriteString("\n" + lipgloss.NewStyle().Bold(true).Foreground(creatureColor(i)).
			Render(fmt.Sprintf("#%d %s (%s)", i+1, c.Kind, c.Driver)) + "\n")
		s.WriteString(row("Speed", fmt.Sprintf("%6.2f", c.Speed)))
		s.WriteString(row("Heading", fmt.Sprintf("%6.2f", c.Heading)))
		s.WriteString(row("Pos", fmt.Sprintf("%6.1f, %6.1f", c.Position.X, c.Position.Z)))
	}

	if chart := m.speedChart(); chart != "" {
		s.WriteString(graphStyle.Render(chart) + "\n")
	}
	s.WriteString(row("Throttle", SparklineChart(m.thrust, 30)))
	if body := m.drawBody(); body != "" {
		s.WriteString("\n" + lipgloss.NewStyle().Foreground(CurrentTheme.Muted).Render(body))
	}
	s.WriteString(helpStyle.Render("SPACE start/pause  R reset  T theme  Q quit\narrows/WASD drive"))

	return lipgloss.JoinHorizontal(lipgloss.Top, trackView, panelStyle.Render(s.String()))
}

func (m Model) writeRace(s *strings.Builder) {
	s.WriteString(row("Lap", fmt.Sprintf("%d/%d", m.snap.Lap, m.snap.TotalLaps)))
	progress := 1.0
	if !m.snap.Completed && m.snap.TotalLaps > 0 && len(m.snap.Creatures) > 0 {
		turns := math.Abs(m.snap.Creatures[0].TotalHeading) / (2 * math.Pi)
		progress = dynamo.Clamp(turns/float64(m.snap.TotalLaps), 0, 1)
	}
	s.WriteString(row("Progress", ProgressBar(progress, 20)))
	for i, split := range m.snap.Splits {
		s.WriteString(row(fmt.Sprintf("Split %d", i+1), fmt.Sprintf("%.2fs", split)))
	}
}

func (m Model) writeContest(s *strings.Builder) {
	finish := contest.DefaultFinishLine
	if f, ok := m.eng.(finishLiner); ok {
		finish = f.FinishLine()
	}
	s.WriteString(row("Finish", fmt.Sprintf("x = %.1f", finish)))
	s.WriteString(row("Winner", contest.Winner(m.snap.Winner).String()))
	for i, c := range m.snap.Creatures {
		frac := (c.Position.X - contest.StartX) / (finish - contest.StartX)
		s.WriteString(row(fmt.Sprintf("Lead %d", i+1), ProgressBar(frac, 20)))
	}
}

func (m Model) speedChart() string {
	var series [][]float64
	for _, sp := range m.speeds {
		if len(sp) > 1 {
			series = append(series, sp)
		}
	}
	if len(series) == 0 {
		return ""
	}
	return asciigraph.PlotMany(series,
		asciigraph.Height(5),
		asciigraph.Width(34),
		asciigraph.Caption("Speed"),
		asciigraph.SeriesColors(asciigraph.Cyan, asciigraph.Magenta))
}

// drawTrack renders trails, creatures and the finish line top-down.
func (m Model) drawTrack() {
	m.track.Clear()

	var pts []dynamo.Vec2
	for _, t := range m.trails {
		pts = append(pts, t...)
	}
	for _, c := range m.snap.Creatures {
		pts = append(pts, topDown(c.Position))
	}
	finish, hasFinish := 0.0, false
	if f, ok := m.eng.(finishLiner); ok && m.snap.Mode == engine.ModeContest {
		finish, hasFinish = f.FinishLine(), true
		pts = append(pts, dynamo.Vec2{X: finish})
	}
	vp := FitViewport(pts, minTrackSpan)

	if hasFinish {
		x0, y0 := m.track.Project(vp, dynamo.Vec2{X: finish, Y: vp.MaxZ})
		_, y1 := m.track.Project(vp, dynamo.Vec2{X: finish, Y: vp.MinZ})
		for y := y0; y <= y1; y += 2 {
			m.track.Set(x0, y)
		}
	}
	for _, t := range m.trails {
		for _, p := range t {
			m.track.Plot(vp, p)
		}
	}
	for _, c := range m.snap.Creatures {
		p := topDown(c.Position)
		x, y := m.track.Project(vp, p)
		m.track.Dot(x, y, 1)
		nose := p.Add(dynamo.Vec2{X: math.Sin(c.Heading), Y: math.Cos(c.Heading)}.Scale(minTrackSpan / 15))
		nx, ny := m.track.Project(vp, nose)
		m.track.DrawLine(x, y, nx, ny)
	}
}

// drawBody renders the first creature's soft-body profile.
func (m Model) drawBody() string {
	if len(m.snap.Nodes) == 0 || len(m.snap.Nodes[0]) == 0 {
		return ""
	}
	nodes := m.snap.Nodes[0]
	m.body.Clear()
	vp := FitViewport(nodes, 0.5)
	for _, n := range nodes {
		m.body.Plot(vp, n)
	}
	return m.body.String()
}

func row(label, value string) string {
	return labelStyle.Render(label) + valueStyle.Render(value) + "\n"
}

func creatureColor(i int) lipgloss.Color {
	if i == 0 {
		return CurrentTheme.Racer
	}
	return CurrentTheme.Rival
}

func topDown(p dynamo.Vec3) dynamo.Vec2 { return dynamo.Vec2{X: p.X, Y: p.Z} }
