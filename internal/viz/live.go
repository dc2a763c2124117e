// Package viz renders a world live in the terminal: a braille canvas for
// the bodies and contact feed, a stats sidebar, and interactive solver
// parameter tuning.
package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/avbd2d/internal/engine"
	"github.com/san-kum/avbd2d/internal/metrics"
	"github.com/san-kum/avbd2d/internal/scene"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 600

	// Catch-up physics substeps are capped per animation frame; the rest
	// of the accumulator is discarded.
	maxSubsteps = 5

	dragStiffness = 1e4
)

type TickMsg time.Time

// Model drives a world at a fixed physics tick from the UI frame clock,
// using an accumulator so render rate and simulation rate stay decoupled.
type Model struct {
	world  *scene.World
	canvas *Canvas

	lastFrame   time.Time
	accumulator float64

	energy *metrics.Series

	selected int
	showHelp bool

	dragJoint *engine.Joint
	dragBody  *engine.Body
	lastMouse mgl64.Vec2
}

func NewModel(w *scene.World) Model {
	return Model{
		world:  w,
		canvas: NewCanvas(width, height),
		energy: metrics.NewSeries(historyCapacity),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

type param struct {
	name string
	get  func(s *engine.Solver) float64
	set  func(s *engine.Solver, v float64)
}

var params = []param{
	{"iterations",
		func(s *engine.Solver) float64 { return float64(s.Iterations()) },
		func(s *engine.Solver, v float64) { s.SetIterations(int(v + 0.5)) }},
	{"alpha",
		func(s *engine.Solver) float64 { return s.Alpha() },
		func(s *engine.Solver, v float64) { s.SetAlpha(v) }},
	{"beta",
		func(s *engine.Solver) float64 { return s.Beta() },
		func(s *engine.Solver, v float64) { s.SetBeta(v) }},
	{"gamma",
		func(s *engine.Solver) float64 { return s.Gamma() },
		func(s *engine.Solver, v float64) { s.SetGamma(v) }},
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.world.Solver.SetPaused(!m.world.Solver.Paused())
		case "r":
			m.releaseDrag()
			m.world.Reset()
			m.energy.Reset()
		case "tab":
			m.selected = (m.selected + 1) % len(params)
		case "up", "k":
			m.adjustParam(1.05)
		case "down", "j":
			m.adjustParam(0.95)
		case "?":
			m.showHelp = !m.showHelp
		}
	case tea.MouseMsg:
		m.handleMouse(msg)
	case TickMsg:
		now := time.Time(msg)
		if !m.lastFrame.IsZero() {
			m.accumulator += now.Sub(m.lastFrame).Seconds()
		}
		m.lastFrame = now

		dt := m.world.Solver.Dt()
		steps := 0
		for m.accumulator >= dt && steps < maxSubsteps {
			m.world.Solver.Step(dt)
			m.world.CullOutOfBounds()
			m.accumulator -= dt
			steps++
		}
		if steps == maxSubsteps {
			m.accumulator = 0
		}
		m.energy.Push(m.world.Solver.ElasticEnergy())

		return m, tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
	}
	return m, nil
}

func (m *Model) adjustParam(factor float64) {
	p := params[m.selected]
	cur := p.get(m.world.Solver)
	v := cur * factor
	if p.name == "iterations" {
		// Whole iterations: step by at least one so small counts still move.
		if factor > 1 {
			v = math.Max(v, cur+1)
		} else {
			v = math.Min(v, cur-1)
		}
		if v < 1 {
			v = 1
		}
	}
	p.set(m.world.Solver, v)
}

// Screen mapping: world origin at the canvas center, 30 world units of
// height visible.
func (m *Model) worldToScreen(p mgl64.Vec2) (int, int) {
	cw, ch := width*2, height*4
	s := float64(ch) / 30.0
	return cw/2 + int(p[0]*s), ch/2 - int(p[1]*s)
}

func (m *Model) screenToWorld(x, y int) mgl64.Vec2 {
	cw, ch := width*2, height*4
	s := float64(ch) / 30.0
	return mgl64.Vec2{float64(x-cw/2) / s, float64(ch/2-y) / s}
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	// Cell coordinates to canvas sub-pixels, minus the canvas padding.
	p := m.screenToWorld((msg.X-2)*2, (msg.Y-1)*4)

	switch msg.Action {
	case tea.MouseActionPress:
		body := m.pickBody(p)
		if body == nil {
			return
		}
		m.dragBody = body
		m.dragJoint = engine.NewJoint(m.world.Solver, nil, body, p, mgl64.Vec2{},
			mgl64.Vec3{dragStiffness, dragStiffness, 0}, math.Inf(1))
		body.SetDragged(true)
		m.lastMouse = p
	case tea.MouseActionMotion:
		if m.dragJoint == nil {
			return
		}
		m.dragJoint.SetAnchor(p)
		delta := p.Sub(m.lastMouse).Mul(60)
		m.dragBody.AddDragVelocity(mgl64.Vec3{delta[0], delta[1], 0})
		m.lastMouse = p
	case tea.MouseActionRelease:
		m.releaseDrag()
	}
}

func (m *Model) releaseDrag() {
	if m.dragJoint == nil {
		return
	}
	m.dragBody.SetDragged(false)
	m.world.Solver.DestroyForce(m.dragJoint)
	m.dragJoint = nil
	m.dragBody = nil
}

func (m *Model) pickBody(p mgl64.Vec2) *engine.Body {
	for _, b := range m.world.Solver.Bodies() {
		if b.IsStatic() {
			continue
		}
		local := b.Rotation().Transpose().Mul2x1(p.Sub(mgl64.Vec2{b.Position()[0], b.Position()[1]}))
		hx := b.Size()[0]/2 + 0.3
		hy := b.Size()[1]/2 + 0.3
		if math.Abs(local[0]) <= hx && math.Abs(local[1]) <= hy {
			return b
		}
	}
	return nil
}

func (m *Model) draw() {
	m.canvas.Clear()

	for _, b := range m.world.Solver.Bodies() {
		size := b.Size()
		if size[0] == 0 && size[1] == 0 {
			x, y := m.worldToScreen(mgl64.Vec2{b.Position()[0], b.Position()[1]})
			m.canvas.DrawDot(x, y, 1)
			continue
		}
		hx, hy := size[0]/2, size[1]/2
		corners := [4]mgl64.Vec2{{-hx, -hy}, {hx, -hy}, {hx, hy}, {-hx, hy}}
		xs := make([]int, 4)
		ys := make([]int, 4)
		for i, c := range corners {
			xs[i], ys[i] = m.worldToScreen(b.WorldPoint(c))
		}
		m.canvas.DrawPolygon(xs, ys)
	}

	for _, l := range m.world.Solver.ContactLinesToRender() {
		x0, y0 := m.worldToScreen(l.A)
		x1, y1 := m.worldToScreen(l.B)
		m.canvas.DrawLine(x0, y0, x1, y1)
	}
	for _, p := range m.world.Solver.ContactsToRender() {
		x, y := m.worldToScreen(p)
		m.canvas.DrawDot(x, y, 0)
	}
}

func (m Model) View() string {
	m.draw()
	canvasView := canvasStyle.Render(m.canvas.String())

	sv := m.world.Solver
	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.world.Desc.Name)) + "\n")

	status := "RUNNING"
	if sv.UrgentStop() {
		status = warnStyle.Render("URGENT STOP (press r)")
	} else if sv.Paused() {
		status = "PAUSED"
	}
	s.WriteString(status + "\n\n")

	if vals := m.energy.Values(); len(vals) > 1 {
		chart := asciigraph.Plot(vals, asciigraph.Height(4), asciigraph.Width(30),
			asciigraph.Caption("elastic energy"))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	s.WriteString(labelStyle.Render("Steps") + valueStyle.Render(fmt.Sprintf("%d", sv.Steps())) + "\n")
	s.WriteString(labelStyle.Render("Step time") + valueStyle.Render(sv.StepTime().String()) + "\n")
	s.WriteString(labelStyle.Render("Bodies") + valueStyle.Render(fmt.Sprintf("%d", len(sv.Bodies()))) + "\n")
	s.WriteString(labelStyle.Render("Contacts") + valueStyle.Render(fmt.Sprintf("%d", len(sv.ContactsToRender()))) + "\n")

	strong, medium, weak := 0, 0, 0
	for _, l := range sv.ContactLinesToRender() {
		switch {
		case l.Thickness >= 0.5:
			strong++
		case l.Thickness >= 0.4:
			medium++
		default:
			weak++
		}
	}
	legend := lipgloss.NewStyle().Foreground(LineColor(0.6)).Render(fmt.Sprintf("%d strong", strong)) + " " +
		lipgloss.NewStyle().Foreground(LineColor(0.45)).Render(fmt.Sprintf("%d medium", medium)) + " " +
		lipgloss.NewStyle().Foreground(LineColor(0.3)).Render(fmt.Sprintf("%d weak", weak))
	s.WriteString(labelStyle.Render("Links") + legend + "\n")

	s.WriteString("\nPARAMETERS\n")
	for i, p := range params {
		line := fmt.Sprintf("%-12s %.4g", p.name, p.get(sv))
		if i == m.selected {
			s.WriteString(activeParamStyle.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + labelStyle.Render(line) + "\n")
		}
	}

	s.WriteString(helpStyle.Render("\nSP:Pause R:Reset Q:Quit\nTab:Param ↑↓:Tune ?:Help\nMouse: drag bodies"))
	statsView := statsStyle.Render(s.String())
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)

	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  R        - Reset scene              ║
║  Q        - Quit                     ║
║  Tab      - Cycle solver parameters  ║
║  Up/K     - Increase parameter (+5%) ║
║  Down/J   - Decrease parameter (-5%) ║
║  Mouse    - Drag dynamic bodies      ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝
` + "\n\n" + mainView
	}
	return mainView
}
