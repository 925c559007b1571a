// Interactive galaxy map demo: procedural starfield with pan/zoom,
// adaptive quality, and a debug overlay for the performance governor.
package main

import (
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/aldrenn/starmap/config"
	"github.com/aldrenn/starmap/core"
	"github.com/aldrenn/starmap/events"
	"github.com/aldrenn/starmap/governor"
	"github.com/aldrenn/starmap/module"
	"github.com/aldrenn/starmap/pool"
	"github.com/aldrenn/starmap/render"
	"github.com/aldrenn/starmap/status"
	"github.com/aldrenn/starmap/viewport"
	"github.com/aldrenn/starmap/visibility"
)

const (
	starCount    = 600
	worldSize    = 2000.0
	laneCount    = 300
	frameTick    = 16 * time.Millisecond
	gestureIdle  = 300 * time.Millisecond
	toastVisible = 3 * time.Second
)

// Cell is one positioned glyph in a module's frame output
type Cell struct {
	X, Y  int
	Ch    rune
	Style tcell.Style
}

// ===== Galaxy data =====

type star struct {
	id           uint64
	name         string
	pos          core.Vec2
	significance float64
	hue          float64
}

type lane struct {
	a, b int // star indices
}

// galaxy is the demo entity store; version moves on bulk updates
type galaxy struct {
	stars   []star
	lanes   []lane
	objects []visibility.Object
	byID    map[uint64]*star
	index   map[uint64]int
	version uint64
}

func newGalaxy(seed int64) *galaxy {
	rng := rand.New(rand.NewSource(seed))
	g := &galaxy{
		byID:    make(map[uint64]*star, starCount),
		index:   make(map[uint64]int, starCount),
		version: 1,
	}

	for i := 0; i < starCount; i++ {
		s := star{
			id:           uint64(i + 1),
			name:         fmt.Sprintf("HD-%04d", rng.Intn(10000)),
			pos:          core.Vec2{X: rng.Float64() * worldSize, Y: rng.Float64() * worldSize},
			significance: rng.Float64(),
			hue:          rng.Float64() * 360,
		}
		g.stars = append(g.stars, s)
	}
	for i := range g.stars {
		g.byID[g.stars[i].id] = &g.stars[i]
	}

	for i := 0; i < laneCount; i++ {
		a := rng.Intn(starCount)
		b := g.nearestTo(a, rng)
		if a != b {
			g.lanes = append(g.lanes, lane{a: a, b: b})
		}
	}

	g.objects = make([]visibility.Object, len(g.stars))
	for i, s := range g.stars {
		g.index[s.id] = i
		g.objects[i] = visibility.Object{
			ID:           s.id,
			Position:     s.pos,
			Bounds:       core.Rect{MinX: s.pos.X - 1, MinY: s.pos.Y - 1, MaxX: s.pos.X + 1, MaxY: s.pos.Y + 1},
			Significance: s.significance,
		}
	}
	return g
}

// nearestTo picks a close neighbor from a random sample; exact nearest
// is not worth the quadratic scan for demo content
func (g *galaxy) nearestTo(i int, rng *rand.Rand) int {
	best, bestDist := i, math.MaxFloat64
	for k := 0; k < 8; k++ {
		j := rng.Intn(len(g.stars))
		if j == i {
			continue
		}
		dx := g.stars[i].pos.X - g.stars[j].pos.X
		dy := g.stars[i].pos.Y - g.stars[j].pos.Y
		if d := dx*dx + dy*dy; d < bestDist {
			best, bestDist = j, d
		}
	}
	return best
}

func (g *galaxy) Objects() []visibility.Object { return g.objects }
func (g *galaxy) Version() uint64              { return g.version }

// ApplyUpdates adjusts star significance in place and bumps the
// version so culling recomputes. Runs on the frame goroutine.
func (g *galaxy) ApplyUpdates(updates []events.EntityUpdate) {
	for _, u := range updates {
		i, ok := g.index[u.ID]
		if !ok {
			continue
		}
		g.stars[i].significance = u.Significance
		g.objects[i].Significance = u.Significance
	}
	g.version++
}

// ===== Render modules =====

func project(p core.Vec2, bounds core.Rect, scale float64) (int, int) {
	return int((p.X - bounds.MinX) * scale), int((p.Y - bounds.MinY) * scale)
}

func starColor(hue, significance float64) tcell.Color {
	c := colorful.Hsv(hue, 0.4+0.5*significance, 0.5+0.5*significance)
	r, g, b := c.RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}

// starfieldModule draws the visible, budgeted stars. Pooled cell
// buffers back each frame so the governor's reclamation has real
// resources to act on
type starfieldModule struct {
	galaxy *galaxy
	cells  *pool.Pool[[]Cell]
	frames *status.AtomicFloat
}

func newStarfieldModule(g *galaxy, cells *pool.Pool[[]Cell]) *starfieldModule {
	return &starfieldModule{galaxy: g, cells: cells}
}

func (m *starfieldModule) ID() string       { return "starfield" }
func (m *starfieldModule) Category() string { return "entities" }
func (m *starfieldModule) Priority() int    { return 10 }
func (m *starfieldModule) Cleanup()         {}

func (m *starfieldModule) Initialize(ctx *module.InitContext) error {
	m.frames = ctx.Status.Floats.Get("starfield.frames")
	return nil
}

func (m *starfieldModule) Update(*module.FrameContext) {}

func (m *starfieldModule) Render(frame *module.FrameContext) (module.Output, error) {
	m.frames.Add(1)
	lod := visibility.SettingsFor(frame.LOD)

	h, buf, err := m.cells.Acquire()
	if err != nil {
		return module.Output{}, &core.ModuleRenderError{ModuleID: m.ID(), Err: err}
	}
	defer m.cells.Release(h)

	for _, r := range frame.Visible {
		s := m.galaxy.byID[r.Object.ID]
		if s == nil {
			continue
		}
		x, y := project(s.pos, frame.Bounds, frame.Scale)
		style := tcell.StyleDefault.Foreground(starColor(s.hue, s.significance))

		ch := '·'
		if frame.LOD > visibility.LevelMinimal {
			switch {
			case s.significance > 0.8:
				ch = '✦'
			case s.significance > 0.5:
				ch = '*'
			}
		}
		*buf = append(*buf, Cell{X: x, Y: y, Ch: ch, Style: style})

		if lod.Features.Glow && frame.Quality.Glow && s.significance > 0.8 {
			dim := tcell.StyleDefault.Foreground(starColor(s.hue, s.significance*0.4))
			*buf = append(*buf,
				Cell{X: x - 1, Y: y, Ch: '·', Style: dim},
				Cell{X: x + 1, Y: y, Ch: '·', Style: dim},
			)
		}
	}

	out := make([]Cell, len(*buf))
	copy(out, *buf)
	return module.Output{ModuleID: m.ID(), Priority: m.Priority(), Payload: out}, nil
}

// laneModule draws hyperlane connectors beneath the starfield when
// the detail level includes them
type laneModule struct {
	galaxy *galaxy
}

func (m *laneModule) ID() string                           { return "lanes" }
func (m *laneModule) Category() string                     { return "entities" }
func (m *laneModule) Priority() int                        { return 5 }
func (m *laneModule) Initialize(*module.InitContext) error { return nil }
func (m *laneModule) Update(*module.FrameContext)          {}
func (m *laneModule) Cleanup()                             {}

func (m *laneModule) Render(frame *module.FrameContext) (module.Output, error) {
	if !visibility.SettingsFor(frame.LOD).Features.Connectors {
		return module.Output{ModuleID: m.ID(), Priority: m.Priority()}, nil
	}

	visible := make(map[uint64]bool, len(frame.Visible))
	for _, r := range frame.Visible {
		visible[r.Object.ID] = true
	}

	style := tcell.StyleDefault.Foreground(tcell.NewRGBColor(60, 70, 100))
	var out []Cell
	for _, l := range m.galaxy.lanes {
		a, b := m.galaxy.stars[l.a], m.galaxy.stars[l.b]
		if !visible[a.id] && !visible[b.id] {
			continue
		}
		x0, y0 := project(a.pos, frame.Bounds, frame.Scale)
		x1, y1 := project(b.pos, frame.Bounds, frame.Scale)
		steps := max(abs(x1-x0), abs(y1-y0))
		for i := 1; i < steps; i++ {
			t := float64(i) / float64(steps)
			out = append(out, Cell{
				X:     x0 + int(float64(x1-x0)*t),
				Y:     y0 + int(float64(y1-y0)*t),
				Ch:    '.',
				Style: style,
			})
		}
	}
	return module.Output{ModuleID: m.ID(), Priority: m.Priority(), Payload: out}, nil
}

// labelModule names high-significance stars at close zoom
type labelModule struct {
	galaxy *galaxy
}

func (m *labelModule) ID() string                           { return "labels" }
func (m *labelModule) Category() string                     { return "overlay" }
func (m *labelModule) Priority() int                        { return 20 }
func (m *labelModule) Initialize(*module.InitContext) error { return nil }
func (m *labelModule) Update(*module.FrameContext)          {}
func (m *labelModule) Cleanup()                             {}

func (m *labelModule) Render(frame *module.FrameContext) (module.Output, error) {
	if !visibility.SettingsFor(frame.LOD).Features.Labels {
		return module.Output{ModuleID: m.ID(), Priority: m.Priority()}, nil
	}

	style := tcell.StyleDefault.Foreground(tcell.NewRGBColor(160, 170, 190))
	var out []Cell
	for _, r := range frame.Visible {
		if r.Object.Significance < 0.7 {
			continue
		}
		s := m.galaxy.byID[r.Object.ID]
		if s == nil {
			continue
		}
		x, y := project(s.pos, frame.Bounds, frame.Scale)
		for i, ch := range s.name {
			out = append(out, Cell{X: x + 2 + i, Y: y, Ch: ch, Style: style})
		}
	}
	return module.Output{ModuleID: m.ID(), Priority: m.Priority(), Payload: out}, nil
}

// ===== Density analysis (deferred computation demo) =====

type densityResult struct {
	BusiestX, BusiestY float64
	Count              int
}

func analyzeDensity(g *galaxy, bounds core.Rect) func() any {
	return func() any {
		const grid = 8
		var counts [grid][grid]int
		w := (bounds.MaxX - bounds.MinX) / grid
		h := (bounds.MaxY - bounds.MinY) / grid
		if w <= 0 || h <= 0 {
			return densityResult{}
		}
		for _, s := range g.stars {
			if s.pos.X < bounds.MinX || s.pos.X >= bounds.MaxX || s.pos.Y < bounds.MinY || s.pos.Y >= bounds.MaxY {
				continue
			}
			cx := int((s.pos.X - bounds.MinX) / w)
			cy := int((s.pos.Y - bounds.MinY) / h)
			counts[min(cx, grid-1)][min(cy, grid-1)]++
		}
		best := densityResult{}
		for cx := 0; cx < grid; cx++ {
			for cy := 0; cy < grid; cy++ {
				if counts[cx][cy] > best.Count {
					best = densityResult{
						BusiestX: bounds.MinX + (float64(cx)+0.5)*w,
						BusiestY: bounds.MinY + (float64(cy)+0.5)*h,
						Count:    counts[cx][cy],
					}
				}
			}
		}
		return best
	}
}

// ===== App =====

type app struct {
	screen tcell.Screen
	orch   *render.Orchestrator
	status *status.Registry
	galaxy *galaxy

	toast       string
	toastUntil  time.Time
	density     densityResult
	showDebug   bool
	gestureOpen bool
	lastGesture time.Time
}

func (a *app) handleKey(ev *tcell.EventKey) bool {
	const panStep = 40.0

	pan := func(dx, dy float64) {
		now := time.Now()
		if !a.gestureOpen {
			a.orch.OnGestureStart()
			a.gestureOpen = true
		}
		a.lastGesture = now
		a.orch.OnPanUpdate(dx, dy)
	}
	zoom := func(factor float64) {
		w, h := a.screen.Size()
		a.orch.OnPinchUpdate(factor, float64(w)/2, float64(h)/2)
	}

	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyLeft:
		pan(panStep, 0)
	case tcell.KeyRight:
		pan(-panStep, 0)
	case tcell.KeyUp:
		pan(0, panStep)
	case tcell.KeyDown:
		pan(0, -panStep)
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return false
		case 'h':
			pan(panStep, 0)
		case 'l':
			pan(-panStep, 0)
		case 'k':
			pan(0, panStep)
		case 'j':
			pan(0, -panStep)
		case '+', '=':
			zoom(1.2)
		case '-', '_':
			zoom(1 / 1.2)
		case '1', '2', '3', '4':
			level := governor.QualityLevel(ev.Rune() - '1')
			a.orch.SetQualityLevel(level, "user override")
		case 'b':
			a.flare()
		case 'e':
			a.orch.EmergencyReset("starfield", "lanes")
		case 'p':
			a.orch.EmergencyPoolCleanup()
		case 'r':
			a.orch.Retry()
		case 'd':
			a.showDebug = !a.showDebug
		}
	}
	return true
}

// flare simulates a burst of domain activity: a handful of random
// stars spike to full significance via the bulk-update path
func (a *app) flare() {
	updates := make([]events.EntityUpdate, 5)
	for i := range updates {
		s := a.galaxy.stars[rand.Intn(len(a.galaxy.stars))]
		updates[i] = events.EntityUpdate{ID: s.id, Significance: 1.0}
	}
	a.orch.OnEntityUpdates(updates)
}

func (a *app) closeIdleGesture() {
	if a.gestureOpen && time.Since(a.lastGesture) > gestureIdle {
		a.orch.OnGestureEnd()
		a.gestureOpen = false
	}
}

func (a *app) drawText(x, y int, text string, style tcell.Style) {
	for i, ch := range text {
		a.screen.SetContent(x+i, y, ch, nil, style)
	}
}

func (a *app) blit(frame *render.Frame, rec *render.Recovery) {
	a.screen.Clear()
	w, h := a.screen.Size()

	if frame != nil {
		for _, out := range frame.Outputs {
			cells, ok := out.Payload.([]Cell)
			if !ok {
				continue
			}
			for _, c := range cells {
				if c.X >= 0 && c.X < w && c.Y >= 0 && c.Y < h {
					a.screen.SetContent(c.X, c.Y, c.Ch, nil, c.Style)
				}
			}
		}
	}

	if rec != nil {
		errStyle := tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorRed)
		a.drawText(2, h/2, " "+rec.Message+" ", errStyle)
		actions := "actions:"
		for _, act := range rec.Actions {
			actions += " [" + act.String() + "]"
		}
		a.drawText(2, h/2+1, actions, tcell.StyleDefault.Foreground(tcell.ColorRed))
	}

	if a.toast != "" && time.Now().Before(a.toastUntil) {
		toastStyle := tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorYellow)
		a.drawText(2, h-2, " "+a.toast+" ", toastStyle)
	}

	if a.showDebug {
		a.drawDebug(w)
	}

	help := "arrows/hjkl pan  +/- zoom  1-4 quality  b flare  e reset  p pool  d debug  q quit"
	a.drawText(1, h-1, help, tcell.StyleDefault.Foreground(tcell.NewRGBColor(110, 110, 110)))

	a.screen.Show()
}

func (a *app) drawDebug(w int) {
	snap := a.orch.PerformanceSnapshot()
	style := tcell.StyleDefault.Foreground(tcell.ColorGreen)

	lines := []string{
		fmt.Sprintf("fps %.1f  quality %s  skip %.0f%%", snap.AverageFPS, snap.CurrentQualityLevel, snap.SkipRatio*100),
		fmt.Sprintf("scale %.2f", a.orch.Viewport().Scale()),
	}
	if len(snap.DisabledModuleIDs) > 0 {
		lines = append(lines, fmt.Sprintf("disabled %v", snap.DisabledModuleIDs))
	}
	if a.density.Count > 0 {
		lines = append(lines, fmt.Sprintf("densest region (%.0f, %.0f): %d stars", a.density.BusiestX, a.density.BusiestY, a.density.Count))
	}
	a.status.Floats.Range(func(key string, ptr *status.AtomicFloat) {
		lines = append(lines, fmt.Sprintf("%s %.0f", key, ptr.Get()))
	})

	for i, line := range lines {
		a.drawText(w-len(line)-2, 1+i, line, style)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		log.Fatalf("screen: %v", err)
	}
	if err := screen.Init(); err != nil {
		log.Fatalf("screen init: %v", err)
	}
	defer screen.Fini()

	clock := core.NewMonotonicClock()
	bus := events.NewBus()
	reg := status.NewRegistry()

	w, h := screen.Size()
	vp := viewport.New(float64(w), float64(h))
	vp.SetScaleBounds(cfg.MinScale, cfg.MaxScale)
	vp.SetScale(0.3)
	vp.SetTranslation(worldSize/2-float64(w)/0.6, worldSize/2-float64(h)/0.6)

	gov := governor.New(cfg, clock, bus, reg)

	cells := pool.New(cfg.PoolCapacity,
		func() []Cell { return make([]Cell, 0, 256) },
		func(buf *[]Cell) { *buf = (*buf)[:0] },
	)
	gov.AttachPool(cells)

	world := newGalaxy(42)

	registry := module.NewRegistry(gov, bus, reg, module.InitContext{Bus: bus, Status: reg, Config: cfg})
	registry.Register(&laneModule{galaxy: world})
	registry.Register(newStarfieldModule(world, cells))
	registry.Register(&labelModule{galaxy: world})
	if !registry.WaitForInit(5 * time.Second) {
		screen.Fini()
		fmt.Fprintln(os.Stderr, "module initialization timed out")
		os.Exit(1)
	}

	orch := render.NewOrchestrator(cfg, clock, bus, vp, gov, registry, world, reg)
	defer orch.Teardown()

	a := &app{screen: screen, orch: orch, status: reg, galaxy: world, showDebug: cfg.DebugOverlay}

	analyzer := render.NewAnalyzer(clock, bus, cfg.AnalysisDebounce, analyzeDensity(world, core.Rect{MaxX: worldSize, MaxY: worldSize}))
	orch.SetAnalyzer(analyzer)

	bus.Subscribe(events.EventViewportChanged, func(events.Event) {
		analyzer.Request()
	})
	bus.Subscribe(events.EventAnalysisComplete, func(ev events.Event) {
		if p, ok := ev.Payload.(*events.AnalysisCompletePayload); ok {
			if d, ok := p.Result.(densityResult); ok {
				a.density = d
			}
		}
	})
	bus.Subscribe(events.EventToastRequested, func(ev events.Event) {
		if p, ok := ev.Payload.(*events.ToastPayload); ok {
			a.toast = p.Message
			a.toastUntil = time.Now().Add(toastVisible)
		}
	})
	bus.Subscribe(events.EventQualityChanged, func(ev events.Event) {
		if p, ok := ev.Payload.(*events.QualityChangedPayload); ok {
			a.toast = fmt.Sprintf("Quality: %s (%s)", governor.QualityLevel(p.Current), p.Reason)
			a.toastUntil = time.Now().Add(toastVisible)
		}
	})
	bus.Subscribe(events.EventPerformanceWarning, func(ev events.Event) {
		if p, ok := ev.Payload.(*events.PerformanceWarningPayload); ok {
			a.toast = fmt.Sprintf("Frame rate low (%.0f fps), quality reduced to %s", p.AverageFPS, p.Level)
			a.toastUntil = time.Now().Add(toastVisible)
		}
	})

	// Dedicated input goroutine; the frame loop never blocks on input
	eventCh := make(chan tcell.Event, 16)
	core.Go(func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			eventCh <- ev
		}
	})

	ticker := time.NewTicker(frameTick)
	defer ticker.Stop()

	for {
	drain:
		for {
			select {
			case ev := <-eventCh:
				switch tev := ev.(type) {
				case *tcell.EventKey:
					if !a.handleKey(tev) {
						return
					}
				case *tcell.EventResize:
					nw, nh := tev.Size()
					vp.Resize(float64(nw), float64(nh))
					screen.Sync()
				}
			default:
				break drain
			}
		}

		a.closeIdleGesture()

		frame, rec := orch.RenderFrame()
		a.blit(frame, rec)

		<-ticker.C
	}
}
