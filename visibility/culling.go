package visibility

import (
	"math"
	"sort"
	"time"

	"github.com/aldrenn/starmap/core"
	"github.com/aldrenn/starmap/parameter"
)

// Object is a candidate map entity for visibility evaluation
// Read-only per-frame input; the engine never takes ownership
type Object struct {
	ID       uint64
	Position core.Vec2
	Bounds   core.Rect

	// Significance is the domain signal in [0, 1] (owned systems,
	// active battles, quest markers); blended into priority
	Significance float64
}

// Ranked pairs a visible object with its computed priority
type Ranked struct {
	Object   Object
	Priority float64
}

// Result partitions an object set against a viewport
// BudgetCulled objects intersected the viewport but fell past the
// quality level's object budget; BoundsCulled never intersected
type Result struct {
	Visible      []Ranked
	BoundsCulled []uint64
	BudgetCulled []uint64
	Elapsed      time.Duration
}

// Cull partitions objects against the viewport rectangle, ranks the
// intersecting candidates by priority, and truncates to maxObjects
//
// The bounds test is half-open on all four edges: an object whose
// rectangle merely touches the viewport edge is culled
func Cull(objects []Object, view core.Rect, maxObjects int) Result {
	start := time.Now()

	res := Result{
		Visible: make([]Ranked, 0, min(len(objects), maxObjects)),
	}

	center := view.Center()
	// Normalization radius: half-diagonal of the viewport, so priority
	// stays in [0,1] for objects inside the visible rectangle
	halfDiag := math.Hypot(view.Width()/2, view.Height()/2)

	candidates := make([]Ranked, 0, len(objects))
	for _, obj := range objects {
		if !obj.Bounds.Intersects(view) {
			res.BoundsCulled = append(res.BoundsCulled, obj.ID)
			continue
		}
		candidates = append(candidates, Ranked{
			Object:   obj,
			Priority: priorityOf(obj, center, halfDiag),
		})
	}

	// Descending priority; ties broken by id for deterministic frames
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Priority != candidates[j].Priority {
			return candidates[i].Priority > candidates[j].Priority
		}
		return candidates[i].Object.ID < candidates[j].Object.ID
	})

	if maxObjects < 0 {
		maxObjects = 0
	}
	if len(candidates) > maxObjects {
		for _, c := range candidates[maxObjects:] {
			res.BudgetCulled = append(res.BudgetCulled, c.Object.ID)
		}
		candidates = candidates[:maxObjects]
	}
	res.Visible = append(res.Visible, candidates...)

	res.Elapsed = time.Since(start)
	return res
}

// priorityOf blends inverse normalized distance-from-center with the
// object's domain significance as a weighted sum (weights in parameter)
func priorityOf(obj Object, center core.Vec2, halfDiag float64) float64 {
	var proximity float64
	if halfDiag > 0 {
		d := math.Hypot(obj.Position.X-center.X, obj.Position.Y-center.Y)
		norm := d / halfDiag
		if norm > 1 {
			norm = 1
		}
		proximity = 1 - norm
	}
	return parameter.PriorityDistanceWeight*proximity +
		parameter.PrioritySignificanceWeight*obj.Significance
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
