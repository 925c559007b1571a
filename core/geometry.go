package core

// Vec2 is a point or displacement in world space
type Vec2 struct {
	X, Y float64
}

// Add returns v + o
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{v.X + o.X, v.Y + o.Y}
}

// Sub returns v - o
func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{v.X - o.X, v.Y - o.Y}
}

// Scale returns v * f
func (v Vec2) Scale(f float64) Vec2 {
	return Vec2{v.X * f, v.Y * f}
}

// Rect is an axis-aligned rectangle in world space
// Max edges are exclusive (half-open on all four sides)
type Rect struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// NewRect builds a rect from origin and size
func NewRect(x, y, w, h float64) Rect {
	return Rect{MinX: x, MinY: y, MaxX: x + w, MaxY: y + h}
}

// Width returns the horizontal extent
func (r Rect) Width() float64 {
	return r.MaxX - r.MinX
}

// Height returns the vertical extent
func (r Rect) Height() float64 {
	return r.MaxY - r.MinY
}

// Center returns the midpoint
func (r Rect) Center() Vec2 {
	return Vec2{(r.MinX + r.MaxX) / 2, (r.MinY + r.MaxY) / 2}
}

// Intersects reports half-open overlap on all four edges
// Touching rects (shared edge) do not intersect
func (r Rect) Intersects(o Rect) bool {
	return r.MinX < o.MaxX && o.MinX < r.MaxX &&
		r.MinY < o.MaxY && o.MinY < r.MaxY
}

// Contains reports whether p is inside r (half-open)
func (r Rect) Contains(p Vec2) bool {
	return p.X >= r.MinX && p.X < r.MaxX && p.Y >= r.MinY && p.Y < r.MaxY
}
