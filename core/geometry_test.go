package core

import "testing"

func TestRectIntersectsHalfOpen(t *testing.T) {
	base := NewRect(0, 0, 10, 10)

	tests := []struct {
		name string
		o    Rect
		want bool
	}{
		{"overlapping", NewRect(5, 5, 10, 10), true},
		{"contained", NewRect(2, 2, 4, 4), true},
		{"containing", NewRect(-5, -5, 30, 30), true},
		{"disjoint", NewRect(20, 20, 5, 5), false},
		{"touching right edge", NewRect(10, 0, 5, 10), false},
		{"touching bottom edge", NewRect(0, 10, 10, 5), false},
		{"touching corner", NewRect(10, 10, 5, 5), false},
		{"one unit inside", NewRect(9, 9, 5, 5), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base.Intersects(tt.o); got != tt.want {
				t.Errorf("Intersects(%+v) = %v, want %v", tt.o, got, tt.want)
			}
			// Intersection is symmetric
			if got := tt.o.Intersects(base); got != tt.want {
				t.Errorf("reverse Intersects = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRectContainsHalfOpen(t *testing.T) {
	r := NewRect(0, 0, 10, 10)

	if !r.Contains(Vec2{X: 0, Y: 0}) {
		t.Error("min corner should be inside")
	}
	if r.Contains(Vec2{X: 10, Y: 10}) {
		t.Error("max corner should be outside")
	}
	if r.Contains(Vec2{X: 5, Y: 10}) {
		t.Error("point on the max edge should be outside")
	}
	if !r.Contains(Vec2{X: 9.999, Y: 9.999}) {
		t.Error("point just inside the max edge should be inside")
	}
}

func TestVec2Arithmetic(t *testing.T) {
	a := Vec2{X: 3, Y: 4}
	b := Vec2{X: 1, Y: -2}

	if got := a.Add(b); got != (Vec2{X: 4, Y: 2}) {
		t.Errorf("Add = %+v", got)
	}
	if got := a.Sub(b); got != (Vec2{X: 2, Y: 6}) {
		t.Errorf("Sub = %+v", got)
	}
	if got := a.Scale(2); got != (Vec2{X: 6, Y: 8}) {
		t.Errorf("Scale = %+v", got)
	}
}
