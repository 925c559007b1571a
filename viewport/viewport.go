package viewport

import (
	"github.com/aldrenn/starmap/core"
	"github.com/aldrenn/starmap/parameter"
)

// Viewport is the authoritative pan/zoom state for one mounted map
//
// Transform convention: screen = (world - translate) * scale, so the
// translation is the world coordinate of the screen origin. Visible
// bounds are recomputed from translation + scale + screen size on
// every mutation, never cached across changes
type Viewport struct {
	translateX float64
	translateY float64
	scale      float64

	screenW float64
	screenH float64

	minScale float64
	maxScale float64

	bounds core.Rect // derived, world space
}

// New creates a viewport over a screen of the given size
func New(screenW, screenH float64) *Viewport {
	v := &Viewport{
		scale:    parameter.DefaultScale,
		screenW:  screenW,
		screenH:  screenH,
		minScale: parameter.MinScale,
		maxScale: parameter.MaxScale,
	}
	v.recomputeBounds()
	return v
}

// SetScaleBounds overrides the zoom clamp range
func (v *Viewport) SetScaleBounds(min, max float64) {
	if min <= 0 || min >= max {
		return
	}
	v.minScale = min
	v.maxScale = max
	v.SetScale(v.scale) // re-clamp
}

// recomputeBounds derives the world-space visible rectangle
func (v *Viewport) recomputeBounds() {
	v.bounds = core.NewRect(
		v.translateX,
		v.translateY,
		v.screenW/v.scale,
		v.screenH/v.scale,
	)
}

// Bounds returns the world-space visible rectangle
func (v *Viewport) Bounds() core.Rect {
	return v.bounds
}

// Scale returns the current zoom factor
func (v *Viewport) Scale() float64 {
	return v.scale
}

// Translation returns the world coordinate of the screen origin
func (v *Viewport) Translation() (float64, float64) {
	return v.translateX, v.translateY
}

// ScreenSize returns the screen extent in screen units
func (v *Viewport) ScreenSize() (float64, float64) {
	return v.screenW, v.screenH
}

// Resize updates the screen size and recomputes bounds
func (v *Viewport) Resize(w, h float64) {
	if w <= 0 || h <= 0 {
		return
	}
	v.screenW = w
	v.screenH = h
	v.recomputeBounds()
}

// SetTranslation moves the viewport origin to the given world point
func (v *Viewport) SetTranslation(x, y float64) {
	v.translateX = x
	v.translateY = y
	v.recomputeBounds()
}

// SetScale sets the zoom factor, clamped to [minScale, maxScale]
func (v *Viewport) SetScale(s float64) {
	v.scale = clamp(s, v.minScale, v.maxScale)
	v.recomputeBounds()
}

// Pan shifts the view by a screen-space drag delta
// Dragging content right (positive dx) moves the visible window left
func (v *Viewport) Pan(dx, dy float64) {
	v.translateX -= dx / v.scale
	v.translateY -= dy / v.scale
	v.recomputeBounds()
}

// Pinch applies a zoom factor anchored at the screen focal point:
// the world point under the focal stays fixed through the zoom
func (v *Viewport) Pinch(factor, focalX, focalY float64) {
	if factor <= 0 {
		return
	}
	worldFocal := v.ScreenToWorld(core.Vec2{X: focalX, Y: focalY})

	v.scale = clamp(v.scale*factor, v.minScale, v.maxScale)

	v.translateX = worldFocal.X - focalX/v.scale
	v.translateY = worldFocal.Y - focalY/v.scale
	v.recomputeBounds()
}

// WorldToScreen converts a world point to screen units
func (v *Viewport) WorldToScreen(p core.Vec2) core.Vec2 {
	return core.Vec2{
		X: (p.X - v.translateX) * v.scale,
		Y: (p.Y - v.translateY) * v.scale,
	}
}

// ScreenToWorld converts a screen point to world units
func (v *Viewport) ScreenToWorld(p core.Vec2) core.Vec2 {
	return core.Vec2{
		X: v.translateX + p.X/v.scale,
		Y: v.translateY + p.Y/v.scale,
	}
}

func clamp(val, lo, hi float64) float64 {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
