// Package wm implements the core of the dk window manager: the data
// model, layout engine, focus/stacking state machine, rule and command
// parsers, and the single-threaded event reconciliation loop.
package wm

// Rect is an absolute-pixel rectangle on the X screen. Unlike a UI
// toolkit's fractional rect, every field here is already resolved to
// device pixels, matching the geometry dk hands to ConfigureWindow.
type Rect struct {
	X, Y int
	W, H int
}

// Gravity names an edge or center alignment used by gravitate and by
// rule actions that place a client without an absolute position.
type Gravity int

const (
	GravityNone Gravity = iota
	GravityLeft
	GravityRight
	GravityTop
	GravityBottom
	GravityCenter
)

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SizeHints mirrors the ICCCM WM_NORMAL_HINTS fields a client publishes.
type SizeHints struct {
	MinW, MinH   int
	MaxW, MaxH   int
	BaseW, BaseH int
	IncW, IncH   int
	MinAspect    float64 // 0 means unset
	MaxAspect    float64 // 0 means unset
}

// Fixed reports whether the hints pin the client to a single size
// (min == max on both axes), which per the data model forces FLOATING.
func (h SizeHints) Fixed() bool {
	return h.MinW > 0 && h.MinW == h.MaxW && h.MinH > 0 && h.MinH == h.MaxH
}

// ApplySizeHints applies ICCCM sizing: subtract base, enforce aspect
// ratio, snap to increment, re-add base, clamp to [min, max].
func ApplySizeHints(w, h int, hints SizeHints) (int, int) {
	bw, bh := w-hints.BaseW, h-hints.BaseH
	if bw < 1 {
		bw = 1
	}
	if bh < 1 {
		bh = 1
	}

	if hints.MinAspect > 0 && hints.MaxAspect > 0 {
		aspect := float64(bw) / float64(bh)
		switch {
		case aspect < hints.MinAspect:
			bh = int(float64(bw) / hints.MinAspect)
		case aspect > hints.MaxAspect:
			bw = int(float64(bh) * hints.MaxAspect)
		}
	}

	if hints.IncW > 0 {
		bw -= bw % hints.IncW
	}
	if hints.IncH > 0 {
		bh -= bh % hints.IncH
	}

	w = bw + hints.BaseW
	h = bh + hints.BaseH

	minW, minH := hints.MinW, hints.MinH
	if minW < 1 {
		minW = 1
	}
	if minH < 1 {
		minH = 1
	}
	w = clampInt(w, minW, maxOr(hints.MaxW, w))
	h = clampInt(h, minH, maxOr(hints.MaxH, h))
	return w, h
}

func maxOr(max, fallback int) int {
	if max <= 0 {
		return fallback
	}
	return max
}

// ClampGeometry bounds a proposed rectangle. When userMotion is true the
// caller is actively dragging the window and may push it partially
// off-monitor, as long as minXY pixels remain visible; otherwise the
// rectangle is clamped fully inside usable.
func ClampGeometry(r Rect, usable Rect, userMotion bool, minXY int) Rect {
	if r.W < 1 {
		r.W = 1
	}
	if r.H < 1 {
		r.H = 1
	}

	if userMotion {
		if r.X+r.W < usable.X+minXY {
			r.X = usable.X + minXY - r.W
		}
		if r.X > usable.X+usable.W-minXY {
			r.X = usable.X + usable.W - minXY
		}
		if r.Y+r.H < usable.Y+minXY {
			r.Y = usable.Y + minXY - r.H
		}
		if r.Y > usable.Y+usable.H-minXY {
			r.Y = usable.Y + usable.H - minXY
		}
		return r
	}

	if r.W > usable.W {
		r.W = usable.W
	}
	if r.H > usable.H {
		r.H = usable.H
	}
	r.X = clampInt(r.X, usable.X, usable.X+usable.W-r.W)
	r.Y = clampInt(r.Y, usable.Y, usable.Y+usable.H-r.H)
	return r
}

// Gravitate repositions r so it sits at
// the requested edge/center of ref (a monitor's usable rect or a
// transient parent's rect), optionally inset by gap on each side that
// touches an edge.
func Gravitate(r Rect, ref Rect, xg, yg Gravity, gap int) Rect {
	switch xg {
	case GravityLeft:
		r.X = ref.X + gap
	case GravityRight:
		r.X = ref.X + ref.W - r.W - gap
	case GravityCenter:
		r.X = ref.X + (ref.W-r.W)/2
	}
	switch yg {
	case GravityTop:
		r.Y = ref.Y + gap
	case GravityBottom:
		r.Y = ref.Y + ref.H - r.H - gap
	case GravityCenter:
		r.Y = ref.Y + (ref.H-r.H)/2
	}
	return r
}

// Overlaps reports whether two rectangles share any pixels.
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.X+o.W && o.X < r.X+r.W && r.Y < o.Y+o.H && o.Y < r.Y+r.H
}

// Inset shrinks r by l, r_, t, b pixels on each respective edge,
// implementing per-workspace padding.
func (r Rect) Inset(l, r_, t, b int) Rect {
	r.X += l
	r.Y += t
	r.W -= l + r_
	r.H -= t + b
	if r.W < 0 {
		r.W = 0
	}
	if r.H < 0 {
		r.H = 0
	}
	return r
}
