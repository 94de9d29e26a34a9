package wm

// Layout computes on-screen geometry for every tiled (non-floating,
// non-fullscreen) client on a workspace, given the monitor's usable
// area. It never touches the model directly; callers apply the
// returned geometries and issue the X ConfigureWindow calls.
type Layout struct {
	Model *Model
}

func NewLayout(m *Model) *Layout { return &Layout{Model: m} }

// tiled returns the clients on ws eligible for tiling, in list order,
// skipping floating and fullscreen clients.
// A workspace on the float layout has no tile function, so every
// client on it is placed by the floating logic instead.
func (l *Layout) tiled(ws *Workspace) []*Client {
	if ws.Layout == LayoutFloat {
		return nil
	}
	out := make([]*Client, 0, len(ws.Clients))
	for _, id := range ws.Clients {
		c, ok := l.Model.Client(id)
		if !ok || c.Floating() || c.Fullscreen() || c.Flags.Has(FlagHidden) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Apply recomputes geometry for every tiled client on ws and writes it
// directly into the client records; it returns the ordered (client,
// rect) pairs so the caller can diff against prior geometry before
// issuing X requests. When a tile layout cannot give a client at least
// min_wh pixels of height, the offending client is popped to floating
// (geometry restored from its saved rect) and the pass re-runs without
// it, mirroring the tiler's -1 overflow report.
func (l *Layout) Apply(ws *Workspace, mon *Monitor) []ClientGeom {
	for range ws.Clients {
		out, popped := l.applyOnce(ws, mon)
		if popped == nil {
			return out
		}
		popped.Flags |= FlagFloating
		if popped.SavedGeom.W > 0 {
			popped.Geom = popped.SavedGeom
		}
	}
	out, _ := l.applyOnce(ws, mon)
	return out
}

func (l *Layout) applyOnce(ws *Workspace, mon *Monitor) ([]ClientGeom, *Client) {
	area := mon.Usable.Inset(ws.PadL, ws.PadR, ws.PadT, ws.PadB)
	clients := l.tiled(ws)
	if len(clients) == 0 {
		return nil, nil
	}

	gap := ws.Gap
	if l.Model.Config.SmartGap && len(clients) == 1 {
		gap = 0
	}

	var rects []Rect
	switch ws.Layout {
	case LayoutMonocle:
		rects = monocleLayout(area, clients, ws.Active)
	case LayoutGrid:
		rects = gridLayout(area, len(clients), gap)
	case LayoutSpiral:
		rects = fibLayout(area, len(clients), gap, false)
	case LayoutDwindle:
		rects = fibLayout(area, len(clients), gap, true)
	case LayoutRTile:
		rects = columnLayout(area, clients, gap, ws.MasterN, ws.MasterRatio, ws.StackN, ws.StackRatio, true)
	default:
		rects = columnLayout(area, clients, gap, ws.MasterN, ws.MasterRatio, ws.StackN, ws.StackRatio, false)
	}

	minWH := l.Model.Config.MinWH
	if ws.Layout == LayoutTile || ws.Layout == LayoutRTile {
		for i, c := range clients {
			if rects[i].H-2*c.Border >= minWH {
				continue
			}
			// A height offset can squeeze a sibling below min_wh; the
			// previous client absorbs the deficit first, and only if
			// that still leaves too little does the client pop out.
			if i > 0 && c.HOff != 0 {
				deficit := minWH - (rects[i].H - 2*c.Border)
				if rects[i-1].H-deficit-2*clients[i-1].Border >= minWH {
					rects[i-1].H -= deficit
					rects[i].Y -= deficit
					rects[i].H += deficit
					continue
				}
			}
			return nil, c
		}
	}

	out := make([]ClientGeom, len(clients))
	for i, c := range clients {
		r := rects[i]
		bw := c.Border
		if l.Model.Config.SmartBorder && len(clients) == 1 {
			bw = 0
		}
		w, h := ApplySizeHints(r.W-2*bw, r.H-2*bw, c.Hints)
		if !l.Model.Config.TileHints {
			w, h = r.W-2*bw, r.H-2*bw
		}
		geom := Rect{X: r.X, Y: r.Y, W: w, H: h}
		c.Geom = geom
		c.Border = bw
		out[i] = ClientGeom{Client: c.ID, Rect: geom, Border: bw}
	}
	return out, nil
}

// ClientGeom is one resolved placement from a layout pass.
type ClientGeom struct {
	Client ID
	Rect   Rect
	Border int
}

// monocleLayout gives the selected client the entire usable area and
// parks the rest off-screen at the same size, so they stay mapped and
// refresh cycles remain stable.
func monocleLayout(area Rect, clients []*Client, selected ID) []Rect {
	rects := make([]Rect, len(clients))
	off := area
	off.X = -2 * (area.W + area.X)
	sel := false
	for _, c := range clients {
		if c.ID == selected {
			sel = true
			break
		}
	}
	for i, c := range clients {
		if c.ID == selected || (!sel && i == 0) {
			rects[i] = area
		} else {
			rects[i] = off
		}
	}
	return rects
}

// columnLayout implements tile (master column on the left, stack
// column in the middle, overflow column on the right for anything past
// nmaster+nstack) and, mirrored, rtile (same three columns, opposite
// side). Up to nmaster clients occupy the master column; up to nstack
// more occupy the stack column; anything left spills into the
// overflow column sharing the remainder, the classic left-tile arrangement.
// nmaster==0 collapses the master column to zero width, leaving the
// whole area divided between stack and overflow per ratio.
func columnLayout(area Rect, clients []*Client, gap, nmaster int, ratio float64, nstack int, sratio float64, mirror bool) []Rect {
	n := len(clients)
	rects := make([]Rect, n)
	if nmaster < 0 {
		nmaster = 0
	}
	if nmaster > n {
		nmaster = n
	}
	if nstack < 0 {
		nstack = 0
	}
	rest := n - nmaster
	stackN := nstack
	if stackN > rest {
		stackN = rest
	}
	overflowN := rest - stackN

	masterW := 0
	if nmaster > 0 {
		masterW = int(float64(area.W) * ratio)
		if rest == 0 {
			masterW = area.W
		}
	}
	remW := area.W - masterW
	stackW := 0
	if stackN > 0 {
		stackW = remW
		if overflowN > 0 {
			stackW = int(float64(remW) * sratio)
		}
	}
	overflowW := remW - stackW

	masterX := area.X
	stackX := area.X + masterW
	overflowX := area.X + masterW + stackW
	if mirror {
		overflowX = area.X
		stackX = area.X + overflowW
		masterX = area.X + overflowW + stackW
	}

	layColumn := func(start, count int, x, w int) {
		if count == 0 {
			return
		}
		h := (area.H - gap) / count
		y := area.Y + gap
		for i := 0; i < count; i++ {
			c := clients[start+i]
			ch := h - gap + c.HOff
			if i == count-1 {
				ch = area.Y + area.H - y - gap
			}
			if ch < 1 {
				ch = 1
			}
			rects[start+i] = Rect{X: x + gap, Y: y, W: w - 2*gap, H: ch}
			y += h + c.HOff
		}
	}
	layColumn(0, nmaster, masterX, masterW)
	layColumn(nmaster, stackN, stackX, stackW)
	layColumn(nmaster+stackN, overflowN, overflowX, overflowW)
	return rects
}

// gridLayout arranges clients in the nearest-to-square grid: columns =
// smallest c such that c*c >= n, special-cased for n==5 which always
// gets two columns.
func gridLayout(area Rect, n, gap int) []Rect {
	cols := 1
	for cols*cols < n {
		cols++
	}
	if n == 5 {
		cols = 2
	}
	if cols < 1 {
		cols = 1
	}
	rows := n / cols
	if rows < 1 {
		rows = 1
	}

	rects := make([]Rect, n)
	col, row := 0, 0
	for i := 0; i < n; i++ {
		if i/rows+1 > cols-n%cols {
			rows = n/cols + 1
		}
		cw := (area.W - gap) / cols
		ch := (area.H - gap) / rows
		x := area.X + gap + col*cw
		y := area.Y + gap + row*ch
		rects[i] = Rect{X: x, Y: y, W: cw - gap, H: ch - gap}
		row++
		if row >= rows {
			row = 0
			col++
		}
	}
	return rects
}

// fibLayout recursively halves the remaining area for each successive
// client, rotating the split axis every step: spiral keeps rotating
// one direction, dwindle alternates horizontal/vertical splits without
// the spiral's consistent rotation sense. The split tree is implicit,
// rebuilt from list order on every pass, since the data model keeps no
// persistent split structure.
func fibLayout(area Rect, n, gap int, dwindle bool) []Rect {
	rects := make([]Rect, n)
	rem := area.Inset(gap, gap, gap, gap)
	horizontal := true
	spin := 0
	for i := 0; i < n; i++ {
		if i == n-1 {
			rects[i] = rem
			break
		}
		var a, b Rect
		if horizontal {
			w := rem.W / 2
			a = Rect{X: rem.X, Y: rem.Y, W: w - gap/2, H: rem.H}
			b = Rect{X: rem.X + w + gap/2, Y: rem.Y, W: rem.W - w - gap/2, H: rem.H}
		} else {
			h := rem.H / 2
			a = Rect{X: rem.X, Y: rem.Y, W: rem.W, H: h - gap/2}
			b = Rect{X: rem.X, Y: rem.Y + h + gap/2, W: rem.W, H: rem.H - h - gap/2}
		}
		// Spiral alternates which half the client at this depth takes
		// (first half on even steps, second half on odd steps), so the
		// remaining area winds around like a pinwheel; dwindle always
		// gives the client the first half and recurses into the second,
		// giving the classic dwindling staircase.
		if dwindle {
			rects[i] = a
			rem = b
			horizontal = !horizontal
		} else {
			if spin%2 == 0 {
				rects[i] = a
				rem = b
			} else {
				rects[i] = b
				rem = a
			}
			horizontal = !horizontal
			spin++
		}
	}
	return rects
}
