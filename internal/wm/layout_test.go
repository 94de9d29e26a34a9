package wm

import "testing"

func newTestModel(n int, layout LayoutKind) (*Model, *Workspace, *Monitor) {
	m := NewModel()
	mon := m.AddMonitor("VGA-1", Rect{X: 0, Y: 0, W: 1920, H: 1080})
	ws, _ := m.WorkspaceByID(mon.Active)
	ws.Layout = layout
	for i := 0; i < n; i++ {
		m.AddClient(uint32(100+i), ws.ID, mon.ID)
	}
	return m, ws, mon
}

func TestColumnLayoutSingleClientFillsArea(t *testing.T) {
	m, ws, mon := newTestModel(1, LayoutTile)
	l := NewLayout(m)
	geoms := l.Apply(ws, mon)
	if len(geoms) != 1 {
		t.Fatalf("expected 1 geom, got %d", len(geoms))
	}
	if geoms[0].Rect.W <= 0 || geoms[0].Rect.H <= 0 {
		t.Fatalf("expected positive area, got %+v", geoms[0].Rect)
	}
}

func TestColumnLayoutMasterStackNoOverlap(t *testing.T) {
	m, ws, mon := newTestModel(3, LayoutTile)
	ws.MasterN = 1
	ws.MasterRatio = 0.5
	l := NewLayout(m)
	geoms := l.Apply(ws, mon)
	if len(geoms) != 3 {
		t.Fatalf("expected 3 geoms, got %d", len(geoms))
	}
	master := geoms[0].Rect
	for _, g := range geoms[1:] {
		if master.Overlaps(g.Rect) {
			t.Fatalf("master %+v overlaps stack client %+v", master, g.Rect)
		}
	}
}

func TestRTileMirrorsTile(t *testing.T) {
	m, ws, mon := newTestModel(2, LayoutTile)
	l := NewLayout(m)
	tileGeoms := l.Apply(ws, mon)

	m2, ws2, mon2 := newTestModel(2, LayoutRTile)
	rtileGeoms := l2Apply(m2, ws2, mon2)

	if tileGeoms[0].Rect.X == rtileGeoms[0].Rect.X {
		t.Fatal("expected rtile to mirror master column to the opposite side")
	}
}

func l2Apply(m *Model, ws *Workspace, mon *Monitor) []ClientGeom {
	return NewLayout(m).Apply(ws, mon)
}

func TestMonocleFillsFullArea(t *testing.T) {
	m, ws, mon := newTestModel(3, LayoutMonocle)
	l := NewLayout(m)
	geoms := l.Apply(ws, mon)
	for _, g := range geoms {
		if g.Rect.W+2*g.Border != mon.Usable.W || g.Rect.H+2*g.Border != mon.Usable.H {
			t.Fatalf("monocle client not filling area: %+v vs %+v", g.Rect, mon.Usable)
		}
	}
}

func TestGridLayoutFiveColumnsIsTwo(t *testing.T) {
	rects := gridLayout(Rect{X: 0, Y: 0, W: 1000, H: 1000}, 5, 4)
	// with n==5, dk forces 2 columns regardless of sqrt rounding.
	xs := map[int]bool{}
	for _, r := range rects {
		xs[r.X] = true
	}
	if len(xs) > 2 {
		t.Fatalf("expected at most 2 distinct columns, got %d", len(xs))
	}
}

func TestFibLayoutNoOverlapDwindle(t *testing.T) {
	rects := fibLayout(Rect{X: 0, Y: 0, W: 1000, H: 1000}, 4, 4, true)
	for i := range rects {
		for j := i + 1; j < len(rects); j++ {
			if rects[i].Overlaps(rects[j]) {
				t.Fatalf("dwindle rects overlap: %+v vs %+v", rects[i], rects[j])
			}
		}
	}
}

func TestFibLayoutNoOverlapSpiral(t *testing.T) {
	rects := fibLayout(Rect{X: 0, Y: 0, W: 1000, H: 1000}, 4, 4, false)
	for i := range rects {
		for j := i + 1; j < len(rects); j++ {
			if rects[i].Overlaps(rects[j]) {
				t.Fatalf("spiral rects overlap: %+v vs %+v", rects[i], rects[j])
			}
		}
	}
}

// Two clients, border 1, gap 0, msplit 0.5 on a 1920x1080 monitor:
// master at (0,0,958,1078), stack at (960,0,958,1078), borders counted
// outside w/h.
func TestTileTwoClientsSplitGeometry(t *testing.T) {
	m, ws, mon := newTestModel(2, LayoutTile)
	ws.MasterN = 1
	ws.MasterRatio = 0.5
	ws.Gap = 0
	m.Config.BorderWidth = 1
	for _, id := range ws.Clients {
		c, _ := m.Client(id)
		c.Border = 1
	}

	geoms := NewLayout(m).Apply(ws, mon)
	if len(geoms) != 2 {
		t.Fatalf("expected 2 geoms, got %d", len(geoms))
	}
	wantA := Rect{X: 0, Y: 0, W: 958, H: 1078}
	wantB := Rect{X: 960, Y: 0, W: 958, H: 1078}
	if geoms[0].Rect != wantA {
		t.Fatalf("master: got %+v, want %+v", geoms[0].Rect, wantA)
	}
	if geoms[1].Rect != wantB {
		t.Fatalf("stack: got %+v, want %+v", geoms[1].Rect, wantB)
	}
}

func TestTilePopsClientBelowMinHeightToFloating(t *testing.T) {
	const n = 30
	m, ws, mon := newTestModel(n, LayoutTile)
	ws.MasterN = 1
	ws.Gap = 0
	m.Config.MinWH = 50

	geoms := NewLayout(m).Apply(ws, mon)
	floated := 0
	for _, id := range ws.Clients {
		c, _ := m.Client(id)
		if c.Floating() {
			floated++
		}
	}
	if floated == 0 {
		t.Fatal("expected overflow clients popped to floating")
	}
	for _, g := range geoms {
		if g.Rect.H < m.Config.MinWH {
			t.Fatalf("tiled client below min height: %+v", g.Rect)
		}
	}
}

func TestTiledLayoutNoOverlapWithinPaddedArea(t *testing.T) {
	m, ws, mon := newTestModel(5, LayoutTile)
	ws.MasterN = 2
	ws.StackN = 2
	ws.PadL, ws.PadR, ws.PadT, ws.PadB = 10, 10, 10, 10
	geoms := NewLayout(m).Apply(ws, mon)

	area := mon.Usable.Inset(ws.PadL, ws.PadR, ws.PadT, ws.PadB)
	for i := range geoms {
		outer := geoms[i].Rect
		outer.W += 2 * geoms[i].Border
		outer.H += 2 * geoms[i].Border
		if outer.X < area.X || outer.Y < area.Y ||
			outer.X+outer.W > area.X+area.W || outer.Y+outer.H > area.Y+area.H {
			t.Fatalf("client %d outside padded area: %+v vs %+v", i, outer, area)
		}
		for j := i + 1; j < len(geoms); j++ {
			if geoms[i].Rect.Overlaps(geoms[j].Rect) {
				t.Fatalf("tiled clients overlap: %+v vs %+v", geoms[i].Rect, geoms[j].Rect)
			}
		}
	}
}

func TestMonocleParksNonSelectedOffscreen(t *testing.T) {
	m, ws, mon := newTestModel(3, LayoutMonocle)
	selected := ws.Active
	geoms := NewLayout(m).Apply(ws, mon)
	onscreen := 0
	for _, g := range geoms {
		if g.Rect.X >= 0 {
			onscreen++
			if g.Client != selected {
				t.Fatal("only the selected client may occupy the area")
			}
		}
	}
	if onscreen != 1 {
		t.Fatalf("expected exactly 1 on-screen client, got %d", onscreen)
	}
}

func TestFloatLayoutTilesNothing(t *testing.T) {
	m, ws, mon := newTestModel(3, LayoutFloat)
	if geoms := NewLayout(m).Apply(ws, mon); geoms != nil {
		t.Fatalf("float layout has no tile function, got %v", geoms)
	}
}

func TestApplyEmptyWorkspaceReturnsNil(t *testing.T) {
	m, ws, mon := newTestModel(0, LayoutTile)
	l := NewLayout(m)
	if geoms := l.Apply(ws, mon); geoms != nil {
		t.Fatalf("expected nil for empty workspace, got %v", geoms)
	}
}
