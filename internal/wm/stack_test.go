package wm

import "testing"

func newStackWM() (*WM, *FakeTransport, *Monitor, *Workspace) {
	f := NewFakeTransport()
	wm := NewWM(f)
	mon := wm.Model.AddMonitor("VGA-1", Rect{X: 0, Y: 0, W: 1920, H: 1080})
	ws, _ := wm.Model.WorkspaceByID(mon.Active)
	return wm, f, mon, ws
}

func TestFullscreenRoundTrip(t *testing.T) {
	wm, f, mon, ws := newStackWM()
	c, _ := wm.Model.AddClient(10, ws.ID, mon.ID)
	c.Geom = Rect{X: 100, Y: 100, W: 400, H: 300}
	c.Border = 1
	c.Flags &^= FlagNeedsMap

	wm.SetFullscreen(c, true)
	if !c.Fullscreen() || !c.Floating() {
		t.Fatal("expected FULLSCREEN|FLOATING set")
	}
	if c.Geom != mon.Geom || c.Border != 0 {
		t.Fatalf("expected full-rect borderless geometry, got %+v bw=%d", c.Geom, c.Border)
	}
	if f.Geoms[10] != mon.Geom {
		t.Fatalf("expected configure pushed to server, got %+v", f.Geoms[10])
	}

	wm.SetFullscreen(c, false)
	if c.Fullscreen() || c.Floating() {
		t.Fatal("expected FULLSCREEN and implied FLOATING cleared")
	}
	if c.Geom != (Rect{X: 100, Y: 100, W: 400, H: 300}) || c.Border != 1 {
		t.Fatalf("expected saved geometry restored, got %+v bw=%d", c.Geom, c.Border)
	}
}

func TestFullscreenPreservesFloating(t *testing.T) {
	wm, _, mon, ws := newStackWM()
	c, _ := wm.Model.AddClient(10, ws.ID, mon.ID)
	c.Flags |= FlagFloating

	wm.SetFullscreen(c, true)
	wm.SetFullscreen(c, false)
	if !c.Floating() {
		t.Fatal("expected previously floating client to stay floating")
	}
}

func TestFakeFullscreenKeepsGeometry(t *testing.T) {
	wm, _, mon, ws := newStackWM()
	c, _ := wm.Model.AddClient(10, ws.ID, mon.ID)
	c.Geom = Rect{X: 5, Y: 5, W: 100, H: 100}
	c.Flags |= FlagFakeFullscreen

	wm.SetFullscreen(c, true)
	if !c.Fullscreen() {
		t.Fatal("expected state bit set")
	}
	if c.Geom != (Rect{X: 5, Y: 5, W: 100, H: 100}) {
		t.Fatalf("fakefull must not touch geometry, got %+v", c.Geom)
	}
}

func TestFocusClientPaintsBordersAndSetsInput(t *testing.T) {
	wm, f, mon, ws := newStackWM()
	a, _ := wm.Model.AddClient(1, ws.ID, mon.ID)
	b, _ := wm.Model.AddClient(2, ws.ID, mon.ID)

	wm.FocusClient(a)
	if f.Focused != 1 {
		t.Fatalf("expected input focus on 1, got %d", f.Focused)
	}
	if f.BorderPx[1] != wm.Model.Config.BorderColors.FocusInner {
		t.Fatal("expected focused border pixel on a")
	}
	if f.BorderPx[2] != wm.Model.Config.BorderColors.UnfocusInner {
		t.Fatal("expected unfocused border pixel on b")
	}
	if ws.Active != a.ID || ws.Stack[0] != a.ID {
		t.Fatal("expected a at stack head")
	}
	_ = b
}

func TestFocusClientNoInputSendsTakeFocus(t *testing.T) {
	wm, f, mon, ws := newStackWM()
	c, _ := wm.Model.AddClient(7, ws.ID, mon.ID)
	c.Flags |= FlagNoInput

	wm.FocusClient(c)
	if f.Focused == 7 {
		t.Fatal("NOINPUT client must not receive SetInputFocus")
	}
	found := false
	for _, p := range f.Protocols {
		if p == "7:WM_TAKE_FOCUS" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected WM_TAKE_FOCUS client message")
	}
}

func TestFocusNilFallsBackToStackHead(t *testing.T) {
	wm, f, mon, ws := newStackWM()
	a, _ := wm.Model.AddClient(1, ws.ID, mon.ID)
	b, _ := wm.Model.AddClient(2, ws.ID, mon.ID)
	wm.FocusClient(a)

	wm.FocusClient(nil)
	if ws.Active != a.ID {
		t.Fatalf("expected stack head %d refocused, got %d", a.ID, ws.Active)
	}
	_ = b
	_ = f
}

func TestSetUrgentNeverOnFocused(t *testing.T) {
	wm, f, mon, ws := newStackWM()
	c, _ := wm.Model.AddClient(1, ws.ID, mon.ID)
	wm.FocusClient(c)

	wm.SetUrgent(c, true)
	if c.Urgent() {
		t.Fatal("a focused client is never urgent")
	}

	other, _ := wm.Model.AddClient(2, ws.ID, mon.ID)
	wm.FocusClient(c)
	wm.SetUrgent(other, true)
	if !other.Urgent() {
		t.Fatal("expected urgency set on unfocused client")
	}
	if f.BorderPx[2] != wm.Model.Config.BorderColors.UrgentInner {
		t.Fatal("expected urgent border pixel")
	}
}

func TestRestackOrdering(t *testing.T) {
	wm, f, mon, ws := newStackWM()
	tiled, _ := wm.Model.AddClient(1, ws.ID, mon.ID)
	float, _ := wm.Model.AddClient(2, ws.ID, mon.ID)
	float.Flags |= FlagFloating
	above, _ := wm.Model.AddClient(3, ws.ID, mon.ID)
	above.Flags |= FlagFloating | FlagAbove
	wm.Model.AddPanel(4, mon.ID, Strut{Top: 20})
	wm.Model.AddDesk(5, mon.ID)
	wm.FocusClient(tiled)

	f.Raised = nil
	wm.Restack(ws)

	pos := make(map[uint32]int)
	for i, win := range f.Raised {
		pos[win] = i
	}
	if !(pos[5] < pos[1] && pos[1] < pos[4] && pos[4] < pos[2] && pos[2] < pos[3]) {
		t.Fatalf("unexpected restack order: %v", f.Raised)
	}
}

func TestViewWorkspaceMigratesSticky(t *testing.T) {
	wm, _, mon, ws := newStackWM()
	sticky, _ := wm.Model.AddClient(1, ws.ID, mon.ID)
	sticky.Flags |= FlagSticky | FlagFloating
	plain, _ := wm.Model.AddClient(2, ws.ID, mon.ID)

	next, _ := wm.Model.WorkspaceByNum(1)
	wm.ViewWorkspace(next)

	if mon.Active != next.ID {
		t.Fatal("expected view switched")
	}
	if sticky.Workspace != next.ID {
		t.Fatal("expected sticky client to follow the view")
	}
	if plain.Workspace != ws.ID {
		t.Fatal("expected plain client to stay behind")
	}
}

func TestRefreshMapsNeedsMapClients(t *testing.T) {
	wm, f, mon, ws := newStackWM()
	c, _ := wm.Model.AddClient(9, ws.ID, mon.ID)
	if !c.Flags.Has(FlagNeedsMap) {
		t.Fatal("fresh client should carry NEEDSMAP")
	}
	wm.Refresh()
	if !f.Mapped[9] {
		t.Fatal("expected refresh to map the client")
	}
	if c.Flags.Has(FlagNeedsMap) {
		t.Fatal("expected NEEDSMAP cleared")
	}
}
