package wm

import "testing"

func TestMouseBeginDragFloatsTiledClient(t *testing.T) {
	f := NewFakeTransport()
	wm := NewWM(f)
	mon := wm.Model.AddMonitor("VGA-1", Rect{X: 0, Y: 0, W: 1920, H: 1080})
	ws, _ := wm.Model.WorkspaceByID(mon.Active)
	c, _ := wm.Model.AddClient(10, ws.ID, mon.ID)
	c.Geom = Rect{X: 0, Y: 0, W: 200, H: 200}

	wm.Mouse.BeginDrag(c, XEvent{Button: 1, RootX: 5, RootY: 5})
	if !c.Floating() {
		t.Fatal("expected client to float on drag start")
	}
	if !wm.Mouse.Dragging() {
		t.Fatal("expected Dragging() true")
	}
}

func TestMouseUpdateDragMoves(t *testing.T) {
	f := NewFakeTransport()
	wm := NewWM(f)
	mon := wm.Model.AddMonitor("VGA-1", Rect{X: 0, Y: 0, W: 1920, H: 1080})
	ws, _ := wm.Model.WorkspaceByID(mon.Active)
	c, _ := wm.Model.AddClient(10, ws.ID, mon.ID)
	c.Geom = Rect{X: 100, Y: 100, W: 200, H: 200}
	c.Flags |= FlagFloating

	wm.Mouse.BeginDrag(c, XEvent{Button: 1, RootX: 0, RootY: 0})
	wm.Mouse.UpdateDrag(XEvent{RootX: 50, RootY: 20})
	if c.Geom.X != 150 || c.Geom.Y != 120 {
		t.Fatalf("expected geom moved by delta, got %+v", c.Geom)
	}
}

func TestMouseEndDragClearsState(t *testing.T) {
	f := NewFakeTransport()
	wm := NewWM(f)
	mon := wm.Model.AddMonitor("VGA-1", Rect{X: 0, Y: 0, W: 1920, H: 1080})
	ws, _ := wm.Model.WorkspaceByID(mon.Active)
	c, _ := wm.Model.AddClient(10, ws.ID, mon.ID)

	wm.Mouse.BeginDrag(c, XEvent{Button: 3, RootX: 0, RootY: 0})
	wm.Mouse.EndDrag()
	if wm.Mouse.Dragging() {
		t.Fatal("expected Dragging() false after EndDrag")
	}
}
