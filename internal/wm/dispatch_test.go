package wm

import (
	"os"
	"testing"
)

func newDispatchWM() (*Dispatcher, *WM, *FakeTransport, *Monitor, *Workspace) {
	f := NewFakeTransport()
	wm := NewWM(f)
	mon := wm.Model.AddMonitor("VGA-1", Rect{X: 0, Y: 0, W: 1920, H: 1080})
	ws, _ := wm.Model.WorkspaceByID(mon.Active)
	return NewDispatcher(wm, 0), wm, f, mon, ws
}

func TestMapRequestManagesAndMaps(t *testing.T) {
	d, wm, f, _, ws := newDispatchWM()
	d.handleXEvent(XEvent{Type: EventMapRequest, Window: 100})
	c, ok := wm.Model.ClientByWindow(100)
	if !ok {
		t.Fatal("expected client managed")
	}
	if c.Workspace != ws.ID {
		t.Fatal("expected client on the visible workspace")
	}
	// The map itself happens in the refresh pipeline.
	if !d.needsRefresh {
		t.Fatal("expected refresh scheduled")
	}
	wm.Refresh()
	if !f.Mapped[100] {
		t.Fatal("expected client mapped by refresh")
	}
}

func TestUnmapNotifyUnmanages(t *testing.T) {
	d, wm, _, _, _ := newDispatchWM()
	d.handleXEvent(XEvent{Type: EventMapRequest, Window: 100})
	d.handleXEvent(XEvent{Type: EventUnmapNotify, Window: 100})
	if _, ok := wm.Model.ClientByWindow(100); ok {
		t.Fatal("expected client unmanaged on unmap")
	}
}

func TestSyntheticUnmapDoesNotDelete(t *testing.T) {
	d, wm, _, _, _ := newDispatchWM()
	d.handleXEvent(XEvent{Type: EventMapRequest, Window: 100})
	d.handleXEvent(XEvent{Type: EventUnmapNotify, Window: 100, SendEvent: true})
	if _, ok := wm.Model.ClientByWindow(100); !ok {
		t.Fatal("synthetic unmap must only set WithdrawnState, not delete")
	}
}

func TestActiveWindowMessageFocusUrgentOn(t *testing.T) {
	d, wm, _, mon, ws := newDispatchWM()
	wm.Model.Config.FocusUrgent = true

	other, _ := wm.Model.WorkspaceByNum(1)
	c, _ := wm.Model.AddClient(42, other.ID, mon.ID)

	d.handleXEvent(XEvent{Type: EventClientMessage, Window: 42, MessageType: "_NET_ACTIVE_WINDOW"})
	if mon.Active != other.ID {
		t.Fatal("expected view switched to the requesting client's workspace")
	}
	if other.Active != c.ID {
		t.Fatal("expected client focused")
	}
	_ = ws
}

func TestActiveWindowMessageFocusUrgentOff(t *testing.T) {
	d, wm, f, mon, ws := newDispatchWM()
	wm.Model.Config.FocusUrgent = false

	other, _ := wm.Model.WorkspaceByNum(1)
	c, _ := wm.Model.AddClient(42, other.ID, mon.ID)

	d.handleXEvent(XEvent{Type: EventClientMessage, Window: 42, MessageType: "_NET_ACTIVE_WINDOW"})
	if mon.Active != ws.ID {
		t.Fatal("expected no view change")
	}
	if !c.Urgent() {
		t.Fatal("expected URGENT set instead of focus")
	}
	if f.BorderPx[42] != wm.Model.Config.BorderColors.UrgentInner {
		t.Fatal("expected urgent border repaint")
	}
}

func TestNetWMStateFullscreenToggle(t *testing.T) {
	d, wm, f, mon, ws := newDispatchWM()
	c, _ := wm.Model.AddClient(42, ws.ID, mon.ID)
	c.Geom = Rect{X: 10, Y: 10, W: 100, H: 100}

	fsAtom, _ := f.Atom("_NET_WM_STATE_FULLSCREEN")
	ev := XEvent{Type: EventClientMessage, Window: 42, MessageType: "_NET_WM_STATE"}
	ev.Data[0] = NetStateToggle
	ev.Data[1] = fsAtom

	d.handleXEvent(ev)
	if !c.Fullscreen() {
		t.Fatal("expected fullscreen after toggle")
	}
	d.handleXEvent(ev)
	if c.Fullscreen() {
		t.Fatal("expected fullscreen cleared after second toggle")
	}
	if c.Geom != (Rect{X: 10, Y: 10, W: 100, H: 100}) {
		t.Fatalf("expected geometry restored, got %+v", c.Geom)
	}
}

func TestIgnoreMsgClientIgnoresMessages(t *testing.T) {
	d, wm, _, mon, ws := newDispatchWM()
	c, _ := wm.Model.AddClient(42, ws.ID, mon.ID)
	c.Flags |= FlagIgnoreMsg
	_ = mon

	d.handleXEvent(XEvent{Type: EventClientMessage, Window: 42, MessageType: "_NET_ACTIVE_WINDOW"})
	if c.Urgent() {
		t.Fatal("IGNOREMSG client must not react to client messages")
	}
}

func TestCurrentDesktopMessageSwitchesView(t *testing.T) {
	d, wm, _, mon, _ := newDispatchWM()
	ev := XEvent{Type: EventClientMessage, Window: wm.X.RootWindow(), MessageType: "_NET_CURRENT_DESKTOP"}
	ev.Data[0] = 2
	d.handleXEvent(ev)
	ws, _ := wm.Model.WorkspaceByID(mon.Active)
	if ws.Num != 2 {
		t.Fatalf("expected workspace 2 viewed, got %d", ws.Num)
	}
}

func TestTerminalAbsorptionSwapsWindows(t *testing.T) {
	d, wm, f, mon, ws := newDispatchWM()
	_ = d

	term, _ := wm.Model.AddClient(10, ws.ID, mon.ID)
	term.Flags |= FlagTerminal
	term.Flags &^= FlagNeedsMap
	term.TermPID = os.Getpid()
	term.Title = "shell"
	wm.RegisterTerminal(term)

	child, _ := wm.Model.AddClient(20, ws.ID, mon.ID)
	child.Title = "mpv"
	if !wm.TryAbsorb(child, os.Getpid()) {
		t.Fatal("expected absorption via matching terminal pid")
	}

	// The terminal's slot now drives the child's window, the child
	// record holds the terminal's original window, and the terminal's
	// own window is unmapped.
	if term.Window != 20 || term.Absorbed == nil || term.Absorbed.Window != 10 {
		t.Fatalf("window ids not swapped: term=%d absorbed=%+v", term.Window, term.Absorbed)
	}
	if f.Mapped[10] {
		t.Fatal("expected terminal's original window unmapped")
	}
	if term.Title != "mpv" {
		t.Fatalf("expected terminal slot to take the child's title, got %q", term.Title)
	}
	if _, onLists := wm.Model.ClientByWindow(10); onLists {
		t.Fatal("absorbed child must not resolve by window")
	}
	if got, _ := wm.Model.ClientByWindow(20); got != term {
		t.Fatal("terminal must resolve by the child's window id")
	}
	if len(ws.Clients) != 1 {
		t.Fatalf("absorbed child must leave the workspace lists, got %v", ws.Clients)
	}
}

func TestDesorbOnChildDestroy(t *testing.T) {
	d, wm, f, mon, ws := newDispatchWM()

	term, _ := wm.Model.AddClient(10, ws.ID, mon.ID)
	term.Flags |= FlagTerminal
	term.TermPID = os.Getpid()
	term.Title = "shell"
	wm.RegisterTerminal(term)
	child, _ := wm.Model.AddClient(20, ws.ID, mon.ID)
	child.Title = "mpv"
	wm.TryAbsorb(child, os.Getpid())

	d.handleXEvent(XEvent{Type: EventDestroyNotify, Window: 20})

	if term.Absorbed != nil {
		t.Fatal("expected desorb on child destroy")
	}
	if term.Window != 10 || term.Title != "shell" {
		t.Fatalf("expected terminal identity restored, got win=%d title=%q", term.Window, term.Title)
	}
	wm.Refresh()
	if !f.Mapped[10] {
		t.Fatal("expected terminal window remapped")
	}
}

func TestScratchPushPop(t *testing.T) {
	d, wm, _, mon, ws := newDispatchWM()
	c, _ := wm.Model.AddClient(30, ws.ID, mon.ID)
	wm.FocusClient(c)

	if _, err := d.cmdWin([]string{"scratch", "push"}); err != nil {
		t.Fatalf("push: %v", err)
	}
	if c.Workspace != wm.Model.Scratch().ID || !c.Flags.Has(FlagHidden) {
		t.Fatal("expected client hidden on the scratch workspace")
	}
	if len(ws.Clients) != 0 {
		t.Fatal("expected client off the origin workspace")
	}

	if _, err := d.cmdWin([]string{"scratch", "pop"}); err != nil {
		t.Fatalf("pop: %v", err)
	}
	if c.Workspace == wm.Model.Scratch().ID || c.Flags.Has(FlagHidden) {
		t.Fatal("expected client back from the scratchpad")
	}
	if ws.Active != c.ID {
		t.Fatal("expected popped client focused")
	}
}

func TestEnterNotifySwitchesWorkspaceAlways(t *testing.T) {
	d, wm, _, mon, _ := newDispatchWM()
	wm.Model.Config.FocusMouse = false
	other, _ := wm.Model.WorkspaceByNum(3)
	if _, err := wm.Model.AddClient(60, other.ID, mon.ID); err != nil {
		t.Fatalf("add client: %v", err)
	}

	d.handleXEvent(XEvent{Type: EventEnterNotify, Window: 60})
	if mon.Active != other.ID {
		t.Fatal("workspace must follow the entered window even without focus_mouse")
	}
}

func TestConfigureRequestTiledGetsCurrentGeometry(t *testing.T) {
	d, wm, f, mon, ws := newDispatchWM()
	c, _ := wm.Model.AddClient(70, ws.ID, mon.ID)
	c.Geom = Rect{X: 1, Y: 2, W: 300, H: 200}
	_ = mon

	d.handleXEvent(XEvent{Type: EventConfigureRequest, Window: 70, Geom: Rect{X: 500, Y: 500, W: 50, H: 50}})
	if f.Geoms[70] != c.Geom {
		t.Fatalf("tiled client must be restated at its current geometry, got %+v", f.Geoms[70])
	}
	if c.Geom != (Rect{X: 1, Y: 2, W: 300, H: 200}) {
		t.Fatal("tiled client geometry must not change")
	}
}

func TestStartupScanManagesExisting(t *testing.T) {
	d, wm, f, _, _ := newDispatchWM()
	f.Existing = []uint32{201, 202}
	d.ScanExisting()
	if _, ok := wm.Model.ClientByWindow(201); !ok {
		t.Fatal("expected existing window 201 managed")
	}
	if _, ok := wm.Model.ClientByWindow(202); !ok {
		t.Fatal("expected existing window 202 managed")
	}
}
