package wm

import (
	"errors"
	"testing"
)

// checkListInvariants asserts the core list invariants: every client on a
// workspace appears in both the client list and the focus stack of that
// same workspace, and the selection is the stack head.
func checkListInvariants(t *testing.T, m *Model) {
	t.Helper()
	for _, ws := range append(m.AllWorkspaces(), m.Scratch()) {
		if len(ws.Clients) != len(ws.Stack) {
			t.Fatalf("workspace %q: %d listed vs %d stacked", ws.Name, len(ws.Clients), len(ws.Stack))
		}
		inStack := make(map[ID]bool, len(ws.Stack))
		for _, id := range ws.Stack {
			inStack[id] = true
		}
		for _, id := range ws.Clients {
			if !inStack[id] {
				t.Fatalf("workspace %q: client %d in list but not in stack", ws.Name, id)
			}
			c, ok := m.Client(id)
			if !ok || c.Workspace != ws.ID {
				t.Fatalf("workspace %q: client %d workspace pointer mismatch", ws.Name, id)
			}
		}
		if ws.Active != 0 && (len(ws.Stack) == 0 || ws.Stack[0] != ws.Active) {
			t.Fatalf("workspace %q: selection %d is not the stack head %v", ws.Name, ws.Active, ws.Stack)
		}
	}
}

func TestAddClientJoinsBothLists(t *testing.T) {
	m := NewModel()
	mon := m.AddMonitor("VGA-1", Rect{W: 1920, H: 1080})
	ws, _ := m.WorkspaceByID(mon.Active)
	a, _ := m.AddClient(1, ws.ID, mon.ID)
	b, _ := m.AddClient(2, ws.ID, mon.ID)

	checkListInvariants(t, m)
	if ws.Clients[0] != a.ID || ws.Clients[1] != b.ID {
		t.Fatalf("expected list order [a b], got %v", ws.Clients)
	}
	if ws.Stack[0] != b.ID {
		t.Fatalf("expected most recent client at stack head, got %v", ws.Stack)
	}
	if ws.Active != b.ID {
		t.Fatalf("expected selection %d, got %d", b.ID, ws.Active)
	}
}

func TestAddClientTileToHead(t *testing.T) {
	m := NewModel()
	m.Config.TileToHead = true
	mon := m.AddMonitor("VGA-1", Rect{W: 1920, H: 1080})
	ws, _ := m.WorkspaceByID(mon.Active)
	a, _ := m.AddClient(1, ws.ID, mon.ID)
	b, _ := m.AddClient(2, ws.ID, mon.ID)

	if ws.Clients[0] != b.ID || ws.Clients[1] != a.ID {
		t.Fatalf("expected head insertion order [b a], got %v", ws.Clients)
	}
}

func TestDetachStackPromotesNewHead(t *testing.T) {
	m := NewModel()
	mon := m.AddMonitor("VGA-1", Rect{W: 1920, H: 1080})
	ws, _ := m.WorkspaceByID(mon.Active)
	a, _ := m.AddClient(1, ws.ID, mon.ID)
	b, _ := m.AddClient(2, ws.ID, mon.ID)

	if err := m.RemoveClient(b.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if ws.Active != a.ID {
		t.Fatalf("expected selection to fall back to %d, got %d", a.ID, ws.Active)
	}
	checkListInvariants(t, m)
}

func TestSetWorkspaceMovesAtomically(t *testing.T) {
	m := NewModel()
	mon := m.AddMonitor("VGA-1", Rect{W: 1920, H: 1080})
	src, _ := m.WorkspaceByID(mon.Active)
	dst, _ := m.WorkspaceByNum(1)
	c, _ := m.AddClient(1, src.ID, mon.ID)

	if err := m.SetWorkspace(c, dst.ID, false); err != nil {
		t.Fatalf("set workspace: %v", err)
	}
	if len(src.Clients) != 0 || len(src.Stack) != 0 {
		t.Fatalf("expected source emptied, got %v / %v", src.Clients, src.Stack)
	}
	if dst.Active != c.ID {
		t.Fatal("expected client selected on destination")
	}
	checkListInvariants(t, m)
}

func TestSetWorkspaceToTailKeepsSelection(t *testing.T) {
	m := NewModel()
	mon := m.AddMonitor("VGA-1", Rect{W: 1920, H: 1080})
	src, _ := m.WorkspaceByID(mon.Active)
	dst, _ := m.WorkspaceByNum(1)
	incumbent, _ := m.AddClient(1, dst.ID, mon.ID)
	mover, _ := m.AddClient(2, src.ID, mon.ID)

	if err := m.SetWorkspace(mover, dst.ID, true); err != nil {
		t.Fatalf("set workspace: %v", err)
	}
	if dst.Active != incumbent.ID {
		t.Fatalf("expected incumbent %d to stay selected, got %d", incumbent.ID, dst.Active)
	}
	if dst.Stack[len(dst.Stack)-1] != mover.ID {
		t.Fatalf("expected mover at stack tail, got %v", dst.Stack)
	}
}

func TestAssignWorkspaceRefusesLastOnMonitor(t *testing.T) {
	m := NewModel()
	m.Config.NumWorkspaces = 1
	monA := m.AddMonitor("A", Rect{W: 1920, H: 1080})
	monB := &Monitor{ID: m.allocID(), Name: "B", Geom: Rect{X: 1920, W: 1920, H: 1080}, Connected: true}
	m.monitors[monB.ID] = monB
	wsB := m.AddWorkspace(monB.ID, 1)
	monB.Active = wsB.ID

	wsA, _ := m.WorkspaceByID(monA.Active)
	err := m.AssignWorkspace(wsA, monB)
	if !errors.Is(err, ErrLastWorkspaceOnMonitor) {
		t.Fatalf("expected ErrLastWorkspaceOnMonitor, got %v", err)
	}
}

func TestScratchWorkspaceOutsideNumberedSet(t *testing.T) {
	m := NewModel()
	m.AddMonitor("VGA-1", Rect{W: 1920, H: 1080})
	for _, ws := range m.AllWorkspaces() {
		if ws.ID == m.Scratch().ID {
			t.Fatal("scratch workspace leaked into enumeration")
		}
	}
	if _, ok := m.WorkspaceByNum(-1); ok {
		t.Fatal("scratch workspace resolvable by number")
	}
	if m.Scratch().Layout != LayoutFloat {
		t.Fatal("scratch workspace should have no tile function")
	}
}

func TestMonitorDisconnectRoundRobin(t *testing.T) {
	m := NewModel()
	m.Config.NumWorkspaces = 4
	monA := m.AddMonitor("A", Rect{W: 1920, H: 1080})
	monB := m.AddMonitor("B", Rect{X: 1920, W: 1920, H: 1080})

	// Give B a second workspace so the round-robin has two to place.
	ws3, _ := m.WorkspaceByNum(2)
	if err := m.AssignWorkspace(ws3, monB); err != nil {
		t.Fatalf("assign: %v", err)
	}

	if err := m.MarkMonitorDisconnected(monB.ID); err != nil {
		t.Fatalf("disconnect: %v", err)
	}
	if monB.Connected {
		t.Fatal("expected B marked disconnected")
	}
	for _, wsID := range append([]ID(nil), monB.Workspaces...) {
		_ = wsID
		t.Fatal("expected B's workspaces reassigned")
	}
	for _, ws := range m.AllWorkspaces() {
		if ws.Monitor != monA.ID {
			t.Fatalf("expected every workspace on A, %q is on %d", ws.Name, ws.Monitor)
		}
	}
}

func TestStaticWorkspacePinsOnDisconnect(t *testing.T) {
	m := NewModel()
	m.Config.WorkspaceStatic = true
	m.AddMonitor("A", Rect{W: 1920, H: 1080})
	monB := m.AddMonitor("B", Rect{X: 1920, W: 1920, H: 1080})

	before := len(monB.Workspaces)
	if err := m.MarkMonitorDisconnected(monB.ID); err != nil {
		t.Fatalf("disconnect: %v", err)
	}
	if len(monB.Workspaces) != before {
		t.Fatal("static_ws should pin workspaces to their configured monitor")
	}
}

func TestUpdateStrutsSubtractsPanelReservation(t *testing.T) {
	m := NewModel()
	mon := m.AddMonitor("VGA-1", Rect{W: 1920, H: 1080})
	m.AddPanel(500, mon.ID, Strut{Top: 24})
	if mon.Usable.Y != 24 || mon.Usable.H != 1056 {
		t.Fatalf("expected top strut subtracted, got %+v", mon.Usable)
	}
	p, _ := m.PanelByWindow(500)
	m.RemovePanel(p.ID)
	if mon.Usable != mon.Geom {
		t.Fatalf("expected usable restored after panel removal, got %+v", mon.Usable)
	}
}
