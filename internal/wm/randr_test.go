package wm

import "testing"

func TestRandrReconcileAddsMonitor(t *testing.T) {
	f := NewFakeTransport()
	wm := NewWM(f)
	f.Monitors = []MonitorInfo{{Name: "VGA-1", Geom: Rect{X: 0, Y: 0, W: 1920, H: 1080}}}

	if err := wm.Randr.Reconcile(); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(wm.Model.AllMonitors()) != 1 {
		t.Fatalf("expected 1 monitor, got %d", len(wm.Model.AllMonitors()))
	}
}

func TestRandrReconcileMarksDisconnected(t *testing.T) {
	f := NewFakeTransport()
	wm := NewWM(f)
	f.Monitors = []MonitorInfo{
		{Name: "VGA-1", Geom: Rect{X: 0, Y: 0, W: 1920, H: 1080}},
		{Name: "HDMI-1", Geom: Rect{X: 1920, Y: 0, W: 1920, H: 1080}},
	}
	if err := wm.Randr.Reconcile(); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	f.Monitors = []MonitorInfo{{Name: "VGA-1", Geom: Rect{X: 0, Y: 0, W: 1920, H: 1080}}}
	if err := wm.Randr.Reconcile(); err != nil {
		t.Fatalf("reconcile 2: %v", err)
	}
	if len(wm.Model.ConnectedMonitors()) != 1 {
		t.Fatalf("expected 1 connected monitor, got %d", len(wm.Model.ConnectedMonitors()))
	}
	// The record is retained, only marked disconnected.
	if len(wm.Model.AllMonitors()) != 2 {
		t.Fatalf("expected disconnected record retained, got %d total", len(wm.Model.AllMonitors()))
	}
	for _, mon := range wm.Model.AllMonitors() {
		if mon.Name == "HDMI-1" {
			if mon.Connected {
				t.Fatal("expected HDMI-1 marked disconnected")
			}
			if len(mon.Workspaces) != 0 {
				t.Fatalf("expected HDMI-1's workspaces reassigned, still has %d", len(mon.Workspaces))
			}
		}
	}
}

func TestRandrHotUnplugReassignsAndRescales(t *testing.T) {
	f := NewFakeTransport()
	wm := NewWM(f)
	f.Monitors = []MonitorInfo{
		{Name: "M1", Geom: Rect{X: 0, Y: 0, W: 1920, H: 1080}},
		{Name: "M2", Geom: Rect{X: 1920, Y: 0, W: 1920, H: 1080}},
	}
	if err := wm.Randr.Reconcile(); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	m1, _ := wm.Model.MonitorByName("M1")
	m2, _ := wm.Model.MonitorByName("M2")

	ws2, _ := wm.Model.WorkspaceByID(m2.Active)
	c, _ := wm.Model.AddClient(77, ws2.ID, m2.ID)
	c.Flags |= FlagFloating
	c.Geom = Rect{X: 1920, Y: 0, W: 400, H: 300}

	f.Monitors = f.Monitors[:1]
	if err := wm.Randr.Reconcile(); err != nil {
		t.Fatalf("reconcile 2: %v", err)
	}

	if ws2.Monitor != m1.ID {
		t.Fatal("expected M2's workspaces reassigned to M1")
	}
	if c.Monitor != m1.ID {
		t.Fatal("expected client migrated to M1")
	}
	// A floating client parked at the old origin rescales to the new
	// origin: new_pos = new_origin + (old_pos - old_origin) * scale.
	if c.Geom.X != 0 || c.Geom.Y != 0 {
		t.Fatalf("expected client rescaled to origin, got %+v", c.Geom)
	}
	if c.Geom.W != 400 || c.Geom.H != 300 {
		t.Fatalf("expected size preserved across equal-size monitors, got %+v", c.Geom)
	}
}

func TestRandrCloneOriginSkipped(t *testing.T) {
	f := NewFakeTransport()
	wm := NewWM(f)
	f.Monitors = []MonitorInfo{
		{Name: "eDP-1", Geom: Rect{X: 0, Y: 0, W: 1920, H: 1080}},
		{Name: "HDMI-1", Geom: Rect{X: 0, Y: 0, W: 1920, H: 1080}},
	}
	if err := wm.Randr.Reconcile(); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if n := len(wm.Model.ConnectedMonitors()); n != 1 {
		t.Fatalf("expected clone output skipped, got %d monitors", n)
	}
}

func TestRandrReconcileUpdatesGeometry(t *testing.T) {
	f := NewFakeTransport()
	wm := NewWM(f)
	f.Monitors = []MonitorInfo{{Name: "VGA-1", Geom: Rect{X: 0, Y: 0, W: 1920, H: 1080}}}
	_ = wm.Randr.Reconcile()

	f.Monitors = []MonitorInfo{{Name: "VGA-1", Geom: Rect{X: 0, Y: 0, W: 1280, H: 800}}}
	_ = wm.Randr.Reconcile()

	mons := wm.Model.AllMonitors()
	if mons[0].Geom.W != 1280 {
		t.Fatalf("expected updated geometry, got %+v", mons[0].Geom)
	}
}
