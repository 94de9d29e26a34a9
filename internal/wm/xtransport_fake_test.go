package wm

import "testing"

func TestFakeTransportAtomInterning(t *testing.T) {
	f := NewFakeTransport()
	id1, err := f.Atom("WM_PROTOCOLS")
	if err != nil {
		t.Fatalf("atom: %v", err)
	}
	id2, err := f.Atom("WM_PROTOCOLS")
	if err != nil {
		t.Fatalf("atom: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("expected stable atom id, got %d and %d", id1, id2)
	}
	name, err := f.AtomName(id1)
	if err != nil || name != "WM_PROTOCOLS" {
		t.Fatalf("round trip failed: %q, %v", name, err)
	}
}

func TestFakeTransportConfigureAndMap(t *testing.T) {
	f := NewFakeTransport()
	if err := f.ConfigureWindow(42, Rect{X: 1, Y: 2, W: 3, H: 4}, 1); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if f.Geoms[42] != (Rect{X: 1, Y: 2, W: 3, H: 4}) {
		t.Fatalf("geom not recorded: %+v", f.Geoms[42])
	}
	_ = f.MapWindow(42)
	if !f.Mapped[42] {
		t.Fatal("expected window mapped")
	}
	_ = f.UnmapWindow(42)
	if f.Mapped[42] {
		t.Fatal("expected window unmapped")
	}
}

func TestFakeTransportEventQueue(t *testing.T) {
	f := NewFakeTransport()
	f.PushEvent(XEvent{Type: EventMapRequest, Window: 7})
	ev, err := f.NextEvent()
	if err != nil {
		t.Fatalf("next event: %v", err)
	}
	if ev.Type != EventMapRequest || ev.Window != 7 {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestFakeTransportProperties(t *testing.T) {
	f := NewFakeTransport()
	if err := f.SetProperty(5, "_NET_WM_NAME", []byte("hi")); err != nil {
		t.Fatalf("set property: %v", err)
	}
	got, err := f.GetProperty(5, "_NET_WM_NAME")
	if err != nil || string(got) != "hi" {
		t.Fatalf("got %q, %v", got, err)
	}
}
