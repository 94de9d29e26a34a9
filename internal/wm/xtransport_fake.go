package wm

import (
	"fmt"
	"sync"
)

// FakeTransport is an in-memory XTransport used by tests: predictable
// behaviour without relying on OS resources, with an in-memory X
// server model standing in for the real display connection.
type FakeTransport struct {
	mu sync.Mutex

	nextAtom uint32
	atoms    map[string]uint32
	names    map[uint32]string

	Mapped     map[uint32]bool
	Geoms      map[uint32]Rect
	Borders    map[uint32]int
	Focused    uint32
	Monitors   []MonitorInfo
	root       uint32
	screenW    int
	screenH    int
	events     chan XEvent
	Destroyed  map[uint32]bool
	Properties map[uint32]map[string][]byte
	Existing   []uint32 // QueryTree results for startup-scan tests
	Raised     []uint32 // RaiseWindow call order, bottom to top
	BorderPx   map[uint32]uint32
	Protocols  []string // SendProtocolMessage log, "win:PROTO"
}

func NewFakeTransport() *FakeTransport {
	return &FakeTransport{
		nextAtom:   1,
		atoms:      make(map[string]uint32),
		names:      make(map[uint32]string),
		Mapped:     make(map[uint32]bool),
		Geoms:      make(map[uint32]Rect),
		Borders:    make(map[uint32]int),
		root:       1,
		screenW:    1920,
		screenH:    1080,
		events:     make(chan XEvent, 64),
		Destroyed:  make(map[uint32]bool),
		Properties: make(map[uint32]map[string][]byte),
		BorderPx:   make(map[uint32]uint32),
	}
}

func (f *FakeTransport) Atom(name string) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.atoms[name]; ok {
		return id, nil
	}
	id := f.nextAtom
	f.nextAtom++
	f.atoms[name] = id
	f.names[id] = name
	return id, nil
}

func (f *FakeTransport) AtomName(id uint32) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name, ok := f.names[id]
	if !ok {
		return "", fmt.Errorf("fake transport: unknown atom %d", id)
	}
	return name, nil
}

func (f *FakeTransport) MapWindow(win uint32) error   { f.Mapped[win] = true; return nil }
func (f *FakeTransport) UnmapWindow(win uint32) error { f.Mapped[win] = false; return nil }
func (f *FakeTransport) DestroyWindow(win uint32) error {
	f.Destroyed[win] = true
	delete(f.Mapped, win)
	return nil
}

func (f *FakeTransport) ConfigureWindow(win uint32, geom Rect, border int) error {
	f.Geoms[win] = geom
	f.Borders[win] = border
	return nil
}

func (f *FakeTransport) RaiseWindow(win uint32) error {
	f.Raised = append(f.Raised, win)
	return nil
}

func (f *FakeTransport) ReparentWindow(win, parent uint32, x, y int) error { return nil }

func (f *FakeTransport) SetInputFocus(win uint32) error { f.Focused = win; return nil }

func (f *FakeTransport) GrabButton(win uint32, button uint8, mods uint16) error   { return nil }
func (f *FakeTransport) UngrabButton(win uint32, button uint8, mods uint16) error { return nil }
func (f *FakeTransport) GrabKey(keycode uint8, mods uint16) error                 { return nil }

func (f *FakeTransport) GetProperty(win uint32, prop string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if props, ok := f.Properties[win]; ok {
		return props[prop], nil
	}
	return nil, nil
}

func (f *FakeTransport) SetProperty(win uint32, prop string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Properties[win] == nil {
		f.Properties[win] = make(map[string][]byte)
	}
	f.Properties[win][prop] = data
	return nil
}

func (f *FakeTransport) SetBorderWidth(win uint32, width int) error { f.Borders[win] = width; return nil }
func (f *FakeTransport) SetBorderColor(win uint32, pixel uint32) error {
	f.BorderPx[win] = pixel
	return nil
}
func (f *FakeTransport) SetWindowEventMask(win uint32, mask uint32) error { return nil }
func (f *FakeTransport) SendProtocolMessage(win uint32, protocol string) error {
	f.Protocols = append(f.Protocols, fmt.Sprintf("%d:%s", win, protocol))
	return nil
}

func (f *FakeTransport) QueryMonitors() ([]MonitorInfo, error) { return f.Monitors, nil }

func (f *FakeTransport) QueryTree(root uint32) ([]uint32, error) { return f.Existing, nil }

func (f *FakeTransport) RootWindow() uint32    { return f.root }
func (f *FakeTransport) ScreenSize() (int, int) { return f.screenW, f.screenH }

// PushEvent lets a test enqueue an event for the consumer loop to pick
// up via NextEvent.
func (f *FakeTransport) PushEvent(ev XEvent) { f.events <- ev }

func (f *FakeTransport) NextEvent() (XEvent, error) {
	ev, ok := <-f.events
	if !ok {
		return XEvent{}, fmt.Errorf("fake transport: closed")
	}
	return ev, nil
}

func (f *FakeTransport) Close() error {
	close(f.events)
	return nil
}
