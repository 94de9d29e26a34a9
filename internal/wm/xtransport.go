package wm

// XTransport abstracts every X11 protocol operation the core engine
// needs, so the engine's logic can be tested against a fake
// implementation instead of a live display. The production
// implementation (xtransport_x11.go) backs this with
// github.com/BurntSushi/xgb and github.com/BurntSushi/xgbutil; the
// test implementation (xtransport_fake.go) is an in-memory model fed
// canned events, so the deterministic scenarios run without a server.
type XTransport interface {
	AtomIntern

	// Window lifecycle.
	MapWindow(win uint32) error
	UnmapWindow(win uint32) error
	DestroyWindow(win uint32) error
	ConfigureWindow(win uint32, geom Rect, border int) error
	RaiseWindow(win uint32) error
	ReparentWindow(win, parent uint32, x, y int) error

	// Input focus and grabs.
	SetInputFocus(win uint32) error
	GrabButton(win uint32, button uint8, mods uint16) error
	UngrabButton(win uint32, button uint8, mods uint16) error
	GrabKey(keycode uint8, mods uint16) error

	// Property I/O, typed wrappers live in xprops.go on top of these.
	GetProperty(win uint32, prop string) ([]byte, error)
	SetProperty(win uint32, prop string, data []byte) error

	// Window attributes.
	SetBorderWidth(win uint32, width int) error
	SetBorderColor(win uint32, pixel uint32) error
	SetWindowEventMask(win uint32, mask uint32) error

	// ICCCM client-message delivery, used for WM_DELETE_WINDOW closes
	// and WM_TAKE_FOCUS.
	SendProtocolMessage(win uint32, protocol string) error

	// RandR monitor enumeration.
	QueryMonitors() ([]MonitorInfo, error)

	// QueryTree lists the root's viewable, non-override-redirect
	// top-level children, the startup-scan source.
	QueryTree(root uint32) ([]uint32, error)

	// Root window and screen geometry, resolved once at startup.
	RootWindow() uint32
	ScreenSize() (w, h int)

	// NextEvent blocks until the next X event is available and
	// returns it decoded; the event-reader goroutine calls
	// this in a loop and forwards results over the fan-in channel.
	NextEvent() (XEvent, error)

	Close() error
}

// MonitorInfo is what QueryMonitors reports for one RandR output.
type MonitorInfo struct {
	Name    string
	Geom    Rect
	Primary bool
}

// XEvent is a decoded X event, tagged by Type, carried across the
// fan-in channel to the single consumer goroutine. Only the
// fields relevant to Type are populated.
type XEvent struct {
	Type XEventType

	Window uint32
	Parent uint32 // ReparentNotify/CreateNotify

	Geom Rect // ConfigureRequest/Notify

	Button uint16
	State  uint16
	RootX  int
	RootY  int

	Atom string // PropertyNotify: changed property's name

	// ClientMessage: interned message type name and its data32 words.
	// Data[0] carries the _NET_WM_STATE tri-state (REMOVE/ADD/TOGGLE),
	// Data[1] and Data[2] the state atoms being changed.
	MessageType string
	Data        [5]uint32

	// SendEvent distinguishes synthetic UnmapNotify (a client
	// withdrawing itself) from real ones.
	SendEvent bool

	Keycode uint8
}

// Tri-state actions carried in a _NET_WM_STATE client message's
// data32[0].
const (
	NetStateRemove = 0
	NetStateAdd    = 1
	NetStateToggle = 2
)

type XEventType int

const (
	EventMapRequest XEventType = iota
	EventUnmapNotify
	EventDestroyNotify
	EventConfigureRequest
	EventConfigureNotify
	EventPropertyNotify
	EventEnterNotify
	EventFocusIn
	EventButtonPress
	EventButtonRelease
	EventMotionNotify
	EventKeyPress
	EventMappingNotify
	EventClientMessage
	EventRandRScreenChange
)
