package wm

import (
	"fmt"
	"sync"
)

// AtomIntern resolves an X11 atom name to its server-assigned id and
// back. The production transport backs this with InternAtom round
// trips; the fake allocates ids locally.
type AtomIntern interface {
	Atom(name string) (uint32, error)
	AtomName(id uint32) (string, error)
}

// AtomCache memoizes atom lookups both ways. Every decoded
// PropertyNotify and ClientMessage resolves a name, and a server round
// trip per event would dominate the loop; after the startup intern of
// WellKnownAtoms nearly every lookup is a hit. The mutex covers the
// one cross-goroutine access: the event-reader goroutine decodes atom
// names while the consumer goroutine interns new ones.
type AtomCache struct {
	intern func(name string) (uint32, error)
	lookup func(id uint32) (string, error)

	mu     sync.Mutex
	byName map[string]uint32
	byID   map[uint32]string
}

func NewAtomCache(intern func(string) (uint32, error), lookup func(uint32) (string, error)) *AtomCache {
	return &AtomCache{
		intern: intern,
		lookup: lookup,
		byName: make(map[string]uint32),
		byID:   make(map[uint32]string),
	}
}

func (c *AtomCache) Atom(name string) (uint32, error) {
	c.mu.Lock()
	id, ok := c.byName[name]
	c.mu.Unlock()
	if ok {
		return id, nil
	}
	id, err := c.intern(name)
	if err != nil {
		return 0, fmt.Errorf("intern atom %q: %w", name, err)
	}
	c.store(name, id)
	return id, nil
}

func (c *AtomCache) AtomName(id uint32) (string, error) {
	c.mu.Lock()
	name, ok := c.byID[id]
	c.mu.Unlock()
	if ok {
		return name, nil
	}
	name, err := c.lookup(id)
	if err != nil {
		return "", fmt.Errorf("lookup atom %d: %w", id, err)
	}
	c.store(name, id)
	return name, nil
}

func (c *AtomCache) store(name string, id uint32) {
	c.mu.Lock()
	c.byName[name] = id
	c.byID[id] = name
	c.mu.Unlock()
}

// WellKnownAtoms are interned once at startup so every later
// property read/write is a cache hit.
var WellKnownAtoms = []string{
	"WM_PROTOCOLS",
	"WM_DELETE_WINDOW",
	"WM_STATE",
	"WM_TAKE_FOCUS",
	"WM_CHANGE_STATE",
	"_NET_SUPPORTED",
	"_NET_SUPPORTING_WM_CHECK",
	"_NET_WM_NAME",
	"_NET_WM_STATE",
	"_NET_WM_STATE_FULLSCREEN",
	"_NET_WM_STATE_STICKY",
	"_NET_WM_STATE_DEMANDS_ATTENTION",
	"_NET_WM_STATE_ABOVE",
	"_NET_WM_STATE_HIDDEN",
	"_NET_WM_WINDOW_TYPE",
	"_NET_WM_WINDOW_TYPE_DIALOG",
	"_NET_WM_WINDOW_TYPE_UTILITY",
	"_NET_WM_WINDOW_TYPE_TOOLBAR",
	"_NET_WM_WINDOW_TYPE_SPLASH",
	"_NET_WM_WINDOW_TYPE_DOCK",
	"_NET_WM_WINDOW_TYPE_DESKTOP",
	"_NET_WM_DESKTOP",
	"_NET_WM_STRUT",
	"_NET_WM_STRUT_PARTIAL",
	"_NET_CLIENT_LIST",
	"_NET_CLIENT_LIST_STACKING",
	"_NET_NUMBER_OF_DESKTOPS",
	"_NET_CURRENT_DESKTOP",
	"_NET_DESKTOP_GEOMETRY",
	"_NET_DESKTOP_VIEWPORT",
	"_NET_DESKTOP_NAMES",
	"_NET_WORKAREA",
	"_NET_ACTIVE_WINDOW",
	"_NET_CLOSE_WINDOW",
	"_NET_WM_PID",
	"_MOTIF_WM_HINTS",
}

// CursorName is the subset of standard X cursor font glyphs dk grabs
// for the root window and the move/resize pointer.
type CursorName int

const (
	CursorNormal CursorName = iota
	CursorMove
	CursorResize
)
