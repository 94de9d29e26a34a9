package wm

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"
)

// maxStack is the default nstack: effectively unbounded, so every
// workspace starts with a plain two-column master/stack split until a
// `set stack` command lowers it enough to spill clients into the
// third, overflow column.
const maxStack = 1 << 30

// MaxWorkspaces bounds on-demand workspace allocation (requests for
// more are refused at the parser, nothing is allocated).
const MaxWorkspaces = 256

// SplitMin and SplitMax bound every configurable split ratio: msplit,
// ssplit, and interactive mouse-resize ratio adjustments.
const (
	SplitMin = 0.05
	SplitMax = 0.95
)

// ClampSplit enforces the [SplitMin, SplitMax] bound placed
// on every master/stack split ratio.
func ClampSplit(v float64) float64 {
	if v < SplitMin {
		return SplitMin
	}
	if v > SplitMax {
		return SplitMax
	}
	return v
}

var (
	ErrLastWorkspaceOnMonitor = errors.New("cannot remove last workspace on monitor")
	ErrNoConnectedMonitor     = errors.New("no connected monitor")
	ErrUnknownClient          = errors.New("unknown client id")
	ErrUnknownWorkspace       = errors.New("unknown workspace id")
	ErrUnknownMonitor         = errors.New("unknown monitor id")
)

// Model is the arena of entities (stable integer
// handles replacing a raw pointer graph). All mutation happens on the
// single consumer goroutine the concurrency model requires, so Model carries no
// internal locking of its own.
type Model struct {
	nextID ID

	clients    map[ID]*Client
	workspaces map[ID]*Workspace
	monitors   map[ID]*Monitor
	panels     map[ID]*Panel
	desks      map[ID]*Desk
	rules      []*Rule

	winToClient map[uint32]ID
	winToPanel  map[uint32]ID
	winToDesk   map[uint32]ID

	// scratch is the distinguished workspace outside the numbered set;
	// it is never shown by a monitor and never laid out.
	scratch ID

	Config GlobalConfig
}

func NewModel() *Model {
	m := &Model{
		nextID:      1,
		clients:     make(map[ID]*Client),
		workspaces:  make(map[ID]*Workspace),
		monitors:    make(map[ID]*Monitor),
		panels:      make(map[ID]*Panel),
		desks:       make(map[ID]*Desk),
		winToClient: make(map[uint32]ID),
		winToPanel:  make(map[uint32]ID),
		winToDesk:   make(map[uint32]ID),
		Config:      DefaultGlobalConfig(),
	}
	scratch := &Workspace{
		ID:          m.allocID(),
		Num:         -1,
		Name:        "scratch",
		Layout:      LayoutFloat,
		MasterN:     1,
		MasterRatio: 0.5,
		StackN:      maxStack,
		StackRatio:  0.55,
	}
	m.workspaces[scratch.ID] = scratch
	m.scratch = scratch.ID
	return m
}

func (m *Model) allocID() ID {
	id := m.nextID
	m.nextID++
	return id
}

// Scratch returns the distinguished scratchpad workspace.
func (m *Model) Scratch() *Workspace { return m.workspaces[m.scratch] }

// Attach inserts c into its workspace's client list: at the head when
// toHead is set (the tile_to_head policy), at the tail otherwise.
func (m *Model) Attach(c *Client, toHead bool) {
	ws, ok := m.workspaces[c.Workspace]
	if !ok {
		return
	}
	if toHead {
		ws.Clients = append([]ID{c.ID}, ws.Clients...)
	} else {
		ws.Clients = append(ws.Clients, c.ID)
	}
}

// Detach removes c from its workspace's client list.
func (m *Model) Detach(c *Client) {
	ws, ok := m.workspaces[c.Workspace]
	if !ok {
		return
	}
	ws.Clients = removeID(ws.Clients, c.ID)
}

// AttachStack pushes c onto its workspace's focus stack head and makes
// it the selection.
func (m *Model) AttachStack(c *Client) {
	ws, ok := m.workspaces[c.Workspace]
	if !ok {
		return
	}
	ws.Stack = append([]ID{c.ID}, removeID(ws.Stack, c.ID)...)
	ws.Active = c.ID
}

// attachStackTail appends c to the focus stack without selecting it,
// the to_tail insertion policy of set_workspace.
func (m *Model) attachStackTail(c *Client) {
	ws, ok := m.workspaces[c.Workspace]
	if !ok {
		return
	}
	ws.Stack = append(removeID(ws.Stack, c.ID), c.ID)
	if ws.Active == 0 {
		ws.Active = c.ID
	}
}

// DetachStack removes c from its workspace's focus stack; when c was
// the selection the new stack head (if any) takes over.
func (m *Model) DetachStack(c *Client) {
	ws, ok := m.workspaces[c.Workspace]
	if !ok {
		return
	}
	ws.Stack = removeID(ws.Stack, c.ID)
	if ws.Active == c.ID {
		ws.Active = 0
		if len(ws.Stack) > 0 {
			ws.Active = ws.Stack[0]
		}
	}
}

func removeID(s []ID, id ID) []ID {
	for i, v := range s {
		if v == id {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}

// SetWorkspace moves a client between workspaces atomically:
// detach from both lists of the old workspace, attach to both of the
// new, focus stack position controlled by toTail.
func (m *Model) SetWorkspace(c *Client, dst ID, toTail bool) error {
	dstWS, ok := m.workspaces[dst]
	if !ok {
		return fmt.Errorf("set workspace: %w", ErrUnknownWorkspace)
	}
	if c.Workspace == dst {
		return nil
	}
	m.Detach(c)
	m.DetachStack(c)
	c.Workspace = dst
	c.Monitor = dstWS.Monitor
	m.Attach(c, m.Config.TileToHead)
	if toTail {
		m.attachStackTail(c)
	} else {
		m.AttachStack(c)
	}
	return nil
}

// AssignWorkspace rehomes ws to mon. It fails with
// ErrLastWorkspaceOnMonitor when ws is the only workspace left on its
// current monitor, since a monitor must always have at least one.
func (m *Model) AssignWorkspace(ws *Workspace, mon *Monitor) error {
	if ws.Monitor == mon.ID {
		return nil
	}
	if old, ok := m.monitors[ws.Monitor]; ok {
		if len(old.Workspaces) <= 1 {
			return ErrLastWorkspaceOnMonitor
		}
		old.Workspaces = removeID(old.Workspaces, ws.ID)
		if old.Active == ws.ID {
			old.Active = old.Workspaces[0]
		}
	}
	ws.Monitor = mon.ID
	mon.Workspaces = append(mon.Workspaces, ws.ID)
	if mon.Active == 0 {
		mon.Active = ws.ID
	}
	for _, cid := range ws.Clients {
		if c, ok := m.clients[cid]; ok {
			c.Monitor = mon.ID
		}
	}
	return nil
}

// AddMonitor registers a newly connected output and seeds it with the
// configured number of workspaces, unless numbered workspaces
// already exist elsewhere (a hot-plugged second output borrows from the
// pool instead of inflating it).
func (m *Model) AddMonitor(name string, geom Rect) *Monitor {
	mon := &Monitor{ID: m.allocID(), Name: name, Geom: geom, Usable: geom, Connected: true}
	m.monitors[mon.ID] = mon
	if len(m.monitors) == 1 {
		for i := 0; i < m.Config.NumWorkspaces; i++ {
			ws := m.AddWorkspace(mon.ID, i)
			if i == 0 {
				mon.Active = ws.ID
			}
		}
		return mon
	}
	// Subsequent monitors take over an unshown numbered workspace, or
	// get a fresh one when every existing workspace is already visible.
	for _, ws := range m.AllWorkspacesSorted() {
		if m.workspaceVisible(ws) {
			continue
		}
		if err := m.AssignWorkspace(ws, mon); err == nil {
			mon.Active = ws.ID
			return mon
		}
	}
	ws := m.AddWorkspace(mon.ID, m.nextWorkspaceNum())
	mon.Active = ws.ID
	return mon
}

func (m *Model) workspaceVisible(ws *Workspace) bool {
	mon, ok := m.monitors[ws.Monitor]
	return ok && mon.Active == ws.ID
}

func (m *Model) nextWorkspaceNum() int {
	n := 0
	for _, ws := range m.workspaces {
		if ws.Num >= n {
			n = ws.Num + 1
		}
	}
	return n
}

// MarkMonitorDisconnected implements RandR unplug handling: the
// record is kept (so a later replug finds its workspaces where it left
// them under static_ws), and unless static_ws pins them, its workspaces
// are redistributed round-robin across the remaining connected
// monitors, preserving per-workspace settings.
func (m *Model) MarkMonitorDisconnected(id ID) error {
	mon, ok := m.monitors[id]
	if !ok {
		return fmt.Errorf("disconnect monitor %d: %w", id, ErrUnknownMonitor)
	}
	mon.Connected = false

	if m.Config.WorkspaceStatic {
		return nil
	}

	targets := m.ConnectedMonitors()
	if len(targets) == 0 {
		return ErrNoConnectedMonitor
	}
	moved := append([]ID(nil), mon.Workspaces...)
	for i, wsID := range moved {
		ws := m.workspaces[wsID]
		if ws == nil {
			continue
		}
		target := targets[i%len(targets)]
		mon.Workspaces = removeID(mon.Workspaces, wsID)
		ws.Monitor = target.ID
		target.Workspaces = append(target.Workspaces, wsID)
		if target.Active == 0 {
			target.Active = wsID
		}
		for _, cID := range ws.Clients {
			if c := m.clients[cID]; c != nil {
				c.Monitor = target.ID
			}
		}
	}
	mon.Active = 0
	return nil
}

// AddWorkspace creates a new workspace pinned to mon with the given
// stable configured number (used when a monitor is added, when a
// reconnected monitor reclaims a workspace, and by `set num_ws`).
func (m *Model) AddWorkspace(mon ID, num int) *Workspace {
	ws := &Workspace{
		ID:          m.allocID(),
		Monitor:     mon,
		Num:         num,
		Name:        fmt.Sprintf("%d", num+1),
		Layout:      LayoutTile,
		MasterN:     1,
		MasterRatio: 0.5,
		StackN:      maxStack, // unbounded until `set stack` lowers it
		StackRatio:  0.55,
		Gap:         m.Config.BorderGap,
	}
	m.workspaces[ws.ID] = ws
	if parent, ok := m.monitors[mon]; ok {
		parent.Workspaces = append(parent.Workspaces, ws.ID)
	}
	return ws
}

// RemoveWorkspace keeps the invariant that a monitor always
// keeps at least one workspace.
func (m *Model) RemoveWorkspace(id ID) error {
	ws, ok := m.workspaces[id]
	if !ok {
		return fmt.Errorf("remove workspace %d: %w", id, ErrUnknownWorkspace)
	}
	mon, ok := m.monitors[ws.Monitor]
	if !ok {
		return fmt.Errorf("remove workspace %d: %w", id, ErrUnknownMonitor)
	}
	if len(mon.Workspaces) <= 1 {
		return ErrLastWorkspaceOnMonitor
	}
	mon.Workspaces = removeID(mon.Workspaces, id)
	if mon.Active == id {
		mon.Active = mon.Workspaces[0]
	}
	delete(m.workspaces, id)
	return nil
}

// AddClient inserts a freshly mapped window into wsID's lists per the
// tile_to_head policy and selects it.
func (m *Model) AddClient(win uint32, wsID, monID ID) (*Client, error) {
	ws, ok := m.workspaces[wsID]
	if !ok {
		return nil, fmt.Errorf("add client: %w", ErrUnknownWorkspace)
	}
	c := &Client{
		ID:        m.allocID(),
		Window:    win,
		Workspace: wsID,
		Monitor:   monID,
		Border:    m.Config.BorderWidth,
		Gap:       ws.Gap,
		Flags:     FlagNeedsMap,
		MappedAt:  time.Now(),
	}
	m.clients[c.ID] = c
	m.winToClient[win] = c.ID
	m.Attach(c, m.Config.TileToHead)
	m.AttachStack(c)
	return c, nil
}

// RemoveClient detaches a client from both workspace lists on
// unmap/destroy and drops it from the arena.
func (m *Model) RemoveClient(id ID) error {
	c, ok := m.clients[id]
	if !ok {
		return fmt.Errorf("remove client %d: %w", id, ErrUnknownClient)
	}
	m.Detach(c)
	m.DetachStack(c)
	delete(m.winToClient, c.Window)
	delete(m.clients, id)
	return nil
}

// MoveClientToWorkspace is SetWorkspace by id, selecting the client on
// arrival (`ws send`/`ws follow`).
func (m *Model) MoveClientToWorkspace(id, dst ID) error {
	c, ok := m.clients[id]
	if !ok {
		return fmt.Errorf("move client: %w", ErrUnknownClient)
	}
	return m.SetWorkspace(c, dst, false)
}

func (m *Model) Client(id ID) (*Client, bool)           { c, ok := m.clients[id]; return c, ok }
func (m *Model) WorkspaceByID(id ID) (*Workspace, bool) { w, ok := m.workspaces[id]; return w, ok }
func (m *Model) MonitorByID(id ID) (*Monitor, bool)     { mo, ok := m.monitors[id]; return mo, ok }
func (m *Model) Panel(id ID) (*Panel, bool)             { p, ok := m.panels[id]; return p, ok }

func (m *Model) ClientByWindow(win uint32) (*Client, bool) {
	id, ok := m.winToClient[win]
	if !ok {
		return nil, false
	}
	return m.clients[id], true
}

func (m *Model) PanelByWindow(win uint32) (*Panel, bool) {
	id, ok := m.winToPanel[win]
	if !ok {
		return nil, false
	}
	return m.panels[id], true
}

func (m *Model) DeskByWindow(win uint32) (*Desk, bool) {
	id, ok := m.winToDesk[win]
	if !ok {
		return nil, false
	}
	return m.desks[id], true
}

// AddPanel registers a dock window and triggers strut recomputation.
func (m *Model) AddPanel(win uint32, mon ID, strut Strut) *Panel {
	p := &Panel{ID: m.allocID(), Window: win, Monitor: mon, Strut: strut}
	m.panels[p.ID] = p
	m.winToPanel[win] = p.ID
	m.UpdateStruts(mon)
	return p
}

func (m *Model) RemovePanel(id ID) {
	p, ok := m.panels[id]
	if !ok {
		return
	}
	delete(m.winToPanel, p.Window)
	delete(m.panels, id)
	m.UpdateStruts(p.Monitor)
}

// AddDesk registers a desktop-type window pinned below everything on
// its monitor.
func (m *Model) AddDesk(win uint32, mon ID) *Desk {
	d := &Desk{ID: m.allocID(), Window: win, Monitor: mon}
	m.desks[d.ID] = d
	m.winToDesk[win] = d.ID
	return d
}

func (m *Model) RemoveDesk(id ID) {
	d, ok := m.desks[id]
	if !ok {
		return
	}
	delete(m.winToDesk, d.Window)
	delete(m.desks, id)
}

func (m *Model) AllPanels() []*Panel {
	out := make([]*Panel, 0, len(m.panels))
	for _, p := range m.panels {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Model) AllDesks() []*Desk {
	out := make([]*Desk, 0, len(m.desks))
	for _, d := range m.desks {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// UpdateStruts recomputes a monitor's usable area from every panel
// that reports a non-zero strut against it 
// Only panels belonging to the monitor being updated contribute.
func (m *Model) UpdateStruts(monID ID) {
	mon, ok := m.monitors[monID]
	if !ok {
		return
	}
	usable := mon.Geom
	var l, r, t, b int
	for _, p := range m.panels {
		if p.Monitor != monID {
			continue
		}
		if p.Strut.Left > l {
			l = p.Strut.Left
		}
		if p.Strut.Right > r {
			r = p.Strut.Right
		}
		if p.Strut.Top > t {
			t = p.Strut.Top
		}
		if p.Strut.Bottom > b {
			b = p.Strut.Bottom
		}
	}
	mon.Usable = usable.Inset(l, r, t, b)
}

// AllClients returns every client, for snapshotting and for
// operations (like rule application) that must scan everything.
func (m *Model) AllClients() []*Client {
	out := make([]*Client, 0, len(m.clients))
	for _, c := range m.clients {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Model) AllMonitors() []*Monitor {
	out := make([]*Monitor, 0, len(m.monitors))
	for _, mo := range m.monitors {
		out = append(out, mo)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ConnectedMonitors returns the live outputs in id order; disconnected
// records are retained in the arena but excluded here.
func (m *Model) ConnectedMonitors() []*Monitor {
	out := make([]*Monitor, 0, len(m.monitors))
	for _, mo := range m.monitors {
		if mo.Connected {
			out = append(out, mo)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// PrimaryMonitor is the RandR primary if set, else the first connected
//.
func (m *Model) PrimaryMonitor() *Monitor {
	conn := m.ConnectedMonitors()
	for _, mo := range conn {
		if mo.Primary {
			return mo
		}
	}
	if len(conn) > 0 {
		return conn[0]
	}
	return nil
}

// MonitorAt returns the connected monitor whose full rectangle
// contains (x, y), or nil if none does (root motion handling:
// "if the pointer crossed into a monitor whose workspace is not
// current, switch to it").
func (m *Model) MonitorAt(x, y int) *Monitor {
	for _, mon := range m.ConnectedMonitors() {
		r := mon.Geom
		if x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H {
			return mon
		}
	}
	return nil
}

// AllWorkspaces returns every numbered workspace; the scratch
// workspace stays out of enumeration (it has no number and no monitor).
func (m *Model) AllWorkspaces() []*Workspace {
	out := make([]*Workspace, 0, len(m.workspaces))
	for _, ws := range m.workspaces {
		if ws.ID == m.scratch {
			continue
		}
		out = append(out, ws)
	}
	return out
}

// AllWorkspacesSorted returns every numbered workspace ordered by its
// stable configured number, the order `ws next/prev` cycles through
//.
func (m *Model) AllWorkspacesSorted() []*Workspace {
	out := m.AllWorkspaces()
	sort.Slice(out, func(i, j int) bool { return out[i].Num < out[j].Num })
	return out
}

// AllMonitorsSorted returns every connected monitor ordered by id, the
// order `mon next/prev` cycles through.
func (m *Model) AllMonitorsSorted() []*Monitor {
	return m.ConnectedMonitors()
}

// WorkspaceByNum finds a workspace by its stable configured number.
func (m *Model) WorkspaceByNum(num int) (*Workspace, bool) {
	for _, ws := range m.workspaces {
		if ws.ID != m.scratch && ws.Num == num {
			return ws, true
		}
	}
	return nil, false
}

// WorkspaceByName finds a workspace by its display name.
func (m *Model) WorkspaceByName(name string) (*Workspace, bool) {
	for _, ws := range m.workspaces {
		if ws.ID != m.scratch && ws.Name == name {
			return ws, true
		}
	}
	return nil, false
}

// WorkspaceByRef resolves a WSREF token: a bare integer names a
// workspace by its 1-indexed configured number (workspace numbers
// display one-based), anything else is matched against the
// workspace's name.
func (m *Model) WorkspaceByRef(ref string) (*Workspace, bool) {
	if n, err := strconv.Atoi(ref); err == nil {
		if ws, ok := m.WorkspaceByNum(n - 1); ok {
			return ws, true
		}
		return nil, false
	}
	return m.WorkspaceByName(ref)
}

// MonitorByName finds a connected monitor by its output name.
func (m *Model) MonitorByName(name string) (*Monitor, bool) {
	for _, mon := range m.monitors {
		if mon.Connected && mon.Name == name {
			return mon, true
		}
	}
	return nil, false
}

// MonitorByRef resolves a MONREF token: a bare integer names a
// monitor by its 1-indexed position in id order, anything else is
// matched against the monitor's output name.
func (m *Model) MonitorByRef(ref string) (*Monitor, bool) {
	if n, err := strconv.Atoi(ref); err == nil {
		sorted := m.ConnectedMonitors()
		if n >= 1 && n <= len(sorted) {
			return sorted[n-1], true
		}
		return nil, false
	}
	return m.MonitorByName(ref)
}
