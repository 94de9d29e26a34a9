package wm

import "fmt"

// WM is the top-level orchestrator: it owns the data model and the
// subsystems that operate on it, and is the single point every
// command handler and event handler mutates through. Every method on
// WM and its subsystems runs on the single consumer goroutine
// described in the concurrency model; WM itself holds no lock.
type WM struct {
	Model   *Model
	Layout  *Layout
	Focus   *Focus
	Rules   *RuleEngine
	Randr   *Randr
	Mouse   *Mouse
	Status  *Broadcaster
	X       XTransport

	// SelMon is the monitor explicit user action (pointer entry,
	// click, `mon`/`ws view`) last selected. 0 defers to the heuristic
	// in ActiveMonitor.
	SelMon ID

	terminals map[int]ID // pid -> client id, for absorption lookups
}

func NewWM(x XTransport) *WM {
	m := NewModel()
	focus := NewFocus(m)
	wm := &WM{
		Model:     m,
		Layout:    NewLayout(m),
		Focus:     focus,
		Rules:     NewRuleEngine(),
		Status:    NewBroadcaster(),
		X:         x,
		terminals: make(map[int]ID),
	}
	wm.Randr = NewRandr(wm)
	wm.Mouse = NewMouse(wm)
	return wm
}

// ActiveWorkspace returns the workspace currently shown on mon.
func (w *WM) ActiveWorkspace(mon *Monitor) (*Workspace, bool) {
	return w.Model.WorkspaceByID(mon.Active)
}

// ActiveMonitor returns the user-selected monitor (set by pointer
// entry, click, or a `mon`/`ws view` command), falling back to
// whichever monitor has a focused client, then to the first monitor.
func (w *WM) ActiveMonitor() *Monitor {
	if w.SelMon != 0 {
		if mon, ok := w.Model.MonitorByID(w.SelMon); ok {
			return mon
		}
	}
	for _, mon := range w.Model.ConnectedMonitors() {
		if ws, ok := w.Model.WorkspaceByID(mon.Active); ok && ws.Active != 0 {
			return mon
		}
	}
	return w.Model.PrimaryMonitor()
}

// SetActiveMonitor changes the user-selected monitor (pointer entry,
// `mon`/`ws view` commands), a no-op if id names no live monitor.
func (w *WM) SetActiveMonitor(id ID) {
	if _, ok := w.Model.MonitorByID(id); ok {
		w.SelMon = id
	}
}

// Retile reapplies the layout engine to ws's monitor and pushes the
// resulting geometry through the X transport.
func (w *WM) Retile(ws *Workspace) error {
	mon, ok := w.Model.MonitorByID(ws.Monitor)
	if !ok {
		return fmt.Errorf("retile workspace %d: %w", ws.ID, ErrUnknownMonitor)
	}
	for _, g := range w.Layout.Apply(ws, mon) {
		c, ok := w.Model.Client(g.Client)
		if !ok {
			continue
		}
		if err := w.X.ConfigureWindow(c.Window, g.Rect, g.Border); err != nil {
			return fmt.Errorf("retile client %d: %w", g.Client, err)
		}
	}
	return nil
}

// GrabClientButtons (re)establishes the move/resize pointer grabs on a
// client for the configured mouse modifier, called on manage
// and again on mapping-notify.
func (w *WM) GrabClientButtons(c *Client) {
	mod := ModMask(w.Model.Config.MouseMod)
	const (
		buttonMove   = 1
		buttonResize = 3
	)
	_ = w.X.UngrabButton(c.Window, buttonMove, mod)
	_ = w.X.UngrabButton(c.Window, buttonResize, mod)
	_ = w.X.GrabButton(c.Window, buttonMove, mod)
	_ = w.X.GrabButton(c.Window, buttonResize, mod)
}

// ModMask resolves a modifier name from `set mouse` into its X mask
// bits.
func ModMask(name string) uint16 {
	switch name {
	case "Shift":
		return 1 << 0
	case "Control", "Ctrl":
		return 1 << 2
	case "Mod1", "Alt":
		return 1 << 3
	case "Mod4", "Super":
		return 1 << 6
	default:
		return 1 << 6
	}
}

// RegisterTerminal records a freshly mapped TERMINAL client's pid so
// later absorption lookups can find it by pid.
func (w *WM) RegisterTerminal(c *Client) {
	if c.Flags.Has(FlagTerminal) && c.TermPID != 0 {
		w.terminals[c.TermPID] = c.ID
	}
}

func (w *WM) UnregisterTerminal(c *Client) {
	if c.TermPID != 0 {
		delete(w.terminals, c.TermPID)
	}
}

// TryAbsorb checks whether a newly mapped client's parent chain
// resolves to a managed terminal with no absorbed child yet, and if so
// absorbs it: the child leaves the
// workspace lists and becomes the terminal's owned sub-record, the two
// swap window ids so the terminal's slot now drives the child's
// window, and the terminal's own window is unmapped.
func (w *WM) TryAbsorb(child *Client, childPID int) bool {
	if child.Flags.Has(FlagNoAbsorb) || child.Flags.Has(FlagTerminal) || childPID == 0 {
		return false
	}
	termID, ok := AbsorbCandidate(childPID, w.terminals, 32)
	if !ok || termID == child.ID {
		return false
	}
	term, ok := w.Model.Client(termID)
	if !ok || term.Absorbed != nil {
		return false
	}

	w.Model.Detach(child)
	w.Model.DetachStack(child)
	delete(w.Model.winToClient, child.Window)
	delete(w.Model.winToClient, term.Window)
	delete(w.Model.clients, child.ID)

	term.Absorbed = child
	term.Window, child.Window = child.Window, term.Window
	w.Model.winToClient[term.Window] = term.ID

	_ = w.X.UnmapWindow(child.Window)

	child.Class, term.Class = term.Class, child.Class
	child.Instance, term.Instance = term.Instance, child.Instance
	child.Title, term.Title = term.Title, child.Title
	return true
}

// Desorb reverses an absorption when the absorbed child's window goes
// away: window ids swap back, the terminal's own window is remapped,
// and its identity strings return.
func (w *WM) Desorb(term *Client) {
	child := term.Absorbed
	if child == nil {
		return
	}
	term.Absorbed = nil
	delete(w.Model.winToClient, term.Window)
	term.Window, child.Window = child.Window, term.Window
	w.Model.winToClient[term.Window] = term.ID

	term.Class, term.Instance, term.Title = child.Class, child.Instance, child.Title
	term.Flags |= FlagNeedsMap
	_ = w.X.MapWindow(term.Window)
}
