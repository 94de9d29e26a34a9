package wm

import (
	"log"
	"strings"
)

// onMapRequest is the manage path: classify the window by
// _NET_WM_WINDOW_TYPE (panel, desk, or client), read its properties,
// run the rule engine, try terminal absorption, and schedule a
// refresh.
func (d *Dispatcher) onMapRequest(ev XEvent) {
	m := d.WM.Model
	if _, already := m.ClientByWindow(ev.Window); already {
		return
	}
	if _, already := m.PanelByWindow(ev.Window); already {
		return
	}
	if _, already := m.DeskByWindow(ev.Window); already {
		return
	}

	mon := d.WM.ActiveMonitor()
	if mon == nil {
		log.Printf("dispatch: map request for 0x%x with no connected monitor", ev.Window)
		return
	}

	switch ReadWindowType(d.WM.X, ev.Window) {
	case "_NET_WM_WINDOW_TYPE_DOCK":
		strut, _ := ReadStrut(d.WM.X, ev.Window)
		m.AddPanel(ev.Window, mon.ID, strut)
		_ = d.WM.X.MapWindow(ev.Window)
		d.markRefresh()
		return
	case "_NET_WM_WINDOW_TYPE_DESKTOP":
		m.AddDesk(ev.Window, mon.ID)
		_ = d.WM.X.MapWindow(ev.Window)
		d.markRefresh()
		return
	}

	ws, ok := m.WorkspaceByID(mon.Active)
	if !ok {
		return
	}

	c, err := m.AddClient(ev.Window, ws.ID, mon.ID)
	if err != nil {
		log.Printf("dispatch: add client 0x%x: %v", ev.Window, err)
		return
	}

	if err := ReadClientProps(d.WM.X, c); err != nil && err != ErrNoXUtil {
		log.Printf("dispatch: read props for 0x%x: %v", ev.Window, err)
	}
	if c.Hints.Fixed() {
		c.Flags |= FlagFloating | FlagFixed
	}
	if parentWin := ReadTransientFor(d.WM.X, ev.Window); parentWin != 0 {
		if parent, ok := m.ClientByWindow(parentWin); ok {
			c.Transient = parent.ID
			c.Flags |= FlagFloating
		}
	}
	if !m.Config.ObeyMotif {
		c.Flags &^= FlagNoBorder
	}
	if c.Flags.Has(FlagNoBorder) {
		c.Border = 0
	}

	rule := d.WM.Rules.Apply(c, m)
	if rule == nil {
		d.WM.Rules.ApplyDefault(c, m, d.WM.X)
	}
	d.WM.RegisterTerminal(c)
	d.WM.GrabClientButtons(c)
	SetWMState(d.WM.X, c.Window, NormalState)

	if d.WM.TryAbsorb(c, c.TermPID) {
		d.markRefresh()
		return
	}

	if c.Flags.Has(FlagScratch) {
		_ = m.SetWorkspace(c, m.Scratch().ID, false)
		c.Flags |= FlagHidden
		d.markRefresh()
		return
	}

	focusIt := m.Config.FocusOpen
	if rule != nil {
		focusIt = rule.Focus
	}
	if focusIt {
		if target, ok := m.WorkspaceByID(c.Workspace); ok && target.ID != mon.Active {
			d.WM.ViewWorkspace(target)
		}
		d.WM.FocusClient(c)
	} else {
		// Focus stays where it was: the newcomer drops to the stack
		// tail so the refresh pipeline's focus(nil) re-selects the
		// incumbent head.
		m.DetachStack(c)
		m.attachStackTail(c)
	}
	d.WM.Status.Broadcast(Notification{Type: NotifyClientMapped, Client: c.ID})
	d.markRefresh()
}

// onUnmapNotify unmanages the window unless the unmap was synthetic, in
// which case the client is only marked withdrawn.
func (d *Dispatcher) onUnmapNotify(ev XEvent) {
	if p, ok := d.WM.Model.PanelByWindow(ev.Window); ok {
		d.WM.Model.RemovePanel(p.ID)
		d.markRefresh()
		return
	}
	if desk, ok := d.WM.Model.DeskByWindow(ev.Window); ok {
		d.WM.Model.RemoveDesk(desk.ID)
		d.markRefresh()
		return
	}
	c, ok := d.WM.Model.ClientByWindow(ev.Window)
	if !ok {
		return
	}
	if ev.SendEvent {
		SetWMState(d.WM.X, c.Window, WithdrawnState)
		return
	}
	if c.Flags.Has(FlagHidden) {
		// A hidden (scratched or absorbed-terminal) window unmapping is
		// the WM's own doing, not a withdrawal.
		return
	}
	d.unmanage(c)
}

func (d *Dispatcher) onDestroyNotify(ev XEvent) {
	if p, ok := d.WM.Model.PanelByWindow(ev.Window); ok {
		d.WM.Model.RemovePanel(p.ID)
		d.markRefresh()
		return
	}
	if desk, ok := d.WM.Model.DeskByWindow(ev.Window); ok {
		d.WM.Model.RemoveDesk(desk.ID)
		d.markRefresh()
		return
	}
	c, ok := d.WM.Model.ClientByWindow(ev.Window)
	if !ok {
		return
	}
	if c.Absorbed != nil {
		// The absorbed child's window died: the terminal desorbs and
		// lives on in its slot.
		d.WM.Desorb(c)
		d.markRefresh()
		return
	}
	d.unmanage(c)
}

// unmanage destroys the client record: detach from both
// lists, restore the original border width, withdraw its WM state, and
// refresh.
func (d *Dispatcher) unmanage(c *Client) {
	d.WM.UnregisterTerminal(c)
	if c.Absorbed != nil {
		// Both terminal and child are going away together; drop the
		// orphan record without a refresh of its own.
		c.Absorbed = nil
	}
	if c.SavedBorder > 0 {
		_ = d.WM.X.SetBorderWidth(c.Window, c.SavedBorder)
	}
	SetWMState(d.WM.X, c.Window, WithdrawnState)
	d.WM.Rules.RunCallback(c, "closed")
	if err := d.WM.Model.RemoveClient(c.ID); err != nil {
		log.Printf("dispatch: remove client: %v", err)
		return
	}
	d.WM.Status.Broadcast(Notification{Type: NotifyClientUnmapped, Client: c.ID})
	d.markRefresh()
}

// onConfigureRequest honors a floating client's own move/resize request
// clamped to its monitor; a tiled client gets a synthetic
// ConfigureNotify restating its current geometry instead.
func (d *Dispatcher) onConfigureRequest(ev XEvent) {
	c, ok := d.WM.Model.ClientByWindow(ev.Window)
	if !ok {
		_ = d.WM.X.ConfigureWindow(ev.Window, ev.Geom, 0)
		return
	}
	if c.Flags.Has(FlagIgnoreCfg) {
		return
	}
	if !c.Floating() {
		_ = d.WM.X.ConfigureWindow(c.Window, c.Geom, c.Border)
		return
	}
	mon, ok := d.WM.Model.MonitorByID(c.Monitor)
	if !ok {
		return
	}
	r := ClampGeometry(ev.Geom, mon.Usable, false, d.WM.Model.Config.MinXY)
	if d.WM.Model.Config.TileHints || c.Floating() {
		r.W, r.H = ApplySizeHints(r.W, r.H, c.Hints)
	}
	c.Geom = r
	_ = d.WM.X.ConfigureWindow(c.Window, r, c.Border)
}

// onConfigureNotify tracks root-window geometry changes.
func (d *Dispatcher) onConfigureNotify(ev XEvent) {
	if ev.Window != d.WM.X.RootWindow() {
		return
	}
	if err := d.WM.Randr.Reconcile(); err != nil {
		log.Printf("dispatch: reconcile after root resize: %v", err)
	}
	d.markRefresh()
}

// onPropertyNotify reacts per changed property: urgency and
// input hints, size-hint invalidation, transient links, titles, window
// type, and panel struts.
func (d *Dispatcher) onPropertyNotify(ev XEvent) {
	if p, ok := d.WM.Model.PanelByWindow(ev.Window); ok {
		if strings.HasPrefix(ev.Atom, "_NET_WM_STRUT") {
			if strut, ok := ReadStrut(d.WM.X, ev.Window); ok {
				p.Strut = strut
				d.WM.Model.UpdateStruts(p.Monitor)
				d.markRefresh()
			}
		}
		return
	}
	c, ok := d.WM.Model.ClientByWindow(ev.Window)
	if !ok {
		return
	}
	switch ev.Atom {
	case "WM_HINTS":
		wasUrgent := c.Urgent()
		c.Flags &^= FlagNoInput | FlagUrgent
		if err := ReadClientProps(d.WM.X, c); err != nil && err != ErrNoXUtil {
			log.Printf("dispatch: refresh hints for 0x%x: %v", ev.Window, err)
		}
		if c.Urgent() != wasUrgent {
			d.WM.SetUrgent(c, c.Urgent())
		}
	case "WM_NORMAL_HINTS":
		c.Hints = SizeHints{}
		_ = ReadClientProps(d.WM.X, c)
		if c.Hints.Fixed() {
			c.Flags |= FlagFloating | FlagFixed
		}
	case "WM_TRANSIENT_FOR":
		if parentWin := ReadTransientFor(d.WM.X, ev.Window); parentWin != 0 {
			if parent, ok := d.WM.Model.ClientByWindow(parentWin); ok {
				c.Transient = parent.ID
				if !c.Floating() {
					c.Flags |= FlagFloating
					d.markRefresh()
				}
			}
		}
	case "_NET_WM_NAME", "WM_NAME":
		_ = ReadClientProps(d.WM.X, c)
		d.WM.Status.Broadcast(Notification{Type: NotifyFocusChanged, Client: c.ID})
	case "_NET_WM_WINDOW_TYPE":
		_ = ReadClientProps(d.WM.X, c)
		if c.WinType == "_NET_WM_WINDOW_TYPE_DIALOG" || c.WinType == "_NET_WM_WINDOW_TYPE_SPLASH" {
			if !c.Floating() {
				c.Flags |= FlagFloating
				d.markRefresh()
			}
		}
	default:
		// Unknown per-client property changes are ignored (recovery
		// rule: fall back to defaults, keep managing).
	}
}

// onClientMessage dispatches the EWMH root/client messages.
func (d *Dispatcher) onClientMessage(ev XEvent) {
	m := d.WM.Model
	switch ev.MessageType {
	case "_NET_CURRENT_DESKTOP":
		if ws, ok := m.WorkspaceByNum(int(ev.Data[0])); ok {
			d.WM.ViewWorkspace(ws)
			d.markRefresh()
		}
		return
	case "_NET_CLOSE_WINDOW":
		if c, ok := m.ClientByWindow(ev.Window); ok {
			if err := d.WM.X.SendProtocolMessage(c.Window, "WM_DELETE_WINDOW"); err != nil {
				_ = d.WM.X.DestroyWindow(c.Window)
			}
		}
		return
	}

	c, ok := m.ClientByWindow(ev.Window)
	if !ok || c.Flags.Has(FlagIgnoreMsg) {
		return
	}

	switch ev.MessageType {
	case "_NET_WM_DESKTOP":
		if ws, ok := m.WorkspaceByNum(int(ev.Data[0])); ok {
			if err := m.SetWorkspace(c, ws.ID, false); err == nil {
				_ = PublishClientDesktop(d.WM.X, c, ws.Num)
				d.markRefresh()
			}
		}
	case "_NET_WM_STATE":
		d.applyNetWMState(c, ev)
	case "_NET_ACTIVE_WINDOW":
		// focus_urgent decides between jumping to the client
		// and flagging it urgent in place.
		if d.WM.Model.Config.FocusUrgent {
			if ws, ok := m.WorkspaceByID(c.Workspace); ok {
				d.WM.ViewWorkspace(ws)
			}
			d.WM.FocusClient(c)
			d.markRefresh()
		} else {
			d.WM.SetUrgent(c, true)
		}
	}
}

// applyNetWMState applies a _NET_WM_STATE message's tri-state action to
// the one or two state atoms it names.
func (d *Dispatcher) applyNetWMState(c *Client, ev XEvent) {
	action := ev.Data[0]
	apply := func(stateAtom uint32) {
		name, err := d.WM.X.AtomName(stateAtom)
		if err != nil {
			return
		}
		switch name {
		case "_NET_WM_STATE_FULLSCREEN":
			on := action == NetStateAdd || (action == NetStateToggle && !c.Fullscreen())
			d.WM.SetFullscreen(c, on)
			d.markRefresh()
		case "_NET_WM_STATE_ABOVE":
			switch action {
			case NetStateAdd:
				c.Flags |= FlagAbove
			case NetStateRemove:
				c.Flags &^= FlagAbove
			case NetStateToggle:
				c.Flags ^= FlagAbove
			}
			d.markRefresh()
		case "_NET_WM_STATE_DEMANDS_ATTENTION":
			on := action == NetStateAdd || (action == NetStateToggle && !c.Urgent())
			d.WM.SetUrgent(c, on)
		}
	}
	if ev.Data[1] != 0 {
		apply(ev.Data[1])
	}
	if ev.Data[2] != 0 {
		apply(ev.Data[2])
	}
}

// onEnterNotify implements focus-follows-mouse: the workspace
// always follows the entered window; focus only does so when
// focus_mouse is enabled.
func (d *Dispatcher) onEnterNotify(ev XEvent) {
	c, ok := d.WM.Model.ClientByWindow(ev.Window)
	if !ok {
		return
	}
	if ws, ok := d.WM.Model.WorkspaceByID(c.Workspace); ok {
		if mon, ok := d.WM.Model.MonitorByID(ws.Monitor); ok && mon.Active != ws.ID {
			d.WM.ViewWorkspace(ws)
			d.markRefresh()
		}
	}
	if !d.WM.Model.Config.FocusMouse {
		return
	}
	d.WM.SetActiveMonitor(c.Monitor)
	d.WM.FocusClient(c)
}

// onFocusIn re-asserts input focus when a client steals it from the
// current selection.
func (d *Dispatcher) onFocusIn(ev XEvent) {
	mon := d.WM.ActiveMonitor()
	if mon == nil {
		return
	}
	ws, ok := d.WM.Model.WorkspaceByID(mon.Active)
	if !ok || ws.Active == 0 {
		return
	}
	sel, ok := d.WM.Model.Client(ws.Active)
	if !ok || sel.Window == ev.Window {
		return
	}
	if sel.Flags.Has(FlagNoInput) {
		_ = d.WM.X.SendProtocolMessage(sel.Window, "WM_TAKE_FOCUS")
	} else {
		_ = d.WM.X.SetInputFocus(sel.Window)
	}
}

// onMappingNotify refreshes key mappings and re-grabs buttons on every
// managed client.
func (d *Dispatcher) onMappingNotify(ev XEvent) {
	for _, c := range d.WM.Model.AllClients() {
		d.WM.GrabClientButtons(c)
	}
}

func (d *Dispatcher) onButtonPress(ev XEvent) {
	c, ok := d.WM.Model.ClientByWindow(ev.Window)
	if !ok {
		return
	}
	d.WM.FocusClient(c)
	d.WM.SetActiveMonitor(c.Monitor)
	_ = d.WM.X.RaiseWindow(c.Window)
	d.WM.Mouse.BeginDrag(c, ev)
}

func (d *Dispatcher) onButtonRelease(ev XEvent) {
	if d.WM.Mouse.Dragging() {
		d.WM.Mouse.EndDrag()
		d.markRefresh()
	}
}

// onMotionNotify drives interactive move/resize when a drag is active,
// and otherwise implements root motion-notify: crossing into a
// different monitor whose workspace isn't already current switches to
// it, so focus-follows-pointer stays correct between windows too.
func (d *Dispatcher) onMotionNotify(ev XEvent) {
	if d.WM.Mouse.Dragging() {
		d.WM.Mouse.UpdateDrag(ev)
		return
	}
	mon := d.WM.Model.MonitorAt(ev.RootX, ev.RootY)
	if mon == nil || mon.ID == d.WM.SelMon {
		return
	}
	d.WM.SetActiveMonitor(mon.ID)
}

func (d *Dispatcher) onRandRScreenChange(ev XEvent) {
	if err := d.WM.Randr.Reconcile(); err != nil {
		log.Printf("dispatch: randr reconcile: %v", err)
	}
	d.markRefresh()
}
