package wm

import "log"

// This file is the focus/stacking state machine: the WM-level
// operations that pair a model mutation with its observable X
// consequence (border repaint, input focus, _NET_ACTIVE_WINDOW,
// stacking order) in the same handler, per the ordering guarantee in
// the concurrency model.

// FocusClient focuses c, or the top of the active workspace's focus
// stack when c is nil (falling back to the root window when the stack
// is empty). The previous selection is unfocused first, urgency is
// cleared, and input focus honors FlagNoInput by sending WM_TAKE_FOCUS
// instead of SetInputFocus.
func (w *WM) FocusClient(c *Client) {
	mon := w.ActiveMonitor()
	if mon == nil {
		return
	}
	ws, ok := w.Model.WorkspaceByID(mon.Active)
	if !ok {
		return
	}

	if c == nil {
		if len(ws.Stack) > 0 {
			c, _ = w.Model.Client(ws.Stack[0])
		}
		if c == nil {
			ws.Active = 0
			_ = w.X.SetInputFocus(w.X.RootWindow())
			return
		}
	}

	if prev, ok := w.Model.Client(ws.Active); ok && prev.ID != c.ID {
		w.unfocus(prev)
	}

	w.Focus.SetActive(c.ID)
	w.paintBorder(c)

	if c.Flags.Has(FlagNoInput) {
		if err := w.X.SendProtocolMessage(c.Window, "WM_TAKE_FOCUS"); err != nil {
			log.Printf("focus: take-focus message to 0x%x: %v", c.Window, err)
		}
	} else if err := w.X.SetInputFocus(c.Window); err != nil {
		log.Printf("focus: set input focus 0x%x: %v", c.Window, err)
	}

	if err := PublishActiveWindow(w.X, c.Window); err != nil && err != ErrNoXUtil {
		log.Printf("focus: publish active window: %v", err)
	}
	w.Status.Broadcast(Notification{Type: NotifyFocusChanged, Client: c.ID})
}

func (w *WM) unfocus(c *Client) {
	_ = w.X.SetBorderColor(c.Window, w.Model.Config.BorderColors.UnfocusInner)
}

// SelectedClient is the globally focused client: the selection of the
// active monitor's visible workspace, nil when nothing is focused.
func (w *WM) SelectedClient() *Client {
	mon := w.ActiveMonitor()
	if mon == nil {
		return nil
	}
	ws, ok := w.Model.WorkspaceByID(mon.Active)
	if !ok || ws.Active == 0 {
		return nil
	}
	c, _ := w.Model.Client(ws.Active)
	return c
}

// paintBorder repaints c's border pixel for its current focus/urgency
// state (the concentric border color scheme, reduced to the
// inner ring pixel per state).
func (w *WM) paintBorder(c *Client) {
	colors := w.Model.Config.BorderColors
	pixel := colors.UnfocusInner
	if sel := w.SelectedClient(); sel != nil && sel.ID == c.ID {
		pixel = colors.FocusInner
	}
	if c.Urgent() {
		pixel = colors.UrgentInner
	}
	_ = w.X.SetBorderColor(c.Window, pixel)
}

// SetUrgent mirrors the urgency bit into the client's border and WM
// hints. A focused client is never urgent.
func (w *WM) SetUrgent(c *Client, urgent bool) {
	if sel := w.SelectedClient(); sel != nil && sel.ID == c.ID {
		urgent = false
	}
	if urgent {
		c.Flags |= FlagUrgent
	} else {
		c.Flags &^= FlagUrgent
	}
	w.paintBorder(c)
	if urgent {
		w.Status.Broadcast(Notification{Type: NotifyUrgent, Client: c.ID})
	}
}

// SetFullscreen implements the fullscreen round-trip. On the way
// in, the client's state, geometry and border width are saved and it is
// resized borderless to the monitor's full rectangle; on the way out
// every saved field comes back. FlagFakeFullscreen bypasses the
// geometry change but the state bit still tracks, so the NET state
// property stays truthful.
func (w *WM) SetFullscreen(c *Client, on bool) {
	if on == c.Fullscreen() {
		return
	}
	mon, ok := w.Model.MonitorByID(c.Monitor)
	if !ok {
		return
	}
	if on {
		if c.Floating() {
			c.Flags |= FlagWasFloating
		} else {
			c.Flags &^= FlagWasFloating
		}
		c.SavedGeom = c.Geom
		c.SavedBorder = c.Border
		c.Flags |= FlagFullscreen
		if !c.Flags.Has(FlagFakeFullscreen) {
			c.Flags |= FlagFloating
			c.Border = 0
			c.Geom = mon.Geom
			_ = w.X.ConfigureWindow(c.Window, c.Geom, 0)
			_ = w.X.RaiseWindow(c.Window)
		}
		return
	}
	c.Flags &^= FlagFullscreen
	if !c.Flags.Has(FlagFakeFullscreen) {
		if !c.Flags.Has(FlagWasFloating) {
			c.Flags &^= FlagFloating
		}
		c.Geom = c.SavedGeom
		c.Border = c.SavedBorder
		_ = w.X.ConfigureWindow(c.Window, c.Geom, c.Border)
	}
}

// Restack pushes ws's Z-order to the server: desks at the
// bottom, tiled clients below panels, panels above them, floating
// clients above panels, the selected floating client higher still,
// ABOVE-flagged floaters above that, and real fullscreen clients on
// top. Issued bottom-to-top as a sequence of raises.
func (w *WM) Restack(ws *Workspace) {
	mon, ok := w.Model.MonitorByID(ws.Monitor)
	if !ok {
		return
	}

	raise := func(win uint32) { _ = w.X.RaiseWindow(win) }

	for _, d := range w.Model.AllDesks() {
		if d.Monitor == mon.ID {
			raise(d.Window)
		}
	}
	var floaters, above, full []*Client
	var selFloat *Client
	for _, id := range ws.Clients {
		c, ok := w.Model.Client(id)
		if !ok {
			continue
		}
		switch {
		case c.Fullscreen() && !c.Flags.Has(FlagFakeFullscreen):
			full = append(full, c)
		case c.Floating() && c.Flags.Has(FlagAbove):
			above = append(above, c)
		case c.Floating() && ws.Active == c.ID:
			selFloat = c
		case c.Floating():
			floaters = append(floaters, c)
		default:
			raise(c.Window)
		}
	}
	for _, p := range w.Model.AllPanels() {
		if p.Monitor == mon.ID {
			raise(p.Window)
		}
	}
	for _, c := range floaters {
		raise(c.Window)
	}
	if selFloat != nil {
		raise(selFloat.Window)
	}
	for _, c := range above {
		raise(c.Window)
	}
	for _, c := range full {
		raise(c.Window)
	}
}

// offscreenX is where hidden-but-mapped clients are parked: monocle
// non-selected clients and clients on non-visible workspaces move here
// instead of being unmapped, so refresh cycles never generate
// spurious unmap events.
func offscreenX(c *Client) int { return -2 * (c.Geom.W + c.Border*2) }

func (w *WM) hideClient(c *Client) {
	r := c.Geom
	r.X = offscreenX(c)
	_ = w.X.ConfigureWindow(c.Window, r, c.Border)
}

func (w *WM) showClient(c *Client) {
	if c.Flags.Has(FlagNeedsMap) {
		c.Flags &^= FlagNeedsMap
		_ = w.X.MapWindow(c.Window)
	}
	_ = w.X.ConfigureWindow(c.Window, c.Geom, c.Border)
}

// ViewWorkspace switches mon's visible workspace to ws (`ws
// view`): the old workspace's clients park off-screen, sticky clients
// migrate to the new workspace, and the new one's clients return.
func (w *WM) ViewWorkspace(ws *Workspace) {
	mon, ok := w.Model.MonitorByID(ws.Monitor)
	if !ok {
		return
	}
	if old, ok := w.Model.WorkspaceByID(mon.Active); ok && old.ID != ws.ID {
		for _, id := range append([]ID(nil), old.Clients...) {
			c, ok := w.Model.Client(id)
			if !ok {
				continue
			}
			if c.Sticky() {
				_ = w.Model.SetWorkspace(c, ws.ID, true)
				continue
			}
			w.hideClient(c)
		}
	}
	mon.Active = ws.ID
	w.SetActiveMonitor(mon.ID)
	w.Status.Broadcast(Notification{Type: NotifyWorkspaceChanged, Monitor: mon.ID})
}

// Refresh is the post-handler pipeline: lay out every
// connected monitor's visible workspace, map and place its clients,
// restack, focus the stack head, and republish root properties.
func (w *WM) Refresh() {
	for _, mon := range w.Model.ConnectedMonitors() {
		ws, ok := w.Model.WorkspaceByID(mon.Active)
		if !ok {
			continue
		}
		if err := w.Retile(ws); err != nil {
			log.Printf("refresh: retile workspace %s: %v", ws.Name, err)
		}
		for _, id := range ws.Clients {
			c, ok := w.Model.Client(id)
			if !ok {
				continue
			}
			if c.Flags.Has(FlagHidden) {
				w.hideClient(c)
				continue
			}
			w.showClient(c)
		}
		w.Restack(ws)
	}
	w.FocusClient(nil)
	if err := PublishClientListProps(w.X, w.Model, w.ActiveMonitor()); err != nil && err != ErrNoXUtil {
		log.Printf("refresh: publish root properties: %v", err)
	}
}
