package wm

import "log"

// Randr reconciles the model's Monitor set against the live RandR
// output list: outputs already known by name are updated in
// place (their workspaces stay put), a new output at an origin another
// connected monitor already occupies is a clone and is skipped, newly
// appeared outputs get a fresh Monitor, and outputs that disappeared
// are marked disconnected so their workspaces redistribute round-robin
// without the records being lost.
type Randr struct {
	wm *WM
}

func NewRandr(wm *WM) *Randr { return &Randr{wm: wm} }

// Reconcile is called on RandR screen-change notifications and once at
// startup. It returns nil on success even if nothing changed.
func (r *Randr) Reconcile() error {
	live, err := r.wm.X.QueryMonitors()
	if err != nil {
		return err
	}
	m := r.wm.Model

	seen := make(map[string]bool, len(live))
	origins := make(map[Rect]bool)
	for _, info := range live {
		existing := r.findByName(info.Name)
		if existing == nil {
			// Clone detection: an output mirroring an origin some other
			// connected monitor already covers is not a new monitor.
			origin := Rect{X: info.Geom.X, Y: info.Geom.Y}
			if origins[origin] || r.originTaken(info.Geom) {
				log.Printf("randr: %s clones an existing origin, skipping", info.Name)
				continue
			}
			origins[origin] = true
			seen[info.Name] = true
			mon := m.AddMonitor(info.Name, info.Geom)
			mon.Primary = info.Primary
			log.Printf("randr: new monitor %s at %+v", info.Name, info.Geom)
			continue
		}

		seen[info.Name] = true
		origins[Rect{X: info.Geom.X, Y: info.Geom.Y}] = true
		existing.Primary = info.Primary
		if !existing.Connected {
			existing.Connected = true
			if len(existing.Workspaces) == 0 {
				r.reclaimWorkspace(existing)
			}
			log.Printf("randr: monitor %s reconnected", info.Name)
		}
		if existing.Geom != info.Geom {
			old := existing.Geom
			existing.Geom = info.Geom
			m.UpdateStruts(existing.ID)
			r.refitMonitorClients(existing, old)
			log.Printf("randr: %s moved/resized to %+v", info.Name, info.Geom)
		}
	}

	for _, mon := range m.ConnectedMonitors() {
		if seen[mon.Name] {
			continue
		}
		log.Printf("randr: monitor %s disconnected", mon.Name)
		oldGeom := mon.Geom
		moved := r.workspaceClients(mon)
		if err := m.MarkMonitorDisconnected(mon.ID); err != nil {
			log.Printf("randr: disconnect monitor %s: %v", mon.Name, err)
			continue
		}
		for _, c := range moved {
			r.relocateClient(c, oldGeom)
		}
	}
	return nil
}

// reclaimWorkspace hands a just-reconnected monitor one workspace back
// so the "every monitor shows a workspace" invariant holds.
func (r *Randr) reclaimWorkspace(mon *Monitor) {
	m := r.wm.Model
	for _, ws := range m.AllWorkspacesSorted() {
		if m.workspaceVisible(ws) {
			continue
		}
		if err := m.AssignWorkspace(ws, mon); err == nil {
			mon.Active = ws.ID
			return
		}
	}
	ws := m.AddWorkspace(mon.ID, m.nextWorkspaceNum())
	mon.Active = ws.ID
}

func (r *Randr) workspaceClients(mon *Monitor) []*Client {
	var out []*Client
	for _, wsID := range mon.Workspaces {
		ws, ok := r.wm.Model.WorkspaceByID(wsID)
		if !ok {
			continue
		}
		for _, cID := range ws.Clients {
			if c, ok := r.wm.Model.Client(cID); ok {
				out = append(out, c)
			}
		}
	}
	return out
}

func (r *Randr) refitMonitorClients(mon *Monitor, oldGeom Rect) {
	for _, c := range r.workspaceClients(mon) {
		r.relocateClientTo(c, oldGeom, mon)
	}
}

func (r *Randr) relocateClient(c *Client, oldGeom Rect) {
	mon, ok := r.wm.Model.MonitorByID(c.Monitor)
	if !ok {
		return
	}
	r.relocateClientTo(c, oldGeom, mon)
}

// relocateClientTo implements the hot-plug client relocation rules:
// fullscreen clients refit to the new monitor's full rectangle,
// floating clients rescale proportionally and are size-hint clamped,
// and tiled clients wait for the next layout pass. A client that was
// not parked at the old monitor's origin but lands exactly on the new
// one is centered instead, so scaled-down windows don't pile up in the
// corner.
func (r *Randr) relocateClientTo(c *Client, oldGeom Rect, mon *Monitor) {
	if !c.Floating() {
		return
	}
	if c.Fullscreen() && c.Geom.W == oldGeom.W && c.Geom.H == oldGeom.H {
		c.Geom = mon.Geom
		return
	}
	atOldOrigin := c.Geom.X == oldGeom.X && c.Geom.Y == oldGeom.Y
	c.Geom.X = mon.Geom.X + (c.Geom.X-oldGeom.X)*mon.Geom.W/oldGeom.W
	c.Geom.Y = mon.Geom.Y + (c.Geom.Y-oldGeom.Y)*mon.Geom.H/oldGeom.H
	c.Geom.W = c.Geom.W * mon.Geom.W / oldGeom.W
	c.Geom.H = c.Geom.H * mon.Geom.H / oldGeom.H
	c.Geom.W, c.Geom.H = ApplySizeHints(c.Geom.W, c.Geom.H, c.Hints)
	if !atOldOrigin && c.Geom.X == mon.Geom.X && c.Geom.Y == mon.Geom.Y {
		c.Geom = Gravitate(c.Geom, mon.Usable, GravityCenter, GravityCenter, 0)
	}
}

// originTaken reports whether a connected monitor already covers geom's
// origin.
func (r *Randr) originTaken(geom Rect) bool {
	for _, mon := range r.wm.Model.ConnectedMonitors() {
		if mon.Geom.X == geom.X && mon.Geom.Y == geom.Y {
			return true
		}
	}
	return false
}

func (r *Randr) findByName(name string) *Monitor {
	for _, mon := range r.wm.Model.AllMonitors() {
		if mon.Name == name {
			return mon
		}
	}
	return nil
}
