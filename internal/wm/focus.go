package wm

// Focus implements directional focus/swap navigation between tiled
// clients by nearest on-screen neighbor, and raise/stack-order
// maintenance. Since the data model has no persistent split tree, a
// neighbor is picked geometrically from each client's last-laid-out
// rectangle rather than by walking tree edges.
type Focus struct {
	Model *Model
}

func NewFocus(m *Model) *Focus { return &Focus{Model: m} }

// Neighbor returns the client id nearest to active in direction d, or
// 0 if active has no neighbor that way (direction has
// no candidate).
func (f *Focus) Neighbor(active ID, d Direction) ID {
	c, ok := f.Model.Client(active)
	if !ok {
		return 0
	}
	ws, ok := f.Model.WorkspaceByID(c.Workspace)
	if !ok {
		return 0
	}

	var best ID
	bestDist := -1
	for _, id := range ws.Clients {
		if id == active {
			continue
		}
		other, ok := f.Model.Client(id)
		if !ok {
			continue
		}
		if !inDirection(c.Geom, other.Geom, d) {
			continue
		}
		dist := centerDistance(c.Geom, other.Geom)
		if bestDist == -1 || dist < bestDist {
			bestDist, best = dist, id
		}
	}
	return best
}

func inDirection(from, to Rect, d Direction) bool {
	fcx, fcy := from.X+from.W/2, from.Y+from.H/2
	tcx, tcy := to.X+to.W/2, to.Y+to.H/2
	switch d {
	case DirLeft:
		return tcx < fcx
	case DirRight:
		return tcx > fcx
	case DirUp:
		return tcy < fcy
	case DirDown:
		return tcy > fcy
	}
	return false
}

func centerDistance(a, b Rect) int {
	acx, acy := a.X+a.W/2, a.Y+a.H/2
	bcx, bcy := b.X+b.W/2, b.Y+b.H/2
	dx, dy := acx-bcx, acy-bcy
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// FocusDirection implements `win focus <dir>`: promotes the nearest
// neighbor in that direction to the focus stack head, if any, and
// returns it.
func (f *Focus) FocusDirection(ws *Workspace, d Direction) ID {
	if ws.Active == 0 {
		return 0
	}
	n := f.Neighbor(ws.Active, d)
	if n == 0 {
		return 0
	}
	if c, ok := f.Model.Client(n); ok {
		f.Model.AttachStack(c)
	}
	return n
}

// SwapDirection implements `win swap <dir>`: exchanges active's and its
// neighbor's position in the workspace's client list (ws.Clients), the
// list order the layout reads from; the layout engine repositions both
// on the next Apply. The focus stack is left unchanged.
func (f *Focus) SwapDirection(ws *Workspace, d Direction) bool {
	if ws.Active == 0 {
		return false
	}
	n := f.Neighbor(ws.Active, d)
	if n == 0 {
		return false
	}
	ai, ni := -1, -1
	for i, id := range ws.Clients {
		if id == ws.Active {
			ai = i
		}
		if id == n {
			ni = i
		}
	}
	if ai == -1 || ni == -1 {
		return false
	}
	ws.Clients[ai], ws.Clients[ni] = ws.Clients[ni], ws.Clients[ai]
	return true
}

// Raise moves id to the head of its workspace's focus stack without
// touching the tile order; restack reads Z-order from the stack list.
func (f *Focus) Raise(ws *Workspace, id ID) {
	if c, ok := f.Model.Client(id); ok {
		f.Model.AttachStack(c)
	}
}

// Rotate advances the tile order by one slot (`win cycle`): the head
// client moves to the tail and everything else shifts up.
func (f *Focus) Rotate(ws *Workspace) {
	if len(ws.Clients) < 2 {
		return
	}
	head := ws.Clients[0]
	copy(ws.Clients, ws.Clients[1:])
	ws.Clients[len(ws.Clients)-1] = head
}

// SetActive focuses id on its workspace: it becomes the stack head and
// the selection, and FlagUrgent is cleared ("a focused client
// is never urgent").
func (f *Focus) SetActive(id ID) {
	c, ok := f.Model.Client(id)
	if !ok {
		return
	}
	ws, ok := f.Model.WorkspaceByID(c.Workspace)
	if !ok {
		return
	}
	f.Model.AttachStack(c)
	c.Flags &^= FlagUrgent
	if mon, ok := f.Model.MonitorByID(ws.Monitor); ok {
		mon.Active = ws.ID
	}
}
