package wm

import "time"

// dragMode distinguishes a move grab (button 1 + modifier) from a
// resize grab (button 3 + modifier), the two interactive mouse
// operations.
type dragMode int

const (
	dragNone dragMode = iota
	dragMove
	dragResizeFloat
	dragResizeTile
)

// tileColumn names which of the three tile columns a client being
// interactively resized sits in, so motion adjusts the right ratio
// ("motion adjusts msplit or ssplit depending on which column
// contains the client").
type tileColumn int

const (
	columnMaster tileColumn = iota
	columnStack
	columnOverflow
)

// Mouse tracks the client currently being moved or resized by pointer
// motion, and the pointer origin the drag started from.
type Mouse struct {
	wm *WM

	mode      dragMode
	client    ID
	workspace ID
	startGeom Rect
	startX    int
	startY    int

	column     tileColumn
	startRatio float64
	startHOff  int

	lastMotion time.Time
}

// motionInterval caps drag processing at roughly 60 Hz; X
// delivers motion events far faster than a layout pass is worth
// re-running.
const motionInterval = time.Second / 60

func NewMouse(wm *WM) *Mouse { return &Mouse{wm: wm} }

// BeginDrag starts a move or resize grab on press. A move always
// floats a tiled client first, re-running the layout to fill the
// vacated slot. A resize on an already-floating client resizes
// it directly; a resize on a tiled client instead adjusts the layout's
// split ratio and the client's per-slot height offset, leaving it
// tiled.
func (mo *Mouse) BeginDrag(c *Client, ev XEvent) {
	const (
		button1 = 1
		button3 = 3
	)
	mo.client = c.ID
	mo.workspace = c.Workspace
	mo.startGeom = c.Geom
	mo.startX, mo.startY = ev.RootX, ev.RootY

	switch ev.Button {
	case button1:
		mo.mode = dragMove
		if !c.Floating() {
			c.SavedGeom = c.Geom
			c.Flags |= FlagFloating
			if ws, ok := mo.wm.Model.WorkspaceByID(c.Workspace); ok {
				_ = mo.wm.Retile(ws)
			}
		}
	case button3:
		if c.Floating() {
			mo.mode = dragResizeFloat
			return
		}
		mo.mode = dragResizeTile
		mo.startHOff = c.HOff
		mo.column, mo.startRatio = mo.locateColumn(c)
	default:
		mo.mode = dragNone
	}
}

// locateColumn reports which tile column c currently occupies and that
// column's active split ratio, so resize motion perturbs the right
// one.
func (mo *Mouse) locateColumn(c *Client) (tileColumn, float64) {
	ws, ok := mo.wm.Model.WorkspaceByID(c.Workspace)
	if !ok {
		return columnMaster, 0.5
	}
	tiled := mo.wm.Layout.tiled(ws)
	idx := -1
	for i, tc := range tiled {
		if tc.ID == c.ID {
			idx = i
			break
		}
	}
	switch {
	case idx < 0:
		return columnMaster, ws.MasterRatio
	case idx < ws.MasterN:
		return columnMaster, ws.MasterRatio
	case idx < ws.MasterN+ws.StackN:
		return columnStack, ws.StackRatio
	default:
		return columnOverflow, ws.StackRatio
	}
}

// UpdateDrag applies pointer motion to the dragged client's geometry,
// or to the tile ratio and per-client height offset when resizing a
// tiled client.
func (mo *Mouse) UpdateDrag(ev XEvent) {
	if mo.mode == dragNone {
		return
	}
	now := time.Now()
	if now.Sub(mo.lastMotion) < motionInterval {
		return
	}
	mo.lastMotion = now
	c, ok := mo.wm.Model.Client(mo.client)
	if !ok {
		mo.mode = dragNone
		return
	}
	dx, dy := ev.RootX-mo.startX, ev.RootY-mo.startY

	switch mo.mode {
	case dragMove:
		r := Rect{X: mo.startGeom.X + dx, Y: mo.startGeom.Y + dy, W: mo.startGeom.W, H: mo.startGeom.H}
		if mon, ok := mo.wm.Model.MonitorByID(c.Monitor); ok {
			if target := mo.wm.Model.MonitorAt(ev.RootX, ev.RootY); target != nil && target.ID != c.Monitor {
				if ws, ok := mo.wm.Model.WorkspaceByID(target.Active); ok {
					_ = mo.wm.Model.MoveClientToWorkspace(c.ID, ws.ID)
					mon = target
				}
			}
			r = ClampGeometry(r, mon.Usable, true, mo.wm.Model.Config.MinXY)
		}
		c.Geom = r
		_ = mo.wm.X.ConfigureWindow(c.Window, r, c.Border)

	case dragResizeFloat:
		w, h := mo.startGeom.W+dx, mo.startGeom.H+dy
		if w < mo.wm.Model.Config.MinWH {
			w = mo.wm.Model.Config.MinWH
		}
		if h < mo.wm.Model.Config.MinWH {
			h = mo.wm.Model.Config.MinWH
		}
		w, h = ApplySizeHints(w, h, c.Hints)
		r := Rect{X: mo.startGeom.X, Y: mo.startGeom.Y, W: w, H: h}
		if mon, ok := mo.wm.Model.MonitorByID(c.Monitor); ok {
			r = ClampGeometry(r, mon.Usable, true, mo.wm.Model.Config.MinXY)
		}
		c.Geom = r
		_ = mo.wm.X.ConfigureWindow(c.Window, r, c.Border)

	case dragResizeTile:
		ws, ok := mo.wm.Model.WorkspaceByID(mo.workspace)
		if !ok {
			return
		}
		mon, ok := mo.wm.Model.MonitorByID(ws.Monitor)
		if !ok || mon.Usable.W == 0 {
			return
		}
		ratio := ClampSplit(mo.startRatio + float64(dx)/float64(mon.Usable.W))
		switch mo.column {
		case columnMaster:
			ws.MasterRatio = ratio
		case columnStack:
			ws.StackRatio = ratio
		}
		c.HOff = mo.startHOff + dy
		_ = mo.wm.Retile(ws)
	}
}

// EndDrag clears the drag state on button release.
func (mo *Mouse) EndDrag() {
	mo.mode = dragNone
	mo.client = 0
}

// Dragging reports whether a move/resize grab is currently active, for
// tests and for the dispatcher to skip layout churn mid-drag.
func (mo *Mouse) Dragging() bool { return mo.mode != dragNone }
