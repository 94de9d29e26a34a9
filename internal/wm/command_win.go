package wm

import "fmt"

// cmdWin implements the `win` keyword's actions (the win-action
// grammar): cycle, fakefull, float, full, focus, kill, resize, stick,
// swap, scratch.
func (d *Dispatcher) cmdWin(args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("win: missing action")
	}
	action, rest := args[0], args[1:]

	if action == "scratch" {
		return "", d.cmdWinScratch(rest)
	}

	c, err := d.activeClient()
	if err != nil {
		return "", fmt.Errorf("win %s: %w", action, err)
	}
	ws, _ := d.WM.Model.WorkspaceByID(c.Workspace)

	switch action {
	case "cycle":
		d.WM.Focus.Rotate(ws)
		d.markRefresh()
		return "", nil

	case "fakefull":
		c.Flags ^= FlagFakeFullscreen
		d.markRefresh()
		return "", nil

	case "float":
		return "", d.cmdWinFloat(c, ws, rest)

	case "full":
		d.WM.SetFullscreen(c, !c.Fullscreen())
		d.markRefresh()
		return "", nil

	case "focus":
		return d.cmdWinFocus(ws, rest)

	case "kill":
		if err := d.WM.X.SendProtocolMessage(c.Window, "WM_DELETE_WINDOW"); err != nil {
			if derr := d.WM.X.DestroyWindow(c.Window); derr != nil {
				return "", fmt.Errorf("win kill: %w", derr)
			}
		}
		return "", nil

	case "resize":
		return "", d.cmdWinResize(c, rest)

	case "stick":
		if c.Sticky() {
			c.Flags &^= FlagSticky
		} else {
			c.Flags |= FlagSticky | FlagFloating
		}
		d.markRefresh()
		return "", nil

	case "swap":
		return d.cmdWinSwap(ws, rest)
	}
	return "", fmt.Errorf("win: unknown action %q", action)
}

// cmdWinFloat toggles or forces floating state; toggling swaps the
// current and saved geometry so a float-toggle round trip restores the
// pre-sequence placement.
func (d *Dispatcher) cmdWinFloat(c *Client, ws *Workspace, args []string) error {
	if c.Fullscreen() {
		return fmt.Errorf("win float: unable to float fullscreen windows")
	}
	setFloat := func(cl *Client, on bool) {
		if on == cl.Floating() {
			return
		}
		if on {
			cl.Flags |= FlagFloating
			if cl.SavedGeom.W > 0 {
				cl.Geom = cl.SavedGeom
				cl.Border = cl.SavedBorder
			}
		} else {
			cl.SavedGeom = cl.Geom
			cl.SavedBorder = cl.Border
			cl.Flags &^= FlagFloating
		}
	}
	if len(args) == 0 {
		setFloat(c, !c.Floating())
		d.markRefresh()
		return nil
	}
	switch args[0] {
	case "true":
		setFloat(c, true)
	case "false":
		setFloat(c, false)
	case "all":
		for _, id := range ws.Clients {
			if cl, ok := d.WM.Model.Client(id); ok && !cl.Fullscreen() {
				setFloat(cl, true)
			}
		}
	default:
		return fmt.Errorf("win float: unknown argument %q", args[0])
	}
	d.markRefresh()
	return nil
}

func (d *Dispatcher) cmdWinFocus(ws *Workspace, args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("win focus: missing DIR|N")
	}
	if len(ws.Clients) == 0 {
		return "", fmt.Errorf("win focus: workspace has no clients")
	}

	curIdx := -1
	for i, id := range ws.Clients {
		if id == ws.Active {
			curIdx = i
			break
		}
	}

	var target ID
	switch {
	case args[0] == "up" || args[0] == "down" || args[0] == "left" || args[0] == "right":
		// Geometric neighbor lookup, a superset of the DIR grammar
		// useful for keybindings wired directly to screen-relative
		// movement rather than stack-relative cycling.
		target = d.WM.Focus.FocusDirection(ws, geometricDir(args[0]))
	case isDirWord(args[0]):
		dw, _ := ParseDirWord(args[0])
		target = focusByDirWord(ws, curIdx, dw)
	default:
		n, err := strconvAtoiClamped(args[0], len(ws.Clients))
		if err != nil {
			return "", fmt.Errorf("win focus: %w", err)
		}
		target = ws.Clients[n]
	}
	if target == 0 {
		return "", fmt.Errorf("win focus: no such client")
	}
	if c, ok := d.WM.Model.Client(target); ok {
		d.WM.FocusClient(c)
	}
	return "", nil
}

// focusByDirWord resolves a DIR keyword against the workspace's list
// order (next/prev wrap; last returns to the previously focused
// client, the second entry of the focus stack; nextne/prevne behave
// like next/prev since every listed client is mapped).
func focusByDirWord(ws *Workspace, curIdx int, dw DirWord) ID {
	clients := ws.Clients
	if len(clients) == 0 {
		return 0
	}
	switch dw {
	case DirWordNext, DirWordNextNE:
		if curIdx < 0 {
			return clients[0]
		}
		return clients[(curIdx+1)%len(clients)]
	case DirWordPrev, DirWordPrevNE:
		if curIdx < 0 {
			return clients[len(clients)-1]
		}
		return clients[(curIdx-1+len(clients))%len(clients)]
	case DirWordLast:
		if len(ws.Stack) > 1 {
			return ws.Stack[1]
		}
		return ws.Active
	}
	return 0
}

func isDirWord(s string) bool {
	_, ok := ParseDirWord(s)
	return ok
}

func geometricDir(s string) Direction {
	switch s {
	case "up":
		return DirUp
	case "down":
		return DirDown
	case "left":
		return DirLeft
	default:
		return DirRight
	}
}

func strconvAtoiClamped(s string, n int) (int, error) {
	v, err := ParseIVal(s)
	if err != nil {
		return 0, err
	}
	i := v.Value
	if i < 0 || i >= n {
		return 0, fmt.Errorf("index %d out of range [0,%d)", i, n)
	}
	return i, nil
}

// cmdWinResize implements `win resize RESIZESPEC`: a floating
// client's geometry fields move directly; a tiled client's h delta
// lands in its per-slot height offset and w delta in the master split,
// mirroring the interactive tiled resize.
func (d *Dispatcher) cmdWinResize(c *Client, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("win resize: missing (x|y|w|h|bw) IVAL pairs")
	}
	ws, _ := d.WM.Model.WorkspaceByID(c.Workspace)
	mon, _ := d.WM.Model.MonitorByID(c.Monitor)
	geom := c.Geom
	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			return fmt.Errorf("win resize: missing value for %q", args[i])
		}
		v, err := ParseIVal(args[i+1])
		if err != nil {
			return fmt.Errorf("win resize: %w", err)
		}
		switch args[i] {
		case "x":
			if !c.Floating() {
				return fmt.Errorf("win resize: unable to move tiled windows, try x on a floating window")
			}
			geom.X = v.Resolve(geom.X)
		case "y":
			if !c.Floating() {
				return fmt.Errorf("win resize: unable to move tiled windows, try y on a floating window")
			}
			geom.Y = v.Resolve(geom.Y)
		case "w":
			if c.Floating() {
				geom.W = v.Resolve(geom.W)
			} else if ws != nil && mon != nil && mon.Usable.W > 0 {
				delta := float64(v.Value) / float64(mon.Usable.W)
				if !v.Relative {
					delta = float64(v.Value)/float64(mon.Usable.W) - ws.MasterRatio
				}
				ws.MasterRatio = ClampSplit(ws.MasterRatio + delta)
			}
		case "h":
			if c.Floating() {
				geom.H = v.Resolve(geom.H)
			} else {
				c.HOff = v.Resolve(c.HOff)
			}
		case "bw":
			c.Border = v.Resolve(c.Border)
		default:
			return fmt.Errorf("win resize: unknown field %q", args[i])
		}
	}
	if c.Floating() {
		if mon != nil {
			geom = ClampGeometry(geom, mon.Usable, true, d.WM.Model.Config.MinXY)
		}
		geom.W, geom.H = ApplySizeHints(geom.W, geom.H, c.Hints)
		c.Geom = geom
		_ = d.WM.X.ConfigureWindow(c.Window, geom, c.Border)
		return nil
	}
	d.markRefresh()
	return nil
}

// cmdWinSwap implements `win swap` (no arguments): the active
// tiled client trades places with the master (the first tiled client
// in list order). If the active client is already master, it swaps
// with the next tiled client instead. An
// optional geometric direction argument (up/down/left/right) swaps
// with the nearest on-screen neighbor instead, for keybindings wired
// to screen-relative movement.
func (d *Dispatcher) cmdWinSwap(ws *Workspace, args []string) (string, error) {
	c, err := d.activeClient()
	if err != nil {
		return "", fmt.Errorf("win swap: %w", err)
	}
	if c.Floating() || c.Fullscreen() {
		return "", fmt.Errorf("win swap: unable to swap floating or fullscreen windows")
	}
	if len(args) > 0 {
		if !d.WM.Focus.SwapDirection(ws, geometricDir(args[0])) {
			return "", fmt.Errorf("win swap: no neighbor in direction %q", args[0])
		}
		d.markRefresh()
		return "", nil
	}
	tiled := d.WM.Layout.tiled(ws)
	if len(tiled) < 2 {
		return "", fmt.Errorf("win swap: unable to swap single tiled window")
	}

	masterIdx, activeIdx := -1, -1
	for i, id := range ws.Clients {
		if tiled[0].ID == id {
			masterIdx = i
		}
		if id == c.ID {
			activeIdx = i
		}
	}
	if masterIdx == -1 || activeIdx == -1 {
		return "", fmt.Errorf("win swap: client not found in list")
	}
	if activeIdx == masterIdx {
		// Active is already master: swap with the next tiled client.
		other := tiled[1]
		for i, id := range ws.Clients {
			if id == other.ID {
				activeIdx = i
				break
			}
		}
	}
	ws.Clients[masterIdx], ws.Clients[activeIdx] = ws.Clients[activeIdx], ws.Clients[masterIdx]
	d.markRefresh()
	return "", nil
}

// cmdWinScratch implements the scratchpad: push parks the
// active client on the distinguished scratch workspace hidden; pop
// returns the most recently pushed scratch client to the current
// workspace and focuses it; no argument toggles.
func (d *Dispatcher) cmdWinScratch(args []string) error {
	action := ""
	if len(args) > 0 {
		action = args[0]
	}
	m := d.WM.Model
	scratch := m.Scratch()

	pop := func() error {
		if len(scratch.Stack) == 0 {
			return fmt.Errorf("win scratch: scratchpad is empty")
		}
		c, ok := m.Client(scratch.Stack[0])
		if !ok {
			return fmt.Errorf("win scratch: scratchpad is empty")
		}
		ws, err := d.activeWorkspace()
		if err != nil {
			return fmt.Errorf("win scratch: %w", err)
		}
		if err := m.SetWorkspace(c, ws.ID, false); err != nil {
			return fmt.Errorf("win scratch: %w", err)
		}
		c.Flags &^= FlagHidden
		c.Flags |= FlagFloating
		d.WM.FocusClient(c)
		d.markRefresh()
		return nil
	}
	push := func() error {
		c, err := d.activeClient()
		if err != nil {
			return fmt.Errorf("win scratch: %w", err)
		}
		if err := m.SetWorkspace(c, scratch.ID, false); err != nil {
			return fmt.Errorf("win scratch: %w", err)
		}
		c.Flags |= FlagScratch | FlagHidden
		d.WM.hideClient(c)
		d.WM.FocusClient(nil)
		d.markRefresh()
		return nil
	}

	switch action {
	case "push":
		return push()
	case "pop":
		return pop()
	case "":
		if len(scratch.Stack) > 0 {
			return pop()
		}
		return push()
	}
	return fmt.Errorf("win scratch: unknown action %q", action)
}
