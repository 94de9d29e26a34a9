package wm

import (
	"fmt"
	"strconv"
	"strings"
)

// layoutSetNames is the `set layout NAME|cycle` vocabulary, in the
// order `cycle` advances through.
var layoutSetNames = []struct {
	name string
	kind LayoutKind
}{
	{"tile", LayoutTile},
	{"rtile", LayoutRTile},
	{"monocle", LayoutMonocle},
	{"grid", LayoutGrid},
	{"spiral", LayoutSpiral},
	{"dwindle", LayoutDwindle},
	{"float", LayoutFloat},
}

func layoutByName(name string) (LayoutKind, bool) {
	for _, l := range layoutSetNames {
		if l.name == name {
			return l.kind, true
		}
	}
	return 0, false
}

func nameByLayout(k LayoutKind) string {
	for _, l := range layoutSetNames {
		if l.kind == k {
			return l.name
		}
	}
	return "tile"
}

// cmdSet implements the `set` keyword's set-item grammar: most items
// mutate the currently selected workspace (reassignable mid-command
// via a `ws WSREF` clause); a
// handful of global-key items mutate the process-wide GlobalConfig
// instead.
func (d *Dispatcher) cmdSet(args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("set: missing item")
	}
	target, err := d.activeWorkspace()
	if err != nil {
		return "", fmt.Errorf("set: %w", err)
	}

	badValue := func(key, val, expect string) error {
		return fmt.Errorf("invalid value for %s: %s\n\nexpected %s", key, val, expect)
	}
	parseBool := func(key, s string) (bool, error) {
		switch s {
		case "true", "1", "on":
			return true, nil
		case "false", "0", "off":
			return false, nil
		}
		return false, badValue(key, s, "true or false")
	}
	maxBorderOrGap := func() int {
		if mon, ok := d.WM.Model.MonitorByID(target.Monitor); ok {
			return mon.Usable.H / 6
		}
		return 1 << 30
	}

	i := 0
	next := func() (string, error) {
		i++
		if i >= len(args) {
			return "", fmt.Errorf("set: missing value for %s", args[i-1])
		}
		return args[i], nil
	}

	for i < len(args) {
		kw := args[i]
		switch kw {
		case "ws":
			v, err := next()
			if err != nil {
				return "", err
			}
			if v == "_" {
				// explicit no-op: keep operating on the active workspace
			} else if ws, ok := d.WM.Model.WorkspaceByRef(v); ok {
				target = ws
			} else {
				return "", badValue("ws", v, "integer or workspace name e.g. 2")
			}

		case "mon":
			v, err := next()
			if err != nil {
				return "", err
			}
			if !d.WM.Model.Config.WorkspaceStatic {
				return "", fmt.Errorf("unable to set workspace monitor without static_ws=true")
			}
			mon, ok := d.WM.Model.MonitorByRef(v)
			if !ok {
				return "", badValue("mon", v, "integer or monitor name e.g. HDMI-A-0")
			}
			if err := d.WM.Model.AssignWorkspace(target, mon); err != nil {
				return "", fmt.Errorf("unable to assign last/only workspace on monitor")
			}

		case "name":
			v, err := next()
			if err != nil {
				return "", err
			}
			target.Name = v

		case "border":
			v, err := next()
			if err != nil {
				return "", err
			}
			if n, perr := strconv.Atoi(v); perr == nil {
				max := maxBorderOrGap()
				if n < 0 || n > max {
					return "", badValue("border", v, fmt.Sprintf("integer in [0,%d]", max))
				}
				d.WM.Model.Config.BorderWidth = n
			} else if col, cerr := ParseColor(v); cerr == nil {
				d.WM.Model.Config.BorderColors.FocusInner = col
			} else {
				return "", badValue("border", v, "integer e.g. 1, or hex color e.g. #6699cc")
			}

		case "gap":
			v, err := next()
			if err != nil {
				return "", err
			}
			iv, perr := ParseIVal(v)
			if perr != nil {
				return "", badValue("gap", v, "integer e.g. 10")
			}
			n := iv.Resolve(target.Gap)
			max := maxBorderOrGap()
			if n < 0 {
				n = 0
			}
			if n > max {
				n = max
			}
			target.Gap = n

		case "layout":
			v, err := next()
			if err != nil {
				return "", err
			}
			if v == "cycle" {
				target.Layout = layoutSetNames[(indexOfLayout(target.Layout)+1)%len(layoutSetNames)].kind
			} else if k, ok := layoutByName(v); ok {
				target.Layout = k
			} else {
				return "", badValue("layout", v, "string e.g. tile")
			}
			d.WM.Status.Broadcast(Notification{Type: NotifyLayoutChanged})

		case "master":
			v, err := next()
			if err != nil {
				return "", err
			}
			iv, perr := ParseIVal(v)
			if perr != nil {
				return "", badValue("master", v, "integer e.g. 1")
			}
			n := iv.Resolve(target.MasterN)
			if n < 0 {
				n = 0
			}
			target.MasterN = n

		case "stack":
			v, err := next()
			if err != nil {
				return "", err
			}
			iv, perr := ParseIVal(v)
			if perr != nil {
				return "", badValue("stack", v, "integer e.g. 3")
			}
			n := iv.Resolve(target.StackN)
			if n < 0 {
				n = 0
			}
			target.StackN = n

		case "msplit":
			v, err := next()
			if err != nil {
				return "", err
			}
			f, perr := strconv.ParseFloat(strings.TrimPrefix(v, "+"), 64)
			if perr != nil {
				return "", badValue("msplit", v, "float e.g. 0.55")
			}
			if v[0] == '+' || v[0] == '-' {
				target.MasterRatio = ClampSplit(target.MasterRatio + f)
			} else {
				target.MasterRatio = ClampSplit(f)
			}

		case "ssplit":
			v, err := next()
			if err != nil {
				return "", err
			}
			f, perr := strconv.ParseFloat(strings.TrimPrefix(v, "+"), 64)
			if perr != nil {
				return "", badValue("ssplit", v, "float e.g. 0.55")
			}
			if v[0] == '+' || v[0] == '-' {
				target.StackRatio = ClampSplit(target.StackRatio + f)
			} else {
				target.StackRatio = ClampSplit(f)
			}

		case "pad":
			side, err := next()
			if err != nil {
				return "", err
			}
			v, err := next()
			if err != nil {
				return "", err
			}
			iv, perr := ParseIVal(v)
			if perr != nil {
				return "", badValue("pad", v, "integer e.g. 10")
			}
			switch side {
			case "l":
				target.PadL = iv.Resolve(target.PadL)
			case "r":
				target.PadR = iv.Resolve(target.PadR)
			case "t":
				target.PadT = iv.Resolve(target.PadT)
			case "b":
				target.PadB = iv.Resolve(target.PadB)
			default:
				return "", badValue("pad", side, "l, r, t, or b")
			}

		case "mouse":
			v, err := next()
			if err != nil {
				return "", err
			}
			d.WM.Model.Config.MouseMod = v
			for _, c := range d.WM.Model.AllClients() {
				d.WM.GrabClientButtons(c)
			}

		default:
			if err := d.setGlobalKey(kw, &i, args, badValue, parseBool); err != nil {
				return "", err
			}
		}
		i++
	}
	d.markRefresh()
	return "", nil
}

func indexOfLayout(k LayoutKind) int {
	for i, l := range layoutSetNames {
		if l.kind == k {
			return i
		}
	}
	return 0
}

// setGlobalKey handles the `<global-key> VALUE` fallback clause of the
// set-item grammar, covering the process-wide GLB_* settings.
func (d *Dispatcher) setGlobalKey(key string, i *int, args []string, badValue func(string, string, string) error, parseBool func(string, string) (bool, error)) error {
	cfg := &d.WM.Model.Config
	readVal := func() (string, error) {
		*i++
		if *i >= len(args) {
			return "", fmt.Errorf("set: missing value for %s", key)
		}
		return args[*i], nil
	}
	switch key {
	case "focus_mouse":
		v, err := readVal()
		if err != nil {
			return err
		}
		b, err := parseBool(key, v)
		if err != nil {
			return err
		}
		cfg.FocusMouse = b
	case "focus_open":
		v, err := readVal()
		if err != nil {
			return err
		}
		b, err := parseBool(key, v)
		if err != nil {
			return err
		}
		cfg.FocusOpen = b
	case "focus_urgent":
		v, err := readVal()
		if err != nil {
			return err
		}
		b, err := parseBool(key, v)
		if err != nil {
			return err
		}
		cfg.FocusUrgent = b
	case "smart_border":
		v, err := readVal()
		if err != nil {
			return err
		}
		b, err := parseBool(key, v)
		if err != nil {
			return err
		}
		cfg.SmartBorder = b
	case "smart_gap":
		v, err := readVal()
		if err != nil {
			return err
		}
		b, err := parseBool(key, v)
		if err != nil {
			return err
		}
		cfg.SmartGap = b
	case "tile_hints":
		v, err := readVal()
		if err != nil {
			return err
		}
		b, err := parseBool(key, v)
		if err != nil {
			return err
		}
		cfg.TileHints = b
	case "tile_to_head":
		v, err := readVal()
		if err != nil {
			return err
		}
		b, err := parseBool(key, v)
		if err != nil {
			return err
		}
		cfg.TileToHead = b
	case "obey_motif":
		v, err := readVal()
		if err != nil {
			return err
		}
		b, err := parseBool(key, v)
		if err != nil {
			return err
		}
		cfg.ObeyMotif = b
	case "static_ws":
		v, err := readVal()
		if err != nil {
			return err
		}
		b, err := parseBool(key, v)
		if err != nil {
			return err
		}
		cfg.WorkspaceStatic = b
	case "min_wh":
		v, err := readVal()
		if err != nil {
			return err
		}
		n, perr := strconv.Atoi(v)
		if perr != nil || n < 1 {
			return badValue(key, v, "integer >= 1")
		}
		cfg.MinWH = n
	case "min_xy":
		v, err := readVal()
		if err != nil {
			return err
		}
		n, perr := strconv.Atoi(v)
		if perr != nil || n < 0 {
			return badValue(key, v, "integer >= 0")
		}
		cfg.MinXY = n
	case "num_ws":
		v, err := readVal()
		if err != nil {
			return err
		}
		n, perr := strconv.Atoi(v)
		if perr != nil || n < 1 || n > MaxWorkspaces {
			return badValue(key, v, fmt.Sprintf("integer in [1,%d]", MaxWorkspaces))
		}
		cfg.NumWorkspaces = n
		// Grow the numbered set on demand; workspaces are never freed
		// individually.
		if mon := d.WM.Model.PrimaryMonitor(); mon != nil {
			for i := 0; i < n; i++ {
				if _, ok := d.WM.Model.WorkspaceByNum(i); !ok {
					d.WM.Model.AddWorkspace(mon.ID, i)
				}
			}
		}
	default:
		return fmt.Errorf("set: unknown item %q", key)
	}
	return nil
}

