package wm

import "fmt"

// cmdRule implements the `rule` keyword's rule-op grammar: a sequence
// of matcher/state clauses builds up a Rule record, optionally
// terminated by `apply [*]` (apply
// the freshly built rule to already-mapped clients; `apply *`
// re-applies every rule to every mapped client) or `remove [*]`
// (`remove` alone drops the most recently added rule with identical
// patterns; `remove *` clears the whole rule list).
func (d *Dispatcher) cmdRule(args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("rule: missing clause")
	}
	r := &Rule{Workspace: -1, X: -1, Y: -1, W: -1, H: -1, BorderWidth: -1}

	i := 0
	next := func() (string, error) {
		i++
		if i >= len(args) {
			return "", fmt.Errorf("invalid rule clause: missing value for %s", args[i-1])
		}
		return args[i], nil
	}
	parseBool := func(s string) (bool, error) {
		switch s {
		case "true", "1", "on":
			return true, nil
		case "false", "0", "off":
			return false, nil
		}
		return false, fmt.Errorf("invalid rule clause: expected bool, got %q", s)
	}
	parseInt := func(s string) (int, error) {
		iv, err := ParseIVal(s)
		if err != nil {
			return 0, fmt.Errorf("invalid rule clause: expected integer, got %q", s)
		}
		return iv.Value, nil
	}

	for i < len(args) {
		kw := args[i]
		switch kw {
		case "class":
			v, err := next()
			if err != nil {
				return "", err
			}
			r.ClassPattern = v
		case "instance":
			v, err := next()
			if err != nil {
				return "", err
			}
			r.InstancePattern = v
		case "title":
			v, err := next()
			if err != nil {
				return "", err
			}
			r.TitlePattern = v
		case "type":
			v, err := next()
			if err != nil {
				return "", err
			}
			switch v {
			case "dialog":
				r.WinType = "_NET_WM_WINDOW_TYPE_DIALOG"
			case "splash":
				r.WinType = "_NET_WM_WINDOW_TYPE_SPLASH"
			default:
				return "", fmt.Errorf("invalid value for type: %s\n\nexpected dialog or splash", v)
			}
		case "mon":
			v, err := next()
			if err != nil {
				return "", err
			}
			r.MonName = v
		case "ws":
			v, err := next()
			if err != nil {
				return "", err
			}
			if ws, ok := d.WM.Model.WorkspaceByRef(v); ok {
				r.Workspace = ws.Num
			} else if n, ierr := parseInt(v); ierr == nil {
				r.Workspace = n - 1
			} else {
				return "", fmt.Errorf("invalid value for ws: %s\n\nexpected integer or workspace name", v)
			}
		case "callback":
			v, err := next()
			if err != nil {
				return "", err
			}
			r.Callback = v
		case "x":
			v, err := next()
			if err != nil {
				return "", err
			}
			if g, ok := parseXGravity(v); ok {
				r.XGrav = g
			} else if r.X, err = parseInt(v); err != nil {
				return "", err
			}
		case "y":
			v, err := next()
			if err != nil {
				return "", err
			}
			if g, ok := parseYGravity(v); ok {
				r.YGrav = g
			} else if r.Y, err = parseInt(v); err != nil {
				return "", err
			}
		case "w":
			v, err := next()
			if err != nil {
				return "", err
			}
			if r.W, err = parseInt(v); err != nil {
				return "", err
			}
		case "h":
			v, err := next()
			if err != nil {
				return "", err
			}
			if r.H, err = parseInt(v); err != nil {
				return "", err
			}
		case "bw":
			v, err := next()
			if err != nil {
				return "", err
			}
			if r.BorderWidth, err = parseInt(v); err != nil {
				return "", err
			}
		case "float":
			v, err := next()
			if err != nil {
				return "", err
			}
			if r.SetFloating, err = parseBool(v); err != nil {
				return "", err
			}
		case "full":
			v, err := next()
			if err != nil {
				return "", err
			}
			if r.SetFullscreen, err = parseBool(v); err != nil {
				return "", err
			}
		case "fakefull":
			v, err := next()
			if err != nil {
				return "", err
			}
			if r.SetFakeFull, err = parseBool(v); err != nil {
				return "", err
			}
		case "stick":
			v, err := next()
			if err != nil {
				return "", err
			}
			if r.SetSticky, err = parseBool(v); err != nil {
				return "", err
			}
		case "ignore_cfg":
			v, err := next()
			if err != nil {
				return "", err
			}
			if r.IgnoreCfg, err = parseBool(v); err != nil {
				return "", err
			}
		case "ignore_msg":
			v, err := next()
			if err != nil {
				return "", err
			}
			if r.IgnoreMsg, err = parseBool(v); err != nil {
				return "", err
			}
		case "terminal":
			v, err := next()
			if err != nil {
				return "", err
			}
			if r.Terminal, err = parseBool(v); err != nil {
				return "", err
			}
		case "no_absorb":
			v, err := next()
			if err != nil {
				return "", err
			}
			if r.NoAbsorb, err = parseBool(v); err != nil {
				return "", err
			}
		case "scratch":
			v, err := next()
			if err != nil {
				return "", err
			}
			if r.Scratch, err = parseBool(v); err != nil {
				return "", err
			}
		case "focus":
			v, err := next()
			if err != nil {
				return "", err
			}
			if r.Focus, err = parseBool(v); err != nil {
				return "", err
			}
		case "remove":
			if i+1 < len(args) && args[i+1] == "*" {
				return "", d.WM.Rules.SetRules(nil)
			}
			return "", d.removeLastMatchingRule(r)
		case "apply":
			if i+1 < len(args) && args[i+1] == "*" {
				// Apply-all: add the freshly built rule when it
				// has matchers, then re-run the whole list against every
				// existing client.
				if r.ClassPattern != "" || r.InstancePattern != "" || r.TitlePattern != "" || r.WinType != "" {
					if err := d.addRule(r, false); err != nil {
						return "", err
					}
				}
				return "", d.applyAllRules()
			}
			return "", d.addRule(r, true)
		default:
			return "", fmt.Errorf("rule: unknown clause %q", kw)
		}
		i++
	}
	return "", d.addRule(r, false)
}

// addRule compiles and appends r to the rule set, and (when apply is
// true) re-runs rule matching against every already-mapped client
// whose class/instance/title now satisfies it.
func (d *Dispatcher) addRule(r *Rule, apply bool) error {
	r.ID = d.WM.Model.allocID()
	all := append(d.currentRules(), r)
	if err := d.WM.Rules.SetRules(all); err != nil {
		return fmt.Errorf("rule: %w", err)
	}
	if !apply {
		return nil
	}
	cr, err := CompileRule(r)
	if err != nil {
		return fmt.Errorf("rule apply: %w", err)
	}
	for _, c := range d.WM.Model.AllClients() {
		if !cr.Matches(c) {
			continue
		}
		d.WM.Rules.Apply(c, d.WM.Model)
	}
	d.markRefresh()
	return nil
}

// applyAllRules re-runs the whole rule list against every mapped
// client.
func (d *Dispatcher) applyAllRules() error {
	for _, c := range d.WM.Model.AllClients() {
		d.WM.Rules.Apply(c, d.WM.Model)
	}
	d.markRefresh()
	return nil
}

func parseXGravity(s string) (Gravity, bool) {
	switch s {
	case "left":
		return GravityLeft, true
	case "right":
		return GravityRight, true
	case "center":
		return GravityCenter, true
	}
	return GravityNone, false
}

func parseYGravity(s string) (Gravity, bool) {
	switch s {
	case "top":
		return GravityTop, true
	case "bottom":
		return GravityBottom, true
	case "center":
		return GravityCenter, true
	}
	return GravityNone, false
}

// removeLastMatchingRule drops the most recently added rule whose
// matcher patterns equal r's (a bare `rule ... remove` identifies
// the rule to delete by its matchers rather than an explicit id).
func (d *Dispatcher) removeLastMatchingRule(r *Rule) error {
	all := d.currentRules()
	for i := len(all) - 1; i >= 0; i-- {
		cand := all[i]
		if cand.ClassPattern == r.ClassPattern && cand.InstancePattern == r.InstancePattern && cand.TitlePattern == r.TitlePattern {
			all = append(all[:i], all[i+1:]...)
			return d.WM.Rules.SetRules(all)
		}
	}
	return fmt.Errorf("rule remove: no matching rule")
}

func (d *Dispatcher) currentRules() []*Rule {
	return d.WM.Rules.Rules()
}
