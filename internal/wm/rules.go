package wm

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
)

// CompiledRule is a Rule with its patterns pre-compiled, the
// same "parse once, match many" shape config/types.go's Section
// getters use for typed access into a loaded settings map.
type CompiledRule struct {
	Rule *Rule

	class    *regexp.Regexp
	instance *regexp.Regexp
	title    *regexp.Regexp
}

// CompileRule compiles a Rule's glob-ish patterns into regexps. An
// empty pattern matches anything.
func CompileRule(r *Rule) (*CompiledRule, error) {
	cr := &CompiledRule{Rule: r}
	var err error
	if r.ClassPattern != "" {
		if cr.class, err = regexp.Compile(r.ClassPattern); err != nil {
			return nil, fmt.Errorf("compile rule %d class pattern: %w", r.ID, err)
		}
	}
	if r.InstancePattern != "" {
		if cr.instance, err = regexp.Compile(r.InstancePattern); err != nil {
			return nil, fmt.Errorf("compile rule %d instance pattern: %w", r.ID, err)
		}
	}
	if r.TitlePattern != "" {
		if cr.title, err = regexp.Compile(r.TitlePattern); err != nil {
			return nil, fmt.Errorf("compile rule %d title pattern: %w", r.ID, err)
		}
	}
	return cr, nil
}

// Matches reports whether a newly mapped client satisfies every
// populated field of the rule ("first matching rule wins" is
// enforced by the caller iterating in order and stopping at the first
// hit, exactly like a compiled rule list rather than a rule tree).
func (cr *CompiledRule) Matches(c *Client) bool {
	if cr.class != nil && !cr.class.MatchString(c.Class) {
		return false
	}
	if cr.instance != nil && !cr.instance.MatchString(c.Instance) {
		return false
	}
	if cr.title != nil && !cr.title.MatchString(c.Title) {
		return false
	}
	if cr.Rule.WinType != "" && cr.Rule.WinType != c.WinType {
		return false
	}
	return true
}

// CallbackFunc is a named lifecycle hook a rule can bind to a client;
// phase is "opened" on first match/apply and "closed" on unmanage.
type CallbackFunc func(c *Client, phase string)

// RuleEngine holds the compiled rule list and applies it to newly
// mapped clients.
type RuleEngine struct {
	rules     []*CompiledRule
	callbacks map[string]CallbackFunc
}

func NewRuleEngine() *RuleEngine {
	return &RuleEngine{callbacks: make(map[string]CallbackFunc)}
}

// RegisterCallback binds a name usable in `rule ... callback NAME`.
func (e *RuleEngine) RegisterCallback(name string, fn CallbackFunc) {
	e.callbacks[name] = fn
}

// RunCallback invokes a client's bound callback, if any.
func (e *RuleEngine) RunCallback(c *Client, phase string) {
	if c.Callback == "" {
		return
	}
	if fn, ok := e.callbacks[c.Callback]; ok {
		fn(c, phase)
	}
}

// Rules returns the underlying Rule records in their current order,
// e.g. for `rule ... remove` to search by matcher equality or for a
// status snapshot to list them.
func (e *RuleEngine) Rules() []*Rule {
	out := make([]*Rule, len(e.rules))
	for i, cr := range e.rules {
		out[i] = cr.Rule
	}
	return out
}

// SetRules replaces the whole compiled rule set, e.g. after a `rule
// ... apply`/`rule ... remove` control-socket command edits the list.
func (e *RuleEngine) SetRules(rules []*Rule) error {
	compiled := make([]*CompiledRule, 0, len(rules))
	for _, r := range rules {
		cr, err := CompileRule(r)
		if err != nil {
			return err
		}
		compiled = append(compiled, cr)
	}
	e.rules = compiled
	return nil
}

// Apply finds the first matching rule and applies its flags/placement
// to c, returning it (or nil if nothing matched). Model is threaded
// through so a `mon`/`ws` clause can resolve its target and reassign
// the client before the caller maps it.
func (e *RuleEngine) Apply(c *Client, m *Model) *Rule {
	for _, cr := range e.rules {
		if !cr.Matches(c) {
			continue
		}
		r := cr.Rule
		if r.SetFloating {
			c.Flags |= FlagFloating
		}
		if r.SetSticky {
			c.Flags |= FlagSticky | FlagFloating
		}
		if r.SetFullscreen {
			c.Flags |= FlagFullscreen
		}
		if r.SetFakeFull {
			c.Flags |= FlagFakeFullscreen
		}
		if r.NoBorder {
			c.Flags |= FlagNoBorder
		}
		if r.NoAbsorb {
			c.Flags |= FlagNoAbsorb
		}
		if r.IgnoreCfg {
			c.Flags |= FlagIgnoreCfg
		}
		if r.IgnoreMsg {
			c.Flags |= FlagIgnoreMsg
		}
		if r.Terminal {
			c.Flags |= FlagTerminal
		}
		if r.Scratch {
			c.Flags |= FlagScratch | FlagHidden
		}
		if r.BorderWidth >= 0 {
			c.Border = r.BorderWidth
		}
		if r.NoBorder || r.BorderWidth == 0 {
			c.Border = 0
			c.Flags |= FlagNoBorder
		}
		absolute := false
		if r.X >= 0 {
			c.Geom.X = r.X
			absolute = true
		}
		if r.Y >= 0 {
			c.Geom.Y = r.Y
			absolute = true
		}
		if r.W >= 0 {
			c.Geom.W = r.W
		}
		if r.H >= 0 {
			c.Geom.H = r.H
		}
		if r.Callback != "" {
			c.Callback = r.Callback
		}
		if m != nil {
			if r.MonName != "" {
				if mon, ok := m.MonitorByName(r.MonName); ok {
					if ws, ok := m.WorkspaceByID(mon.Active); ok {
						_ = m.SetWorkspace(c, ws.ID, false)
					}
				}
			}
			if r.Workspace >= 0 {
				if ws, ok := m.WorkspaceByNum(r.Workspace); ok {
					_ = m.SetWorkspace(c, ws.ID, false)
				}
			}
			// Gravities place the client only when no absolute
			// coordinate was given.
			if !absolute && (r.XGrav != GravityNone || r.YGrav != GravityNone) {
				if mon, ok := m.MonitorByID(c.Monitor); ok {
					if ws, ok := m.WorkspaceByID(c.Workspace); ok {
						c.Geom = Gravitate(c.Geom, mon.Usable, r.XGrav, r.YGrav, ws.Gap)
					}
				}
			}
		}
		e.RunCallback(c, "opened")
		return r
	}
	return nil
}

// ApplyDefault is the no-rule-matched fallback: the workspace
// comes from the client's _NET_WM_DESKTOP hint when it names a valid
// workspace, else the current one stands; the client stays tiled
// unless it is transient for a managed window.
func (e *RuleEngine) ApplyDefault(c *Client, m *Model, x XTransport) {
	if num, ok := ReadDesktopHint(x, c.Window); ok {
		if ws, ok := m.WorkspaceByNum(num); ok {
			_ = m.SetWorkspace(c, ws.ID, false)
		}
	}
	if c.Transient != 0 {
		c.Flags |= FlagFloating
	}
}

// ParentPID reads /proc/<pid>/stat and returns the parent pid (the
// second whitespace field after the process name parenthetical, after
// the state letter).
// Returns (0, false) if /proc is
// unavailable, so absorption simply never triggers on non-Linux
// kernels rather than the daemon refusing to start.
func ParentPID(pid int) (int, bool) {
	f, err := os.Open(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return 0, false
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 4096), 4096)
	if !sc.Scan() {
		return 0, false
	}
	line := sc.Text()
	// Fields: pid (comm) state ppid ... ; comm can contain spaces and
	// parens, so split after the last ')'.
	close := -1
	for i := len(line) - 1; i >= 0; i-- {
		if line[i] == ')' {
			close = i
			break
		}
	}
	if close == -1 {
		return 0, false
	}
	rest := line[close+1:]
	var state rune
	var ppid int
	if _, err := fmt.Sscanf(rest, " %c %d", &state, &ppid); err != nil {
		return 0, false
	}
	return ppid, true
}

// AbsorbCandidate walks the spawning client's ancestor chain looking
// for a terminal client whose pid matches (terminal absorption:
// "if the new client's parent process chain includes a mapped
// TERMINAL client, hide the terminal and reparent its geometry to the
// new client"). maxDepth bounds the walk so a broken /proc chain can't
// loop forever.
func AbsorbCandidate(newPID int, terminals map[int]ID, maxDepth int) (ID, bool) {
	pid := newPID
	for i := 0; i < maxDepth && pid > 1; i++ {
		if id, ok := terminals[pid]; ok {
			return id, true
		}
		parent, ok := ParentPID(pid)
		if !ok || parent == pid {
			return 0, false
		}
		pid = parent
	}
	return 0, false
}
