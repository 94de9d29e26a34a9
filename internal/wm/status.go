package wm

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// StatusType selects which snapshot a status subscriber receives and
// which model changes re-trigger it.
type StatusType int

const (
	StatusBar StatusType = iota
	StatusWin
	StatusWS
	StatusLayout
	StatusFull
)

// ParseStatusArgs parses the `status [type T] [num N]` argument list
// shared by the command handler and the socket subscriber upgrade.
// num limits how many snapshots the subscriber receives before
// auto-close; 0 means unlimited.
func ParseStatusArgs(args []string) (StatusType, int, error) {
	typ := StatusBar
	num := 0
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "type":
			i++
			if i >= len(args) {
				return 0, 0, fmt.Errorf("status: missing value for type")
			}
			switch args[i] {
			case "bar":
				typ = StatusBar
			case "win":
				typ = StatusWin
			case "ws":
				typ = StatusWS
			case "layout":
				typ = StatusLayout
			case "full":
				typ = StatusFull
			default:
				return 0, 0, fmt.Errorf("invalid value for type: %s\n\nexpected bar, win, ws, layout, or full", args[i])
			}
		case "num":
			i++
			if i >= len(args) {
				return 0, 0, fmt.Errorf("status: missing value for num")
			}
			n, err := strconv.Atoi(args[i])
			if err != nil || n < 0 {
				return 0, 0, fmt.Errorf("invalid value for num: %s\n\nexpected integer >= 0", args[i])
			}
			num = n
		default:
			return 0, 0, fmt.Errorf("status: unknown option %q", args[i])
		}
	}
	return typ, num, nil
}

// sanitize strips inner control characters from a string headed into a
// JSON snapshot; quote escaping is encoding/json's job.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}

var layoutNames = map[LayoutKind]string{
	LayoutTile:    "tile",
	LayoutRTile:   "rtile",
	LayoutMonocle: "monocle",
	LayoutGrid:    "grid",
	LayoutSpiral:  "spiral",
	LayoutDwindle: "dwindle",
	LayoutFloat:   "float",
}

// statusWorkspace is one entry of the bar/ws snapshot's workspaces
// array.
type statusWorkspace struct {
	Num     int    `json:"num"`
	Name    string `json:"name"`
	Focused bool   `json:"focused"`
	Active  bool   `json:"active"`
	Monitor string `json:"monitor"`
	Layout  string `json:"layout"`
	Title   string `json:"title,omitempty"`
	ID      uint32 `json:"id,omitempty"`
}

func buildWorkspaces(m *Model, selMon *Monitor) []statusWorkspace {
	var out []statusWorkspace
	for _, ws := range m.AllWorkspacesSorted() {
		mon, _ := m.MonitorByID(ws.Monitor)
		sw := statusWorkspace{
			Num:    ws.Num + 1,
			Name:   sanitize(ws.Name),
			Active: len(ws.Clients) > 0,
			Layout: layoutNames[ws.Layout],
		}
		if mon != nil {
			sw.Monitor = sanitize(mon.Name)
			sw.Focused = mon.Active == ws.ID && selMon != nil && selMon.ID == mon.ID
		}
		if c, ok := m.Client(ws.Active); ok {
			sw.Title = sanitize(c.Title)
			sw.ID = c.Window
		}
		out = append(out, sw)
	}
	return out
}

func focusedTitle(m *Model, selMon *Monitor) string {
	if selMon == nil {
		return ""
	}
	ws, ok := m.WorkspaceByID(selMon.Active)
	if !ok {
		return ""
	}
	if c, ok := m.Client(ws.Active); ok {
		return sanitize(c.Title)
	}
	return ""
}

// fullStatus is the all-in-one `type full` dump.
type fullStatus struct {
	Global     GlobalConfig      `json:"global"`
	Workspaces []statusWorkspace `json:"workspaces"`
	Monitors   []fullMonitor     `json:"monitors"`
	Clients    []fullClient      `json:"clients"`
	Rules      []fullRule        `json:"rules"`
	Panels     []fullPanel       `json:"panels"`
	Desks      []fullDesk        `json:"desks"`
}

type fullMonitor struct {
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
	Primary   bool   `json:"primary"`
	Geom      Rect   `json:"geom"`
	Usable    Rect   `json:"usable"`
	Workspace int    `json:"workspace"`
}

type fullClient struct {
	ID       uint32 `json:"id"`
	Class    string `json:"class"`
	Instance string `json:"instance"`
	Title    string `json:"title"`
	Geom     Rect   `json:"geom"`
	Border   int    `json:"bw"`
	Ws       int    `json:"ws"`
	Floating bool   `json:"floating"`
	Full     bool   `json:"full"`
	Sticky   bool   `json:"sticky"`
	Urgent   bool   `json:"urgent"`
	Scratch  bool   `json:"scratch"`
}

type fullRule struct {
	Class    string `json:"class,omitempty"`
	Instance string `json:"instance,omitempty"`
	Title    string `json:"title,omitempty"`
	Ws       int    `json:"ws,omitempty"`
	Mon      string `json:"mon,omitempty"`
	Float    bool   `json:"float,omitempty"`
	Stick    bool   `json:"stick,omitempty"`
	Focus    bool   `json:"focus,omitempty"`
	Callback string `json:"callback,omitempty"`
}

type fullPanel struct {
	ID      uint32 `json:"id"`
	Monitor string `json:"monitor"`
	Strut   Strut  `json:"strut"`
}

type fullDesk struct {
	ID      uint32 `json:"id"`
	Monitor string `json:"monitor"`
}

func buildFull(m *Model, rules []*Rule, selMon *Monitor) fullStatus {
	full := fullStatus{
		Global:     m.Config,
		Workspaces: buildWorkspaces(m, selMon),
	}
	for _, mon := range m.AllMonitors() {
		fm := fullMonitor{
			Name: sanitize(mon.Name), Connected: mon.Connected, Primary: mon.Primary,
			Geom: mon.Geom, Usable: mon.Usable,
		}
		if ws, ok := m.WorkspaceByID(mon.Active); ok {
			fm.Workspace = ws.Num + 1
		}
		full.Monitors = append(full.Monitors, fm)
	}
	for _, c := range m.AllClients() {
		ws, _ := m.WorkspaceByID(c.Workspace)
		fc := fullClient{
			ID: c.Window, Class: sanitize(c.Class), Instance: sanitize(c.Instance),
			Title: sanitize(c.Title), Geom: c.Geom, Border: c.Border,
			Floating: c.Floating(), Full: c.Fullscreen(), Sticky: c.Sticky(),
			Urgent: c.Urgent(), Scratch: c.Flags.Has(FlagScratch),
		}
		if ws != nil {
			fc.Ws = ws.Num + 1
		}
		full.Clients = append(full.Clients, fc)
	}
	for _, r := range rules {
		fr := fullRule{
			Class: r.ClassPattern, Instance: r.InstancePattern, Title: r.TitlePattern,
			Mon: r.MonName, Float: r.SetFloating, Stick: r.SetSticky,
			Focus: r.Focus, Callback: r.Callback,
		}
		if r.Workspace >= 0 {
			fr.Ws = r.Workspace + 1
		}
		full.Rules = append(full.Rules, fr)
	}
	for _, p := range m.AllPanels() {
		fp := fullPanel{ID: p.Window, Strut: p.Strut}
		if mon, ok := m.MonitorByID(p.Monitor); ok {
			fp.Monitor = sanitize(mon.Name)
		}
		full.Panels = append(full.Panels, fp)
	}
	for _, d := range m.AllDesks() {
		fd := fullDesk{ID: d.Window}
		if mon, ok := m.MonitorByID(d.Monitor); ok {
			fd.Monitor = sanitize(mon.Name)
		}
		full.Desks = append(full.Desks, fd)
	}
	return full
}

// EncodeStatus renders one snapshot of the requested type as a single
// JSON line, matching the control socket's one-reply-per-line contract
//.
func EncodeStatus(w *WM, typ StatusType) (string, error) {
	m := w.Model
	selMon := w.ActiveMonitor()
	var v any
	switch typ {
	case StatusWin:
		v = map[string]string{"focused": focusedTitle(m, selMon)}
	case StatusLayout:
		name := ""
		if selMon != nil {
			if ws, ok := m.WorkspaceByID(selMon.Active); ok {
				name = layoutNames[ws.Layout]
			}
		}
		v = map[string]string{"layout": name}
	case StatusFull:
		v = buildFull(m, w.Rules.Rules(), selMon)
	default: // bar, ws
		v = map[string]any{"workspaces": buildWorkspaces(m, selMon)}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode status: %w", err)
	}
	return string(data), nil
}

// StatusSubscriber is a Listener pushing fresh snapshots of its type to
// a connected socket whenever a relevant change lands, with an optional
// countdown before auto-close.
type StatusSubscriber struct {
	WM        *WM
	Type      StatusType
	Remaining int // snapshots left before auto-close, 0 = unlimited
	Send      func(line string) error
	OnExpire  func()
}

// relevant reports whether a change of kind t re-triggers this
// subscriber's snapshot type.
func (s *StatusSubscriber) relevant(t NotifyType) bool {
	switch s.Type {
	case StatusWin:
		return t == NotifyFocusChanged
	case StatusWS:
		return t == NotifyWorkspaceChanged || t == NotifyClientMapped || t == NotifyClientUnmapped
	case StatusLayout:
		return t == NotifyLayoutChanged
	default:
		return true
	}
}

func (s *StatusSubscriber) Notify(n Notification) {
	if !s.relevant(n.Type) {
		return
	}
	line, err := EncodeStatus(s.WM, s.Type)
	if err != nil {
		return
	}
	if s.Send(line) != nil {
		return
	}
	if s.Remaining > 0 {
		s.Remaining--
		if s.Remaining == 0 && s.OnExpire != nil {
			s.OnExpire()
		}
	}
}
