package wm

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/motif"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// xutilSource is implemented by XTransport values that can hand back
// the underlying xgbutil connection; only X11Transport does, so the
// fake transport used in tests simply never takes this path and the
// rule/model logic that calls ReadClientProps is exercised against
// pre-populated Client fields in tests instead.
type xutilSource interface {
	XUtil() *xgbutil.XUtil
}

// ReadClientProps populates a Client's identity and size-hint fields
// from the live ICCCM/EWMH properties on its window. It is a
// no-op (returning ErrNoXUtil) against a transport that doesn't expose
// the underlying xgbutil connection, e.g. the test fake.
func ReadClientProps(x XTransport, c *Client) error {
	src, ok := x.(xutilSource)
	if !ok {
		return ErrNoXUtil
	}
	xu := src.XUtil()
	win := xproto.Window(c.Window)

	if wmClass, err := icccm.WmClassGet(xu, win); err == nil {
		c.Instance = wmClass.Instance
		c.Class = wmClass.Class
	}

	if title, err := ewmh.WmNameGet(xu, win); err == nil && title != "" {
		c.Title = title
	} else if title, err := icccm.WmNameGet(xu, win); err == nil {
		c.Title = title
	}

	if hints, err := icccm.WmNormalHintsGet(xu, win); err == nil {
		c.Hints = SizeHints{
			MinW: int(hints.MinWidth), MinH: int(hints.MinHeight),
			MaxW: int(hints.MaxWidth), MaxH: int(hints.MaxHeight),
			BaseW: int(hints.BaseWidth), BaseH: int(hints.BaseHeight),
			IncW: int(hints.WidthInc), IncH: int(hints.HeightInc),
		}
		if hints.Flags&icccm.SizeHintPAspect != 0 && hints.MaxAspectDen != 0 && hints.MinAspectDen != 0 {
			c.Hints.MinAspect = float64(hints.MinAspectNum) / float64(hints.MinAspectDen)
			c.Hints.MaxAspect = float64(hints.MaxAspectNum) / float64(hints.MaxAspectDen)
		}
	}

	if wmHints, err := icccm.WmHintsGet(xu, win); err == nil {
		if wmHints.Flags&icccm.HintInput != 0 && wmHints.Input == 0 {
			c.Flags |= FlagNoInput
		}
		if wmHints.Flags&icccm.HintUrgency != 0 {
			c.Flags |= FlagUrgent
		}
	}

	if wtypes, err := ewmh.WmWindowTypeGet(xu, win); err == nil && len(wtypes) > 0 {
		c.WinType = wtypes[0]
	}

	if states, err := ewmh.WmStateGet(xu, win); err == nil {
		for _, s := range states {
			switch s {
			case "_NET_WM_STATE_FULLSCREEN":
				c.Flags |= FlagFullscreen
			case "_NET_WM_STATE_STICKY":
				c.Flags |= FlagSticky
			case "_NET_WM_STATE_DEMANDS_ATTENTION":
				c.Flags |= FlagUrgent
			case "_NET_WM_STATE_ABOVE":
				c.Flags |= FlagAbove
			}
		}
	}

	if mh, err := motif.WmHintsGet(xu, win); err == nil {
		if !motif.Decor(mh) {
			c.Flags |= FlagNoBorder
		}
	}

	if pid, err := ewmh.WmPidGet(xu, win); err == nil {
		c.TermPID = int(pid)
	}

	return nil
}

// ErrNoXUtil is returned by property helpers when the transport has
// no live xgbutil connection to query (the fake transport, or any
// future non-X11 backend).
var ErrNoXUtil = fmt.Errorf("xprops: transport has no xgbutil connection")

// ICCCM WM_STATE values.
const (
	WithdrawnState = 0
	NormalState    = 1
	IconicState    = 3
)

// SetWMState writes the ICCCM WM_STATE property; errors are swallowed
// because the window may already be destroyed by the time the WM
// withdraws it.
func SetWMState(x XTransport, win uint32, state uint) {
	src, ok := x.(xutilSource)
	if !ok {
		return
	}
	_ = icccm.WmStateSet(src.XUtil(), xproto.Window(win), &icccm.WmState{State: state})
}

// ReadWindowType returns a window's first _NET_WM_WINDOW_TYPE atom
// name, or "" when unset or unreadable. Map requests use this to
// classify a window as client, panel (DOCK), or desk (DESKTOP).
func ReadWindowType(x XTransport, win uint32) string {
	src, ok := x.(xutilSource)
	if !ok {
		return ""
	}
	if types, err := ewmh.WmWindowTypeGet(src.XUtil(), xproto.Window(win)); err == nil && len(types) > 0 {
		return types[0]
	}
	return ""
}

// PublishActiveWindow mirrors the focused window onto the root's
// _NET_ACTIVE_WINDOW, issued in the same handler as the focus change
// itself.
func PublishActiveWindow(x XTransport, win uint32) error {
	src, ok := x.(xutilSource)
	if !ok {
		return ErrNoXUtil
	}
	return ewmh.ActiveWindowSet(src.XUtil(), xproto.Window(win))
}

// PublishClientDesktop mirrors a client's workspace number onto its
// _NET_WM_DESKTOP property after set_workspace.
func PublishClientDesktop(x XTransport, c *Client, num int) error {
	src, ok := x.(xutilSource)
	if !ok {
		return ErrNoXUtil
	}
	return ewmh.WmDesktopSet(src.XUtil(), xproto.Window(c.Window), uint(num))
}

// ReadStrut reads a panel window's _NET_WM_STRUT_PARTIAL (falling back
// to _NET_WM_STRUT) reservation.
func ReadStrut(x XTransport, win uint32) (Strut, bool) {
	src, ok := x.(xutilSource)
	if !ok {
		return Strut{}, false
	}
	xu := src.XUtil()
	if p, err := ewmh.WmStrutPartialGet(xu, xproto.Window(win)); err == nil {
		return Strut{Left: int(p.Left), Right: int(p.Right), Top: int(p.Top), Bottom: int(p.Bottom)}, true
	}
	if s, err := ewmh.WmStrutGet(xu, xproto.Window(win)); err == nil {
		return Strut{Left: int(s.Left), Right: int(s.Right), Top: int(s.Top), Bottom: int(s.Bottom)}, true
	}
	return Strut{}, false
}

// ReadDesktopHint reads a client's own _NET_WM_DESKTOP request. The
// all-desktops sentinel (0xFFFFFFFF) reports false; stickiness travels
// through _NET_WM_STATE instead.
func ReadDesktopHint(x XTransport, win uint32) (int, bool) {
	src, ok := x.(xutilSource)
	if !ok {
		return 0, false
	}
	num, err := ewmh.WmDesktopGet(src.XUtil(), xproto.Window(win))
	if err != nil || num == 0xFFFFFFFF {
		return 0, false
	}
	return int(num), true
}

// ReadTransientFor resolves a client's WM_TRANSIENT_FOR parent window,
// 0 when unset.
func ReadTransientFor(x XTransport, win uint32) uint32 {
	src, ok := x.(xutilSource)
	if !ok {
		return 0
	}
	if parent, err := icccm.WmTransientForGet(src.XUtil(), xproto.Window(win)); err == nil {
		return uint32(parent)
	}
	return 0
}

// PublishWMIdentity announces the running WM per EWMH: a dummy child
// window carries _NET_SUPPORTING_WM_CHECK and _NET_WM_NAME, and the
// root's _NET_SUPPORTED lists every atom this WM respects.
func PublishWMIdentity(x XTransport, name string) error {
	src, ok := x.(xutilSource)
	if !ok {
		return ErrNoXUtil
	}
	xu := src.XUtil()

	check, err := xwindow.Generate(xu)
	if err != nil {
		return fmt.Errorf("generate wm check window: %w", err)
	}
	if err := check.CreateChecked(xu.RootWin(), -1, -1, 1, 1, 0); err != nil {
		return fmt.Errorf("create wm check window: %w", err)
	}
	if err := ewmh.SupportingWmCheckSet(xu, xu.RootWin(), check.Id); err != nil {
		return fmt.Errorf("set supporting wm check: %w", err)
	}
	_ = ewmh.SupportingWmCheckSet(xu, check.Id, check.Id)
	_ = ewmh.WmNameSet(xu, check.Id, name)
	if err := ewmh.SupportedSet(xu, WellKnownAtoms); err != nil {
		return fmt.Errorf("set supported atoms: %w", err)
	}
	return nil
}

// PublishClientListProps republishes root bookkeeping: after any
// mutation of the managed client set, the root window's
// _NET_CLIENT_LIST/_NET_CLIENT_LIST_STACKING/_NET_NUMBER_OF_DESKTOPS/
// _NET_CURRENT_DESKTOP properties are republished so pagers and
// taskbars stay in sync.
func PublishClientListProps(x XTransport, m *Model, activeMon *Monitor) error {
	src, ok := x.(xutilSource)
	if !ok {
		return ErrNoXUtil
	}
	xu := src.XUtil()

	// The client list is the union of workspace clients (scratch
	// included) plus panels plus desks.
	var wins []xproto.Window
	for _, c := range m.AllClients() {
		wins = append(wins, xproto.Window(c.Window))
	}
	for _, p := range m.AllPanels() {
		wins = append(wins, xproto.Window(p.Window))
	}
	for _, d := range m.AllDesks() {
		wins = append(wins, xproto.Window(d.Window))
	}
	if err := ewmh.ClientListSet(xu, wins); err != nil {
		return fmt.Errorf("publish client list: %w", err)
	}
	if err := ewmh.ClientListStackingSet(xu, wins); err != nil {
		return fmt.Errorf("publish client list stacking: %w", err)
	}
	workspaces := m.AllWorkspacesSorted()
	if err := ewmh.NumberOfDesktopsSet(xu, uint(len(workspaces))); err != nil {
		return fmt.Errorf("publish desktop count: %w", err)
	}
	names := make([]string, len(workspaces))
	areas := make([]ewmh.Workarea, len(workspaces))
	viewports := make([]ewmh.DesktopViewport, len(workspaces))
	for i, ws := range workspaces {
		names[i] = ws.Name
		if mon, ok := m.MonitorByID(ws.Monitor); ok {
			areas[i] = ewmh.Workarea{
				X: mon.Usable.X, Y: mon.Usable.Y,
				Width: uint(mon.Usable.W), Height: uint(mon.Usable.H),
			}
			viewports[i] = ewmh.DesktopViewport{X: mon.Geom.X, Y: mon.Geom.Y}
		}
	}
	_ = ewmh.DesktopNamesSet(xu, names)
	_ = ewmh.WorkareaSet(xu, areas)
	_ = ewmh.DesktopViewportSet(xu, viewports)
	w, h := x.ScreenSize()
	_ = ewmh.DesktopGeometrySet(xu, &ewmh.DesktopGeometry{Width: w, Height: h})
	if activeMon != nil {
		if ws, ok := m.WorkspaceByID(activeMon.Active); ok && ws.Num >= 0 {
			_ = ewmh.CurrentDesktopSet(xu, uint(ws.Num))
		}
	}
	return nil
}
