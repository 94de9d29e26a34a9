package wm

import "fmt"

// cmdMon implements the `mon` keyword: it shares ws-action's
// follow|send|view grammar but resolves a MONREF|DIR against the
// connected monitor list instead. view switches the active
// monitor (and so the workspace shown); follow/send move the active
// client to the target monitor's displayed workspace.
func (d *Dispatcher) cmdMon(args []string) (string, error) {
	action := "view"
	if len(args) > 0 {
		switch args[0] {
		case "follow", "send", "view":
			action = args[0]
			args = args[1:]
		}
	}
	if len(args) == 0 {
		return "", fmt.Errorf("mon %s: missing monitor reference\nexpected integer, name, or direction e.g. next", action)
	}

	cur := d.WM.ActiveMonitor()
	if cur == nil {
		return "", fmt.Errorf("mon %s: %w", action, ErrNoConnectedMonitor)
	}

	target, err := d.resolveMonitorRef(args[0], cur)
	if err != nil {
		return "", fmt.Errorf("mon %s: %w", action, err)
	}
	if target.ID == cur.ID {
		return "", nil
	}

	targetWS, ok := d.WM.Model.WorkspaceByID(target.Active)
	if !ok {
		return "", fmt.Errorf("mon %s: %w", action, ErrUnknownWorkspace)
	}

	if action != "view" {
		c, err := d.activeClient()
		if err != nil {
			return "", fmt.Errorf("mon %s: %w", action, err)
		}
		if err := d.WM.Model.MoveClientToWorkspace(c.ID, targetWS.ID); err != nil {
			return "", fmt.Errorf("mon %s: %w", action, err)
		}
		if err := PublishClientDesktop(d.WM.X, c, targetWS.Num); err != nil && err != ErrNoXUtil {
			return "", fmt.Errorf("mon %s: %w", action, err)
		}
	}

	if action != "send" {
		d.WM.SetActiveMonitor(target.ID)
		d.WM.FocusClient(nil)
	}
	d.markRefresh()
	return "", nil
}

// resolveMonitorRef resolves a MONREF|DIR token against the connected
// monitor set.
func (d *Dispatcher) resolveMonitorRef(ref string, cur *Monitor) (*Monitor, error) {
	if dw, ok := ParseDirWord(ref); ok {
		all := d.WM.Model.AllMonitorsSorted()
		if mon := monCycle(all, cur.ID, dw); mon != nil {
			return mon, nil
		}
		return nil, fmt.Errorf("no monitor in direction %q", ref)
	}
	mon, ok := d.WM.Model.MonitorByRef(ref)
	if !ok {
		return nil, fmt.Errorf("invalid value for mon: %s\n\nexpected integer or monitor name e.g. HDMI-A-0", ref)
	}
	return mon, nil
}
