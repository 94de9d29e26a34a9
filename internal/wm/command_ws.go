package wm

import "fmt"

// cmdWs implements the `ws` keyword's ws-action grammar:
// `follow|send|view (WSREF|DIR)`. view switches the monitor's
// displayed workspace; follow moves the active client to the target
// workspace and switches to it; send moves the client without changing
// the view.
func (d *Dispatcher) cmdWs(args []string) (string, error) {
	action := "view"
	if len(args) > 0 {
		switch args[0] {
		case "follow", "send", "view":
			action = args[0]
			args = args[1:]
		}
	}
	if len(args) == 0 {
		return "", fmt.Errorf("ws %s: missing workspace reference\nexpected integer, name, or direction e.g. next", action)
	}

	cur, err := d.activeWorkspace()
	if err != nil {
		return "", fmt.Errorf("ws %s: %w", action, err)
	}

	target, err := d.resolveWorkspaceRef(args[0], cur)
	if err != nil {
		return "", fmt.Errorf("ws %s: %w", action, err)
	}
	if target.ID == cur.ID {
		return "", nil
	}

	if action != "view" {
		c, err := d.activeClient()
		if err != nil {
			return "", fmt.Errorf("ws %s: %w", action, err)
		}
		if err := d.WM.Model.MoveClientToWorkspace(c.ID, target.ID); err != nil {
			return "", fmt.Errorf("ws %s: %w", action, err)
		}
		if err := PublishClientDesktop(d.WM.X, c, target.Num); err != nil && err != ErrNoXUtil {
			return "", fmt.Errorf("ws %s: %w", action, err)
		}
		if target.Monitor != cur.Monitor {
			d.WM.hideClient(c)
		}
	}

	if action != "send" {
		d.WM.ViewWorkspace(target)
	}
	d.markRefresh()
	return "", nil
}

// resolveWorkspaceRef resolves a WSREF|DIR token against the model's
// workspace set.
func (d *Dispatcher) resolveWorkspaceRef(ref string, cur *Workspace) (*Workspace, error) {
	if dw, ok := ParseDirWord(ref); ok {
		all := d.WM.Model.AllWorkspacesSorted()
		if ws := wsCycle(all, cur.ID, dw); ws != nil {
			return ws, nil
		}
		return nil, fmt.Errorf("no workspace in direction %q", ref)
	}
	ws, ok := d.WM.Model.WorkspaceByRef(ref)
	if !ok {
		return nil, fmt.Errorf("invalid value for ws: %s\n\nexpected integer or workspace name e.g. 2", ref)
	}
	return ws, nil
}
