package wm

import "fmt"

// handleCommand runs a parsed Command against the model and returns
// the reply line the control socket writes back (replies begin
// with "!" iff an error occurred).
func (d *Dispatcher) handleCommand(cmd Command) string {
	var (
		reply string
		err   error
	)
	switch cmd.Keyword {
	case "mon":
		reply, err = d.cmdMon(cmd.Args)
	case "rule":
		reply, err = d.cmdRule(cmd.Args)
	case "set":
		reply, err = d.cmdSet(cmd.Args)
	case "status":
		reply, err = d.cmdStatus(cmd.Args)
	case "win":
		reply, err = d.cmdWin(cmd.Args)
	case "ws":
		reply, err = d.cmdWs(cmd.Args)
	default:
		err = fmt.Errorf("unknown keyword %q", cmd.Keyword)
	}
	if err != nil {
		return "!" + err.Error()
	}
	return reply
}

// activeClient resolves the focused client on the currently active
// monitor, the implicit target of any win-action with no explicit id.
func (d *Dispatcher) activeClient() (*Client, error) {
	mon := d.WM.ActiveMonitor()
	if mon == nil {
		return nil, ErrNoConnectedMonitor
	}
	ws, ok := d.WM.Model.WorkspaceByID(mon.Active)
	if !ok || ws.Active == 0 {
		return nil, fmt.Errorf("no active client")
	}
	c, ok := d.WM.Model.Client(ws.Active)
	if !ok {
		return nil, fmt.Errorf("no active client")
	}
	return c, nil
}

func (d *Dispatcher) activeWorkspace() (*Workspace, error) {
	mon := d.WM.ActiveMonitor()
	if mon == nil {
		return nil, ErrNoConnectedMonitor
	}
	ws, ok := d.WM.Model.WorkspaceByID(mon.Active)
	if !ok {
		return nil, ErrUnknownWorkspace
	}
	return ws, nil
}
