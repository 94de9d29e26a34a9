package wm

// cmdStatus implements the `status` keyword: the initial reply
// on a freshly accepted connection is one JSON snapshot line; the
// control socket layer (internal/daemon) upgrades the same connection
// to a push subscriber afterward rather than closing it.
func (d *Dispatcher) cmdStatus(args []string) (string, error) {
	typ, _, err := ParseStatusArgs(args)
	if err != nil {
		return "", err
	}
	return EncodeStatus(d.WM, typ)
}
