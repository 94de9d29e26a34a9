package daemon

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strings"
	"sync"

	"github.com/natemaia/dkwm/internal/wm"
)

// SocketPath resolves the control-socket path dkwm advertises via
// DKSOCK: a host/display/screen-qualified path
// under /tmp, unless overridden by Config.SocketPath.
func SocketPath(override string, display string, screen int) string {
	if override != "" {
		return override
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "/tmp/dk.socket"
	}
	dsp := strings.TrimPrefix(display, ":")
	if i := strings.IndexByte(dsp, '.'); i >= 0 {
		dsp = dsp[:i]
	}
	if dsp == "" {
		dsp = "0"
	}
	return fmt.Sprintf("/tmp/dk_%s_%s_%d.socket", host, dsp, screen)
}

// Listen binds the control socket, adopting an already-open fd (passed
// via -s FD across a self-restart) instead of creating a fresh
// one when inheritedFD > 0.
func Listen(path string, inheritedFD int) (*net.UnixListener, error) {
	if inheritedFD > 0 {
		f := os.NewFile(uintptr(inheritedFD), "dkwm-socket")
		ln, err := net.FileListener(f)
		if err != nil {
			return nil, fmt.Errorf("adopt inherited socket fd %d: %w", inheritedFD, err)
		}
		ul, ok := ln.(*net.UnixListener)
		if !ok {
			return nil, fmt.Errorf("inherited fd %d is not a unix socket", inheritedFD)
		}
		return ul, nil
	}
	_ = os.Remove(path)
	ul, err := net.ListenUnix("unix", &net.UnixAddr{Name: path, Net: "unix"})
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", path, err)
	}
	return ul, nil
}

// AcceptLoop accepts connections and hands each to its own goroutine
// until the listener is closed.
func AcceptLoop(ln *net.UnixListener, d *wm.Dispatcher, done <-chan struct{}) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-done:
				return
			default:
				log.Printf("daemon: accept: %v", err)
				continue
			}
		}
		go handleConn(conn, d)
	}
}

// handleConn implements the control socket's one-command-per-connection
// contract: read one line, hand it to the dispatcher's consumer
// goroutine via the fan-in channel, write back exactly one reply line.
// A `status` command keeps the connection open afterward and streams a
// fresh snapshot on every subsequent model change instead of closing.
func handleConn(conn net.Conn, d *wm.Dispatcher) {
	defer conn.Close()

	r := bufio.NewReaderSize(conn, 4096)
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return
	}
	line = strings.TrimRight(line, "\r\n")

	cmd, perr := wm.ParseCommand(line)
	var reply string
	if perr != nil {
		reply = "!" + perr.Error()
	} else {
		replyCh := make(chan string, 1)
		d.PostSocketRequest(wm.SocketRequest{Cmd: cmd, Reply: replyCh})
		reply = <-replyCh
	}
	if _, err := fmt.Fprintln(conn, reply); err != nil {
		return
	}
	if perr == nil && cmd.Keyword == "status" && !strings.HasPrefix(reply, "!") {
		typ, num, serr := wm.ParseStatusArgs(cmd.Args)
		if serr == nil {
			streamStatus(conn, d, typ, num)
		}
	}
}

// streamStatus upgrades an accepted connection to a status subscriber
//. Notify always runs on the dispatcher's consumer goroutine, so
// Model access inside it is safe; the handoff to this goroutine's
// socket write happens only over lineCh. The subscriber auto-closes
// after num pushed snapshots (0 = unlimited), or when the peer goes
// away (detected by the failed write).
func streamStatus(conn net.Conn, d *wm.Dispatcher, typ wm.StatusType, num int) {
	lineCh := make(chan string, 8)
	done := make(chan struct{})
	var closeOnce sync.Once
	expire := func() { closeOnce.Do(func() { close(done) }) }
	sub := &wm.StatusSubscriber{
		WM:        d.WM,
		Type:      typ,
		Remaining: num,
		Send: func(line string) error {
			select {
			case lineCh <- line:
			default:
			}
			return nil
		},
		OnExpire: expire,
	}
	d.WM.Status.Subscribe(sub)
	defer d.WM.Status.Unsubscribe(sub)

	closed := make(chan struct{})
	go func() {
		io.Copy(io.Discard, conn)
		close(closed)
	}()
	for {
		select {
		case line := <-lineCh:
			if _, err := fmt.Fprintln(conn, line); err != nil {
				return
			}
		case <-done:
			return
		case <-closed:
			return
		}
	}
}
