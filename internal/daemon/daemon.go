package daemon

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/exec"
	"os/signal"
	"os/user"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/BurntSushi/xgb/xproto"
	"golang.org/x/sys/unix"

	"github.com/natemaia/dkwm/internal/wm"
)

// Options configures one daemon run, assembled by cmd/dkwm's main.go
// from flags and environment.
type Options struct {
	Display     string // X display string, "" uses $DISPLAY
	InheritedFD int    // fd adopted from -s FD after a self-restart, 0 if a cold start
	Config      *Config
}

// Run owns a live X display for the life of the process: it connects,
// claims the root window, brings up the WM engine, serves the control
// socket, and blocks until the context is canceled or a restart signal
// arrives, at which point it self-execs with -s FD after
// persisting client state.
func Run(ctx context.Context, opts Options) error {
	cfg := opts.Config
	if cfg == nil {
		cfg = Default()
	}

	x, err := wm.DialX11(opts.Display)
	if err != nil {
		return err
	}

	rootMask := uint32(xproto.EventMaskSubstructureRedirect | xproto.EventMaskSubstructureNotify |
		xproto.EventMaskPropertyChange | xproto.EventMaskStructureNotify)
	if err := x.SetWindowEventMask(x.RootWindow(), rootMask); err != nil {
		x.Close()
		return fmt.Errorf("claim root window (is another window manager running?): %w", err)
	}

	machine := wm.NewWM(x)
	machine.Model.Config.NumWorkspaces = cfg.NumWorkspaces
	if err := wm.PublishWMIdentity(x, "dkwm"); err != nil {
		log.Printf("daemon: publish wm identity: %v", err)
	}
	if err := machine.Randr.Reconcile(); err != nil {
		log.Printf("daemon: initial randr reconcile: %v", err)
	}

	dispatcher := wm.NewDispatcher(machine, 64)
	dispatcher.ScanExisting()

	store := wm.NewPersistStore(persistPath())
	if opts.InheritedFD > 0 {
		if state, err := store.Load(); err != nil {
			log.Printf("daemon: load persisted state: %v", err)
		} else {
			wm.Restore(machine.Model, state)
		}
	}

	display := opts.Display
	if display == "" {
		display = os.Getenv("DISPLAY")
	}
	sockPath := SocketPath(cfg.SocketPath, display, 0)
	ln, err := Listen(sockPath, opts.InheritedFD)
	if err != nil {
		x.Close()
		return err
	}
	if opts.InheritedFD <= 0 {
		if err := os.Setenv("DKSOCK", sockPath); err != nil {
			log.Printf("daemon: unable to set DKSOCK: %v", err)
		}
	}

	runConfigScript()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	acceptDone := make(chan struct{})
	go func() {
		AcceptLoop(ln, dispatcher, acceptDone)
	}()

	go func() {
		for {
			ev, err := x.NextEvent()
			if err != nil {
				log.Printf("daemon: x connection closed: %v", err)
				cancel()
				return
			}
			dispatcher.PostXEvent(ev)
		}
	}()

	restart := make(chan struct{}, 1)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		for sig := range sigCh {
			if sig == syscall.SIGHUP {
				select {
				case restart <- struct{}{}:
				default:
				}
			}
			cancel()
			return
		}
	}()

	dispatcher.Run(runCtx)

	close(acceptDone)
	signal.Stop(sigCh)

	if err := store.Save(machine.Model); err != nil {
		log.Printf("daemon: save persisted state: %v", err)
	}
	x.Close()

	select {
	case <-restart:
		// ln stays open here: selfRestart dups it to a fixed fd and
		// execs, so closing it first would race the new process's bind.
		return selfRestart(ln)
	default:
	}

	_ = ln.Close()
	_ = os.Remove(sockPath)
	return nil
}

// persistPath is the fixed, opaque restart-state path: no
// compatibility is promised across versions, so it lives alongside the
// rest of dkwm's runtime state rather than being user-configurable.
func persistPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		if u, uerr := user.Current(); uerr == nil {
			dir = filepath.Join(os.TempDir(), "dkwm-"+u.Username)
		} else {
			dir = os.TempDir()
		}
	} else {
		dir = filepath.Join(dir, "dkwm")
	}
	return filepath.Join(dir, "restart-state.json")
}

// runConfigScript execs the user's startup script after the root
// window is acquired, feeding it nothing and only logging a non-zero
// exit (logged, never fatal).
func runConfigScript() {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return
	}
	script := filepath.Join(configDir, "dkwm", "dkrc")
	if _, err := os.Stat(script); err != nil {
		return
	}
	cmd := exec.Command(script)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		log.Printf("daemon: start config script %s: %v", script, err)
		return
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			log.Printf("daemon: config script %s: %v", script, err)
		}
	}()
}

// selfRestart duplicates the listening socket to a fixed fd, clears its
// close-on-exec bit, and re-execs the current binary with "-s FD" so
// the new process can adopt it without a listen/bind race.
func selfRestart(ln *net.UnixListener) error {
	f, err := ln.File()
	if err != nil {
		return fmt.Errorf("dup listening socket for restart: %w", err)
	}
	defer f.Close()

	const restartFD = 3
	if err := unix.Dup2(int(f.Fd()), restartFD); err != nil {
		return fmt.Errorf("dup2 restart fd: %w", err)
	}
	flags, err := unix.FcntlInt(uintptr(restartFD), unix.F_GETFD, 0)
	if err != nil {
		return fmt.Errorf("fcntl F_GETFD restart fd: %w", err)
	}
	if _, err := unix.FcntlInt(uintptr(restartFD), unix.F_SETFD, flags&^unix.FD_CLOEXEC); err != nil {
		return fmt.Errorf("clear FD_CLOEXEC on restart fd: %w", err)
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable for restart: %w", err)
	}
	return unix.Exec(exe, []string{exe, "-s", strconv.Itoa(restartFD)}, os.Environ())
}
