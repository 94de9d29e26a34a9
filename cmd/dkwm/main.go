// Command dkwm is the window manager daemon: it owns the X root window
// for the life of the session and serves the control socket. `-v`
// prints the version and exits, `-h` prints usage and exits, `-s FD`
// adopts an already-open socket fd after a self-restart instead of
// binding fresh.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/natemaia/dkwm/internal/daemon"
)

const version = "dkwm-0.1"

func main() {
	if err := run(); err != nil {
		log.Fatalf("dkwm: %v", err)
	}
}

func run() error {
	fs := flag.NewFlagSet("dkwm", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: dkwm [-hv] [-s fd]\n")
	}
	showVersion := fs.Bool("v", false, "print version and exit")
	inheritedFD := fs.Int("s", 0, "adopt an already-open control socket fd after restart")
	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}
	if *showVersion {
		fmt.Println(version)
		return nil
	}

	cfg, err := daemon.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	return daemon.Run(context.Background(), daemon.Options{
		InheritedFD: *inheritedFD,
		Config:      cfg,
	})
}
