// Command dkc is the companion control-socket client: it reads
// DKSOCK, joins its argv into one command line, sends it over the
// socket, and relays the reply to stdout. A `status` invocation is left
// connected afterward so it can keep printing push updates, matching
// dkwm's subscriber upgrade on that same connection.
package main

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strings"

	"golang.org/x/term"
)

func main() {
	ok, err := run(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "dkc: %v\n", err)
		os.Exit(1)
	}
	if !ok {
		os.Exit(1)
	}
}

// run reports (replyOK, fatalErr): fatalErr is a dkc-side failure
// (bad usage, no socket); replyOK is false when the daemon's own reply
// was an error (leading "!"), which still exits non-zero but with no
// extra "dkc:"-prefixed noise since the daemon's message was already
// printed to stderr.
func run(args []string) (bool, error) {
	if len(args) == 0 {
		return false, fmt.Errorf("usage: dkc COMMAND [ARGS...]")
	}
	sock := os.Getenv("DKSOCK")
	if sock == "" {
		return false, fmt.Errorf("DKSOCK is not set; is dkwm running?")
	}

	line := strings.Join(args, " ")

	conn, err := net.Dial("unix", sock)
	if err != nil {
		return false, fmt.Errorf("connect to %s: %w", sock, err)
	}
	defer conn.Close()

	if _, err := fmt.Fprintln(conn, line); err != nil {
		return false, fmt.Errorf("send command: %w", err)
	}

	isTTY := term.IsTerminal(int(os.Stdout.Fd()))
	_ = isTTY // reserved for pretty-printing interactive replies

	r := bufio.NewReader(conn)
	first := true
	for {
		reply, rerr := r.ReadString('\n')
		if reply == "" && rerr != nil {
			if first {
				return false, fmt.Errorf("read reply: %w", rerr)
			}
			return true, nil
		}
		reply = strings.TrimRight(reply, "\n")
		isErr := strings.HasPrefix(reply, "!")
		if isErr {
			fmt.Fprintln(os.Stderr, strings.TrimPrefix(reply, "!"))
		} else if reply != "" {
			fmt.Println(reply)
		}
		if first && isErr {
			return false, nil
		}
		first = false
		if rerr != nil || args[0] != "status" {
			return true, nil
		}
	}
}
