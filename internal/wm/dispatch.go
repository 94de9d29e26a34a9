package wm

import (
	"context"
	"log"
)

// SocketRequest is one accepted control-socket connection's command,
// fed into the fan-in channel alongside X events. reply is
// written to once and the handler must always write exactly one
// value, even on error, so the accept-loop goroutine can forward it.
type SocketRequest struct {
	Cmd   Command
	Reply chan<- string
}

// wireEvent tags which producer a fanIn item came from, so Dispatcher
// doesn't need a type switch on two unrelated struct shapes.
type wireEvent struct {
	x    *XEvent
	sock *SocketRequest
}

// Dispatcher runs the single consumer goroutine the concurrency model
// requires: all reads of and writes to Model happen here, and
// nowhere else, so no lock is needed around the model itself. Two
// producer goroutines owned by the caller (an X-event reader calling
// NextEvent, and the control-socket accept loop) feed a shared
// buffered channel through PostXEvent and PostSocketRequest;
// Dispatcher only ever receives from it.
type Dispatcher struct {
	WM *WM

	fanIn chan wireEvent

	// needsRefresh accumulates across one handler invocation; the loop
	// runs the refresh pipeline once per item rather than
	// once per mutation.
	needsRefresh bool
}

func NewDispatcher(wm *WM, bufSize int) *Dispatcher {
	if bufSize <= 0 {
		bufSize = 64
	}
	return &Dispatcher{WM: wm, fanIn: make(chan wireEvent, bufSize)}
}

// PostXEvent is called by the X-event-reading goroutine for each
// decoded event.
func (d *Dispatcher) PostXEvent(ev XEvent) {
	d.fanIn <- wireEvent{x: &ev}
}

// PostSocketRequest is called by the socket accept-loop goroutine for
// each parsed command line.
func (d *Dispatcher) PostSocketRequest(req SocketRequest) {
	d.fanIn <- wireEvent{sock: &req}
}

// Run drains the fan-in channel until ctx is canceled, dispatching
// each item to the appropriate handler. It is the only goroutine that
// ever touches d.WM.Model.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case item := <-d.fanIn:
			switch {
			case item.x != nil:
				d.handleXEvent(*item.x)
			case item.sock != nil:
				reply := d.handleCommand(item.sock.Cmd)
				item.sock.Reply <- reply
			}
			if d.needsRefresh {
				d.needsRefresh = false
				d.WM.Refresh()
				d.swallowEnterNotify()
			}
		}
	}
}

// ScanExisting manages the windows already present on the display. Called once before the
// loop starts, on the same goroutine that will run it.
func (d *Dispatcher) ScanExisting() {
	wins, err := d.WM.X.QueryTree(d.WM.X.RootWindow())
	if err != nil {
		log.Printf("dispatch: startup scan: %v", err)
		return
	}
	for _, win := range wins {
		d.onMapRequest(XEvent{Type: EventMapRequest, Window: win})
	}
	if d.needsRefresh {
		d.needsRefresh = false
		d.WM.Refresh()
	}
}

// markRefresh schedules the refresh pipeline after the current item.
func (d *Dispatcher) markRefresh() { d.needsRefresh = true }

// swallowEnterNotify drops the EnterNotify events a refresh's restack
// and geometry changes just generated, so focus-follows-mouse does not
// chase windows the WM itself moved.
// Only consecutive queued EnterNotify items are dropped; the first
// non-enter event ends the drain and is handled normally.
func (d *Dispatcher) swallowEnterNotify() {
	for {
		select {
		case item := <-d.fanIn:
			if item.x != nil && item.x.Type == EventEnterNotify {
				continue
			}
			switch {
			case item.x != nil:
				d.handleXEvent(*item.x)
			case item.sock != nil:
				reply := d.handleCommand(item.sock.Cmd)
				item.sock.Reply <- reply
			}
			if d.needsRefresh {
				d.needsRefresh = false
				d.WM.Refresh()
			}
			return
		default:
			return
		}
	}
}

func (d *Dispatcher) handleXEvent(ev XEvent) {
	switch ev.Type {
	case EventMapRequest:
		d.onMapRequest(ev)
	case EventUnmapNotify:
		d.onUnmapNotify(ev)
	case EventDestroyNotify:
		d.onDestroyNotify(ev)
	case EventConfigureRequest:
		d.onConfigureRequest(ev)
	case EventConfigureNotify:
		d.onConfigureNotify(ev)
	case EventPropertyNotify:
		d.onPropertyNotify(ev)
	case EventEnterNotify:
		d.onEnterNotify(ev)
	case EventFocusIn:
		d.onFocusIn(ev)
	case EventMappingNotify:
		d.onMappingNotify(ev)
	case EventButtonPress:
		d.onButtonPress(ev)
	case EventButtonRelease:
		d.onButtonRelease(ev)
	case EventMotionNotify:
		d.onMotionNotify(ev)
	case EventClientMessage:
		d.onClientMessage(ev)
	case EventRandRScreenChange:
		d.onRandRScreenChange(ev)
	default:
		log.Printf("dispatch: unhandled event type %v", ev.Type)
	}
}
