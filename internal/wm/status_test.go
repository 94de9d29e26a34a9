package wm

import (
	"encoding/json"
	"strings"
	"testing"
)

func newStatusWM() (*WM, *Workspace, *Client) {
	f := NewFakeTransport()
	wm := NewWM(f)
	mon := wm.Model.AddMonitor("VGA-1", Rect{X: 0, Y: 0, W: 1920, H: 1080})
	ws, _ := wm.Model.WorkspaceByID(mon.Active)
	c, _ := wm.Model.AddClient(55, ws.ID, mon.ID)
	c.Class = "Xterm"
	c.Title = "shell"
	return wm, ws, c
}

func TestEncodeStatusBarListsWorkspaces(t *testing.T) {
	wm, _, _ := newStatusWM()
	line, err := EncodeStatus(wm, StatusBar)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var out struct {
		Workspaces []struct {
			Num     int    `json:"num"`
			Focused bool   `json:"focused"`
			Active  bool   `json:"active"`
			Monitor string `json:"monitor"`
			Layout  string `json:"layout"`
			Title   string `json:"title"`
			ID      uint32 `json:"id"`
		} `json:"workspaces"`
	}
	if err := json.Unmarshal([]byte(line), &out); err != nil {
		t.Fatalf("not valid json: %v", err)
	}
	if len(out.Workspaces) != wm.Model.Config.NumWorkspaces {
		t.Fatalf("expected %d workspaces, got %d", wm.Model.Config.NumWorkspaces, len(out.Workspaces))
	}
	first := out.Workspaces[0]
	if !first.Focused || !first.Active || first.Monitor != "VGA-1" || first.Layout != "tile" {
		t.Fatalf("unexpected first workspace: %+v", first)
	}
	if first.Title != "shell" || first.ID != 55 {
		t.Fatalf("expected selected window title/id, got %+v", first)
	}
}

func TestEncodeStatusWin(t *testing.T) {
	wm, _, _ := newStatusWM()
	line, err := EncodeStatus(wm, StatusWin)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var out map[string]string
	if err := json.Unmarshal([]byte(line), &out); err != nil {
		t.Fatalf("not valid json: %v", err)
	}
	if out["focused"] != "shell" {
		t.Fatalf(`expected {"focused": "shell"}, got %v`, out)
	}
}

func TestEncodeStatusFullSections(t *testing.T) {
	wm, _, _ := newStatusWM()
	line, err := EncodeStatus(wm, StatusFull)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal([]byte(line), &out); err != nil {
		t.Fatalf("not valid json: %v", err)
	}
	for _, key := range []string{"global", "workspaces", "monitors", "clients", "rules", "panels", "desks"} {
		if _, ok := out[key]; !ok {
			t.Fatalf("full dump missing %q section", key)
		}
	}
}

func TestStatusSanitizesControlCharacters(t *testing.T) {
	wm, _, c := newStatusWM()
	c.Title = "evil\ntitle\x01"
	line, err := EncodeStatus(wm, StatusWin)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if strings.Contains(line, "\\n") || strings.Contains(line, "\\u0001") {
		t.Fatalf("expected control characters stripped, got %q", line)
	}
}

func TestStatusSubscriberCountdownExpires(t *testing.T) {
	wm, _, _ := newStatusWM()
	expired := false
	sent := 0
	sub := &StatusSubscriber{
		WM:        wm,
		Type:      StatusBar,
		Remaining: 2,
		Send:      func(string) error { sent++; return nil },
		OnExpire:  func() { expired = true },
	}
	sub.Notify(Notification{Type: NotifyFocusChanged})
	if expired {
		t.Fatal("expired too early")
	}
	sub.Notify(Notification{Type: NotifyFocusChanged})
	if !expired {
		t.Fatal("expected expiry after 2 snapshots")
	}
	if sent != 2 {
		t.Fatalf("expected 2 snapshots sent, got %d", sent)
	}
}

func TestStatusSubscriberTypeFilters(t *testing.T) {
	wm, _, _ := newStatusWM()
	sent := 0
	sub := &StatusSubscriber{
		WM:   wm,
		Type: StatusLayout,
		Send: func(string) error { sent++; return nil },
	}
	sub.Notify(Notification{Type: NotifyFocusChanged})
	if sent != 0 {
		t.Fatal("layout subscriber should ignore focus changes")
	}
	sub.Notify(Notification{Type: NotifyLayoutChanged})
	if sent != 1 {
		t.Fatal("layout subscriber should see layout changes")
	}
}

func TestParseStatusArgs(t *testing.T) {
	typ, num, err := ParseStatusArgs([]string{"type", "full", "num", "3"})
	if err != nil || typ != StatusFull || num != 3 {
		t.Fatalf("got %v %d %v", typ, num, err)
	}
	if _, _, err := ParseStatusArgs([]string{"type", "bogus"}); err == nil {
		t.Fatal("expected error for unknown type")
	}
}
