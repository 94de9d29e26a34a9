package wm

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// PersistStore writes restart state to disk with a content hash for
// integrity checking ("a clean restart (-s FD) must preserve every client's
// workspace assignment, float state and geometry").
type PersistStore struct {
	path string
	mu   sync.Mutex
}

func NewPersistStore(path string) *PersistStore {
	return &PersistStore{path: path}
}

// StoredState is the serialized representation written to disk.
type StoredState struct {
	Timestamp time.Time      `json:"timestamp"`
	Hash      string         `json:"hash"`
	Focused   uint32         `json:"focused"` // window id of the selection at save time
	Clients   []StoredClient `json:"clients"`
}

type StoredClient struct {
	Window    uint32     `json:"window"`
	Workspace int        `json:"workspace"` // workspace Num, stable across restarts
	Monitor   string     `json:"monitor"`
	Geom      Rect       `json:"geom"`
	SavedGeom Rect       `json:"saved_geom"`
	Flags     ClientFlag `json:"flags"`
	Border    int        `json:"border"`
}

// Save computes a SHA-1 over each client's window, workspace, monitor,
// geometry and flags (saved geometry and border width are not hashed)
// and writes the state
// atomically via a temp-file rename.
func (s *PersistStore) Save(m *Model) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := StoredState{Timestamp: time.Now().UTC()}
	hasher := sha1.New()

	for _, mon := range m.ConnectedMonitors() {
		if ws, ok := m.WorkspaceByID(mon.Active); ok && ws.Active != 0 {
			if c, ok := m.Client(ws.Active); ok {
				state.Focused = c.Window
			}
			break
		}
	}

	for _, c := range m.AllClients() {
		ws, _ := m.WorkspaceByID(c.Workspace)
		sc := StoredClient{
			Window: c.Window,
			Geom:   c.Geom, SavedGeom: c.SavedGeom,
			Flags: c.Flags, Border: c.Border,
		}
		if mon, ok := m.MonitorByID(c.Monitor); ok {
			sc.Monitor = mon.Name
		}
		if ws != nil {
			sc.Workspace = ws.Num
		}
		state.Clients = append(state.Clients, sc)
		fmt.Fprintf(hasher, "%d:%d:%s:%+v:%d\n", sc.Window, sc.Workspace, sc.Monitor, sc.Geom, sc.Flags)
	}
	state.Hash = hex.EncodeToString(hasher.Sum(nil))

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal persisted state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename state file into place: %w", err)
	}
	return nil
}

// Load reads and verifies a previously saved state. A missing file is
// not an error ("missing persisted state on restart is treated as
// a cold start").
func (s *PersistStore) Load() (*StoredState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}

	var state StoredState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("unmarshal state file: %w", err)
	}

	hasher := sha1.New()
	for _, sc := range state.Clients {
		fmt.Fprintf(hasher, "%d:%d:%s:%+v:%d\n", sc.Window, sc.Workspace, sc.Monitor, sc.Geom, sc.Flags)
	}
	if hex.EncodeToString(hasher.Sum(nil)) != state.Hash {
		return nil, fmt.Errorf("state file %s failed integrity check", s.path)
	}
	return &state, nil
}

// Restore reapplies a loaded state's workspace/float/geometry fields
// onto clients the caller has already re-discovered from the X
// server, matched by window id (a self-exec restart never destroys
// windows, so ids survive unchanged across -s FD). The previously
// focused window returns to the top of its workspace's stack.
func Restore(m *Model, state *StoredState) {
	if state == nil {
		return
	}
	byWin := make(map[uint32]StoredClient, len(state.Clients))
	for _, sc := range state.Clients {
		byWin[sc.Window] = sc
	}
	for _, c := range m.AllClients() {
		sc, ok := byWin[c.Window]
		if !ok {
			continue
		}
		c.Geom = sc.Geom
		c.SavedGeom = sc.SavedGeom
		c.Flags = sc.Flags
		c.Border = sc.Border
		if ws, ok := m.WorkspaceByNum(sc.Workspace); ok && ws.ID != c.Workspace {
			_ = m.SetWorkspace(c, ws.ID, true)
		}
	}
	if c, ok := m.ClientByWindow(state.Focused); ok {
		m.AttachStack(c)
		if ws, ok := m.WorkspaceByID(c.Workspace); ok {
			if mon, ok := m.MonitorByID(ws.Monitor); ok {
				mon.Active = ws.ID
			}
		}
	}
}
