package state

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	apperrors "github.com/cadre-oss/agentmind/internal/errors"
	"github.com/cadre-oss/agentmind/internal/memory"
)

const (
	stateFile  = "state.json"
	historyDir = "history"
)

// Sidecar renders a companion file written next to state.json.
type Sidecar struct {
	Name   string // e.g. MEMORY.md
	Render func(*memory.MemoryState) ([]byte, error)
}

// FileStore keeps each agent under <root>/<agentId>/state.json.
//
// Layout:
//
//	<root>/<agentId>/state.json
//	<root>/<agentId>/history/<ULID>.json   previous versions, newest kept
//	<root>/<agentId>/<sidecar>             optional rendered view
type FileStore struct {
	root    string
	history int
	sidecar *Sidecar

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewFileStore creates the root directory if needed.
func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStateIO, "failed to create state directory", err)
	}
	return &FileStore{
		root:    root,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}, nil
}

// Root returns the directory holding agent folders.
func (s *FileStore) Root() string {
	return s.root
}

func (s *FileStore) agentDir(agentID string) string {
	return filepath.Join(s.root, agentID)
}

func (s *FileStore) Load(agentID string) (*memory.MemoryState, error) {
	if err := ValidateAgentID(agentID); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.agentDir(agentID), stateFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, notFound(agentID)
		}
		return nil, apperrors.Wrap(apperrors.CodeStateIO, "failed to read state", err)
	}
	return decodeState(data)
}

func (s *FileStore) Save(st *memory.MemoryState) error {
	if err := ValidateAgentID(st.AgentID); err != nil {
		return err
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.agentDir(st.AgentID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return apperrors.Wrap(apperrors.CodeStateIO, "failed to create agent directory", err)
	}

	path := filepath.Join(dir, stateFile)
	if s.history > 0 {
		if err := s.snapshot(dir, path); err != nil {
			return err
		}
	}
	if err := writeAtomic(path, data); err != nil {
		return apperrors.Wrap(apperrors.CodeStateIO, "failed to write state", err)
	}

	if s.sidecar != nil {
		out, err := s.sidecar.Render(st)
		if err != nil {
			return fmt.Errorf("failed to render %s: %w", s.sidecar.Name, err)
		}
		if err := writeAtomic(filepath.Join(dir, s.sidecar.Name), out); err != nil {
			return apperrors.Wrap(apperrors.CodeStateIO, "failed to write "+s.sidecar.Name, err)
		}
	}
	return nil
}

// snapshot copies the current state.json into history and prunes old copies.
func (s *FileStore) snapshot(dir, current string) error {
	prev, err := os.ReadFile(current)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return apperrors.Wrap(apperrors.CodeStateIO, "failed to read previous state", err)
	}

	hdir := filepath.Join(dir, historyDir)
	if err := os.MkdirAll(hdir, 0755); err != nil {
		return apperrors.Wrap(apperrors.CodeStateIO, "failed to create history directory", err)
	}
	id := ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
	if err := writeAtomic(filepath.Join(hdir, id+".json"), prev); err != nil {
		return apperrors.Wrap(apperrors.CodeStateIO, "failed to write snapshot", err)
	}

	ids, err := listSnapshots(hdir)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeStateIO, "failed to list snapshots", err)
	}
	for _, old := range ids[min(len(ids), s.history):] {
		os.Remove(filepath.Join(hdir, old+".json"))
	}
	return nil
}

// History returns snapshot IDs for an agent, newest first.
func (s *FileStore) History(agentID string) ([]string, error) {
	if err := ValidateAgentID(agentID); err != nil {
		return nil, err
	}
	ids, err := listSnapshots(filepath.Join(s.agentDir(agentID), historyDir))
	if err != nil && !os.IsNotExist(err) {
		return nil, apperrors.Wrap(apperrors.CodeStateIO, "failed to list snapshots", err)
	}
	return ids, nil
}

// LoadSnapshot reads one history entry by ID.
func (s *FileStore) LoadSnapshot(agentID, id string) (*memory.MemoryState, error) {
	if err := ValidateAgentID(agentID); err != nil {
		return nil, err
	}
	if _, err := ulid.ParseStrict(id); err != nil {
		return nil, apperrors.Newf(apperrors.CodeInvalidArguments, "invalid snapshot id %q", id)
	}
	data, err := os.ReadFile(filepath.Join(s.agentDir(agentID), historyDir, id+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Newf(apperrors.CodeStateNotFound, "no snapshot %s for agent %s", id, agentID)
		}
		return nil, apperrors.Wrap(apperrors.CodeStateIO, "failed to read snapshot", err)
	}
	return decodeState(data)
}

func (s *FileStore) Delete(agentID string) error {
	if err := ValidateAgentID(agentID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.RemoveAll(s.agentDir(agentID)); err != nil {
		return apperrors.Wrap(apperrors.CodeStateIO, "failed to delete state", err)
	}
	return nil
}

func (s *FileStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, apperrors.Wrap(apperrors.CodeStateIO, "failed to list agents", err)
	}

	ids := []string{}
	for _, e := range entries {
		if !e.IsDir() || ValidateAgentID(e.Name()) != nil {
			continue
		}
		if _, err := os.Stat(filepath.Join(s.root, e.Name(), stateFile)); err == nil {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Close is a no-op; files are closed after every write.
func (s *FileStore) Close() error {
	return nil
}

// listSnapshots returns ULIDs in dir, newest first.
func listSnapshots(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return []string{}, err
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))
	return ids, nil
}

// writeAtomic writes data to a temp file in the target directory and renames
// it into place.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return err
	}
	return nil
}
