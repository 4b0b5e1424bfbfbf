package state

import (
	"fmt"
	"regexp"

	apperrors "github.com/cadre-oss/agentmind/internal/errors"
	"github.com/cadre-oss/agentmind/internal/memory"
)

// Store persists one MemoryState per agent identity.
type Store interface {
	// Load returns the persisted state, or a STATE_NOT_FOUND error.
	Load(agentID string) (*memory.MemoryState, error)
	Save(s *memory.MemoryState) error
	Delete(agentID string) error
	// List returns the stored agent IDs in ascending order.
	List() ([]string, error)
	Close() error
}

var agentIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// ValidateAgentID rejects identities that are unsafe as file or row keys.
func ValidateAgentID(agentID string) error {
	if !agentIDPattern.MatchString(agentID) {
		return apperrors.Newf(apperrors.CodeInvalidAgentID, "invalid agent id %q", agentID).
			WithSuggestion("Use 1-128 letters, digits, '.', '_' or '-', starting with a letter or digit")
	}
	return nil
}

// StoreOptions carries driver-specific settings. Fields a driver does not
// use are ignored.
type StoreOptions struct {
	// History is the number of prior snapshots the file driver keeps.
	History int
	// Sidecar renders a human-readable companion file on every file save.
	Sidecar *Sidecar
}

// NewStore opens the backend named by driver.
func NewStore(driver, path string, opts StoreOptions) (Store, error) {
	switch driver {
	case "memory":
		return NewMemoryStore(), nil
	case "file", "":
		fs, err := NewFileStore(path)
		if err != nil {
			return nil, err
		}
		fs.history = opts.History
		fs.sidecar = opts.Sidecar
		return fs, nil
	case "sqlite":
		return NewSQLiteStore(path)
	case "sqlite-nocgo":
		return NewPureSQLiteStore(path)
	default:
		return nil, apperrors.New(apperrors.CodeConfigInvalid, fmt.Sprintf("unsupported state driver: %s", driver)).
			WithSuggestion("Use one of: file, sqlite, sqlite-nocgo, memory")
	}
}

func notFound(agentID string) error {
	return apperrors.Newf(apperrors.CodeStateNotFound, "no persisted state for agent %s", agentID)
}
