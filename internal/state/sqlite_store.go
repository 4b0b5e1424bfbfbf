package state

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	apperrors "github.com/cadre-oss/agentmind/internal/errors"
	"github.com/cadre-oss/agentmind/internal/memory"
)

// SQLiteStore keeps one row per agent in a SQLite database. The same schema
// is served by the cgo driver (mattn/go-sqlite3) and the pure-Go driver
// (modernc.org/sqlite).
type SQLiteStore struct {
	db     *sql.DB
	driver string
}

// NewSQLiteStore opens path with the cgo driver.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	return openSQLite("sqlite3", path, path+"?_journal_mode=WAL&_busy_timeout=5000")
}

// NewPureSQLiteStore opens path with the pure-Go driver, for builds without cgo.
func NewPureSQLiteStore(path string) (*SQLiteStore, error) {
	return openSQLite("sqlite", path, path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
}

func openSQLite(driver, path, dsn string) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStateIO, "failed to create directory", err)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStateIO, "failed to open database", err)
	}

	store := &SQLiteStore{db: db, driver: driver}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, apperrors.Wrap(apperrors.CodeStateIO, "failed to migrate database", err)
	}

	return store, nil
}

// Driver returns the database/sql driver name in use.
func (s *SQLiteStore) Driver() string {
	return s.driver
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS agent_states (
		agent_id   TEXT PRIMARY KEY,
		version    INTEGER NOT NULL,
		persona_version INTEGER NOT NULL DEFAULT 0,
		updated_at DATETIME NOT NULL,
		data       JSON NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_agent_states_updated_at ON agent_states(updated_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Save(st *memory.MemoryState) error {
	if err := ValidateAgentID(st.AgentID); err != nil {
		return err
	}
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO agent_states (agent_id, version, persona_version, updated_at, data)
		VALUES (?, ?, ?, ?, ?)
	`, st.AgentID, st.Version, st.Persona.Version, time.UnixMilli(st.UpdatedAt).UTC().Format(time.RFC3339Nano), string(data))
	if err != nil {
		return apperrors.Wrap(apperrors.CodeStateIO, "failed to save state", err)
	}
	return nil
}

func (s *SQLiteStore) Load(agentID string) (*memory.MemoryState, error) {
	var data string
	err := s.db.QueryRow("SELECT data FROM agent_states WHERE agent_id = ?", agentID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, notFound(agentID)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStateIO, "failed to load state", err)
	}
	return decodeState([]byte(data))
}

func (s *SQLiteStore) Delete(agentID string) error {
	if _, err := s.db.Exec("DELETE FROM agent_states WHERE agent_id = ?", agentID); err != nil {
		return apperrors.Wrap(apperrors.CodeStateIO, "failed to delete state", err)
	}
	return nil
}

func (s *SQLiteStore) List() ([]string, error) {
	rows, err := s.db.Query("SELECT agent_id FROM agent_states ORDER BY agent_id")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStateIO, "failed to list agents", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
