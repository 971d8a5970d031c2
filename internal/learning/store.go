package learning

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nxtg-ai/forge/pkg/models"
)

// Record is one completed-task interaction.
type Record struct {
	// Timestamp is when the record was written.
	Timestamp time.Time `json:"timestamp"`
	// TaskID identifies the completed task.
	TaskID string `json:"task_id"`
	// TaskType is the task's classification.
	TaskType string `json:"task_type"`
	// Description is the task's description.
	Description string `json:"description"`
	// Agent is the pool that executed the task.
	Agent models.AgentType `json:"agent"`
	// Status is the terminal status the task reached.
	Status models.TaskStatus `json:"status"`
	// DurationSeconds is the execution time in seconds.
	DurationSeconds float64 `json:"duration_seconds"`
	// Success is true when the task completed.
	Success bool `json:"success"`
}

// SQLiteStore persists interaction records in an SQLite database.
type SQLiteStore struct {
	conn *sql.DB
	path string
	mu   sync.Mutex
}

// DefaultDBPath returns the project-local interaction log location.
func DefaultDBPath(projectRoot string) string {
	return filepath.Join(projectRoot, ".forge", "interactions.db")
}

// Open opens (or creates) the interaction log at the given path.
// Parent directories are created as needed; WAL mode is enabled for
// concurrent reads.
func Open(path string) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	s := &SQLiteStore{conn: conn, path: path}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, err
	}

	return s, nil
}

// Path returns the path to the database file.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}

// migrate creates the schema if it does not exist.
func (s *SQLiteStore) migrate() error {
	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS interactions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp TEXT NOT NULL,
			task_id TEXT NOT NULL,
			task_type TEXT NOT NULL,
			description TEXT NOT NULL,
			agent TEXT NOT NULL,
			status TEXT NOT NULL,
			duration_seconds REAL NOT NULL DEFAULT 0,
			success INTEGER NOT NULL DEFAULT 0
		);

		CREATE INDEX IF NOT EXISTS idx_interactions_task_id ON interactions(task_id);
		CREATE INDEX IF NOT EXISTS idx_interactions_agent ON interactions(agent);
	`)
	if err != nil {
		return fmt.Errorf("create interactions table: %w", err)
	}
	return nil
}

// Append writes one interaction record.
func (s *SQLiteStore) Append(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}

	_, err := s.conn.Exec(`
		INSERT INTO interactions
			(timestamp, task_id, task_type, description, agent, status, duration_seconds, success)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, formatTime(r.Timestamp), r.TaskID, r.TaskType, r.Description,
		string(r.Agent), string(r.Status), r.DurationSeconds, boolToInt(r.Success))
	if err != nil {
		return fmt.Errorf("append interaction: %w", err)
	}
	return nil
}

// List returns the most recent records, newest first.
func (s *SQLiteStore) List(limit int) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		SELECT timestamp, task_id, task_type, description, agent, status, duration_seconds, success
		FROM interactions ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list interactions: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var ts, agent, status string
		var success int
		if err := rows.Scan(&ts, &r.TaskID, &r.TaskType, &r.Description,
			&agent, &status, &r.DurationSeconds, &success); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		r.Timestamp, _ = parseTime(ts)
		r.Agent = models.AgentType(agent)
		r.Status = models.TaskStatus(status)
		r.Success = success != 0
		records = append(records, r)
	}
	return records, rows.Err()
}

// Count returns the number of stored records.
func (s *SQLiteStore) Count() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	row := s.conn.QueryRow("SELECT COUNT(*) FROM interactions")
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count interactions: %w", err)
	}
	return n, nil
}

// formatTime formats a time.Time for SQLite storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime parses a time string from SQLite.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
