// Package history persists the conversation log to a local SQLite database
// so a session survives restarts.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ops-agent/cli/internal/agent"
	"github.com/ops-agent/cli/internal/conversation"
	"github.com/ops-agent/cli/internal/imaging"

	_ "modernc.org/sqlite" // pure Go SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	id          TEXT NOT NULL UNIQUE,
	role        TEXT NOT NULL,
	content     TEXT NOT NULL,
	image       TEXT NOT NULL DEFAULT '',
	question_id TEXT NOT NULL DEFAULT '',
	feedback    TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS sources (
	message_id TEXT NOT NULL,
	position   INTEGER NOT NULL,
	filename   TEXT NOT NULL,
	source_id  TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (message_id, position)
);
`

// Store mirrors the in-memory conversation log. It implements
// conversation.Persister.
type Store struct {
	db *sql.DB
}

// Open opens (and if needed creates) the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append records a newly inserted message.
func (s *Store) Append(msg conversation.Message) error {
	_, err := s.db.Exec(
		`INSERT INTO messages (id, role, content, image, question_id, feedback, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, string(msg.Role), msg.Content, string(msg.Image),
		msg.QuestionID, string(msg.Feedback), msg.Timestamp.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return s.replaceSources(msg)
}

// Update rewrites a message in place after resolution or feedback.
func (s *Store) Update(msg conversation.Message) error {
	_, err := s.db.Exec(
		`UPDATE messages SET content = ?, image = ?, question_id = ?, feedback = ? WHERE id = ?`,
		msg.Content, string(msg.Image), msg.QuestionID, string(msg.Feedback), msg.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update message: %w", err)
	}
	return s.replaceSources(msg)
}

func (s *Store) replaceSources(msg conversation.Message) error {
	if _, err := s.db.Exec(`DELETE FROM sources WHERE message_id = ?`, msg.ID); err != nil {
		return fmt.Errorf("failed to clear sources: %w", err)
	}
	for i, src := range msg.Sources {
		_, err := s.db.Exec(
			`INSERT INTO sources (message_id, position, filename, source_id) VALUES (?, ?, ?, ?)`,
			msg.ID, i, src.Filename, src.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert source: %w", err)
		}
	}
	return nil
}

// Load returns the persisted log in insertion order.
func (s *Store) Load() ([]conversation.Message, error) {
	rows, err := s.db.Query(
		`SELECT id, role, content, image, question_id, feedback, created_at
		 FROM messages ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var msgs []conversation.Message
	for rows.Next() {
		var m conversation.Message
		var role, image, feedback string
		var created time.Time
		if err := rows.Scan(&m.ID, &role, &m.Content, &image, &m.QuestionID, &feedback, &created); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.Role = conversation.Role(role)
		m.Image = imaging.EncodedImage(image)
		m.Feedback = conversation.Feedback(feedback)
		m.Timestamp = created
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}

	for i := range msgs {
		sources, err := s.loadSources(msgs[i].ID)
		if err != nil {
			return nil, err
		}
		msgs[i].Sources = sources
	}
	return msgs, nil
}

func (s *Store) loadSources(messageID string) ([]agent.Source, error) {
	rows, err := s.db.Query(
		`SELECT filename, source_id FROM sources WHERE message_id = ? ORDER BY position`,
		messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sources: %w", err)
	}
	defer rows.Close()

	var sources []agent.Source
	for rows.Next() {
		var src agent.Source
		if err := rows.Scan(&src.Filename, &src.ID); err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

// Clear wipes the persisted log, mirroring a full conversation reset.
func (s *Store) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM sources`); err != nil {
		return fmt.Errorf("failed to clear sources: %w", err)
	}
	if _, err := s.db.Exec(`DELETE FROM messages`); err != nil {
		return fmt.Errorf("failed to clear messages: %w", err)
	}
	return nil
}
