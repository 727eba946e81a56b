// Package store persists the idea tree, the note inbox, and reminders
// in SQLite. The pure-Go driver keeps the binary cgo-free.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/rubenlestaa/ideabank/internal/remind"
	"github.com/rubenlestaa/ideabank/internal/tree"
)

// NoteStatus tracks a note through the inbox.
type NoteStatus string

const (
	// NotePending means the note arrived but has not been classified.
	// Notes stay pending when the classifier is unavailable.
	NotePending NoteStatus = "pending"
	// NoteProcessed means the note produced tree mutations or a reminder.
	NoteProcessed NoteStatus = "processed"
	// NoteDiscarded means the note was rejected (nonsense or undecodable).
	NoteDiscarded NoteStatus = "discarded"
)

// InboxEntry is a raw note as recorded on arrival.
type InboxEntry struct {
	ID        int64      `json:"id"`
	Note      string     `json:"note"`
	Locale    string     `json:"locale,omitempty"`
	Status    NoteStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
}

// Store is the SQLite persistence layer.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// New opens (or creates) the database at path and runs migrations.
// Use ":memory:" for an ephemeral database.
func New(path string, logger *zap.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite serializes writers anyway, and a single connection keeps
	// ":memory:" databases from splitting across the pool.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS groups (
			id   INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE
		);

		CREATE TABLE IF NOT EXISTS subgroups (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			group_id INTEGER NOT NULL,
			name     TEXT    NOT NULL,
			UNIQUE (group_id, name),
			FOREIGN KEY (group_id) REFERENCES groups(id) ON DELETE CASCADE
		);

		CREATE TABLE IF NOT EXISTS ideas (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			group_id    INTEGER NOT NULL,
			subgroup_id INTEGER,
			content     TEXT    NOT NULL,
			FOREIGN KEY (group_id)    REFERENCES groups(id)    ON DELETE CASCADE,
			FOREIGN KEY (subgroup_id) REFERENCES subgroups(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_subgroups_group ON subgroups(group_id);
		CREATE INDEX IF NOT EXISTS idx_ideas_group     ON ideas(group_id);
		CREATE INDEX IF NOT EXISTS idx_ideas_subgroup  ON ideas(subgroup_id);

		CREATE TABLE IF NOT EXISTS inbox (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			note       TEXT NOT NULL,
			locale     TEXT NOT NULL DEFAULT '',
			status     TEXT NOT NULL DEFAULT 'pending',
			created_at TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE INDEX IF NOT EXISTS idx_inbox_status ON inbox(status);

		CREATE TABLE IF NOT EXISTS reminders (
			id         TEXT PRIMARY KEY,
			message    TEXT    NOT NULL,
			fire_at    TEXT    NOT NULL,
			sent       INTEGER NOT NULL DEFAULT 0,
			created_at TEXT    NOT NULL DEFAULT (datetime('now'))
		);

		CREATE INDEX IF NOT EXISTS idx_reminders_due ON reminders(sent, fire_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// LoadTree returns the full idea tree, groups and ideas in insertion
// order.
func (s *Store) LoadTree(ctx context.Context) (tree.Tree, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM groups ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load groups: %w", err)
	}
	defer rows.Close()

	var t tree.Tree
	groupIdx := map[int64]int{}
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		groupIdx[id] = len(t)
		t = append(t, tree.Group{Name: name})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sgRows, err := s.db.QueryContext(ctx, `SELECT id, group_id, name FROM subgroups ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load subgroups: %w", err)
	}
	defer sgRows.Close()

	// subgroup row id -> position within its group
	subgroupIdx := map[int64][2]int{}
	for sgRows.Next() {
		var id, groupID int64
		var name string
		if err := sgRows.Scan(&id, &groupID, &name); err != nil {
			return nil, err
		}
		gi, ok := groupIdx[groupID]
		if !ok {
			continue
		}
		subgroupIdx[id] = [2]int{gi, len(t[gi].Subgroups)}
		t[gi].Subgroups = append(t[gi].Subgroups, tree.Subgroup{Name: name})
	}
	if err := sgRows.Err(); err != nil {
		return nil, err
	}

	ideaRows, err := s.db.QueryContext(ctx,
		`SELECT group_id, subgroup_id, content FROM ideas ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load ideas: %w", err)
	}
	defer ideaRows.Close()

	for ideaRows.Next() {
		var groupID int64
		var subgroupID sql.NullInt64
		var content string
		if err := ideaRows.Scan(&groupID, &subgroupID, &content); err != nil {
			return nil, err
		}
		gi, ok := groupIdx[groupID]
		if !ok {
			continue
		}
		if subgroupID.Valid {
			pos, ok := subgroupIdx[subgroupID.Int64]
			if !ok {
				continue
			}
			sg := &t[pos[0]].Subgroups[pos[1]]
			sg.Ideas = append(sg.Ideas, content)
		} else {
			t[gi].Ideas = append(t[gi].Ideas, content)
		}
	}
	return t, ideaRows.Err()
}

// ApplyBatch persists the reconciled tree in one transaction. The
// stored tree is replaced wholesale so the database always mirrors the
// reconciler output exactly, including ordering. A batch with an empty
// change set is a no-op.
func (s *Store) ApplyBatch(ctx context.Context, t tree.Tree, changes tree.ChangeSet) error {
	if changes.Empty() {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM groups`); err != nil {
		return fmt.Errorf("clear tree: %w", err)
	}

	for _, g := range t {
		res, err := tx.ExecContext(ctx, `INSERT INTO groups (name) VALUES (?)`, g.Name)
		if err != nil {
			return fmt.Errorf("insert group %q: %w", g.Name, err)
		}
		groupID, err := res.LastInsertId()
		if err != nil {
			return err
		}

		for _, idea := range g.Ideas {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO ideas (group_id, content) VALUES (?, ?)`,
				groupID, idea); err != nil {
				return fmt.Errorf("insert idea %q: %w", idea, err)
			}
		}

		for _, sg := range g.Subgroups {
			sgRes, err := tx.ExecContext(ctx,
				`INSERT INTO subgroups (group_id, name) VALUES (?, ?)`,
				groupID, sg.Name)
			if err != nil {
				return fmt.Errorf("insert subgroup %q: %w", sg.Name, err)
			}
			subgroupID, err := sgRes.LastInsertId()
			if err != nil {
				return err
			}
			for _, idea := range sg.Ideas {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO ideas (group_id, subgroup_id, content) VALUES (?, ?, ?)`,
					groupID, subgroupID, idea); err != nil {
					return fmt.Errorf("insert idea %q: %w", idea, err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Debug("tree batch applied",
		zap.Int("groups", len(t)),
		zap.Int("changes", len(changes.Changes)))
	return nil
}

// SaveNote records an incoming note in the inbox as pending.
func (s *Store) SaveNote(ctx context.Context, note, locale string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO inbox (note, locale, status) VALUES (?, ?, ?)`,
		note, locale, string(NotePending))
	if err != nil {
		return 0, fmt.Errorf("save note: %w", err)
	}
	return res.LastInsertId()
}

// SetNoteStatus updates an inbox entry. Notes left pending are the
// unclassified backlog from classifier outages.
func (s *Store) SetNoteStatus(ctx context.Context, id int64, status NoteStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE inbox SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("set note status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("inbox entry %d not found", id)
	}
	return nil
}

// PendingNotes returns unclassified notes, oldest first.
func (s *Store) PendingNotes(ctx context.Context, limit int) ([]InboxEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, note, locale, status, created_at
		 FROM inbox WHERE status = ? ORDER BY id LIMIT ?`,
		string(NotePending), limit)
	if err != nil {
		return nil, fmt.Errorf("load pending notes: %w", err)
	}
	defer rows.Close()

	var entries []InboxEntry
	for rows.Next() {
		var e InboxEntry
		var createdAt string
		if err := rows.Scan(&e.ID, &e.Note, &e.Locale, &e.Status, &createdAt); err != nil {
			return nil, err
		}
		e.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// AddReminder persists a scheduled reminder.
func (s *Store) AddReminder(ctx context.Context, r remind.Reminder) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reminders (id, message, fire_at, sent) VALUES (?, ?, ?, 0)`,
		r.ID, r.Message, r.FireAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("add reminder: %w", err)
	}
	return nil
}

// DueReminders returns unsent reminders with fire_at <= now.
func (s *Store) DueReminders(ctx context.Context, now time.Time) ([]remind.Reminder, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, message, fire_at FROM reminders
		 WHERE sent = 0 AND fire_at <= ? ORDER BY fire_at`,
		now.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("load due reminders: %w", err)
	}
	defer rows.Close()

	var due []remind.Reminder
	for rows.Next() {
		var r remind.Reminder
		var fireAt string
		if err := rows.Scan(&r.ID, &r.Message, &fireAt); err != nil {
			return nil, err
		}
		r.FireAt, err = time.Parse(time.RFC3339, fireAt)
		if err != nil {
			return nil, fmt.Errorf("parse fire_at for %s: %w", r.ID, err)
		}
		due = append(due, r)
	}
	return due, rows.Err()
}

// MarkSent flips a reminder to sent. The sent=0 guard in the UPDATE
// makes the claim atomic: a second caller gets false.
func (s *Store) MarkSent(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE reminders SET sent = 1 WHERE id = ? AND sent = 0`, id)
	if err != nil {
		return false, fmt.Errorf("mark reminder sent: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

var _ remind.ReminderStore = (*Store)(nil)
