package store

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// HistoryLimit caps the number of free-create history entries kept.
const HistoryLimit = 20

// HistoryEntry is one generated free-create image.
type HistoryEntry struct {
	ID          int64     `json:"id"`
	ImagePath   string    `json:"imagePath"`
	Prompt      string    `json:"prompt"`
	AspectRatio string    `json:"aspectRatio,omitempty"`
	ProjectPath string    `json:"projectPath,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// AddHistory records entry and trims the history to HistoryLimit entries,
// dropping the oldest.
func (s *Store) AddHistory(ctx context.Context, entry HistoryEntry) (HistoryEntry, error) {
	ctx = ensureContext(ctx)
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `INSERT INTO free_create_history
			(image_path, prompt, aspect_ratio, project_path, created_at) VALUES (?, ?, ?, ?, ?)`,
			entry.ImagePath, entry.Prompt, nullableString(strings.TrimSpace(entry.AspectRatio)),
			nullableString(entry.ProjectPath), formatTime(entry.CreatedAt),
		)
		if err != nil {
			return err
		}
		if entry.ID, err = res.LastInsertId(); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM free_create_history WHERE id NOT IN
			(SELECT id FROM free_create_history ORDER BY id DESC LIMIT ?)`, HistoryLimit)
		return err
	})
	if err != nil {
		return HistoryEntry{}, persistenceError("add history", err)
	}
	return entry, nil
}

// ListHistory returns history entries newest first.
func (s *Store) ListHistory(ctx context.Context) ([]HistoryEntry, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT id, image_path, prompt, aspect_ratio, project_path, created_at
		FROM free_create_history ORDER BY id DESC LIMIT ?`, HistoryLimit)
	if err != nil {
		return nil, persistenceError("list history", err)
	}
	defer rows.Close()

	entries := make([]HistoryEntry, 0, HistoryLimit)
	for rows.Next() {
		var (
			entry   HistoryEntry
			aspect  sql.NullString
			project sql.NullString
			created string
		)
		if err := rows.Scan(&entry.ID, &entry.ImagePath, &entry.Prompt, &aspect, &project, &created); err != nil {
			return nil, persistenceError("scan history", err)
		}
		entry.AspectRatio = aspect.String
		entry.ProjectPath = project.String
		entry.CreatedAt = parseTime(created)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceError("iterate history", err)
	}
	return entries, nil
}
