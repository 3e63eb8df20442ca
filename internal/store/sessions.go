package store

import (
	"context"
	"database/sql"
	"os"
	"time"

	"studio/internal/registry"
)

// BeginSession records a new daemon session.
func (s *Store) BeginSession(ctx context.Context, sessionID string, startedAt time.Time) error {
	_, err := s.execWithRetry(ctx,
		"INSERT OR REPLACE INTO sessions (id, pid, started_at) VALUES (?, ?, ?)",
		sessionID, os.Getpid(), formatTime(startedAt),
	)
	if err != nil {
		return persistenceError("begin session", err)
	}
	return nil
}

// PruneStaleTasks removes tasks and session rows left by sessions other than
// keep. A fresh process never inherits tasks from an earlier one.
func (s *Store) PruneStaleTasks(ctx context.Context, keep string) (int64, error) {
	ctx = ensureContext(ctx)
	var removed int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM tasks WHERE session_id <> ?", keep)
		if err != nil {
			return err
		}
		removed, _ = res.RowsAffected()
		_, err = tx.ExecContext(ctx, "DELETE FROM sessions WHERE id <> ?", keep)
		return err
	})
	if err != nil {
		return 0, persistenceError("prune stale tasks", err)
	}
	return removed, nil
}

// LoadTasks returns the persisted task set for sessionID, oldest first.
func (s *Store) LoadTasks(ctx context.Context, sessionID string) ([]registry.Task, error) {
	ctx = ensureContext(ctx)
	var tasks []registry.Task
	err := retryOnBusy(ctx, func() error {
		tasks = tasks[:0]
		rows, err := s.db.QueryContext(ctx,
			"SELECT id, category, started_at FROM tasks WHERE session_id = ? ORDER BY started_at, id",
			sessionID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var (
				task     registry.Task
				category string
				started  string
			)
			if err := rows.Scan(&task.ID, &category, &started); err != nil {
				return err
			}
			task.Category = registry.Category(category)
			task.StartedAt = parseTime(started)
			tasks = append(tasks, task)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, persistenceError("load tasks", err)
	}
	return tasks, nil
}

// SaveTasks replaces the persisted task set for sessionID.
func (s *Store) SaveTasks(ctx context.Context, sessionID string, tasks []registry.Task) error {
	ctx = ensureContext(ctx)
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM tasks WHERE session_id = ?", sessionID); err != nil {
			return err
		}
		for _, task := range tasks {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO tasks (session_id, id, category, started_at) VALUES (?, ?, ?, ?)",
				sessionID, task.ID, string(task.Category), formatTime(task.StartedAt),
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return persistenceError("save tasks", err)
	}
	return nil
}
