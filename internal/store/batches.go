package store

import (
	"context"
	"database/sql"
	"errors"

	"studio/internal/batch"
)

// SaveBatchItems records snap as the latest batch run. Only one run is kept:
// saving a different run id replaces the previous run and its items.
func (s *Store) SaveBatchItems(ctx context.Context, snap batch.Snapshot) error {
	ctx = ensureContext(ctx)
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM batch_runs WHERE run_id <> ?", snap.RunID); err != nil {
			return err
		}
		var finished any
		if !snap.FinishedAt.IsZero() {
			finished = formatTime(snap.FinishedAt)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO batch_runs
			(run_id, project_path, running, started_at, finished_at, completed, failed, total)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(run_id) DO UPDATE SET
				running = excluded.running,
				finished_at = excluded.finished_at,
				completed = excluded.completed,
				failed = excluded.failed,
				total = excluded.total`,
			snap.RunID, snap.ProjectPath, boolToInt(snap.Running), formatTime(snap.StartedAt), finished,
			snap.Report.Completed, snap.Report.Failed, snap.Report.Total,
		); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM batch_items WHERE run_id = ?", snap.RunID); err != nil {
			return err
		}
		for _, item := range snap.Items {
			if _, err := tx.ExecContext(ctx, `INSERT INTO batch_items
				(run_id, seq, text, aux_text, status, message, filename, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				snap.RunID, item.Seq, item.Text, nullableString(item.AuxText), string(item.Status),
				nullableString(item.Message), nullableString(item.Filename), formatTime(item.UpdatedAt),
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return persistenceError("save batch items", err)
	}
	return nil
}

// LatestBatch returns the most recently saved batch run. ok is false when no
// run has been recorded.
func (s *Store) LatestBatch(ctx context.Context) (snap batch.Snapshot, ok bool, err error) {
	ctx = ensureContext(ctx)
	var (
		running  int
		started  string
		finished sql.NullString
	)
	row := s.db.QueryRowContext(ctx, `SELECT run_id, project_path, running, started_at, finished_at, completed, failed, total
		FROM batch_runs ORDER BY started_at DESC LIMIT 1`)
	if err := row.Scan(&snap.RunID, &snap.ProjectPath, &running, &started, &finished,
		&snap.Report.Completed, &snap.Report.Failed, &snap.Report.Total); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return batch.Snapshot{}, false, nil
		}
		return batch.Snapshot{}, false, persistenceError("load batch run", err)
	}
	snap.Running = running != 0
	snap.StartedAt = parseTime(started)
	if finished.Valid {
		snap.FinishedAt = parseTime(finished.String)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT seq, text, aux_text, status, message, filename, updated_at
		FROM batch_items WHERE run_id = ? ORDER BY seq`, snap.RunID)
	if err != nil {
		return batch.Snapshot{}, false, persistenceError("load batch items", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			item     batch.Item
			aux      sql.NullString
			status   string
			message  sql.NullString
			filename sql.NullString
			updated  string
		)
		if err := rows.Scan(&item.Seq, &item.Text, &aux, &status, &message, &filename, &updated); err != nil {
			return batch.Snapshot{}, false, persistenceError("scan batch item", err)
		}
		parsed, known := batch.ParseStatus(status)
		if !known {
			parsed = batch.StatusFailed
		}
		item.AuxText = aux.String
		item.Status = parsed
		item.Message = message.String
		item.Filename = filename.String
		item.UpdatedAt = parseTime(updated)
		snap.Items = append(snap.Items, item)
	}
	if err := rows.Err(); err != nil {
		return batch.Snapshot{}, false, persistenceError("iterate batch items", err)
	}
	return snap, true, nil
}

// MarkInterruptedBatch flags a batch run left running by a previous process:
// its unfinished items become failed with reason "interrupted" and the run is
// marked stopped. It reports whether a run was changed.
func (s *Store) MarkInterruptedBatch(ctx context.Context) (bool, error) {
	ctx = ensureContext(ctx)
	changed := false
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE batch_items SET status = ?, message = ?
			WHERE status IN (?, ?) AND run_id IN (SELECT run_id FROM batch_runs WHERE running = 1)`,
			string(batch.StatusFailed), "interrupted", string(batch.StatusPending), string(batch.StatusProcessing))
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			changed = true
		}
		res, err = tx.ExecContext(ctx, `UPDATE batch_runs SET running = 0,
			failed = (SELECT COUNT(1) FROM batch_items WHERE batch_items.run_id = batch_runs.run_id AND status = ?)
			WHERE running = 1`, string(batch.StatusFailed))
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			changed = true
		}
		return nil
	})
	if err != nil {
		return false, persistenceError("mark interrupted batch", err)
	}
	return changed, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func nullableString(v string) any {
	if v == "" {
		return nil
	}
	return v
}
