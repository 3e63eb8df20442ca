// Package store provides the daemon's SQLite-backed state.
//
// Three things live here: the outstanding generation tasks of the current
// session (the task registry's only copy), the latest batch TTS run with its
// per-item status, and the free-create image history. The schema is embedded
// and versioned; a version mismatch is reported instead of migrated.
//
// Writes retry when SQLite reports the database busy, and every error is
// tagged as a persistence failure for classification by callers.
package store
