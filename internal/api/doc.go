// Package api defines the wire-format types the daemon serves beyond the
// gateway operations: task and control views, batch runs, invocation
// results, and daemon status. Converters translate registry, batch, and
// preflight models into these DTOs so the CLI and the web front-end render
// them without importing daemon internals.
//
// # Design Notes
//
// Every response carries "success" so clients can branch before reading
// data. Field names follow the snake_case keys the front-end already reads
// (task_id, run_id, file_path). Timestamps use RFC3339 with milliseconds.
package api
