// Package logs reads the daemon's current log file with tail semantics.
//
// A negative offset returns the last N lines; a non-negative offset resumes
// from a byte position returned by an earlier call. Follow mode polls until new
// lines arrive, the wait elapses, or the context is cancelled. The daemon
// serves these reads over /api/logs and `studio logs` drives them.
package logs
