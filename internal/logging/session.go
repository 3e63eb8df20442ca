package logging

import "log/slog"

// FieldSessionID keys the daemon session a record belongs to.
const FieldSessionID = "session_id"

// WithSession stamps every record from logger with sessionID. The attribute
// is bound ahead of any group so it stays top-level in JSON output.
func WithSession(logger *slog.Logger, sessionID string) *slog.Logger {
	if logger == nil {
		return NewNop()
	}
	if sessionID == "" {
		return logger
	}
	return logger.With(String(FieldSessionID, sessionID))
}
