// Package services defines shared utilities consumed by the generation core
// and the upstream API clients.
//
// Key responsibilities:
//   - Context helpers that stamp task IDs, session IDs, project roots, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper. Markers follow the
//     workstation's error taxonomy (validation, transport, semantic,
//     persistence) so the HTTP layer and the CLI can classify any failure
//     with errors.Is.
//
// Upstream clients live in subpackages (gemini, tts, summarizer).
package services
