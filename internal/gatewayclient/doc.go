// Package gatewayclient is the CLI's HTTP client for the studio daemon API.
//
// Error responses are rebuilt into services.Failure values carrying the
// daemon's message and error kind, so callers classify them with
// services.Classify exactly as they would in-process errors. A missing draft
// comes back as draft.ErrNoDraft, which lets the client stand in as a
// draft.Store for draft.Manager.
package gatewayclient
