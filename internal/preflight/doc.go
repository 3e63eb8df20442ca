// Package preflight provides readiness checks for the directories and
// upstream services the studio depends on.
//
// The daemon runs RunAll once at startup and logs every failed check; the
// status endpoint and "studio status" render the same results. Checks never
// block startup: a missing credential only disables the operations that need
// it.
package preflight
