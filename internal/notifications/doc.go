// Package notifications delivers studio events to people.
//
// Service publishes daemon milestones (batch completion, generation
// failures) to ntfy using the topic configured in config.toml and degrades to
// a no-op when no topic is set. Banner is the short-lived status line shown
// to whoever drives the workspace; the CLI prints banners and the daemon
// logs them.
package notifications
