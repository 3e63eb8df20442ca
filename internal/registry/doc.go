// Package registry tracks outstanding generation tasks for one daemon
// session so clients can re-render busy generate controls after a reload.
//
// A Registry never caches tasks: the SessionStore holds the only copy, and
// every register or unregister rewrites it wholesale. Controls are bound per
// category once, when the daemon is wired, through a ControlMap.
package registry
