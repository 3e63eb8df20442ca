// Package daemon coordinates the long-running studio process.
//
// It wires configuration, the state store, the task registry, the
// generation invoker, the batch pipeline, and the gateway into a single
// lifecycle with flock-based locking to prevent multiple instances. Start
// opens a new session, prunes tasks left by earlier sessions, restores
// control state, and serves every operation over the local HTTP API.
//
// Keep orchestration logic here: generation, batching, and file layout live
// in their own packages while the daemon focuses on startup, shutdown, and
// request routing.
package daemon
