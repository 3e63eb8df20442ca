// Package main hosts the studio CLI entrypoint and command graph.
//
// The Cobra-based command tree is a thin client over the studiod HTTP API.
// It starts and stops the daemon, renders in-flight generations and trigger
// control state after the fact, submits single and batch generations, and
// captures or restores workspace drafts through a local field file.
//
// Keep this package lean: behavior belongs in the internal packages, and
// commands here only translate flags into API calls and render results.
package main
