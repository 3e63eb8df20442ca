// Package invoker performs one image generation end to end: it validates the
// request, binds a registry task for the duration of the remote call, asks
// the gateway for the artifact, and fetches a preview. The task is released
// on every outcome.
package invoker
