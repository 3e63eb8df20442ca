// Package gateway implements the local studio operations: speech clips,
// character and background images, free-create images, drafts,
// copywriting, and folder helpers. Artifacts land under the project
// directory; the daemon exposes each operation over HTTP.
package gateway
