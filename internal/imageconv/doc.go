// Package imageconv re-encodes generated images into the configured output
// format (PNG or lossy WebP).
package imageconv
