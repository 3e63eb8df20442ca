// Package mirror optionally copies generated artifacts (narration clips and
// images) to an S3-compatible bucket after they are written locally. Uploads
// are traced with OpenTelemetry spans; a disabled mirror is a no-op.
package mirror
