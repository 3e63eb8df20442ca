// Package workspace owns the on-disk layout of a studio project: where TTS
// clips, generated images, free-create output, copywriting and the draft
// snapshot live, and how sequential file numbers are chosen.
package workspace
