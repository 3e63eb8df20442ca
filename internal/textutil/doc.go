// Package textutil normalizes user-supplied names before they become file
// or directory names inside a project.
package textutil
