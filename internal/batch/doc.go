// Package batch runs many independent text-to-speech generations against one
// shared credential set, strictly one at a time.
//
// Input is split into numbered items; each item moves pending → processing →
// completed or failed, and an item's failure never stops the run. Observers
// see a full copy of the item list after every transition. A Pacer inserts
// a delay after each item (500ms by default). Only one run may be active per
// Pipeline; a second Start while running returns ErrAlreadyRunning.
package batch
