// Package draft captures and restores the whole workspace as a single
// snapshot per project.
//
// Capture reads every tracked field from a Form, Apply writes a snapshot back
// and hides any result panel whose image payload is missing. Manager adds the
// save/restore/clear flows on top of a Store, which the gateway implements on
// disk and the gateway client implements over HTTP.
package draft
