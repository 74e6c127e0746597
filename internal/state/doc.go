// Package state holds the process-wide configuration snapshot and
// serializes changes to it.
package state
