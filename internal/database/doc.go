// Package database provides the SQLite report archive of stegscan.
//
// The archive is opt-in: the CLI stores finished reports when asked to and
// the history command reads them back for display. Archived reports are never
// fed into a new analysis.
//
// The modernc.org/sqlite driver is pure Go, so the binary stays CGO-free.
package database
