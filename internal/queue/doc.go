// Package queue persists library items and their fix history in SQLite.
// It provides the claim semantics the worker relies on (no two pipeline
// passes may hold the same item) and the append-mostly history log with
// explicit undo.
package queue
