// Package workflow runs the background processing loop: it claims queued
// items in batches, drives each one through the verification pipeline, and
// schedules periodic library scans. A file lock guarantees a single running
// instance per queue database.
package workflow
