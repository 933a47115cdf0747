// Package identity defines the identity record for a library item and the
// judgement helpers that decide whether a proposed identity change is
// plausible: placeholder detection, drastic-change detection, and
// recommendation validity checks.
package identity
