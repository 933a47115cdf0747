// Package organizer executes accepted identity decisions on disk: it plans
// the target path, routes collisions through the conflict resolver, performs
// the move, and records the outcome in history. It is the only component
// that mutates the library filesystem.
package organizer
