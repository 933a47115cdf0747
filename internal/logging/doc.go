// Package logging builds the slog loggers used throughout shelfmark and
// provides attribute helpers so call sites stay terse. Console format is the
// default on a TTY; JSON is used otherwise or when configured explicitly.
package logging
