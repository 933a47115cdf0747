// Package textutil provides text normalization, name similarity, and
// filesystem sanitization helpers shared across the identification and
// organization pipeline.
package textutil
