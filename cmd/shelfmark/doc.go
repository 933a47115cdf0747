// Command shelfmark is the CLI for the shelfmark audiobook library
// reconciler: scanning library roots, processing the verification queue,
// inspecting results, and undoing applied fixes.
package main
