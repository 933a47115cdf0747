// Package services defines the shared error vocabulary of the verification
// layers: structured error markers plus the Wrap helper that translate
// failures into consistent queue statuses (error vs needs_attention).
//
// Use these helpers when wiring new layer logic so operational behaviour
// (error handling, retries) stays uniform across the pipeline.
package services
