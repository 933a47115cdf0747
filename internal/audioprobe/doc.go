// Package audioprobe inspects audio files with ffprobe/ffmpeg: playability
// validation for the conflict resolver, duration accounting, and compact
// content fingerprints for duplicate detection.
package audioprobe
