package conflict

import (
	"math/bits"

	"shelfmark/internal/audioprobe"
)

// sameRecordingThreshold is the fingerprint bit-similarity above which two
// audio streams are considered the same underlying recording.
const sameRecordingThreshold = 0.7

// FingerprintSimilarity returns the fraction of agreeing bits between two
// fingerprints (1 - normalized Hamming distance). Mismatched or missing
// fingerprints score 0.
func FingerprintSimilarity(a, b audioprobe.Fingerprint) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	differing := 0
	for i := range a {
		differing += bits.OnesCount64(a[i] ^ b[i])
	}
	total := len(a) * 64
	return 1 - float64(differing)/float64(total)
}
