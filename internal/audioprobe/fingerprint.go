package audioprobe

import (
	"context"
	"encoding/binary"
	"fmt"
	"os/exec"
	"sort"
	"strings"
)

const (
	fingerprintSeconds    = 60
	fingerprintSampleRate = 8000
	fingerprintBits       = 256
)

// Fingerprint is a compact binary summary of audio content, compared via
// Hamming distance.
type Fingerprint []uint64

// ExtractFingerprint decodes the first minute of the file to mono PCM via
// ffmpeg and condenses it to a fixed-width energy fingerprint.
func ExtractFingerprint(ctx context.Context, ffmpegBinary, path string) (Fingerprint, error) {
	ffmpegBinary = strings.TrimSpace(ffmpegBinary)
	if ffmpegBinary == "" {
		ffmpegBinary = "ffmpeg"
	}
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-t", fmt.Sprintf("%d", fingerprintSeconds),
		"-i", path,
		"-vn",
		"-ac", "1",
		"-ar", fmt.Sprintf("%d", fingerprintSampleRate),
		"-f", "s16le",
		"-",
	}
	cmd := exec.CommandContext(ctx, ffmpegBinary, args...) //nolint:gosec
	pcm, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg decode: %w", err)
	}
	return FingerprintFromPCM(pcm), nil
}

// FingerprintFromPCM condenses signed 16-bit little-endian mono samples into
// a bit vector: the stream splits into equal windows and each bit records
// whether its window's mean energy exceeds the median window energy. The
// result is invariant to overall volume and stable across codecs.
func FingerprintFromPCM(pcm []byte) Fingerprint {
	sampleCount := len(pcm) / 2
	if sampleCount < fingerprintBits {
		return nil
	}
	windowSize := sampleCount / fingerprintBits

	energies := make([]float64, fingerprintBits)
	for w := 0; w < fingerprintBits; w++ {
		var sum float64
		for i := 0; i < windowSize; i++ {
			sample := int16(binary.LittleEndian.Uint16(pcm[2*(w*windowSize+i):]))
			if sample < 0 {
				sum -= float64(sample)
			} else {
				sum += float64(sample)
			}
		}
		energies[w] = sum / float64(windowSize)
	}

	sorted := append([]float64(nil), energies...)
	sort.Float64s(sorted)
	median := sorted[len(sorted)/2]

	fp := make(Fingerprint, fingerprintBits/64)
	for w, energy := range energies {
		if energy > median {
			fp[w/64] |= 1 << (w % 64)
		}
	}
	return fp
}

// Bits returns the fingerprint width in bits.
func (f Fingerprint) Bits() int {
	return len(f) * 64
}
