// Package deps checks the external binaries the audio layer shells out to.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"shelfmark/internal/config"
)

// Requirement defines an external binary shelfmark relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a requirement.
type Status struct {
	Requirement
	Available bool
	Detail    string
}

// For lists the binaries the given configuration can make use of. ffprobe
// and ffmpeg are hard requirements only when the audio layer is enabled;
// otherwise the pipeline runs without them.
func For(cfg *config.Config) []Requirement {
	audioRequired := cfg.LayerEnabled("audio")
	return []Requirement{
		{
			Name:        "ffprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "audio stream inspection and duration checks",
			Optional:    !audioRequired,
		},
		{
			Name:        "ffmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "fingerprinting and opening-credits decoding",
			Optional:    !audioRequired,
		},
		{
			Name:        "transcriber",
			Command:     cfg.Transcription.Command,
			Description: "speech-to-text for the audio verification layer",
			Optional:    !audioRequired,
		},
	}
}

// Check evaluates the requirements against PATH.
func Check(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		status := Status{Requirement: req}
		cmd := strings.TrimSpace(req.Command)
		switch {
		case cmd == "":
			status.Detail = "command not configured"
		default:
			if _, err := exec.LookPath(cmd); err != nil {
				status.Detail = fmt.Sprintf("binary %q not found in PATH", cmd)
			} else {
				status.Available = true
			}
		}
		results = append(results, status)
	}
	return results
}

// Missing filters statuses down to unavailable, non-optional requirements.
func Missing(statuses []Status) []Status {
	var missing []Status
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			missing = append(missing, status)
		}
	}
	return missing
}
