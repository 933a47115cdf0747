package config

import (
	"errors"
	"fmt"
	"strings"
)

var knownLayers = map[string]struct{}{
	"lookup": {},
	"oracle": {},
	"audio":  {},
}

var knownNamingFormats = map[string]struct{}{
	"author/title":   {},
	"author - title": {},
	"custom":         {},
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	var problems []string

	if len(c.Paths.LibraryRoots) == 0 {
		problems = append(problems, "paths.library_roots must list at least one directory")
	}
	for _, root := range c.Paths.LibraryRoots {
		if strings.TrimSpace(root) == "" {
			problems = append(problems, "paths.library_roots contains an empty entry")
		}
	}

	if _, ok := knownNamingFormats[c.Naming.Format]; !ok {
		problems = append(problems, fmt.Sprintf("naming.format %q is not one of author/title, author - title, custom", c.Naming.Format))
	}
	if c.Naming.Format == "custom" && strings.TrimSpace(c.Naming.CustomTemplate) == "" {
		problems = append(problems, "naming.custom_template is required when naming.format is custom")
	}

	if c.Verification.ConfidenceThreshold < 0 || c.Verification.ConfidenceThreshold > 100 {
		problems = append(problems, "verification.confidence_threshold must be between 0 and 100")
	}
	if c.Verification.HighAgreementThreshold <= 0 || c.Verification.HighAgreementThreshold > 1 {
		problems = append(problems, "verification.high_agreement_threshold must be in (0, 1]")
	}
	for _, layer := range c.Verification.EnabledLayers {
		if _, ok := knownLayers[layer]; !ok {
			problems = append(problems, fmt.Sprintf("verification.enabled_layers contains unknown layer %q", layer))
		}
	}
	if c.Verification.OracleRetryBudget < 1 {
		problems = append(problems, "verification.oracle_retry_budget must be at least 1")
	}

	if c.Workflow.BatchSize < 1 {
		problems = append(problems, "workflow.batch_size must be at least 1")
	}
	if c.Workflow.PollIntervalSeconds < 1 {
		problems = append(problems, "workflow.poll_interval_seconds must be at least 1")
	}

	if c.LayerEnabled("oracle") && strings.TrimSpace(c.Oracle.APIKey) == "" {
		problems = append(problems, "oracle.api_key is required when the oracle layer is enabled")
	}

	if c.LayerEnabled("audio") {
		if c.Transcription.Command == "" {
			problems = append(problems, "transcription.command is required when the audio layer is enabled")
		}
		if c.Transcription.SegmentSeconds < 10 {
			problems = append(problems, "transcription.segment_seconds must be at least 10")
		}
	}

	for source, delay := range c.RateLimit.MinDelaySeconds {
		if delay < 0 {
			problems = append(problems, fmt.Sprintf("ratelimit.min_delay_seconds[%s] must not be negative", source))
		}
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration:\n  - " + strings.Join(problems, "\n  - "))
	}
	return nil
}
