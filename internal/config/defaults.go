package config

const (
	defaultLogDir                 = "~/.local/share/shelfmark/logs"
	defaultReviewDir              = "~/review"
	defaultNamingFormat           = "author/title"
	defaultConfidenceThreshold    = 75
	defaultOracleRetryBudget      = 3
	defaultHighAgreement          = 0.90
	defaultBatchSize              = 5
	defaultPollIntervalSeconds    = 10
	defaultErrorRetrySeconds      = 30
	defaultScanSchedule           = "@every 6h"
	defaultOracleModel            = "claude-sonnet-4-5"
	defaultOracleTimeoutSeconds   = 60
	defaultTranscribeCommand      = "whisperx"
	defaultTranscribeModel        = "small"
	defaultTranscribeSegmentSecs  = 90
	defaultLogLevel               = "info"
	defaultLogFormat              = "auto"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LibraryRoots: []string{"~/audiobooks"},
			LogDir:       defaultLogDir,
			ReviewDir:    defaultReviewDir,
		},
		Naming: Naming{
			Format:         defaultNamingFormat,
			CustomTemplate: "{author}/{title}",
		},
		Verification: Verification{
			ConfidenceThreshold:    defaultConfidenceThreshold,
			EnabledLayers:          []string{"lookup", "oracle"},
			ProtectAuthorChanges:   true,
			OracleRetryBudget:      defaultOracleRetryBudget,
			HighAgreementThreshold: defaultHighAgreement,
		},
		Workflow: Workflow{
			BatchSize:                 defaultBatchSize,
			PollIntervalSeconds:       defaultPollIntervalSeconds,
			ErrorRetryIntervalSeconds: defaultErrorRetrySeconds,
			ScanSchedule:              defaultScanSchedule,
		},
		Oracle: Oracle{
			Model:          defaultOracleModel,
			TimeoutSeconds: defaultOracleTimeoutSeconds,
		},
		Transcription: Transcription{
			Command:        defaultTranscribeCommand,
			Model:          defaultTranscribeModel,
			SegmentSeconds: defaultTranscribeSegmentSecs,
		},
		RateLimit: RateLimit{
			MinDelaySeconds: map[string]float64{
				"bookdb":      3.6,
				"audnexus":    2.0,
				"openlibrary": 1.5,
				"googlebooks": 1.0,
				"hardcover":   1.5,
				"oracle":      5.0,
			},
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
