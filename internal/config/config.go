package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	LibraryRoots []string `toml:"library_roots"`
	WatchDir     string   `toml:"watch_dir"`
	LogDir       string   `toml:"log_dir"`
	ReviewDir    string   `toml:"review_dir"`
}

// Naming controls how decided identities are rendered into library paths.
type Naming struct {
	Format         string `toml:"format"`
	CustomTemplate string `toml:"custom_template"`
	SeriesGrouping bool   `toml:"series_grouping"`
}

// Verification contains pipeline thresholds and layer toggles.
type Verification struct {
	ConfidenceThreshold    int      `toml:"confidence_threshold"`
	EnabledLayers          []string `toml:"enabled_layers"`
	ProtectAuthorChanges   bool     `toml:"protect_author_changes"`
	TrustMode              bool     `toml:"trust_mode"`
	OracleRetryBudget      int      `toml:"oracle_retry_budget"`
	HighAgreementThreshold float64  `toml:"high_agreement_threshold"`
}

// Workflow contains worker loop timing and batch settings.
type Workflow struct {
	BatchSize                 int    `toml:"batch_size"`
	PollIntervalSeconds       int    `toml:"poll_interval_seconds"`
	ErrorRetryIntervalSeconds int    `toml:"error_retry_interval_seconds"`
	ScanSchedule              string `toml:"scan_schedule"`
}

// Oracle contains connection settings for the inference oracle.
type Oracle struct {
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Transcription configures the speech-to-text tooling behind the audio
// layer and the trust-mode tiebreak.
type Transcription struct {
	Command        string `toml:"command"`
	Model          string `toml:"model"`
	SegmentSeconds int    `toml:"segment_seconds"`
}

// RateLimit maps evidence source ids to minimum inter-call delays.
type RateLimit struct {
	MinDelaySeconds map[string]float64 `toml:"min_delay_seconds"`
}

// Logging contains log output settings.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config is the root configuration consumed by every component.
type Config struct {
	Paths         Paths         `toml:"paths"`
	Naming        Naming        `toml:"naming"`
	Verification  Verification  `toml:"verification"`
	Workflow      Workflow      `toml:"workflow"`
	Oracle        Oracle        `toml:"oracle"`
	Transcription Transcription `toml:"transcription"`
	RateLimit     RateLimit     `toml:"ratelimit"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the conventional config file location.
func DefaultConfigPath() string {
	return expandPath("~/.config/shelfmark/config.toml")
}

// Load reads the config file at path, applies defaults for unset fields,
// normalizes, and validates. A missing file is an error; use Default for an
// unconfigured run.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config file %s does not exist (run 'shelfmark config init')", path)
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// WriteSample writes the embedded sample config to path, refusing to
// overwrite an existing file.
func WriteSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(path, []byte(sampleConfig), 0o644)
}

// EnsureDirectories creates the directories the daemon needs at runtime.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.LogDir, c.Paths.ReviewDir}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// FFprobeBinary returns the ffprobe executable name used for audio probing.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

// FFmpegBinary returns the ffmpeg executable name used for fingerprinting
// and transcription decoding.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// QueuePath returns the SQLite database location.
func (c *Config) QueuePath() string {
	return filepath.Join(c.Paths.LogDir, "queue.db")
}

// LockPath returns the daemon instance lock location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LogDir, "shelfmark.lock")
}

// LayerEnabled reports whether the named verification layer is switched on.
func (c *Config) LayerEnabled(name string) bool {
	for _, layer := range c.Verification.EnabledLayers {
		if layer == name {
			return true
		}
	}
	return false
}

func expandPath(path string) string {
	if len(path) > 1 && path[:2] == "~/" {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
