package audioprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"shelfmark/internal/config"
)

// Whisper implements Transcriber with external tooling: ffmpeg decodes the
// opening segment to a mono 16kHz WAV, then the configured speech-to-text
// command produces a JSON transcript that is mined for the spoken credits.
type Whisper struct {
	cfg    config.Transcription
	ffmpeg string

	// replaceable from tests
	runner func(ctx context.Context, name string, args ...string) error
}

// NewWhisper wires the transcriber from config. An empty ffmpeg binary name
// falls back to "ffmpeg" on PATH.
func NewWhisper(cfg config.Transcription, ffmpegBinary string) *Whisper {
	if ffmpegBinary == "" {
		ffmpegBinary = "ffmpeg"
	}
	return &Whisper{cfg: cfg, ffmpeg: ffmpegBinary}
}

// Hear transcribes the opening credits of the file at path.
func (w *Whisper) Hear(ctx context.Context, path string) (*Heard, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("transcribe: empty path")
	}
	workDir, err := os.MkdirTemp("", "shelfmark-hear-")
	if err != nil {
		return nil, fmt.Errorf("transcribe workdir: %w", err)
	}
	defer os.RemoveAll(workDir)

	wav := filepath.Join(workDir, "opening.wav")
	if err := w.run(ctx, w.ffmpeg, w.extractArgs(path, wav)...); err != nil {
		return nil, fmt.Errorf("decode opening segment: %w", err)
	}
	if err := w.run(ctx, w.cfg.Command, w.transcribeArgs(wav, workDir)...); err != nil {
		return nil, fmt.Errorf("transcribe: %w", err)
	}

	text, err := loadTranscript(filepath.Join(workDir, "opening.json"))
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	heard := ParseCredits(text)
	if heard == nil {
		return nil, errors.New("no spoken credits recognized in opening segment")
	}
	return heard, nil
}

// extractArgs builds the ffmpeg invocation decoding the opening segment into
// the format the transcriber expects.
func (w *Whisper) extractArgs(source, dest string) []string {
	seconds := w.cfg.SegmentSeconds
	if seconds <= 0 {
		seconds = 90
	}
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-t", strconv.Itoa(seconds),
		"-i", source,
		"-vn", "-sn", "-dn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		dest,
	}
}

func (w *Whisper) transcribeArgs(source, outputDir string) []string {
	args := []string{source, "--output_dir", outputDir, "--output_format", "json"}
	if w.cfg.Model != "" {
		args = append(args, "--model", w.cfg.Model)
	}
	return args
}

func (w *Whisper) run(ctx context.Context, name string, args ...string) error {
	if w.runner != nil {
		return w.runner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

type transcriptSegment struct {
	Text string `json:"text"`
}

type transcriptPayload struct {
	Segments []transcriptSegment `json:"segments"`
}

func loadTranscript(jsonPath string) (string, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return "", err
	}
	var payload transcriptPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", fmt.Errorf("parse transcript json: %w", err)
	}
	parts := make([]string, 0, len(payload.Segments))
	for _, seg := range payload.Segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " "), nil
}

var (
	writtenByPattern   = regexp.MustCompile(`(?i)\b(?:written\s+by|a\s+novel\s+by|by)\s+([^.,;]+)`)
	narratedByPattern  = regexp.MustCompile(`(?i)\b(?:narrated\s+by|read\s+by|performed\s+by)\s+([^.,;]+)`)
	spokenTitlePattern = regexp.MustCompile(`(?i)\b(?:this\s+is|you(?:'|\x{2019})re\s+listening\s+to)\s+([^.,;]+)`)
)

// ParseCredits mines a transcript for the conventional audiobook opening
// ("this is Title, written by Author, narrated by Narrator"). It returns nil
// when no author can be heard; title and narrator stay empty when absent.
func ParseCredits(text string) *Heard {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	heard := &Heard{}
	if m := writtenByPattern.FindStringSubmatch(text); m != nil {
		heard.Author = cleanCredit(m[1])
	}
	if m := narratedByPattern.FindStringSubmatch(text); m != nil {
		heard.Narrator = cleanCredit(m[1])
	}
	if m := spokenTitlePattern.FindStringSubmatch(text); m != nil {
		heard.Title = cleanCredit(m[1])
	}
	if heard.Author == "" {
		return nil
	}
	return heard
}

// cleanCredit trims a captured credit down to the name itself, dropping
// trailing connective phrases the capture group swallowed.
func cleanCredit(raw string) string {
	raw = strings.TrimSpace(raw)
	for _, stop := range []string{" narrated ", " read ", " performed ", " written ", " by ", " and now "} {
		if idx := strings.Index(strings.ToLower(raw), stop); idx >= 0 {
			raw = raw[:idx]
		}
	}
	return strings.Join(strings.Fields(raw), " ")
}
