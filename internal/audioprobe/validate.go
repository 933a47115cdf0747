package audioprobe

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
)

var audioExtensions = map[string]struct{}{
	".m4b":  {},
	".m4a":  {},
	".mp3":  {},
	".flac": {},
	".ogg":  {},
	".opus": {},
	".wma":  {},
	".aac":  {},
	".wav":  {},
}

// IsAudioFile reports whether the path has a recognized audio extension.
func IsAudioFile(path string) bool {
	_, ok := audioExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// AudioFiles returns the audio files directly or recursively under dir,
// sorted by path.
func AudioFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && IsAudioFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// Validation is the playability verdict for one file.
type Validation struct {
	Playable        bool
	DurationSeconds float64
	Codec           string
	Reason          string
}

// ValidateFile probes one file and classifies it. A file that ffprobe cannot
// read, that has no audio stream, or that reports zero duration is corrupt.
func ValidateFile(ctx context.Context, binary, path string) Validation {
	result, err := Inspect(ctx, binary, path)
	if err != nil {
		return Validation{Reason: "unreadable: " + err.Error()}
	}
	if result.AudioStreamCount() == 0 {
		return Validation{Reason: "no audio stream"}
	}
	duration := result.DurationSeconds()
	if duration <= 0 {
		return Validation{Codec: result.AudioCodec(), Reason: "zero duration"}
	}
	return Validation{
		Playable:        true,
		DurationSeconds: duration,
		Codec:           result.AudioCodec(),
	}
}

// FolderReport aggregates validation across a book folder.
type FolderReport struct {
	Files        []string
	TotalSeconds float64
	CorruptFiles []string
}

// Corrupt reports whether any file in the folder failed validation.
func (r FolderReport) Corrupt() bool {
	return len(r.CorruptFiles) > 0
}

// ValidateFolder probes every audio file under dir and totals the playable
// duration.
func ValidateFolder(ctx context.Context, binary, dir string) (FolderReport, error) {
	files, err := AudioFiles(dir)
	if err != nil {
		return FolderReport{}, err
	}
	report := FolderReport{Files: files}
	for _, file := range files {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		v := ValidateFile(ctx, binary, file)
		if !v.Playable {
			report.CorruptFiles = append(report.CorruptFiles, file)
			continue
		}
		report.TotalSeconds += v.DurationSeconds
	}
	return report, nil
}
