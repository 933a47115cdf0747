package conflict

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"shelfmark/internal/audioprobe"
	"shelfmark/internal/identity"
	"shelfmark/internal/pathplan"
	"shelfmark/internal/queue"
)

// Action is what the caller should do with the source folder.
type Action string

const (
	// ActionMove relocates the source to Recommendation.Target.
	ActionMove Action = "move"
	// ActionKeepDest leaves the destination alone; the source is a duplicate.
	ActionKeepDest Action = "keep_dest"
	// ActionKeepSource prefers the source copy over the destination.
	ActionKeepSource Action = "keep_source"
	// ActionReject gives up; the item needs a human.
	ActionReject Action = "reject"
)

// Recommendation is the resolver's verdict, always with a human-readable
// reason. The resolver never mutates the filesystem itself.
type Recommendation struct {
	Action Action
	Target string
	Status queue.HistoryStatus
	Reason string
}

// Resolver runs the ordered conflict strategies. The probe hooks default to
// real ffprobe/ffmpeg-backed implementations and are replaceable in tests.
type Resolver struct {
	planner *pathplan.Planner

	signature   func(dir string) (Signature, error)
	report      func(ctx context.Context, dir string) (audioprobe.FolderReport, error)
	fingerprint func(ctx context.Context, dir string) (audioprobe.Fingerprint, error)
	occupied    func(path string) bool
}

// NewResolver builds a resolver that inspects folders with the given ffmpeg
// and ffprobe binaries (empty strings use PATH lookup).
func NewResolver(planner *pathplan.Planner, ffmpegBinary, ffprobeBinary string) *Resolver {
	return &Resolver{
		planner:   planner,
		signature: FolderSignature,
		report: func(ctx context.Context, dir string) (audioprobe.FolderReport, error) {
			return audioprobe.ValidateFolder(ctx, ffprobeBinary, dir)
		},
		fingerprint: func(ctx context.Context, dir string) (audioprobe.Fingerprint, error) {
			files, err := audioprobe.AudioFiles(dir)
			if err != nil {
				return nil, err
			}
			if len(files) == 0 {
				return nil, fmt.Errorf("no audio files in %s", dir)
			}
			return audioprobe.ExtractFingerprint(ctx, ffmpegBinary, files[0])
		},
		occupied: dirOccupied,
	}
}

func dirOccupied(path string) bool {
	entries, err := os.ReadDir(path)
	if err != nil {
		return false
	}
	return len(entries) > 0
}

// Resolve decides what to do when target (already occupied) collides with
// moving sourceDir there. Strategies run in order: distinguish by decoration,
// compare by signature, deep compare by fingerprint, version fallback.
func (r *Resolver) Resolve(ctx context.Context, id identity.Identity, sourceDir, target string) Recommendation {
	if rec, ok := r.distinguish(id, target); ok {
		return rec
	}
	if rec, ok := r.compareSignatures(id, sourceDir, target); ok {
		return rec
	}
	if rec, ok := r.deepCompare(ctx, id, sourceDir, target); ok {
		return rec
	}
	return r.versionFallback(id, target)
}

// distinguish retries path construction with one decoration (narrator, then
// variant, then edition, then year) the colliding folder name does not
// already carry. Edition and year normally lose the version slot to a
// stronger decoration, so their trials suppress the occupant.
func (r *Resolver) distinguish(id identity.Identity, target string) (Recommendation, bool) {
	base := filepath.Base(target)

	type trial struct {
		marker string
		id     identity.Identity
	}
	var trials []trial
	if id.Narrator != "" {
		trials = append(trials, trial{id.Narrator, id})
	}
	if id.Variant != "" {
		trials = append(trials, trial{id.Variant, id})
	}
	if id.Edition != "" {
		withEdition := id
		withEdition.Variant = ""
		trials = append(trials, trial{id.Edition, withEdition})
	}
	if id.Year != "" {
		withYear := id
		withYear.Variant = ""
		withYear.Edition = ""
		trials = append(trials, trial{id.Year, withYear})
	}

	for _, tr := range trials {
		marker := strings.TrimSpace(tr.marker)
		if marker == "" || strings.Contains(base, marker) {
			continue
		}
		planned := r.planner.Plan(tr.id)
		if planned.Rejected() || planned.Target == target || r.occupied(planned.Target) {
			continue
		}
		return Recommendation{
			Action: ActionMove,
			Target: planned.Target,
			Status: queue.HistoryFixed,
			Reason: fmt.Sprintf("distinguished from existing copy by %q", marker),
		}, true
	}
	return Recommendation{}, false
}

func (r *Resolver) compareSignatures(id identity.Identity, sourceDir, target string) (Recommendation, bool) {
	srcSig, err := r.signature(sourceDir)
	if err != nil {
		return Recommendation{}, false
	}
	destSig, err := r.signature(target)
	if err != nil {
		return Recommendation{}, false
	}
	cmp := Compare(srcSig, destSig)
	if !cmp.SameBook() {
		return Recommendation{}, false
	}

	// Same book on both sides. Prefer the properly-named destination unless
	// the source carries more data.
	if srcSig.TotalBytes > destSig.TotalBytes {
		return Recommendation{
			Action: ActionKeepSource,
			Target: target,
			Status: queue.HistoryDuplicate,
			Reason: fmt.Sprintf("same book (%.0f%% file overlap), source is larger (%d vs %d bytes)",
				cmp.OverlapRatio*100, srcSig.TotalBytes, destSig.TotalBytes),
		}, true
	}
	return Recommendation{
		Action: ActionKeepDest,
		Target: target,
		Status: queue.HistoryDuplicate,
		Reason: fmt.Sprintf("same book (%d of %d files match, %.0f%% overlap)",
			cmp.Matching, cmp.SourceFiles, cmp.OverlapRatio*100),
	}, true
}

func (r *Resolver) deepCompare(ctx context.Context, id identity.Identity, sourceDir, target string) (Recommendation, bool) {
	srcReport, srcErr := r.report(ctx, sourceDir)
	destReport, destErr := r.report(ctx, target)
	if srcErr != nil || destErr != nil {
		return Recommendation{}, false
	}

	// A side with unreadable audio always loses to a playable one.
	if srcReport.Corrupt() && !destReport.Corrupt() {
		return Recommendation{
			Action: ActionKeepDest,
			Target: target,
			Status: queue.HistoryDuplicate,
			Reason: "source files are corrupt or unreadable, destination is valid",
		}, true
	}
	if destReport.Corrupt() && !srcReport.Corrupt() {
		rec := Recommendation{
			Action: ActionKeepSource,
			Status: queue.HistoryCorruptDest,
			Reason: "destination files are corrupt or unreadable, source is valid",
		}
		if trial := r.planner.PlanWithVariant(id, "Valid Copy"); !trial.Rejected() && !r.occupied(trial.Target) {
			rec.Target = trial.Target
		}
		return rec, true
	}

	srcFP, err := r.fingerprint(ctx, sourceDir)
	if err != nil {
		return Recommendation{}, false
	}
	destFP, err := r.fingerprint(ctx, target)
	if err != nil {
		return Recommendation{}, false
	}
	similarity := FingerprintSimilarity(srcFP, destFP)
	if similarity < sameRecordingThreshold {
		return Recommendation{}, false
	}

	// Same underlying recording. Keep the materially longer side.
	if srcReport.TotalSeconds > destReport.TotalSeconds*1.1 {
		return Recommendation{
			Action: ActionKeepSource,
			Target: target,
			Status: queue.HistoryDuplicate,
			Reason: fmt.Sprintf("same recording (%.2f similarity), source is longer (%.0fs vs %.0fs)",
				similarity, srcReport.TotalSeconds, destReport.TotalSeconds),
		}, true
	}
	return Recommendation{
		Action: ActionKeepDest,
		Target: target,
		Status: queue.HistoryDuplicate,
		Reason: fmt.Sprintf("same recording (%.2f similarity), similar length", similarity),
	}, true
}

func (r *Resolver) versionFallback(id identity.Identity, target string) Recommendation {
	for letter := 'B'; letter <= 'Z'; letter++ {
		trial := r.planner.PlanWithVariant(id, "Version "+string(letter))
		if trial.Rejected() || trial.Target == target || r.occupied(trial.Target) {
			continue
		}
		return Recommendation{
			Action: ActionMove,
			Target: trial.Target,
			Status: queue.HistoryFixed,
			Reason: fmt.Sprintf("different recordings, versioned as %q", "Version "+string(letter)),
		}
	}
	return Recommendation{
		Action: ActionReject,
		Target: target,
		Status: queue.HistoryError,
		Reason: "different version exists and no unique path could be generated",
	}
}
