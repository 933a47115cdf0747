// Package guard protects library items from drastic author rewrites. A
// proposed identity whose author shares almost no words with the on-disk
// author is never applied on lookup evidence alone; it must survive a full
// candidate sweep and an oracle verdict, with manual review as the fallback.
package guard

import (
	"context"
	"fmt"
	"log/slog"

	"shelfmark/internal/audioprobe"
	"shelfmark/internal/config"
	"shelfmark/internal/identity"
	"shelfmark/internal/logging"
	"shelfmark/internal/oracle"
	"shelfmark/internal/sources"
	"shelfmark/internal/textutil"
)

// corroborationThreshold is the minimum name similarity for the trust-mode
// audio tiebreak to count a heard author as confirming one side.
const corroborationThreshold = 0.7

// Outcome is the guard's ruling on one proposed change.
type Outcome struct {
	// Triggered reports whether the change was drastic enough to guard.
	Triggered bool
	// Accepted is true when Identity may be applied without review.
	Accepted bool
	// Identity is the endorsed identity when Accepted is true. It may
	// differ from the proposed one when the oracle issued a correction.
	Identity identity.Identity
	// NeedsReview routes the item to manual review with Reason attached.
	NeedsReview bool
	Reason      string
}

// Guard evaluates drastic author changes against the full evidence surface.
type Guard struct {
	gatherer    *sources.Gatherer
	oracle      oracle.Oracle
	transcriber audioprobe.Transcriber
	cfg         config.Verification
	logger      *slog.Logger
}

// New builds a guard. The transcriber may be nil, which disables the
// trust-mode audio tiebreak.
func New(gatherer *sources.Gatherer, orc oracle.Oracle, transcriber audioprobe.Transcriber, cfg config.Verification, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Guard{
		gatherer:    gatherer,
		oracle:      orc,
		transcriber: transcriber,
		cfg:         cfg,
		logger:      logger,
	}
}

// Evaluate rules on replacing original with proposed for the item rooted at
// audioPath. Non-drastic changes and changes away from placeholder authors
// pass through untouched. A returned error means the oracle could not be
// reached and the caller should retry the stage later, not escalate.
func (g *Guard) Evaluate(ctx context.Context, audioPath string, original, proposed identity.Identity) (*Outcome, error) {
	if !g.cfg.ProtectAuthorChanges {
		return &Outcome{Accepted: true, Identity: proposed}, nil
	}
	if identity.IsPlaceholderAuthor(original.Author) {
		// Any real name beats a placeholder like "Unknown Author".
		return &Outcome{Accepted: true, Identity: proposed}, nil
	}
	if !identity.IsDrasticAuthorChange(original.Author, proposed.Author) {
		return &Outcome{Accepted: true, Identity: proposed}, nil
	}

	g.logger.Info("drastic author change, guarding",
		logging.String("current", original.Author),
		logging.String("proposed", proposed.Author))

	titleHint := proposed.Title
	if titleHint == "" {
		titleHint = original.Title
	}
	candidates := g.gatherer.Sweep(ctx, titleHint, original.Author)

	req := oracle.Request{Original: original, Proposed: proposed, Candidates: candidates}
	resp, err := g.oracle.Verify(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("guard verdict for %q: %w", original.Label(), err)
	}

	if resp.Actionable() {
		endorsed := resp.Recommended(req)
		g.logger.Info("guard verdict applied",
			logging.String("decision", string(resp.Decision)),
			logging.String("author", endorsed.Author))
		return &Outcome{Triggered: true, Accepted: true, Identity: endorsed}, nil
	}

	if g.cfg.TrustMode && g.transcriber != nil && audioPath != "" {
		if out := g.audioTiebreak(ctx, audioPath, original, proposed); out != nil {
			return out, nil
		}
	}

	reason := fmt.Sprintf("author change %q -> %q needs review", original.Author, proposed.Author)
	if resp.Reasoning != "" {
		reason = fmt.Sprintf("%s: %s", reason, resp.Reasoning)
	}
	return &Outcome{Triggered: true, NeedsReview: true, Reason: reason}, nil
}

// audioTiebreak asks the transcriber whose author the recording itself
// announces. It returns nil when the audio corroborates neither side or is
// itself ambiguous, leaving the review fallback in charge.
func (g *Guard) audioTiebreak(ctx context.Context, audioPath string, original, proposed identity.Identity) *Outcome {
	heard, err := g.transcriber.Hear(ctx, audioPath)
	if err != nil || heard == nil || heard.Author == "" {
		if err != nil {
			g.logger.Warn("trust-mode transcription failed", logging.Error(err))
		}
		return nil
	}

	simOriginal := textutil.NameSimilarity(heard.Author, original.Author)
	simProposed := textutil.NameSimilarity(heard.Author, proposed.Author)
	g.logger.Debug("trust-mode tiebreak",
		logging.String("heard", heard.Author),
		logging.Float64("sim_original", simOriginal),
		logging.Float64("sim_proposed", simProposed))

	switch {
	case simProposed >= corroborationThreshold && simProposed > simOriginal:
		return &Outcome{Triggered: true, Accepted: true, Identity: proposed}
	case simOriginal >= corroborationThreshold && simOriginal > simProposed:
		// The recording backs the on-disk author; keep it.
		kept := proposed
		kept.Author = original.Author
		return &Outcome{Triggered: true, Accepted: true, Identity: kept}
	default:
		return nil
	}
}
