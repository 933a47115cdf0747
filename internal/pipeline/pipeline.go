// Package pipeline drives claimed queue items through the layered
// verification state machine: cheap lookups, oracle verification, audio
// analysis. Each layer either resolves the item, advances it to the next
// layer, or parks it for retry; terminal outcomes are executed through the
// organizer.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"shelfmark/internal/audioprobe"
	"shelfmark/internal/config"
	"shelfmark/internal/evidence"
	"shelfmark/internal/guard"
	"shelfmark/internal/identity"
	"shelfmark/internal/logging"
	"shelfmark/internal/oracle"
	"shelfmark/internal/organizer"
	"shelfmark/internal/queue"
	"shelfmark/internal/sources"
)

// Layer names as they appear in the enabled_layers config list.
const (
	LayerLookup = "lookup"
	LayerOracle = "oracle"
	LayerAudio  = "audio"
)

type outcomeKind int

const (
	// outcomeAdvance moves the item to the next pipeline state.
	outcomeAdvance outcomeKind = iota
	// outcomeVerified confirms the on-disk identity; nothing moves.
	outcomeVerified
	// outcomeDecision resolves the item with a decision to execute.
	outcomeDecision
	// outcomeRetry leaves the state unchanged for the next cycle.
	outcomeRetry
	// outcomeReview routes the item to manual review.
	outcomeReview
)

type outcome struct {
	kind     outcomeKind
	decision identity.Decision
	reason   string
}

// Pipeline owns the verification layers for one process.
type Pipeline struct {
	cfg         *config.Config
	store       *queue.Store
	organizer   *organizer.Organizer
	gatherer    *sources.Gatherer
	oracle      oracle.Oracle
	guard       *guard.Guard
	transcriber audioprobe.Transcriber
	logger      *slog.Logger
}

// New wires the pipeline. The oracle and transcriber may be nil; their
// layers are then skipped as if disabled.
func New(cfg *config.Config, store *queue.Store, org *organizer.Organizer, gatherer *sources.Gatherer, orc oracle.Oracle, transcriber audioprobe.Transcriber, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{
		cfg:         cfg,
		store:       store,
		organizer:   org,
		gatherer:    gatherer,
		oracle:      orc,
		guard:       guard.New(gatherer, orc, transcriber, cfg.Verification, logger),
		transcriber: transcriber,
		logger:      logger,
	}
}

// ProcessItem runs the claimed item forward until it reaches a terminal
// status or parks for retry. The item is always persisted before returning,
// so a crash between cycles never loses a state transition.
func (p *Pipeline) ProcessItem(ctx context.Context, item *queue.Item) error {
	profile, err := evidence.DecodeProfile(item.ProfileJSON)
	if err != nil {
		// A corrupt profile starts over rather than wedging the item.
		p.logger.Warn("discarding unreadable item profile",
			logging.Int64("item_id", item.ID), logging.Error(err))
		profile = evidence.NewProfile()
	}
	ctx = logging.IntoContext(ctx, logging.Int64("item_id", item.ID))

	for !item.Status.IsTerminal() {
		switch item.Status {
		case queue.StatusQueued:
			item.Status = queue.StatusLookingUp

		case queue.StatusLookingUp:
			if !p.cfg.LayerEnabled(LayerLookup) {
				item.Status = queue.StatusAwaitingOracle
				continue
			}
			out := p.runLookup(layerContext(ctx, LayerLookup), item, profile)
			if done, err := p.settle(ctx, item, profile, out, queue.StatusAwaitingOracle); done || err != nil {
				return err
			}

		case queue.StatusAwaitingOracle:
			if !p.cfg.LayerEnabled(LayerOracle) || p.oracle == nil {
				item.Status = queue.StatusAwaitingAudio
				continue
			}
			out := p.runOracle(layerContext(ctx, LayerOracle), item, profile)
			if out.kind == outcomeRetry {
				return p.parkForRetry(ctx, item, profile, out.reason)
			}
			if done, err := p.settle(ctx, item, profile, out, queue.StatusAwaitingAudio); done || err != nil {
				return err
			}

		case queue.StatusAwaitingAudio:
			if !p.cfg.LayerEnabled(LayerAudio) || p.transcriber == nil {
				item.SetNeedsAttention(unresolvedReason(profile))
				continue
			}
			out := p.runAudio(layerContext(ctx, LayerAudio), item, profile)
			// Audio is the last layer; anything short of a resolution is
			// definitive.
			if out.kind == outcomeAdvance {
				out = outcome{kind: outcomeReview, reason: unresolvedReason(profile)}
			}
			if done, err := p.settle(ctx, item, profile, out, queue.StatusNeedsAttention); done || err != nil {
				return err
			}

		default:
			return fmt.Errorf("item %d in unexpected status %s", item.ID, item.Status)
		}
	}
	return p.persist(ctx, item, profile)
}

// settle applies a layer outcome. It reports done=true when the item left
// the state machine (resolved, verified, review, or persisted error).
func (p *Pipeline) settle(ctx context.Context, item *queue.Item, profile *evidence.ItemProfile, out outcome, next queue.ItemStatus) (bool, error) {
	switch out.kind {
	case outcomeAdvance:
		item.Status = next
		return false, nil

	case outcomeVerified:
		item.Status = queue.StatusVerified
		return true, p.persist(ctx, item, profile)

	case outcomeDecision:
		if err := p.encodeProfile(item, profile); err != nil {
			return true, err
		}
		if out.decision.Confidence >= p.cfg.Verification.ConfidenceThreshold {
			return true, p.organizer.Apply(ctx, item, out.decision)
		}
		return true, p.organizer.Propose(ctx, item, out.decision)

	case outcomeReview:
		item.SetNeedsAttention(out.reason)
		return true, p.persist(ctx, item, profile)

	default:
		return true, fmt.Errorf("unhandled layer outcome %d", out.kind)
	}
}

// parkForRetry persists the item in place after an oracle outage, escalating
// once the retry budget is spent.
func (p *Pipeline) parkForRetry(ctx context.Context, item *queue.Item, profile *evidence.ItemProfile, reason string) error {
	item.OracleAttempts++
	if item.OracleAttempts >= p.cfg.Verification.OracleRetryBudget {
		item.SetNeedsAttention("oracle unreachable")
		p.log(ctx).Warn("oracle retry budget exhausted",
			logging.Int("attempts", item.OracleAttempts))
		return p.persist(ctx, item, profile)
	}
	p.log(ctx).Info("oracle unavailable, will retry",
		logging.Int("attempts", item.OracleAttempts),
		logging.String("reason", reason))
	return p.persist(ctx, item, profile)
}

func (p *Pipeline) encodeProfile(item *queue.Item, profile *evidence.ItemProfile) error {
	encoded, err := profile.Encode()
	if err != nil {
		return fmt.Errorf("encode profile for item %d: %w", item.ID, err)
	}
	item.ProfileJSON = encoded
	return nil
}

func (p *Pipeline) persist(ctx context.Context, item *queue.Item, profile *evidence.ItemProfile) error {
	if err := p.encodeProfile(item, profile); err != nil {
		return err
	}
	return p.store.Update(ctx, item)
}

// SourceCallStats reports cumulative lookup-provider calls and rate-limiter
// skips, for the worker loop's batch accounting.
func (p *Pipeline) SourceCallStats() (calls, skipped int) {
	return p.gatherer.CallStats()
}

// layerContext tags the context so every record a layer emits names the
// layer it came from.
func layerContext(ctx context.Context, layer string) context.Context {
	return logging.IntoContext(ctx, logging.String("layer", layer))
}

// log returns the pipeline logger enriched with the item, layer, and request
// attrs carried by ctx.
func (p *Pipeline) log(ctx context.Context) *slog.Logger {
	return logging.WithContext(ctx, p.logger)
}

// firstAudioFile returns the first audio file under the item's folder, or ""
// when none is readable.
func firstAudioFile(dir string) string {
	files, err := audioprobe.AudioFiles(dir)
	if err != nil || len(files) == 0 {
		return ""
	}
	return files[0]
}

func unresolvedReason(profile *evidence.ItemProfile) string {
	if n := len(profile.Issues); n > 0 {
		return profile.Issues[n-1]
	}
	return "identity unresolved after all enabled verification layers"
}
