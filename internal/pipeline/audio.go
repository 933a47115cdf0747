package pipeline

import (
	"context"

	"shelfmark/internal/evidence"
	"shelfmark/internal/identity"
	"shelfmark/internal/logging"
	"shelfmark/internal/queue"
	"shelfmark/internal/textutil"
)

// runAudio extracts identity evidence from the recording itself, accepting
// whichever known identity (on-disk or a prior candidate) the opening
// credits corroborate. This is the last layer: a failed extraction or an
// unrecognized heard identity is definitive, not retryable.
func (p *Pipeline) runAudio(ctx context.Context, item *queue.Item, profile *evidence.ItemProfile) outcome {
	audioFile := firstAudioFile(item.Path)
	if audioFile == "" {
		return outcome{kind: outcomeReview, reason: "no readable audio file for analysis"}
	}

	heard, err := p.transcriber.Hear(ctx, audioFile)
	if err != nil || heard == nil || heard.Author == "" {
		reason := "audio analysis could not extract an identity"
		if err != nil {
			reason = "audio analysis failed: " + err.Error()
		}
		return outcome{kind: outcomeReview, reason: reason}
	}
	profile.MarkLayer(LayerAudio)
	p.log(ctx).Info("audio credits heard",
		logging.String("author", heard.Author),
		logging.String("title", heard.Title))

	agg := evidence.NewAggregatorFrom(profile.Samples)
	agg.Record(evidence.FieldAuthor, evidence.SourceAudio, heard.Author)
	agg.Record(evidence.FieldTitle, evidence.SourceAudio, heard.Title)
	agg.Record(evidence.FieldNarrator, evidence.SourceAudio, heard.Narrator)
	profile.Apply(agg)

	threshold := p.cfg.Verification.HighAgreementThreshold

	// The on-disk identity first: corroboration means nothing moves.
	onDisk := identity.Identity{Author: item.Author, Title: item.Title}
	if corroborates(heard.Author, heard.Title, onDisk, threshold) {
		return outcome{kind: outcomeVerified}
	}

	for _, cand := range profile.Candidates {
		if !corroborates(heard.Author, heard.Title, cand, threshold) {
			continue
		}
		decision := identity.Decision{
			Identity:   cand,
			Confidence: profile.Overall,
			Source:     evidence.SourceAudio,
		}
		return outcome{kind: outcomeDecision, decision: decision}
	}

	return outcome{kind: outcomeReview,
		reason: "audio credits match neither the on-disk identity nor any candidate"}
}

// corroborates reports whether the heard author (and title, when one was
// heard) agree with the identity at the given similarity threshold.
func corroborates(heardAuthor, heardTitle string, id identity.Identity, threshold float64) bool {
	if id.Author == "" {
		return false
	}
	if textutil.NameSimilarity(heardAuthor, id.Author) < threshold {
		return false
	}
	if heardTitle != "" && id.Title != "" {
		return textutil.NameSimilarity(heardTitle, id.Title) >= threshold
	}
	return true
}
