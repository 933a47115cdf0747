package pipeline

import (
	"context"

	"shelfmark/internal/evidence"
	"shelfmark/internal/identity"
	"shelfmark/internal/logging"
	"shelfmark/internal/oracle"
	"shelfmark/internal/queue"
	"shelfmark/internal/sources"
)

// runOracle presents the consensus identity and the lookup candidates to the
// oracle. Transport failures park the item for retry; an actionable verdict
// passes through the drastic-change guard before it becomes a decision; an
// uncertain verdict advances to audio analysis.
func (p *Pipeline) runOracle(ctx context.Context, item *queue.Item, profile *evidence.ItemProfile) outcome {
	original := identity.Identity{Author: item.Author, Title: item.Title}
	proposed := profile.Identity()
	if proposed.IsEmpty() {
		// Nothing for the oracle to rule on; audio is the only hope left.
		profile.AddIssue("no identity evidence gathered by lookups")
		return outcome{kind: outcomeAdvance}
	}

	req := oracle.Request{
		Original:   original,
		Proposed:   proposed,
		Candidates: candidateList(profile),
	}
	resp, err := p.oracle.Verify(ctx, req)
	if err != nil {
		return outcome{kind: outcomeRetry, reason: err.Error()}
	}
	profile.MarkLayer(LayerOracle)
	p.log(ctx).Info("oracle verdict",
		logging.String("decision", string(resp.Decision)),
		logging.String("confidence", string(resp.Confidence)))

	if !resp.Actionable() {
		profile.AddIssue("oracle uncertain: " + resp.Reasoning)
		return outcome{kind: outcomeAdvance}
	}

	endorsed := resp.Recommended(req)
	if !identity.IsValidAuthorForRecommendation(endorsed.Author) {
		profile.AddIssue("oracle endorsed an implausible author: " + endorsed.Author)
		return outcome{kind: outcomeAdvance}
	}
	if !identity.IsValidTitleForRecommendation(endorsed.Title) {
		profile.AddIssue("oracle endorsed a polluted title: " + endorsed.Title)
		return outcome{kind: outcomeAdvance}
	}
	verdict, err := p.guard.Evaluate(ctx, firstAudioFile(item.Path), original, endorsed)
	if err != nil {
		return outcome{kind: outcomeRetry, reason: err.Error()}
	}
	if verdict.NeedsReview {
		profile.NeedsReview = true
		return outcome{kind: outcomeReview, reason: verdict.Reason}
	}

	// Fold the oracle's endorsement into the consensus so the decision's
	// confidence reflects it as one more (weighted) voice.
	agg := evidence.NewAggregatorFrom(profile.Samples)
	recordIdentity(agg, evidence.SourceOracle, verdict.Identity)
	profile.Apply(agg)

	decision := identity.Decision{
		Identity:   verdict.Identity,
		Confidence: p.decisionConfidence(profile, verdict.Identity),
		Source:     evidence.SourceOracle,
	}
	return outcome{kind: outcomeDecision, decision: decision}
}

// decisionConfidence scores a decided identity: the profile's overall score
// when the consensus agrees with it, otherwise the author/title field floor
// of the re-aggregated evidence.
func (p *Pipeline) decisionConfidence(profile *evidence.ItemProfile, decided identity.Identity) int {
	consensus := profile.Identity()
	if consensus.Author == decided.Author && consensus.Title == decided.Title {
		return profile.Overall
	}
	author := profile.Fields[evidence.FieldAuthor].Confidence
	title := profile.Fields[evidence.FieldTitle].Confidence
	if title < author {
		return title
	}
	return author
}

func candidateList(profile *evidence.ItemProfile) []*sources.Candidate {
	cands := make([]*sources.Candidate, 0, len(profile.Candidates))
	for _, id := range profile.Candidates {
		cands = append(cands, &sources.Candidate{Identity: id})
	}
	return cands
}
