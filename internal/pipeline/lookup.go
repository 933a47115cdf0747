package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"shelfmark/internal/evidence"
	"shelfmark/internal/identity"
	"shelfmark/internal/logging"
	"shelfmark/internal/queue"
	"shelfmark/internal/sources"
	"shelfmark/internal/textutil"
)

// runLookup aggregates evidence from the cheap, free sources: the item's
// path-derived hints, any metadata sidecar in the folder, and every
// registered lookup provider. The item exits verified only when the
// consensus agrees with the on-disk identity at the high-agreement
// threshold; anything weaker advances to the oracle.
func (p *Pipeline) runLookup(ctx context.Context, item *queue.Item, profile *evidence.ItemProfile) outcome {
	agg := evidence.NewAggregator()

	agg.Record(evidence.FieldAuthor, evidence.SourcePath, item.Author)
	agg.Record(evidence.FieldTitle, evidence.SourcePath, item.Title)

	if sidecar := readSidecar(item.Path); sidecar != nil {
		recordIdentity(agg, evidence.SourceJSON, sidecar.identity())
		agg.Record(evidence.FieldLanguage, evidence.SourceJSON, sidecar.Language)
	}

	var candidates []*sources.Candidate
	if item.Title != "" && identity.IsUnsearchableQuery(item.Title) {
		// Chapter markers, bare track numbers and the like only return
		// noise from the providers; path and sidecar evidence stand alone.
		profile.AddIssue("title unsuitable for lookup queries: " + item.Title)
		p.log(ctx).Debug("skipping lookup providers", logging.String("title", item.Title))
	} else {
		candidates = p.gatherer.Gather(ctx, item.Title, item.Author)
	}
	for _, cand := range candidates {
		if item.Title != "" && identity.IsGarbageTitleMatch(item.Title, cand.Identity.Title) {
			p.log(ctx).Debug("discarding dissimilar candidate",
				logging.String("source", cand.Source),
				logging.String("candidate_title", cand.Identity.Title))
			continue
		}
		recordIdentity(agg, cand.Source, cand.Identity)
		profile.AddCandidate(cand.Identity)
	}

	profile.Apply(agg)
	profile.MarkLayer(LayerLookup)
	p.log(ctx).Info("lookup layer complete",
		logging.Int("candidates", len(candidates)),
		logging.Int("overall_confidence", profile.Overall))

	proposed := profile.Identity()
	if p.highAgreement(item, proposed) {
		return outcome{kind: outcomeVerified}
	}
	return outcome{kind: outcomeAdvance}
}

// highAgreement reports whether the consensus identity matches the on-disk
// identity closely enough to skip the remaining layers.
func (p *Pipeline) highAgreement(item *queue.Item, proposed identity.Identity) bool {
	if item.Author == "" || item.Title == "" || proposed.Author == "" || proposed.Title == "" {
		return false
	}
	threshold := p.cfg.Verification.HighAgreementThreshold
	return textutil.NameSimilarity(item.Author, proposed.Author) >= threshold &&
		textutil.NameSimilarity(item.Title, proposed.Title) >= threshold
}

func recordIdentity(agg *evidence.Aggregator, source string, id identity.Identity) {
	agg.Record(evidence.FieldAuthor, source, id.Author)
	agg.Record(evidence.FieldTitle, source, id.Title)
	agg.Record(evidence.FieldSeries, source, id.Series)
	agg.Record(evidence.FieldSeriesNum, source, id.SeriesNum)
	agg.Record(evidence.FieldNarrator, source, id.Narrator)
	agg.Record(evidence.FieldYear, source, id.Year)
	agg.Record(evidence.FieldEdition, source, id.Edition)
	agg.Record(evidence.FieldVariant, source, id.Variant)
}

// sidecarNames are the metadata files importers commonly leave beside the
// audio. First match wins.
var sidecarNames = []string{"metadata.json", "info.json"}

type sidecarMeta struct {
	Author    string `json:"author"`
	Title     string `json:"title"`
	Series    string `json:"series"`
	SeriesNum string `json:"series_num"`
	Narrator  string `json:"narrator"`
	Year      string `json:"year"`
	Language  string `json:"language"`
}

func (m *sidecarMeta) identity() identity.Identity {
	return identity.Identity{
		Author:    m.Author,
		Title:     m.Title,
		Series:    m.Series,
		SeriesNum: m.SeriesNum,
		Narrator:  m.Narrator,
		Year:      m.Year,
	}
}

func readSidecar(dir string) *sidecarMeta {
	for _, name := range sidecarNames {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		var meta sidecarMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		if meta.Author == "" && meta.Title == "" {
			continue
		}
		return &meta
	}
	return nil
}
