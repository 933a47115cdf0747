package evidence

import (
	"encoding/json"
	"fmt"

	"shelfmark/internal/identity"
)

// ItemProfile is the accumulating picture of one item's identity across
// pipeline layers. It serializes into the queue so a later layer (or a later
// process) can pick up where the previous one stopped.
type ItemProfile struct {
	Fields          map[Field]FieldConsensus `json:"fields"`
	Overall         int                      `json:"overall"`
	Samples         []Sample                 `json:"samples,omitempty"`
	LayersConsulted []string                 `json:"layers_consulted,omitempty"`
	Candidates      []identity.Identity      `json:"candidates,omitempty"`
	NeedsReview     bool                     `json:"needs_review,omitempty"`
	Issues          []string                 `json:"issues,omitempty"`
}

// NewProfile returns an empty profile.
func NewProfile() *ItemProfile {
	return &ItemProfile{Fields: make(map[Field]FieldConsensus)}
}

// Apply folds the aggregator's current resolution into the profile,
// replacing any previously-stored consensus and raw samples.
func (p *ItemProfile) Apply(agg *Aggregator) {
	fields, overall := agg.ResolveAll()
	p.Fields = fields
	p.Overall = overall
	p.Samples = agg.Samples()
}

// MarkLayer records that a verification layer has been consulted. Repeat
// visits (oracle retries) are recorded once.
func (p *ItemProfile) MarkLayer(name string) {
	for _, existing := range p.LayersConsulted {
		if existing == name {
			return
		}
	}
	p.LayersConsulted = append(p.LayersConsulted, name)
}

// LayerConsulted reports whether the named layer already ran for this item.
func (p *ItemProfile) LayerConsulted(name string) bool {
	for _, existing := range p.LayersConsulted {
		if existing == name {
			return true
		}
	}
	return false
}

// AddIssue tags the profile with a human-readable problem note.
func (p *ItemProfile) AddIssue(issue string) {
	if issue == "" {
		return
	}
	p.Issues = append(p.Issues, issue)
}

// AddCandidate remembers an identity some lookup proposed, so later layers
// (audio corroboration, the guard's oracle sweep) can weigh it.
func (p *ItemProfile) AddCandidate(cand identity.Identity) {
	if cand.IsEmpty() {
		return
	}
	for _, existing := range p.Candidates {
		if existing == cand {
			return
		}
	}
	p.Candidates = append(p.Candidates, cand)
}

// FieldValue returns the consensus value for a field, or "" when the field
// has no winner.
func (p *ItemProfile) FieldValue(field Field) string {
	return p.Fields[field].Value
}

// Identity assembles the profile's current best identity from per-field
// winners.
func (p *ItemProfile) Identity() identity.Identity {
	return identity.Identity{
		Author:    p.FieldValue(FieldAuthor),
		Title:     p.FieldValue(FieldTitle),
		Series:    p.FieldValue(FieldSeries),
		SeriesNum: p.FieldValue(FieldSeriesNum),
		Narrator:  p.FieldValue(FieldNarrator),
		Year:      p.FieldValue(FieldYear),
		Edition:   p.FieldValue(FieldEdition),
		Variant:   p.FieldValue(FieldVariant),
	}
}

// Decision freezes the profile into an accepted resolution.
func (p *ItemProfile) Decision(source string) identity.Decision {
	return identity.Decision{
		Identity:   p.Identity(),
		Confidence: p.Overall,
		Source:     source,
	}
}

// Encode serializes the profile for queue storage.
func (p *ItemProfile) Encode() (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode profile: %w", err)
	}
	return string(data), nil
}

// DecodeProfile restores a profile from queue storage. An empty payload
// yields a fresh profile.
func DecodeProfile(payload string) (*ItemProfile, error) {
	if payload == "" {
		return NewProfile(), nil
	}
	var profile ItemProfile
	if err := json.Unmarshal([]byte(payload), &profile); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	if profile.Fields == nil {
		profile.Fields = make(map[Field]FieldConsensus)
	}
	return &profile, nil
}
