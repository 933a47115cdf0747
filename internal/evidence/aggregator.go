package evidence

import (
	"sort"
	"strings"

	"shelfmark/internal/textutil"
)

// rawEvidence is one source's claim about a field value.
type rawEvidence struct {
	Source string
	Value  string
}

// Sample is one raw claim in serializable form, so evidence collected by an
// early layer survives into later layers and later process runs.
type Sample struct {
	Field  Field  `json:"field"`
	Source string `json:"source"`
	Value  string `json:"value"`
}

// FieldConsensus is the resolved value for a single field.
type FieldConsensus struct {
	Field      Field    `json:"field"`
	Value      string   `json:"value"`
	Confidence int      `json:"confidence"`
	Sources    []string `json:"sources,omitempty"`
}

// Aggregator collects raw field claims and resolves them into per-field
// consensus values. It is not safe for concurrent use; pipeline layers for
// one item run strictly in sequence.
type Aggregator struct {
	evidence map[Field][]rawEvidence
}

// NewAggregator returns an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{evidence: make(map[Field][]rawEvidence)}
}

// Record appends one claim. Empty values are a no-op so sources can pass
// through whatever fields they happen to know without pre-filtering.
func (a *Aggregator) Record(field Field, source, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	a.evidence[field] = append(a.evidence[field], rawEvidence{Source: source, Value: value})
}

// HasEvidence reports whether any claim exists for the field.
func (a *Aggregator) HasEvidence(field Field) bool {
	return len(a.evidence[field]) > 0
}

// Samples returns every recorded claim in tracked-field order.
func (a *Aggregator) Samples() []Sample {
	var samples []Sample
	for _, field := range TrackedFields {
		for _, claim := range a.evidence[field] {
			samples = append(samples, Sample{Field: field, Source: claim.Source, Value: claim.Value})
		}
	}
	return samples
}

// NewAggregatorFrom rebuilds an aggregator from previously captured samples.
func NewAggregatorFrom(samples []Sample) *Aggregator {
	agg := NewAggregator()
	for _, s := range samples {
		agg.Record(s.Field, s.Source, s.Value)
	}
	return agg
}

type group struct {
	value       string
	totalWeight int
	topWeight   int
	sources     []string
}

// Resolve groups the field's claims by normalized value, sums source weights
// per group, and picks the heaviest group. Ties break toward the group whose
// single strongest source outweighs the other's. Confidence starts at the
// winning group's capped weight, earns a corroboration bonus, and loses 15
// points for every dissenting group.
func (a *Aggregator) Resolve(field Field) FieldConsensus {
	claims := a.evidence[field]
	if len(claims) == 0 {
		return FieldConsensus{Field: field}
	}

	groups := make(map[string]*group)
	var order []string
	for _, claim := range claims {
		key := textutil.NormalizeValue(claim.Value)
		g, ok := groups[key]
		if !ok {
			g = &group{value: claim.Value}
			groups[key] = g
			order = append(order, key)
		}
		weight := SourceWeight(claim.Source)
		g.totalWeight += weight
		if weight > g.topWeight {
			g.topWeight = weight
			// The strongest source's spelling represents the group.
			g.value = claim.Value
		}
		g.sources = append(g.sources, claim.Source)
	}

	sort.SliceStable(order, func(i, j int) bool {
		gi, gj := groups[order[i]], groups[order[j]]
		if gi.totalWeight != gj.totalWeight {
			return gi.totalWeight > gj.totalWeight
		}
		return gi.topWeight > gj.topWeight
	})
	winner := groups[order[0]]

	confidence := winner.totalWeight
	if confidence > 100 {
		confidence = 100
	}
	switch agreeing := len(winner.sources); {
	case agreeing >= 4:
		confidence += 25
	case agreeing >= 3:
		confidence += 20
	case agreeing >= 2:
		confidence += 10
	}
	confidence -= 15 * (len(groups) - 1)
	if confidence > 100 {
		confidence = 100
	}
	if confidence < 0 {
		confidence = 0
	}

	sources := append([]string(nil), winner.sources...)
	sort.Strings(sources)
	return FieldConsensus{
		Field:      field,
		Value:      winner.value,
		Confidence: confidence,
		Sources:    sources,
	}
}

// ResolveAll resolves every tracked field and computes the weighted overall
// confidence. Fields with no evidence are excluded from both sides of the
// average.
func (a *Aggregator) ResolveAll() (map[Field]FieldConsensus, int) {
	resolved := make(map[Field]FieldConsensus, len(TrackedFields))
	weightedSum := 0
	weightTotal := 0
	for _, field := range TrackedFields {
		consensus := a.Resolve(field)
		if consensus.Value == "" {
			continue
		}
		resolved[field] = consensus
		share := FieldWeight(field)
		weightedSum += consensus.Confidence * share
		weightTotal += share
	}
	if weightTotal == 0 {
		return resolved, 0
	}
	return resolved, weightedSum / weightTotal
}
