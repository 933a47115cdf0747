package sources

import (
	"context"
	"log/slog"

	"shelfmark/internal/logging"
)

// Gatherer fans a lookup across every registered source, applying the shared
// rate limiter and treating provider failures as abstentions.
type Gatherer struct {
	sources []Source
	limiter *RateLimiter
	logger  *slog.Logger
}

// NewGatherer wires sources to the shared limiter. A nil logger is replaced
// with a no-op logger.
func NewGatherer(srcs []Source, limiter *RateLimiter, logger *slog.Logger) *Gatherer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Gatherer{sources: srcs, limiter: limiter, logger: logger}
}

// Sources returns the registered providers.
func (g *Gatherer) Sources() []Source {
	return g.sources
}

// CallStats sums provider calls attempted and calls skipped by open circuits
// across every registered source.
func (g *Gatherer) CallStats() (calls, skipped int) {
	for _, src := range g.sources {
		c, s := g.limiter.CallStats(src.ID())
		calls += c
		skipped += s
	}
	return calls, skipped
}

// Gather asks every source for a candidate. A source that errors, is rate
// limited out, or finds nothing contributes no candidate; it never aborts
// the gather. Context cancellation does abort, returning what was collected.
func (g *Gatherer) Gather(ctx context.Context, titleHint, authorHint string) []*Candidate {
	var candidates []*Candidate
	for _, src := range g.sources {
		if ctx.Err() != nil {
			return candidates
		}
		ok, err := g.limiter.Wait(ctx, src.ID())
		if err != nil {
			return candidates
		}
		if !ok {
			g.logger.Debug("lookup skipped, circuit open", logging.String("source", src.ID()))
			continue
		}
		cand, err := src.Lookup(ctx, titleHint, authorHint)
		if err != nil {
			g.limiter.ReportFailure(src.ID())
			g.logger.Warn("lookup source unavailable",
				logging.String("source", src.ID()),
				logging.Error(err))
			continue
		}
		g.limiter.ReportSuccess(src.ID())
		if cand == nil {
			continue
		}
		cand.Source = src.ID()
		candidates = append(candidates, cand)
	}
	return candidates
}

// Sweep gathers candidates both with and without the author hint, so a wrong
// on-disk author cannot hide the right match. Duplicates (same source, same
// identity) collapse to one entry.
func (g *Gatherer) Sweep(ctx context.Context, titleHint, authorHint string) []*Candidate {
	candidates := g.Gather(ctx, titleHint, authorHint)
	if authorHint != "" {
		candidates = append(candidates, g.Gather(ctx, titleHint, "")...)
	}

	seen := make(map[Candidate]struct{}, len(candidates))
	unique := candidates[:0]
	for _, cand := range candidates {
		key := *cand
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, cand)
	}
	return unique
}
