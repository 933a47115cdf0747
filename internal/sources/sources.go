// Package sources defines the lookup contract evidence providers implement
// and the shared machinery (rate limiting, gathering) the pipeline uses to
// consult them. Concrete HTTP clients live behind the Source interface.
package sources

import (
	"context"

	"shelfmark/internal/identity"
)

// Candidate is one provider's proposed identity for an item.
type Candidate struct {
	identity.Identity
	Source string `json:"source"`
}

// Source is a single lookup provider. Lookup must tolerate partial or absent
// hints and must return (nil, nil) on "not found" rather than an error;
// errors are reserved for the provider being unreachable or misbehaving.
type Source interface {
	ID() string
	Lookup(ctx context.Context, titleHint, authorHint string) (*Candidate, error)
}

// LookupFunc adapts a function into a Source.
type LookupFunc struct {
	SourceID string
	Fn       func(ctx context.Context, titleHint, authorHint string) (*Candidate, error)
}

func (l LookupFunc) ID() string { return l.SourceID }

func (l LookupFunc) Lookup(ctx context.Context, titleHint, authorHint string) (*Candidate, error) {
	return l.Fn(ctx, titleHint, authorHint)
}
