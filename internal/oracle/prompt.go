package oracle

import (
	"fmt"
	"strings"
)

// verificationPrompt captures the instructions sent with every verification
// request. Keep updates centralized here so it is easy to tweak without
// hunting through call sites.
const verificationPrompt = `You are an assistant that verifies audiobook identity corrections.

You are given the CURRENT identity of an audiobook as stored on disk, a PROPOSED corrected identity, and a list of CANDIDATE matches found by database lookups (each tagged with the source that found it).

Decide whether the proposed correction is right:

- "CORRECT": the proposed identity matches the real book. Prefer this when multiple independent candidates corroborate the proposed author and title.

- "WRONG": the proposed identity is a mismatch (a different book, a different author's work, or a garbled match). When you answer WRONG, fill in recommended_author and recommended_title with the identity you believe is right - which may be the current one.

- "UNCERTAIN": the evidence is contradictory or too thin to decide. Never guess; uncertain answers are routed to a human.

Rules:

- Author name variants (initials, middle names, transliterations) are the same author, not a mismatch.

- A proposed author who has never written a book with this title is a strong WRONG signal.

- Candidates from multiple unrelated sources agreeing on one author outweigh a single dissenting source.

You must respond ONLY with a JSON object like: {"decision": "CORRECT", "recommended_author": "", "recommended_title": "", "reasoning": "short explanation", "confidence": "HIGH"}

confidence must be one of "HIGH", "MEDIUM", "LOW".`

func buildUserPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CURRENT: %s\n", req.Original.Label())
	fmt.Fprintf(&b, "PROPOSED: %s\n", req.Proposed.Label())
	if len(req.Candidates) == 0 {
		b.WriteString("CANDIDATES: none found\n")
		return b.String()
	}
	b.WriteString("CANDIDATES:\n")
	for _, cand := range req.Candidates {
		fmt.Fprintf(&b, "- [%s] %s", cand.Source, cand.Label())
		if cand.Series != "" {
			fmt.Fprintf(&b, " (series: %s", cand.Series)
			if cand.SeriesNum != "" {
				fmt.Fprintf(&b, " #%s", cand.SeriesNum)
			}
			b.WriteString(")")
		}
		if cand.Year != "" {
			fmt.Fprintf(&b, " (%s)", cand.Year)
		}
		b.WriteString("\n")
	}
	return b.String()
}
