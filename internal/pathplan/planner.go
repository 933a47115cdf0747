// Package pathplan renders decided identities into sanitized, boundary-checked
// library locations. It never touches the filesystem; it only plans.
package pathplan

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"shelfmark/internal/config"
	"shelfmark/internal/identity"
	"shelfmark/internal/textutil"
)

// Naming format names accepted in configuration.
const (
	FormatAuthorTitle     = "author/title"
	FormatAuthorDashTitle = "author - title"
	FormatCustom          = "custom"
)

// PathDecision is the planner's output: a target inside the library root, or
// an explicit rejection. Never both.
type PathDecision struct {
	Target string
	Reason string
}

// Rejected reports whether planning failed.
func (d PathDecision) Rejected() bool {
	return d.Target == ""
}

// Planner builds target paths for one library root under one naming config.
type Planner struct {
	root   string
	naming config.Naming
}

// NewPlanner validates the root and returns a planner.
func NewPlanner(root string, naming config.Naming) (*Planner, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("pathplan: empty library root")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("pathplan: resolve root: %w", err)
	}
	return &Planner{root: abs, naming: naming}, nil
}

// Root returns the canonical library root.
func (p *Planner) Root() string {
	return p.root
}

// Plan renders the identity into a PathDecision. Author and title must both
// survive sanitization or the whole decision is a rejection; optional fields
// that fail sanitization are silently dropped instead.
func (p *Planner) Plan(id identity.Identity) PathDecision {
	author, ok := textutil.SanitizeComponent(id.Author)
	if !ok {
		return PathDecision{Reason: fmt.Sprintf("author %q does not sanitize to a safe path component", id.Author)}
	}
	title, ok := textutil.SanitizeComponent(id.Title)
	if !ok {
		return PathDecision{Reason: fmt.Sprintf("title %q does not sanitize to a safe path component", id.Title)}
	}

	series := sanitizeOptional(id.Series)
	titleFolder := p.decorateTitle(title, series, id)

	var target string
	switch p.naming.Format {
	case FormatCustom:
		rendered, err := p.renderTemplate(author, title, series, id)
		if err != nil {
			return PathDecision{Reason: err.Error()}
		}
		target = filepath.Join(append([]string{p.root}, rendered...)...)
	case FormatAuthorDashTitle:
		target = filepath.Join(p.root, author+" - "+titleFolder)
	default:
		if p.naming.SeriesGrouping && series != "" {
			target = filepath.Join(p.root, author, series, titleFolder)
		} else {
			target = filepath.Join(p.root, author, titleFolder)
		}
	}

	return p.check(target)
}

// PlanWithVariant retries planning with an extra distinguishing marker folded
// into the variant decoration ("Version B", a heard narrator, ...).
func (p *Planner) PlanWithVariant(id identity.Identity, marker string) PathDecision {
	if strings.TrimSpace(marker) == "" {
		return p.Plan(id)
	}
	if id.Variant != "" {
		id.Variant = id.Variant + ", " + marker
	} else {
		id.Variant = marker
	}
	return p.Plan(id)
}

// check canonicalizes the composed path and enforces library-root containment
// at depth >= 1. Escapes are rejections, never corrected.
func (p *Planner) check(target string) PathDecision {
	cleaned := filepath.Clean(target)
	rel, err := filepath.Rel(p.root, cleaned)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return PathDecision{Reason: fmt.Sprintf("target %q escapes library root %q", target, p.root)}
	}
	return PathDecision{Target: cleaned}
}

// decorateTitle applies the fixed decoration order: series-number prefix,
// [variant] or [edition] (variant wins), (year) only when neither edition
// nor variant claimed the version slot, then narrator — {curly} in the
// series-grouped layout, (parens) otherwise.
func (p *Planner) decorateTitle(title, series string, id identity.Identity) string {
	folder := title

	if p.naming.SeriesGrouping && series != "" && id.SeriesNum != "" {
		folder = FormatSeriesNum(id.SeriesNum) + " - " + folder
	}

	variant := sanitizeOptional(id.Variant)
	edition := sanitizeOptional(id.Edition)
	switch {
	case variant != "":
		folder += " [" + variant + "]"
	case edition != "":
		folder += " [" + edition + "]"
	case id.Year != "":
		if year := sanitizeOptional(id.Year); year != "" {
			folder += " (" + year + ")"
		}
	}

	if narrator := sanitizeOptional(id.Narrator); narrator != "" {
		if p.naming.SeriesGrouping {
			folder += " {" + narrator + "}"
		} else {
			folder += " (" + narrator + ")"
		}
	}
	return folder
}

var (
	emptyParensPattern   = regexp.MustCompile(`\(\s*\)`)
	emptyBracketsPattern = regexp.MustCompile(`\[\s*\]`)
	emptyBracesPattern   = regexp.MustCompile(`\{\s*\}`)
	danglingDashPattern  = regexp.MustCompile(`\s+-\s*(/|$)`)
	leadingDashPattern   = regexp.MustCompile(`(^|/)\s*-\s+`)
	multiSpacePattern    = regexp.MustCompile(`\s{2,}`)
)

// renderTemplate expands the custom template vocabulary and splits the
// result into sanitized components.
func (p *Planner) renderTemplate(author, title, series string, id identity.Identity) ([]string, error) {
	template := strings.TrimSpace(p.naming.CustomTemplate)
	if template == "" {
		template = "{author}/{title}"
	}

	replacer := strings.NewReplacer(
		"{author}", author,
		"{title}", title,
		"{series}", series,
		"{series_num}", formatOptionalSeriesNum(id.SeriesNum),
		"{narrator}", sanitizeOptional(id.Narrator),
		"{year}", sanitizeOptional(id.Year),
		"{edition}", sanitizeOptional(id.Edition),
		"{variant}", sanitizeOptional(id.Variant),
	)
	rendered := replacer.Replace(template)

	// Missing optional fields leave husks behind; sweep them up.
	rendered = emptyParensPattern.ReplaceAllString(rendered, "")
	rendered = emptyBracketsPattern.ReplaceAllString(rendered, "")
	rendered = emptyBracesPattern.ReplaceAllString(rendered, "")
	rendered = danglingDashPattern.ReplaceAllString(rendered, "$1")
	rendered = leadingDashPattern.ReplaceAllString(rendered, "$1")
	rendered = multiSpacePattern.ReplaceAllString(rendered, " ")
	rendered = strings.Trim(rendered, " /")

	var parts []string
	for _, part := range strings.Split(rendered, "/") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		clean, ok := textutil.SanitizeComponent(part)
		if !ok {
			return nil, fmt.Errorf("template component %q does not sanitize to a safe path component", part)
		}
		parts = append(parts, clean)
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("template %q rendered to an empty path", template)
	}
	return parts, nil
}

// FormatSeriesNum zero-pads whole series numbers to two digits so folders
// sort naturally; decimals ("1.5") pass through untouched.
func FormatSeriesNum(raw string) string {
	raw = strings.TrimSpace(raw)
	normalized := strings.ReplaceAll(raw, ",", ".")
	num, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return raw
	}
	if num == float64(int(num)) {
		return fmt.Sprintf("%02d", int(num))
	}
	return raw
}

func formatOptionalSeriesNum(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	return FormatSeriesNum(raw)
}

func sanitizeOptional(value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	clean, ok := textutil.SanitizeComponent(value)
	if !ok {
		return ""
	}
	return clean
}
