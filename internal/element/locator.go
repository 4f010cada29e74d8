package element

import (
	"strings"
	"unicode/utf8"

	"github.com/hpungsan/ghost/internal/jslit"
)

// StrategyKind identifies how a locator selects its element.
type StrategyKind string

const (
	IDBased    StrategyKind = "id"
	TextBased  StrategyKind = "text"
	TagBased   StrategyKind = "tag"
	ClassBased StrategyKind = "class"
)

// LocatorCandidate is one locator expression and the strategy that produced it.
type LocatorCandidate struct {
	Expression string       `json:"expression" yaml:"expression"`
	Kind       StrategyKind `json:"kind" yaml:"kind"`
}

// Options tunes candidate generation.
type Options struct {
	// TextMaxLen is the exclusive rune cap for a text candidate. 0 means DefaultTextMaxLen.
	TextMaxLen int
}

// Generate derives locator candidates for e, most specific first:
// id, text containment, tag, first class. The tag candidate is always present,
// so the result is never empty. Candidates are not deduplicated.
func Generate(e RawElement, opts Options) []LocatorCandidate {
	maxLen := opts.TextMaxLen
	if maxLen <= 0 {
		maxLen = DefaultTextMaxLen
	}

	candidates := make([]LocatorCandidate, 0, 4)

	if e.ID != "" {
		candidates = append(candidates, LocatorCandidate{
			Expression: "cy.get(" + jslit.Quote("#"+e.ID) + ")",
			Kind:       IDBased,
		})
	}

	if e.Text != "" && utf8.RuneCountInString(e.Text) < maxLen {
		candidates = append(candidates, LocatorCandidate{
			Expression: "cy.contains(" + jslit.Quote(e.Text) + ")",
			Kind:       TextBased,
		})
	}

	tag := e.Tag
	if tag == "" {
		tag = "*"
	}
	candidates = append(candidates, LocatorCandidate{
		Expression: "cy.get(" + jslit.Quote(tag) + ")",
		Kind:       TagBased,
	})

	// First class only; compound class lists would multiply candidates.
	if classes := strings.Fields(e.ClassName); len(classes) > 0 {
		candidates = append(candidates, LocatorCandidate{
			Expression: "cy.get(" + jslit.Quote("."+classes[0]) + ")",
			Kind:       ClassBased,
		})
	}

	return candidates
}

// Default returns the pre-selected candidate: the first one.
func Default(candidates []LocatorCandidate) (LocatorCandidate, bool) {
	if len(candidates) == 0 {
		return LocatorCandidate{}, false
	}
	return candidates[0], true
}
