// Package issue locates the disputed issues of a judgment with an ordered
// cascade of extraction strategies. The first strategy that yields a usable
// issue wins, so explicit issue sections always beat inference from prose.
package issue

import (
	"github.com/coolbeans/hanrei/pkg/jtext"
)

// Limits on extracted issues.
const (
	MinLength = 5
	MaxLength = 150
	MaxIssues = 10
)

// Strategy extracts candidate issues from judgment text and title.
type Strategy func(text, title string) []string

// FirstNonEmpty combines strategies so that the first one returning at
// least one result answers for all of them.
func FirstNonEmpty(strategies ...Strategy) Strategy {
	return func(text, title string) []string {
		for _, s := range strategies {
			if out := s(text, title); len(out) > 0 {
				return out
			}
		}
		return nil
	}
}

// Normalized wraps s so that its output is whitespace-stripped, limited to
// MinLength..MaxLength runes, de-duplicated and capped at MaxIssues.
func Normalized(s Strategy) Strategy {
	return func(text, title string) []string {
		return normalize(s(text, title))
	}
}

func normalize(candidates []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range candidates {
		c = jtext.StripSpace(c)
		n := jtext.RuneLen(c)
		if n < MinLength || n > MaxLength || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
		if len(out) == MaxIssues {
			break
		}
	}
	return out
}

// step is a named cascade entry.
type step struct {
	name     string
	strategy Strategy
}

// Extractor runs the issue cascade.
type Extractor struct {
	steps   []step
	cascade Strategy
}

// NewExtractor builds the standard thirteen-step cascade.
func NewExtractor() *Extractor {
	e := &Extractor{steps: []step{
		{"section_clauses", sectionClauses},
		{"argument_section", argumentSection},
		{"inline_numbered", inlineNumbered},
		{"inline_parenthesized", inlineParenthesized},
		{"declarative", declarative},
		{"declarative_honken", declarativeHonken},
		{"specifically", specifically},
		{"honken_no_soten", honkenNoSoten},
		{"original_judgment", originalJudgmentNearIssue},
		{"dismissal", dismissal},
		{"original_judgment_broad", originalJudgmentBroad},
		{"standing", standing},
		{"case_description", caseDescription},
	}}

	strategies := make([]Strategy, len(e.steps))
	for i, s := range e.steps {
		strategies[i] = Normalized(s.strategy)
	}
	e.cascade = FirstNonEmpty(strategies...)
	return e
}

// Extract returns at most MaxIssues issues for the judgment, or nil when no
// strategy matched.
func (e *Extractor) Extract(text, title string) []string {
	return e.cascade(text, title)
}

// Match is like Extract but also names the strategy that produced the
// issues. The name is empty when nothing matched.
func (e *Extractor) Match(text, title string) ([]string, string) {
	for _, s := range e.steps {
		if out := normalize(s.strategy(text, title)); len(out) > 0 {
			return out, s.name
		}
	}
	return nil, ""
}

// StrategyNames lists the cascade in order.
func (e *Extractor) StrategyNames() []string {
	names := make([]string, len(e.steps))
	for i, s := range e.steps {
		names[i] = s.name
	}
	return names
}
