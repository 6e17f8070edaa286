// Package taxcat assigns tax-category tags to cases from several evidence
// sources tried in priority order.
package taxcat

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/coolbeans/hanrei/pkg/rules"
	"github.com/coolbeans/hanrei/pkg/types"
)

// Source names the evidence a tag list came from.
type Source string

const (
	SourceExplicit Source = "explicit"
	SourceLaws     Source = "laws"
	SourceTitle    Source = "title"
	SourceBody     Source = "body"
	SourceOriginal Source = "original"
	SourceUnknown  Source = "unknown"
)

// Sources lists every source in cascade order.
var Sources = []Source{SourceExplicit, SourceLaws, SourceTitle, SourceBody, SourceOriginal, SourceUnknown}

// Result is a classification outcome.
type Result struct {
	Tags   []string
	Source Source
}

type bodyPattern struct {
	tax string
	re  *regexp.Regexp
}

// Classifier maps case evidence onto the closed tax vocabulary.
type Classifier struct {
	rules *rules.Rules
	body  []bodyPattern
}

// NewClassifier compiles the body proximity patterns of r. A tax name in
// the body counts only when an administrative action keyword follows it
// within r.ActionWindow runes on the same line.
func NewClassifier(r *rules.Rules) (*Classifier, error) {
	c := &Classifier{rules: r}
	for _, tax := range r.BodyTaxes {
		expr := fmt.Sprintf(`%s.{0,%d}(?:%s)`, regexp.QuoteMeta(tax), r.ActionWindow, r.ActionPattern)
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("compiling body pattern for %s: %w", tax, err)
		}
		c.body = append(c.body, bodyPattern{tax: tax, re: re})
	}
	return c, nil
}

// Classify returns the tags for c. The first source that yields a tag wins;
// when none does, the result is the unknown sentinel. text is the case's
// full text and may be empty. corpus is consulted for the origin case
// named by c.OriginalCase and may be nil.
func (c *Classifier) Classify(record *types.Case, text string, corpus *types.Corpus) Result {
	if tags := types.Genuine(record.Topics); len(tags) > 0 {
		return result(tags, SourceExplicit)
	}
	if tags := c.FromLaws(record.Laws); len(tags) > 0 {
		return result(tags, SourceLaws)
	}
	if tags := c.FromTitle(record.Title); len(tags) > 0 {
		return result(tags, SourceTitle)
	}
	if tags := c.FromBody(text); len(tags) > 0 {
		return result(tags, SourceBody)
	}
	if tags := FromOriginal(record, corpus); len(tags) > 0 {
		return result(tags, SourceOriginal)
	}
	return Result{Tags: []string{types.SentinelTaxUnknown}, Source: SourceUnknown}
}

// FromLaws infers categories from citation law names. Sentinels are skipped.
func (c *Classifier) FromLaws(laws []string) []string {
	var tags []string
	for _, law := range types.Genuine(laws) {
		if tax, ok := c.rules.LawTax(law); ok {
			tags = append(tags, tax)
		}
	}
	return tags
}

// FromTitle infers categories from title keywords.
func (c *Classifier) FromTitle(title string) []string {
	return c.rules.TitleTaxCategories(title)
}

// FromBody infers categories from tax names followed closely by an
// administrative action keyword.
func (c *Classifier) FromBody(text string) []string {
	if text == "" {
		return nil
	}
	var tags []string
	for _, p := range c.body {
		if p.re.MatchString(text) {
			tags = append(tags, p.tax)
		}
	}
	return tags
}

// FromOriginal returns the genuine tags of the case's origin.
func FromOriginal(record *types.Case, corpus *types.Corpus) []string {
	if record.OriginalCase == "" || corpus == nil {
		return nil
	}
	origin, ok := corpus.Get(record.OriginalCase)
	if !ok {
		return nil
	}
	return types.Genuine(origin.TaxTypes)
}

func result(tags []string, source Source) Result {
	return Result{Tags: dedupeSorted(tags), Source: source}
}

func dedupeSorted(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if !seen[tag] {
			seen[tag] = true
			out = append(out, tag)
		}
	}
	sort.Strings(out)
	return out
}
