package citation

import (
	"regexp"
	"sort"

	"github.com/coolbeans/hanrei/pkg/jtext"
	"github.com/coolbeans/hanrei/pkg/numeral"
	"github.com/coolbeans/hanrei/pkg/rules"
)

// SameLaw is the referent used for a law named earlier in the text.
const SameLaw = "同法"

// Limits caps how many citations are kept. Zero means no cap.
type Limits struct {
	PerLaw int
	Total  int
}

// LegacyLimits reproduces the caps of the older metadata pass: five
// articles per law and ten overall. Long judgments lose valid citations
// under these caps.
var LegacyLimits = Limits{PerLaw: 5, Total: 10}

// lawPattern is a compiled search for one law or abbreviation form.
type lawPattern struct {
	law string
	re  *regexp.Regexp
}

// Extractor finds citations in judgment text.
type Extractor struct {
	rules   *rules.Rules
	limits  Limits
	laws    []lawPattern
	abbrevs []lawPattern
	sameLaw *regexp.Regexp
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLimits sets citation caps.
func WithLimits(limits Limits) Option {
	return func(e *Extractor) {
		e.limits = limits
	}
}

// articleSuffix matches an optional 第, the article number and 条, with an
// optional の sub-article.
const articleSuffix = `第?(` + numeral.Run + `)条(?:の(` + numeral.Run + `))?`

// NewExtractor compiles the law registry and abbreviation forms of r.
func NewExtractor(r *rules.Rules, opts ...Option) *Extractor {
	e := &Extractor{
		rules:   r,
		sameLaw: regexp.MustCompile(SameLaw + articleSuffix),
	}
	for _, opt := range opts {
		opt(e)
	}

	for _, law := range r.Laws {
		e.laws = append(e.laws, lawPattern{
			law: law,
			re:  regexp.MustCompile(regexp.QuoteMeta(law) + articleSuffix),
		})
	}
	for _, abbr := range r.Abbreviations {
		pattern := `(?:` + abbr.Pattern + `)` + articleSuffix
		if abbr.Circular {
			pattern = `(?:` + abbr.Pattern + `)(` + numeral.Run + `)`
		}
		e.abbrevs = append(e.abbrevs, lawPattern{law: abbr.Law, re: regexp.MustCompile(pattern)})
	}

	return e
}

// Extract returns the sorted, de-duplicated citations found in text. The
// title is consulted only to resolve 同法 when nothing else was found.
func (e *Extractor) Extract(text, title string) []string {
	found := newCitationSet(e.limits)

	compact := jtext.StripSpace(text)
	stripped := jtext.StripParentheticals(compact)

	for _, lp := range e.laws {
		collect(found, lp.law, lp.re, stripped)
		collect(found, lp.law, lp.re, compact)
	}
	for _, lp := range e.abbrevs {
		collect(found, lp.law, lp.re, stripped)
	}

	if found.Len() == 0 {
		if law, ok := e.rules.TitleLaw(title); ok {
			collect(found, law, e.sameLaw, stripped)
		}
	}

	return found.Sorted()
}

// Citations is like Extract but returns parsed citations.
func (e *Extractor) Citations(text, title string) []Citation {
	var out []Citation
	for _, s := range e.Extract(text, title) {
		if c, ok := Parse(s); ok {
			out = append(out, c)
		}
	}
	return out
}

func collect(set *citationSet, law string, re *regexp.Regexp, text string) {
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		c := Citation{Law: law, Article: numeral.Normalize(m[1])}
		if len(m) > 2 && m[2] != "" {
			c.Sub = numeral.Normalize(m[2])
		}
		set.Add(c)
	}
}

// citationSet keeps distinct citations in discovery order and applies the
// per-law cap as they arrive.
type citationSet struct {
	limits Limits
	seen   map[string]bool
	perLaw map[string]int
	order  []string
}

func newCitationSet(limits Limits) *citationSet {
	return &citationSet{
		limits: limits,
		seen:   make(map[string]bool),
		perLaw: make(map[string]int),
	}
}

func (s *citationSet) Add(c Citation) {
	key := c.String()
	if s.seen[key] {
		return
	}
	if s.limits.PerLaw > 0 && s.perLaw[c.Law] >= s.limits.PerLaw {
		return
	}
	s.seen[key] = true
	s.perLaw[c.Law]++
	s.order = append(s.order, key)
}

func (s *citationSet) Len() int {
	return len(s.order)
}

// Sorted returns the citations in lexical order, truncated to the total
// cap when one is set.
func (s *citationSet) Sorted() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	sort.Strings(out)
	if s.limits.Total > 0 && len(out) > s.limits.Total {
		out = out[:s.limits.Total]
	}
	return out
}
