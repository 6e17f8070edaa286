// Package rules holds the immutable lookup tables that drive extraction:
// the law registry, abbreviation forms, title and tax keyword tables, court
// rankings and topic keywords.
//
// Rules are loaded once, validated, compiled and then passed explicitly to
// every component. Nothing in this package is mutated after Compile.
package rules

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/coolbeans/hanrei/pkg/types"
)

//go:embed default.yaml
var defaultYAML []byte

// Abbreviation is a short citation form mapped to a canonical law name.
type Abbreviation struct {
	// Pattern is a regular expression fragment placed before the article number.
	Pattern string `yaml:"pattern"`
	Law     string `yaml:"law"`
	// Circular forms are followed by a bare number with no 条 (評基通24).
	Circular bool `yaml:"circular,omitempty"`
}

// Mapping pairs a keyword with the value it implies.
type Mapping struct {
	Keyword string `yaml:"keyword"`
	Value   string `yaml:"value"`
}

// CourtRank assigns a hierarchy level to court names containing Match.
type CourtRank struct {
	Match string `yaml:"match"`
	Level int    `yaml:"level"`
}

// Topic tags a case with Label when Pattern matches.
type Topic struct {
	Pattern string `yaml:"pattern"`
	Label   string `yaml:"label"`

	re *regexp.Regexp
}

// Match reports whether the topic pattern occurs in text.
func (t *Topic) Match(text string) bool {
	return t.re != nil && t.re.MatchString(text)
}

// Rules is the full rule set.
type Rules struct {
	Version       string         `yaml:"version"`
	Laws          []string       `yaml:"laws"`
	Abbreviations []Abbreviation `yaml:"abbreviations"`
	TitleLaws     []Mapping      `yaml:"title_laws"`
	LawTaxes      []Mapping      `yaml:"law_taxes"`
	TitleTaxes    []Mapping      `yaml:"title_taxes"`
	BodyTaxes     []string       `yaml:"body_taxes"`
	ActionPattern string         `yaml:"action_pattern"`
	ActionWindow  int            `yaml:"action_window"`
	Courts        []CourtRank    `yaml:"courts"`
	Results       []string       `yaml:"results"`
	TopicLimit    int            `yaml:"topic_limit"`
	Topics        []Topic        `yaml:"topics"`

	compiled bool
}

// Default returns the built-in rule set.
func Default() (*Rules, error) {
	r, err := Parse(defaultYAML)
	if err != nil {
		return nil, fmt.Errorf("built-in rules: %w", err)
	}
	return r, nil
}

// MustDefault is like Default but panics on error. The embedded table is
// covered by tests, so a failure here is a build defect.
func MustDefault() *Rules {
	r, err := Default()
	if err != nil {
		panic(err)
	}
	return r
}

// Load reads, validates and compiles a rule file.
func Load(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Parse decodes YAML rule data, then validates and compiles it.
func Parse(data []byte) (*Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	if errs := r.Validate(); len(errs) > 0 {
		return nil, errs
	}
	if err := r.Compile(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Marshal renders the rule set as YAML.
func (r *Rules) Marshal() ([]byte, error) {
	return yaml.Marshal(r)
}

// Compile prepares the regular expressions used by the rule set.
func (r *Rules) Compile() error {
	if r.compiled {
		return nil
	}
	for i := range r.Topics {
		re, err := regexp.Compile(r.Topics[i].Pattern)
		if err != nil {
			return fmt.Errorf("compiling topic %q: %w", r.Topics[i].Label, err)
		}
		r.Topics[i].re = re
	}
	r.compiled = true
	return nil
}

// IsCompiled reports whether Compile has run.
func (r *Rules) IsCompiled() bool {
	return r.compiled
}

// CourtLevel ranks a court name. Unmatched names rank CourtLevelUnknown.
func (r *Rules) CourtLevel(court string) types.CourtLevel {
	for _, rank := range r.Courts {
		if strings.Contains(court, rank.Match) {
			return types.CourtLevel(rank.Level)
		}
	}
	return types.CourtLevelUnknown
}

// TitleLaw infers the governing law from a case title.
func (r *Rules) TitleLaw(title string) (string, bool) {
	for _, m := range r.TitleLaws {
		if strings.Contains(title, m.Keyword) {
			return m.Value, true
		}
	}
	return "", false
}

// LawTax returns the tax category implied by a citation string.
func (r *Rules) LawTax(citation string) (string, bool) {
	for _, m := range r.LawTaxes {
		if strings.Contains(citation, m.Keyword) {
			return m.Value, true
		}
	}
	return "", false
}

// TitleTaxCategories returns every tax category whose keyword occurs in title.
func (r *Rules) TitleTaxCategories(title string) []string {
	var taxes []string
	for _, m := range r.TitleTaxes {
		if strings.Contains(title, m.Keyword) {
			taxes = append(taxes, m.Value)
		}
	}
	return taxes
}
