// Package types provides the core domain types for structured tax judgments.
package types

import (
	"errors"
	"strings"
)

var (
	// ErrMalformedInput marks text that is too short or unusable for an
	// extraction pass. The case is skipped for that pass.
	ErrMalformedInput = errors.New("malformed input")

	// ErrNotFound is returned when a case or its source text is missing.
	ErrNotFound = errors.New("not found")
)

// Sentinel markers are out-of-band values stored alongside genuine content in
// the laws, issue and tax_type lists. They are wrapped in full-width
// parentheses so consumers can tell them apart.
const (
	SentinelOriginalJudgment = "（原判決引用）"
	SentinelDismissed        = "（上告受理申立却下）"
	SentinelStanding         = "（訴訟要件）"
	SentinelAccepted         = "（上告受理決定）"
	SentinelDamages          = "（損害賠償請求）"
	SentinelNoProvision      = "（条文参照なし）"
	SentinelTaxUnknown       = "（税目情報なし）"
)

// IsSentinel reports whether value is a marker rather than genuine content.
func IsSentinel(value string) bool {
	return strings.HasPrefix(value, "（") && strings.HasSuffix(value, "）")
}

// Genuine returns the values of list that are not sentinel markers.
func Genuine(list []string) []string {
	var genuine []string
	for _, value := range list {
		if !IsSentinel(value) {
			genuine = append(genuine, value)
		}
	}
	return genuine
}

// JudgmentType classifies how a case's citations were settled.
type JudgmentType string

const (
	JudgmentTypeDismissal      JudgmentType = "dismissal"
	JudgmentTypeAppealRejected JudgmentType = "appeal_rejected"
	JudgmentTypeAcceptance     JudgmentType = "acceptance"
)

// LawsSource records where a case's citations came from.
type LawsSource string

const (
	LawsSourceExtracted LawsSource = "extracted"
	LawsSourceInherited LawsSource = "inherited"
)

// Case is one judgment record. The JSON names of the first nine fields are
// the persisted contract consumed by renderers.
type Case struct {
	Number       string   `json:"number"`
	Title        string   `json:"title"`
	Court        string   `json:"court"`
	Date         string   `json:"date"`
	Result       string   `json:"result"`
	Laws         []string `json:"laws"`
	Issues       []string `json:"issue"`
	TaxTypes     []string `json:"tax_type"`
	OriginalCase string   `json:"original_case,omitempty"`

	DateISO      string       `json:"date_iso,omitempty"`
	Topics       []string     `json:"topics,omitempty"`
	Keywords     []string     `json:"keywords,omitempty"`
	LawsSource   LawsSource   `json:"laws_source,omitempty"`
	JudgmentType JudgmentType `json:"judgment_type,omitempty"`
	Sections     []Section    `json:"sections,omitempty"`
}

// Normalize replaces nil list fields with empty slices so the record
// serializes with explicit empty arrays.
func (c *Case) Normalize() {
	if c.Laws == nil {
		c.Laws = []string{}
	}
	if c.Issues == nil {
		c.Issues = []string{}
	}
	if c.TaxTypes == nil {
		c.TaxTypes = []string{}
	}
}

// HasGenuineLaws reports whether the case carries at least one real citation.
func (c *Case) HasGenuineLaws() bool {
	return len(Genuine(c.Laws)) > 0
}

// Clone returns a deep copy of the case.
func (c *Case) Clone() *Case {
	clone := *c
	clone.Laws = cloneStrings(c.Laws)
	clone.Issues = cloneStrings(c.Issues)
	clone.TaxTypes = cloneStrings(c.TaxTypes)
	clone.Topics = cloneStrings(c.Topics)
	clone.Keywords = cloneStrings(c.Keywords)
	if c.Sections != nil {
		clone.Sections = make([]Section, len(c.Sections))
		copy(clone.Sections, c.Sections)
	}
	return &clone
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}

// SectionLabel names the kind of heading a section was cut at.
type SectionLabel string

const (
	SectionDisposition     SectionLabel = "disposition"
	SectionFactsAndReasons SectionLabel = "facts_and_reasons"
	SectionNumbered        SectionLabel = "numbered"
	SectionBody            SectionLabel = "body"
)

// Section is a labeled span of a judgment's full text. Start and End are
// byte offsets into the text the section was cut from.
type Section struct {
	Title   string       `json:"title"`
	Label   SectionLabel `json:"label"`
	Level   int          `json:"level"`
	Start   int          `json:"start"`
	End     int          `json:"end"`
	Content string       `json:"content"`
}
