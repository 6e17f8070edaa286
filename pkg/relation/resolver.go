// Package relation links appellate judgments that incorporate a lower-court
// judgment by reference to that originating case, and settles citation
// sentinels for cases that remain without citations.
package relation

import (
	"regexp"
	"strings"

	"github.com/coolbeans/hanrei/pkg/jtext"
	"github.com/coolbeans/hanrei/pkg/rules"
	"github.com/coolbeans/hanrei/pkg/types"
)

// Status indicates the outcome of resolving a case.
type Status string

const (
	StatusNoInheritance Status = "no_inheritance"
	StatusDismissed     Status = "dismissed"
	StatusInherited     Status = "inherited"
	StatusMarkerOnly    Status = "marker_only" // Incorporates the original, which has no usable citations
	StatusFallback      Status = "fallback"
)

// Resolution is the result of resolving one case against the corpus.
type Resolution struct {
	Status       Status
	Laws         []string
	OriginalCase string
	LawsSource   types.LawsSource
	JudgmentType types.JudgmentType
	Reason       string
}

// Apply writes the resolution onto c. A StatusNoInheritance resolution
// leaves c untouched.
func (r Resolution) Apply(c *types.Case) {
	if r.Status == StatusNoInheritance {
		return
	}
	c.Laws = append([]string(nil), r.Laws...)
	if r.OriginalCase != "" {
		c.OriginalCase = r.OriginalCase
	}
	if r.LawsSource != "" {
		c.LawsSource = r.LawsSource
	}
	if r.JudgmentType != "" {
		c.JudgmentType = r.JudgmentType
	}
}

var (
	dismissalPatterns = []*regexp.Regexp{
		regexp.MustCompile(`本件を上告審として受理しない`),
		regexp.MustCompile(`民訴法(?:３１８|318)条(?:１|1)項により受理すべきものとは認められない`),
		regexp.MustCompile(`本件上告を棄却する`),
		regexp.MustCompile(`上告受理の申立て.*理由がない`),
		regexp.MustCompile(`上告を棄却する`),
		regexp.MustCompile(`上告についての上告理由がない`),
		regexp.MustCompile(`上告受理申立ての理由がない`),
	}

	citationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`原判決.*事実及び理由.*記載のとおり.*引用`),
		regexp.MustCompile(`理由は.*原判決.*記載のとおり`),
		regexp.MustCompile(`原判決.*引用する`),
		regexp.MustCompile(`当裁判所.*原判決.*引用`),
	}

	appealSuffix   = regexp.MustCompile(`(?:控訴|上告受理申立|上告)事件$`)
	appealReversal = regexp.MustCompile(`控訴審判決取消等?`)
)

// IsDismissal reports whether text rejects an appeal or petition outright.
func IsDismissal(text string) bool {
	return matchAny(dismissalPatterns, jtext.StripSpace(text))
}

// IsCitation reports whether text incorporates the original judgment's facts
// and reasons by reference.
func IsCitation(text string) bool {
	return matchAny(citationPatterns, jtext.StripSpace(text))
}

func matchAny(patterns []*regexp.Regexp, text string) bool {
	for _, re := range patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// BaseTitle strips appeal and petition suffixes from a case title so it
// can be compared with the title of the originating case.
func BaseTitle(title string) string {
	base := appealSuffix.ReplaceAllString(title, "事件")
	base = appealReversal.ReplaceAllString(base, "")
	return strings.TrimSpace(base)
}

// Resolver links cases to their originating judgments.
type Resolver struct {
	rules *rules.Rules
}

// NewResolver creates a resolver ranking courts with r.
func NewResolver(r *rules.Rules) *Resolver {
	return &Resolver{rules: r}
}

// FindOriginal returns the first case in corpus order that sits strictly
// below c in the court hierarchy and whose title equals or contains c's
// base title.
func (r *Resolver) FindOriginal(c *types.Case, corpus *types.Corpus) (*types.Case, bool) {
	if corpus == nil {
		return nil, false
	}
	level := r.rules.CourtLevel(c.Court)
	base := BaseTitle(c.Title)
	if base == "" {
		return nil, false
	}

	for _, candidate := range corpus.Cases() {
		if candidate.Number == c.Number {
			continue
		}
		if !r.rules.CourtLevel(candidate.Court).Below(level) {
			continue
		}
		if candidate.Title == base || strings.Contains(candidate.Title, base) {
			return candidate, true
		}
	}
	return nil, false
}

// Resolve decides how a case without citations relates to the corpus.
// Dismissals take precedence over incorporation by reference.
func (r *Resolver) Resolve(c *types.Case, text string, corpus *types.Corpus) Resolution {
	if IsDismissal(text) {
		return Resolution{
			Status:       StatusDismissed,
			Laws:         []string{types.SentinelDismissed},
			JudgmentType: types.JudgmentTypeDismissal,
			Reason:       "appeal or petition dismissed",
		}
	}

	if !IsCitation(text) {
		return Resolution{Status: StatusNoInheritance}
	}

	original, ok := r.FindOriginal(c, corpus)
	if !ok || len(original.Laws) == 0 {
		reason := "original judgment not in corpus"
		if ok {
			reason = "original judgment has no citations"
		}
		return Resolution{
			Status:       StatusMarkerOnly,
			Laws:         []string{types.SentinelOriginalJudgment},
			JudgmentType: types.JudgmentTypeAppealRejected,
			Reason:       reason,
		}
	}

	laws := make([]string, 0, len(original.Laws)+1)
	laws = append(laws, types.SentinelOriginalJudgment)
	laws = append(laws, original.Laws...)
	return Resolution{
		Status:       StatusInherited,
		Laws:         laws,
		OriginalCase: original.Number,
		LawsSource:   types.LawsSourceInherited,
		Reason:       "citations inherited from " + original.Number,
	}
}
