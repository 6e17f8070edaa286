package issue

import (
	"regexp"
	"strings"

	"github.com/coolbeans/hanrei/pkg/jtext"
	"github.com/coolbeans/hanrei/pkg/types"
)

// Strategies run against one of two views of the text: inline spaces
// collapsed with line breaks kept, or all whitespace removed.

var (
	// issueSectionPatterns capture the body of a "主な争点" section up to
	// the parties' arguments or the next top-level heading.
	issueSectionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?s)(?:主な)?争点[^\n]*\n(.*?)(?:主な争点に関する当事者|当事者の主張|第[３4４]|[４4]\s|\z)`),
		regexp.MustCompile(`(?s)[３3]\s*(?:主な)?争点[^\n]*\n?(.*?)(?:[４4]\s|第[３3]|\z)`),
	}
	parenClausePattern = regexp.MustCompile(`[（(][０-９0-9一二三四五六七八九十]+[）)]\s*([^（(\n]{5,150})`)

	argumentSectionPattern = regexp.MustCompile(`(?s)争点(?:及び[^\n]*)?(?:主張|の主張)[^\n]*\n(.*?)(?:第[３4４]|当裁判所の判断)`)
	numberedLinePattern    = regexp.MustCompile(`(?:^|\n)\s*[１２３４５６７８９0-9]+\s+([^\n（]{10,150})`)
	partyArgumentPattern   = regexp.MustCompile(`^[（(]?[被原]告の主張`)

	inlineNumberedPattern      = regexp.MustCompile(`争点[１２３４５６７８９0-9][（(]([^）)]{10,150})[）)]`)
	inlineParenthesizedPattern = regexp.MustCompile(`争点[（(][０-９0-9一二三四五六七八九]+[）)][^\n]{0,30}?([^）)]{10,100})`)

	declarativePattern   = regexp.MustCompile(`(?:本件の)?(?:主な)?争点は[、,]?\s*([^。]{10,200})(?:である|か否か)`)
	honkenPattern        = regexp.MustCompile(`争点\s*本件([^（(。]{10,150})`)
	specificallyPattern  = regexp.MustCompile(`争点\s*本件[^（]*[（(]具体的には[、,]?\s*([^）)]{10,200})[）)]`)
	honkenNoSotenPattern = regexp.MustCompile(`本件の?争点は[、,]?\s*([^。]{10,200})(?:である|か否か|とされる)`)

	originalNearIssuePatterns = []*regexp.Regexp{
		regexp.MustCompile(`争点[^。]{0,100}原判決[^。]{0,50}引用`),
		regexp.MustCompile(`原判決[^。]{0,50}争点[^。]{0,100}引用`),
		regexp.MustCompile(`争点[^。]{0,50}引用`),
	}

	dismissalPatterns = []*regexp.Regexp{
		regexp.MustCompile(`本件を上告審として受理しない`),
		regexp.MustCompile(`民訴法[３3][１1][８8]条[１1]項により受理すべきものとは認められない`),
		regexp.MustCompile(`本件上告を棄却する`),
	}

	originalBroadPatterns = []*regexp.Regexp{
		regexp.MustCompile(`当事者の主張は[^。]*原判決[^。]*引用`),
		regexp.MustCompile(`前提事実[^。]*原判決[^。]*引用`),
		regexp.MustCompile(`事実及び理由[^。]*原判決[^。]*引用`),
		regexp.MustCompile(`原判決[^。]*のとおり[^。]*引用`),
	}

	standingPattern = regexp.MustCompile(`訴訟要件に関する|訴えの適法性|訴えの利益`)

	caseDescriptionPattern = regexp.MustCompile(`本件は[、,]\s*([^。]{20,200}?)(?:として|ものとして|旨)[^。]*?(?:事案|求める)`)
)

const (
	minNumberedLine    = 10
	minCaseDescription = 15
	maxCaseDescription = 100
)

// sectionClauses reads "（１）…" clauses inside a 主な争点 section.
func sectionClauses(text, _ string) []string {
	norm := jtext.CollapseInlineSpace(text)
	for _, pattern := range issueSectionPatterns {
		m := pattern.FindStringSubmatch(norm)
		if m == nil {
			continue
		}
		var issues []string
		for _, clause := range parenClausePattern.FindAllStringSubmatch(m[1], -1) {
			if c := jtext.StripSpace(clause[1]); jtext.RuneLen(c) >= MinLength {
				issues = append(issues, c)
			}
		}
		if len(issues) > 0 {
			return issues
		}
	}
	return nil
}

// argumentSection reads numbered lines under a "争点及び当事者の主張"
// heading, skipping the parties' argument headers.
func argumentSection(text, _ string) []string {
	norm := jtext.CollapseInlineSpace(text)
	m := argumentSectionPattern.FindStringSubmatch(norm)
	if m == nil {
		return nil
	}
	var issues []string
	for _, line := range numberedLinePattern.FindAllStringSubmatch(m[1], -1) {
		c := jtext.StripSpace(line[1])
		if jtext.RuneLen(c) < minNumberedLine || partyArgumentPattern.MatchString(c) {
			continue
		}
		issues = append(issues, c)
	}
	return issues
}

// inlineNumbered reads "争点１（…）".
func inlineNumbered(text, _ string) []string {
	return allSubmatches(inlineNumberedPattern, jtext.StripSpace(text))
}

// inlineParenthesized reads "争点（１）…".
func inlineParenthesized(text, _ string) []string {
	return allSubmatches(inlineParenthesizedPattern, jtext.StripSpace(text))
}

// declarative reads "争点は、…である" and "争点は、…か否か".
func declarative(text, _ string) []string {
	return firstSubmatch(declarativePattern, jtext.CollapseInlineSpace(text))
}

// declarativeHonken reads "争点 本件…".
func declarativeHonken(text, _ string) []string {
	m := honkenPattern.FindStringSubmatch(jtext.CollapseInlineSpace(text))
	if m == nil {
		return nil
	}
	return []string{"本件" + jtext.StripSpace(m[1])}
}

// specifically reads the "（具体的には、…）" gloss after "争点 本件…".
func specifically(text, _ string) []string {
	return firstSubmatch(specificallyPattern, jtext.CollapseInlineSpace(text))
}

// honkenNoSoten reads "本件の争点は、…".
func honkenNoSoten(text, _ string) []string {
	return firstSubmatch(honkenNoSotenPattern, jtext.CollapseInlineSpace(text))
}

// originalJudgmentNearIssue marks judgments that adopt the issues of the
// original judgment by reference.
func originalJudgmentNearIssue(text, _ string) []string {
	compact := jtext.StripSpace(text)
	if !strings.Contains(compact, "原判決") || !strings.Contains(compact, "引用") {
		return nil
	}
	return markIfAny(originalNearIssuePatterns, compact, types.SentinelOriginalJudgment)
}

// dismissal marks appeals and petitions rejected outright.
func dismissal(text, _ string) []string {
	return markIfAny(dismissalPatterns, jtext.StripSpace(text), types.SentinelDismissed)
}

// originalJudgmentBroad catches looser incorporation-by-reference phrasings.
func originalJudgmentBroad(text, _ string) []string {
	return markIfAny(originalBroadPatterns, jtext.StripSpace(text), types.SentinelOriginalJudgment)
}

// standing marks disputes about whether the suit may be brought at all.
func standing(text, _ string) []string {
	if standingPattern.MatchString(jtext.StripSpace(text)) {
		return []string{types.SentinelStanding}
	}
	return nil
}

// caseDescription falls back to the "本件は、…事案である" summary.
func caseDescription(text, _ string) []string {
	m := caseDescriptionPattern.FindStringSubmatch(jtext.CollapseInlineSpace(text))
	if m == nil {
		return nil
	}
	c := jtext.StripSpace(m[1])
	if jtext.RuneLen(c) < minCaseDescription {
		return nil
	}
	return []string{jtext.Truncate(c, maxCaseDescription)}
}

func allSubmatches(re *regexp.Regexp, text string) []string {
	var out []string
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		if c := strings.TrimSpace(m[1]); jtext.RuneLen(c) >= minNumberedLine {
			out = append(out, c)
		}
	}
	return out
}

func firstSubmatch(re *regexp.Regexp, text string) []string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	if c := jtext.StripSpace(m[1]); c != "" {
		return []string{c}
	}
	return nil
}

func markIfAny(patterns []*regexp.Regexp, text, marker string) []string {
	for _, re := range patterns {
		if re.MatchString(text) {
			return []string{marker}
		}
	}
	return nil
}
