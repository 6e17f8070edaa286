package judgment

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/coolbeans/hanrei/pkg/types"
)

// Heading titles of the fixed vocabulary.
const (
	TitleDisposition     = "主文"
	TitleFactsAndReasons = "事実及び理由"
	TitleBody            = "本文"
)

// Distances are counted in runes from the disposition anchor.
const (
	factsMinOffset    = 20
	numberedMinOffset = 10
	mergeDistance     = 50
)

var (
	dispositionPattern = regexp.MustCompile(`主[\s\x{3000}]*文`)
	factsPattern       = regexp.MustCompile(TitleFactsAndReasons)

	// numberedPattern matches "第１ 当事者の主張" style headings. The title
	// is at most 20 kana or kanji.
	numberedPattern = regexp.MustCompile(`第([１２３４５６７８９0-9一二三四五六七八九十]+)[\s\x{3000}]+([ぁ-んァ-ン一-龯々]{1,20})`)

	dispositionHead = regexp.MustCompile(`^主[\s\x{3000}]*文[\s\x{3000}]*`)
	factsHead       = regexp.MustCompile(`^事実及び理由[\s\x{3000}]*`)
	numberedHead    = regexp.MustCompile(`^第[１２３４５６７８９0-9一二三四五六七八九十]+[\s\x{3000}]+[ぁ-んァ-ン一-龯々]{1,20}[\s\x{3000}]*`)
)

// heading is a candidate section start. pos is a byte offset into the text
// that follows the disposition anchor; runePos counts runes from the same
// point.
type heading struct {
	pos     int
	runePos int
	title   string
	label   types.SectionLabel
	level   int
}

// Segment splits cleaned judgment text into labeled sections. Text with no
// 主文 anchor comes back as a single body section.
//
// Sections are contiguous: each one ends where the next starts and the last
// runs to the end of the text, so together they cover everything from the
// anchor onward exactly once. Offsets are byte offsets into text.
func Segment(text string) []types.Section {
	loc := dispositionPattern.FindStringIndex(text)
	if loc == nil {
		return []types.Section{{
			Title:   TitleBody,
			Label:   types.SectionBody,
			Level:   1,
			Start:   0,
			End:     len(text),
			Content: strings.TrimSpace(text),
		}}
	}

	anchor := loc[0]
	main := text[anchor:]
	headings := filterHeadings(findHeadings(main))

	sections := make([]types.Section, 0, len(headings))
	for i, h := range headings {
		end := len(main)
		if i+1 < len(headings) {
			end = headings[i+1].pos
		}
		sections = append(sections, types.Section{
			Title:   h.title,
			Label:   h.label,
			Level:   h.level,
			Start:   anchor + h.pos,
			End:     anchor + end,
			Content: stripHeading(h.label, main[h.pos:end]),
		})
	}
	return sections
}

func findHeadings(main string) []heading {
	headings := []heading{{
		pos:   0,
		title: TitleDisposition,
		label: types.SectionDisposition,
		level: 1,
	}}

	for _, loc := range factsPattern.FindAllStringIndex(main, -1) {
		runePos := utf8.RuneCountInString(main[:loc[0]])
		if runePos > factsMinOffset {
			headings = append(headings, heading{
				pos:     loc[0],
				runePos: runePos,
				title:   TitleFactsAndReasons,
				label:   types.SectionFactsAndReasons,
				level:   1,
			})
		}
	}

	for _, m := range numberedPattern.FindAllStringSubmatchIndex(main, -1) {
		runePos := utf8.RuneCountInString(main[:m[0]])
		if runePos > numberedMinOffset {
			headings = append(headings, heading{
				pos:     m[0],
				runePos: runePos,
				title:   "第" + main[m[2]:m[3]] + " " + main[m[4]:m[5]],
				label:   types.SectionNumbered,
				level:   2,
			})
		}
	}

	sort.SliceStable(headings, func(i, j int) bool {
		return headings[i].pos < headings[j].pos
	})
	return headings
}

// filterHeadings drops headings that crowd the previous one. A 事実及び理由
// heading followed closely by a numbered heading is a false anchor and gives
// way to it.
func filterHeadings(headings []heading) []heading {
	var kept []heading
	for _, h := range headings {
		if len(kept) == 0 {
			kept = append(kept, h)
			continue
		}
		last := &kept[len(kept)-1]
		dist := h.runePos - last.runePos
		switch {
		case dist < mergeDistance && last.label == types.SectionFactsAndReasons && h.label == types.SectionNumbered:
			*last = h
		case dist >= mergeDistance:
			kept = append(kept, h)
		}
	}
	return kept
}

func stripHeading(label types.SectionLabel, content string) string {
	switch label {
	case types.SectionDisposition:
		content = dispositionHead.ReplaceAllString(content, "")
	case types.SectionFactsAndReasons:
		content = factsHead.ReplaceAllString(content, "")
	case types.SectionNumbered:
		content = numberedHead.ReplaceAllString(content, "")
	}
	return strings.TrimSpace(content)
}
