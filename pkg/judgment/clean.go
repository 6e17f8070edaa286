// Package judgment turns raw judgment text into cleaned text, heading
// metadata, labeled sections and paragraphs.
package judgment

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/coolbeans/hanrei/pkg/jtext"
	"github.com/coolbeans/hanrei/pkg/types"
)

// MinTextLength is the shortest text, in runes, worth structuring.
const MinTextLength = 100

// garbledSample is how many leading runes IsGarbled inspects.
const garbledSample = 500

var (
	// cidPattern matches unmapped glyph codes left by PDF extraction.
	cidPattern = regexp.MustCompile(`\(cid:\d+\)`)

	// brokenLinePattern matches a line break inside a sentence: the line does
	// not end in punctuation and the next one starts with kana or kanji.
	brokenLinePattern = regexp.MustCompile(`([^。、）」\n])\n([ぁ-んァ-ン一-龯])`)

	// pageNumberPattern matches a line holding only a page number.
	pageNumberPattern = regexp.MustCompile(`\n\d+\n`)

	// trailingPageNumberPattern matches a page number on the last line.
	trailingPageNumberPattern = regexp.MustCompile(`\n\d+\z`)

	// leaderPattern matches collapsed table rules and dot leaders.
	leaderPattern = regexp.MustCompile(`[oOnN .]{5,}`)

	spaceRunPattern = regexp.MustCompile(`[ \t]+`)
	blankRunPattern = regexp.MustCompile(`\n{3,}`)
)

// Clean removes extraction noise from raw judgment text.
func Clean(text string) string {
	text = cidPattern.ReplaceAllString(text, "")
	text = pageNumberPattern.ReplaceAllString(text, "\n")
	text = trailingPageNumberPattern.ReplaceAllString(text, "")
	text = brokenLinePattern.ReplaceAllString(text, "${1}${2}")
	text = leaderPattern.ReplaceAllString(text, " ")
	text = spaceRunPattern.ReplaceAllString(text, " ")
	text = blankRunPattern.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// IsGarbled reports whether the start of text is dominated by runes from
// scripts that only show up when a PDF font was decoded with the wrong map.
func IsGarbled(text string) bool {
	sample := jtext.Truncate(text, garbledSample)

	japanese, foreign := 0, 0
	for _, r := range sample {
		switch {
		case isJapanese(r):
			japanese++
		case isMisdecoded(r):
			foreign++
		}
	}
	return foreign > 10 && foreign > japanese
}

func isJapanese(r rune) bool {
	switch {
	case r >= 'ぁ' && r <= 'ん':
		return true
	case r >= 'ァ' && r <= 'ン':
		return true
	case r >= '一' && r <= '龯':
		return true
	}
	return r == '々' || r == '〆' || r == '〇'
}

func isMisdecoded(r rune) bool {
	switch {
	case r >= 0x0901 && r <= 0x097F: // Devanagari
		return true
	case r >= 0x0F00 && r <= 0x0FFF: // Tibetan
		return true
	case r >= 0x10A0 && r <= 0x10FF: // Georgian
		return true
	case r >= 0x3200 && r <= 0x33FF: // enclosed CJK and squared forms
		return true
	}
	return false
}

// Validate returns an error wrapping types.ErrMalformedInput when text is
// too short or garbled to structure.
func Validate(text string) error {
	if n := jtext.RuneLen(strings.TrimSpace(text)); n < MinTextLength {
		return fmt.Errorf("text has %d runes, need %d: %w", n, MinTextLength, types.ErrMalformedInput)
	}
	if IsGarbled(text) {
		return fmt.Errorf("text is garbled: %w", types.ErrMalformedInput)
	}
	return nil
}
