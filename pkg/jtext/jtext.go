// Package jtext has small helpers for Japanese text where the regexp
// package's ASCII-only \s falls short: ideographic spaces (U+3000) count as
// whitespace everywhere here.
package jtext

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Space is a regular expression class matching one whitespace rune,
// including the ideographic space.
const Space = `[\s\x{3000}]`

var (
	inlineSpaceRun = regexp.MustCompile(`[ \x{3000}]+`)
	parenthetical  = regexp.MustCompile(`（[^）]{0,100}）`)
)

// StripSpace removes every whitespace rune from s.
func StripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// CollapseInlineSpace replaces runs of half-width and ideographic spaces
// with a single space. Line breaks are kept.
func CollapseInlineSpace(s string) string {
	return inlineSpaceRun.ReplaceAllString(s, " ")
}

// StripParentheticals removes full-width parenthetical asides of at most
// 100 runes, such as amendment-history notes.
func StripParentheticals(s string) string {
	return parenthetical.ReplaceAllString(s, "")
}

// RuneLen returns the number of runes in s.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
