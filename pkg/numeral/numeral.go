// Package numeral converts article and item numbers written in full-width
// Arabic digits or kanji numerals to half-width base-10 strings.
package numeral

import (
	"strconv"
	"strings"

	"golang.org/x/text/width"
)

// Class is a regular expression character class matching one numeral rune
// in any of the supported scripts.
const Class = `[０-９0-9〇一二三四五六七八九十百千]`

// Run matches a run of numeral runes.
const Run = Class + `+`

var kanjiDigits = map[rune]int{
	'一': 1, '二': 2, '三': 3, '四': 4, '五': 5,
	'六': 6, '七': 7, '八': 8, '九': 9,
}

var multipliers = map[rune]int{
	'十': 10,
	'百': 100,
	'千': 1000,
}

// Normalize converts s to a half-width digit string.
//
// Full-width digits are narrowed first; an all-digit result is returned as
// is. Anything else is read as a positional kanji numeral ("二十三" is 23,
// "百五" is 105). When that reading yields zero the input is returned
// unchanged so that noise is never reported as "0".
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	narrowed := width.Narrow.String(s)
	if isDigits(narrowed) {
		return narrowed
	}

	total := 0
	current := 0
	for _, r := range narrowed {
		switch {
		case r >= '0' && r <= '9':
			current = current*10 + int(r-'0')
		case r == '〇':
			current *= 10
		case kanjiDigits[r] > 0:
			current = kanjiDigits[r]
		case multipliers[r] > 0:
			if current == 0 {
				current = 1
			}
			total += current * multipliers[r]
			current = 0
		}
	}
	total += current

	if total == 0 {
		return s
	}
	return strconv.Itoa(total)
}

// Atoi normalizes s and parses the result as an integer.
func Atoi(s string) (int, bool) {
	n, err := strconv.Atoi(Normalize(s))
	if err != nil {
		return 0, false
	}
	return n, true
}

// NarrowDigits converts full-width digits in s to half-width and leaves
// every other rune alone.
func NarrowDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '０' && r <= '９' {
			return r - '０' + '0'
		}
		return r
	}, s)
}

// IsNumeralRune reports whether r can appear in a numeral run.
func IsNumeralRune(r rune) bool {
	switch {
	case r >= '0' && r <= '9', r >= '０' && r <= '９', r == '〇':
		return true
	}
	return kanjiDigits[r] > 0 || multipliers[r] > 0
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
