package judgment

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/coolbeans/hanrei/pkg/jtext"
	"github.com/coolbeans/hanrei/pkg/types"
)

// longParagraph is the length, in runes, above which a lone paragraph is
// split into sentences.
const longParagraph = 1000

var (
	// parenItemPattern matches "（１）" style item numbers anywhere.
	parenItemPattern = regexp.MustCompile(`（[１２３４５６７８９０一二三四五六七八九十\d]+）`)

	// bareItemPattern matches a single full-width or kanji digit followed by
	// a space, preceded by 。 or whitespace. The boundary is after the
	// preceding rune.
	bareItemPattern = regexp.MustCompile(`[。\s\x{3000}][１２３４５６７８９一二三四五六七八九十][\s\x{3000}]`)

	// halfParenItemPattern matches "(1) " preceded by whitespace.
	halfParenItemPattern = regexp.MustCompile(`[\s\x{3000}]\(\d+\)[\s\x{3000}]`)

	sentenceEndPattern = regexp.MustCompile(`。[\s\x{3000}]+`)
)

// SplitParagraphs joins content lines and splits them into enumerated
// items. A single paragraph longer than 1000 runes is split into sentences
// instead, each keeping its 。 except the last.
func SplitParagraphs(lines []string) []string {
	if len(lines) == 0 {
		return nil
	}
	text := strings.Join(lines, " ")

	var paragraphs []string
	prev := 0
	for _, b := range itemBoundaries(text) {
		if p := strings.TrimSpace(text[prev:b]); p != "" {
			paragraphs = append(paragraphs, p)
		}
		prev = b
	}
	if p := strings.TrimSpace(text[prev:]); p != "" {
		paragraphs = append(paragraphs, p)
	}

	if len(paragraphs) == 1 && jtext.RuneLen(paragraphs[0]) > longParagraph {
		if sentences := splitSentences(paragraphs[0]); len(sentences) > 1 {
			return sentences
		}
	}
	return paragraphs
}

// itemBoundaries returns the sorted byte offsets where a new item starts.
func itemBoundaries(text string) []int {
	seen := make(map[int]bool)
	var bounds []int
	add := func(pos int) {
		if pos > 0 && !seen[pos] {
			seen[pos] = true
			bounds = append(bounds, pos)
		}
	}

	for _, loc := range parenItemPattern.FindAllStringIndex(text, -1) {
		add(loc[0])
	}
	for _, pattern := range []*regexp.Regexp{bareItemPattern, halfParenItemPattern} {
		for _, loc := range pattern.FindAllStringIndex(text, -1) {
			_, size := utf8.DecodeRuneInString(text[loc[0]:])
			add(loc[0] + size)
		}
	}

	sort.Ints(bounds)
	return bounds
}

func splitSentences(text string) []string {
	parts := sentenceEndPattern.Split(text, -1)
	var sentences []string
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if i < len(parts)-1 {
			part += "。"
		}
		sentences = append(sentences, part)
	}
	return sentences
}

// Block is a section together with the paragraphs of its content.
type Block struct {
	types.Section
	Paragraphs []string `json:"paragraphs"`
}

// Structure segments cleaned text and splits every section into
// paragraphs.
func Structure(text string) []Block {
	sections := Segment(text)
	blocks := make([]Block, 0, len(sections))
	for _, s := range sections {
		var lines []string
		for _, line := range strings.Split(s.Content, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				lines = append(lines, line)
			}
		}
		blocks = append(blocks, Block{Section: s, Paragraphs: SplitParagraphs(lines)})
	}
	return blocks
}
