package judgment

import (
	"regexp"
	"strings"

	"github.com/coolbeans/hanrei/pkg/jtext"
	"github.com/coolbeans/hanrei/pkg/numeral"
	"github.com/coolbeans/hanrei/pkg/rules"
	"github.com/coolbeans/hanrei/pkg/types"
)

const (
	titleLines    = 5
	headingLines  = 15
	minTitleRunes = 8
	maxTitleRunes = 100
)

// Metadata is what the heading lines of a judgment say about the case.
type Metadata struct {
	Title   string
	Court   string
	Date    string
	DateISO string
	Result  string
}

var (
	splitJikenPattern = regexp.MustCompile(`事[\s\x{3000}]+件`)

	// numberedTitlePattern matches the case name after the docket number,
	// e.g. "令和4年（行ウ）第123号 所得税更正処分等取消請求事件".
	numberedTitlePattern = regexp.MustCompile(`第[●\d０-９]+号[）\s\x{3000}、]*([ぁ-んァ-ン一-龯々〆〇等の一部]+?(?:請求|処分|決定|通知)?事件)`)

	// taxTitlePattern matches a case name that starts with a tax keyword.
	taxTitlePattern = regexp.MustCompile(`(?:所得税|法人税|消費税|相続税|贈与税|印紙税|登録免許税|更正|課税|納税|損害賠償|不当利得|還付)[ぁ-んァ-ン一-龯々〆〇等の一部請求処分決定通知取消控訴上告受理\s\x{3000}]+事件`)

	plainTitlePattern = regexp.MustCompile(`[ぁ-んァ-ン一-龯々〆〇]{5,}事件`)

	courtPattern = regexp.MustCompile(`(?:最高裁判所|東京|大阪|名古屋|福岡|仙台|札幌|広島|高松|熊本|津|奈良|那覇|神戸|横浜|さいたま|千葉|京都|[\p{Han}\p{Hiragana}\p{Katakana}\w]+)(?:高等|地方|簡易)?裁判所`)

	eraDatePattern = regexp.MustCompile(`(?:令和|平成|昭和)[\d０-９元]*年[\d０-９]*月[\d０-９]*日`)
)

// MetadataExtractor reads title, court, date and result from the opening
// lines of a judgment.
type MetadataExtractor struct {
	results []string
}

// NewMetadataExtractor uses the result keywords of r.
func NewMetadataExtractor(r *rules.Rules) *MetadataExtractor {
	return &MetadataExtractor{results: r.Results}
}

// Extract reads the heading metadata of text.
func (m *MetadataExtractor) Extract(text string) Metadata {
	lines := strings.Split(text, "\n")

	var meta Metadata
	meta.Title = jtext.StripSpace(caseTitle(lines))

	for i, line := range lines {
		if i >= headingLines {
			break
		}
		line = strings.TrimSpace(line)

		if meta.Court == "" && strings.Contains(line, "裁判所") {
			meta.Court = courtPattern.FindString(line)
		}
		if meta.Date == "" {
			meta.Date = eraDatePattern.FindString(line)
		}
		// Case names such as 処分取消請求事件 carry result words of their own.
		if meta.Result == "" && !strings.Contains(line, "事件") {
			for _, keyword := range m.results {
				if strings.Contains(line, keyword) {
					meta.Result = keyword
					break
				}
			}
		}
	}

	if meta.Title == "" {
		combined := joinHead(lines)
		switch {
		case strings.Contains(combined, "事件"):
			meta.Title = jtext.Truncate(combined, maxTitleRunes)
		case len(lines) > 0:
			meta.Title = jtext.Truncate(strings.TrimSpace(lines[0]), maxTitleRunes)
		}
	}

	meta.DateISO = EraToISO(meta.Date)
	return meta
}

// Fill copies extracted metadata into the empty fields of c.
func (m Metadata) Fill(c *types.Case) {
	if c.Title == "" {
		c.Title = m.Title
	}
	if c.Court == "" {
		c.Court = m.Court
	}
	if c.Date == "" {
		c.Date = m.Date
	}
	if c.Result == "" {
		c.Result = m.Result
	}
	if c.DateISO == "" {
		c.DateISO = EraToISO(c.Date)
	}
}

// EraToISO converts a Japanese era date to YYYY-MM-DD, or "" when the date
// cannot be read.
func EraToISO(date string) string {
	d, ok := types.ParseEraDate(numeral.NarrowDigits(jtext.StripSpace(date)))
	if !ok {
		return ""
	}
	return d.ISO()
}

// caseTitle recovers a case name that PDF extraction may have split over
// the first few lines.
func caseTitle(lines []string) string {
	combined := splitJikenPattern.ReplaceAllString(joinHead(lines), "事件")

	if m := numberedTitlePattern.FindStringSubmatch(combined); m != nil {
		title := strings.TrimLeft(strings.TrimSpace(m[1]), "、 ")
		if jtext.RuneLen(title) >= minTitleRunes {
			return title
		}
	}

	if title := strings.TrimSpace(taxTitlePattern.FindString(combined)); jtext.RuneLen(title) >= minTitleRunes {
		return title
	}

	return plainTitlePattern.FindString(combined)
}

func joinHead(lines []string) string {
	var parts []string
	for i, line := range lines {
		if i >= titleLines {
			break
		}
		if line = strings.TrimSpace(line); line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, " ")
}
