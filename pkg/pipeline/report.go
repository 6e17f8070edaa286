package pipeline

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/coolbeans/hanrei/pkg/types"
)

// Skip statuses recorded in report entries.
const (
	StatusMissing   = "missing"
	StatusMalformed = "malformed"
	StatusFailed    = "failed"
)

// Entry records a case that was skipped.
type Entry struct {
	Number string `json:"number"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Report summarizes a processing run.
type Report struct {
	RunID     string    `json:"run_id"`
	StartedAt time.Time `json:"started_at"`
	Duration  string    `json:"duration"`

	Total     int `json:"total"`
	Extracted int `json:"extracted"`
	Skipped   int `json:"skipped"`

	IssueStrategies map[string]int `json:"issue_strategies"`
	Resolutions     map[string]int `json:"resolutions"`
	TaxSources      map[string]int `json:"tax_sources"`
	TaxTypes        map[string]int `json:"tax_types"`

	WithLaws      int     `json:"with_laws"`
	MeanCitations float64 `json:"mean_citations"`
	MeanIssues    float64 `json:"mean_issues"`

	Entries []Entry `json:"entries,omitempty"`
}

func newReport(runID string, started time.Time) *Report {
	return &Report{
		RunID:           runID,
		StartedAt:       started,
		IssueStrategies: make(map[string]int),
		Resolutions:     make(map[string]int),
		TaxSources:      make(map[string]int),
		TaxTypes:        make(map[string]int),
	}
}

// finish fills the corpus-wide statistics. Sentinel values are left out of
// the citation and tax-type figures.
func (r *Report) finish(corpus *types.Corpus) *Report {
	r.Duration = time.Since(r.StartedAt).Round(time.Millisecond).String()

	cases := corpus.Cases()
	citations := make([]float64, 0, len(cases))
	issues := make([]float64, 0, len(cases))
	for k := range r.TaxTypes {
		delete(r.TaxTypes, k)
	}
	r.WithLaws = 0

	for _, c := range cases {
		laws := types.Genuine(c.Laws)
		if len(laws) > 0 {
			r.WithLaws++
		}
		citations = append(citations, float64(len(laws)))
		issues = append(issues, float64(len(types.Genuine(c.Issues))))
		for _, tax := range types.Genuine(c.TaxTypes) {
			r.TaxTypes[tax]++
		}
	}

	r.MeanCitations, r.MeanIssues = 0, 0
	if len(cases) > 0 {
		r.MeanCitations = stat.Mean(citations, nil)
		r.MeanIssues = stat.Mean(issues, nil)
	}
	return r
}

// FormatReport formats a Report for terminal output.
func FormatReport(report *Report) string {
	var builder strings.Builder

	builder.WriteString("\nProcessing Report\n")
	builder.WriteString(strings.Repeat("═", 60) + "\n")
	builder.WriteString(fmt.Sprintf("Run: %s (%s)\n", report.RunID, report.Duration))
	builder.WriteString(fmt.Sprintf("Total: %d | Extracted: %d | Skipped: %d\n",
		report.Total, report.Extracted, report.Skipped))
	builder.WriteString(fmt.Sprintf("With citations: %d | Mean citations: %.2f | Mean issues: %.2f\n",
		report.WithLaws, report.MeanCitations, report.MeanIssues))

	writeCounts(&builder, "Issue strategies", report.IssueStrategies)
	writeCounts(&builder, "Resolutions", report.Resolutions)
	writeCounts(&builder, "Tax category sources", report.TaxSources)
	writeCounts(&builder, "Tax categories", report.TaxTypes)

	if len(report.Entries) > 0 {
		builder.WriteString(strings.Repeat("─", 60) + "\n")
		for _, entry := range report.Entries {
			line := fmt.Sprintf("  %-11s %-12s", "["+strings.ToUpper(entry.Status)+"]", entry.Number)
			if entry.Error != "" {
				line += " error: " + entry.Error
			}
			builder.WriteString(line + "\n")
		}
	}

	return builder.String()
}

func writeCounts(builder *strings.Builder, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	builder.WriteString(strings.Repeat("─", 60) + "\n")
	builder.WriteString(title + "\n")

	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	for _, key := range keys {
		builder.WriteString(fmt.Sprintf("  %-28s %6d\n", key, counts[key]))
	}
}

// FormatReportJSON formats a Report as JSON.
func FormatReportJSON(report *Report) string {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(data)
}
