package api

import (
	"net/http"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/coolbeans/hanrei/pkg/citation"
	"github.com/coolbeans/hanrei/pkg/types"
)

// Stats summarizes the corpus. Sentinel markers are counted separately
// from genuine citations, issues and tax categories.
type Stats struct {
	Cases      int `json:"cases"`
	WithLaws   int `json:"with_laws"`
	WithIssues int `json:"with_issues"`
	Inherited  int `json:"inherited"`

	MeanCitations   float64 `json:"mean_citations"`
	MedianCitations float64 `json:"median_citations"`
	MeanIssues      float64 `json:"mean_issues"`

	TaxTypes    map[string]int `json:"tax_types"`
	Results     map[string]int `json:"results"`
	CourtLevels map[string]int `json:"court_levels"`
	Sentinels   map[string]int `json:"sentinels"`
	TopLaws     []LawCount     `json:"top_laws"`
}

// LawCount is how many cases cite a law.
type LawCount struct {
	Law   string `json:"law"`
	Cases int    `json:"cases"`
}

const topLaws = 10

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.stats())
}

func (s *Server) stats() Stats {
	cases := s.corpus.Cases()
	st := Stats{
		Cases:       len(cases),
		TaxTypes:    make(map[string]int),
		Results:     make(map[string]int),
		CourtLevels: make(map[string]int),
		Sentinels:   make(map[string]int),
		TopLaws:     []LawCount{},
	}

	citations := make([]float64, 0, len(cases))
	issues := make([]float64, 0, len(cases))
	laws := make(map[string]int)

	for _, c := range cases {
		genuine := types.Genuine(c.Laws)
		if len(genuine) > 0 {
			st.WithLaws++
		}
		if len(types.Genuine(c.Issues)) > 0 {
			st.WithIssues++
		}
		if c.LawsSource == types.LawsSourceInherited {
			st.Inherited++
		}
		citations = append(citations, float64(len(genuine)))
		issues = append(issues, float64(len(types.Genuine(c.Issues))))

		for _, tax := range c.TaxTypes {
			if types.IsSentinel(tax) {
				st.Sentinels[tax]++
				continue
			}
			st.TaxTypes[tax]++
		}
		for _, law := range c.Laws {
			if types.IsSentinel(law) {
				st.Sentinels[law]++
			}
		}
		for _, law := range citation.Laws(genuine) {
			laws[law]++
		}
		if c.Result != "" {
			st.Results[c.Result]++
		}
		st.CourtLevels[s.rules.CourtLevel(c.Court).String()]++
	}

	if len(cases) > 0 {
		st.MeanCitations = stat.Mean(citations, nil)
		st.MeanIssues = stat.Mean(issues, nil)
		sort.Float64s(citations)
		st.MedianCitations = stat.Quantile(0.5, stat.Empirical, citations, nil)
	}

	for law, n := range laws {
		st.TopLaws = append(st.TopLaws, LawCount{Law: law, Cases: n})
	}
	sort.Slice(st.TopLaws, func(i, j int) bool {
		if st.TopLaws[i].Cases != st.TopLaws[j].Cases {
			return st.TopLaws[i].Cases > st.TopLaws[j].Cases
		}
		return st.TopLaws[i].Law < st.TopLaws[j].Law
	})
	if len(st.TopLaws) > topLaws {
		st.TopLaws = st.TopLaws[:topLaws]
	}
	return st
}
