package api

import (
	"errors"
	"net/http"
	"slices"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/coolbeans/hanrei/pkg/judgment"
	"github.com/coolbeans/hanrei/pkg/types"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// CaseList is a page of cases.
type CaseList struct {
	Total  int           `json:"total"`
	Offset int           `json:"offset"`
	Limit  int           `json:"limit"`
	Cases  []*types.Case `json:"cases"`
}

// SectionsResponse is the structured text of one case.
type SectionsResponse struct {
	Number   string           `json:"number"`
	Title    string           `json:"title"`
	Sections []judgment.Block `json:"sections"`
}

// caseFilter holds the list query parameters. Empty fields match
// everything.
type caseFilter struct {
	taxType string
	result  string
	law     string
	court   string
}

func (f caseFilter) match(c *types.Case) bool {
	if f.taxType != "" && !slices.Contains(c.TaxTypes, f.taxType) {
		return false
	}
	if f.result != "" && c.Result != f.result {
		return false
	}
	if f.law != "" && !slices.Contains(c.Laws, f.law) {
		return false
	}
	if f.court != "" && c.Court != f.court {
		return false
	}
	return true
}

// handleListCases returns cases in corpus order, filtered by tax_type,
// result, law and court. Sections are left out of list items.
func (s *Server) handleListCases(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := caseFilter{
		taxType: query.Get("tax_type"),
		result:  query.Get("result"),
		law:     query.Get("law"),
		court:   query.Get("court"),
	}

	offset, err := intParam(query.Get("offset"), 0)
	if err != nil || offset < 0 {
		respondError(w, http.StatusBadRequest, "invalid offset")
		return
	}
	limit, err := intParam(query.Get("limit"), defaultLimit)
	if err != nil || limit <= 0 {
		respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	limit = min(limit, maxLimit)

	var matched []*types.Case
	for _, c := range s.corpus.Cases() {
		if filter.match(c) {
			matched = append(matched, c)
		}
	}

	page := make([]*types.Case, 0, limit)
	for i := offset; i < len(matched) && len(page) < limit; i++ {
		item := matched[i].Clone()
		item.Sections = nil
		page = append(page, item)
	}

	respondJSON(w, http.StatusOK, CaseList{
		Total:  len(matched),
		Offset: offset,
		Limit:  limit,
		Cases:  page,
	})
}

func (s *Server) handleGetCase(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	c, ok := s.corpus.Get(number)
	if !ok {
		respondError(w, http.StatusNotFound, "case not found")
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// handleGetSections reads the case text and returns its sections with
// paragraphs.
func (s *Server) handleGetSections(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	c, ok := s.corpus.Get(number)
	if !ok {
		respondError(w, http.StatusNotFound, "case not found")
		return
	}

	raw, err := s.reader.ReadText(r.Context(), number)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			respondError(w, http.StatusNotFound, "text not found")
			return
		}
		s.logger.Error("reading text", zap.String("number", number), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to read text")
		return
	}

	respondJSON(w, http.StatusOK, SectionsResponse{
		Number:   c.Number,
		Title:    c.Title,
		Sections: judgment.Structure(judgment.Clean(raw)),
	})
}

func intParam(value string, fallback int) (int, error) {
	if value == "" {
		return fallback, nil
	}
	return strconv.Atoi(value)
}
