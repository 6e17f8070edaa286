package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolbeans/hanrei/pkg/rules"
	"github.com/coolbeans/hanrei/pkg/source"
	"github.com/coolbeans/hanrei/pkg/types"
)

func testCorpus() *types.Corpus {
	return types.NewCorpus([]*types.Case{
		{
			Number:   "1",
			Title:    "所得税更正処分取消請求事件",
			Court:    "東京地方裁判所",
			Result:   "棄却",
			Laws:     []string{"所得税法36条", "所得税法37条"},
			Issues:   []string{"本件譲渡所得の必要経費の範囲"},
			TaxTypes: []string{"所得税"},
		},
		{
			Number:       "2",
			Title:        "所得税更正処分取消請求控訴事件",
			Court:        "東京高等裁判所",
			Result:       "棄却",
			Laws:         []string{types.SentinelOriginalJudgment, "所得税法36条"},
			TaxTypes:     []string{"所得税"},
			OriginalCase: "1",
			LawsSource:   types.LawsSourceInherited,
			Sections:     []types.Section{{Title: "主文", Label: types.SectionDisposition, Level: 1}},
		},
		{
			Number:   "3",
			Title:    "法人税更正処分取消請求事件",
			Court:    "大阪地方裁判所",
			Result:   "認容",
			Laws:     []string{"法人税法22条"},
			TaxTypes: []string{"法人税"},
		},
		{
			Number:   "4",
			Title:    "所得税更正処分取消請求上告受理申立事件",
			Court:    "最高裁判所",
			Laws:     []string{types.SentinelDismissed},
			TaxTypes: []string{types.SentinelTaxUnknown},
		},
	})
}

var sectionText = "主文\n本件請求を棄却する。\n" + strings.Repeat("これは本文である。", 10) +
	"\n第１ 事案の概要\n（１）本件は所得税の事案である。（２）争点は必要経費である。"

func newTestServer(opts ...Option) *Server {
	return NewServer(testCorpus(), rules.MustDefault(), opts...)
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func numbers(list CaseList) []string {
	var out []string
	for _, c := range list.Cases {
		out = append(out, c.Number)
	}
	return out
}

func TestHealth(t *testing.T) {
	rec := get(t, newTestServer(), "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 4, body["cases"])
}

func TestListCases(t *testing.T) {
	s := newTestServer()

	tests := []struct {
		name  string
		query url.Values
		total int
		want  []string
	}{
		{"all", nil, 4, []string{"1", "2", "3", "4"}},
		{"tax type", url.Values{"tax_type": {"所得税"}}, 2, []string{"1", "2"}},
		{"result", url.Values{"result": {"認容"}}, 1, []string{"3"}},
		{"law", url.Values{"law": {"所得税法36条"}}, 2, []string{"1", "2"}},
		{"court", url.Values{"court": {"最高裁判所"}}, 1, []string{"4"}},
		{"combined", url.Values{"tax_type": {"所得税"}, "result": {"認容"}}, 0, nil},
		{"page", url.Values{"limit": {"1"}, "offset": {"1"}}, 4, []string{"2"}},
		{"offset past end", url.Values{"offset": {"10"}}, 4, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/api/v1/cases"
			if tt.query != nil {
				target += "?" + tt.query.Encode()
			}
			rec := get(t, s, target)
			require.Equal(t, http.StatusOK, rec.Code)

			list := decode[CaseList](t, rec)
			assert.Equal(t, tt.total, list.Total)
			assert.Equal(t, tt.want, numbers(list))
		})
	}
}

func TestListCases_OmitsSections(t *testing.T) {
	s := newTestServer()
	list := decode[CaseList](t, get(t, s, "/api/v1/cases?tax_type="+url.QueryEscape("所得税")))
	require.Len(t, list.Cases, 2)
	assert.Nil(t, list.Cases[1].Sections)

	stored, _ := s.corpus.Get("2")
	assert.Len(t, stored.Sections, 1, "listing must not modify the corpus")
}

func TestListCases_BadParams(t *testing.T) {
	s := newTestServer()
	for _, target := range []string{
		"/api/v1/cases?limit=abc",
		"/api/v1/cases?limit=0",
		"/api/v1/cases?offset=-1",
	} {
		rec := get(t, s, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestListCases_LimitCapped(t *testing.T) {
	list := decode[CaseList](t, get(t, newTestServer(), "/api/v1/cases?limit=10000"))
	assert.Equal(t, maxLimit, list.Limit)
}

func TestGetCase(t *testing.T) {
	s := newTestServer()

	rec := get(t, s, "/api/v1/cases/2")
	require.Equal(t, http.StatusOK, rec.Code)
	c := decode[types.Case](t, rec)
	assert.Equal(t, "1", c.OriginalCase)
	assert.Equal(t, []string{types.SentinelOriginalJudgment, "所得税法36条"}, c.Laws)
	assert.Len(t, c.Sections, 1)
	assert.NotContains(t, rec.Body.String(), `\u`, "JSON must not escape non-ASCII")

	rec = get(t, s, "/api/v1/cases/99")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "case not found", decode[map[string]string](t, rec)["error"])
}

func TestGetSections(t *testing.T) {
	s := newTestServer(WithReader(source.NewMemory(map[string]string{"1": sectionText})))

	rec := get(t, s, "/api/v1/cases/1/sections")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[SectionsResponse](t, rec)
	assert.Equal(t, "所得税更正処分取消請求事件", resp.Title)
	require.Len(t, resp.Sections, 2)
	assert.Equal(t, types.SectionDisposition, resp.Sections[0].Label)
	assert.Equal(t, "第１ 事案の概要", resp.Sections[1].Title)
	assert.Equal(t, []string{"（１）本件は所得税の事案である。", "（２）争点は必要経費である。"}, resp.Sections[1].Paragraphs)

	rec = get(t, s, "/api/v1/cases/3/sections")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "text not found", decode[map[string]string](t, rec)["error"])

	rec = get(t, s, "/api/v1/cases/99/sections")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "case not found", decode[map[string]string](t, rec)["error"])
}

type failingReader struct{}

func (failingReader) ReadText(ctx context.Context, number string) (string, error) {
	return "", errors.New("bucket unavailable")
}

func (failingReader) List(ctx context.Context) ([]string, error) {
	return nil, errors.New("bucket unavailable")
}

func TestGetSections_ReaderError(t *testing.T) {
	rec := get(t, newTestServer(WithReader(failingReader{})), "/api/v1/cases/1/sections")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetSections_NoReader(t *testing.T) {
	rec := get(t, newTestServer(), "/api/v1/cases/1/sections")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStats(t *testing.T) {
	rec := get(t, newTestServer(), "/api/v1/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	st := decode[Stats](t, rec)
	assert.Equal(t, 4, st.Cases)
	assert.Equal(t, 3, st.WithLaws)
	assert.Equal(t, 1, st.WithIssues)
	assert.Equal(t, 1, st.Inherited)
	assert.InDelta(t, 1.0, st.MeanCitations, 1e-9)
	assert.InDelta(t, 1.0, st.MedianCitations, 1e-9)
	assert.InDelta(t, 0.25, st.MeanIssues, 1e-9)

	assert.Equal(t, map[string]int{"所得税": 2, "法人税": 1}, st.TaxTypes)
	assert.Equal(t, map[string]int{"棄却": 2, "認容": 1}, st.Results)
	assert.Equal(t, map[string]int{"district": 2, "high": 1, "supreme": 1}, st.CourtLevels)
	assert.Equal(t, map[string]int{
		types.SentinelOriginalJudgment: 1,
		types.SentinelDismissed:        1,
		types.SentinelTaxUnknown:       1,
	}, st.Sentinels)
	assert.Equal(t, []LawCount{{Law: "所得税法", Cases: 2}, {Law: "法人税法", Cases: 1}}, st.TopLaws)
}

func TestStats_EmptyCorpus(t *testing.T) {
	s := NewServer(types.NewCorpus(nil), rules.MustDefault())
	st := decode[Stats](t, get(t, s, "/api/v1/stats"))
	assert.Equal(t, 0, st.Cases)
	assert.Zero(t, st.MeanCitations)
	assert.Empty(t, st.TopLaws)
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/cases", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	newTestServer().ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRun_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- newTestServer().Run(ctx, "127.0.0.1:0") }()
	cancel()
	assert.NoError(t, <-errCh)
}
