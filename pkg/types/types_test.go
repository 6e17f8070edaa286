package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestIsSentinel(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{SentinelOriginalJudgment, true},
		{SentinelTaxUnknown, true},
		{"所得税法36条", false},
		{"（未完", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsSentinel(tt.value); got != tt.want {
			t.Errorf("IsSentinel(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestGenuine_DropsMarkers(t *testing.T) {
	got := Genuine([]string{SentinelOriginalJudgment, "所得税法36条", "法人税法22条"})
	if len(got) != 2 || got[0] != "所得税法36条" || got[1] != "法人税法22条" {
		t.Errorf("Genuine() = %v", got)
	}
}

func TestCase_NormalizeSerializesEmptyLists(t *testing.T) {
	c := &Case{Number: "100", Title: "所得税更正処分取消請求事件"}
	c.Normalize()

	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	text := string(data)
	for _, field := range []string{`"laws":[]`, `"issue":[]`, `"tax_type":[]`} {
		if !strings.Contains(text, field) {
			t.Errorf("expected %s in %s", field, text)
		}
	}
	if strings.Contains(text, "original_case") {
		t.Errorf("original_case should be omitted when empty: %s", text)
	}
}

func TestCase_CloneIsDeep(t *testing.T) {
	c := &Case{Number: "1", Laws: []string{"所得税法36条"}}
	clone := c.Clone()
	clone.Laws[0] = "changed"
	if c.Laws[0] != "所得税法36条" {
		t.Error("Clone shares the laws slice with the original")
	}
}

func TestCorpus_OrderAndReplace(t *testing.T) {
	corpus := NewCorpus([]*Case{
		{Number: "2", Title: "a"},
		{Number: "1", Title: "b"},
		{Number: "2", Title: "c"},
	})
	if corpus.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", corpus.Len())
	}
	cases := corpus.Cases()
	if cases[0].Number != "2" || cases[1].Number != "1" {
		t.Errorf("unexpected order: %s, %s", cases[0].Number, cases[1].Number)
	}
	if got, _ := corpus.Get("2"); got.Title != "c" {
		t.Errorf("replacement not applied, title = %q", got.Title)
	}
	if _, ok := corpus.Get("3"); ok {
		t.Error("Get(3) should miss")
	}
}

func TestCourtLevel_Below(t *testing.T) {
	if !CourtLevelDistrict.Below(CourtLevelHigh) {
		t.Error("district should be below high")
	}
	if CourtLevelSupreme.Below(CourtLevelHigh) {
		t.Error("supreme should not be below high")
	}
	if CourtLevelUnknown.String() != "unknown" {
		t.Errorf("String() = %q", CourtLevelUnknown.String())
	}
}

func TestParseEraDate(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"令和5年3月14日", "2023-03-14", true},
		{"平成31年4月30日", "2019-04-30", true},
		{"令和元年5月1日", "2019-05-01", true},
		{"昭和64年1月7日", "1989-01-07", true},
		{"2023年3月14日", "", false},
		{"令和5年13月1日", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseEraDate(tt.input)
		if ok != tt.ok {
			t.Errorf("ParseEraDate(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			continue
		}
		if got.ISO() != tt.want {
			t.Errorf("ParseEraDate(%q) = %q, want %q", tt.input, got.ISO(), tt.want)
		}
	}
}
