package rules

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coolbeans/hanrei/pkg/types"
)

func TestDefault_Loads(t *testing.T) {
	r, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if !r.IsCompiled() {
		t.Error("Default() rules are not compiled")
	}
	if len(r.Laws) < 30 {
		t.Errorf("len(Laws) = %d, want at least 30", len(r.Laws))
	}
	if r.ActionWindow != 5 {
		t.Errorf("ActionWindow = %d, want 5", r.ActionWindow)
	}
	if r.TopicLimit != 3 {
		t.Errorf("TopicLimit = %d, want 3", r.TopicLimit)
	}
}

func TestRules_CourtLevel(t *testing.T) {
	r := MustDefault()
	tests := []struct {
		court string
		want  types.CourtLevel
	}{
		{"最高裁判所第二小法廷", types.CourtLevelSupreme},
		{"東京高等裁判所", types.CourtLevelHigh},
		{"大阪高裁", types.CourtLevelHigh},
		{"名古屋地方裁判所", types.CourtLevelDistrict},
		{"東京地裁", types.CourtLevelDistrict},
		{"国税不服審判所", types.CourtLevelUnknown},
		{"", types.CourtLevelUnknown},
	}
	for _, tt := range tests {
		if got := r.CourtLevel(tt.court); got != tt.want {
			t.Errorf("CourtLevel(%q) = %v, want %v", tt.court, got, tt.want)
		}
	}
}

func TestRules_TitleLaw(t *testing.T) {
	r := MustDefault()
	if law, ok := r.TitleLaw("所得税更正処分取消請求事件"); !ok || law != "所得税法" {
		t.Errorf("TitleLaw() = %q, %v", law, ok)
	}
	if _, ok := r.TitleLaw("国家賠償請求事件"); ok {
		t.Error("TitleLaw() should not infer a law for a damages claim")
	}
}

func TestRules_LawTax(t *testing.T) {
	r := MustDefault()
	tests := []struct {
		citation string
		want     string
		ok       bool
	}{
		{"所得税法36条", "所得税", true},
		{"所得税法施行令4条の2", "所得税", true},
		{"財産評価基本通達24条", "相続税", true},
		{"消費税法基本通達5条", "消費税", true},
		{"国税通則法65条", "", false},
	}
	for _, tt := range tests {
		got, ok := r.LawTax(tt.citation)
		if got != tt.want || ok != tt.ok {
			t.Errorf("LawTax(%q) = %q, %v; want %q, %v", tt.citation, got, ok, tt.want, tt.ok)
		}
	}
}

func TestRules_TitleTaxCategories(t *testing.T) {
	r := MustDefault()
	got := r.TitleTaxCategories("源泉所得税納税告知処分取消請求事件")
	if len(got) == 0 {
		t.Fatal("TitleTaxCategories() returned nothing")
	}
	for _, tax := range got {
		if tax != "所得税" {
			t.Errorf("unexpected tax %q", tax)
		}
	}
}

func TestRules_TopicMatch(t *testing.T) {
	r := MustDefault()
	var matched []string
	for i := range r.Topics {
		if r.Topics[i].Match("修正申告は無効であると主張する") {
			matched = append(matched, r.Topics[i].Label)
		}
	}
	if len(matched) != 1 || matched[0] != "修正申告の有効性" {
		t.Errorf("matched = %v", matched)
	}
}

func TestParse_InvalidRules(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{"no laws", "laws: []\n", "laws"},
		{"duplicate law", "laws: [所得税法, 所得税法]\n", "laws[1]"},
		{"bad abbreviation", "laws: [所得税法]\nabbreviations:\n  - {pattern: '所法(', law: 所得税法}\n", "abbreviations[0].pattern"},
		{"bad court level", "laws: [所得税法]\ncourts:\n  - {match: 地裁, level: 7}\n", "courts[0].level"},
		{"missing action", "laws: [所得税法]\nbody_taxes: [所得税]\n", "action_pattern"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Parse() should fail")
			}
			var errs ValidationErrors
			if !errors.As(err, &errs) {
				t.Fatalf("error type = %T, want ValidationErrors", err)
			}
			found := false
			for _, e := range errs {
				if e.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("no error for field %q in %v", tt.field, errs)
			}
		})
	}
}

func TestParse_MalformedYAML(t *testing.T) {
	if _, err := Parse([]byte("laws: [unterminated")); err == nil {
		t.Error("Parse() should fail on malformed YAML")
	}
}

func TestMarshal_RoundTrip(t *testing.T) {
	r := MustDefault()
	data, err := r.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	again, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse(Marshal()) error = %v", err)
	}
	if len(again.Abbreviations) != len(r.Abbreviations) {
		t.Errorf("abbreviations = %d, want %d", len(again.Abbreviations), len(r.Abbreviations))
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() should fail for a missing file")
	}
}

func TestWatcher_Reload(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping watch test in short mode")
	}

	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, defaultYAML, 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	w, err := NewWatcher(path, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}

	changed := make(chan *Rules, 1)
	w.SetOnChange(func(r *Rules) {
		select {
		case changed <- r:
		default:
		}
	})

	if err := w.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop()

	time.Sleep(100 * time.Millisecond)

	updated := strings.Replace(string(defaultYAML), `version: "1.0.0"`, `version: "2.0.0"`, 1)
	if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	select {
	case r := <-changed:
		if r.Version != "2.0.0" {
			t.Errorf("Version = %q, want 2.0.0", r.Version)
		}
		if w.Rules().Version != "2.0.0" {
			t.Errorf("Rules().Version = %q, want 2.0.0", w.Rules().Version)
		}
	case <-time.After(3 * time.Second):
		t.Log("watcher did not detect file change within timeout (may be CI environment)")
	}
}
