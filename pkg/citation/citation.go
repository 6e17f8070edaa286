// Package citation extracts statute, ordinance and circular references from
// judgment text and renders them in the canonical "所得税法36条の2" form.
package citation

import (
	"regexp"

	"github.com/coolbeans/hanrei/pkg/types"
)

// Citation is a reference to one article of a law. Article and Sub are
// half-width base-10 strings.
type Citation struct {
	Law     string `json:"law"`
	Article string `json:"article"`
	Sub     string `json:"sub,omitempty"`
}

// String renders the citation as Law{Article}条[の{Sub}].
func (c Citation) String() string {
	s := c.Law + c.Article + "条"
	if c.Sub != "" {
		s += "の" + c.Sub
	}
	return s
}

var canonicalForm = regexp.MustCompile(`^(.+?)(\d+)条(?:の(\d+))?$`)

// Parse reads a canonical citation string. Sentinel markers and anything
// not in canonical form are rejected.
func Parse(s string) (Citation, bool) {
	if types.IsSentinel(s) {
		return Citation{}, false
	}
	m := canonicalForm.FindStringSubmatch(s)
	if m == nil {
		return Citation{}, false
	}
	return Citation{Law: m[1], Article: m[2], Sub: m[3]}, true
}

// Laws returns the distinct law names cited in list, in first-seen order.
// Sentinels are skipped.
func Laws(list []string) []string {
	seen := make(map[string]bool)
	var laws []string
	for _, s := range list {
		c, ok := Parse(s)
		if !ok || seen[c.Law] {
			continue
		}
		seen[c.Law] = true
		laws = append(laws, c.Law)
	}
	return laws
}
