package relation

import (
	"strings"

	"github.com/coolbeans/hanrei/pkg/jtext"
	"github.com/coolbeans/hanrei/pkg/types"
)

const acceptancePhrase = "本件を上告審として受理する"

// Fallback settles the citation list of a case that is still empty after
// resolution and re-extraction, so every case ends up with either genuine
// citations or a marker explaining their absence.
func Fallback(c *types.Case, text string) Resolution {
	switch {
	case strings.Contains(c.Title, "上告受理") && strings.Contains(jtext.StripSpace(text), acceptancePhrase):
		return Resolution{
			Status:       StatusFallback,
			Laws:         []string{types.SentinelAccepted},
			JudgmentType: types.JudgmentTypeAcceptance,
			Reason:       "petition accepted",
		}
	case strings.Contains(c.Title, "損害賠償") || strings.Contains(c.Title, "国家賠償"):
		return Resolution{
			Status: StatusFallback,
			Laws:   []string{types.SentinelDamages},
			Reason: "damages claim",
		}
	default:
		return Resolution{
			Status: StatusFallback,
			Laws:   []string{types.SentinelNoProvision},
			Reason: "no provision cited",
		}
	}
}
