package issue

import (
	"github.com/coolbeans/hanrei/pkg/jtext"
	"github.com/coolbeans/hanrei/pkg/rules"
)

// keywordWindow is how much of the text, in runes, topic tagging reads.
const keywordWindow = 5000

// KeywordTags tags a case with topic labels whose pattern occurs in the
// title or the opening of the text. At most r.TopicLimit labels are
// returned, in rule order.
func KeywordTags(r *rules.Rules, title, text string) []string {
	combined := title + " " + jtext.Truncate(text, keywordWindow)

	var tags []string
	seen := make(map[string]bool)
	for i := range r.Topics {
		topic := &r.Topics[i]
		if seen[topic.Label] || !topic.Match(combined) {
			continue
		}
		seen[topic.Label] = true
		tags = append(tags, topic.Label)
		if r.TopicLimit > 0 && len(tags) >= r.TopicLimit {
			break
		}
	}
	return tags
}
