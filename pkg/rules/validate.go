package rules

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidationError describes one problem in a rule set.
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

func (e ValidationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every problem found in a rule set.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	if len(errs) == 0 {
		return "no errors"
	}
	if len(errs) == 1 {
		return errs[0].Error()
	}
	messages := make([]string, len(errs))
	for i, err := range errs {
		messages[i] = err.Error()
	}
	return fmt.Sprintf("%d validation errors:\n  - %s", len(errs), strings.Join(messages, "\n  - "))
}

// Validate checks the rule set for missing tables, bad patterns and
// out-of-range values. It returns nil when the set is usable.
func (r *Rules) Validate() ValidationErrors {
	var errs ValidationErrors

	if len(r.Laws) == 0 {
		errs = append(errs, ValidationError{Field: "laws", Message: "at least one law is required"})
	}
	seen := make(map[string]bool, len(r.Laws))
	for i, law := range r.Laws {
		field := fmt.Sprintf("laws[%d]", i)
		switch {
		case strings.TrimSpace(law) == "":
			errs = append(errs, ValidationError{Field: field, Message: "empty law name"})
		case seen[law]:
			errs = append(errs, ValidationError{Field: field, Message: "duplicate law name", Value: law})
		}
		seen[law] = true
	}

	for i, abbr := range r.Abbreviations {
		field := fmt.Sprintf("abbreviations[%d]", i)
		if abbr.Pattern == "" || abbr.Law == "" {
			errs = append(errs, ValidationError{Field: field, Message: "pattern and law are required"})
			continue
		}
		if _, err := regexp.Compile(abbr.Pattern); err != nil {
			errs = append(errs, ValidationError{Field: field + ".pattern", Message: "invalid regular expression", Value: abbr.Pattern})
		}
	}

	errs = append(errs, validateMappings("title_laws", r.TitleLaws)...)
	errs = append(errs, validateMappings("law_taxes", r.LawTaxes)...)
	errs = append(errs, validateMappings("title_taxes", r.TitleTaxes)...)

	if len(r.BodyTaxes) > 0 {
		if r.ActionPattern == "" {
			errs = append(errs, ValidationError{Field: "action_pattern", Message: "required when body_taxes is set"})
		} else if _, err := regexp.Compile(r.ActionPattern); err != nil {
			errs = append(errs, ValidationError{Field: "action_pattern", Message: "invalid regular expression", Value: r.ActionPattern})
		}
	}
	if r.ActionWindow < 0 || r.ActionWindow > 100 {
		errs = append(errs, ValidationError{Field: "action_window", Message: "must be between 0 and 100", Value: r.ActionWindow})
	}

	for i, court := range r.Courts {
		field := fmt.Sprintf("courts[%d]", i)
		if court.Match == "" {
			errs = append(errs, ValidationError{Field: field + ".match", Message: "required field is missing"})
		}
		if court.Level < 1 || court.Level > 3 {
			errs = append(errs, ValidationError{Field: field + ".level", Message: "must be 1, 2 or 3", Value: court.Level})
		}
	}

	if r.TopicLimit < 0 {
		errs = append(errs, ValidationError{Field: "topic_limit", Message: "must not be negative", Value: r.TopicLimit})
	}
	for i, topic := range r.Topics {
		field := fmt.Sprintf("topics[%d]", i)
		if topic.Pattern == "" || topic.Label == "" {
			errs = append(errs, ValidationError{Field: field, Message: "pattern and label are required"})
			continue
		}
		if _, err := regexp.Compile(topic.Pattern); err != nil {
			errs = append(errs, ValidationError{Field: field + ".pattern", Message: "invalid regular expression", Value: topic.Pattern})
		}
	}

	return errs
}

func validateMappings(name string, mappings []Mapping) ValidationErrors {
	var errs ValidationErrors
	for i, m := range mappings {
		if m.Keyword == "" || m.Value == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s[%d]", name, i),
				Message: "keyword and value are required",
			})
		}
	}
	return errs
}
