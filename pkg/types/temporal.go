package types

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Date represents a calendar date without time component.
type Date struct {
	Year  int
	Month int // 1-12
	Day   int // 1-31
}

// ToTime converts a Date to a time.Time at midnight UTC.
func (d Date) ToTime() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// Before returns true if d is before other.
func (d Date) Before(other Date) bool {
	return d.ToTime().Before(other.ToTime())
}

// ISO formats the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) ISO() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// eraOffsets maps a Japanese era name to the Gregorian year preceding its
// first year.
var eraOffsets = []struct {
	name   string
	offset int
}{
	{"令和", 2018},
	{"平成", 1988},
	{"昭和", 1925},
}

var eraDatePatterns = func() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(eraOffsets))
	for i, era := range eraOffsets {
		patterns[i] = regexp.MustCompile(era.name + `(\d+|元)年(\d+)月(\d+)日`)
	}
	return patterns
}()

// ParseEraDate converts a Japanese era date such as "令和5年3月14日" to a
// Date. Digits must already be half-width. "元年" is year one.
func ParseEraDate(value string) (Date, bool) {
	for i, pattern := range eraDatePatterns {
		match := pattern.FindStringSubmatch(value)
		if match == nil {
			continue
		}
		year := 1
		if match[1] != "元" {
			year, _ = strconv.Atoi(match[1])
		}
		month, _ := strconv.Atoi(match[2])
		day, _ := strconv.Atoi(match[3])
		if month < 1 || month > 12 || day < 1 || day > 31 {
			return Date{}, false
		}
		return Date{Year: eraOffsets[i].offset + year, Month: month, Day: day}, true
	}
	return Date{}, false
}
