package archive

import (
	"regexp"
	"strings"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// datePattern accepts 19xx/20xx dates with month-appropriate day ranges.
var datePattern = regexp.MustCompile(`^(19|20)\d\d-(((0[13578]|1[02])-(0[1-9]|[12]\d|3[01]))|((0[469]|11)-(0[1-9]|[12]\d|30))|(02-(0[1-9]|1\d|2[0-9])))$`)

// ParseChannel normalizes a channel mention, raw id or the literal "admin".
// Ids must have exactly idLength digits once everything else is stripped.
func ParseChannel(raw string, idLength int) (string, error) {
	if raw == AdminScope {
		return AdminScope, nil
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
	if len(digits) != idLength {
		return "", ErrInvalidChannel
	}
	if _, err := snowflake.Parse(digits); err != nil {
		return "", ErrInvalidChannel
	}
	return digits, nil
}

// ParseDate accepts YYYY-MM-DD for a real calendar day, or the literal "all".
func ParseDate(raw string) (string, error) {
	if raw == AllDates {
		return AllDates, nil
	}
	if len(raw) != len(DateLayout) || !datePattern.MatchString(raw) {
		return "", ErrInvalidDate
	}
	// Feb 29 on non-leap years
	if _, err := time.Parse(DateLayout, raw); err != nil {
		return "", ErrInvalidDate
	}
	return raw, nil
}
