package socrata

import (
	"strings"
	"time"
)

// timestampLayouts covers the floating timestamps Socrata emits plus the
// bare-date form older exports of this dataset used.
var timestampLayouts = []string{
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006",
}

// ParseTimestamp parses a portal timestamp string. Reports false when no
// known layout matches.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
