// Package pipeline transforms the raw incident table into the summaries the
// dashboard renders: typed columns, region/date filtering, coverage and
// municipal aggregates, rankings, and the incident/area correlation.
package pipeline

import (
	"strconv"
	"strings"
	"time"

	"github.com/fenix-boyaca/fenix-cli/internal/table"
)

var dateLayouts = []string{
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006",
}

// coerceFloat extracts a numeric value from a cell, parsing strings.
// Placeholder values like "N/D" report false.
func coerceFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// coerceDate extracts a date from a cell, parsing portal-format strings.
func coerceDate(v any) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		return val, true
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts, true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

// coerceClock extracts an "HH:MM" time of day from a cell.
func coerceClock(v any) (table.TimeOfDay, bool) {
	switch val := v.(type) {
	case table.TimeOfDay:
		return val, true
	case string:
		parts := strings.SplitN(strings.TrimSpace(val), ":", 3)
		if len(parts) < 2 {
			return table.TimeOfDay{}, false
		}
		h, err := strconv.Atoi(parts[0])
		if err != nil || h < 0 || h > 23 {
			return table.TimeOfDay{}, false
		}
		m, err := strconv.Atoi(parts[1])
		if err != nil || m < 0 || m > 59 {
			return table.TimeOfDay{}, false
		}
		return table.TimeOfDay{Hour: h, Minute: m}, true
	default:
		return table.TimeOfDay{}, false
	}
}

// coerceBool extracts a boolean from a cell. The portal records the flag in
// both English and Spanish spellings.
func coerceBool(v any) (bool, bool) {
	switch val := v.(type) {
	case bool:
		return val, true
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "si", "sí", "s", "1", "x":
			return true, true
		case "false", "no", "n", "0":
			return false, true
		default:
			return false, false
		}
	default:
		return false, false
	}
}

// coerceString renders any cell as a string.
func coerceString(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(val), true
	case time.Time:
		return val.Format("2006-01-02"), true
	case table.TimeOfDay:
		return val.String(), true
	default:
		return "", false
	}
}
