package ingest

import (
	"strconv"
	"strings"
)

// cleanText collapses runs of whitespace into single spaces and trims.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// foldText lower-cases and whitespace-collapses a string for comparison.
func foldText(s string) string {
	return strings.ToLower(cleanText(s))
}

// stringify converts a raw JSON-ish scalar to a clean string. Numbers
// are rendered without a trailing ".0" so numeric IDs stay stable.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return cleanText(t)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// appendUnique appends a string to a slice if it doesn't already exist
// (case-insensitive).
func appendUnique(list []string, v string) []string {
	vClean := strings.TrimSpace(v)
	if vClean == "" {
		return list
	}

	vLower := strings.ToLower(vClean)
	for _, existing := range list {
		if strings.ToLower(existing) == vLower {
			return list
		}
	}
	return append(list, vClean)
}
