package retrieval

import (
	"strconv"
	"strings"
	"time"
)

// ParseSince interprets a user-facing "since" filter: "today", "yesterday",
// "Nd" (1-365 days), "Nw" (1-52 weeks), a 10- or 13-digit epoch, or an ISO
// date string. Case-insensitive, whitespace-trimmed. Returns the zero time
// and false for anything else — it never guesses.
func ParseSince(raw string) (time.Time, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return time.Time{}, false
	}

	now := time.Now()
	switch s {
	case "today":
		return startOfDay(now), true
	case "yesterday":
		return startOfDay(now.AddDate(0, 0, -1)), true
	}

	if strings.HasSuffix(s, "d") {
		if n, ok := parseBoundedInt(s[:len(s)-1], 1, 365); ok {
			return startOfDay(now.AddDate(0, 0, -n)), true
		}
	}
	if strings.HasSuffix(s, "w") {
		if n, ok := parseBoundedInt(s[:len(s)-1], 1, 52); ok {
			return startOfDay(now.AddDate(0, 0, -7*n)), true
		}
	}

	if (len(s) == 10 || len(s) == 13) && allDigits(s) {
		n, err := strconv.ParseInt(s, 10, 64)
		if err == nil {
			if len(s) == 13 {
				return time.UnixMilli(n), true
			}
			return time.Unix(n, 0), true
		}
	}

	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}

	return time.Time{}, false
}

func parseBoundedInt(s string, min, max int) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < min || n > max {
		return 0, false
	}
	return n, true
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
