package importer

import (
	"strings"
	"time"
)

// timestampLayouts are tried in order; the first layout that parses wins,
// so a value valid under two layouts takes the earlier interpretation.
var timestampLayouts = []string{
	"2/1/2006, 15:04:05",
	"2/1/2006 15:04:05",
	"2006-1-2 15:04:05",
	"2-1-2006 15:04:05",
	"2/1/2006, 15:04",
	"2/1/2006 15:04",
}

// ParseTimestamp parses a chat export timestamp. Values carry no zone and
// are returned as naive UTC instants. ok is false when no layout matches.
func ParseTimestamp(value string) (ts time.Time, ok bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	value = padClock(value)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// padClock zero-pads single-digit clock fields ("14:5" becomes "14:05")
// since time.Parse only accepts two-digit minutes and seconds.
func padClock(value string) string {
	start := strings.LastIndexByte(value, ' ') + 1
	clock := value[start:]
	if !strings.Contains(clock, ":") {
		return value
	}

	parts := strings.Split(clock, ":")
	for i, part := range parts {
		if len(part) == 1 && part[0] >= '0' && part[0] <= '9' {
			parts[i] = "0" + part
		}
	}
	return value[:start] + strings.Join(parts, ":")
}
