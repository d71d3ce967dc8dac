package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // IANA zones on hosts without a zoneinfo database
)

// AtTimeLayout is the minute-precision local datetime used by the edit form.
const AtTimeLayout = "2006-01-02T15:04"

var atTimeLayouts = []string{AtTimeLayout, "2006-01-02T15:04:05", "2006-01-02 15:04"}

// LoadZone resolves an IANA zone name. An empty name yields fallback.
func LoadZone(tz string, fallback *time.Location) (*time.Location, error) {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		if fallback == nil {
			return time.Local, nil
		}
		return fallback, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", tz, err)
	}
	return loc, nil
}

// ParseAtTime interprets value as wall-clock time in loc and returns epoch ms.
func ParseAtTime(value string, loc *time.Location) (int64, error) {
	value = strings.TrimSpace(value)
	if loc == nil {
		loc = time.Local
	}
	var lastErr error
	for _, layout := range atTimeLayouts {
		t, err := time.ParseInLocation(layout, value, loc)
		if err == nil {
			return t.UnixMilli(), nil
		}
		lastErr = err
	}
	return 0, fmt.Errorf("parse at time %q: %w", value, lastErr)
}

// MaxEverySeconds is the longest interval whose millisecond form fits in int64.
const MaxEverySeconds = math.MaxInt64 / 1000

// ParseEverySeconds reads a whole number of seconds and returns the interval
// in milliseconds. Zero, negative and overflowing values are rejected.
func ParseEverySeconds(value string) (int64, error) {
	value = strings.TrimSpace(value)
	secs, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse interval %q: %w", value, err)
	}
	if secs <= 0 || secs > MaxEverySeconds {
		return 0, fmt.Errorf("interval %q out of range", value)
	}
	return secs * 1000, nil
}

// FormatAtTime renders ms in loc using AtTimeLayout.
func FormatAtTime(ms int64, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return time.UnixMilli(ms).In(loc).Format(AtTimeLayout)
}
