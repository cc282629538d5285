package coerce

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// The permissive date grammar: full dates with optional time and fractional
// seconds, an optional trailing zone marker ("z", "utc" or a numeric
// offset), bare times, "@<unix-timestamp>", relative keywords, and short
// bare integers read as HH:MM. Anything else fails and the caller degrades
// to the sentinel.
var (
	dateTimeRe = regexp.MustCompile(
		`^(\d{4})-(\d{1,2})-(\d{1,2})(?:[ t](\d{1,2}):(\d{1,2})(?::(\d{1,2})(?:\.\d+)?)?)?\s*(z|utc|[+-]\d{1,2}(?::?\d{2})?)?$`)
	timeOnlyRe = regexp.MustCompile(
		`^(\d{1,2}):(\d{1,2})(?::(\d{1,2})(?:\.\d+)?)?\s*(z|utc|[+-]\d{1,2}(?::?\d{2})?)?$`)
	unixRe     = regexp.MustCompile(`^@(-?\d+)$`)
	bareHHMMRe = regexp.MustCompile(`^(\d{1,2})(\d{2})$`)
)

// parseDateTime resolves a raw date/time string to an absolute instant.
// Naive strings are read in the input timezone; strings carrying a zone
// marker are read in that zone. The second return value is false when the
// string does not fit any recognized form.
func (c *Coercer) parseDateTime(raw string) (time.Time, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return time.Time{}, false
	}

	switch s {
	case "now":
		return c.now(), true
	case "today":
		return c.midnight(0), true
	case "yesterday":
		return c.midnight(-1), true
	case "tomorrow":
		return c.midnight(1), true
	}

	if m := unixRe.FindStringSubmatch(s); m != nil {
		sec, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		return time.Unix(sec, 0), true
	}

	// Short bare integers read as HH:MM on the current date; anything out of
	// clock range, or longer, is rejected rather than guessed at.
	if m := bareHHMMRe.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour > 23 || minute > 59 {
			return time.Time{}, false
		}
		base := c.now().In(c.inputLocation())
		y, mo, d := base.Date()
		return time.Date(y, mo, d, hour, minute, 0, 0, c.inputLocation()), true
	}

	if m := dateTimeRe.FindStringSubmatch(s); m != nil {
		return c.buildTime(m[1], m[2], m[3], m[4], m[5], m[6], m[7])
	}
	if m := timeOnlyRe.FindStringSubmatch(s); m != nil {
		base := c.now().In(c.inputLocation())
		y, mo, d := base.Date()
		return c.buildTime(strconv.Itoa(y), strconv.Itoa(int(mo)), strconv.Itoa(d), m[1], m[2], m[3], m[4])
	}
	return time.Time{}, false
}

func (c *Coercer) buildTime(year, month, day, hour, minute, second, zone string) (time.Time, bool) {
	y, _ := strconv.Atoi(year)
	mo, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)
	h := atoiDefault(hour, 0)
	mi := atoiDefault(minute, 0)
	sec := atoiDefault(second, 0)

	if mo < 1 || mo > 12 || d < 1 || d > 31 || h > 23 || mi > 59 || sec > 59 {
		return time.Time{}, false
	}
	loc, ok := zoneLocation(zone, c.inputLocation())
	if !ok {
		return time.Time{}, false
	}
	// time.Date normalizes day overflow (Feb 31 rolls into March), matching
	// the permissive parser being emulated.
	return time.Date(y, time.Month(mo), d, h, mi, sec, 0, loc), true
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// zoneLocation resolves a zone suffix: empty means naive (fallback), "z" and
// "utc" mean UTC, otherwise a numeric offset like +2, -05:30 or +0100.
func zoneLocation(zone string, fallback *time.Location) (*time.Location, bool) {
	switch zone {
	case "":
		return fallback, true
	case "z", "utc":
		return time.UTC, true
	}

	sign := 1
	if zone[0] == '-' {
		sign = -1
	}
	rest := strings.ReplaceAll(zone[1:], ":", "")
	var hours, minutes int
	switch len(rest) {
	case 1, 2:
		hours, _ = strconv.Atoi(rest)
	case 3, 4:
		hours, _ = strconv.Atoi(rest[:len(rest)-2])
		minutes, _ = strconv.Atoi(rest[len(rest)-2:])
	default:
		return nil, false
	}
	if hours > 14 || minutes > 59 {
		return nil, false
	}
	offset := sign * (hours*3600 + minutes*60)
	return time.FixedZone(zone, offset), true
}

// midnight returns the start of the current day in the input timezone,
// shifted by whole days for "yesterday" and "tomorrow".
func (c *Coercer) midnight(dayOffset int) time.Time {
	base := c.now().In(c.inputLocation())
	y, mo, d := base.Date()
	return time.Date(y, mo, d+dayOffset, 0, 0, 0, 0, c.inputLocation())
}
