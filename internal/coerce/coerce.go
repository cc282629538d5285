// Package coerce converts arbitrary input values into the stored
// representation for each field type. Coercion never fails: unusable input
// degrades to an empty string, zero, or the date sentinel, matching the
// permissive stance of the emulated service.
package coerce

import (
	"strconv"
	"strings"
	"time"

	"github.com/rmuit/copernica-testapi/internal/schema"
)

// Sentinels representing "no date could be determined".
const (
	DateSentinel     = "0000-00-00"
	DatetimeSentinel = "0000-00-00 00:00:00"
)

// Coercer holds the timezone and clock configuration the date rules depend
// on. The zero value uses the process-local timezone and the real clock.
type Coercer struct {
	// InputLocation interprets naive date strings carrying no zone marker.
	InputLocation *time.Location
	// OutputLocation is the timezone results are formatted in.
	OutputLocation *time.Location
	// Now supplies the current time for relative forms like "now".
	Now func() time.Time
}

func (c *Coercer) inputLocation() *time.Location {
	if c != nil && c.InputLocation != nil {
		return c.InputLocation
	}
	return time.Local
}

func (c *Coercer) outputLocation() *time.Location {
	if c != nil && c.OutputLocation != nil {
		return c.OutputLocation
	}
	return time.Local
}

func (c *Coercer) now() time.Time {
	if c != nil && c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// Value converts an input value into the stored representation for a field
// type: string for text/email and date types, int64 for integer, float64 for
// float. Re-coercing an already-coerced value returns it unchanged.
func (c *Coercer) Value(input any, fieldType schema.FieldType) any {
	switch fieldType {
	case schema.TypeInteger:
		return intCast(input)
	case schema.TypeFloat:
		return floatCast(input)
	case schema.TypeDate, schema.TypeEmptyDate:
		if t, ok := c.parseInput(input); ok {
			return t.In(c.outputLocation()).Format("2006-01-02")
		}
		return DateSentinel
	case schema.TypeDatetime, schema.TypeEmptyDatetime:
		if t, ok := c.parseInput(input); ok {
			return t.In(c.outputLocation()).Format("2006-01-02 15:04:05")
		}
		return DatetimeSentinel
	default: // text, email
		return stringCast(input)
	}
}

// String renders the stored representation as a string, the shape field
// values take when rows are read back.
func (c *Coercer) String(input any, fieldType schema.FieldType) string {
	switch v := c.Value(input, fieldType).(type) {
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return formatFloat(v)
	default:
		return ""
	}
}

// parseInput feeds strings and bare numbers into the date parser. Booleans,
// nulls and compound values never parse.
func (c *Coercer) parseInput(input any) (time.Time, bool) {
	switch v := input.(type) {
	case string:
		return c.parseDateTime(v)
	case int:
		return c.parseDateTime(strconv.Itoa(v))
	case int64:
		return c.parseDateTime(strconv.FormatInt(v, 10))
	case float64:
		if v != float64(int64(v)) {
			return time.Time{}, false
		}
		return c.parseDateTime(strconv.FormatInt(int64(v), 10))
	}
	return time.Time{}, false
}

func stringCast(input any) string {
	switch v := input.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "1"
		}
		return ""
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return formatFloat(v)
	default:
		// Compound values flatten to the empty string regardless of contents.
		return ""
	}
}

func intCast(input any) int64 {
	switch v := input.(type) {
	case nil:
		return 0
	case string:
		return int64(leadingNumber(v))
	case bool:
		if v {
			return 1
		}
		return 0
	case int:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v) // truncation toward zero
	default:
		// Compound values cast to 1.
		return 1
	}
}

func floatCast(input any) float64 {
	switch v := input.(type) {
	case nil:
		return 0
	case string:
		return leadingNumber(v)
	case bool:
		if v {
			return 1
		}
		return 0
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case float64:
		return v
	default:
		return 1
	}
}

// leadingNumber parses the longest numeric prefix of a string, so "12abc"
// casts to 12 and non-numeric text to 0.
func leadingNumber(s string) float64 {
	s = strings.TrimLeft(s, " \t\n\r")
	end := 0
	seenDigit := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch >= '0' && ch <= '9':
			seenDigit = true
			end = i + 1
		case (ch == '+' || ch == '-') && i == 0:
		case ch == '.' && seenDigit:
			// keep scanning; end only advances on digits
		case (ch == 'e' || ch == 'E') && seenDigit:
			// exponent: require digits (optionally signed) to follow
			j := i + 1
			if j < len(s) && (s[j] == '+' || s[j] == '-') {
				j++
			}
			if j < len(s) && s[j] >= '0' && s[j] <= '9' {
				for j < len(s) && s[j] >= '0' && s[j] <= '9' {
					j++
				}
				end = j
			}
			i = len(s)
		default:
			i = len(s)
		}
	}
	if end == 0 {
		return 0
	}
	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0
	}
	return f
}

// formatFloat renders floats the way the emulated service casts them to
// strings: no trailing zeros, whole floats without a decimal point.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
