// Package inference classifies raw JSON/CSV values into lattice.Type values,
// including the regex-based recognition of quoted temporal and numeric
// strings that BigQuery's own loader performs.
package inference

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kestrel-labs/bqschema/internal/lattice"
)

// Regex patterns reproduced from BigQuery's own load-time type sniffing so
// that quoted values classify identically to `bq load`.
var (
	timestampRe = regexp.MustCompile(`^\d{4}-\d{1,2}-\d{1,2}[T ]\d{1,2}:\d{1,2}:\d{1,2}(\.\d{1,6})? *(([+-]\d{1,2}(:\d{1,2})?)|Z|UTC)?$`)
	dateRe      = regexp.MustCompile(`^\d{4}-(?:[1-9]|0[1-9]|1[012])-(?:[1-9]|0[1-9]|[12][0-9]|3[01])$`)
	timeRe      = regexp.MustCompile(`^\d{1,2}:\d{1,2}:\d{1,2}(\.\d{1,6})?$`)
	integerRe   = regexp.MustCompile(`^[-+]?\d+$`)
	floatRe     = regexp.MustCompile(`^[-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?$`)
)

// IsTimestamp reports whether s matches BigQuery's TIMESTAMP literal shape.
func IsTimestamp(s string) bool { return timestampRe.MatchString(s) }

// IsDate reports whether s matches BigQuery's DATE literal shape.
func IsDate(s string) bool { return dateRe.MatchString(s) }

// IsTime reports whether s matches BigQuery's TIME literal shape.
func IsTime(s string) bool { return timeRe.MatchString(s) }

// IsIntegerString reports whether s is an integer literal, quoted or not.
func IsIntegerString(s string) bool { return integerRe.MatchString(s) }

// IsFloatString reports whether s is a float literal, quoted or not.
func IsFloatString(s string) bool { return floatRe.MatchString(s) }

// IsBooleanString reports whether s spells "true" or "false" case-insensitively.
func IsBooleanString(s string) bool {
	lower := strings.ToLower(s)
	return lower == "true" || lower == "false"
}

// FromString classifies a scalar string value. Temporal shapes are always
// checked first, regardless of quotedValuesAreStrings, since a quoted
// timestamp is unambiguous. When quotedValuesAreStrings is set, no further
// inference happens and plain STRING is returned.
func FromString(s string, quotedValuesAreStrings bool) lattice.Type {
	switch {
	case IsTimestamp(s):
		return lattice.Timestamp
	case IsDate(s):
		return lattice.Date
	case IsTime(s):
		return lattice.Time
	}

	if quotedValuesAreStrings {
		return lattice.String
	}

	if IsIntegerString(s) {
		if _, err := strconv.ParseInt(s, 10, 64); err == nil {
			return lattice.QInteger
		}
		// Doesn't fit in int64: BigQuery would coerce it to FLOAT.
		return lattice.QFloat
	}
	if IsFloatString(s) {
		return lattice.QFloat
	}
	if IsBooleanString(s) {
		return lattice.QBoolean
	}
	return lattice.String
}

// NumberString classifies a json.Number's literal text, distinguishing
// "42" (Integer) from "42.0" (Float) the way encoding/json's raw token
// does not once decoded into float64. quotedValuesAreStrings does not
// apply here — the caller already knows this came from a JSON number
// literal, not a quoted string.
func NumberString(s string) lattice.Type {
	if !strings.ContainsAny(s, ".eE") {
		if _, err := strconv.ParseInt(s, 10, 64); err == nil {
			return lattice.Integer
		}
		// Overflows int64: BigQuery would still see this as a number,
		// widen to FLOAT the same way an unsigned overflow does.
		return lattice.Float
	}
	return lattice.Float
}
