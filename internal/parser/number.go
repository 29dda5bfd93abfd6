package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Numbers are read from their longest leading numeric prefix, so "120abc"
// is 120 and "abc" is NaN. Nothing here rejects a field.
var (
	intPrefix   = regexp.MustCompile(`^[+-]?\d+`)
	floatPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
)

func parseNumber(s string, prefix *regexp.Regexp) float64 {
	m := prefix.FindString(strings.TrimSpace(s))
	if m == "" {
		return math.NaN()
	}
	// The prefix is always valid syntax, an overflow comes back as ±Inf
	v, _ := strconv.ParseFloat(m, 64)
	return v
}

func parseInt(s string) float64 {
	return parseNumber(s, intPrefix)
}

func parseFloat(s string) float64 {
	return parseNumber(s, floatPrefix)
}

// orInt converts a parsed integer, substituting def for NaN and infinities
func orInt(v float64, def int) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return int(v)
}

// truthy mirrors the "value || default" defaulting for counts like keys
// and mode, where 0 also falls back.
func truthy(v float64, def int) int {
	i := orInt(v, def)
	if i == 0 {
		return def
	}
	return i
}
