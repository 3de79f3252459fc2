// Package scrape extracts numeric values from game label text.
//
// Every scraper returns (value, ok). A label that does not match yields
// ok == false; scrapers never panic on arbitrary input.
package scrape

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

const number = `([0-9]+(?:\.[0-9]+)?)(?:e\+?(-?[0-9]+))?`

var (
	percentRe    = regexp.MustCompile(`\(([+-])` + number + `%/s\)`)
	multiplierRe = regexp.MustCompile(`\(` + number + `x\)`)
	countRe      = regexp.MustCompile(`\(([0-9]+)\):`)
	costRe       = regexp.MustCompile(`requires ([0-9]+)\b.*Dimensions`)
	amountRe     = regexp.MustCompile(`^\s*([0-9][0-9,]*(?:\.[0-9]+)?)(?:e\+?(-?[0-9]+))?\s*\(.*\)\s*$`)
)

// Percent extracts the signed rate from a label such as "1.2e30 (+12.3%/s)".
func Percent(label string) (float64, bool) {
	m := percentRe.FindStringSubmatch(label)
	if m == nil {
		return 0, false
	}
	v, ok := parseScientific(m[2], m[3])
	if !ok {
		return 0, false
	}
	if m[1] == "-" {
		v = -v
	}
	return v, true
}

// Multiplier extracts the multiplier from a label such as "Dimensional Sacrifice (5.2x)".
func Multiplier(label string) (float64, bool) {
	m := multiplierRe.FindStringSubmatch(label)
	if m == nil {
		return 0, false
	}
	return parseScientific(m[1], m[2])
}

// Count extracts the counter from a label such as "Dimension Boost (3): requires ...".
func Count(label string) (int, bool) {
	m := countRe.FindStringSubmatch(label)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Cost extracts the requirement from a sentence such as
// "Dimension Boost (3): requires 1024 8th Dimensions".
func Cost(label string) (int, bool) {
	m := costRe.FindStringSubmatch(label)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Amount extracts the leading quantity of a compound label "<amount> (<detail>)",
// e.g. "1,234 (+5.0%/s)" or "1.5e12 (3)".
func Amount(label string) (float64, bool) {
	m := amountRe.FindStringSubmatch(label)
	if m == nil {
		return 0, false
	}
	return parseScientific(strings.ReplaceAll(m[1], ",", ""), m[2])
}

// parseScientific parses mantissa and optional exponent as one decimal
// literal so that the exponent is applied without rounding drift.
func parseScientific(mantissa, exponent string) (float64, bool) {
	lit := mantissa
	if exponent != "" {
		lit += "e" + exponent
	}
	v, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		// Out of float64 range: v is already the saturated value.
		if errors.Is(err, strconv.ErrRange) {
			return v, true
		}
		return 0, false
	}
	return v, true
}
