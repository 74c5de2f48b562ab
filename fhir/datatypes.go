/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package fhir

import (
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Well known code systems.
const (
	SystemCVX    = "http://hl7.org/fhir/sid/cvx"
	SystemLOINC  = "http://loinc.org"
	SystemSNOMED = "http://snomed.info/sct"
)

// Coding is a code defined by a terminology system.
type Coding struct {
	System  string `json:"system,omitempty"`
	Code    string `json:"code,omitempty"`
	Display string `json:"display,omitempty"`
}

// CodeableConcept is a concept that may be defined by one or more codings.
type CodeableConcept struct {
	Coding []Coding `json:"coding,omitempty"`
	Text   string   `json:"text,omitempty"`
}

// DisplayString returns the short label of the first coding, e.g. "LOINC 8480-6".
// Without codings the concept text is used.
func (c *CodeableConcept) DisplayString() (string, bool) {
	if c == nil {
		return "", false
	}

	if len(c.Coding) > 0 {
		first := c.Coding[0]

		s := strings.TrimSpace(SystemDisplay(first.System) + " " + first.Code)

		return s, s != ""
	}

	return c.Text, c.Text != ""
}

// SystemDisplay returns the abbreviation of a well known code system.
func SystemDisplay(system string) string {
	switch system {
	case SystemCVX:
		return "CVX"
	case SystemLOINC:
		return "LOINC"
	case SystemSNOMED:
		return "SNOMED"
	default:
		return ""
	}
}

// Quantity is a measured amount.
type Quantity struct {
	Value      *float64 `json:"value,omitempty"`
	Comparator string   `json:"comparator,omitempty"`
	Unit       string   `json:"unit,omitempty"`
	System     string   `json:"system,omitempty"`
	Code       string   `json:"code,omitempty"`
}

// DisplayString renders the quantity as "[comparator] value [unit]".
func (q *Quantity) DisplayString() (string, bool) {
	if q == nil || q.Value == nil {
		return "", false
	}

	parts := []string{q.Comparator, formatDecimal(*q.Value), q.Unit}

	return strings.Join(lo.Compact(parts), " "), true
}

// formatDecimal keeps one fraction digit, or two below one, and groups thousands.
func formatDecimal(v float64) string {
	digits := 1
	if v < 1 {
		digits = 2
	}

	s := strconv.FormatFloat(v, 'f', digits, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}

	intPart, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder

	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}

		b.WriteRune(r)
	}

	if hasFrac {
		return sign + b.String() + "." + frac
	}

	return sign + b.String()
}

// HumanName is the name of a person.
type HumanName struct {
	Text   string   `json:"text,omitempty"`
	Family string   `json:"family,omitempty"`
	Given  []string `json:"given,omitempty"`
	Prefix []string `json:"prefix,omitempty"`
	Suffix []string `json:"suffix,omitempty"`
}

// FullName returns the name text when set, otherwise prefix, given, family and suffix parts
// joined by spaces.
func (n *HumanName) FullName() (string, bool) {
	if n == nil {
		return "", false
	}

	if n.Text != "" {
		return n.Text, true
	}

	var parts []string

	parts = append(parts, lo.Compact(n.Prefix)...)
	parts = append(parts, lo.Compact(n.Given)...)

	if n.Family != "" {
		parts = append(parts, n.Family)
	}

	parts = append(parts, lo.Compact(n.Suffix)...)

	if len(parts) == 0 {
		return "", false
	}

	return strings.Join(parts, " "), true
}

// Reference points to another resource.
type Reference struct {
	Reference string `json:"reference,omitempty"`
	Display   string `json:"display,omitempty"`
}
