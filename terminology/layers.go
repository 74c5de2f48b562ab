/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package terminology

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/tidwall/gjson"
)

// Key identifies a code within a code system.
type Key struct {
	System string
	Code   string
}

// String returns the "system|code" form of the key.
func (k Key) String() string {
	return k.System + "|" + k.Code
}

// Layer is a named set of display names applied at cache creation.
type Layer struct {
	Name    string
	Entries map[Key]string
}

// ConsumerNames are consumer friendly labels that take precedence over every other source.
func ConsumerNames() Layer {
	return Layer{
		Name: "consumer",
		Entries: map[Key]string{
			{System: "http://snomed.info/sct", Code: "452341000124107"}: "Goal Barrier",
			{System: "http://loinc.org", Code: "85354-9"}:               "Blood Pressure",
			{System: "http://loinc.org", Code: "8480-6"}:                "Systolic",
			{System: "http://loinc.org", Code: "8462-4"}:                "Diastolic",
			{System: "http://loinc.org", Code: "4548-4"}:                "Hemoglobin A1c",
		},
	}
}

// CachedCodes are standard codes kept locally to avoid server round trips for common cards.
func CachedCodes() Layer {
	return Layer{
		Name: "cached",
		Entries: map[Key]string{
			{System: "http://snomed.info/sct", Code: "247751003"}:       "Sense of Purpose",
			{System: "http://snomed.info/sct", Code: "452341000124107"}: "Assessment of barriers to meet care plan goals performed",
		},
	}
}

// ProvisionalCodes are codes from implementation guides not yet published in a standard code system.
func ProvisionalCodes() Layer {
	return Layer{
		Name: "provisional",
		Entries: map[Key]string{
			{System: "http://va.gov/fhir/vco/CodeSystem/well-being", Code: "well-being-signs"}:     "Well-Being Signs",
			{System: "http://va.gov/fhir/us/vco/CodeSystem/well-being-signs", Code: "satisfied"}:   "Satisfied",
			{System: "http://va.gov/fhir/us/vco/CodeSystem/well-being-signs", Code: "involved"}:    "Involved",
			{System: "http://va.gov/fhir/us/vco/CodeSystem/well-being-signs", Code: "functioning"}: "Functioning",
			{System: "http://va.gov/fhir/us/vco/CodeSystem/well-being-signs", Code: "score"}:       "Score",
		},
	}
}

// DefaultLayers returns the static layers in priority order.
func DefaultLayers() []Layer {
	return []Layer{ConsumerNames(), CachedCodes(), ProvisionalCodes()}
}

// ValueSetLayer reads a FHIR ValueSet and collects the display names of its
// compose.include concepts and expansion.contains entries, nested entries included.
// Within one value set the first occurrence of a code wins.
func ValueSetLayer(fsys fs.FS, name string) (Layer, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return Layer{}, fmt.Errorf("read value set %s: %w", name, err)
	}

	if !gjson.ValidBytes(data) {
		return Layer{}, fmt.Errorf("value set %s: invalid JSON", name)
	}

	vs := gjson.ParseBytes(data)
	if rt := vs.Get("resourceType").String(); rt != "ValueSet" {
		return Layer{}, fmt.Errorf("value set %s: unexpected resourceType %q", name, rt)
	}

	layer := Layer{Name: name, Entries: map[Key]string{}}

	add := func(system, code, display string) {
		k := Key{System: system, Code: code}
		if _, ok := layer.Entries[k]; !ok {
			layer.Entries[k] = display
		}
	}

	vs.Get("compose.include").ForEach(func(_, include gjson.Result) bool {
		system := include.Get("system").String()
		if system == "" {
			return true
		}

		include.Get("concept").ForEach(func(_, concept gjson.Result) bool {
			code, display := concept.Get("code").String(), concept.Get("display").String()
			if code != "" && display != "" {
				add(system, code, display)
			}

			return true
		})

		return true
	})

	var walk func(contains gjson.Result)

	walk = func(contains gjson.Result) {
		contains.ForEach(func(_, entry gjson.Result) bool {
			system, code := entry.Get("system").String(), entry.Get("code").String()
			if system != "" && code != "" {
				display := entry.Get("display").String()
				if display == "" {
					display = code
				}

				add(system, code, display)
			}

			walk(entry.Get("contains"))

			return true
		})
	}

	walk(vs.Get("expansion.contains"))

	if len(layer.Entries) == 0 {
		return Layer{}, errors.New("value set " + name + " has no concepts")
	}

	return layer, nil
}
