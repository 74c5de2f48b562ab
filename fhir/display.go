/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package fhir

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
)

const displayDateLayout = "January 2, 2006"

var dateLayouts = []struct {
	layout  string
	display string
}{
	{time.RFC3339, displayDateLayout},
	{"2006-01-02T15:04:05", displayDateLayout},
	{time.DateOnly, displayDateLayout},
	{"2006-01", "January 2006"},
	{"2006", "2006"},
}

// summaryOrder lists the resource types named in content summaries, in display order.
var summaryOrder = []string{
	TypePatient, TypeGoal, TypeCondition, TypeMedication, TypeImmunization,
	TypeProcedure, TypeServiceRequest, TypeObservation,
}

// DisplayResolver resolves display text for coded concepts.
type DisplayResolver interface {
	LookupConcept(ctx context.Context, concept CodeableConcept) (string, bool, error)
}

// Summary is the display text of one entry.
type Summary struct {
	ResourceType string `json:"resourceType"`
	Title        string `json:"title"`
	Subtitle     string `json:"subtitle,omitempty"`
	Detail       string `json:"detail,omitempty"`
}

// DisplayString renders the value[x] choice.
func (v *Value) DisplayString() (string, bool) {
	switch {
	case v.ValueQuantity != nil:
		return v.ValueQuantity.DisplayString()
	case v.ValueCodeableConcept != nil:
		return v.ValueCodeableConcept.DisplayString()
	case v.ValueString != nil:
		return *v.ValueString, true
	case v.ValueInteger != nil:
		return strconv.Itoa(*v.ValueInteger), true
	case v.ValueBoolean != nil:
		return strconv.FormatBool(*v.ValueBoolean), true
	default:
		return "", false
	}
}

// FormatDate renders a FHIR date or dateTime in long form, e.g. "January 1, 2021".
// Date-times are shown in their own offset.
func FormatDate(value string) (string, bool) {
	if value == "" {
		return "", false
	}

	for _, l := range dateLayouts {
		if t, err := time.Parse(l.layout, value); err == nil {
			return t.Format(l.display), true
		}
	}

	return "", false
}

// Summarize renders the entry title, subtitle and detail from the card content alone.
func Summarize(r Resource) Summary {
	s := Summary{ResourceType: r.ResourceType(), Title: r.ResourceType()}

	if cc := titleCode(r); cc != nil {
		if title, ok := cc.DisplayString(); ok {
			s.Title = title
		}
	}

	switch v := r.(type) {
	case *Patient:
		if len(v.Name) > 0 {
			if name, ok := v.Name[0].FullName(); ok {
				s.Title = name
			}
		}

		s.Subtitle, _ = FormatDate(v.BirthDate)
	case *Condition:
		s.Subtitle = starting(v.RecordedDate)
	case *Goal:
		s.Subtitle = starting(v.StartDate)
		s.Detail = s.Title

		if desc, ok := v.Description.DisplayString(); ok {
			s.Detail = desc
		}
	case *Immunization:
		s.Subtitle, _ = FormatDate(v.OccurrenceDateTime)

		if len(v.Performer) > 0 {
			s.Detail = v.Performer[0].Actor.Display
		}
	case *Observation:
		s.Subtitle, _ = FormatDate(v.EffectiveDateTime)

		if value, ok := v.Value.DisplayString(); ok {
			s.Detail = value
		} else {
			s.Detail = componentDetail(v.Component, func(cc CodeableConcept) string {
				d, _ := cc.DisplayString()
				return d
			})
		}
	case *Other:
	}

	return s
}

// ResolveSummary is Summarize with coded titles and observation component labels resolved
// through the given resolver. The statically rendered text is kept for codes the resolver
// does not know. The summary built so far is returned with a resolver error.
func ResolveSummary(ctx context.Context, r Resource, resolver DisplayResolver) (Summary, error) {
	s := Summarize(r)
	if resolver == nil {
		return s, nil
	}

	if cc := titleCode(r); cc != nil {
		title, ok, err := resolver.LookupConcept(ctx, *cc)
		if err != nil {
			return s, err
		}

		if ok {
			s.Title = title
		}
	}

	obs, ok := r.(*Observation)
	if !ok || len(obs.Component) == 0 {
		return s, nil
	}

	if _, hasValue := obs.Value.DisplayString(); hasValue {
		return s, nil
	}

	var lookupErr error

	s.Detail = componentDetail(obs.Component, func(cc CodeableConcept) string {
		if lookupErr == nil {
			d, found, err := resolver.LookupConcept(ctx, cc)
			if err != nil {
				lookupErr = err
			} else if found {
				return d
			}
		}

		d, _ := cc.DisplayString()

		return d
	})

	return s, lookupErr
}

// ContentSummary names the summarized resource types present, e.g. "Patient, Immunization, and Observation".
func ContentSummary(resources []Resource) string {
	present := lo.SliceToMap(resources, func(r Resource) (string, struct{}) {
		return r.ResourceType(), struct{}{}
	})

	names := lo.Filter(summaryOrder, func(t string, _ int) bool {
		_, ok := present[t]
		return ok
	})

	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	default:
		return strings.Join(names[:len(names)-1], ", ") + ", and " + names[len(names)-1]
	}
}

func titleCode(r Resource) *CodeableConcept {
	switch v := r.(type) {
	case *Condition:
		return v.Code
	case *Immunization:
		return &v.VaccineCode
	case *Observation:
		return &v.Code
	default:
		return nil
	}
}

func starting(date string) string {
	if d, ok := FormatDate(date); ok {
		return "Starting " + d
	}

	return ""
}

func componentDetail(components []ObservationComponent, label func(CodeableConcept) string) string {
	parts := make([]string, 0, len(components))

	for _, c := range components {
		value, ok := c.Value.DisplayString()
		if !ok {
			continue
		}

		code := label(c.Code)
		if code == "" {
			continue
		}

		parts = append(parts, code+" = "+value)
	}

	return strings.Join(parts, ", ")
}
