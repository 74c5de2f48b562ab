/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package fhir decodes the FHIR bundle carried by a health card into a closed set of
// clinical entry variants and renders display text for them.
package fhir

import (
	"errors"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Resource types with a dedicated variant, plus the types named in content summaries.
const (
	TypePatient        = "Patient"
	TypeCondition      = "Condition"
	TypeGoal           = "Goal"
	TypeImmunization   = "Immunization"
	TypeObservation    = "Observation"
	TypeMedication     = "Medication"
	TypeProcedure      = "Procedure"
	TypeServiceRequest = "ServiceRequest"
)

// ErrDecode is returned when a bundle entry cannot be decoded into its variant.
var ErrDecode = errors.New("fhir decode")

// Resource is a clinical entry of a health card bundle. The set of implementations is closed:
// *Patient, *Condition, *Goal, *Immunization, *Observation and *Other.
type Resource interface {
	ResourceType() string
	sealed()
}

// Patient is the subject of the card.
type Patient struct {
	ID        string      `json:"id,omitempty"`
	Name      []HumanName `json:"name,omitempty"`
	BirthDate string      `json:"birthDate,omitempty"`
}

// Condition is a clinical condition.
type Condition struct {
	ID           string           `json:"id,omitempty"`
	Code         *CodeableConcept `json:"code,omitempty"`
	RecordedDate string           `json:"recordedDate,omitempty"`
}

// Goal is a care plan goal.
type Goal struct {
	ID          string          `json:"id,omitempty"`
	Description CodeableConcept `json:"description"`
	StartDate   string          `json:"startDate,omitempty"`
}

// Performer is the actor of an immunization event.
type Performer struct {
	Actor Reference `json:"actor"`
}

// Immunization is an administered vaccine dose.
type Immunization struct {
	ID                 string          `json:"id,omitempty"`
	Status             string          `json:"status,omitempty"`
	VaccineCode        CodeableConcept `json:"vaccineCode"`
	OccurrenceDateTime string          `json:"occurrenceDateTime,omitempty"`
	LotNumber          string          `json:"lotNumber,omitempty"`
	Performer          []Performer     `json:"performer,omitempty"`
}

// ObservationComponent is one measured part of an observation.
type ObservationComponent struct {
	Value

	Code CodeableConcept `json:"code"`
}

// Value holds the value[x] choice of observations and their components.
type Value struct {
	ValueQuantity        *Quantity        `json:"valueQuantity,omitempty"`
	ValueCodeableConcept *CodeableConcept `json:"valueCodeableConcept,omitempty"`
	ValueString          *string          `json:"valueString,omitempty"`
	ValueInteger         *int             `json:"valueInteger,omitempty"`
	ValueBoolean         *bool            `json:"valueBoolean,omitempty"`
}

// Observation is a measurement or assertion.
type Observation struct {
	Value

	ID                string                 `json:"id,omitempty"`
	Status            string                 `json:"status,omitempty"`
	Code              CodeableConcept        `json:"code"`
	EffectiveDateTime string                 `json:"effectiveDateTime,omitempty"`
	Component         []ObservationComponent `json:"component,omitempty"`
}

// Other is any entry without a dedicated variant. Fields keeps the entry as decoded from JSON.
type Other struct {
	Type   string
	Fields map[string]interface{}
}

// ResourceType returns "Patient".
func (*Patient) ResourceType() string { return TypePatient }

// ResourceType returns "Condition".
func (*Condition) ResourceType() string { return TypeCondition }

// ResourceType returns "Goal".
func (*Goal) ResourceType() string { return TypeGoal }

// ResourceType returns "Immunization".
func (*Immunization) ResourceType() string { return TypeImmunization }

// ResourceType returns "Observation".
func (*Observation) ResourceType() string { return TypeObservation }

// ResourceType returns the resourceType member of the entry.
func (o *Other) ResourceType() string { return o.Type }

func (*Patient) sealed()      {}
func (*Condition) sealed()    {}
func (*Goal) sealed()         {}
func (*Immunization) sealed() {}
func (*Observation) sealed()  {}
func (*Other) sealed()        {}

// Bundle is a FHIR collection bundle.
type Bundle struct {
	ResourceType string  `json:"resourceType,omitempty"`
	Type         string  `json:"type,omitempty"`
	Entry        []Entry `json:"entry,omitempty"`
}

// Entry is a bundle entry. Resource is kept as generic JSON until decoded.
type Entry struct {
	FullURL  string                 `json:"fullUrl,omitempty"`
	Resource map[string]interface{} `json:"resource,omitempty"`
}

// Resources decodes every entry of the bundle, in order.
func (b *Bundle) Resources() ([]Resource, error) {
	if b == nil {
		return nil, nil
	}

	out := make([]Resource, 0, len(b.Entry))

	for i, entry := range b.Entry {
		r, err := Decode(entry.Resource)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}

		out = append(out, r)
	}

	return out, nil
}

// Decode converts a generic JSON resource into its variant.
func Decode(raw map[string]interface{}) (Resource, error) {
	resourceType, _ := raw["resourceType"].(string)
	if resourceType == "" {
		return nil, fmt.Errorf("%w: missing resourceType", ErrDecode)
	}

	var target Resource

	switch resourceType {
	case TypePatient:
		target = &Patient{}
	case TypeCondition:
		target = &Condition{}
	case TypeGoal:
		target = &Goal{}
	case TypeImmunization:
		target = &Immunization{}
	case TypeObservation:
		target = &Observation{}
	default:
		return &Other{Type: resourceType, Fields: raw}, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Squash:  true,
		Result:  target,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	if err = decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, resourceType, err)
	}

	return target, nil
}
