/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package testutil

// ImmunizationCard returns a SMART Health Card payload issued by iss with a patient,
// an immunization and a blood pressure observation.
func ImmunizationCard(iss string) map[string]interface{} {
	return map[string]interface{}{
		"iss": iss,
		"nbf": 1700000000,
		"vc": map[string]interface{}{
			"type": []interface{}{
				"https://smarthealth.cards#health-card",
				"https://smarthealth.cards#immunization",
			},
			"credentialSubject": map[string]interface{}{
				"fhirVersion": "4.0.1",
				"fhirBundle": map[string]interface{}{
					"resourceType": "Bundle",
					"type":         "collection",
					"entry": []interface{}{
						map[string]interface{}{
							"fullUrl": "resource:0",
							"resource": map[string]interface{}{
								"resourceType": "Patient",
								"name": []interface{}{
									map[string]interface{}{
										"family": "Anyperson",
										"given":  []interface{}{"John", "B."},
									},
								},
								"birthDate": "1951-01-20",
							},
						},
						map[string]interface{}{
							"fullUrl": "resource:1",
							"resource": map[string]interface{}{
								"resourceType": "Immunization",
								"status":       "completed",
								"vaccineCode": map[string]interface{}{
									"coding": []interface{}{
										map[string]interface{}{
											"system": "http://hl7.org/fhir/sid/cvx",
											"code":   "207",
										},
									},
								},
								"patient":            map[string]interface{}{"reference": "resource:0"},
								"occurrenceDateTime": "2021-01-01",
								"performer": []interface{}{
									map[string]interface{}{
										"actor": map[string]interface{}{"display": "ABC General Hospital"},
									},
								},
								"lotNumber": "0000001",
							},
						},
						map[string]interface{}{
							"fullUrl": "resource:2",
							"resource": map[string]interface{}{
								"resourceType": "Observation",
								"status":       "final",
								"code": map[string]interface{}{
									"coding": []interface{}{
										map[string]interface{}{
											"system": "http://loinc.org",
											"code":   "85354-9",
										},
									},
								},
								"effectiveDateTime": "2024-03-05T10:30:00Z",
								"component": []interface{}{
									map[string]interface{}{
										"code": map[string]interface{}{
											"coding": []interface{}{
												map[string]interface{}{"system": "http://loinc.org", "code": "8480-6"},
											},
										},
										"valueQuantity": map[string]interface{}{"value": 120, "unit": "mmHg"},
									},
									map[string]interface{}{
										"code": map[string]interface{}{
											"coding": []interface{}{
												map[string]interface{}{"system": "http://loinc.org", "code": "8462-4"},
											},
										},
										"valueQuantity": map[string]interface{}{"value": 80, "unit": "mmHg"},
									},
								},
							},
						},
					},
				},
			},
		},
	}
}
