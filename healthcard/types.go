/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package healthcard

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/trustbloc/shc-go/fhir"
)

// State is the lifecycle state of a Model.
type State int

const (
	// StateEmpty means no input has been supplied.
	StateEmpty State = iota
	// StateDecoded means the input was decoded and is awaiting verification.
	StateDecoded
	// StateVerificationPending means a signature verification is in progress.
	StateVerificationPending
	// StateVerified means the signature was verified.
	StateVerified
	// StateVerificationFailed means the signature could not be verified.
	StateVerificationFailed
	// StateDecodeFailed means the last input could not be decoded.
	StateDecodeFailed
)

var stateNames = map[State]string{
	StateEmpty:               "empty",
	StateDecoded:             "decoded",
	StateVerificationPending: "verification-pending",
	StateVerified:            "verified",
	StateVerificationFailed:  "verification-failed",
	StateDecodeFailed:        "decode-failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}

	return fmt.Sprintf("state(%d)", int(s))
}

// MarshalText marshals the state name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Verdict is the outcome of signature verification.
type Verdict int

const (
	// VerdictNotAttempted means verification has not completed for the current input.
	VerdictNotAttempted Verdict = iota
	// VerdictValid means the signature was made by a key the issuer publishes.
	VerdictValid
	// VerdictInvalid means verification failed for any reason.
	VerdictInvalid
)

func (v Verdict) String() string {
	switch v {
	case VerdictNotAttempted:
		return "not-attempted"
	case VerdictValid:
		return "valid"
	case VerdictInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("verdict(%d)", int(v))
	}
}

// MarshalText marshals the verdict name.
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// Severity of a Message.
type Severity int

const (
	// SeverityInfo marks progress messages.
	SeverityInfo Severity = iota
	// SeverityError marks failures.
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}

	return "info"
}

// MarshalText marshals the severity name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Message is an entry of the per-input message ledger.
type Message struct {
	ID       uuid.UUID `json:"id"`
	Severity Severity  `json:"severity"`
	Text     string    `json:"text"`
	Time     time.Time `json:"time"`
	Err      error     `json:"-"`
}

// NumericDate is a JWT NumericDate: seconds since the Unix epoch.
type NumericDate float64

// Time converts the date to UTC time.
func (d NumericDate) Time() time.Time {
	sec := int64(d)
	nsec := int64((float64(d) - float64(sec)) * float64(time.Second))

	return time.Unix(sec, nsec).UTC()
}

// Payload is the JWT claim set of a SMART Health Card.
type Payload struct {
	Issuer    string       `json:"iss"`
	NotBefore *NumericDate `json:"nbf,omitempty"`
	ExpiresAt *NumericDate `json:"exp,omitempty"`
	VC        Credential   `json:"vc"`
}

// Credential is the vc claim.
type Credential struct {
	Type              []string          `json:"type,omitempty"`
	CredentialSubject CredentialSubject `json:"credentialSubject"`
}

// CredentialSubject carries the FHIR bundle.
type CredentialSubject struct {
	FHIRVersion string      `json:"fhirVersion,omitempty"`
	FHIRBundle  fhir.Bundle `json:"fhirBundle"`
}

// Input is a compact JWS together with the issuer the presenter claims issued it.
// An empty ClaimedIssuer accepts the issuer named in the payload.
type Input struct {
	JWS           string `json:"jws"`
	ClaimedIssuer string `json:"claimedIssuer,omitempty"`
}

// Result is a point in time view of a Model.
type Result struct {
	State          State          `json:"state"`
	Verdict        Verdict        `json:"verdict"`
	Issuer         string         `json:"issuer,omitempty"`
	IssuerName     string         `json:"issuerName,omitempty"`
	IssuerTrusted  bool           `json:"issuerTrusted"`
	IssuedAt       *time.Time     `json:"issuedAt,omitempty"`
	ExpiresAt      *time.Time     `json:"expiresAt,omitempty"`
	Expired        bool           `json:"expired"`
	ContentSummary string         `json:"contentSummary,omitempty"`
	Entries        []fhir.Summary `json:"entries,omitempty"`
	Messages       []Message      `json:"messages"`
}
