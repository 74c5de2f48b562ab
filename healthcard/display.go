/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package healthcard

import (
	"net/url"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/trustbloc/shc-go/fhir"
	"github.com/trustbloc/shc-go/trust"
)

// NumericPrefix starts the numeric QR encoding of a health card.
const NumericPrefix = "shc:/"

// JWSCharacterCount returns the length of the JWS carried by a numeric "shc:/" payload.
// Every JWS character is encoded as two digits.
func JWSCharacterCount(numeric string) int {
	digits := strings.TrimPrefix(strings.TrimSpace(numeric), NumericPrefix)

	return len(digits) / 2
}

// Issuer returns the iss claim, or "" when nothing is decoded.
func (m *Model) Issuer() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.issuerLocked()
}

func (m *Model) issuerLocked() string {
	if m.payload == nil {
		return ""
	}

	return m.payload.Issuer
}

// IssuedAt returns the nbf claim.
func (m *Model) IssuedAt() (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.payload == nil || m.payload.NotBefore == nil {
		return time.Time{}, false
	}

	return m.payload.NotBefore.Time(), true
}

// ExpiresAt returns the exp claim.
func (m *Model) ExpiresAt() (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.expiresAtLocked()
}

func (m *Model) expiresAtLocked() (time.Time, bool) {
	if m.payload == nil || m.payload.ExpiresAt == nil {
		return time.Time{}, false
	}

	return m.payload.ExpiresAt.Time(), true
}

// IsExpired reports whether the card carries an exp claim that has passed.
func (m *Model) IsExpired() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	exp, ok := m.expiresAtLocked()

	return ok && !m.clock().Before(exp)
}

// TrustedIssuer returns the directory record of the card issuer.
func (m *Model) TrustedIssuer() (trust.Issuer, bool) {
	iss := m.Issuer()
	if iss == "" || m.directory == nil {
		return trust.Issuer{}, false
	}

	return m.directory.Lookup(iss)
}

// IssuerTrusted reports whether the card issuer is a trusted directory entry.
func (m *Model) IssuerTrusted() bool {
	rec, ok := m.TrustedIssuer()

	return ok && rec.IsTrusted
}

// IssuerDisplayName names the issuer: its directory name, else the host of iss, else iss itself.
func (m *Model) IssuerDisplayName() string {
	if rec, ok := m.TrustedIssuer(); ok && rec.Name != "" {
		return rec.Name
	}

	iss := m.Issuer()

	if u, err := url.Parse(iss); err == nil && u.Host != "" {
		return u.Host
	}

	return iss
}

// ContentSummary names the kinds of entries the card holds, e.g. "Patient, Immunization, and Observation".
func (m *Model) ContentSummary() string {
	return fhir.ContentSummary(m.Resources())
}

// Snapshot returns the current state as a Result. Entry summaries use the card content only.
func (m *Model) Snapshot() Result {
	m.mu.Lock()
	r := Result{
		State:    m.state,
		Verdict:  m.verdict,
		Issuer:   m.issuerLocked(),
		Messages: append([]Message{}, m.messages...),
	}
	m.mu.Unlock()

	if r.Issuer != "" {
		r.IssuerName = m.IssuerDisplayName()
		r.IssuerTrusted = m.IssuerTrusted()
	}

	if t, ok := m.IssuedAt(); ok {
		r.IssuedAt = &t
	}

	if t, ok := m.ExpiresAt(); ok {
		r.ExpiresAt = &t
		r.Expired = m.IsExpired()
	}

	resources := m.Resources()

	r.ContentSummary = fhir.ContentSummary(resources)
	r.Entries = lo.Map(resources, func(res fhir.Resource, _ int) fhir.Summary {
		return fhir.Summarize(res)
	})

	return r
}
