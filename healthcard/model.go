/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package healthcard decodes SMART Health Cards and verifies their issuer signature.
package healthcard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/go-jose/go-jose/v3/json"
	"github.com/google/uuid"

	"github.com/trustbloc/shc-go/fhir"
	"github.com/trustbloc/shc-go/jws"
	"github.com/trustbloc/shc-go/keyset"
	"github.com/trustbloc/shc-go/metrics"
	"github.com/trustbloc/shc-go/proof/checker"
)

var (
	// ErrDecode is returned when input cannot be decoded into a health card.
	ErrDecode = errors.New("health card decode")
	// ErrIssuerMismatch is returned when the claimed issuer differs from the payload iss.
	ErrIssuerMismatch = errors.New("issuer mismatch")
	// ErrNotDecoded is returned when verification is requested without a decoded card.
	ErrNotDecoded = errors.New("no decoded health card")
	// ErrSignatureMismatch is returned when the signature does not verify with the issuer key.
	ErrSignatureMismatch = errors.New("signature does not match issuer key")
)

// Model holds one health card through decoding and verification. It is safe for concurrent use.
type Model struct {
	resolver  keySetResolver
	checker   proofChecker
	directory issuerDirectory
	logger    *slog.Logger
	metrics   *metrics.Metrics
	clock     func() time.Time

	mu            sync.Mutex
	generation    uint64
	state         State
	verdict       Verdict
	structure     *jws.SignedStructure
	header        jws.Header
	payload       *Payload
	resources     []fhir.Resource
	claimedIssuer string
	messages      []Message
	pending       *verification
}

type verification struct {
	done    chan struct{}
	verdict Verdict
}

// Opt configures the Model.
type Opt func(m *Model)

// WithKeySetResolver sets the issuer key set resolver.
func WithKeySetResolver(r keySetResolver) Opt {
	return func(m *Model) {
		m.resolver = r
	}
}

// WithProofChecker sets the signature checker.
func WithProofChecker(c proofChecker) Opt {
	return func(m *Model) {
		m.checker = c
	}
}

// WithTrustDirectory sets the directory consulted for issuer trust and names.
func WithTrustDirectory(d issuerDirectory) Opt {
	return func(m *Model) {
		m.directory = d
	}
}

// WithLogger sets the logger every ledger message is also written to.
func WithLogger(logger *slog.Logger) Opt {
	return func(m *Model) {
		m.logger = logger
	}
}

// WithMetrics sets verification instrumentation.
func WithMetrics(mt *metrics.Metrics) Opt {
	return func(m *Model) {
		m.metrics = mt
	}
}

// WithClock sets the time source used for message times and expiry.
func WithClock(clock func() time.Time) Opt {
	return func(m *Model) {
		m.clock = clock
	}
}

// New creates an empty model.
func New(opts ...Opt) *Model {
	m := &Model{}

	for _, opt := range opts {
		opt(m)
	}

	if m.resolver == nil {
		m.resolver = keyset.NewResolver()
	}

	if m.checker == nil {
		m.checker = checker.NewDefault()
	}

	if m.logger == nil {
		m.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if m.clock == nil {
		m.clock = time.Now
	}

	return m
}

// SetCompact replaces the current card with a compact serialized JWS.
func (m *Model) SetCompact(compact string) error {
	return m.SetInput(Input{JWS: compact})
}

// SetSegments replaces the current card with an already split JWS.
func (m *Model) SetSegments(header, payload, signature string) error {
	s, err := jws.New(header, payload, signature)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.clearLocked()

	if err != nil {
		return m.decodeFailedLocked(err)
	}

	return m.decodeLocked(s)
}

// SetInput replaces the current card. The message ledger and verdict are cleared first. On a decode
// failure one error message is recorded, nothing of the card is kept and the error is returned.
func (m *Model) SetInput(in Input) error {
	s, err := jws.Parse(in.JWS)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.clearLocked()
	m.claimedIssuer = in.ClaimedIssuer

	if err != nil {
		return m.decodeFailedLocked(err)
	}

	return m.decodeLocked(s)
}

// Reset discards the current card and its messages.
func (m *Model) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.clearLocked()
}

func (m *Model) clearLocked() {
	m.generation++
	m.state = StateEmpty
	m.verdict = VerdictNotAttempted
	m.structure = nil
	m.header = nil
	m.payload = nil
	m.resources = nil
	m.claimedIssuer = ""
	m.messages = nil
	m.pending = nil
}

func (m *Model) decodeLocked(s *jws.SignedStructure) error {
	header, err := s.DecodeHeader()
	if err != nil {
		return m.decodeFailedLocked(fmt.Errorf("header: %w", err))
	}

	raw, err := s.DecodePayload(header)
	if err != nil {
		return m.decodeFailedLocked(fmt.Errorf("payload: %w", err))
	}

	var payload Payload

	if err = json.Unmarshal(raw, &payload); err != nil {
		return m.decodeFailedLocked(fmt.Errorf("payload: %w", err))
	}

	if payload.Issuer == "" {
		return m.decodeFailedLocked(errors.New("payload: iss claim is missing"))
	}

	resources, err := payload.VC.CredentialSubject.FHIRBundle.Resources()
	if err != nil {
		return m.decodeFailedLocked(fmt.Errorf("fhir bundle: %w", err))
	}

	m.structure = s
	m.header = header
	m.payload = &payload
	m.resources = resources
	m.state = StateDecoded

	m.appendLocked(SeverityInfo, fmt.Sprintf("Decoded health card from %s with %d entries", payload.Issuer, len(resources)), nil)

	return nil
}

func (m *Model) decodeFailedLocked(err error) error {
	err = fmt.Errorf("%w: %w", ErrDecode, err)

	m.state = StateDecodeFailed
	m.appendLocked(SeverityError, "Unable to decode health card: "+err.Error(), err)

	return err
}

func (m *Model) appendLocked(severity Severity, text string, err error) {
	msg := Message{
		ID:       uuid.New(),
		Severity: severity,
		Text:     text,
		Time:     m.clock(),
		Err:      err,
	}

	m.messages = append(m.messages, msg)

	if severity == SeverityError {
		m.logger.Error(text, "id", msg.ID, "error", err)
	} else {
		m.logger.Info(text, "id", msg.ID)
	}
}

// VerifySignature verifies the card signature with the key its issuer publishes. A verdict already
// reached for the current input is returned without I/O. Concurrent callers share one verification.
// Failures are recorded as an error message and yield VerdictInvalid.
func (m *Model) VerifySignature(ctx context.Context) Verdict {
	m.mu.Lock()

	if m.verdict != VerdictNotAttempted {
		defer m.mu.Unlock()

		return m.verdict
	}

	if p := m.pending; p != nil {
		m.mu.Unlock()

		select {
		case <-p.done:
			return p.verdict
		case <-ctx.Done():
			return m.Verdict()
		}
	}

	if m.header == nil || m.payload == nil {
		defer m.mu.Unlock()

		m.verdict = VerdictInvalid
		m.appendLocked(SeverityError, "Signature verification failed: "+ErrNotDecoded.Error(), ErrNotDecoded)

		return m.verdict
	}

	p := &verification{done: make(chan struct{})}
	m.pending = p
	m.state = StateVerificationPending

	gen := m.generation
	s, header, payload, claimed := m.structure, m.header, m.payload, m.claimedIssuer

	m.mu.Unlock()

	kid, err := m.verify(ctx, s, header, payload, claimed)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.generation != gen {
		p.verdict = VerdictNotAttempted
		close(p.done)

		return p.verdict
	}

	if err != nil {
		m.verdict = VerdictInvalid
		m.state = StateVerificationFailed
		m.appendLocked(SeverityError, "Signature verification failed: "+err.Error(), err)
	} else {
		m.verdict = VerdictValid
		m.state = StateVerified
		m.appendLocked(SeverityInfo, fmt.Sprintf("Signature verified with key %s of %s", kid, payload.Issuer), nil)
	}

	m.metrics.IncrementVerification(m.verdict.String())

	m.pending = nil
	p.verdict = m.verdict
	close(p.done)

	return m.verdict
}

func (m *Model) verify(ctx context.Context, s *jws.SignedStructure, header jws.Header,
	payload *Payload, claimed string) (string, error) {
	if claimed != "" && claimed != payload.Issuer {
		return "", fmt.Errorf("%w: claimed %q, payload names %q", ErrIssuerMismatch, claimed, payload.Issuer)
	}

	start := time.Now()
	ks, err := m.resolver.Resolve(ctx, payload.Issuer)
	m.metrics.ObserveKeySetFetch(time.Since(start), err)

	if err != nil {
		return "", err
	}

	kid, _ := header.KeyID()

	key, err := ks.Key(kid)
	if err != nil {
		return "", err
	}

	ok, err := m.checker.CheckJWSProof(s, header, key)
	if err != nil {
		return "", err
	}

	if !ok {
		return "", fmt.Errorf("%w: kid %q", ErrSignatureMismatch, kid)
	}

	return kid, nil
}

// State returns the lifecycle state.
func (m *Model) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state
}

// Verdict returns the verification verdict of the current input.
func (m *Model) Verdict() Verdict {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.verdict
}

// Messages returns a copy of the message ledger in the order messages were recorded.
func (m *Model) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]Message(nil), m.messages...)
}

// Header returns the decoded JWS header, or nil.
func (m *Model) Header() jws.Header {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.header
}

// Payload returns the decoded claim set, or nil.
func (m *Model) Payload() *Payload {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.payload
}

// Structure returns the JWS segments, or nil.
func (m *Model) Structure() *jws.SignedStructure {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.structure
}

// Resources returns the decoded bundle entries.
func (m *Model) Resources() []fhir.Resource {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]fhir.Resource(nil), m.resources...)
}
