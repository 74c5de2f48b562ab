/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package checker

import (
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/trustbloc/shc-go/crypto-ext/pubkey"
	"github.com/trustbloc/shc-go/crypto-ext/verifiers/ecdsa"
	"github.com/trustbloc/shc-go/jws"
	proofdesc "github.com/trustbloc/shc-go/proof"
	"github.com/trustbloc/shc-go/proof/jwtproofs/es256"
)

var (
	// ErrSignature is the class of failures caused by malformed or incompatible cryptographic
	// material. It does not mean the signer is wrong; a wrong signer yields a false result.
	ErrSignature = errors.New("signature")
	// ErrUnsupportedAlgorithm is returned when the header alg or the key shape is not supported.
	ErrUnsupportedAlgorithm = fmt.Errorf("%w: unsupported algorithm", ErrSignature)
	// ErrMessageEncoding is returned when the signed message cannot be built.
	ErrMessageEncoding = fmt.Errorf("%w: message encoding failure", ErrSignature)
)

type signatureVerifier interface {
	// SupportedKeyType checks if verifier supports given key.
	SupportedKeyType(kty, crv string) bool
	// Verify verifies the signature.
	Verify(sig, msg []byte, pub *pubkey.PublicKey) (bool, error)
}

type jwtCheckDescriptor struct {
	proofDescriptor proofdesc.JWTProofDescriptor
}

// ProofChecker checks JWS proofs against an already resolved issuer key.
type ProofChecker struct {
	supportedJWTProofs []jwtCheckDescriptor
	signatureVerifiers []signatureVerifier
}

// Opt represent checker creation options.
type Opt func(c *ProofChecker)

// WithJWTAlg option to set supported jwt algs.
func WithJWTAlg(proofDescs ...proofdesc.JWTProofDescriptor) Opt {
	return func(c *ProofChecker) {
		for _, proofDesc := range proofDescs {
			c.supportedJWTProofs = append(c.supportedJWTProofs, jwtCheckDescriptor{
				proofDescriptor: proofDesc,
			})
		}
	}
}

// WithSignatureVerifiers option to set signature verifiers.
func WithSignatureVerifiers(verifiers ...signatureVerifier) Opt {
	return func(c *ProofChecker) {
		c.signatureVerifiers = append(c.signatureVerifiers, verifiers...)
	}
}

// New creates new proof checker.
func New(opts ...Opt) *ProofChecker {
	c := &ProofChecker{}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// NewDefault creates a proof checker for the algorithms SMART Health Cards are signed with.
func NewDefault() *ProofChecker {
	return New(
		WithJWTAlg(es256.New()),
		WithSignatureVerifiers(ecdsa.NewES256()),
	)
}

// CheckJWSProof verifies the signature of s with key. It returns false when the signature is
// well formed but does not verify, and an error wrapping ErrSignature when the proof could not
// be checked at all.
func (c *ProofChecker) CheckJWSProof(s *jws.SignedStructure, headers jws.Header, key *pubkey.PublicKey) (bool, error) {
	if s == nil || key == nil {
		return false, fmt.Errorf("%w: missing signed structure or key", ErrSignature)
	}

	alg, ok := headers.Algorithm()
	if !ok {
		return false, fmt.Errorf("%w: missed alg in jws header", ErrUnsupportedAlgorithm)
	}

	supportedProof, err := c.getSupportedProofByAlg(alg)
	if err != nil {
		return false, err
	}

	if !isSupportedKey(supportedProof.proofDescriptor.SupportedVerificationMethods(), key) {
		return false, fmt.Errorf("%w: jws with alg %s cannot be checked with %s/%s key (alg %q, use %q)",
			ErrUnsupportedAlgorithm, alg, key.Kty, key.Crv, key.Alg, key.Use)
	}

	verifier, err := c.getSignatureVerifier(key)
	if err != nil {
		return false, err
	}

	msg, err := s.SigningInput()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrMessageEncoding, err)
	}

	signature, err := s.DecodeSignature()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrSignature, err)
	}

	valid, err := verifier.Verify(signature, msg, key)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrSignature, err)
	}

	return valid, nil
}

func isSupportedKey(supportedMethods []proofdesc.SupportedVerificationMethod, key *pubkey.PublicKey) bool {
	return lo.ContainsBy(supportedMethods, func(vm proofdesc.SupportedVerificationMethod) bool {
		return vm.Accepts(key)
	})
}

func (c *ProofChecker) getSupportedProofByAlg(jwtAlg string) (jwtCheckDescriptor, error) {
	for _, supported := range c.supportedJWTProofs {
		if supported.proofDescriptor.JWTAlgorithm() == jwtAlg {
			return supported, nil
		}
	}

	return jwtCheckDescriptor{}, fmt.Errorf("%w: unsupported jwt alg: %s", ErrUnsupportedAlgorithm, jwtAlg)
}

func (c *ProofChecker) getSignatureVerifier(key *pubkey.PublicKey) (signatureVerifier, error) {
	for _, verifier := range c.signatureVerifiers {
		if verifier.SupportedKeyType(key.Kty, key.Crv) {
			return verifier, nil
		}
	}

	return nil, fmt.Errorf("%w: no signature verifier for key type %s/%s", ErrUnsupportedAlgorithm, key.Kty, key.Crv)
}
