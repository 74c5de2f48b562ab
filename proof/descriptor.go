/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package proof describes the JWS algorithms a proof checker accepts.
package proof

import "github.com/trustbloc/shc-go/crypto-ext/pubkey"

// KeyUseSignature is the JWK "use" value of signing keys.
const KeyUseSignature = "sig"

// SupportedVerificationMethod describes a JWK shape that a proof algorithm accepts.
// Keys that omit "alg" or "use" are accepted; keys that declare them must agree.
type SupportedVerificationMethod struct {
	JWKKeyType string
	JWKCurve   string
	JWKAlg     string
}

// Accepts reports whether key has the shape of this method.
func (vm SupportedVerificationMethod) Accepts(key *pubkey.PublicKey) bool {
	if !key.Matches(vm.JWKKeyType, vm.JWKCurve) {
		return false
	}

	if key.Alg != "" && key.Alg != vm.JWKAlg {
		return false
	}

	return key.Use == "" || key.Use == KeyUseSignature
}

// JWTProofDescriptor describes jwt proof.
type JWTProofDescriptor interface {
	JWTAlgorithm() string

	SupportedVerificationMethods() []SupportedVerificationMethod
}
