/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package es256 describes the ECDSA P-256 SHA-256 algorithm SMART Health Cards are signed with.
package es256

import (
	"github.com/trustbloc/shc-go/crypto-ext/pubkey"
	"github.com/trustbloc/shc-go/proof"
)

// JWTAlg for es256.
const JWTAlg = "ES256"

// Proof describes es256 proof type.
type Proof struct{}

// New an instance of es256 proof type descriptor.
func New() *Proof {
	return &Proof{}
}

// SupportedVerificationMethods returns the single key shape ES256 accepts: a P-256 EC signing key.
func (*Proof) SupportedVerificationMethods() []proof.SupportedVerificationMethod {
	return []proof.SupportedVerificationMethod{{
		JWKKeyType: pubkey.KeyTypeEC,
		JWKCurve:   pubkey.CurveP256,
		JWKAlg:     JWTAlg,
	}}
}

// JWTAlgorithm returns the JWS "alg" header value.
func (*Proof) JWTAlgorithm() string {
	return JWTAlg
}
