/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package pubkey holds the JSON Web Key record published by credential issuers.
package pubkey

const (
	// KeyTypeEC is the JWK key type of elliptic curve keys.
	KeyTypeEC = "EC"
	// CurveP256 is the JWK curve name of NIST P-256.
	CurveP256 = "P-256"
)

// PublicKey contains a public key as published in an issuer's JWK set.
type PublicKey struct {
	Kty string   `json:"kty"`
	Crv string   `json:"crv,omitempty"`
	Kid string   `json:"kid"`
	Use string   `json:"use,omitempty"`
	Alg string   `json:"alg,omitempty"`
	X   string   `json:"x,omitempty"`
	Y   string   `json:"y,omitempty"`
	X5c []string `json:"x5c,omitempty"`
}

// Matches reports whether the key has the given key type and curve.
func (k *PublicKey) Matches(kty, crv string) bool {
	return k != nil && k.Kty == kty && k.Crv == crv
}
