/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ecdsa

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	_ "crypto/sha256" // registers crypto.SHA256
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"

	"github.com/trustbloc/shc-go/crypto-ext/pubkey"
)

const (
	p256KeySize = 32

	uncompressedPointPrefix = 0x04
)

var (
	// ErrMalformedKey is returned when the JWK coordinates do not describe a point on the curve.
	ErrMalformedKey = errors.New("ecdsa: malformed public key")
	// ErrMalformedSignature is returned when the signature is not a raw R||S value for the curve.
	ErrMalformedSignature = errors.New("ecdsa: malformed signature")
)

type ellipticCurve struct {
	curve   elliptic.Curve
	name    string
	keySize int
	hash    crypto.Hash
}

// Verifier verifies elliptic curve signatures in the JOSE (IEEE P1363) encoding.
type Verifier struct {
	ec ellipticCurve
}

// SupportedKeyType checks if verifier supports given JWK key type and curve.
func (sv *Verifier) SupportedKeyType(kty, crv string) bool {
	return kty == pubkey.KeyTypeEC && crv == sv.ec.name
}

// ParseKey rebuilds the curve point encoded by the x and y JWK members.
func (sv *Verifier) ParseKey(pubKey *pubkey.PublicKey) (*ecdsa.PublicKey, error) {
	if pubKey == nil {
		return nil, fmt.Errorf("%w: missing key", ErrMalformedKey)
	}

	if !sv.SupportedKeyType(pubKey.Kty, pubKey.Crv) {
		return nil, fmt.Errorf("%w: unsupported key type %s/%s", ErrMalformedKey, pubKey.Kty, pubKey.Crv)
	}

	x, err := decodeCoordinate(pubKey.X, sv.ec.keySize)
	if err != nil {
		return nil, fmt.Errorf("%w: x: %w", ErrMalformedKey, err)
	}

	y, err := decodeCoordinate(pubKey.Y, sv.ec.keySize)
	if err != nil {
		return nil, fmt.Errorf("%w: y: %w", ErrMalformedKey, err)
	}

	return sv.createECDSAPublicKey(append(append([]byte{uncompressedPointPrefix}, x...), y...))
}

// Verify verifies the signature. A false result with a nil error means the signature is well formed
// but does not match; an error means the inputs could not be checked at all.
func (sv *Verifier) Verify(signature, msg []byte, pubKey *pubkey.PublicKey) (bool, error) {
	ecdsaPubKey, err := sv.ParseKey(pubKey)
	if err != nil {
		return false, err
	}

	ec := sv.ec

	if len(signature) != 2*ec.keySize {
		return false, fmt.Errorf("%w: invalid signature size %d", ErrMalformedSignature, len(signature))
	}

	hasher := ec.hash.New()

	_, err = hasher.Write(msg)
	if err != nil {
		return false, errors.New("ecdsa: hash error")
	}

	hash := hasher.Sum(nil)

	r := big.NewInt(0).SetBytes(signature[:ec.keySize])
	s := big.NewInt(0).SetBytes(signature[ec.keySize:])

	return ecdsa.Verify(ecdsaPubKey, hash, r, s), nil
}

func (sv *Verifier) createECDSAPublicKey(pubKeyBytes []byte) (*ecdsa.PublicKey, error) {
	curve := sv.ec.curve

	x, y := elliptic.Unmarshal(curve, pubKeyBytes) //nolint:staticcheck
	if x == nil {
		return nil, fmt.Errorf("%w: point is not on curve %s", ErrMalformedKey, sv.ec.name)
	}

	return &ecdsa.PublicKey{
		Curve: curve,
		X:     x,
		Y:     y,
	}, nil
}

func decodeCoordinate(s string, size int) ([]byte, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode base64url: %w", err)
	}

	if len(b) != size {
		return nil, fmt.Errorf("coordinate length %d, expected %d", len(b), size)
	}

	return b, nil
}

// NewES256 creates a new signature verifier that verifies a ECDSA P-256 signature
// taking a P-256 JSON Web Key as input.
func NewES256() *Verifier {
	return &Verifier{
		ec: ellipticCurve{
			curve:   elliptic.P256(),
			name:    pubkey.CurveP256,
			keySize: p256KeySize,
			hash:    crypto.SHA256,
		},
	}
}
