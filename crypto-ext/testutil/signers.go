/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package testutil

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	_ "crypto/sha256" // registers crypto.SHA256
)

// ECDSASigner makes ECDSA based signatures in the raw R||S encoding used by JOSE.
type ECDSASigner struct {
	privateKey *ecdsa.PrivateKey
	hash       crypto.Hash
}

func newECDSASigner(
	privKey *ecdsa.PrivateKey,
	hash crypto.Hash,
) *ECDSASigner {
	return &ECDSASigner{
		privateKey: privKey,
		hash:       hash,
	}
}

// NewES256Signer creates a new ECDSA P-256 signer for the given key.
func NewES256Signer(privateKey *ecdsa.PrivateKey) *ECDSASigner {
	return newECDSASigner(privateKey, crypto.SHA256)
}

// PrivateKey returns the signing key.
func (es *ECDSASigner) PrivateKey() *ecdsa.PrivateKey {
	return es.privateKey
}

// Sign signs a message.
func (es *ECDSASigner) Sign(msg []byte) ([]byte, error) {
	return signEcdsa(msg, es.privateKey, es.hash)
}

//nolint:gomnd
func signEcdsa(msg []byte, privateKey *ecdsa.PrivateKey, hash crypto.Hash) ([]byte, error) {
	hasher := hash.New()
	_, _ = hasher.Write(msg)
	hashed := hasher.Sum(nil)

	r, s, err := ecdsa.Sign(rand.Reader, privateKey, hashed)
	if err != nil {
		return nil, err
	}

	keyBytes := curveByteSize(privateKey)

	return append(copyPadded(r.Bytes(), keyBytes), copyPadded(s.Bytes(), keyBytes)...), nil
}

func curveByteSize(privateKey *ecdsa.PrivateKey) int {
	curveBits := privateKey.Curve.Params().BitSize

	keyBytes := curveBits / 8
	if curveBits%8 > 0 {
		keyBytes++
	}

	return keyBytes
}

func copyPadded(source []byte, size int) []byte {
	dest := make([]byte, size)
	copy(dest[size-len(source):], source)

	return dest
}
