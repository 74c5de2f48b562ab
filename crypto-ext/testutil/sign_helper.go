/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package testutil

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/go-jose/go-jose/v3/json"
	"github.com/klauspost/compress/flate"

	"github.com/trustbloc/shc-go/crypto-ext/pubkey"
)

// CreateES256 creates a P-256 signer and the JWK that verifies its signatures.
func CreateES256(kid string) (*ECDSASigner, *pubkey.PublicKey, error) {
	privKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, err
	}

	return NewES256Signer(privKey), JWKFromKey(kid, &privKey.PublicKey), nil
}

// JWKFromKey encodes an ECDSA P-256 public key as a JWK record.
func JWKFromKey(kid string, pub *ecdsa.PublicKey) *pubkey.PublicKey {
	size := (pub.Curve.Params().BitSize + 7) / 8

	return &pubkey.PublicKey{
		Kty: pubkey.KeyTypeEC,
		Crv: pubkey.CurveP256,
		Kid: kid,
		Use: "sig",
		Alg: "ES256",
		X:   base64.RawURLEncoding.EncodeToString(copyPadded(pub.X.Bytes(), size)),
		Y:   base64.RawURLEncoding.EncodeToString(copyPadded(pub.Y.Bytes(), size)),
	}
}

// CompactJWS signs payload with the given header members and returns the compact serialization.
// When deflate is set the payload is raw DEFLATE compressed and "zip":"DEF" is added to the header.
func CompactJWS(signer *ECDSASigner, header map[string]interface{}, payload []byte, deflate bool) (string, error) {
	h := map[string]interface{}{"alg": "ES256"}
	for k, v := range header {
		h[k] = v
	}

	if deflate {
		h["zip"] = "DEF"

		compressed, err := Deflate(payload)
		if err != nil {
			return "", err
		}

		payload = compressed
	}

	headerBytes, err := json.Marshal(h)
	if err != nil {
		return "", fmt.Errorf("marshal header: %w", err)
	}

	signingInput := base64.RawURLEncoding.EncodeToString(headerBytes) + "." +
		base64.RawURLEncoding.EncodeToString(payload)

	sig, err := signer.Sign([]byte(signingInput))
	if err != nil {
		return "", err
	}

	return signingInput + "." + base64.RawURLEncoding.EncodeToString(sig), nil
}

// Deflate compresses data with raw DEFLATE as SMART Health Cards do.
func Deflate(data []byte) ([]byte, error) {
	var buf bytes.Buffer

	w, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return nil, err
	}

	if _, err = w.Write(data); err != nil {
		return nil, err
	}

	if err = w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
