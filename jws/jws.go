/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package jws holds the compact JWS structure of a SMART Health Card and decodes its segments.
package jws

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/go-jose/go-jose/v3/json"
	"github.com/klauspost/compress/flate"
	"github.com/trustbloc/kms-go/doc/jose"
)

const (
	// TypeJWT defines JWT type.
	TypeJWT = "JWT"

	// HeaderCompression is the JWS header carrying the payload compression algorithm.
	HeaderCompression = "zip"
	// CompressionDeflate marks a raw DEFLATE compressed payload.
	CompressionDeflate = "DEF"

	compactParts = 3

	maxInflatedPayload = 4 << 20
)

var (
	// ErrMalformed is returned for structurally invalid JWS input.
	ErrMalformed = errors.New("malformed JWS")
	// ErrMessageEncoding is returned when the signing input cannot be represented as UTF-8 bytes.
	ErrMessageEncoding = errors.New("signing input is not valid UTF-8")
)

// Header is the decoded JOSE protected header.
type Header = jose.Headers

// SignedStructure is a compact JWS split into its three base64url segments.
type SignedStructure struct {
	header    string
	payload   string
	signature string
}

// Parse parses a compact serialized JWS into its segments.
func Parse(compact string) (*SignedStructure, error) {
	parts := strings.Split(strings.TrimSpace(compact), ".")
	if len(parts) != compactParts {
		return nil, fmt.Errorf("%w: expected %d parts, got %d", ErrMalformed, compactParts, len(parts))
	}

	return New(parts[0], parts[1], parts[2])
}

// New creates a SignedStructure from already split segments.
func New(header, payload, signature string) (*SignedStructure, error) {
	for _, seg := range []struct {
		name  string
		value string
	}{
		{"header", header},
		{"payload", payload},
		{"signature", signature},
	} {
		if err := checkSegment(seg.value); err != nil {
			return nil, fmt.Errorf("%w: %s segment: %w", ErrMalformed, seg.name, err)
		}
	}

	return &SignedStructure{
		header:    header,
		payload:   payload,
		signature: signature,
	}, nil
}

func checkSegment(s string) error {
	if s == "" {
		return errors.New("empty")
	}

	if strings.Contains(s, ".") {
		return errors.New("contains a period")
	}

	if _, err := base64.RawURLEncoding.DecodeString(s); err != nil {
		return fmt.Errorf("not unpadded base64url: %w", err)
	}

	return nil
}

// Header returns the header segment as received.
func (s *SignedStructure) Header() string {
	return s.header
}

// Payload returns the payload segment as received.
func (s *SignedStructure) Payload() string {
	return s.payload
}

// Signature returns the signature segment as received.
func (s *SignedStructure) Signature() string {
	return s.signature
}

// Compact returns the compact serialization.
func (s *SignedStructure) Compact() string {
	return s.header + "." + s.payload + "." + s.signature
}

// SigningInput returns the bytes covered by the signature: header and payload segments joined by a period.
func (s *SignedStructure) SigningInput() ([]byte, error) {
	input := s.header + "." + s.payload
	if !utf8.ValidString(input) {
		return nil, ErrMessageEncoding
	}

	return []byte(input), nil
}

// DecodeSignature returns the raw signature bytes.
func (s *SignedStructure) DecodeSignature() ([]byte, error) {
	sig, err := base64.RawURLEncoding.DecodeString(s.signature)
	if err != nil {
		return nil, fmt.Errorf("%w: decode signature: %w", ErrMalformed, err)
	}

	return sig, nil
}

// DecodeHeader decodes and checks the protected header.
func (s *SignedStructure) DecodeHeader() (Header, error) {
	b, err := base64.RawURLEncoding.DecodeString(s.header)
	if err != nil {
		return nil, fmt.Errorf("%w: decode header: %w", ErrMalformed, err)
	}

	var headers Header

	if err = json.Unmarshal(b, &headers); err != nil {
		return nil, fmt.Errorf("%w: parse header: %w", ErrMalformed, err)
	}

	if err = CheckHeaders(headers); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	return headers, nil
}

// DecodePayload returns the payload bytes, inflating them when the header declares DEFLATE compression.
func (s *SignedStructure) DecodePayload(headers Header) ([]byte, error) {
	b, err := base64.RawURLEncoding.DecodeString(s.payload)
	if err != nil {
		return nil, fmt.Errorf("%w: decode payload: %w", ErrMalformed, err)
	}

	if zip, _ := headers[HeaderCompression].(string); zip == CompressionDeflate {
		b, err = inflate(b)
		if err != nil {
			return nil, fmt.Errorf("%w: inflate payload: %w", ErrMalformed, err)
		}
	}

	return b, nil
}

func inflate(b []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(b))
	defer func() {
		_ = r.Close()
	}()

	out, err := io.ReadAll(io.LimitReader(r, maxInflatedPayload+1))
	if err != nil {
		return nil, err
	}

	if len(out) > maxInflatedPayload {
		return nil, fmt.Errorf("inflated payload exceeds %d bytes", maxInflatedPayload)
	}

	return out, nil
}

// CheckHeaders checks jws headers.
func CheckHeaders(headers Header) error {
	if alg, ok := headers.Algorithm(); !ok || alg == "" {
		return errors.New("alg header is not defined")
	}

	if kid, ok := headers.KeyID(); !ok || kid == "" {
		return errors.New("kid header is not defined")
	}

	cty, ok := headers[jose.HeaderContentType]
	if ok && cty == TypeJWT { // https://tools.ietf.org/html/rfc7519#section-5.2
		return errors.New("nested JWT is not supported")
	}

	if zip, ok := headers[HeaderCompression]; ok && zip != CompressionDeflate {
		return fmt.Errorf("unsupported zip header %v", zip)
	}

	return nil
}
