/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package keyset fetches the JWK set an issuer publishes under /.well-known/jwks.json
// and selects signing keys from it.
package keyset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-jose/go-jose/v3/json"
	"github.com/samber/lo"

	"github.com/trustbloc/shc-go/crypto-ext/pubkey"
)

// WellKnownPath is appended to an issuer identifier to locate its signing keys.
const WellKnownPath = "/.well-known/jwks.json"

const (
	defaultTimeout = 5 * time.Second

	maxKeySetSize = 1 << 20
)

var (
	// ErrKeyResolution is the class of all key resolution failures. They are transient:
	// verification may be retried.
	ErrKeyResolution = errors.New("key resolution")
	// ErrInvalidIssuerURL is returned when the issuer does not form a valid key set URL.
	ErrInvalidIssuerURL = fmt.Errorf("%w: invalid issuer URL", ErrKeyResolution)
	// ErrKeySetUnavailable is returned when the key set cannot be fetched or decoded.
	ErrKeySetUnavailable = fmt.Errorf("%w: key set unavailable", ErrKeyResolution)
	// ErrNoMatchingKey is returned when no key in the set has the requested kid.
	ErrNoMatchingKey = fmt.Errorf("%w: no matching key", ErrKeyResolution)
)

// KeySet is an ordered collection of issuer public keys.
type KeySet struct {
	Keys []pubkey.PublicKey `json:"keys"`
}

// Key returns the key whose kid exactly matches the given one.
func (ks *KeySet) Key(kid string) (*pubkey.PublicKey, error) {
	if ks == nil {
		return nil, fmt.Errorf("%w: kid %q in empty key set", ErrNoMatchingKey, kid)
	}

	key, ok := lo.Find(ks.Keys, func(k pubkey.PublicKey) bool {
		return k.Kid == kid
	})
	if !ok {
		return nil, fmt.Errorf("%w: kid %q", ErrNoMatchingKey, kid)
	}

	return &key, nil
}

// Resolver fetches issuer key sets. Every call goes to the network so that key rotation is
// observed immediately.
type Resolver struct {
	httpClient httpClient
	timeout    time.Duration
}

// Option configures the Resolver.
type Option func(opts *Resolver)

// WithHTTPClient option is for custom http client.
func WithHTTPClient(httpClient httpClient) Option {
	return func(opts *Resolver) {
		opts.httpClient = httpClient
	}
}

// WithTimeout sets the time limit of a single key set fetch.
func WithTimeout(timeout time.Duration) Option {
	return func(opts *Resolver) {
		if timeout > 0 {
			opts.timeout = timeout
		}
	}
}

// NewResolver creates a new key set resolver.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		timeout: defaultTimeout,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.httpClient == nil {
		r.httpClient = &http.Client{Timeout: r.timeout}
	}

	return r
}

// URL returns the key set location of an issuer.
func URL(issuer string) (string, error) {
	endpoint := issuer + WellKnownPath

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrInvalidIssuerURL, endpoint, err)
	}

	if (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidIssuerURL, endpoint)
	}

	return u.String(), nil
}

// Resolve fetches the key set of the given issuer.
func (r *Resolver) Resolve(ctx context.Context, issuer string) (*KeySet, error) {
	endpoint, err := URL(issuer)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: new HTTP request: %w", ErrKeySetUnavailable, err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %w", ErrKeySetUnavailable, endpoint, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: endpoint %s returned status '%d'", ErrKeySetUnavailable, endpoint, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxKeySetSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrKeySetUnavailable, err)
	}

	var ks KeySet

	if err = json.Unmarshal(body, &ks); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrKeySetUnavailable, endpoint, err)
	}

	if ks.Keys == nil {
		return nil, fmt.Errorf("%w: %s has no keys member", ErrKeySetUnavailable, endpoint)
	}

	return &ks, nil
}
