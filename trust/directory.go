/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package trust maintains the directory of issuers whose health cards are trusted.
package trust

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/go-jose/go-jose/v3/json"
	"github.com/samber/lo"
)

const maxDirectorySize = 8 << 20

// ErrDirectoryUnavailable is returned when an issuer directory source cannot be read or parsed.
// The directory keeps its previous contents.
var ErrDirectoryUnavailable = errors.New("issuer directory unavailable")

//go:embed vci-issuers.json
var vciIssuers []byte

// Issuer is a participating issuer record.
type Issuer struct {
	ISS          string `json:"iss"`
	CanonicalISS string `json:"canonical_iss,omitempty"`
	Name         string `json:"name"`
	Website      string `json:"website,omitempty"`
	IsTrusted    bool   `json:"-"`
}

type issuerDirectory struct {
	ParticipatingIssuers []Issuer `json:"participating_issuers"`
}

// Directory maps issuer identifiers, and their canonical aliases, to issuer records.
type Directory struct {
	mu         sync.RWMutex
	issuers    map[string]*Issuer
	httpClient httpClient
	logger     *slog.Logger
}

// Opt configures the Directory.
type Opt func(d *Directory)

// WithLogger sets the logger used to report loaded sources.
func WithLogger(logger *slog.Logger) Opt {
	return func(d *Directory) {
		d.logger = logger
	}
}

// WithHTTPClient sets the client used by LoadURL.
func WithHTTPClient(client httpClient) Opt {
	return func(d *Directory) {
		d.httpClient = client
	}
}

// NewDirectory creates an empty directory.
func NewDirectory(opts ...Opt) *Directory {
	d := &Directory{
		issuers: map[string]*Issuer{},
	}

	for _, opt := range opts {
		opt(d)
	}

	if d.logger == nil {
		d.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if d.httpClient == nil {
		d.httpClient = http.DefaultClient
	}

	return d
}

// Load populates the directory from the bundled VCI directory snapshot.
func (d *Directory) Load() error {
	return d.load(vciIssuers, "embedded")
}

// LoadFrom populates the directory from a reader carrying a VCI directory document.
func (d *Directory) LoadFrom(r io.Reader) error {
	data, err := io.ReadAll(io.LimitReader(r, maxDirectorySize))
	if err != nil {
		return fmt.Errorf("%w: read: %w", ErrDirectoryUnavailable, err)
	}

	return d.load(data, "reader")
}

// LoadFile populates the directory from a file.
func (d *Directory) LoadFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDirectoryUnavailable, err)
	}

	return d.load(data, path)
}

// LoadURL populates the directory from a document published at the given URL.
func (d *Directory) LoadURL(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: new HTTP request: %w", ErrDirectoryUnavailable, err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: fetch %s: %w", ErrDirectoryUnavailable, url, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned status '%d'", ErrDirectoryUnavailable, url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDirectorySize))
	if err != nil {
		return fmt.Errorf("%w: read %s: %w", ErrDirectoryUnavailable, url, err)
	}

	return d.load(data, url)
}

func (d *Directory) load(data []byte, source string) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("%w: %s: empty document", ErrDirectoryUnavailable, source)
	}

	if err := validateDirectory(data); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDirectoryUnavailable, source, err)
	}

	var dir issuerDirectory

	if err := json.Unmarshal(data, &dir); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDirectoryUnavailable, source, err)
	}

	d.mu.Lock()
	for _, issuer := range dir.ParticipatingIssuers {
		issuer.IsTrusted = true
		d.insert(issuer)
	}
	d.mu.Unlock()

	d.logger.Info("Loaded issuer directory",
		"source", source, "entries", len(dir.ParticipatingIssuers))

	return nil
}

func (d *Directory) insert(issuer Issuer) {
	rec := &issuer

	d.issuers[issuer.ISS] = rec

	if issuer.CanonicalISS != "" {
		d.issuers[issuer.CanonicalISS] = rec
	}
}

// AddIssuer inserts the record under its iss and canonical_iss, replacing earlier records.
func (d *Directory) AddIssuer(issuer Issuer) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.insert(issuer)
}

// Lookup returns the record registered under iss.
func (d *Directory) Lookup(iss string) (Issuer, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rec, ok := d.issuers[iss]
	if !ok {
		return Issuer{}, false
	}

	return *rec, true
}

// IsTrusted reports whether iss is registered and its record is marked trusted.
func (d *Directory) IsTrusted(iss string) bool {
	rec, ok := d.Lookup(iss)

	return ok && rec.IsTrusted
}

// Len returns the number of identifiers the directory answers for, aliases included.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return len(d.issuers)
}

// Issuers returns the distinct issuer records ordered by iss.
func (d *Directory) Issuers() []Issuer {
	d.mu.RLock()
	recs := lo.Uniq(lo.Values(d.issuers))
	d.mu.RUnlock()

	out := lo.Map(recs, func(rec *Issuer, _ int) Issuer {
		return *rec
	})

	slices.SortFunc(out, func(a, b Issuer) int {
		return strings.Compare(a.ISS, b.ISS)
	})

	return out
}
