/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package terminology resolves display text for coded clinical values from bundled
// terminology and, optionally, a FHIR terminology server.
package terminology

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"github.com/trustbloc/shc-go/fhir"
	"github.com/trustbloc/shc-go/metrics"
)

const (
	defaultTimeout = 10 * time.Second

	lookupPath = "/CodeSystem/$lookup"

	maxResponseSize = 1 << 20
)

// ErrInvalidServerURL is returned when the terminology server base URL does not form a valid lookup URL.
var ErrInvalidServerURL = errors.New("invalid terminology server URL")

//go:embed valuesets/*.json
var bundledValueSets embed.FS

// DefaultValueSets lists the bundled value sets loaded by default.
var DefaultValueSets = []string{"valuesets/ValueSet-immunization-all-cvx.json"}

// Cache maps codes to display text. Remote lookups that succeed are remembered for the
// lifetime of the cache; misses are not.
type Cache struct {
	mu       sync.RWMutex
	displays map[Key]string

	server     string
	username   string
	password   string
	httpClient httpClient
	timeout    time.Duration
	logger     *slog.Logger
	metrics    *metrics.Metrics

	layers        []Layer
	valueSetFS    fs.FS
	valueSetNames []string
}

// Opt configures the Cache.
type Opt func(c *Cache)

// WithServer sets the FHIR terminology server base URL, e.g. "https://tx.fhir.org/r4".
func WithServer(baseURL string) Opt {
	return func(c *Cache) {
		c.server = strings.TrimSuffix(baseURL, "/")
	}
}

// WithBasicAuth sets credentials sent to the terminology server.
func WithBasicAuth(username, password string) Opt {
	return func(c *Cache) {
		c.username = username
		c.password = password
	}
}

// WithHTTPClient option is for custom http client.
func WithHTTPClient(client httpClient) Opt {
	return func(c *Cache) {
		c.httpClient = client
	}
}

// WithTimeout sets the time limit of a single remote lookup.
func WithTimeout(timeout time.Duration) Opt {
	return func(c *Cache) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Opt {
	return func(c *Cache) {
		c.logger = logger
	}
}

// WithMetrics sets lookup instrumentation.
func WithMetrics(m *metrics.Metrics) Opt {
	return func(c *Cache) {
		c.metrics = m
	}
}

// WithValueSets replaces the bundled value sets with the named files of fsys.
func WithValueSets(fsys fs.FS, names ...string) Opt {
	return func(c *Cache) {
		c.valueSetFS = fsys
		c.valueSetNames = names
	}
}

// WithLayers replaces the static layers. Layers are applied in the given order before value sets.
func WithLayers(layers ...Layer) Opt {
	return func(c *Cache) {
		c.layers = layers
	}
}

// New creates a cache and populates it from its layers, highest priority first.
// A code present in an earlier layer is never overwritten by a later one.
func New(opts ...Opt) *Cache {
	c := &Cache{
		displays:      map[Key]string{},
		timeout:       defaultTimeout,
		layers:        DefaultLayers(),
		valueSetFS:    bundledValueSets,
		valueSetNames: DefaultValueSets,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}

	layers := c.layers

	for _, name := range c.valueSetNames {
		layer, err := ValueSetLayer(c.valueSetFS, name)
		if err != nil {
			c.logger.Warn("Skipping value set", "name", name, "error", err)

			continue
		}

		layers = append(layers, layer)
	}

	for _, layer := range layers {
		added := c.applyLayer(layer)

		c.logger.Debug("Applied terminology layer", "layer", layer.Name, "added", added)
	}

	return c
}

func (c *Cache) applyLayer(layer Layer) int {
	added := 0

	for k, display := range layer.Entries {
		if _, ok := c.displays[k]; ok {
			continue
		}

		c.displays[k] = display
		added++
	}

	return added
}

// Insert sets the display text of a code, replacing any existing value.
func (c *Cache) Insert(system, code, display string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.displays[Key{System: system, Code: code}] = display
}

// Len returns the number of codes with known display text.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.displays)
}

func (c *Cache) local(k Key) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	d, ok := c.displays[k]

	return d, ok
}

// Lookup returns the display text of a code. Known codes are answered without I/O. Unknown codes
// are looked up on the terminology server when one is configured. A code no source knows is
// reported with ok == false; the only error is ErrInvalidServerURL.
func (c *Cache) Lookup(ctx context.Context, system, code string) (string, bool, error) {
	if system == "" || code == "" {
		return "", false, nil
	}

	k := Key{System: system, Code: code}

	if d, ok := c.local(k); ok {
		c.metrics.IncrementLookup(metrics.LookupLocal)

		return d, true, nil
	}

	if c.server == "" {
		c.metrics.IncrementLookup(metrics.LookupMiss)

		return "", false, nil
	}

	endpoint, err := c.lookupURL(k)
	if err != nil {
		return "", false, err
	}

	start := time.Now()
	display := c.remoteLookup(ctx, endpoint)
	c.metrics.ObserveRemoteLookup(time.Since(start))

	if display == "" {
		c.metrics.IncrementLookup(metrics.LookupMiss)

		return "", false, nil
	}

	c.Insert(system, code, display)
	c.metrics.IncrementLookup(metrics.LookupRemote)

	return display, true, nil
}

// LookupConcept returns the display text of the first coding of the concept that resolves.
func (c *Cache) LookupConcept(ctx context.Context, concept fhir.CodeableConcept) (string, bool, error) {
	for _, coding := range concept.Coding {
		d, ok, err := c.Lookup(ctx, coding.System, coding.Code)
		if err != nil {
			return "", false, err
		}

		if ok {
			return d, true, nil
		}
	}

	return "", false, nil
}

func (c *Cache) lookupURL(k Key) (string, error) {
	base, err := url.Parse(c.server)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrInvalidServerURL, c.server, err)
	}

	if (base.Scheme != "https" && base.Scheme != "http") || base.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidServerURL, c.server)
	}

	return c.server + lookupPath + "?_format=json&system=" + url.QueryEscape(k.System) +
		"&code=" + url.QueryEscape(k.Code), nil
}

// remoteLookup returns the display parameter of a $lookup response, or "" on any failure.
func (c *Cache) remoteLookup(ctx context.Context, endpoint string) string {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		c.logger.Warn("Terminology lookup failed", "url", endpoint, "error", err)

		return ""
	}

	req.Header.Set("Accept", "application/fhir+json")

	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Terminology lookup failed", "url", endpoint, "error", err)

		return ""
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		c.logger.Debug("Terminology server returned error status", "url", endpoint, "status", resp.StatusCode)

		return ""
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil || !gjson.ValidBytes(body) {
		c.logger.Warn("Terminology response unreadable", "url", endpoint, "error", err)

		return ""
	}

	return gjson.GetBytes(body, `parameter.#(name=="display").valueString`).String()
}
