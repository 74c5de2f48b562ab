/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package healthcard

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/samber/lo"

	"github.com/trustbloc/shc-go/fhir"
	"github.com/trustbloc/shc-go/keyset"
	"github.com/trustbloc/shc-go/metrics"
	"github.com/trustbloc/shc-go/terminology"
	"github.com/trustbloc/shc-go/trust"
)

const (
	defaultCacheSize = 256
	defaultCacheTTL  = 10 * time.Minute
)

// Service verifies cards for many callers against one shared trust directory and terminology cache.
// Verification results are cached per input for a limited time; results that failed for a
// transient reason are not cached.
type Service struct {
	modelOpts   []Opt
	directory   *trust.Directory
	terminology *terminology.Cache
	cacheSize   int
	cacheTTL    time.Duration
	results     *expirable.LRU[string, Result]
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// ServiceOpt configures the Service.
type ServiceOpt func(s *Service)

// WithModelOptions sets the options every verification Model is created with.
func WithModelOptions(opts ...Opt) ServiceOpt {
	return func(s *Service) {
		s.modelOpts = append(s.modelOpts, opts...)
	}
}

// WithDirectory sets the shared trust directory.
func WithDirectory(d *trust.Directory) ServiceOpt {
	return func(s *Service) {
		s.directory = d
	}
}

// WithTerminology sets the shared terminology cache.
func WithTerminology(c *terminology.Cache) ServiceOpt {
	return func(s *Service) {
		s.terminology = c
	}
}

// WithResultCache sets the size and lifetime of cached verification results.
func WithResultCache(size int, ttl time.Duration) ServiceOpt {
	return func(s *Service) {
		if size > 0 {
			s.cacheSize = size
		}

		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// NewService creates a verification service.
func NewService(opts ...ServiceOpt) *Service {
	s := &Service{
		cacheSize: defaultCacheSize,
		cacheTTL:  defaultCacheTTL,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.directory == nil {
		s.directory = trust.NewDirectory()
	}

	if s.terminology == nil {
		s.terminology = terminology.New()
	}

	s.modelOpts = append(s.modelOpts, WithTrustDirectory(s.directory))

	template := New(s.modelOpts...)
	s.logger = template.logger
	s.metrics = template.metrics

	s.results = expirable.NewLRU[string, Result](s.cacheSize, nil, s.cacheTTL)

	return s
}

// Directory returns the shared trust directory.
func (s *Service) Directory() *trust.Directory {
	return s.directory
}

// Terminology returns the shared terminology cache.
func (s *Service) Terminology() *terminology.Cache {
	return s.terminology
}

// Verify decodes and verifies a card and resolves display text for its entries.
func (s *Service) Verify(ctx context.Context, in Input) Result {
	key := in.ClaimedIssuer + "|" + strings.TrimSpace(in.JWS)

	if r, ok := s.results.Get(key); ok {
		s.metrics.IncrementVerdictCache(true)

		return r
	}

	s.metrics.IncrementVerdictCache(false)

	m := New(s.modelOpts...)

	if err := m.SetInput(in); err == nil {
		m.VerifySignature(ctx)
	}

	r := m.Snapshot()

	for i, res := range m.Resources() {
		summary, err := fhir.ResolveSummary(ctx, res, s.terminology)
		if err != nil {
			s.logger.Warn("Terminology lookup failed", "error", err)
		}

		r.Entries[i] = summary
	}

	if !transient(r) {
		s.results.Add(key, r)
	}

	return r
}

// Issuers lists the distinct records of the shared trust directory.
func (s *Service) Issuers() []trust.Issuer {
	return s.directory.Issuers()
}

// Lookup resolves display text for a code through the shared terminology cache.
func (s *Service) Lookup(ctx context.Context, system, code string) (string, bool, error) {
	return s.terminology.Lookup(ctx, system, code)
}

func transient(r Result) bool {
	return lo.SomeBy(r.Messages, func(msg Message) bool {
		return errors.Is(msg.Err, keyset.ErrKeyResolution) || errors.Is(msg.Err, context.Canceled)
	})
}
