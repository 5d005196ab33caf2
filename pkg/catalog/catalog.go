// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"context"
	"sync"

	"github.com/stratastor/logger"
	nkerrors "github.com/stratastor/nekrosis/pkg/errors"
	"github.com/stratastor/nekrosis/pkg/platform"
	"github.com/stratastor/nekrosis/pkg/privilege"
)

// Availability answers live prerequisite checks.
type Availability interface {
	Available(ctx context.Context, req Requirement) (bool, error)
}

// AvailabilityFunc adapts a function to Availability.
type AvailabilityFunc func(ctx context.Context, req Requirement) (bool, error)

func (f AvailabilityFunc) Available(ctx context.Context, req Requirement) (bool, error) {
	return f(ctx, req)
}

type availabilityResult struct {
	ok  bool
	err error
}

// CachedAvailability memoizes answers so every requirement is probed at most
// once per resolution pass.
type CachedAvailability struct {
	mu      sync.Mutex
	inner   Availability
	results map[Requirement]availabilityResult
}

// NewCachedAvailability wraps inner with a per-pass cache.
func NewCachedAvailability(inner Availability) *CachedAvailability {
	return &CachedAvailability{
		inner:   inner,
		results: make(map[Requirement]availabilityResult),
	}
}

func (c *CachedAvailability) Available(ctx context.Context, req Requirement) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if r, ok := c.results[req]; ok {
		return r.ok, r.err
	}
	ok, err := c.inner.Available(ctx, req)
	c.results[req] = availabilityResult{ok: ok, err: err}
	return ok, err
}

// Builder filters the declared table of one platform.
type Builder struct {
	logger       logger.Logger
	availability Availability
}

// NewBuilder creates a Builder. The availability source should be cached for
// the lifetime of one resolution pass.
func NewBuilder(l logger.Logger, availability Availability) *Builder {
	return &Builder{logger: l, availability: availability}
}

// Build returns the catalog for (p, level): the declared table minus methods
// whose privilege predicate rejects level, minus methods whose live
// requirements are negative or could not be confirmed.
func (b *Builder) Build(
	ctx context.Context,
	p platform.Platform,
	level privilege.Level,
) (Catalog, error) {
	methods, ok := Declared(p)
	if !ok {
		return nil, nkerrors.New(nkerrors.UnsupportedPlatform, string(p)).
			WithMetadata("platform", string(p))
	}

	cat := make(Catalog, 0, len(methods))
	for _, m := range methods {
		if !m.PermittedFor(level) {
			b.logger.Debug("Method requires elevated privileges",
				"method", m.Label,
				"privilege", level.String())
			continue
		}
		if !b.requirementsMet(ctx, m) {
			continue
		}
		cat = append(cat, m)
	}

	return cat, nil
}

// requirementsMet fails closed: a probe error counts as unavailable.
func (b *Builder) requirementsMet(ctx context.Context, m Method) bool {
	for _, req := range m.Requires {
		ok, err := b.availability.Available(ctx, req)
		if err != nil {
			b.logger.Warn("Availability probe failed, treating method as unavailable",
				"method", m.Label,
				"requirement", string(req),
				"err", err)
			return false
		}
		if !ok {
			b.logger.Debug("Method unavailable",
				"method", m.Label,
				"requirement", string(req))
			return false
		}
	}
	return true
}
