// Package cache provides the in-process role-permission cache that sits in
// front of the policy store.
package cache

import (
	"sync"
	"time"

	"github.com/spec-kit/gadgetcloud-admin/internal/domain"
)

// PolicyCache is a time-boxed snapshot of role permission documents. The
// whole snapshot shares one fetchedAt timestamp: either the entire cache is
// valid or the entire cache is stale. fetchedAt is set when the first entry
// lands and is not refreshed by later inserts, so the snapshot can never
// outlive the TTL window opened by its oldest entry.
type PolicyCache struct {
	mu        sync.Mutex
	entries   map[domain.Role]domain.PermissionDocument
	fetchedAt time.Time
	ttl       time.Duration
	now       func() time.Time
}

// NewPolicyCache constructs a cache with the given time-to-live.
func NewPolicyCache(ttl time.Duration) *PolicyCache {
	return &PolicyCache{
		entries: make(map[domain.Role]domain.PermissionDocument),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached document for role if the snapshot is still valid.
func (c *PolicyCache) Get(role domain.Role) (domain.PermissionDocument, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.validLocked() {
		return domain.PermissionDocument{}, false
	}
	doc, ok := c.entries[role]
	return doc, ok
}

// Put inserts a document into the snapshot. The shared timestamp is
// initialized on the first insert only.
func (c *PolicyCache) Put(role domain.Role, doc domain.PermissionDocument) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[role] = doc
	if c.fetchedAt.IsZero() {
		c.fetchedAt = c.now()
	}
}

// Invalidate clears all entries and resets the shared timestamp. Write paths
// must call this after the store write, as their last cache operation.
func (c *PolicyCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[domain.Role]domain.PermissionDocument)
	c.fetchedAt = time.Time{}
}

func (c *PolicyCache) validLocked() bool {
	if c.fetchedAt.IsZero() {
		return false
	}
	return c.now().Sub(c.fetchedAt) < c.ttl
}
